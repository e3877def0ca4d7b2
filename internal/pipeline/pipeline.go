// Package pipeline chains the processing stages end to end: collect
// candidates (scan or search), enhance them into publishable events,
// polish, attach images, validate and post. Each stage can snapshot its
// output to a numbered artifact file for inspection.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/editor"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/enhance"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/output"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/publish"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/validate"
)

// Scanner collects candidates from web pages.
type Scanner interface {
	Run(ctx context.Context, urls []string) []event.Candidate
}

// Searcher collects candidates for a location.
type Searcher interface {
	Search(ctx context.Context, location string) ([]event.Candidate, error)
}

// Poster publishes validated events.
type Poster interface {
	PostAll(ctx context.Context, events []event.Event, delay time.Duration) publish.Summary
}

// Options controls pipeline behavior.
type Options struct {
	// MaxEvents caps how many candidates continue past collection.
	// Zero means no cap.
	MaxEvents int
	// DryRun skips the posting stage.
	DryRun bool
	// ArtifactDir, when set, receives a numbered JSON snapshot after
	// every stage.
	ArtifactDir string
	// RequestDelay spaces out posting requests.
	RequestDelay time.Duration
	// ImageDelay spaces out image search requests.
	ImageDelay time.Duration
}

// Report summarizes one pipeline run.
type Report struct {
	BatchID  string   `json:"batch_id"`
	URLs     []string `json:"urls,omitempty"`
	Location string   `json:"location,omitempty"`
	DryRun   bool     `json:"dry_run"`

	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`

	EventsExtracted int `json:"events_extracted"`
	EventsEnhanced  int `json:"events_enhanced"`
	EventsEdited    int `json:"events_edited"`
	EventsValid     int `json:"events_valid"`
	EventsInvalid   int `json:"events_invalid"`
	EventsPosted    int `json:"events_posted"`
	EventsFailed    int `json:"events_failed"`

	PostSummary *publish.Summary `json:"post_summary,omitempty"`
}

// Pipeline wires the stages together. Collection components are optional;
// a pipeline built for scanning does not need a searcher and vice versa.
type Pipeline struct {
	scanner  Scanner
	searcher Searcher
	enhancer *enhance.Enhancer
	editor   *editor.Editor
	checker  *validate.Checker
	images   enhance.ImageSearcher
	poster   Poster
	opts     Options

	now func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScanner sets the URL scanner.
func WithScanner(s Scanner) Option {
	return func(p *Pipeline) { p.scanner = s }
}

// WithSearcher sets the location searcher.
func WithSearcher(s Searcher) Option {
	return func(p *Pipeline) { p.searcher = s }
}

// WithEnhancer sets the enhancer. A default one with no geocoder is used
// otherwise.
func WithEnhancer(e *enhance.Enhancer) Option {
	return func(p *Pipeline) { p.enhancer = e }
}

// WithEditor sets the description editor.
func WithEditor(e *editor.Editor) Option {
	return func(p *Pipeline) { p.editor = e }
}

// WithImageSearcher sets the image searcher. Without one every missing
// image gets the placeholder.
func WithImageSearcher(s enhance.ImageSearcher) Option {
	return func(p *Pipeline) { p.images = s }
}

// WithPoster sets the publishing client.
func WithPoster(poster Poster) Option {
	return func(p *Pipeline) { p.poster = poster }
}

// New creates a Pipeline.
func New(opts Options, options ...Option) *Pipeline {
	p := &Pipeline{
		checker: validate.New(),
		opts:    opts,
		now:     time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.enhancer == nil {
		p.enhancer = enhance.New()
	}
	if p.editor == nil {
		p.editor = editor.New(nil)
	}
	return p
}

// ScanURLs runs the full pipeline over a set of page URLs.
func (p *Pipeline) ScanURLs(ctx context.Context, urls []string) (Report, error) {
	if p.scanner == nil {
		return Report{}, fmt.Errorf("pipeline has no scanner configured")
	}

	report := p.newReport()
	report.URLs = urls

	logger.Info("scanning for events", "batch", report.BatchID, "urls", len(urls))
	candidates := p.scanner.Run(ctx, urls)

	p.process(ctx, candidates, &report)
	return report, nil
}

// SearchLocation runs the full pipeline over agent search results for one
// location.
func (p *Pipeline) SearchLocation(ctx context.Context, location string) (Report, error) {
	if p.searcher == nil {
		return Report{}, fmt.Errorf("pipeline has no searcher configured")
	}

	report := p.newReport()
	report.Location = location

	logger.Info("searching for events", "batch", report.BatchID, "location", location)
	candidates, err := p.searcher.Search(ctx, location)
	if err != nil {
		report.finish(p.now())
		return report, fmt.Errorf("searching %s: %w", location, err)
	}

	p.process(ctx, candidates, &report)
	return report, nil
}

// process runs the shared tail of both pipelines.
func (p *Pipeline) process(ctx context.Context, candidates []event.Candidate, report *Report) {
	defer func() { report.finish(p.now()) }()

	report.EventsExtracted = len(candidates)
	p.snapshot(report.BatchID, 1, "extracted", candidates)

	if len(candidates) == 0 {
		logger.Warn("no events collected, stopping pipeline", "batch", report.BatchID)
		return
	}

	if p.opts.MaxEvents > 0 && len(candidates) > p.opts.MaxEvents {
		logger.Info("limiting events", "batch", report.BatchID, "limit", p.opts.MaxEvents, "collected", len(candidates))
		candidates = candidates[:p.opts.MaxEvents]
	}

	events := p.enhancer.EnhanceAll(ctx, candidates)
	report.EventsEnhanced = len(events)
	p.snapshot(report.BatchID, 2, "enhanced", events)

	events = p.editor.PolishAll(ctx, events)
	report.EventsEdited = len(events)
	p.snapshot(report.BatchID, 3, "edited", events)

	events = enhance.AttachImages(ctx, p.images, events, p.opts.ImageDelay)
	p.snapshot(report.BatchID, 4, "with_images", events)

	valid, invalid := p.checker.Partition(events)
	report.EventsValid = len(valid)
	report.EventsInvalid = len(invalid)
	p.snapshot(report.BatchID, 5, "valid", valid)
	if len(invalid) > 0 {
		p.snapshot(report.BatchID, 5, "invalid", invalid)
	}

	if len(valid) == 0 {
		logger.Warn("no valid events, stopping pipeline", "batch", report.BatchID)
		return
	}

	if p.opts.DryRun || p.poster == nil {
		logger.Info("dry run, skipping post", "batch", report.BatchID, "would_post", len(valid))
		return
	}

	summary := p.poster.PostAll(ctx, valid, p.opts.RequestDelay)
	report.EventsPosted = summary.Posted
	report.EventsFailed = summary.Failed
	report.PostSummary = &summary
	p.snapshot(report.BatchID, 6, "post_results", summary)
}

func (p *Pipeline) newReport() Report {
	return Report{
		BatchID:   uuid.NewString(),
		DryRun:    p.opts.DryRun,
		StartTime: p.now(),
	}
}

// snapshot writes a stage artifact when an artifact directory is set.
func (p *Pipeline) snapshot(batchID string, stage int, name string, data any) {
	if p.opts.ArtifactDir == "" {
		return
	}
	path := filepath.Join(p.opts.ArtifactDir, fmt.Sprintf("%d_%s_%s.json", stage, name, shortID(batchID)))
	if err := output.WriteFile(path, data); err != nil {
		logger.Warn("failed to write stage artifact", "path", path, "error", err)
		return
	}
	logger.Info("saved stage artifact", "path", path)
}

func (r *Report) finish(end time.Time) {
	r.EndTime = end
	r.DurationSeconds = end.Sub(r.StartTime).Seconds()
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
