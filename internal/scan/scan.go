// Package scan fans out over source URLs, extracts event candidates from
// each page and deduplicates the combined results.
package scan

import (
	"context"
	"sync"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/dedup"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/extract"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/fetch"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

// DefaultConcurrency bounds simultaneous page fetches.
const DefaultConcurrency = 5

// Scanner coordinates fetching and extraction across many URLs.
type Scanner struct {
	fetcher     fetch.Fetcher
	opts        fetch.Options
	concurrency int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithConcurrency sets the number of URLs fetched in parallel.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithFetchOptions overrides the per-request fetch options.
func WithFetchOptions(opts fetch.Options) Option {
	return func(s *Scanner) { s.opts = opts }
}

// New creates a Scanner using the given fetcher.
func New(fetcher fetch.Fetcher, options ...Option) *Scanner {
	s := &Scanner{
		fetcher:     fetcher,
		opts:        fetch.DefaultOptions(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// ScanURL fetches one page and extracts its event candidates. A fetch
// failure yields an empty slice, never an error; one bad source must not
// disturb the rest of a run.
func (s *Scanner) ScanURL(ctx context.Context, url string) []event.Candidate {
	logger.Info("scanning URL", "url", url)

	page, err := s.fetcher.Fetch(ctx, url, s.opts)
	if err != nil {
		logger.Error("fetch failed", "url", url, "error", err)
		return nil
	}
	if page.HTML == "" {
		logger.Warn("empty page body", "url", url)
		return nil
	}

	return extract.Events(page.HTML, url)
}

// Run scans every URL concurrently and returns the deduplicated candidates.
// Results keep URL order regardless of completion order, so runs over the
// same sources are reproducible.
func (s *Scanner) Run(ctx context.Context, urls []string) []event.Candidate {
	logger.Info("starting scan", "urls", len(urls), "concurrency", s.concurrency)

	perURL := make([][]event.Candidate, len(urls))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				logger.Warn("scan cancelled", "url", url)
				return
			default:
			}
			perURL[i] = s.ScanURL(ctx, url)
		}(i, url)
	}
	wg.Wait()

	store := dedup.NewStore()
	var all []event.Candidate
	for _, events := range perURL {
		all = append(all, store.Filter(events)...)
	}

	logger.Info("scan complete", "unique_events", len(all))
	return all
}
