// Package searcher finds upcoming events for a location by querying an LLM
// and recovering structured records from its free-form reply.
package searcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/agentparse"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/llm"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/normalize"
)

// DefaultLimit is the number of events requested per search. Kept small;
// larger responses get truncated mid-array and lose events to repair.
const DefaultLimit = 5

const systemPrompt = `You are an event search assistant specialized in finding upcoming events based on location.
For any location query, find upcoming events in that area. Focus on:
1. Concerts, festivals, and live music
2. Sports events
3. Arts and cultural events
4. Food and drink festivals
5. Community events and fundraisers

For each event, extract and provide the following information:
- Title of the event
- Date and time (provide exact start_date, start_time, end_date, end_time in format YYYY-MM-DD and HH:MM:SS)
- Venue or location (include specific venue name)
- Full address of the venue (provide as much detail as possible)
- City, state, and country
- Brief description (1-2 sentences, maximum 150 characters)
- Link to the event page if available

Always prioritize events happening in the near future (next 2-3 months).

IMPORTANT: Return ONLY a JSON array with these events - no introductory text,
no conclusions, no explanations. Each event should have these exact keys:
"title", "start_date", "start_time", "end_date", "end_time", "venue", "address", "city", "state", "country",
"description", "url"

For dates, use YYYY-MM-DD format.
For times, use HH:MM:SS format (24-hour).
If end date is unknown, use the same as start date.
If end time is unknown, use 23:59:59.
The address field should contain the full venue address when available.

KEEP YOUR RESPONSE CONCISE.`

// Searcher runs location-based event searches against an LLM provider.
type Searcher struct {
	provider  llm.Provider
	artifacts *agentparse.ArtifactStore
	limit     int
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLimit sets the number of events requested per search.
func WithLimit(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithArtifacts persists raw output and parse summaries for each search.
func WithArtifacts(store *agentparse.ArtifactStore) Option {
	return func(s *Searcher) { s.artifacts = store }
}

// New creates a Searcher backed by the given provider.
func New(provider llm.Provider, options ...Option) *Searcher {
	s := &Searcher{
		provider:  provider,
		artifacts: &agentparse.ArtifactStore{},
		limit:     DefaultLimit,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Search finds upcoming events in the given location. Parse failures yield
// an empty slice; only transport-level problems surface as errors.
func (s *Searcher) Search(ctx context.Context, location string) ([]event.Candidate, error) {
	query := fmt.Sprintf(
		"Find exactly %d upcoming events in %s, including full venue addresses, and return only a JSON array with no other text",
		s.limit, location)
	logger.Info("searching for events", "location", location, "limit", s.limit)

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: query},
		},
		MaxTokens:   2500,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("event search for %q: %w", location, err)
	}

	s.artifacts.SaveRaw(location, resp.Content)

	result := agentparse.Parse(resp.Content)
	s.artifacts.SaveResult(location, result)

	events := result.Events
	if len(events) > s.limit {
		events = events[:s.limit]
	}
	for i := range events {
		finalize(&events[i], location)
	}

	logger.Info("search complete", "location", location,
		"events", len(events), "strategy", result.Strategy)
	return events, nil
}

// finalize fills provenance and normalizes fields the model tends to leave
// ragged: missing cities fall back to the searched location, and date/time
// defaults are applied.
func finalize(ev *event.Candidate, location string) {
	ev.SourceFormat = event.FormatAgent
	ev.SourceDomain = "web-search"

	if ev.City == "" {
		city, state := normalize.CityState(location)
		if city == "" {
			city = strings.TrimSpace(location)
		}
		ev.City = city
		if ev.State == "" {
			ev.State = state
		}
	}

	ev.Title = normalize.CleanText(ev.Title)
	ev.Description = normalize.CleanText(ev.Description)
	ev.TruncateDescription()
	ev.ApplyDefaults()
}
