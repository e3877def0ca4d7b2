// Package editor polishes near-final events: it writes missing
// descriptions with an LLM and normalizes fields that commonly fail
// validation, so records rejected by the publish API get a second chance.
package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/llm"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

const systemPrompt = `You are an event description generator specialized in creating engaging, accurate descriptions
for events based on the available information. Your task is to enhance incomplete event data
by filling in missing fields, with a primary focus on creating compelling descriptions.

When writing descriptions:
- Highlight the key elements of the event (what, who [if known], why)
- Include the venue and location context if relevant and provided
- Mention any special features or notable aspects if provided
- Keep the tone appropriate for the event type
- Be concise but informative (strictly 100-200 characters)

IMPORTANT: Do not invent specific details like performers, speakers, precise activities, exact times, or specific costs unless
they are explicitly mentioned in the original data. Use general descriptions that are highly likely to be accurate
based only on the event title, venue, and type provided. If essential details are missing, generate a description
that reflects this uncertainty (e.g., "Join us for [Event Title] at [Venue]. More details coming soon!").`

// Fallback coordinates and district for the home market, used when an
// event resolves to Pensacola but geocoding produced nothing.
const (
	pensacolaLat      = 30.421309
	pensacolaLng      = -87.216915
	pensacolaDistrict = "Escambia County"
)

// defaultTagID marks an event whose category could not be inferred.
const defaultTagID = 1

// minDescriptionLen rejects degenerate model replies.
const minDescriptionLen = 10

// Editor fills gaps in publishable events.
type Editor struct {
	provider    llm.Provider
	concurrency int
}

// New creates an Editor. A nil provider disables description generation;
// the rule-based fixes still run.
func New(provider llm.Provider) *Editor {
	return &Editor{provider: provider, concurrency: 4}
}

// Polish fills in missing fields on one event in place.
func (e *Editor) Polish(ctx context.Context, ev *event.Event) {
	if ev.Name == "" {
		ev.Name = "Untitled Event"
	}

	if strings.TrimSpace(ev.Description) == "" {
		ev.Description = e.describe(ctx, ev)
	}

	if len(ev.TagIDs) == 0 {
		ev.TagIDs = []int{defaultTagID}
		logger.Debug("set default tag", "event", ev.Name)
	}

	e.fixLocation(ev)
}

// PolishAll fills gaps on every event concurrently.
func (e *Editor) PolishAll(ctx context.Context, events []event.Event) []event.Event {
	if len(events) == 0 {
		return events
	}
	logger.Info("polishing events", "count", len(events))

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i := range events {
		wg.Add(1)
		go func(ev *event.Event) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			e.Polish(ctx, ev)
		}(&events[i])
	}
	wg.Wait()
	return events
}

// describe asks the LLM for a short description, falling back to a stock
// line when the provider is absent or the reply is unusable.
func (e *Editor) describe(ctx context.Context, ev *event.Event) string {
	if e.provider == nil {
		return fallbackDescription(ev)
	}

	location := joinNonEmpty(", ", ev.City, ev.State, ev.Country)
	if location == "" {
		location = "Unknown"
	}
	currentDesc := ev.Description
	if currentDesc == "" {
		currentDesc = "(Missing)"
	}
	summary := strings.Join([]string{
		"Title: " + ev.Name,
		fmt.Sprintf("Date/Time: %s at %s", orUnknown(ev.StartDate), orUnknown(ev.StartTime)),
		"Venue: " + orUnknown(ev.Venue),
		"Location: " + location,
		"Current Description: " + currentDesc,
	}, "\n")

	prompt := fmt.Sprintf(`Based only on the information below, generate a concise, engaging description (1-3 sentences, 100-200 characters) for the event.
Return only the description text, nothing else. Do not add any preamble or explanation.

Event Information:
%s

Description:`, summary)

	logger.Info("generating description", "event", ev.Name)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		logger.Error("description generation failed", "event", ev.Name, "error", err)
		return fallbackDescription(ev)
	}

	desc := strings.ReplaceAll(strings.TrimSpace(resp.Content), `"`, "")
	if len(desc) < minDescriptionLen {
		logger.Warn("generated description too short", "event", ev.Name, "description", desc)
		return fallbackDescription(ev)
	}
	return desc
}

// fixLocation defaults the district and coordinates for events that
// resolve to the home market, and clears out-of-range coordinates.
func (e *Editor) fixLocation(ev *event.Event) {
	if ev.Lat != nil && ev.Lng != nil {
		if *ev.Lat < -90 || *ev.Lat > 90 || *ev.Lng < -180 || *ev.Lng > 180 {
			logger.Warn("coordinates out of range", "event", ev.Name, "lat", *ev.Lat, "lng", *ev.Lng)
			ev.Lat, ev.Lng = nil, nil
		}
	}

	isPensacola := strings.EqualFold(ev.City, "pensacola") ||
		strings.Contains(strings.ToLower(ev.Address), "pensacola")

	if (ev.Lat == nil || ev.Lng == nil) && isPensacola {
		ev.Lat = event.Float(pensacolaLat)
		ev.Lng = event.Float(pensacolaLng)
		logger.Info("set default coordinates", "event", ev.Name)
	}

	if ev.District == "" && isPensacola {
		ev.District = pensacolaDistrict
		logger.Debug("set default district", "event", ev.Name)
	}
}

func fallbackDescription(ev *event.Event) string {
	desc := "Join us for " + ev.Name
	if ev.Venue != "" {
		desc += " at " + ev.Venue
	}
	return desc + ". Check back soon for more details!"
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
