// Package extract turns raw page HTML into event candidates through a
// three-tier cascade: schema.org structured data first, then a site
// adapter, then generic heuristics. Extraction never fails a page; every
// tier degrades to the next and the worst case is an empty result.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

// Events extracts all event candidates from one page.
func Events(html, pageURL string) []event.Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Error("unparseable HTML", "url", pageURL, "error", err)
		return nil
	}

	events := tier(func() []event.Candidate {
		return schemaOrgEvents(doc, pageURL)
	}, "ld+json", pageURL)

	if len(events) == 0 {
		domain := domainOf(pageURL)
		if adapter := Find(domain, pageURL); adapter != nil {
			logger.Debug("no structured data found, trying site adapter",
				"url", pageURL, "adapter", adapter.Name())
			events = tier(func() []event.Candidate {
				return adapter.Extract(doc, pageURL)
			}, adapter.Name(), pageURL)
		}
	}

	if len(events) == 0 {
		logger.Debug("falling back to generic extraction", "url", pageURL)
		events = tier(func() []event.Candidate {
			return genericEvents(doc, pageURL)
		}, "generic", pageURL)
	}

	unique := collapse(events)
	logger.Info("extracted events", "url", pageURL, "count", len(unique))
	return unique
}

// tier runs one extraction tier, converting a panic into an empty result so
// a pathological page cannot take down the scan.
func tier(fn func() []event.Candidate, name, pageURL string) (events []event.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("extraction tier panicked", "tier", name, "url", pageURL, "panic", r)
			events = nil
		}
	}()
	return fn()
}

// collapse removes within-page duplicates. Events keyed on title and start
// date; an event without a date falls back to title alone.
func collapse(events []event.Candidate) []event.Candidate {
	seen := make(map[string]bool, len(events))
	unique := make([]event.Candidate, 0, len(events))
	for _, ev := range events {
		title := strings.ToLower(strings.TrimSpace(ev.Title))
		if title == "" {
			continue
		}
		key := title + "\x00" + ev.StartDate
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, ev)
	}
	return unique
}
