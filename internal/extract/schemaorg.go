package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/normalize"
)

// eventTypes is the set of schema.org types accepted as events.
var eventTypes = map[string]bool{
	"Event":           true,
	"SocialEvent":     true,
	"Festival":        true,
	"ConcertEvent":    true,
	"TheaterEvent":    true,
	"VisualArtsEvent": true,
	"MusicEvent":      true,
	"SportsEvent":     true,
	"EducationEvent":  true,
	"BusinessEvent":   true,
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// schemaOrgEvents walks every ld+json block in the document and returns the
// candidates found in event-typed items. A broken block contributes nothing;
// it never aborts the page or discards its sibling blocks.
func schemaOrgEvents(doc *goquery.Document, pageURL string) []event.Candidate {
	domain := domainOf(pageURL)
	var events []event.Candidate

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		events = append(events, schemaBlockEvents(raw, pageURL, domain)...)
	})

	return events
}

// schemaBlockEvents parses one ld+json block. Recovery is scoped to the
// block so a pathological block cannot take the candidates already gathered
// from earlier blocks with it.
func schemaBlockEvents(raw, pageURL, domain string) (events []event.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("ld+json block panicked", "url", pageURL, "panic", r)
			events = nil
		}
	}()

	raw = trailingCommaRe.ReplaceAllString(raw, "$1")

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		logger.Warn("invalid ld+json block", "url", pageURL, "error", err,
			"head", truncate(raw, 100))
		return nil
	}

	for _, item := range asItems(data) {
		if !isEventType(item["@type"]) {
			continue
		}
		if ev, ok := parseSchemaEvent(item, pageURL, domain); ok {
			events = append(events, ev)
		}
	}
	return events
}

// asItems flattens a decoded ld+json payload into a list of objects,
// accepting both single objects and arrays.
func asItems(data any) []map[string]any {
	switch t := data.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		items := make([]map[string]any, 0, len(t))
		for _, v := range t {
			if m, ok := v.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	default:
		return nil
	}
}

// isEventType accepts both scalar and list @type declarations.
func isEventType(v any) bool {
	switch t := v.(type) {
	case string:
		return eventTypes[t]
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && eventTypes[s] {
				return true
			}
		}
	}
	return false
}

// parseSchemaEvent maps one event-typed ld+json item to the canonical shape.
func parseSchemaEvent(item map[string]any, pageURL, domain string) (event.Candidate, bool) {
	startDate, startTime := normalize.DateTime(item["startDate"])
	endDate, endTime := normalize.DateTime(item["endDate"])
	if startDate != "" && endDate == "" {
		endDate = startDate
		endTime = event.DefaultEndTime
	}

	ev := event.Candidate{
		Title:        asString(item["name"]),
		StartDate:    startDate,
		StartTime:    startTime,
		EndDate:      endDate,
		EndTime:      endTime,
		Description:  stripHTML(asString(item["description"])),
		URL:          pageURL,
		Image:        schemaImage(item["image"]),
		Organizer:    schemaOrganizer(item["organizer"]),
		SourceURL:    pageURL,
		SourceDomain: domain,
		SourceFormat: event.FormatLDJSON,
	}
	if u := asString(item["url"]); u != "" {
		ev.URL = absoluteURL(pageURL, u)
	}
	ev.TruncateDescription()

	applySchemaLocation(&ev, item["location"])

	if ev.Address != "" && ev.City == "" && ev.State == "" {
		ev.City, ev.State = normalize.CityState(ev.Address)
	}
	if ev.Country == "" && len(ev.State) == 2 {
		ev.Country = "US"
	}
	ev.Image = absoluteURL(pageURL, ev.Image)
	if ev.StartTime == "" && ev.StartDate != "" {
		ev.StartTime = event.DefaultStartTime
	}
	if ev.EndTime == "" {
		ev.EndTime = event.DefaultEndTime
	}

	if !ev.Complete() {
		return event.Candidate{}, false
	}
	return ev, true
}

// applySchemaLocation resolves a schema.org location value, which may be a
// Place object, a PostalAddress, a bare string, or a list of any of those.
func applySchemaLocation(ev *event.Candidate, loc any) {
	if list, ok := loc.([]any); ok {
		if len(list) == 0 {
			return
		}
		loc = list[0]
	}

	switch l := loc.(type) {
	case map[string]any:
		ev.Venue = asString(l["name"])

		switch addr := l["address"].(type) {
		case string:
			ev.Address = strings.TrimSpace(addr)
		case map[string]any:
			street := asString(addr["streetAddress"])
			ev.City = asString(addr["addressLocality"])
			ev.State = asString(addr["addressRegion"])
			ev.Country = schemaCountry(addr["addressCountry"])
			postal := asString(addr["postalCode"])

			var parts []string
			for _, p := range []string{street, ev.City, ev.State, postal} {
				if p != "" {
					parts = append(parts, p)
				}
			}
			ev.Address = strings.Join(parts, ", ")
		default:
			// Sometimes the place name is the whole address.
			if ev.Venue == "" && asString(l["name"]) != "" {
				ev.Address = asString(l["name"])
			}
		}

		if geo := asMap(l["geo"]); geo != nil {
			ev.SetCoordinates(asFloat(geo["latitude"]), asFloat(geo["longitude"]))
		}

	case string:
		ev.Address = strings.TrimSpace(l)
		// "Venue Name, 123 Street ..." strings lead with a short venue name.
		if venue, _, found := strings.Cut(ev.Address, ","); found && len(venue) < 50 {
			ev.Venue = strings.TrimSpace(venue)
		}
	}
}

// schemaCountry accepts both "US" and {"@type": "Country", "name": "US"}.
func schemaCountry(v any) string {
	if m := asMap(v); m != nil {
		return asString(m["name"])
	}
	return asString(v)
}

// schemaImage accepts string, list and ImageObject forms.
func schemaImage(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) > 0 {
			return schemaImage(t[0])
		}
	case map[string]any:
		return asString(t["url"])
	}
	return ""
}

// schemaOrganizer accepts object and list-of-object forms.
func schemaOrganizer(v any) string {
	switch t := v.(type) {
	case map[string]any:
		return asString(t["name"])
	case []any:
		if len(t) > 0 {
			return schemaOrganizer(t[0])
		}
	}
	return ""
}
