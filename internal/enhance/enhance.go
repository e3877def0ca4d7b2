// Package enhance turns extracted candidates into publishable events. It
// resolves locations through a geocoder, fills date and time defaults,
// assembles display addresses, infers category tags and attaches images.
package enhance

import (
	"context"
	"strings"
	"time"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/normalize"
)

// DefaultStartTime applies to enhanced events missing a start time. Most
// listed events without one are evening events, so this sits later in the
// day than the extraction-stage midnight default.
const DefaultStartTime = "18:00:00"

// Enhancer upgrades candidates to publishable events.
type Enhancer struct {
	geocoder Geocoder
	now      func() time.Time
}

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithGeocoder sets the location resolver. Without one, location fields
// pass through as extracted.
func WithGeocoder(g Geocoder) Option {
	return func(e *Enhancer) { e.geocoder = g }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Enhancer) { e.now = now }
}

// New creates an Enhancer.
func New(options ...Option) *Enhancer {
	e := &Enhancer{now: time.Now}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Enhance converts one candidate into a publishable event.
func (e *Enhancer) Enhance(ctx context.Context, c event.Candidate) event.Event {
	ev := event.Event{
		Name:        c.Title,
		Description: c.Description,
		URL:         c.URL,
		ImageURL:    c.Image,
		StartDate:   c.StartDate,
		StartTime:   c.StartTime,
		EndDate:     c.EndDate,
		EndTime:     c.EndTime,
		Venue:       c.Venue,
		Address:     c.Address,
		City:        c.City,
		State:       c.State,
		Country:     c.Country,
		Lat:         c.Latitude,
		Lng:         c.Longitude,
	}

	e.fixDatesAndTimes(&ev)

	var details LocationDetails
	if e.geocoder != nil {
		if query := locationQuery(&ev); query != "" {
			found, err := e.geocoder.Lookup(ctx, query)
			if err != nil {
				logger.Warn("location lookup failed", "event", ev.Name, "query", query, "error", err)
			} else {
				details = found
				applyLocation(&ev, details)
			}
		}
	}

	if ev.Country == "" {
		ev.Country = normalize.DefaultCountry
	}

	if addr := normalize.AssembleAddress(details.FormattedAddress, ev.Venue, ev.City, ev.State, ev.Country); addr != "" {
		ev.Address = addr
	}

	if tags := InferTags(&ev); len(tags) > 0 {
		ev.TagIDs = tags
	}

	return ev
}

// EnhanceAll converts every candidate.
func (e *Enhancer) EnhanceAll(ctx context.Context, candidates []event.Candidate) []event.Event {
	if len(candidates) == 0 {
		return nil
	}
	logger.Info("enhancing events", "count", len(candidates))

	events := make([]event.Event, 0, len(candidates))
	for i, c := range candidates {
		logger.Info("enhancing event", "index", i+1, "total", len(candidates), "title", c.Title)
		events = append(events, e.Enhance(ctx, c))
	}
	return events
}

// fixDatesAndTimes guarantees the four date/time fields are populated. An
// event with no date at all is assumed to be imminent and dated today.
func (e *Enhancer) fixDatesAndTimes(ev *event.Event) {
	if ev.StartDate == "" {
		ev.StartDate = e.now().Format(normalize.DateLayout)
		logger.Warn("event missing start date, defaulting to today", "event", ev.Name)
	}
	if ev.EndDate == "" {
		ev.EndDate = ev.StartDate
	}
	if ev.StartTime == "" || ev.StartTime == event.DefaultStartTime {
		ev.StartTime = DefaultStartTime
	}
	if ev.EndTime == "" {
		ev.EndTime = event.DefaultEndTime
	}
}

// locationQuery builds the geocoding query from the most specific fields
// available.
func locationQuery(ev *event.Event) string {
	switch {
	case ev.Venue != "" && (ev.City != "" || ev.State != ""):
		return strings.Trim(strings.Join([]string{ev.Venue, ev.City, ev.State}, ", "), ", ")
	case ev.Venue != "":
		return ev.Venue
	case ev.City != "" && ev.State != "":
		return ev.City + ", " + ev.State
	case ev.Address != "":
		return ev.Address
	default:
		return ""
	}
}

// applyLocation overwrites event location fields with geocoder results,
// which are authoritative when present.
func applyLocation(ev *event.Event, d LocationDetails) {
	if d.City != "" {
		ev.City = d.City
	}
	if d.State != "" {
		ev.State = d.State
	}
	if d.Country != "" {
		ev.Country = d.Country
	}
	if d.District != "" {
		ev.District = d.District
	}
	if d.Lat != nil && d.Lng != nil {
		ev.Lat = d.Lat
		ev.Lng = d.Lng
	}
}
