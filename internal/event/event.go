// Package event defines the canonical records shared by every stage of the
// pipeline: the Candidate emitted by extraction and the publishable Event
// produced by enhancement.
package event

import "unicode/utf8"

// Source format tags identifying which extraction strategy produced a
// candidate. Recorded for debugging and trust-weighting.
const (
	FormatLDJSON           = "ld+json"
	FormatEventbriteJSON   = "eventbrite-json"
	FormatEventbriteHTML   = "eventbrite-html"
	FormatMeetupJSON       = "meetup-json"
	FormatMeetupHTML       = "meetup-html"
	FormatTicketmasterJSON = "ticketmaster-json"
	FormatTicketmasterHTML = "ticketmaster-html"
	FormatFacebookMeta     = "facebook-meta"
	FormatGenericHTML      = "generic-html"
	FormatAgent            = "agent-search"
)

// Default times applied when a source gives a date but no time.
const (
	DefaultStartTime = "00:00:00"
	DefaultEndTime   = "23:59:59"
)

// MaxDescriptionLen caps candidate descriptions after HTML stripping.
const MaxDescriptionLen = 1000

// Candidate is an event record emitted by one extraction strategy, prior to
// enhancement and validation. Dates are YYYY-MM-DD and times HH:MM:SS
// (24-hour) or empty, never partially formatted.
type Candidate struct {
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	EndTime   string `json:"end_time,omitempty"`

	Venue   string `json:"venue,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Image       string `json:"image,omitempty"`
	Organizer   string `json:"organizer,omitempty"`

	SourceURL    string `json:"source_url,omitempty"`
	SourceDomain string `json:"source_domain,omitempty"`
	SourceFormat string `json:"source_format,omitempty"`
}

// Complete reports whether the candidate carries the minimum required
// fields. Candidates without both a title and a start date are never
// emitted by extractors.
func (c *Candidate) Complete() bool {
	return c.Title != "" && c.StartDate != ""
}

// ApplyDefaults fills the date/time invariants: a missing end date becomes
// the start date, a missing start time becomes midnight and a missing end
// time becomes end of day.
func (c *Candidate) ApplyDefaults() {
	if c.StartDate != "" && c.EndDate == "" {
		c.EndDate = c.StartDate
	}
	if c.StartTime == "" {
		c.StartTime = DefaultStartTime
	}
	if c.EndTime == "" {
		c.EndTime = DefaultEndTime
	}
}

// SetCoordinates records a coordinate pair. Coordinates are kept only as a
// pair; a lone latitude or longitude is discarded.
func (c *Candidate) SetCoordinates(lat, lng *float64) {
	if lat == nil || lng == nil {
		return
	}
	c.Latitude = lat
	c.Longitude = lng
}

// TruncateDescription enforces the description cap.
func (c *Candidate) TruncateDescription() {
	c.Description = ClampDescription(c.Description)
}

// ClampDescription cuts s to at most MaxDescriptionLen bytes, backing up
// to a rune boundary so a multi-byte character is never split.
func ClampDescription(s string) string {
	if len(s) <= MaxDescriptionLen {
		return s
	}
	cut := MaxDescriptionLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Event is the publishable record handed to the publishing API after
// enhancement. Validation rules follow the API contract: every field is
// required except venue and address.
type Event struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	URL         string `json:"url" validate:"required,url"`
	ImageURL    string `json:"imageURL" validate:"required,url"`

	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04:05"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04:05"`

	Venue   string `json:"venue,omitempty"`
	Address string `json:"address,omitempty"`

	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Country  string `json:"country" validate:"required"`
	District string `json:"district" validate:"required"`

	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`

	TagIDs []int `json:"tag_ids" validate:"required,min=1"`
}

// Float returns a pointer to v, for building coordinate fields.
func Float(v float64) *float64 { return &v }
