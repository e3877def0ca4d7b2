// Package validate checks enhanced events against the publishing API
// contract and repairs the issues that have mechanical fixes.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/normalize"
)

// ValidationError describes one failed check on one field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Invalid pairs a rejected event with the reasons it was rejected.
type Invalid struct {
	Event  event.Event       `json:"event"`
	Errors []ValidationError `json:"errors"`
}

// Checker validates events. The zero value is not usable; call New.
type Checker struct {
	validate *validator.Validate
}

// New creates a Checker.
func New() *Checker {
	return &Checker{validate: validator.New()}
}

// Check returns every problem with the event, or nil when it is
// publishable.
func (c *Checker) Check(ev *event.Event) []ValidationError {
	var errors []ValidationError

	if err := c.validate.Struct(ev); err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			errors = append(errors, ValidationError{
				Field:   e.Field(),
				Message: formatValidationError(e),
				Value:   e.Value(),
			})
		}
	}

	// Date ordering is beyond what struct tags can express.
	if normalize.ValidDate(ev.StartDate) && normalize.ValidDate(ev.EndDate) && ev.EndDate < ev.StartDate {
		errors = append(errors, ValidationError{
			Field:   "EndDate",
			Message: fmt.Sprintf("cannot be before start date %s", ev.StartDate),
			Value:   ev.EndDate,
		})
	}

	if ev.Address != "" && !plausibleAddress(ev.Address) {
		errors = append(errors, ValidationError{
			Field:   "Address",
			Message: "does not look like a street address",
			Value:   ev.Address,
		})
	}

	return errors
}

// Fix repairs the issues that have an unambiguous correction: missing end
// date and times, scheme-less URLs, oversized descriptions and a missing
// address when the venue can stand in for one.
func (c *Checker) Fix(ev *event.Event) {
	if ev.EndDate == "" && ev.StartDate != "" {
		ev.EndDate = ev.StartDate
	}
	if ev.StartTime == "" {
		ev.StartTime = event.DefaultStartTime
	}
	if ev.EndTime == "" {
		ev.EndTime = event.DefaultEndTime
	}

	ev.URL = ensureScheme(ev.URL)
	ev.ImageURL = ensureScheme(ev.ImageURL)

	ev.Description = event.ClampDescription(ev.Description)

	if ev.Address == "" && ev.Venue != "" && (ev.City != "" || ev.State != "") {
		ev.Address = strings.Trim(strings.Join([]string{ev.Venue, ev.City, ev.State}, ", "), ", ")
	}
}

// Partition fixes then validates every event, splitting the batch into
// publishable and rejected events. Input order is preserved on both sides.
func (c *Checker) Partition(events []event.Event) ([]event.Event, []Invalid) {
	if len(events) == 0 {
		logger.Warn("no events to validate")
		return nil, nil
	}
	logger.Info("validating events", "count", len(events))

	var valid []event.Event
	var invalid []Invalid

	for i := range events {
		ev := events[i]
		c.Fix(&ev)

		if errors := c.Check(&ev); len(errors) > 0 {
			reasons := make([]string, len(errors))
			for j, e := range errors {
				reasons[j] = e.Error()
			}
			logger.Warn("event failed validation", "event", ev.Name, "reasons", strings.Join(reasons, "; "))
			invalid = append(invalid, Invalid{Event: ev, Errors: errors})
			continue
		}
		valid = append(valid, ev)
	}

	logger.Info("validation complete", "valid", len(valid), "invalid", len(invalid))
	return valid, invalid
}

// addressMarkers are terms that mark a string as a street address when it
// carries no house number.
var addressMarkers = []string{
	"street", "road", "avenue", "blvd", "drive", "lane", "way",
	"plaza", "square", "park", "st.", "rd.", "ave.", "dr.",
}

// plausibleAddress accepts anything with a digit or a street-type word.
// Venue-derived addresses like "Saenger Theatre, Pensacola, FL" pass via
// the comma check.
func plausibleAddress(address string) bool {
	if len(strings.TrimSpace(address)) < 5 {
		return false
	}
	for _, r := range address {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	lower := strings.ToLower(address)
	for _, marker := range addressMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return strings.Contains(address, ",")
}

func ensureScheme(rawURL string) string {
	if rawURL == "" || strings.Contains(rawURL, "://") {
		return rawURL
	}
	return "https://" + rawURL
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "datetime":
		return fmt.Sprintf("must match format %s", e.Param())
	case "latitude":
		return "must be between -90 and 90"
	case "longitude":
		return "must be between -180 and 180"
	case "min":
		return fmt.Sprintf("must have at least %s entries", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
