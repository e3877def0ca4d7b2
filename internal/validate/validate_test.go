package validate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
)

func publishableEvent() event.Event {
	return event.Event{
		Name:        "Wine & Food Classic",
		Description: "A celebration of regional flavors featuring fine wines and gourmet dishes.",
		URL:         "https://pensacolaflorida.com/upcoming-events/",
		ImageURL:    "https://example.com/image.jpg",
		StartDate:   "2025-03-29",
		StartTime:   "19:00:00",
		EndDate:     "2025-03-29",
		EndTime:     "22:00:00",
		Venue:       "Amos Performance Studio",
		Address:     "1000 College Blvd, Pensacola, FL 32504",
		City:        "Pensacola",
		State:       "Florida",
		Country:     "United States",
		District:    "Escambia County",
		Lat:         event.Float(30.421309),
		Lng:         event.Float(-87.216915),
		TagIDs:      []int{3, 6},
	}
}

func hasError(errors []ValidationError, field string) bool {
	for _, e := range errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestCheck_ValidEvent(t *testing.T) {
	ev := publishableEvent()
	if errors := New().Check(&ev); len(errors) != 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}
}

func TestCheck_ReportsMissingAndMalformedFields(t *testing.T) {
	c := New()

	cases := []struct {
		name   string
		mutate func(*event.Event)
		field  string
	}{
		{"missing image", func(ev *event.Event) { ev.ImageURL = "" }, "ImageURL"},
		{"missing district", func(ev *event.Event) { ev.District = "" }, "District"},
		{"missing coordinates", func(ev *event.Event) { ev.Lat = nil }, "Lat"},
		{"latitude out of range", func(ev *event.Event) { ev.Lat = event.Float(91) }, "Lat"},
		{"bad date format", func(ev *event.Event) { ev.StartDate = "03/29/2025" }, "StartDate"},
		{"bad time format", func(ev *event.Event) { ev.StartTime = "7pm" }, "StartTime"},
		{"no tags", func(ev *event.Event) { ev.TagIDs = nil }, "TagIDs"},
		{"end before start", func(ev *event.Event) { ev.EndDate = "2025-03-28" }, "EndDate"},
		{"implausible address", func(ev *event.Event) { ev.Address = "somewhere" }, "Address"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := publishableEvent()
			tc.mutate(&ev)
			errors := c.Check(&ev)
			if !hasError(errors, tc.field) {
				t.Errorf("errors %v do not mention %s", errors, tc.field)
			}
		})
	}
}

func TestFix_RepairsMechanicalIssues(t *testing.T) {
	ev := publishableEvent()
	ev.EndDate = ""
	ev.StartTime = ""
	ev.EndTime = ""
	ev.URL = "example.com/events"
	ev.Address = ""
	ev.Description = strings.Repeat("x", event.MaxDescriptionLen+50)

	c := New()
	c.Fix(&ev)

	if ev.EndDate != ev.StartDate {
		t.Errorf("end date = %q", ev.EndDate)
	}
	if ev.StartTime != "00:00:00" || ev.EndTime != "23:59:59" {
		t.Errorf("times = %q/%q", ev.StartTime, ev.EndTime)
	}
	if ev.URL != "https://example.com/events" {
		t.Errorf("url = %q", ev.URL)
	}
	if ev.Address != "Amos Performance Studio, Pensacola, Florida" {
		t.Errorf("address = %q", ev.Address)
	}
	if len(ev.Description) != event.MaxDescriptionLen {
		t.Errorf("description length = %d", len(ev.Description))
	}

	if errors := c.Check(&ev); len(errors) != 0 {
		t.Errorf("fixed event still invalid: %v", errors)
	}
}

func TestFix_DescriptionCapKeepsValidUTF8(t *testing.T) {
	ev := publishableEvent()
	// A two-byte rune lands across the byte cap.
	ev.Description = strings.Repeat("x", event.MaxDescriptionLen-1) + "é suivi d'autres mots"

	New().Fix(&ev)

	if !utf8.ValidString(ev.Description) {
		t.Fatalf("description is not valid UTF-8 after cap: %q", ev.Description[len(ev.Description)-4:])
	}
	if len(ev.Description) != event.MaxDescriptionLen-1 {
		t.Errorf("description length = %d, want %d", len(ev.Description), event.MaxDescriptionLen-1)
	}
}

func TestPartition_SplitsAndFixes(t *testing.T) {
	good := publishableEvent()

	fixable := publishableEvent()
	fixable.Name = "Fixable"
	fixable.EndDate = ""
	fixable.EndTime = ""

	broken := publishableEvent()
	broken.Name = "Broken"
	broken.ImageURL = ""
	broken.Lat = nil

	valid, invalid := New().Partition([]event.Event{good, fixable, broken})

	if len(valid) != 2 {
		t.Fatalf("valid count = %d, want 2", len(valid))
	}
	if valid[0].Name != good.Name || valid[1].Name != "Fixable" {
		t.Errorf("valid order = %q, %q", valid[0].Name, valid[1].Name)
	}
	if valid[1].EndDate != valid[1].StartDate {
		t.Errorf("fixable end date = %q", valid[1].EndDate)
	}

	if len(invalid) != 1 {
		t.Fatalf("invalid count = %d, want 1", len(invalid))
	}
	if invalid[0].Event.Name != "Broken" {
		t.Errorf("invalid event = %q", invalid[0].Event.Name)
	}
	if !hasError(invalid[0].Errors, "ImageURL") || !hasError(invalid[0].Errors, "Lat") {
		t.Errorf("errors = %v", invalid[0].Errors)
	}
}

func TestPartition_Empty(t *testing.T) {
	valid, invalid := New().Partition(nil)
	if valid != nil || invalid != nil {
		t.Fatalf("expected nil slices, got %v, %v", valid, invalid)
	}
}
