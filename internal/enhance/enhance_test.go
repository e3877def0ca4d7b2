package enhance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
)

const geocodeReply = `{
  "status": "OK",
  "results": [{
    "formatted_address": "118 S Palafox St, Pensacola, FL 32502, USA",
    "geometry": {"location": {"lat": 30.4103, "lng": -87.2147}},
    "address_components": [
      {"long_name": "Pensacola", "short_name": "Pensacola", "types": ["locality", "political"]},
      {"long_name": "Escambia County", "short_name": "Escambia County", "types": ["administrative_area_level_2", "political"]},
      {"long_name": "Florida", "short_name": "FL", "types": ["administrative_area_level_1", "political"]},
      {"long_name": "United States", "short_name": "US", "types": ["country", "political"]}
    ]
  }]
}`

func testGeocoder(t *testing.T, handler http.HandlerFunc) *GoogleGeocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGoogleGeocoder("test-key")
	g.Endpoint = srv.URL
	return g
}

func TestGoogleGeocoder_Lookup(t *testing.T) {
	var gotQuery string
	g := testGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("address")
		w.Write([]byte(geocodeReply))
	})

	details, err := g.Lookup(context.Background(), "Saenger Theatre, Pensacola, FL")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if gotQuery != "Saenger Theatre, Pensacola, FL" {
		t.Errorf("address param = %q", gotQuery)
	}
	if details.City != "Pensacola" || details.State != "Florida" || details.StateCode != "FL" {
		t.Errorf("city/state = %q/%q/%q", details.City, details.State, details.StateCode)
	}
	if details.District != "Escambia County" {
		t.Errorf("district = %q", details.District)
	}
	if details.Country != "United States" || details.CountryCode != "US" {
		t.Errorf("country = %q/%q", details.Country, details.CountryCode)
	}
	if details.Lat == nil || *details.Lat != 30.4103 {
		t.Errorf("lat = %v", details.Lat)
	}
	if details.FormattedAddress == "" {
		t.Error("formatted address missing")
	}
}

func TestGoogleGeocoder_NoResults(t *testing.T) {
	g := testGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	if _, err := g.Lookup(context.Background(), "nowhere at all"); err == nil {
		t.Fatal("expected error for zero results")
	}
}

func TestGoogleGeocoder_MissingKey(t *testing.T) {
	g := NewGoogleGeocoder("")
	if _, err := g.Lookup(context.Background(), "Pensacola, FL"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestEnhance_ConvertsAndGeocodes(t *testing.T) {
	g := testGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(geocodeReply))
	})
	e := New(WithGeocoder(g))

	out := e.Enhance(context.Background(), event.Candidate{
		Title:       "Symphony Night",
		StartDate:   "2025-03-29",
		StartTime:   "19:30:00",
		EndDate:     "2025-03-29",
		EndTime:     "21:30:00",
		Venue:       "Saenger Theatre",
		City:        "Pensacola",
		State:       "FL",
		Description: "An evening concert with the orchestra.",
		URL:         "https://example.com/symphony",
	})

	if out.Name != "Symphony Night" {
		t.Errorf("name = %q", out.Name)
	}
	// Geocoder output is authoritative for location fields.
	if out.State != "Florida" {
		t.Errorf("state = %q", out.State)
	}
	if out.District != "Escambia County" {
		t.Errorf("district = %q", out.District)
	}
	if out.Lat == nil || *out.Lat != 30.4103 {
		t.Errorf("lat = %v", out.Lat)
	}
	if out.Address != "118 S Palafox St, Pensacola, FL 32502, USA" {
		t.Errorf("address = %q", out.Address)
	}
	if out.StartTime != "19:30:00" {
		t.Errorf("start time rewritten: %q", out.StartTime)
	}
	if !hasTag(out.TagIDs, TagConcert) {
		t.Errorf("tags %v missing concert", out.TagIDs)
	}
}

func TestEnhance_DefaultsWithoutGeocoder(t *testing.T) {
	e := New(WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))

	out := e.Enhance(context.Background(), event.Candidate{
		Title: "Pop-up Market",
		Venue: "Community Plaza",
		City:  "Mobile",
		State: "AL",
	})

	if out.StartDate != "2025-06-01" {
		t.Errorf("start date = %q, want today", out.StartDate)
	}
	if out.EndDate != "2025-06-01" {
		t.Errorf("end date = %q", out.EndDate)
	}
	if out.StartTime != "18:00:00" {
		t.Errorf("start time = %q, want evening default", out.StartTime)
	}
	if out.EndTime != "23:59:59" {
		t.Errorf("end time = %q", out.EndTime)
	}
	if out.Country != "United States" {
		t.Errorf("country = %q", out.Country)
	}
	if out.Address != "Community Plaza, Mobile, AL" {
		t.Errorf("address = %q", out.Address)
	}
}

func TestEnhance_MidnightPlaceholderBecomesEvening(t *testing.T) {
	e := New()

	out := e.Enhance(context.Background(), event.Candidate{
		Title:     "Street Fair",
		StartDate: "2025-07-04",
		StartTime: "00:00:00",
	})

	if out.StartTime != "18:00:00" {
		t.Errorf("start time = %q, want evening default for midnight placeholder", out.StartTime)
	}
}
