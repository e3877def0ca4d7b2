package extract

import (
	"testing"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
)

func TestFind_MatchesRegisteredAdapters(t *testing.T) {
	cases := []struct {
		domain  string
		pageURL string
		want    string
	}{
		{"www.eventbrite.com", "https://www.eventbrite.com/e/x", "eventbrite"},
		{"www.meetup.com", "https://www.meetup.com/g/events/1", "meetup"},
		{"www.ticketmaster.com", "https://www.ticketmaster.com/event/1", "ticketmaster"},
		{"www.facebook.com", "https://www.facebook.com/events/123", "facebook"},
		{"www.facebook.com", "https://www.facebook.com/somepage", ""},
		{"city.example.gov", "https://city.example.gov/calendar", ""},
	}

	for _, tc := range cases {
		a := Find(tc.domain, tc.pageURL)
		got := ""
		if a != nil {
			got = a.Name()
		}
		if got != tc.want {
			t.Errorf("Find(%q, %q) = %q, want %q", tc.domain, tc.pageURL, got, tc.want)
		}
	}
}

func TestEvents_EventbriteEmbeddedJSON(t *testing.T) {
	page := `<html><head><script>
window.__SERVER_DATA__ = {"API_CACHE": 1, "event":{"name": "Tech Career Fair", "start": {"utc": "2025-07-16T19:00:00Z"}, "end": {"utc": "2025-07-16T22:00:00Z"}, "venue": {"name": "Expo Hall", "latitude": 37.78, "longitude": -122.41, "address": {"address_1": "747 Howard St", "city": "San Francisco", "region": "CA", "postal_code": "94103", "country": "US"}}, "summary": "Meet hiring teams in person.", "url": "https://www.eventbrite.com/e/tech-career-fair-1", "organizer": {"name": "Hire Network"}}, "other": 2};
</script></head><body></body></html>`

	events := Events(page, "https://www.eventbrite.com/e/tech-career-fair-1")
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.SourceFormat != event.FormatEventbriteJSON {
		t.Errorf("source format = %q, want %q", ev.SourceFormat, event.FormatEventbriteJSON)
	}
	if ev.Title != "Tech Career Fair" {
		t.Errorf("title = %q", ev.Title)
	}
	if ev.StartDate != "2025-07-16" || ev.StartTime != "19:00:00" {
		t.Errorf("start = %q %q", ev.StartDate, ev.StartTime)
	}
	if ev.Venue != "Expo Hall" || ev.City != "San Francisco" || ev.State != "CA" {
		t.Errorf("location = %q %q %q", ev.Venue, ev.City, ev.State)
	}
	if ev.Address != "747 Howard St, San Francisco, CA, 94103, US" {
		t.Errorf("address = %q", ev.Address)
	}
	if ev.Latitude == nil || *ev.Latitude != 37.78 {
		t.Errorf("latitude = %v", ev.Latitude)
	}
	if ev.Description != "Meet hiring teams in person." {
		t.Errorf("description = %q", ev.Description)
	}
	if ev.Organizer != "Hire Network" {
		t.Errorf("organizer = %q", ev.Organizer)
	}
}

func TestEvents_MeetupInitialStateEpochMillis(t *testing.T) {
	page := `<html><head><script>
window.__INITIAL_STATE__ = {"event": {"event": {"title": "SF AI Meetup", "dateTime": 1738368000000, "endTime": 1738375200000, "venue": {"name": "The Hub", "city": "San Francisco", "state": "CA", "country": "us", "lat": 37.77, "lon": -122.42}, "description": "<p>Monthly AI talks.</p>", "image": {"baseUrl": "https://secure.meetupstatic.com/photos/", "id": "518"}, "eventUrl": "https://www.meetup.com/sf-ai/events/42/", "group": {"name": "SF AI"}}}};
</script></head><body></body></html>`

	events := Events(page, "https://www.meetup.com/sf-ai/events/42/")
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.SourceFormat != event.FormatMeetupJSON {
		t.Errorf("source format = %q, want %q", ev.SourceFormat, event.FormatMeetupJSON)
	}
	// Millisecond timestamps resolve in UTC.
	if ev.StartDate != "2025-02-01" || ev.StartTime != "00:00:00" {
		t.Errorf("start = %q %q", ev.StartDate, ev.StartTime)
	}
	if ev.EndTime != "02:00:00" {
		t.Errorf("end time = %q", ev.EndTime)
	}
	if ev.Country != "US" {
		t.Errorf("country = %q, want normalized US", ev.Country)
	}
	if ev.Address != "San Francisco, CA" {
		t.Errorf("address = %q", ev.Address)
	}
	if ev.Image != "https://secure.meetupstatic.com/photos/518/highres.jpg" {
		t.Errorf("image = %q", ev.Image)
	}
	if ev.Organizer != "SF AI" {
		t.Errorf("organizer = %q", ev.Organizer)
	}
	if ev.Description != "Monthly AI talks." {
		t.Errorf("description = %q", ev.Description)
	}
}

func TestEvents_MeetupInitialStatePrecededByOtherStatements(t *testing.T) {
	// Assignments before the state blob must not steal the "=" split.
	page := `<html><head><script>
var bundled = {"flags": true}; window.__APP_VERSION__ = "7.2"; window.__INITIAL_STATE__ = {"event": {"event": {"title": "Gulf Coast Hikers", "dateTime": "2025-03-08T09:00:00", "venue": {"name": "Trailhead", "city": "Pensacola", "state": "FL", "country": "us"}}}};
</script></head><body></body></html>`

	events := Events(page, "https://www.meetup.com/gulf-coast-hikers/events/7/")
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.SourceFormat != event.FormatMeetupJSON {
		t.Errorf("source format = %q, want %q", ev.SourceFormat, event.FormatMeetupJSON)
	}
	if ev.Title != "Gulf Coast Hikers" {
		t.Errorf("title = %q", ev.Title)
	}
	if ev.StartDate != "2025-03-08" || ev.StartTime != "09:00:00" {
		t.Errorf("start = %q %q", ev.StartDate, ev.StartTime)
	}
	if ev.City != "Pensacola" || ev.State != "FL" {
		t.Errorf("city/state = %q/%q", ev.City, ev.State)
	}
}

func TestEvents_FacebookMetaRequiresParseableDate(t *testing.T) {
	// Title only: the description yields no date, so no candidate is emitted.
	page := `<html><head>
<meta property="og:title" content="Mystery Party"/>
<meta property="og:description" content="Hosted by Someone. Come hang out."/>
</head><body></body></html>`

	events := Events(page, "https://www.facebook.com/events/999/")
	for _, ev := range events {
		if ev.SourceFormat == event.FormatFacebookMeta {
			t.Fatalf("dateless facebook candidate emitted: %+v", ev)
		}
	}
}

func TestEvents_FacebookMetaWithDateInDescription(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Warehouse Show"/>
<meta property="og:description" content="Event by Night Owls on 2025-08-09 at The Warehouse · Pensacola, FL"/>
<meta property="og:image" content="https://cdn.example.com/show.jpg"/>
</head><body></body></html>`

	events := Events(page, "https://www.facebook.com/events/1234/")
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.SourceFormat != event.FormatFacebookMeta {
		t.Errorf("source format = %q, want %q", ev.SourceFormat, event.FormatFacebookMeta)
	}
	if ev.StartDate != "2025-08-09" {
		t.Errorf("start date = %q", ev.StartDate)
	}
	if ev.Organizer != "Night Owls" {
		t.Errorf("organizer = %q", ev.Organizer)
	}
	if ev.City != "Pensacola" || ev.State != "FL" {
		t.Errorf("city/state = %q/%q", ev.City, ev.State)
	}
}

func TestEvents_TicketmasterEmbeddedContext(t *testing.T) {
	page := `<html><head><script>
window.__TMANALYSIS__ = {};
window.__TMANALYSIS__.context = {"event": {"name": "Arena Rock Night", "startDate": "2025-10-03T20:00:00", "venue": {"name": "Civic Arena", "city": "Mobile", "stateCode": "AL", "countryCode": "US", "address1": "401 Civic Center Dr", "location": {"latitude": 30.68, "longitude": -88.05}}, "images": [{"url": "https://img.tm.example/rock.jpg"}], "promoter": {"name": "LiveCo"}}};
</script></head><body></body></html>`

	events := Events(page, "https://www.ticketmaster.com/event/rock-night")
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.SourceFormat != event.FormatTicketmasterJSON {
		t.Errorf("source format = %q, want %q", ev.SourceFormat, event.FormatTicketmasterJSON)
	}
	if ev.StartDate != "2025-10-03" || ev.StartTime != "20:00:00" {
		t.Errorf("start = %q %q", ev.StartDate, ev.StartTime)
	}
	if ev.Venue != "Civic Arena" || ev.City != "Mobile" || ev.State != "AL" {
		t.Errorf("location = %q %q %q", ev.Venue, ev.City, ev.State)
	}
	if ev.Image != "https://img.tm.example/rock.jpg" {
		t.Errorf("image = %q", ev.Image)
	}
	if ev.Organizer != "LiveCo" {
		t.Errorf("organizer = %q", ev.Organizer)
	}
}
