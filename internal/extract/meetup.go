package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/normalize"
)

func init() {
	Register(meetupAdapter{})
}

// meetupAdapter reads Meetup pages, preferring the event node inside the
// window.__INITIAL_STATE__ blob over HTML scraping.
type meetupAdapter struct{}

func (meetupAdapter) Name() string { return "meetup" }

func (meetupAdapter) Match(domain, _ string) bool {
	return strings.Contains(domain, "meetup")
}

func (a meetupAdapter) Extract(doc *goquery.Document, pageURL string) []event.Candidate {
	domain := domainOf(pageURL)

	for _, body := range scriptBodies(doc, "window.__INITIAL_STATE__") {
		// Other statements may precede the assignment; the "=" that
		// matters is the one after the marker.
		_, rest, _ := strings.Cut(body, "window.__INITIAL_STATE__")
		_, blob, found := strings.Cut(rest, "=")
		if !found {
			continue
		}
		blob = strings.TrimSuffix(strings.TrimSpace(blob), ";")
		state, ok := decodeEmbedded(blob)
		if !ok {
			logger.Warn("could not decode meetup initial state", "url", pageURL)
			continue
		}
		node := asMap(asMap(state["event"])["event"])
		if node == nil {
			continue
		}
		if ev, ok := a.fromJSON(node, pageURL, domain); ok {
			logger.Debug("extracted meetup event from initial state", "url", pageURL)
			return []event.Candidate{ev}
		}
	}

	logger.Debug("meetup initial state unavailable, scraping markup", "url", pageURL)
	if ev, ok := a.fromHTML(doc, pageURL, domain); ok {
		return []event.Candidate{ev}
	}
	return nil
}

func (meetupAdapter) fromJSON(node map[string]any, pageURL, domain string) (event.Candidate, bool) {
	ev := event.Candidate{
		Title:        asString(node["title"]),
		URL:          pageURL,
		SourceURL:    pageURL,
		SourceDomain: domain,
		SourceFormat: event.FormatMeetupJSON,
	}

	ev.StartDate, ev.StartTime = normalize.DateTime(node["dateTime"])
	ev.EndDate, ev.EndTime = normalize.DateTime(node["endTime"])

	if venue := asMap(node["venue"]); venue != nil {
		ev.Venue = asString(venue["name"])
		ev.Address = asString(venue["address"])
		ev.City = asString(venue["city"])
		ev.State = asString(venue["state"])
		ev.Country = asString(venue["country"])
		if strings.EqualFold(ev.Country, "us") {
			ev.Country = "US"
		}
		ev.SetCoordinates(asFloat(venue["lat"]), asFloat(venue["lon"]))
		if ev.Address == "" && ev.City != "" && ev.State != "" {
			ev.Address = ev.City + ", " + ev.State
		}
	}

	ev.Description = stripHTML(asString(node["description"]))
	ev.TruncateDescription()

	if img := asMap(node["image"]); img != nil {
		base, id := asString(img["baseUrl"]), asString(img["id"])
		if base != "" && id != "" {
			ev.Image = base + id + "/highres.jpg"
		}
	}

	if u := asString(node["eventUrl"]); u != "" {
		ev.URL = u
	}
	if group := asMap(node["group"]); group != nil {
		ev.Organizer = asString(group["name"])
	}

	if !ev.Complete() {
		return event.Candidate{}, false
	}
	ev.ApplyDefaults()
	return ev, true
}

var meetupEndTimeRe = regexp.MustCompile(`(?i)to\s+(\d{1,2}:\d{2}\s*[AP]M)`)

func (meetupAdapter) fromHTML(doc *goquery.Document, pageURL, domain string) (event.Candidate, bool) {
	ev := event.Candidate{
		Title:        selText(doc, "h1#event-title", "h1"),
		URL:          pageURL,
		SourceURL:    pageURL,
		SourceDomain: domain,
		SourceFormat: event.FormatMeetupHTML,
	}

	if timeEl := doc.Find("time[datetime]").First(); timeEl.Length() > 0 {
		dt, _ := timeEl.Attr("datetime")
		ev.StartDate, ev.StartTime = normalize.DateTime(dt)

		// "Thursday, July 18, 2024 at 6:00 PM to 8:00 PM PDT"
		if parent := timeEl.ParentsFiltered("div").First(); parent.Length() > 0 && ev.StartDate != "" {
			text := normalize.CleanText(parent.Text())
			if m := meetupEndTimeRe.FindStringSubmatch(text); m != nil {
				if _, endTime := normalize.DateTime(ev.StartDate + " " + m[1]); endTime != "" {
					ev.EndTime = endTime
					ev.EndDate = ev.StartDate
				}
			}
		}
	}

	ev.Venue = selText(doc, `[data-testid="venue-name"]`)
	ev.Address = selText(doc, `[data-testid="venue-address"]`)
	if ev.Address != "" {
		ev.City, ev.State = normalize.CityState(ev.Address)
	} else if ev.Venue != "" {
		ev.City, ev.State = normalize.CityState(ev.Venue)
	}

	ev.Description = selText(doc, "#event-details", `[data-testid="event-description"]`)
	ev.TruncateDescription()

	ev.Image = absoluteURL(pageURL, metaContent(doc, "og:image"))

	ev.Organizer = selText(doc,
		`a[data-testid="group-link-in-event-header"]`,
		`h3 ~ p a[href*="/groups/"]`)

	if ev.Country == "" && len(ev.State) == 2 {
		ev.Country = "US"
	}

	if !ev.Complete() {
		return event.Candidate{}, false
	}
	ev.ApplyDefaults()
	return ev, true
}
