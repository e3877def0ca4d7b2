package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/normalize"
)

func init() {
	Register(eventbriteAdapter{})
}

// eventbriteAdapter reads Eventbrite pages, preferring the event object
// embedded in the server-data script over HTML scraping.
type eventbriteAdapter struct{}

func (eventbriteAdapter) Name() string { return "eventbrite" }

func (eventbriteAdapter) Match(domain, _ string) bool {
	return strings.Contains(domain, "eventbrite")
}

func (a eventbriteAdapter) Extract(doc *goquery.Document, pageURL string) []event.Candidate {
	domain := domainOf(pageURL)

	for _, body := range scriptBodies(doc, `"event":{`) {
		if !strings.Contains(body, `"name":`) {
			continue
		}
		raw, found := objectAfterKey(body, `"event"`)
		if !found {
			continue
		}
		data, ok := decodeEmbedded(raw)
		if !ok {
			logger.Warn("could not decode embedded eventbrite data", "url", pageURL)
			continue
		}
		if ev, ok := a.fromJSON(data, pageURL, domain); ok {
			logger.Debug("extracted eventbrite event from embedded data", "url", pageURL)
			return []event.Candidate{ev}
		}
	}

	logger.Debug("eventbrite embedded data unavailable, scraping markup", "url", pageURL)
	if ev, ok := a.fromHTML(doc, pageURL, domain); ok {
		return []event.Candidate{ev}
	}
	return nil
}

func (eventbriteAdapter) fromJSON(data map[string]any, pageURL, domain string) (event.Candidate, bool) {
	ev := event.Candidate{
		Title:        asString(data["name"]),
		URL:          pageURL,
		SourceURL:    pageURL,
		SourceDomain: domain,
		SourceFormat: event.FormatEventbriteJSON,
	}

	if start := asMap(data["start"]); start != nil {
		ev.StartDate, ev.StartTime = normalize.DateTime(start["utc"])
	}
	if end := asMap(data["end"]); end != nil {
		ev.EndDate, ev.EndTime = normalize.DateTime(end["utc"])
	}

	if venue := asMap(data["venue"]); venue != nil {
		ev.Venue = asString(venue["name"])
		if addr := asMap(venue["address"]); addr != nil {
			var parts []string
			for _, k := range []string{"address_1", "address_2", "city", "region", "postal_code", "country"} {
				if v := asString(addr[k]); v != "" {
					parts = append(parts, v)
				}
			}
			ev.Address = strings.Join(parts, ", ")
			ev.City = asString(addr["city"])
			ev.State = asString(addr["region"])
			ev.Country = asString(addr["country"])
		}
		ev.SetCoordinates(asFloat(venue["latitude"]), asFloat(venue["longitude"]))
	}

	if desc := asMap(data["description"]); desc != nil {
		ev.Description = asString(desc["text"])
	}
	if ev.Description == "" {
		ev.Description = asString(data["summary"])
	}
	ev.Description = stripHTML(ev.Description)
	ev.TruncateDescription()

	if logo := asMap(data["logo"]); logo != nil {
		if orig := asMap(logo["original"]); orig != nil {
			ev.Image = asString(orig["url"])
		}
		if ev.Image == "" {
			ev.Image = asString(logo["url"])
		}
	}

	if u := asString(data["url"]); u != "" {
		ev.URL = u
	}
	if org := asMap(data["organizer"]); org != nil {
		ev.Organizer = asString(org["name"])
	}

	if !ev.Complete() {
		return event.Candidate{}, false
	}
	ev.ApplyDefaults()
	return ev, true
}

func (eventbriteAdapter) fromHTML(doc *goquery.Document, pageURL, domain string) (event.Candidate, bool) {
	ev := event.Candidate{
		Title: selText(doc,
			`[data-testid="event-title"]`,
			`h1[data-automation="listing-event-title"]`),
		URL:          pageURL,
		SourceURL:    pageURL,
		SourceDomain: domain,
		SourceFormat: event.FormatEventbriteHTML,
	}

	if text := selText(doc, `[data-testid="event-start-date"]`); text != "" {
		ev.StartDate, ev.StartTime = normalize.DateTime(text)
	}
	if ev.StartDate == "" {
		text := selText(doc, `span[data-automation="event-details-time"] p`)
		ev.StartDate, ev.StartTime = normalize.DateTime(text)
	}

	if link := doc.Find(`a[data-testid="event-venue-link"]`).First(); link.Length() > 0 {
		ev.Venue = normalize.CleanText(link.Find("p").First().Text())
		if div := doc.Find(`div[data-testid="event-venue-map-link"]`).First(); div.Length() > 0 {
			ev.Address = normalize.CleanText(div.Find("p").Eq(1).Text())
			ev.City, ev.State = normalize.CityState(ev.Address)
		}
	}
	if ev.Venue == "" && ev.Address == "" {
		if text := selText(doc, `[data-automation="event-details-location"]`); text != "" {
			lines := strings.Split(text, "\n")
			ev.Venue = strings.TrimSpace(lines[0])
			if len(lines) > 1 {
				var rest []string
				for _, l := range lines[1:] {
					if l = strings.TrimSpace(l); l != "" {
						rest = append(rest, l)
					}
				}
				ev.Address = strings.Join(rest, ", ")
			}
			if ev.Address != "" {
				ev.City, ev.State = normalize.CityState(ev.Address)
			} else {
				ev.City, ev.State = normalize.CityState(ev.Venue)
			}
		}
	}

	ev.Description = selText(doc,
		`[data-testid="event-description"]`,
		`div[data-automation="listing-event-description"]`)
	ev.TruncateDescription()

	ev.Image = metaContent(doc, "og:image")
	if ev.Image == "" {
		ev.Image = selAttr(doc, "src",
			`picture img[data-testid="hero-banner-image"]`,
			`picture img`)
	}
	ev.Image = absoluteURL(pageURL, ev.Image)

	ev.Organizer = selText(doc, `[data-testid="organizer-name"]`)

	if ev.Country == "" && len(ev.State) == 2 {
		ev.Country = "US"
	}

	if !ev.Complete() {
		return event.Candidate{}, false
	}
	ev.ApplyDefaults()
	return ev, true
}
