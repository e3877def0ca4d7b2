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
	Register(ticketmasterAdapter{})
}

// ticketmasterAdapter reads Ticketmaster pages, preferring the analytics
// context object embedded in page scripts over HTML scraping.
type ticketmasterAdapter struct{}

func (ticketmasterAdapter) Name() string { return "ticketmaster" }

func (ticketmasterAdapter) Match(domain, _ string) bool {
	return strings.Contains(domain, "ticketmaster")
}

var (
	tmContextRe      = regexp.MustCompile(`(?s)context\s*=\s*({.*?});`)
	tmLineCommentRe  = regexp.MustCompile(`//.*?\n`)
	tmBlockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	tmUndefinedRe    = regexp.MustCompile(`\bundefined\b`)
)

func (a ticketmasterAdapter) Extract(doc *goquery.Document, pageURL string) []event.Candidate {
	domain := domainOf(pageURL)

	for _, marker := range []string{"window.__TMANALYSIS__", "window.gon"} {
		for _, body := range scriptBodies(doc, marker) {
			m := tmContextRe.FindStringSubmatch(body)
			if m == nil {
				continue
			}
			raw := m[1]
			raw = tmLineCommentRe.ReplaceAllString(raw, "")
			raw = tmBlockCommentRe.ReplaceAllString(raw, "")
			raw = tmUndefinedRe.ReplaceAllString(raw, "null")

			data, ok := decodeEmbedded(raw)
			if !ok {
				logger.Warn("could not decode embedded ticketmaster context", "url", pageURL)
				continue
			}

			node := asMap(data["event"])
			if node == nil {
				node = asMap(asMap(data["analytics"])["event"])
			}
			if node == nil {
				continue
			}
			if ev, ok := a.fromJSON(node, pageURL, domain); ok {
				logger.Debug("extracted ticketmaster event from embedded context", "url", pageURL)
				return []event.Candidate{ev}
			}
		}
	}

	logger.Debug("ticketmaster embedded context unavailable, scraping markup", "url", pageURL)
	if ev, ok := a.fromHTML(doc, pageURL, domain); ok {
		return []event.Candidate{ev}
	}
	return nil
}

func (ticketmasterAdapter) fromJSON(node map[string]any, pageURL, domain string) (event.Candidate, bool) {
	ev := event.Candidate{
		Title:        asString(node["name"]),
		URL:          pageURL,
		SourceURL:    pageURL,
		SourceDomain: domain,
		SourceFormat: event.FormatTicketmasterJSON,
	}
	if ev.Title == "" {
		ev.Title = asString(node["eventName"])
	}

	ev.StartDate, ev.StartTime = normalize.DateTime(node["startDate"])
	ev.EndDate, ev.EndTime = normalize.DateTime(node["endDate"])

	if venue := asMap(node["venue"]); venue != nil {
		ev.Venue = asString(venue["name"])
		if ev.Venue == "" {
			ev.Venue = asString(venue["venueName"])
		}
		ev.City = asString(venue["city"])
		ev.State = asString(venue["stateCode"])
		if ev.State == "" {
			ev.State = asString(venue["state"])
		}
		ev.Country = asString(venue["countryCode"])
		if ev.Country == "" {
			ev.Country = asString(venue["country"])
		}
		var parts []string
		for _, v := range []string{
			asString(venue["address1"]), asString(venue["address2"]),
			ev.City, ev.State, asString(venue["postalCode"]), ev.Country,
		} {
			if v != "" {
				parts = append(parts, v)
			}
		}
		ev.Address = strings.Join(parts, ", ")
		if loc := asMap(venue["location"]); loc != nil {
			ev.SetCoordinates(asFloat(loc["latitude"]), asFloat(loc["longitude"]))
		}
	}

	ev.Description = asString(node["description"])
	if ev.Description == "" {
		ev.Description = asString(node["info"])
	}
	ev.TruncateDescription()

	if images, ok := node["images"].([]any); ok && len(images) > 0 {
		ev.Image = asString(asMap(images[0])["url"])
	}

	if u := asString(node["url"]); u != "" {
		ev.URL = u
	}
	if promoter := asMap(node["promoter"]); promoter != nil {
		ev.Organizer = asString(promoter["name"])
	}

	if !ev.Complete() {
		return event.Candidate{}, false
	}
	ev.ApplyDefaults()
	return ev, true
}

func (ticketmasterAdapter) fromHTML(doc *goquery.Document, pageURL, domain string) (event.Candidate, bool) {
	ev := event.Candidate{
		Title:        selText(doc, "h1.event-header__title", "h1"),
		URL:          pageURL,
		SourceURL:    pageURL,
		SourceDomain: domain,
		SourceFormat: event.FormatTicketmasterHTML,
	}

	dateText := selText(doc, "div.event-header__event-date")
	timeText := selText(doc, "div.event-header__event-time")
	ev.StartDate, ev.StartTime = normalize.DateTime(strings.TrimSpace(dateText + " " + timeText))

	ev.Venue = selText(doc, "a.event-header__venue-link > span")
	ev.Address = selText(doc, "div.event-header__venue-address")
	ev.City, ev.State = normalize.CityState(ev.Address)

	ev.Description = selText(doc, `div[data-testid="event-details__description"]`)
	if ev.Description == "" {
		if section := doc.Find("#eventDetailsSection").First(); section.Length() > 0 {
			section.Find(".artist-spotify-player, #parkingModule").Remove()
			ev.Description = normalize.CleanText(section.Text())
		}
	}
	ev.TruncateDescription()

	ev.Image = metaContent(doc, "og:image")
	if ev.Image == "" {
		ev.Image = selAttr(doc, "src",
			"div.event-header__image img",
			"img.event-header__background-image")
	}
	ev.Image = absoluteURL(pageURL, ev.Image)

	if ev.Country == "" && len(ev.State) == 2 {
		ev.Country = "US"
	}

	if !ev.Complete() {
		return event.Candidate{}, false
	}
	ev.ApplyDefaults()
	return ev, true
}
