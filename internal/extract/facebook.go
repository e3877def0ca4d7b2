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
	Register(facebookAdapter{})
}

// facebookAdapter reads Facebook event pages. The markup is obfuscated and
// rendered client-side, so Open Graph meta tags are the only stable source;
// dates and locations are best-effort guesses parsed out of the description.
type facebookAdapter struct{}

func (facebookAdapter) Name() string { return "facebook" }

func (facebookAdapter) Match(_, pageURL string) bool {
	return strings.Contains(pageURL, "facebook.com/events")
}

var (
	fbVenueRe     = regexp.MustCompile(`\bat\s+([A-Za-z0-9\s\.'-]+?)(?:\s+\d+.*?,|\s+·|\s+Hosted by|\.$)`)
	fbOrganizerRe = regexp.MustCompile(`(?:Hosted by|Event by)\s+(.+?)(?:\s+on\s+|\s+·|\.$)`)
)

func (facebookAdapter) Extract(doc *goquery.Document, pageURL string) []event.Candidate {
	ev := event.Candidate{
		Title:        metaContent(doc, "og:title"),
		Description:  metaContent(doc, "og:description"),
		Image:        metaContent(doc, "og:image"),
		URL:          pageURL,
		SourceURL:    pageURL,
		SourceDomain: domainOf(pageURL),
		SourceFormat: event.FormatFacebookMeta,
	}

	if ev.Description != "" {
		ev.StartDate, ev.StartTime = normalize.DateTime(ev.Description)

		if m := fbVenueRe.FindStringSubmatch(ev.Description); m != nil {
			ev.Venue = strings.TrimSpace(m[1])
		}
		ev.City, ev.State = normalize.CityState(ev.Description)
		if ev.Venue != "" && ev.City == "" {
			ev.City, ev.State = normalize.CityState(ev.Venue)
		}

		if m := fbOrganizerRe.FindStringSubmatch(ev.Description); m != nil {
			ev.Organizer = strings.TrimSpace(m[1])
		}
	}
	ev.TruncateDescription()

	if ev.Country == "" && len(ev.State) == 2 {
		ev.Country = "US"
	}

	if !ev.Complete() {
		logger.Debug("facebook meta tags missing title or date", "url", pageURL)
		return nil
	}
	ev.ApplyDefaults()
	return []event.Candidate{ev}
}
