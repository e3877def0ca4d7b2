package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/normalize"
)

var (
	genericDateSelectors = []string{
		"time[datetime]", ".event-date", ".entry-date", ".published", ".post-date",
		`[class*="date"]`, `[class*="time"]`, `[itemprop*="Date"]`,
	}
	genericLocationSelectors = []string{
		".location", ".venue", ".address", `[class*="location"]`, `[class*="venue"]`,
		`[class*="address"]`, `[itemprop="location"]`, `[itemprop="address"]`,
	}
	genericDescSelectors = []string{
		".event-description", ".entry-content", ".post-content", "article",
		`[itemprop="description"]`, `div[class*="content"]`, `div[class*="details"]`,
	}
	genericOrganizerSelectors = []string{
		".organizer", `[class*="organizer"]`, ".host", `[class*="host"]`,
	}

	locationHintRe = regexp.MustCompile(`\d+\s+[A-Za-z]+|\b([A-Z]{2})\b|,`)
	leadingDigitRe = regexp.MustCompile(`^\d+`)
)

// genericEvents is the last-resort extractor for unrecognized sites. It
// probes Open Graph meta tags first, then common class-name conventions.
func genericEvents(doc *goquery.Document, pageURL string) []event.Candidate {
	ev := event.Candidate{
		Title:        metaContent(doc, "og:title"),
		Description:  metaContent(doc, "og:description"),
		Image:        metaContent(doc, "og:image"),
		URL:          pageURL,
		SourceURL:    pageURL,
		SourceDomain: domainOf(pageURL),
		SourceFormat: event.FormatGenericHTML,
	}
	if ev.Title == "" {
		ev.Title = selText(doc, "title")
	}
	if ev.Description == "" {
		ev.Description = metaContent(doc, "description")
	}

	startRaw := firstMeta(doc, "event:start_time", "og:start_date", "article:published_time")
	endRaw := firstMeta(doc, "event:end_time", "og:end_date", "article:expiration_time")
	ev.StartDate, ev.StartTime = normalize.DateTime(startRaw)
	ev.EndDate, ev.EndTime = normalize.DateTime(endRaw)

	ev.City = metaContent(doc, "og:locality")
	ev.State = metaContent(doc, "og:region")
	ev.Country = metaContent(doc, "og:country-name")
	ev.Address = metaContent(doc, "og:street-address")
	if ev.Address == "" && ev.City != "" && ev.State != "" {
		ev.Address = ev.City + ", " + ev.State
	}
	ev.Venue = metaContent(doc, "og:venue")

	if ev.Title == "" {
		ev.Title = headingText(doc)
	}

	if ev.StartDate == "" {
		if text := probeDate(doc); text != "" {
			ev.StartDate, ev.StartTime = normalize.DateTime(text)
		}
	}

	if ev.City == "" && ev.Address == "" && ev.Venue == "" {
		if text := probeLocation(doc); text != "" {
			ev.Address = text
			ev.City, ev.State = normalize.CityState(text)
			lines := nonEmptyLines(text)
			if len(lines) > 1 && ev.City == "" && !leadingDigitRe.MatchString(lines[0]) {
				ev.Venue = lines[0]
			}
		}
	}

	if ev.Description == "" {
		ev.Description = probeDescription(doc)
	}

	ev.Organizer = selText(doc, genericOrganizerSelectors...)

	if !ev.Complete() {
		logger.Debug("generic extraction found no usable event", "url", pageURL)
		return nil
	}

	if ev.Address == "" && ev.City != "" && ev.State != "" {
		ev.Address = ev.City + ", " + ev.State
	}
	if ev.Country == "" && len(ev.State) == 2 {
		ev.Country = "US"
	}
	ev.Image = absoluteURL(pageURL, ev.Image)
	ev.TruncateDescription()
	ev.ApplyDefaults()
	return []event.Candidate{ev}
}

func firstMeta(doc *goquery.Document, properties ...string) string {
	for _, p := range properties {
		if v := metaContent(doc, p); v != "" {
			return v
		}
	}
	return ""
}

var headingClassRe = regexp.MustCompile(`(?i)title|headline|heading`)

func headingText(doc *goquery.Document) string {
	var found string
	doc.Find("h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if headingClassRe.MatchString(class) {
			found = normalize.CleanText(s.Text())
			return found == ""
		}
		return true
	})
	if found == "" {
		found = selText(doc, "h1")
	}
	return found
}

// probeDate walks the date selector list and returns the first text whose
// parse yields a valid date.
func probeDate(doc *goquery.Document) string {
	var found string
	for _, sel := range genericDateSelectors {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text, ok := s.Attr("datetime")
			if !ok || text == "" {
				text = normalize.CleanText(s.Text())
			}
			if d, _ := normalize.DateTime(text); d != "" {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			break
		}
	}
	return found
}

// probeLocation returns the first selector match whose text looks like an
// address (a street number, a state code, or a comma).
func probeLocation(doc *goquery.Document) string {
	var found string
	for _, sel := range genericLocationSelectors {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := normalize.CleanText(s.Text())
			if locationHintRe.MatchString(text) {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			break
		}
	}
	return found
}

// probeDescription prefers the first content block over 100 characters,
// after dropping navigation and social chrome.
func probeDescription(doc *goquery.Document) string {
	var text string
	for _, sel := range genericDescSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		el.Find("nav, .social-share, .comments, footer").Remove()
		text = normalize.CleanText(el.Text())
		if len(text) > 100 {
			break
		}
	}
	return text
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
