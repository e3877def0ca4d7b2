package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/normalize"
)

// selText returns the cleaned text of the first match for any of the given
// selectors, probing them in order.
func selText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if s := normalize.CleanText(doc.Find(sel).First().Text()); s != "" {
			return s
		}
	}
	return ""
}

// selAttr returns the given attribute of the first match for any selector.
func selAttr(doc *goquery.Document, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr(attr); ok && v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// metaContent reads a meta tag by property, falling back to the name
// attribute.
func metaContent(doc *goquery.Document, property string) string {
	if v, ok := doc.Find(`meta[property="` + property + `"]`).First().Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[name="` + property + `"]`).First().Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// stripHTML reduces an HTML fragment to its cleaned text content.
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return normalize.CleanText(fragment)
	}
	return normalize.CleanText(doc.Text())
}

// absoluteURL resolves target against base, returning target unchanged when
// it is already absolute or base is unusable.
func absoluteURL(base, target string) string {
	if target == "" {
		return ""
	}
	t, err := url.Parse(target)
	if err != nil {
		return ""
	}
	if t.IsAbs() {
		return target
	}
	b, err := url.Parse(base)
	if err != nil {
		return target
	}
	return b.ResolveReference(t).String()
}

// domainOf extracts the host from a URL.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// asString coerces a JSON value to a string, returning "" for anything
// that is not one.
func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asMap coerces a JSON value to an object.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// asFloat coerces a JSON number (or numeric string) to a float pointer.
func asFloat(v any) *float64 {
	switch t := v.(type) {
	case float64:
		f := t
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
