package extract

import (
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
)

// Adapter is a site-specific extractor that runs when structured data is
// absent from a page. Extract returns at most one candidate for the page's
// primary event.
type Adapter interface {
	// Name identifies the adapter in logs and diagnostics.
	Name() string
	// Match reports whether the adapter handles this page.
	Match(domain, pageURL string) bool
	// Extract pulls the page's primary event, if any.
	Extract(doc *goquery.Document, pageURL string) []event.Candidate
}

var (
	adaptersMu sync.RWMutex
	adapters   []Adapter
)

// Register adds a site adapter. Adapters are consulted in registration
// order; typically called from init.
func Register(a Adapter) {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()
	adapters = append(adapters, a)
}

// Find returns the first registered adapter matching the page, or nil.
func Find(domain, pageURL string) Adapter {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()
	for _, a := range adapters {
		if a.Match(domain, pageURL) {
			return a
		}
	}
	return nil
}

var embeddedCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// decodeEmbedded parses a JSON object sliced out of an inline script tag,
// cleaning the trailing commas sites tend to leave behind.
func decodeEmbedded(raw string) (map[string]any, bool) {
	raw = embeddedCommaRe.ReplaceAllString(raw, "$1")
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, false
	}
	return m, true
}

// objectAfterKey slices the JSON object value of the given key out of a
// script body, scanning brace depth and skipping string literals so nested
// objects survive intact.
func objectAfterKey(body, key string) (string, bool) {
	idx := strings.Index(body, key)
	if idx == -1 {
		return "", false
	}
	rest := body[idx+len(key):]
	rest = strings.TrimLeft(rest, " \t\r\n")
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	rest = strings.TrimLeft(rest[1:], " \t\r\n")
	if !strings.HasPrefix(rest, "{") {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i, r := range rest {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[:i+1], true
			}
		}
	}
	return "", false
}

// scriptBodies returns the text content of every inline script containing
// the given marker.
func scriptBodies(doc *goquery.Document, marker string) []string {
	var bodies []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		body := s.Text()
		if strings.Contains(body, marker) {
			bodies = append(bodies, body)
		}
	})
	return bodies
}
