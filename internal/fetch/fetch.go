// Package fetch handles web page retrieval. A static fetcher covers most
// sources; a dynamic fetcher drives a headless browser for pages that only
// render their event data client-side.
package fetch

import (
	"context"
	"time"
)

// PageContent represents fetched page data.
type PageContent struct {
	URL         string
	HTML        string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// Options controls fetching behavior.
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	WaitForSelector string        // CSS selector to wait for (dynamic only)
	WaitDuration    time.Duration // Additional wait after load
	Headers         map[string]string
}

// Event sources increasingly gate on bot heuristics, so requests carry a
// desktop browser profile rather than a tool identifier.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// browserHeaders are sent with every static request.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Cache-Control":             "max-age=0",
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent: defaultUserAgent,
		Timeout:   15 * time.Second,
	}
}

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (PageContent, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns "static" or "dynamic".
	Type() string
}

// Config holds common fetcher configuration.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: defaultUserAgent,
		Timeout:   15 * time.Second,
	}
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
