package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

// DefaultImageURL is attached when no image can be found; the publish API
// rejects events without one.
const DefaultImageURL = "https://picsum.photos/800/600"

const defaultImageSearchEndpoint = "https://www.googleapis.com/customsearch/v1"

// ImageSearcher finds a representative image URL for an event.
type ImageSearcher interface {
	FindImage(ctx context.Context, title, location string) (string, error)
}

// GoogleImageSearcher uses the Google Custom Search API in image mode.
type GoogleImageSearcher struct {
	APIKey         string
	SearchEngineID string
	Endpoint       string
	Client         *http.Client
}

// NewGoogleImageSearcher creates an image searcher.
func NewGoogleImageSearcher(apiKey, searchEngineID string) *GoogleImageSearcher {
	return &GoogleImageSearcher{
		APIKey:         apiKey,
		SearchEngineID: searchEngineID,
		Endpoint:       defaultImageSearchEndpoint,
		Client:         &http.Client{Timeout: 10 * time.Second},
	}
}

// FindImage searches for one large, safe image matching the event.
func (s *GoogleImageSearcher) FindImage(ctx context.Context, title, location string) (string, error) {
	if s.APIKey == "" || s.SearchEngineID == "" {
		return "", fmt.Errorf("image search API key or engine ID is not set")
	}

	query := fmt.Sprintf("%s %s event", title, location)
	logger.Info("searching for event image", "query", query)

	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultImageSearchEndpoint
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("key", s.APIKey)
	params.Set("cx", s.SearchEngineID)
	params.Set("searchType", "image")
	params.Set("num", "1")
	params.Set("imgSize", "LARGE")
	params.Set("safe", "active")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building image search request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image search for %q: %w", title, err)
	}
	defer resp.Body.Close()

	var body struct {
		Items []struct {
			Link string `json:"link"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding image search response: %w", err)
	}

	if len(body.Items) == 0 || body.Items[0].Link == "" {
		return "", fmt.Errorf("no images found for %q", title)
	}

	logger.Info("found event image", "title", title, "url", body.Items[0].Link)
	return body.Items[0].Link, nil
}

// AttachImages fills the image field of every event, searching only where
// one is missing. Requests are spaced out to stay under search quotas.
func AttachImages(ctx context.Context, searcher ImageSearcher, events []event.Event, delay time.Duration) []event.Event {
	if len(events) == 0 {
		return events
	}
	logger.Info("attaching images", "count", len(events))

	for i := range events {
		ev := &events[i]
		if ev.ImageURL != "" {
			continue
		}

		if ev.Name == "" || searcher == nil {
			ev.ImageURL = DefaultImageURL
			continue
		}

		location := ev.City
		if ev.State != "" {
			location += ", " + ev.State
		}
		imageURL, err := searcher.FindImage(ctx, ev.Name, location)
		if err != nil {
			logger.Warn("image search failed, using default", "event", ev.Name, "error", err)
			imageURL = DefaultImageURL
		}
		ev.ImageURL = imageURL

		if delay > 0 && i < len(events)-1 {
			select {
			case <-ctx.Done():
				return events
			case <-time.After(delay):
			}
		}
	}
	return events
}
