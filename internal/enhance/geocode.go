package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

const defaultGeocodeEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// LocationDetails is the resolved location for a geocoding query.
type LocationDetails struct {
	City             string
	State            string
	StateCode        string
	Country          string
	CountryCode      string
	District         string
	Lat              *float64
	Lng              *float64
	FormattedAddress string
}

// Geocoder resolves free-text location queries to structured locations.
type Geocoder interface {
	Lookup(ctx context.Context, query string) (LocationDetails, error)
}

// GoogleGeocoder calls the Google Geocoding API.
type GoogleGeocoder struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

// NewGoogleGeocoder creates a geocoder using the given API key.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		APIKey:   apiKey,
		Endpoint: defaultGeocodeEndpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// Lookup geocodes one query. An empty query or a missing API key is an
// error; the caller decides whether that is fatal.
func (g *GoogleGeocoder) Lookup(ctx context.Context, query string) (LocationDetails, error) {
	var details LocationDetails

	if g.APIKey == "" {
		return details, fmt.Errorf("geocoding API key is not set")
	}
	if query == "" {
		return details, fmt.Errorf("empty location query")
	}

	logger.Info("geocoding location", "query", query)

	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = defaultGeocodeEndpoint
	}
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return details, fmt.Errorf("building geocode request: %w", err)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return details, fmt.Errorf("geocode request for %q: %w", query, err)
	}
	defer resp.Body.Close()

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return details, fmt.Errorf("decoding geocode response: %w", err)
	}

	if body.Status != "OK" || len(body.Results) == 0 {
		return details, fmt.Errorf("no geocode result for %q (status %s)", query, body.Status)
	}

	result := body.Results[0]
	details.FormattedAddress = result.FormattedAddress
	lat, lng := result.Geometry.Location.Lat, result.Geometry.Location.Lng
	details.Lat = &lat
	details.Lng = &lng

	for _, comp := range result.AddressComponents {
		switch {
		case hasType(comp.Types, "locality"):
			details.City = comp.LongName
		case hasType(comp.Types, "administrative_area_level_2"):
			details.District = comp.LongName
		case hasType(comp.Types, "administrative_area_level_1"):
			details.State = comp.LongName
			details.StateCode = comp.ShortName
		case hasType(comp.Types, "country"):
			details.Country = comp.LongName
			details.CountryCode = comp.ShortName
		}
	}

	logger.Info("geocoded location", "query", query, "city", details.City, "state", details.State)
	return details, nil
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
