package normalize

import (
	"regexp"
	"strings"
)

// DefaultCountry is the pipeline's home market. Address assembly only names
// the country when it differs.
const DefaultCountry = "United States"

// cityStatePatterns are tried in order. The most specific shape wins:
// "City, ST 32502" before "City, ST" before "City, Statename".
var cityStatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Za-z\s\.'-]+)\s*,\s*([A-Z]{2})\s+\d{5}(-\d{4})?\b`),
	regexp.MustCompile(`([A-Za-z\s\.'-]+)\s*,\s*([A-Z]{2})\b`),
	regexp.MustCompile(`([A-Za-z\s\.'-]+)\s*,\s*([A-Za-z]{3,})\b`),
}

// CityState extracts a (city, state) pair from free text, or two empty
// strings when nothing city-shaped is present.
func CityState(text string) (string, string) {
	if text == "" {
		return "", ""
	}

	for _, re := range cityStatePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		city := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), ","))
		state := strings.TrimSpace(m[2])
		if len(city) > 1 && len(state) >= 2 {
			return city, state
		}
	}

	return "", ""
}

// AssembleAddress builds a display address. A formatted address from a
// geocoder wins outright; otherwise the venue is joined with "city, state",
// and the country is appended only when it is not the default.
func AssembleAddress(formatted, venue, city, state, country string) string {
	if formatted != "" {
		return formatted
	}

	var parts []string
	if venue != "" {
		parts = append(parts, venue)
	}

	var loc []string
	if city != "" {
		loc = append(loc, city)
	}
	if state != "" {
		loc = append(loc, state)
	}
	if len(loc) > 0 {
		parts = append(parts, strings.Join(loc, ", "))
	}

	if country != "" && country != DefaultCountry {
		parts = append(parts, country)
	}

	return strings.Join(parts, ", ")
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace into single spaces.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
