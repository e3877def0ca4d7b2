package scan

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

// Source is one entry in a sources file.
type Source struct {
	URL   string `json:"url"`
	Name  string `json:"name,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// LoadSources reads URLs from a sources file. Two layouts are accepted: a
// bare array (of URL strings or source objects), or an object with a
// "sources" key holding that array.
func LoadSources(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in sources file %s: %w", path, err)
	}

	var entries []any
	switch t := raw.(type) {
	case []any:
		entries = t
	case map[string]any:
		list, ok := t["sources"].([]any)
		if !ok {
			return nil, fmt.Errorf("invalid format in sources file %s", path)
		}
		entries = list
	default:
		return nil, fmt.Errorf("invalid format in sources file %s", path)
	}

	var urls []string
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			urls = append(urls, v)
		case map[string]any:
			if u, ok := v["url"].(string); ok && u != "" {
				urls = append(urls, u)
			}
		}
	}

	logger.Info("loaded URL sources", "path", path, "count", len(urls))
	return urls, nil
}

// MergeURLs combines file-sourced and directly provided URLs, dropping
// duplicates while preserving order.
func MergeURLs(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, u := range list {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			merged = append(merged, u)
		}
	}
	return merged
}
