package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/fetch"
)

// stubFetcher serves canned HTML per URL and fails on demand.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fails map[string]bool
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string, _ fetch.Options) (fetch.PageContent, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.fails[url] {
		return fetch.PageContent{URL: url}, errors.New("connection refused")
	}
	return fetch.PageContent{
		URL:         url,
		HTML:        f.pages[url],
		StatusCode:  200,
		ContentType: "text/html",
	}, nil
}

func (f *stubFetcher) Close() error { return nil }
func (f *stubFetcher) Type() string { return "stub" }

func eventPage(title, date string) string {
	return fmt.Sprintf(`<html><head><script type="application/ld+json">
{"@type": "Event", "name": "%s", "startDate": "%s"}
</script></head><body></body></html>`, title, date)
}

func TestRun_CollectsAcrossURLs(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		"https://a.example.com/events": eventPage("Jazz Night", "2025-04-01"),
		"https://b.example.com/events": eventPage("Art Walk", "2025-04-02"),
	}}
	s := New(f, WithConcurrency(2))

	events := s.Run(context.Background(), []string{
		"https://a.example.com/events",
		"https://b.example.com/events",
	})

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	// Order follows the URL list, not goroutine completion.
	if events[0].Title != "Jazz Night" || events[1].Title != "Art Walk" {
		t.Errorf("unexpected order: %q, %q", events[0].Title, events[1].Title)
	}
}

func TestRun_OneFailingURLDoesNotAffectOthers(t *testing.T) {
	f := &stubFetcher{
		pages: map[string]string{
			"https://good.example.com": eventPage("Jazz Night", "2025-04-01"),
		},
		fails: map[string]bool{"https://bad.example.com": true},
	}
	s := New(f)

	events := s.Run(context.Background(), []string{
		"https://bad.example.com",
		"https://good.example.com",
	})

	if len(events) != 1 || events[0].Title != "Jazz Night" {
		t.Fatalf("expected the healthy source's event, got %+v", events)
	}
}

func TestRun_DeduplicatesAcrossURLs(t *testing.T) {
	page := eventPage("Jazz Night", "2025-04-01")
	f := &stubFetcher{pages: map[string]string{
		"https://a.example.com": page,
		"https://b.example.com": page,
	}}
	s := New(f)

	events := s.Run(context.Background(), []string{
		"https://a.example.com",
		"https://b.example.com",
	})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 after dedup", len(events))
	}
}

func TestLoadSources_ObjectAndArrayLayouts(t *testing.T) {
	dir := t.TempDir()

	withKey := filepath.Join(dir, "sources.json")
	os.WriteFile(withKey, []byte(`{"sources": [{"url": "https://a.example.com", "name": "A"}, "https://b.example.com"]}`), 0o644)

	urls, err := LoadSources(withKey)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(urls) != 2 || urls[0] != "https://a.example.com" || urls[1] != "https://b.example.com" {
		t.Fatalf("unexpected urls: %v", urls)
	}

	bare := filepath.Join(dir, "bare.json")
	os.WriteFile(bare, []byte(`["https://c.example.com"]`), 0o644)

	urls, err = LoadSources(bare)
	if err != nil {
		t.Fatalf("LoadSources bare array: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://c.example.com" {
		t.Fatalf("unexpected urls: %v", urls)
	}
}

func TestLoadSources_Errors(t *testing.T) {
	if _, err := LoadSources(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file accepted")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte(`{"nope": true}`), 0o644)
	if _, err := LoadSources(bad); err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMergeURLs_DropsDuplicatesKeepsOrder(t *testing.T) {
	merged := MergeURLs(
		[]string{"https://a.example.com", "https://b.example.com"},
		[]string{"https://b.example.com", "https://c.example.com", ""},
	)

	want := []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"}
	if len(merged) != len(want) {
		t.Fatalf("got %v, want %v", merged, want)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Fatalf("got %v, want %v", merged, want)
		}
	}
}
