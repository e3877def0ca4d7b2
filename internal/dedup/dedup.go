// Package dedup removes duplicate event candidates gathered across many
// sources. The key is intentionally fuzzy: title, start date and a prefix
// of the city or venue, so the same event listed by two sites under
// slightly different location strings still collapses.
package dedup

import (
	"strings"
	"sync"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

// locationPrefixLen bounds the location portion of the key, absorbing
// suffix variations like "Pensacola" vs "Pensacola Beach area".
const locationPrefixLen = 15

// Store tracks seen event keys. First occurrence wins; later duplicates
// are dropped regardless of which source has richer data.
type Store struct {
	mu   sync.Mutex
	seen map[string]bool
}

func NewStore() *Store {
	return &Store{seen: make(map[string]bool)}
}

// Add records the candidate and reports whether it was new. Candidates
// missing a title or start date are rejected outright.
func (s *Store) Add(ev event.Candidate) bool {
	title := strings.ToLower(strings.TrimSpace(ev.Title))
	date := ev.StartDate
	if title == "" || date == "" {
		return false
	}

	loc := locationKey(ev)
	full := title + "\x00" + date + "\x00" + loc
	bare := title + "\x00" + date

	s.mu.Lock()
	defer s.mu.Unlock()

	if loc != "" {
		if s.seen[full] {
			return false
		}
		s.seen[full] = true
		return true
	}

	// No location at all: fall back to title and date. Location-bearing
	// duplicates arriving later carry a different key and slip through;
	// acceptable, since they at least add location data downstream.
	if s.seen[bare] {
		return false
	}
	s.seen[full] = true
	s.seen[bare] = true
	return true
}

// Filter returns the candidates not seen before, in input order.
func (s *Store) Filter(events []event.Candidate) []event.Candidate {
	unique := make([]event.Candidate, 0, len(events))
	for _, ev := range events {
		if s.Add(ev) {
			unique = append(unique, ev)
		}
	}
	if dropped := len(events) - len(unique); dropped > 0 {
		logger.Info("dropped duplicate events", "dropped", dropped, "kept", len(unique))
	}
	return unique
}

func locationKey(ev event.Candidate) string {
	loc := ev.City
	if loc == "" {
		loc = ev.Venue
	}
	loc = strings.ToLower(strings.TrimSpace(loc))
	if len(loc) > locationPrefixLen {
		loc = loc[:locationPrefixLen]
	}
	return loc
}
