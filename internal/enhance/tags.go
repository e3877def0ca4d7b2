package enhance

import (
	"sort"
	"strings"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
)

// Tag IDs as defined by the publishing API.
const (
	TagLiveMusic      = 1
	TagNightlife      = 2
	TagComedy         = 3
	TagFamilyFriendly = 4
	TagFoodFestival   = 5
	TagSports         = 6
	TagArtExhibition  = 7
	TagNetworking     = 8
	TagTechMeetup     = 9
	TagCharity        = 10
	TagEducational    = 11
	TagDanceParty     = 12
	TagOutdoor        = 13
	TagIndoor         = 14
	TagVirtual        = 15
	TagGaming         = 16
	TagHealthWellness = 17
	TagYoga           = 18
	TagMeditation     = 19
	TagConcert        = 20
	TagTheater        = 21
)

// tagKeywords maps each tag to the phrases that indicate it.
var tagKeywords = map[int][]string{
	TagLiveMusic:      {"live music", "concert", "musician", "band", "performance", "singer", "gig"},
	TagNightlife:      {"nightlife", "club", "bar", "pub", "party", "nightclub", "disco", "dj"},
	TagComedy:         {"comedy", "comedian", "stand-up", "improv", "humorous", "funny", "laugh"},
	TagFamilyFriendly: {"family", "kids", "children", "child", "youth", "family-friendly", "all ages"},
	TagFoodFestival:   {"food", "culinary", "cuisine", "tasting", "dining", "restaurant", "chef", "wine", "beer"},
	TagSports:         {"sports", "game", "match", "tournament", "athletics", "competition", "team", "league"},
	TagArtExhibition:  {"art", "gallery", "exhibition", "museum", "artist", "painting", "sculpture"},
	TagNetworking:     {"network", "networking", "social", "meetup", "mixer", "professional", "business", "entrepreneur"},
	TagTechMeetup:     {"tech", "technology", "coding", "programming", "developer", "software", "hardware", "startup", "innovation"},
	TagCharity:        {"charity", "fundraiser", "nonprofit", "donation", "cause", "benefit", "volunteer"},
	TagEducational:    {"education", "learning", "workshop", "class", "seminar", "lecture", "training", "conference"},
	TagDanceParty:     {"dance", "dancing", "choreography", "ballroom", "salsa", "hip-hop", "ballet"},
	TagOutdoor:        {"outdoor", "outside", "park", "nature", "garden", "field", "yard", "plaza"},
	TagIndoor:         {"indoor", "inside", "venue", "hall", "center", "building", "auditorium"},
	TagVirtual:        {"virtual", "online", "digital", "remote", "zoom", "stream", "webinar"},
	TagGaming:         {"gaming", "game", "tournament", "esports", "video game", "console", "competition"},
	TagHealthWellness: {"health", "wellness", "fitness", "well-being", "mindfulness", "self-care", "spa", "retreat"},
	TagYoga:           {"yoga", "meditation", "mindfulness", "stretching", "poses", "asana"},
	TagMeditation:     {"meditation", "mindfulness", "relaxation", "spiritual", "zen", "calm", "peace"},
	TagConcert:        {"concert", "symphony", "orchestra", "philharmonic", "recital", "show", "musical"},
	TagTheater:        {"theater", "theatre", "play", "drama", "performance", "stage", "acting", "broadway"},
}

// InferTags derives tag IDs from an event's title, description and venue.
// Returned IDs are sorted for stable output.
func InferTags(ev *event.Event) []int {
	title := strings.ToLower(ev.Name)
	description := strings.ToLower(ev.Description)
	venue := strings.ToLower(ev.Venue)
	if venue == "" {
		venue = strings.ToLower(ev.Address)
	}
	fullText := title + " " + description + " " + venue

	matched := make(map[int]bool)

	for tagID, keywords := range tagKeywords {
		for _, kw := range keywords {
			if strings.Contains(fullText, kw) {
				matched[tagID] = true
				break
			}
		}
	}

	// Weaker signals when nothing matched directly.
	if len(matched) == 0 {
		if containsAny(fullText, "park", "garden", "outside", "outdoors", "nature") {
			matched[TagOutdoor] = true
		} else if containsAny(fullText, "hall", "theater", "venue", "center", "inside") {
			matched[TagIndoor] = true
		}
		if containsAny(fullText, "music", "song", "audio", "listen") {
			matched[TagLiveMusic] = true
		}
		if containsAny(fullText, "laugh", "joke", "funny") {
			matched[TagComedy] = true
		}
		if containsAny(fullText, "workshop", "learn", "education", "knowledge") {
			matched[TagEducational] = true
		}
	}

	// Common combinations.
	if matched[TagLiveMusic] {
		matched[TagConcert] = true
	}
	if matched[TagYoga] || matched[TagMeditation] {
		matched[TagHealthWellness] = true
	}

	// A bare venue-type tag says nothing about the event itself; try once
	// more for a content tag.
	onlyVenueType := len(matched) == 1 && (matched[TagOutdoor] || matched[TagIndoor])
	if onlyVenueType || len(matched) == 0 {
		if containsAny(fullText, "music", "band", "concert", "performance") {
			matched[TagLiveMusic] = true
		} else if containsAny(fullText, "art", "gallery", "exhibition") {
			matched[TagArtExhibition] = true
		} else if containsAny(fullText, "learn", "education", "workshop") {
			matched[TagEducational] = true
		}
	}

	tags := make([]int, 0, len(matched))
	for id := range matched {
		tags = append(tags, id)
	}
	sort.Ints(tags)
	return tags
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
