// Package normalize converts the date, time and location notations found in
// scraped sources into the canonical forms used across the pipeline.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
)

// Canonical output formats.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// dateTimeLayouts are tried in order. withTime marks layouts that carry a
// clock component, so a date-only match never fabricates a time.
var dateTimeLayouts = []struct {
	layout   string
	withTime bool
}{
	{"2006-01-02T15:04:05-07:00", true},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05-07:00", true},
	{"2006-01-02 15:04:05", true},
	{"2006/01/02 15:04:05", true},
	{"01/02/2006 03:04:05 PM", true},
	{"01/02/2006 15:04:05", true},
	{"Mon, 02 Jan 2006 15:04:05 MST", true},
	{"Mon, 02 Jan 2006 15:04:05", true},
	{"January 2, 2006 3:04 PM", true},
	{"Jan 2, 2006 3:04 PM", true},
	{"2006-01-02", false},
	{"2006/01/02", false},
	{"01/02/2006", false},
	{"January 2, 2006", false},
	{"Jan 2, 2006", false},
}

var (
	squashedOffsetRe = regexp.MustCompile(`[+-]\d{4}$`)
	looseDateRe      = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	looseTimeRe      = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})(?::(\d{2}))?\s?([AP]M)?`)
)

// DateTime converts an arbitrary date/time representation into a canonical
// (date, time) pair. Input may be a string, a numeric epoch-millisecond
// value, or a nested {"value": ...} object. Unparseable input yields two
// empty strings; the function never fails.
func DateTime(v any) (string, string) {
	switch t := v.(type) {
	case nil:
		return "", ""
	case string:
		return parseDateTimeString(t)
	case float64:
		return EpochMillis(int64(t))
	case int:
		return EpochMillis(int64(t))
	case int64:
		return EpochMillis(t)
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return EpochMillis(ms)
		}
		return parseDateTimeString(t.String())
	case map[string]any:
		// Structured values such as {"@type": "DateTime", "value": "..."}.
		if inner, ok := t["value"]; ok {
			return DateTime(inner)
		}
		return "", ""
	default:
		logger.Debug("unexpected datetime value", "type", fmt.Sprintf("%T", v))
		return "", ""
	}
}

// EpochMillis converts a Unix millisecond timestamp to a canonical pair.
// Embedded site state (Meetup in particular) carries these; they are UTC.
func EpochMillis(ms int64) (string, string) {
	if ms <= 0 {
		return "", ""
	}
	t := time.UnixMilli(ms).UTC()
	return t.Format(DateLayout), t.Format(TimeLayout)
}

func parseDateTimeString(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}

	// Normalize timezone notation before trying layouts: Z becomes an
	// explicit UTC offset and squashed +HHMM offsets gain a colon.
	s = strings.Replace(s, "Z", "+00:00", 1)
	if squashedOffsetRe.MatchString(s) {
		s = s[:len(s)-2] + ":" + s[len(s)-2:]
	}

	for _, c := range dateTimeLayouts {
		t, err := time.Parse(c.layout, s)
		if err != nil {
			continue
		}
		if c.withTime {
			return t.Format(DateLayout), t.Format(TimeLayout)
		}
		return t.Format(DateLayout), ""
	}

	return looseDateTime(s)
}

// looseDateTime is the fallback when no layout matches: pull out a
// YYYY-MM-DD shaped date, then look nearby for an H:MM[:SS] [AM|PM] time.
func looseDateTime(s string) (string, string) {
	m := looseDateRe.FindStringSubmatch(s)
	if m == nil {
		logger.Debug("could not parse datetime", "value", s)
		return "", ""
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", ""
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(DateLayout)

	tm := looseTimeRe.FindStringSubmatch(strings.Replace(s, m[0], "", 1))
	if tm == nil {
		return date, ""
	}

	hour, _ := strconv.Atoi(tm[1])
	minute, _ := strconv.Atoi(tm[2])
	second := 0
	if tm[3] != "" {
		second, _ = strconv.Atoi(tm[3])
	}
	switch strings.ToLower(tm[4]) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 || second > 59 {
		return date, ""
	}

	return date, fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
}

// ValidDate reports whether s is a real calendar date in canonical form.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidTime reports whether s is a clock time in canonical form.
func ValidTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}
