package normalize

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Sanity window for parsed event dates. Anything outside is treated as
// a parse artifact, not a real event date.
const (
	dateWindowPast   = 365 * 24 * time.Hour
	dateWindowFuture = 2 * 365 * 24 * time.Hour
)

// Listing sites write dates a handful of ways. Tried in order; the
// first candidate inside the sanity window wins.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"Monday 02 January 2006 3:04 PM",
	"Monday 2 January 2006 3:04 PM",
	"Mon 02 Jan 2006 3:04 PM",
	"Mon 2 Jan 2006 3:04 PM",
	"Mon 02 Jan 2006",
	"Mon 2 Jan 2006",
	"02 Jan 2006",
	"2 Jan 2006",
}

var shortYearLayouts = []string{
	"Mon 02 Jan 06 3:04 PM",
	"Mon 2 Jan 06 3:04 PM",
	"Mon 02 Jan 06",
	"Mon 2 Jan 06",
}

// ParseEventDate parses a raw date string (optionally combined with a
// separate time string) into a timestamp. Returns nil when nothing
// parses, or when the parsed date falls outside the sanity window
// relative to now; a null start time is preferred over a guessed one.
func ParseEventDate(dateStr, timeStr string, now time.Time) *time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return nil
	}

	candidates := []string{dateStr}
	if timeStr = strings.TrimSpace(timeStr); timeStr != "" {
		candidates = append([]string{dateStr + " " + timeStr}, candidates...)
	}

	for _, candidate := range candidates {
		if t := parseCandidate(candidate, now); t != nil {
			return t
		}
	}

	return nil
}

func parseCandidate(s string, now time.Time) *time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			if inSanityWindow(t, now) {
				return &t
			}
			return nil
		}
	}

	for _, layout := range shortYearLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			// Go expands "69".."99" to 19xx; the sites mean 20xx.
			if t.Year() < 2000 {
				t = t.AddDate(100, 0, 0)
			}
			if inSanityWindow(t, now) {
				return &t
			}
			return nil
		}
	}

	if t, err := dateparse.ParseIn(s, time.Local); err == nil {
		if inSanityWindow(t, now) {
			return &t
		}
	}

	return nil
}

func inSanityWindow(t, now time.Time) bool {
	return t.After(now.Add(-dateWindowPast)) && t.Before(now.Add(dateWindowFuture))
}
