package service

import (
	"strings"
	"time"
)

// Layouts with an explicit offset.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
}

// Layouts without an offset; interpreted in the reference location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseSince parses an ISO-8601 timestamp. Naive values are read in loc. A
// literal '+' in an unencoded query string arrives as a space, so a single
// repair attempt restores it before giving up.
func ParseSince(raw string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseISO(s, loc); ok {
		return t, true
	}
	if i := strings.LastIndexByte(s, ' '); i > 0 {
		return parseISO(s[:i]+"+"+s[i+1:], loc)
	}
	return time.Time{}, false
}

func parseISO(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
