package models

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeDate drops the time of day, keeping the calendar date of t as seen in its
// own location, and returns it as midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns the normalized date.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", raw)
	}
	return NormalizeDate(t), nil
}

// RangesOverlap reports whether the stays [aIn, aOut) and [bIn, bOut) share a night.
// A stay ending on the day another begins does not overlap it.
func RangesOverlap(aIn, aOut, bIn, bOut time.Time) bool {
	aIn, aOut = NormalizeDate(aIn), NormalizeDate(aOut)
	bIn, bOut = NormalizeDate(bIn), NormalizeDate(bOut)
	return aIn.Before(bOut) && bIn.Before(aOut)
}
