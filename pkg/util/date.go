package util

import "time"

// DayKeyLayout is the ISO calendar date layout used for daily grouping keys.
const DayKeyLayout = "2006-01-02"

// DayKey truncates a millisecond timestamp to its UTC calendar date.
// Truncation is always against UTC regardless of the host timezone.
func DayKey(millis int64) string {
	return time.UnixMilli(millis).UTC().Format(DayKeyLayout)
}

// ClampInt bounds v to the inclusive range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
