package sync

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// toActualUTC converts a timestamp to the UTC instant it denotes.
func toActualUTC(t time.Time) time.Time {
	return t.UTC()
}

// toLocalAsUTC keeps the wall-clock reading and relabels it as UTC.
// Photo clients show "local time" this way: 14:05 in Tokyo stays
// 14:05, just tagged Z.
func toLocalAsUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// formatTimezone renders an offset in minutes as "UTC+H", "UTC-H" or
// "UTC+H:MM" when the offset is not a whole hour.
func formatTimezone(offsetMinutes int) string {
	sign := "+"
	mins := offsetMinutes
	if mins < 0 {
		sign = "-"
		mins = -mins
	}
	h := mins / 60
	m := mins % 60
	if m == 0 {
		return fmt.Sprintf("UTC%s%d", sign, h)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, h, m)
}

// formatExposure renders an exposure time in seconds as the familiar
// reciprocal notation, e.g. 0.008 -> "1/125". Exposures of a second or
// longer stay decimal.
func formatExposure(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	if seconds >= 1 {
		return strconv.FormatFloat(seconds, 'f', -1, 64)
	}
	return fmt.Sprintf("1/%d", int(math.Round(1/seconds)))
}
