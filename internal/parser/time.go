package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Time is a duration expressed the way ffmpeg prints it: up to three
// colon-separated integer components (days:hours:minutes) followed by a
// fractional-seconds component, four components at most.
type Time struct {
	Days    uint8
	Hours   uint8
	Minutes uint8
	Seconds float64
}

// ToMilliseconds returns the duration as whole milliseconds.
func (t Time) ToMilliseconds() uint64 {
	total := t.Seconds
	total += float64(t.Minutes) * 60
	total += float64(t.Hours) * 60 * 60
	total += float64(t.Days) * 60 * 60 * 24
	return uint64(total * 1000)
}

// ParseTime accepts 1 to 4 colon-separated components, the least
// significant of which carries a fractional part: "SS.ms", "MM:SS.ms",
// "HH:MM:SS.ms", or "DD:HH:MM:SS.ms".
func ParseTime(s string) (Time, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 4 {
		return Time{}, fmt.Errorf("parse time %q: expected 1-4 components, got %d", s, len(parts))
	}
	// reverse so index 0 is always the fractional-seconds component
	rev := make([]string, len(parts))
	for i, p := range parts {
		rev[len(parts)-1-i] = p
	}

	var t Time
	seconds, err := strconv.ParseFloat(rev[0], 64)
	if err != nil {
		return Time{}, fmt.Errorf("parse time %q: invalid seconds: %w", s, err)
	}
	t.Seconds = seconds

	if len(rev) > 1 {
		minutes, err := strconv.ParseUint(rev[1], 10, 8)
		if err != nil {
			return Time{}, fmt.Errorf("parse time %q: invalid minutes: %w", s, err)
		}
		t.Minutes = uint8(minutes)
	}
	if len(rev) > 2 {
		hours, err := strconv.ParseUint(rev[2], 10, 8)
		if err != nil {
			return Time{}, fmt.Errorf("parse time %q: invalid hours: %w", s, err)
		}
		t.Hours = uint8(hours)
	}
	if len(rev) > 3 {
		days, err := strconv.ParseUint(rev[3], 10, 8)
		if err != nil {
			return Time{}, fmt.Errorf("parse time %q: invalid days: %w", s, err)
		}
		t.Days = uint8(days)
	}
	return t, nil
}
