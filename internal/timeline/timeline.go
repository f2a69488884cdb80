// Package timeline parses, formats and normalizes the time values attached to
// session messages. Upstream producers emit both raw seconds and human clock
// strings ("mm:ss", "hh:mm:ss"), so parsing is tolerant: a malformed value
// yields "no value" rather than an error.
package timeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// clockPattern matches "m:ss" and "h:mm:ss" style values. Plain numbers are
// handled by strconv before this pattern is consulted.
var clockPattern = regexp.MustCompile(`^(\d{1,3}):(\d{1,2})(?::(\d{1,2}))?$`)

// Parse converts a raw time value into seconds. The boolean reports whether
// the value parsed at all: "no value" is distinct from zero. Negative and
// non-finite inputs are clamped to zero seconds.
func Parse(value string) (float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}

	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		if n < 0 {
			return 0, true
		}
		return n, true
	}

	m := clockPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, false
	}

	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	if m[3] != "" {
		third, _ := strconv.Atoi(m[3])
		return float64(first*3600 + second*60 + third), true
	}
	return float64(first*60 + second), true
}

// LabelSeconds renders whole seconds as "MM:SS", or "HH:MM:SS" from one hour
// up. Fields are always zero-padded to two digits.
func LabelSeconds(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))

	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// Label parses a raw value and renders it as a clock label. An unparseable
// value renders as the empty string.
func Label(value string) string {
	seconds, ok := Parse(value)
	if !ok {
		return ""
	}
	return LabelSeconds(seconds)
}

// Range normalizes a (start, end) pair into a concrete non-negative,
// non-inverted range:
//   - both unparseable: (0, 0)
//   - only start unparseable: start becomes 0
//   - only end unparseable: end mirrors start
//   - end below start: end is raised to start
func Range(start, end string) (float64, float64) {
	s, sOK := Parse(start)
	e, eOK := Parse(end)

	if !sOK {
		s = 0
	}
	if !eOK {
		e = s
	}
	if e < s {
		e = s
	}
	return s, e
}
