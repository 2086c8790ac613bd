package calc

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	clockPattern = regexp.MustCompile(`^(\d*):(\d*)$`)
	hoursPattern = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
)

// ParseDurationToHours converts a labor duration token into fractional hours.
// Accepted forms: "H:MM", ":MM", "H:", "H" and decimal hours ("1.5", "1,5").
// Anything else, including negative values, yields 0. Minutes are not
// range-checked: "1:90" is 2.5 hours.
func ParseDurationToHours(text string) float64 {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return 0
	}

	if matches := clockPattern.FindStringSubmatch(raw); matches != nil {
		hours, ok := parseDigits(matches[1])
		if !ok {
			return 0
		}
		minutes, ok := parseDigits(matches[2])
		if !ok {
			return 0
		}
		return finite(hours + minutes/60)
	}

	if hoursPattern.MatchString(raw) {
		value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return 0
		}
		return finite(value)
	}

	return 0
}

func parseDigits(raw string) (float64, bool) {
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func finite(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return value
}
