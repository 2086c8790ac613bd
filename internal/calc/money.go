package calc

import (
	"math"
	"strconv"
)

func FormatEUR(eur float64) string {
	abs, negative := formatAbs(eur)
	if negative {
		return "-€" + abs
	}
	return "€" + abs
}

func FormatBGN(bgn float64) string {
	abs, negative := formatAbs(bgn)
	if negative {
		return "-" + abs + " лв."
	}
	return abs + " лв."
}

// FormatDual renders a EUR amount together with its BGN mirror.
func FormatDual(eur float64) string {
	return FormatEUR(eur) + " / " + FormatBGN(ToBGN(eur))
}

func FormatPercent(rate float64) string {
	return strconv.FormatFloat(Round2(rate*100), 'f', -1, 64) + "%"
}

// Round2 rounds half away from zero to cents.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func formatAbs(value float64) (string, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0.00", false
	}
	abs := strconv.FormatFloat(math.Abs(Round2(value)), 'f', 2, 64)
	return abs, value < 0 && abs != "0.00"
}
