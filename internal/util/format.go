package util

import (
	"fmt"
	"math"
	"strconv"
)

// NaNText is how undefined ratios and statistics are printed.
const NaNText = "NaN"

// FormatNumber prints large counts compactly (1.5K, 2.0M).
func FormatNumber(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatHoursMinutes prints a minute count as "12h+30m".
func FormatHoursMinutes(minutes int) string {
	return fmt.Sprintf("%dh+%dm", minutes/60, minutes%60)
}

// FormatDecimal prints v with exactly four decimals, NaN as "NaN".
func FormatDecimal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NaNText
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// FormatInterval prints a confidence interval as "low:high" with two
// decimals each.
func FormatInterval(low, high float64) string {
	return formatBound(low) + ":" + formatBound(high)
}

func formatBound(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NaNText
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
