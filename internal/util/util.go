// Package util holds small formatting helpers shared by the CLI and logs.
package util

import (
	"fmt"
	"math"
)

// FormatLapTime renders seconds as m:ss.ss. Negative input is treated as zero.
func FormatLapTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	hundredths := int64(math.Round(seconds * 100))
	minutes := hundredths / 6000
	rest := float64(hundredths%6000) / 100
	return fmt.Sprintf("%d:%05.2f", minutes, rest)
}

// FormatDelta renders the difference to a reference time with an explicit sign.
func FormatDelta(seconds float64) string {
	if math.Abs(seconds) < 0.005 {
		return "+0.00"
	}
	return fmt.Sprintf("%+.2f", seconds)
}

// FormatOptionalLapTime is FormatLapTime for values that may be unset.
func FormatOptionalLapTime(seconds *float64) string {
	if seconds == nil {
		return "--:--.--"
	}
	return FormatLapTime(*seconds)
}
