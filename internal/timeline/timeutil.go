package timeline

import (
	"fmt"
	"math"
)

func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// SnapTo rounds v to the nearest multiple of grid. A non-positive grid
// returns v unchanged.
func SnapTo(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// FormatTime renders seconds as MM:SS, truncating fractions.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
