package analysis

import "math"

// NormalizeProgress maps a service-reported progress value to a 0-100 percentage.
// The service reports both fractions in [0,1] and percentages, so fractions are scaled.
func NormalizeProgress(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	if v >= 0 && v <= 1 {
		return int(math.Round(v * 100))
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}
