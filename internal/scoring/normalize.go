package scoring

import "math"

// NormalizePercentage maps score onto 0-100 relative to maxScore, clamping
// at 100 and rounding half away from zero. A zero maxScore yields 0.
func NormalizePercentage(score, maxScore int) int {
	if maxScore <= 0 || score <= 0 {
		return 0
	}
	pct := float64(score) / float64(maxScore) * 100
	return int(math.Round(math.Min(100, pct)))
}
