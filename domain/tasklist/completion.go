package tasklist

import "math"

// CompletionPercentage returns done/total*100 rounded to two decimals,
// or 0 for an empty list.
func CompletionPercentage(done, total int64) float64 {
	if total <= 0 {
		return 0.0
	}
	pct := float64(done) / float64(total) * 100
	return math.Round(pct*100) / 100
}
