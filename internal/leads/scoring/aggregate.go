package scoring

import "math"

const (
	ruleWeight       = 0.40
	engagementWeight = 0.35
	bantWeight       = 0.25

	minAdjustment = -20
	maxAdjustment = 20
)

// Aggregate blends the capped sub-scores and applies the external
// adjustment. The weighted sum is rounded half away from zero before the
// adjustment is added; the final value is clamped to [0, 100].
func Aggregate(rule, engagement, bant, adjustment int) int {
	weighted := ruleWeight*float64(rule) +
		engagementWeight*float64(engagement) +
		bantWeight*float64(bant)
	return ClampScore(int(math.Round(weighted)) + ClampAdjustment(adjustment))
}

// ClampScore bounds a score to [0, 100].
func ClampScore(score int) int {
	return clampInt(score, 0, 100)
}

// ClampAdjustment bounds an external adjustment to [-20, 20].
func ClampAdjustment(adjustment int) int {
	return clampInt(adjustment, minAdjustment, maxAdjustment)
}
