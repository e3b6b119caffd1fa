package stats

// AdjustedAlpha applies the Bonferroni correction for k simultaneous tests.
// k must count only the strata actually tested; k ≤ 1 leaves alpha unchanged.
func AdjustedAlpha(alpha float64, k int) float64 {
	if k <= 1 {
		return alpha
	}
	return alpha / float64(k)
}
