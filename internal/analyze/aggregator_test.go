package analyze_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitcheck/splitcheck/internal/analyze"
	"github.com/splitcheck/splitcheck/internal/experiment"
	"github.com/splitcheck/splitcheck/internal/stats"
)

// stratumObs builds one stratum's observations: trials per arm with the given
// number of conversions.
func stratumObs(stratum string, controlTrials, controlConv, treatmentTrials, treatmentConv int) []experiment.Observation {
	var obs []experiment.Observation
	for i := 0; i < controlTrials; i++ {
		obs = append(obs, experiment.Observation{
			ID:        fmt.Sprintf("%s-c%d", stratum, i),
			Group:     experiment.GroupControl,
			Page:      "old_page",
			Converted: i < controlConv,
			Stratum:   stratum,
		})
	}
	for i := 0; i < treatmentTrials; i++ {
		obs = append(obs, experiment.Observation{
			ID:        fmt.Sprintf("%s-t%d", stratum, i),
			Group:     experiment.GroupTreatment,
			Page:      "new_page",
			Converted: i < treatmentConv,
			Stratum:   stratum,
		})
	}
	return obs
}

func TestAnalyze_ThreeIdenticalStrata(t *testing.T) {
	// Three strata, each 500/500, identical rates: 12% control, 15% treatment.
	var obs []experiment.Observation
	for _, name := range []string{"US", "UK", "CA"} {
		obs = append(obs, stratumObs(name, 500, 60, 500, 75)...)
	}

	rs, err := analyze.Analyze(obs, 0.05)
	require.NoError(t, err)

	assert.Equal(t, 0.05, rs.Alpha)
	assert.InDelta(t, 0.0166667, rs.AdjustedAlpha, 1e-6)
	require.Len(t, rs.Strata, 3)

	// Pooled over 1500/1500 the effect is detectable...
	assert.InDelta(t, 0.120, rs.Overall.ControlRate, 1e-12)
	assert.InDelta(t, 0.150, rs.Overall.TreatmentRate, 1e-12)
	assert.True(t, rs.Overall.Significant)

	// ...but no single stratum survives the correction.
	for name, res := range rs.Strata {
		assert.InDelta(t, 0.03, res.Effect, 1e-12, "stratum %s", name)
		assert.Equal(t, rs.AdjustedAlpha, res.Alpha, "stratum %s", name)
		assert.False(t, res.Significant, "stratum %s", name)
	}
}

func TestAnalyze_SkipsUntestableStrata(t *testing.T) {
	obs := append(
		stratumObs("US", 400, 48, 400, 60),
		stratumObs("UK", 400, 44, 400, 58)...,
	)
	// DE has no treatment arm: excluded before k is computed.
	obs = append(obs, stratumObs("DE", 100, 10, 0, 0)...)

	rs, err := analyze.Analyze(obs, 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 0.025, rs.AdjustedAlpha, 1e-12)
	assert.Len(t, rs.Strata, 2)
	assert.NotContains(t, rs.Strata, "DE")
}

func TestAnalyze_SingleStratumKeepsNominalAlpha(t *testing.T) {
	rs, err := analyze.Analyze(stratumObs("US", 500, 60, 500, 75), 0.05)
	require.NoError(t, err)

	assert.Equal(t, 0.05, rs.AdjustedAlpha)
	require.Contains(t, rs.Strata, "US")
}

func TestAnalyze_MissingStratumOnlyCountsOverall(t *testing.T) {
	obs := stratumObs("US", 300, 30, 300, 45)
	obs = append(obs, stratumObs("", 100, 10, 100, 15)...)

	rs, err := analyze.Analyze(obs, 0.05)
	require.NoError(t, err)

	assert.Len(t, rs.Strata, 1)
	overall := experiment.Sample(obs, experiment.GroupControl)
	assert.InDelta(t, overall.Rate(), rs.Overall.ControlRate, 1e-12)
}

func TestAnalyze_DeduplicatesBeforeTesting(t *testing.T) {
	obs := stratumObs("US", 500, 60, 500, 75)
	withDupes := append(append([]experiment.Observation{}, obs...), obs[:100]...)

	clean, err := analyze.Analyze(obs, 0.05)
	require.NoError(t, err)
	duped, err := analyze.Analyze(withDupes, 0.05)
	require.NoError(t, err)

	assert.Equal(t, clean.Overall, duped.Overall)
	assert.Equal(t, clean.Strata, duped.Strata)
}

func TestAnalyze_MatchesDirectEngineCall(t *testing.T) {
	obs := stratumObs("US", 1000, 120, 1000, 150)

	rs, err := analyze.Analyze(obs, 0.05)
	require.NoError(t, err)

	direct, err := stats.TwoProportionTest(
		experiment.GroupSample{Trials: 1000, Successes: 150},
		experiment.GroupSample{Trials: 1000, Successes: 120},
		0.05,
	)
	require.NoError(t, err)
	assert.Equal(t, direct, rs.Overall)
}

func TestAnalyze_EmptyArmIsFatal(t *testing.T) {
	obs := stratumObs("US", 100, 10, 0, 0)

	_, err := analyze.Analyze(obs, 0.05)
	var insufficient *stats.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, experiment.GroupTreatment, insufficient.Group)
}

func TestEstimatePower_UsesDedupedOverallSamples(t *testing.T) {
	obs := stratumObs("US", 1000, 120, 1000, 150)
	withDupes := append(append([]experiment.Observation{}, obs...), obs[:50]...)

	p, err := analyze.EstimatePower(withDupes, 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 0.120, p.ControlRate, 1e-12)
	assert.InDelta(t, 0.150, p.TreatmentRate, 1e-12)
	assert.InDelta(t, 1000, p.SampleSize, 1e-12)
}
