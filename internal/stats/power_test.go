package stats_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitcheck/splitcheck/internal/experiment"
	"github.com/splitcheck/splitcheck/internal/stats"
)

func TestCohensH_ReferenceRates(t *testing.T) {
	h := stats.CohensH(0.150, 0.120)
	assert.InDelta(t, 0.0881, h, 0.0005)

	// Antisymmetric in its arguments.
	assert.InDelta(t, -h, stats.CohensH(0.120, 0.150), 1e-12)
}

func TestCohensH_DefinedAtBoundaries(t *testing.T) {
	assert.False(t, math.IsNaN(stats.CohensH(0, 1)))
	assert.InDelta(t, 3.14159265, stats.CohensH(1, 0), 1e-6)
}

func TestEstimatePower_ReferenceScenario(t *testing.T) {
	p, err := stats.EstimatePower(
		experiment.GroupSample{Trials: 1000, Successes: 150},
		experiment.GroupSample{Trials: 1000, Successes: 120},
		0.05,
	)
	require.NoError(t, err)

	assert.InDelta(t, 0.120, p.ControlRate, 1e-12)
	assert.InDelta(t, 0.150, p.TreatmentRate, 1e-12)
	assert.InDelta(t, 1000, p.SampleSize, 1e-12)
	assert.InDelta(t, 0.795, p.Power, 0.01)
}

func TestEstimatePower_MonotoneInSampleSize(t *testing.T) {
	prev := 0.0
	for _, n := range []int{100, 400, 1600, 6400} {
		p, err := stats.EstimatePower(
			experiment.GroupSample{Trials: n, Successes: n * 15 / 100},
			experiment.GroupSample{Trials: n, Successes: n * 12 / 100},
			0.05,
		)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.Power, prev, "n=%d", n)
		prev = p.Power
	}
}

func TestEstimatePower_MonotoneInEffectSize(t *testing.T) {
	prev := 0.0
	for _, successes := range []int{120, 135, 150, 180, 240} {
		p, err := stats.EstimatePower(
			experiment.GroupSample{Trials: 1000, Successes: successes},
			experiment.GroupSample{Trials: 1000, Successes: 120},
			0.05,
		)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.Power, prev, "successes=%d", successes)
		prev = p.Power
	}
}

func TestEstimatePower_ZeroEffectEqualsAlpha(t *testing.T) {
	s := experiment.GroupSample{Trials: 1000, Successes: 120}

	p, err := stats.EstimatePower(s, s, 0.05)
	require.NoError(t, err)

	// With no effect, rejecting is a pure type-I event.
	assert.InDelta(t, 0.05, p.Power, 1e-9)
}

func TestEstimatePower_SaturatesForLargeEffect(t *testing.T) {
	p, err := stats.EstimatePower(
		experiment.GroupSample{Trials: 1000, Successes: 900},
		experiment.GroupSample{Trials: 1000, Successes: 100},
		0.05,
	)
	require.NoError(t, err)
	assert.Greater(t, p.Power, 0.999)
}

func TestEstimatePower_ZeroTrials(t *testing.T) {
	var insufficient *stats.InsufficientDataError

	_, err := stats.EstimatePower(experiment.GroupSample{}, experiment.GroupSample{Trials: 10}, 0.05)
	require.ErrorAs(t, err, &insufficient)
}
