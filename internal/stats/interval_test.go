package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/splitcheck/splitcheck/internal/experiment"
	"github.com/splitcheck/splitcheck/internal/stats"
)

func TestProportionInterval_50Percent(t *testing.T) {
	// 50/100 at alpha 0.05: 0.5 ± 1.96·√(0.25/100)
	lower, upper := stats.ProportionInterval(experiment.GroupSample{Trials: 100, Successes: 50}, 0.05)

	assert.InDelta(t, 0.402, lower, 0.001)
	assert.InDelta(t, 0.598, upper, 0.001)
}

func TestProportionInterval_ClampsToUnit(t *testing.T) {
	lower, _ := stats.ProportionInterval(experiment.GroupSample{Trials: 1000, Successes: 1}, 0.05)
	assert.Equal(t, 0.0, lower)

	_, upper := stats.ProportionInterval(experiment.GroupSample{Trials: 1000, Successes: 999}, 0.05)
	assert.Equal(t, 1.0, upper)
}

func TestProportionInterval_EmptySample(t *testing.T) {
	lower, upper := stats.ProportionInterval(experiment.GroupSample{}, 0.05)
	assert.Zero(t, lower)
	assert.Zero(t, upper)
}

func TestProportionInterval_SmallerAlphaIsWider(t *testing.T) {
	s := experiment.GroupSample{Trials: 500, Successes: 100}

	l95, u95 := stats.ProportionInterval(s, 0.05)
	l99, u99 := stats.ProportionInterval(s, 0.01)

	assert.Less(t, l99, l95)
	assert.Greater(t, u99, u95)
}
