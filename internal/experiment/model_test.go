package experiment_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/splitcheck/splitcheck/internal/experiment"
)

func TestDedupe_KeepsFirstSeen(t *testing.T) {
	obs := []experiment.Observation{
		{ID: "a", Group: experiment.GroupControl, Converted: true},
		{ID: "b", Group: experiment.GroupTreatment},
		{ID: "a", Group: experiment.GroupTreatment, Converted: false},
	}

	clean, removed := experiment.Dedupe(obs)

	assert.Equal(t, 1, removed)
	assert.Len(t, clean, 2)
	assert.Equal(t, experiment.GroupControl, clean[0].Group)
	assert.True(t, clean[0].Converted)
}

func TestDedupe_Idempotent(t *testing.T) {
	obs := []experiment.Observation{
		{ID: "a", Group: experiment.GroupControl},
		{ID: "b", Group: experiment.GroupTreatment},
	}

	once, removed := experiment.Dedupe(obs)
	assert.Zero(t, removed)

	twice, removed := experiment.Dedupe(once)
	assert.Zero(t, removed)
	assert.Equal(t, once, twice)
}

func TestDedupe_DoesNotMutateInput(t *testing.T) {
	obs := []experiment.Observation{
		{ID: "a"}, {ID: "a"}, {ID: "b"},
	}

	_, _ = experiment.Dedupe(obs)
	assert.Len(t, obs, 3)
}

func TestSample(t *testing.T) {
	obs := []experiment.Observation{
		{ID: "1", Group: experiment.GroupControl, Converted: true},
		{ID: "2", Group: experiment.GroupControl},
		{ID: "3", Group: experiment.GroupTreatment, Converted: true},
		{ID: "4", Group: "bogus", Converted: true},
	}

	c := experiment.Sample(obs, experiment.GroupControl)
	assert.Equal(t, experiment.GroupSample{Trials: 2, Successes: 1}, c)

	tr := experiment.Sample(obs, experiment.GroupTreatment)
	assert.Equal(t, experiment.GroupSample{Trials: 1, Successes: 1}, tr)
}

func TestStratumSample(t *testing.T) {
	obs := []experiment.Observation{
		{ID: "1", Group: experiment.GroupControl, Stratum: "US", Converted: true},
		{ID: "2", Group: experiment.GroupControl, Stratum: "UK"},
		{ID: "3", Group: experiment.GroupTreatment, Stratum: "US"},
	}

	s := experiment.StratumSample(obs, "US", experiment.GroupControl)
	assert.Equal(t, experiment.GroupSample{Trials: 1, Successes: 1}, s)
}

func TestStrata_SortedAndSkipsMissing(t *testing.T) {
	obs := []experiment.Observation{
		{ID: "1", Stratum: "UK"},
		{ID: "2", Stratum: "CA"},
		{ID: "3", Stratum: ""},
		{ID: "4", Stratum: "US"},
		{ID: "5", Stratum: "UK"},
	}

	assert.Equal(t, []string{"CA", "UK", "US"}, experiment.Strata(obs))
}

func TestGroupSampleRate(t *testing.T) {
	assert.InDelta(t, 0.25, experiment.GroupSample{Trials: 4, Successes: 1}.Rate(), 1e-12)
	assert.True(t, math.IsNaN(experiment.GroupSample{}.Rate()))
}
