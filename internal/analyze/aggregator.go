package analyze

import (
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/splitcheck/splitcheck/internal/experiment"
	"github.com/splitcheck/splitcheck/internal/stats"
)

// ResultSet is the single artifact handed to reporting consumers: the
// overall test at the nominal alpha plus one test per testable stratum at
// the Bonferroni-adjusted alpha. Stratum results therefore carry their
// significance under correction in the Significant field.
type ResultSet struct {
	Alpha         float64                     `json:"alpha"`
	AdjustedAlpha float64                     `json:"adjusted_alpha"`
	Overall       stats.TestResult            `json:"overall"`
	Strata        map[string]stats.TestResult `json:"strata"`
}

// Analyze runs the full inferential pipeline over an already-joined dataset.
// It does not run the validator; callers invoke Validate first so its
// warnings can be inspected before deciding to proceed.
func Analyze(obs []experiment.Observation, alpha float64) (*ResultSet, error) {
	clean, _ := experiment.Dedupe(obs)

	overall, err := stats.TwoProportionTest(
		experiment.Sample(clean, experiment.GroupTreatment),
		experiment.Sample(clean, experiment.GroupControl),
		alpha,
	)
	if err != nil {
		return nil, err
	}

	// Strata where either arm has zero trials are excluded before k is
	// computed, so the correction matches the set of tests actually run.
	type stratumSamples struct {
		name               string
		treatment, control experiment.GroupSample
	}
	var testable []stratumSamples
	for _, name := range experiment.Strata(clean) {
		t := experiment.StratumSample(clean, name, experiment.GroupTreatment)
		c := experiment.StratumSample(clean, name, experiment.GroupControl)
		if t.Trials == 0 || c.Trials == 0 {
			continue
		}
		testable = append(testable, stratumSamples{name: name, treatment: t, control: c})
	}

	adjusted := stats.AdjustedAlpha(alpha, len(testable))

	// Per-stratum tests are independent reads of the immutable snapshot;
	// each goroutine writes only its own slot.
	results := make([]*stats.TestResult, len(testable))
	var g errgroup.Group
	for i, s := range testable {
		i, s := i, s
		g.Go(func() error {
			res, err := stats.TwoProportionTest(s.treatment, s.control, adjusted)
			if err != nil {
				var insufficient *stats.InsufficientDataError
				if errors.As(err, &insufficient) {
					return nil // degrade this stratum only
				}
				return err
			}
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &ResultSet{
		Alpha:         alpha,
		AdjustedAlpha: adjusted,
		Overall:       overall,
		Strata:        make(map[string]stats.TestResult, len(testable)),
	}
	for i, s := range testable {
		if results[i] != nil {
			set.Strata[s.name] = *results[i]
		}
	}
	return set, nil
}

// EstimatePower reports the power achieved by the observed design.
func EstimatePower(obs []experiment.Observation, alpha float64) (stats.PowerReport, error) {
	clean, _ := experiment.Dedupe(obs)
	return stats.EstimatePower(
		experiment.Sample(clean, experiment.GroupTreatment),
		experiment.Sample(clean, experiment.GroupControl),
		alpha,
	)
}
