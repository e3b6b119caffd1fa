package stats

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/splitcheck/splitcheck/internal/experiment"
)

// NaNFloat is a float64 that marshals NaN as JSON null. Used for quantities
// that are mathematically undefined rather than zero.
type NaNFloat float64

func (f NaNFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *NaNFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = NaNFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = NaNFloat(v)
	return nil
}

// TestResult is the outcome of one two-proportion hypothesis test. Field
// names and JSON keys are a stable contract for report consumers.
type TestResult struct {
	ControlRate    float64  `json:"control_rate"`
	TreatmentRate  float64  `json:"treatment_rate"`
	Effect         float64  `json:"effect_size"`     // treatment rate - control rate
	RelativeEffect NaNFloat `json:"relative_effect"` // percent; NaN when control rate is 0
	ZStat          float64  `json:"z_stat"`
	PValue         float64  `json:"p_value"`
	CILow          float64  `json:"ci_low"`  // CI for the rate difference
	CIHigh         float64  `json:"ci_high"` // at the alpha the test ran at
	Alpha          float64  `json:"alpha"`
	Significant    bool     `json:"significant"` // p-value < Alpha
}

// TwoProportionTest runs a pooled z-test for two independent proportions,
// treatment first. The confidence interval on the difference is built from
// the per-group intervals at the same alpha: low = lowT - highC,
// high = highT - lowC. That construction is deliberately conservative and is
// part of the contract; do not substitute a joint interval.
func TwoProportionTest(treatment, control experiment.GroupSample, alpha float64) (TestResult, error) {
	if treatment.Trials == 0 {
		return TestResult{}, &InsufficientDataError{Group: experiment.GroupTreatment}
	}
	if control.Trials == 0 {
		return TestResult{}, &InsufficientDataError{Group: experiment.GroupControl}
	}

	pT := treatment.Rate()
	pC := control.Rate()
	nT := float64(treatment.Trials)
	nC := float64(control.Trials)

	pooled := float64(treatment.Successes+control.Successes) / (nT + nC)
	se := math.Sqrt(pooled * (1 - pooled) * (1/nT + 1/nC))

	var z, p float64
	if se == 0 {
		// Pooled rate of exactly 0 or 1: both arms share the same rate.
		z, p = 0, 1
	} else {
		z = (pT - pC) / se
		p = 2 * (1 - distuv.UnitNormal.CDF(math.Abs(z)))
	}

	relative := math.NaN()
	if pC != 0 {
		relative = (pT - pC) / pC * 100
	}

	lowT, highT := ProportionInterval(treatment, alpha)
	lowC, highC := ProportionInterval(control, alpha)

	return TestResult{
		ControlRate:    pC,
		TreatmentRate:  pT,
		Effect:         pT - pC,
		RelativeEffect: NaNFloat(relative),
		ZStat:          z,
		PValue:         p,
		CILow:          lowT - highC,
		CIHigh:         highT - lowC,
		Alpha:          alpha,
		Significant:    p < alpha,
	}, nil
}
