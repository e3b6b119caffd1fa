package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/splitcheck/splitcheck/internal/experiment"
)

// PowerReport describes the power the experiment design actually achieved.
type PowerReport struct {
	ControlRate   float64 `json:"control_rate"`
	TreatmentRate float64 `json:"treatment_rate"`
	EffectSize    float64 `json:"effect_size"` // Cohen's h
	SampleSize    float64 `json:"sample_size"` // average per-group n
	Alpha         float64 `json:"alpha"`
	Power         float64 `json:"power"`
}

// CohensH is the arcsine effect size for two proportions:
// 2·(asin(√p1) − asin(√p2)). Well-defined for rates of exactly 0 or 1.
func CohensH(p1, p2 float64) float64 {
	return 2 * (math.Asin(math.Sqrt(p1)) - math.Asin(math.Sqrt(p2)))
}

// EstimatePower computes the achieved two-sided power for the observed rates
// and sample sizes. The noncentrality parameter is |h|·√n with n the average
// per-group size; power uses the large-sample normal approximation
// Φ(λ − z₁₋α/₂) + Φ(−λ − z₁₋α/₂), which is monotone in both n and |h|.
func EstimatePower(treatment, control experiment.GroupSample, alpha float64) (PowerReport, error) {
	if treatment.Trials == 0 {
		return PowerReport{}, &InsufficientDataError{Group: experiment.GroupTreatment}
	}
	if control.Trials == 0 {
		return PowerReport{}, &InsufficientDataError{Group: experiment.GroupControl}
	}

	pT := treatment.Rate()
	pC := control.Rate()
	h := CohensH(pT, pC)
	n := (float64(treatment.Trials) + float64(control.Trials)) / 2

	lambda := math.Abs(h) * math.Sqrt(n)
	zCrit := distuv.UnitNormal.Quantile(1 - alpha/2)
	power := distuv.UnitNormal.CDF(lambda-zCrit) + distuv.UnitNormal.CDF(-lambda-zCrit)

	return PowerReport{
		ControlRate:   pC,
		TreatmentRate: pT,
		EffectSize:    h,
		SampleSize:    n,
		Alpha:         alpha,
		Power:         power,
	}, nil
}
