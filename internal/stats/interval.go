package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/splitcheck/splitcheck/internal/experiment"
)

// ProportionInterval returns the normal-approximation confidence interval for
// a binomial proportion at the given alpha: p ± z(1-alpha/2)·sqrt(p(1-p)/n),
// clamped to [0, 1]. An empty sample yields (0, 0).
func ProportionInterval(s experiment.GroupSample, alpha float64) (lower, upper float64) {
	if s.Trials == 0 {
		return 0, 0
	}

	p := s.Rate()
	n := float64(s.Trials)
	z := distuv.UnitNormal.Quantile(1 - alpha/2)
	spread := z * math.Sqrt(p*(1-p)/n)

	lower = p - spread
	upper = p + spread

	if lower < 0 {
		lower = 0
	}
	if upper > 1 {
		upper = 1
	}
	return lower, upper
}
