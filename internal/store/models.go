package store

import (
	"time"

	"github.com/splitcheck/splitcheck/internal/stats"
)

// ScopeOverall is the scope name of the whole-population result; every other
// scope is a stratum label.
const ScopeOverall = "overall"

// Run is the persisted metadata of one analysis.
type Run struct {
	ID              int64
	CreatedAt       time.Time
	AssignmentsFile string
	StrataFile      string

	Alpha         float64
	AdjustedAlpha float64
	Power         float64

	ControlCount   int
	TreatmentCount int
	Removed        int // duplicates dropped by the validator

	HighMisassignment bool
	Unbalanced        bool
}

// ScopeResult is one persisted test result, keyed by scope.
type ScopeResult struct {
	Scope string
	stats.TestResult
}
