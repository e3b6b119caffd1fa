package store

import (
	"context"

	"github.com/splitcheck/splitcheck/internal/stats"
)

// Store defines the interface for run-history persistence.
type Store interface {
	SaveRun(ctx context.Context, run *Run, overall stats.TestResult, strata map[string]stats.TestResult) (int64, error)
	GetRun(ctx context.Context, id int64) (*Run, []ScopeResult, error)
	ListRuns(ctx context.Context) ([]*Run, error)

	Close() error
}
