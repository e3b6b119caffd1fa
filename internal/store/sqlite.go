package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/splitcheck/splitcheck/internal/stats"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    assignments_file TEXT,
    strata_file TEXT,
    alpha REAL NOT NULL,
    adjusted_alpha REAL NOT NULL,
    power REAL NOT NULL,
    control_count INTEGER NOT NULL,
    treatment_count INTEGER NOT NULL,
    removed INTEGER NOT NULL DEFAULT 0,
    high_misassignment INTEGER NOT NULL DEFAULT 0,
    unbalanced INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    scope TEXT NOT NULL,
    control_rate REAL NOT NULL,
    treatment_rate REAL NOT NULL,
    effect REAL NOT NULL,
    relative_effect REAL,
    z_stat REAL NOT NULL,
    p_value REAL NOT NULL,
    ci_low REAL NOT NULL,
    ci_high REAL NOT NULL,
    alpha REAL NOT NULL,
    significant INTEGER NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id)
);

CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_results_run_scope ON results(run_id, scope);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, overall stats.TestResult, strata map[string]stats.TestResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, assignments_file, strata_file, alpha, adjusted_alpha, power,
		                   control_count, treatment_count, removed, high_misassignment, unbalanced)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		now, run.AssignmentsFile, run.StrataFile, run.Alpha, run.AdjustedAlpha, run.Power,
		run.ControlCount, run.TreatmentCount, run.Removed,
		boolToInt(run.HighMisassignment), boolToInt(run.Unbalanced),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	if err := insertResult(ctx, tx, runID, ScopeOverall, overall); err != nil {
		return 0, err
	}
	// Deterministic insert order for readable dumps.
	names := make([]string, 0, len(strata))
	for name := range strata {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := insertResult(ctx, tx, runID, name, strata[name]); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = runID
	run.CreatedAt = time.Unix(now, 0)
	return runID, nil
}

func insertResult(ctx context.Context, tx *sql.Tx, runID int64, scope string, r stats.TestResult) error {
	relative := sql.NullFloat64{Float64: float64(r.RelativeEffect), Valid: !math.IsNaN(float64(r.RelativeEffect))}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO results (run_id, scope, control_rate, treatment_rate, effect, relative_effect,
		                      z_stat, p_value, ci_low, ci_high, alpha, significant)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, scope, r.ControlRate, r.TreatmentRate, r.Effect, relative,
		r.ZStat, r.PValue, r.CILow, r.CIHigh, r.Alpha, boolToInt(r.Significant),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s result: %w", scope, err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*Run, []ScopeResult, error) {
	run, err := s.scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, created_at, assignments_file, strata_file, alpha, adjusted_alpha, power,
		        control_count, treatment_count, removed, high_misassignment, unbalanced
		 FROM runs WHERE id = ?`, id))
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT scope, control_rate, treatment_rate, effect, relative_effect,
		        z_stat, p_value, ci_low, ci_high, alpha, significant
		 FROM results WHERE run_id = ? ORDER BY scope = ? DESC, scope`, id, ScopeOverall)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []ScopeResult
	for rows.Next() {
		var sr ScopeResult
		var relative sql.NullFloat64
		var significant int
		if err := rows.Scan(&sr.Scope, &sr.ControlRate, &sr.TreatmentRate, &sr.Effect, &relative,
			&sr.ZStat, &sr.PValue, &sr.CILow, &sr.CIHigh, &sr.Alpha, &significant); err != nil {
			return nil, nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if relative.Valid {
			sr.RelativeEffect = stats.NaNFloat(relative.Float64)
		} else {
			sr.RelativeEffect = stats.NaNFloat(math.NaN())
		}
		sr.Significant = significant != 0
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return run, results, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, assignments_file, strata_file, alpha, adjusted_alpha, power,
		        control_count, treatment_count, removed, high_misassignment, unbalanced
		 FROM runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanRun(row rowScanner) (*Run, error) {
	var run Run
	var createdAt int64
	var assignments, strata sql.NullString
	var high, unbalanced int

	err := row.Scan(&run.ID, &createdAt, &assignments, &strata, &run.Alpha, &run.AdjustedAlpha,
		&run.Power, &run.ControlCount, &run.TreatmentCount, &run.Removed, &high, &unbalanced)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.CreatedAt = time.Unix(createdAt, 0)
	run.AssignmentsFile = assignments.String
	run.StrataFile = strata.String
	run.HighMisassignment = high != 0
	run.Unbalanced = unbalanced != 0
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
