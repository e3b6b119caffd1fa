package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/splitcheck/splitcheck/internal/analyze"
	"github.com/splitcheck/splitcheck/internal/report"
	"github.com/splitcheck/splitcheck/internal/stats"
	"github.com/splitcheck/splitcheck/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List saved analysis runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a saved analysis run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(showCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		runs, err := s.ListRuns(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No saved runs. Use 'splitcheck analyze --save' to record one.")
			return nil
		}

		fmt.Println("ID     CREATED              ALPHA   ADJ.ALPHA  POWER   GROUPS (C/T)     FLAGS")
		fmt.Println(strings.Repeat("─", 78))
		for _, run := range runs {
			var flags []string
			if run.HighMisassignment {
				flags = append(flags, "misassigned")
			}
			if run.Unbalanced {
				flags = append(flags, "unbalanced")
			}
			fmt.Printf("%-5d  %-19s  %-6.3f  %-9.4f  %-6.3f  %d/%d  %s\n",
				run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"),
				run.Alpha, run.AdjustedAlpha, run.Power,
				run.ControlCount, run.TreatmentCount, strings.Join(flags, ","))
		}
		return nil
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	return withStore(func(s *store.SQLiteStore) error {
		run, results, err := s.GetRun(cmd.Context(), id)
		if err != nil {
			if err == store.ErrNotFound {
				return fmt.Errorf("run %d not found", id)
			}
			return fmt.Errorf("failed to get run: %w", err)
		}

		fmt.Printf("RUN: %d\n", run.ID)
		fmt.Printf("CREATED: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
		if run.AssignmentsFile != "" {
			fmt.Printf("SOURCE: %s + %s\n", run.AssignmentsFile, run.StrataFile)
		}
		fmt.Printf("POWER: %.3f\n", run.Power)
		fmt.Println()

		// Rebuild a result set so the saved run renders like a fresh one.
		set := &analyze.ResultSet{
			Alpha:         run.Alpha,
			AdjustedAlpha: run.AdjustedAlpha,
			Strata:        make(map[string]stats.TestResult),
		}
		for _, sr := range results {
			if sr.Scope == store.ScopeOverall {
				set.Overall = sr.TestResult
			} else {
				set.Strata[sr.Scope] = sr.TestResult
			}
		}
		report.WriteResults(os.Stdout, set)
		return nil
	})
}
