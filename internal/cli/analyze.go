package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/splitcheck/splitcheck/internal/analyze"
	"github.com/splitcheck/splitcheck/internal/report"
	"github.com/splitcheck/splitcheck/internal/stats"
	"github.com/splitcheck/splitcheck/internal/store"
)

var (
	analyzeSave bool
	analyzeYes  bool
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <assignments.csv> <strata.csv>",
	Short: "Run the full analysis pipeline",
	Long: `Validate the dataset, estimate achieved power, and run the two-proportion
test overall and per stratum with a Bonferroni-corrected alpha.

If the validator raises data-quality warnings you are asked to confirm before
the inferential steps run; pass --yes for non-interactive use.

Examples:
  splitcheck analyze ab_test.csv countries.csv
  splitcheck analyze ab_test.csv countries.csv --alpha 0.01 --save
  splitcheck analyze ab_test.csv countries.csv --json > results.json`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the run to the history database")
	analyzeCmd.Flags().BoolVarP(&analyzeYes, "yes", "y", false, "proceed past data-quality warnings without prompting")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit JSON instead of a text report")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	obs, err := loadDataset(args)
	if err != nil {
		return err
	}

	validation, err := analyze.Validate(obs, cfg.ValidatorOptions())
	if err != nil {
		return err
	}

	if validation.HighMisassignment || validation.Unbalanced {
		logger.Warn().
			Bool("high_misassignment", validation.HighMisassignment).
			Bool("unbalanced", validation.Unbalanced).
			Msg("data quality warnings raised")
		if !analyzeYes {
			if !analyzeJSON {
				report.WriteValidation(os.Stdout, validation)
			}
			ok, err := confirmProceed()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Analysis aborted.")
				return nil
			}
		}
	}

	power, err := analyze.EstimatePower(obs, alphaFlag)
	if err != nil {
		return err
	}
	results, err := analyze.Analyze(obs, alphaFlag)
	if err != nil {
		return err
	}

	if analyzeJSON {
		payload := struct {
			Validation *analyze.ValidationReport `json:"validation"`
			Power      stats.PowerReport         `json:"power"`
			Results    *analyze.ResultSet        `json:"results"`
		}{validation, power, results}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	} else {
		report.WriteValidation(os.Stdout, validation)
		report.WritePower(os.Stdout, power)
		report.WriteResults(os.Stdout, results)
	}

	if analyzeSave {
		return withStore(func(s *store.SQLiteStore) error {
			run := &store.Run{
				AssignmentsFile:   args[0],
				StrataFile:        args[1],
				Alpha:             alphaFlag,
				AdjustedAlpha:     results.AdjustedAlpha,
				Power:             power.Power,
				ControlCount:      validation.ControlCount,
				TreatmentCount:    validation.TreatmentCount,
				Removed:           validation.Removed,
				HighMisassignment: validation.HighMisassignment,
				Unbalanced:        validation.Unbalanced,
			}
			id, err := s.SaveRun(cmd.Context(), run, results.Overall, results.Strata)
			if err != nil {
				return fmt.Errorf("failed to save run: %w", err)
			}
			fmt.Printf("Saved as run %d\n", id)
			return nil
		})
	}
	return nil
}
