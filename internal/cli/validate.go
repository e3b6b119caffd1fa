package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/splitcheck/splitcheck/internal/analyze"
	"github.com/splitcheck/splitcheck/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate <assignments.csv> <strata.csv>",
	Short: "Check dataset integrity without running any tests",
	Long: `Report duplicate ids, missing values, treatment/page misassignment, and
group-size balance. Warnings are advisory; only an empty experiment arm is
fatal.`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	obs, err := loadDataset(args)
	if err != nil {
		return err
	}

	validation, err := analyze.Validate(obs, cfg.ValidatorOptions())
	if err != nil {
		return err
	}

	report.WriteValidation(os.Stdout, validation)
	return nil
}
