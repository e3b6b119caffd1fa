package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/splitcheck/splitcheck/internal/analyze"
	"github.com/splitcheck/splitcheck/internal/report"
)

var powerCmd = &cobra.Command{
	Use:   "power <assignments.csv> <strata.csv>",
	Short: "Report the statistical power the experiment achieved",
	Long: `Compute Cohen's h for the observed conversion rates and the achieved
two-sided power at the configured alpha.`,
	Args: cobra.ExactArgs(2),
	RunE: runPower,
}

func init() {
	rootCmd.AddCommand(powerCmd)
}

func runPower(cmd *cobra.Command, args []string) error {
	obs, err := loadDataset(args)
	if err != nil {
		return err
	}

	p, err := analyze.EstimatePower(obs, alphaFlag)
	if err != nil {
		return err
	}

	report.WritePower(os.Stdout, p)
	return nil
}
