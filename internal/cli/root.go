package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/splitcheck/splitcheck/internal/config"
)

var (
	cfgFile   string
	dbPath    string
	alphaFlag float64
	verbose   bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "splitcheck",
	Short: "Splitcheck - go/no-go evaluation of two-arm A/B experiments",
	Long: `Splitcheck evaluates a two-arm randomized experiment (control vs treatment)
measured by a binary outcome and segmented by a categorical stratum such as
country. It checks dataset integrity, reports achieved statistical power, and
runs a two-proportion z-test overall and per stratum with a Bonferroni
correction.

Input is the pair of CSV exports joined by id: the assignment file
(id, con_treat, page, converted) and the strata file (id, country).`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c

		if dbPath == "" {
			dbPath = cfg.DBPath
		}
		if !cmd.Flags().Changed("alpha") && alphaFlag == 0 {
			alphaFlag = cfg.Alpha
		}

		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).With().Timestamp().Logger()
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "run-history database path")
	rootCmd.PersistentFlags().Float64Var(&alphaFlag, "alpha", 0, "significance level (default 0.05)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
