package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/splitcheck/splitcheck/internal/analyze"
)

// Config holds the tool-wide defaults. Flags override config-file values,
// which override SPLITCHECK_* environment variables' absence.
type Config struct {
	Alpha  float64 `mapstructure:"alpha"`
	DBPath string  `mapstructure:"db_path"`
	Port   int     `mapstructure:"port"`

	ControlPage            string  `mapstructure:"control_page"`
	TreatmentPage          string  `mapstructure:"treatment_page"`
	MisassignmentThreshold float64 `mapstructure:"misassignment_threshold"`
	BalanceThreshold       float64 `mapstructure:"balance_threshold"`
}

// Load reads the optional config file at path ("" skips the file) plus
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("alpha", 0.05)
	v.SetDefault("db_path", "./splitcheck.db")
	v.SetDefault("port", 8080)
	v.SetDefault("control_page", "old_page")
	v.SetDefault("treatment_page", "new_page")
	v.SetDefault("misassignment_threshold", 0.01)
	v.SetDefault("balance_threshold", 0.8)

	v.SetEnvPrefix("SPLITCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// ValidatorOptions converts the configured thresholds into validator options.
func (c *Config) ValidatorOptions() analyze.Options {
	return analyze.Options{
		ControlPage:            c.ControlPage,
		TreatmentPage:          c.TreatmentPage,
		MisassignmentThreshold: c.MisassignmentThreshold,
		BalanceThreshold:       c.BalanceThreshold,
	}
}
