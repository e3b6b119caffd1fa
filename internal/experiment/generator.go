package experiment

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"
)

// GeneratorConfig controls the synthetic dataset writer.
type GeneratorConfig struct {
	Users             int
	Seed              int64
	DuplicateFraction float64 // fraction of assignment rows re-emitted with an already used id
	MissingFraction   float64 // fraction of strata rows with an empty label
}

// DefaultGeneratorConfig mirrors the reference dataset: 100k users, a trace
// of missing country labels, no duplicates.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Users:           100000,
		Seed:            42,
		MissingFraction: 0.0005,
	}
}

type countryProfile struct {
	name            string
	weight          float64
	baseRate        float64 // control conversion rate
	treatmentEffect float64 // added to baseRate in the treatment arm
}

// Country mix and effects follow the reference experiment: a US-heavy split
// where the treatment helps in the UK and slightly hurts elsewhere.
var countryProfiles = []countryProfile{
	{name: "US", weight: 0.60, baseRate: 0.125, treatmentEffect: -0.008},
	{name: "UK", weight: 0.25, baseRate: 0.110, treatmentEffect: +0.015},
	{name: "CA", weight: 0.15, baseRate: 0.115, treatmentEffect: -0.005},
}

const pageMisassignmentRate = 0.01

// Generate writes the two CSV files the loader consumes. Output is fully
// determined by the config (including the seed).
func Generate(cfg GeneratorConfig, assignmentsPath, strataPath string) error {
	if cfg.Users <= 0 {
		return fmt.Errorf("user count must be positive, got %d", cfg.Users)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	af, err := os.Create(assignmentsPath)
	if err != nil {
		return fmt.Errorf("failed to create assignments file: %w", err)
	}
	defer af.Close()
	sf, err := os.Create(strataPath)
	if err != nil {
		return fmt.Errorf("failed to create strata file: %w", err)
	}
	defer sf.Close()

	aw := csv.NewWriter(af)
	sw := csv.NewWriter(sf)

	if err := aw.Write([]string{"id", "timestamp", "con_treat", "page", "converted"}); err != nil {
		return fmt.Errorf("failed to write assignments header: %w", err)
	}
	if err := sw.Write([]string{"id", "country"}); err != nil {
		return fmt.Errorf("failed to write strata header: %w", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([][]string, 0, cfg.Users)

	for i := 1; i <= cfg.Users; i++ {
		id := strconv.Itoa(i)
		country := pickCountry(rng)

		group := GroupControl
		if rng.Float64() < 0.5 {
			group = GroupTreatment
		}
		page := pageFor(group)
		if rng.Float64() < pageMisassignmentRate {
			page = pageFor(otherGroup(group))
		}

		rate := country.baseRate
		if group == GroupTreatment {
			rate += country.treatmentEffect
		}
		converted := "0"
		if rng.Float64() < rate {
			converted = "1"
		}

		ts := start.Add(time.Duration(rng.Int63n(30*24*3600)) * time.Second)
		row := []string{id, ts.Format(time.RFC3339), string(group), page, converted}
		rows = append(rows, row)

		if err := aw.Write(row); err != nil {
			return fmt.Errorf("failed to write assignments row: %w", err)
		}

		label := country.name
		if rng.Float64() < cfg.MissingFraction {
			label = ""
		}
		if err := sw.Write([]string{id, label}); err != nil {
			return fmt.Errorf("failed to write strata row: %w", err)
		}
	}

	// Re-emit a sample of rows verbatim to simulate the duplicate ids the
	// validator is expected to strip.
	dupes := int(cfg.DuplicateFraction * float64(cfg.Users))
	for i := 0; i < dupes; i++ {
		row := rows[rng.Intn(len(rows))]
		if err := aw.Write(row); err != nil {
			return fmt.Errorf("failed to write duplicate row: %w", err)
		}
	}

	aw.Flush()
	sw.Flush()
	if err := aw.Error(); err != nil {
		return fmt.Errorf("failed to flush assignments file: %w", err)
	}
	if err := sw.Error(); err != nil {
		return fmt.Errorf("failed to flush strata file: %w", err)
	}
	return nil
}

func pickCountry(rng *rand.Rand) countryProfile {
	r := rng.Float64()
	acc := 0.0
	for _, c := range countryProfiles {
		acc += c.weight
		if r < acc {
			return c
		}
	}
	return countryProfiles[len(countryProfiles)-1]
}

func pageFor(g Group) string {
	if g == GroupTreatment {
		return "new_page"
	}
	return "old_page"
}

func otherGroup(g Group) Group {
	if g == GroupTreatment {
		return GroupControl
	}
	return GroupTreatment
}
