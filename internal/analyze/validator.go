package analyze

import (
	"fmt"

	"github.com/splitcheck/splitcheck/internal/experiment"
)

// EmptyGroupError is fatal: after deduplication one experiment arm (or the
// whole dataset) has no observations, so no inference can be drawn.
type EmptyGroupError struct {
	Group experiment.Group
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("empty group: %s arm has no observations after deduplication", e.Group)
}

// Options configures the advisory checks. The page labels define which
// exposure each arm was supposed to receive.
type Options struct {
	ControlPage            string
	TreatmentPage          string
	MisassignmentThreshold float64
	BalanceThreshold       float64
}

// DefaultOptions matches the reference experiment: old_page for control,
// new_page for treatment, warn above 1% misassignment or below a 0.8 size
// ratio.
func DefaultOptions() Options {
	return Options{
		ControlPage:            "old_page",
		TreatmentPage:          "new_page",
		MisassignmentThreshold: 0.01,
		BalanceThreshold:       0.8,
	}
}

// ValidationReport describes the structural integrity of the dataset.
// Everything in it is advisory; the caller decides whether to proceed.
type ValidationReport struct {
	TotalRows int `json:"total_rows"` // before deduplication
	Rows      int `json:"rows"`       // after deduplication
	Removed   int `json:"removed"`    // duplicate ids dropped

	MissingValues map[string]int `json:"missing_values"` // per attribute

	CrossTab map[experiment.Group]map[string]int `json:"cross_tab"` // group × page

	ControlMisassignment   float64 `json:"control_misassignment"`
	TreatmentMisassignment float64 `json:"treatment_misassignment"`
	HighMisassignment      bool    `json:"high_misassignment"`

	ControlCount   int     `json:"control_count"`
	TreatmentCount int     `json:"treatment_count"`
	SizeRatio      float64 `json:"size_ratio"` // min(group sizes) / max(group sizes)
	Unbalanced     bool    `json:"unbalanced"`
}

// Validate checks the joined dataset before any inference is drawn. Anomalies
// become report fields, never errors; the one fatal precondition is an empty
// arm after deduplication.
func Validate(obs []experiment.Observation, opts Options) (*ValidationReport, error) {
	report := &ValidationReport{
		TotalRows:     len(obs),
		MissingValues: map[string]int{"id": 0, "group": 0, "page": 0, "stratum": 0},
		CrossTab: map[experiment.Group]map[string]int{
			experiment.GroupControl:   {},
			experiment.GroupTreatment: {},
		},
	}

	for _, o := range obs {
		if o.ID == "" {
			report.MissingValues["id"]++
		}
		if !o.Group.Valid() {
			report.MissingValues["group"]++
		}
		if o.Page == "" {
			report.MissingValues["page"]++
		}
		if o.Stratum == "" {
			report.MissingValues["stratum"]++
		}
	}

	clean, removed := experiment.Dedupe(obs)
	report.Rows = len(clean)
	report.Removed = removed

	for _, o := range clean {
		if !o.Group.Valid() {
			continue
		}
		report.CrossTab[o.Group][o.Page]++
	}

	report.ControlCount = groupTotal(report.CrossTab[experiment.GroupControl])
	report.TreatmentCount = groupTotal(report.CrossTab[experiment.GroupTreatment])

	if len(clean) == 0 || report.ControlCount == 0 {
		return nil, &EmptyGroupError{Group: experiment.GroupControl}
	}
	if report.TreatmentCount == 0 {
		return nil, &EmptyGroupError{Group: experiment.GroupTreatment}
	}

	// Misassignment: an arm exposed to the page associated with the other arm.
	report.ControlMisassignment = float64(report.CrossTab[experiment.GroupControl][opts.TreatmentPage]) /
		float64(report.ControlCount)
	report.TreatmentMisassignment = float64(report.CrossTab[experiment.GroupTreatment][opts.ControlPage]) /
		float64(report.TreatmentCount)
	report.HighMisassignment = report.ControlMisassignment > opts.MisassignmentThreshold ||
		report.TreatmentMisassignment > opts.MisassignmentThreshold

	minCount, maxCount := report.ControlCount, report.TreatmentCount
	if minCount > maxCount {
		minCount, maxCount = maxCount, minCount
	}
	report.SizeRatio = float64(minCount) / float64(maxCount)
	report.Unbalanced = report.SizeRatio < opts.BalanceThreshold

	return report, nil
}

func groupTotal(pages map[string]int) int {
	total := 0
	for _, n := range pages {
		total += n
	}
	return total
}
