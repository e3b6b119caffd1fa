// Package report renders engine results for the terminal. It is presentation
// glue only: nothing in here computes statistics.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/splitcheck/splitcheck/internal/analyze"
	"github.com/splitcheck/splitcheck/internal/experiment"
	"github.com/splitcheck/splitcheck/internal/stats"
)

func WriteValidation(w io.Writer, r *analyze.ValidationReport) {
	fmt.Fprintln(w, "DATA QUALITY")
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "Rows: %d (%d after removing %d duplicate ids)\n", r.TotalRows, r.Rows, r.Removed)

	attrs := make([]string, 0, len(r.MissingValues))
	for attr := range r.MissingValues {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	for _, attr := range attrs {
		if r.MissingValues[attr] > 0 {
			fmt.Fprintf(w, "Missing %s: %d\n", attr, r.MissingValues[attr])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "GROUP             PAGE              COUNT")
	for _, g := range []experiment.Group{experiment.GroupControl, experiment.GroupTreatment} {
		pages := make([]string, 0, len(r.CrossTab[g]))
		for page := range r.CrossTab[g] {
			pages = append(pages, page)
		}
		sort.Strings(pages)
		for _, page := range pages {
			fmt.Fprintf(w, "%-16s  %-16s  %d\n", g, page, r.CrossTab[g][page])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Control misassignment:   %.2f%%\n", r.ControlMisassignment*100)
	fmt.Fprintf(w, "Treatment misassignment: %.2f%%\n", r.TreatmentMisassignment*100)
	if r.HighMisassignment {
		fmt.Fprintln(w, "WARNING: high misassignment rate; results may be invalid")
	}
	fmt.Fprintf(w, "Group sizes: control=%d treatment=%d (ratio %.3f)\n",
		r.ControlCount, r.TreatmentCount, r.SizeRatio)
	if r.Unbalanced {
		fmt.Fprintln(w, "WARNING: unbalanced group sizes")
	}
	fmt.Fprintln(w)
}

func WritePower(w io.Writer, p stats.PowerReport) {
	fmt.Fprintln(w, "POWER")
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "Control rate:    %.4f\n", p.ControlRate)
	fmt.Fprintf(w, "Treatment rate:  %.4f\n", p.TreatmentRate)
	fmt.Fprintf(w, "Effect size (h): %.4f\n", p.EffectSize)
	fmt.Fprintf(w, "Avg group size:  %.0f\n", p.SampleSize)
	fmt.Fprintf(w, "Achieved power:  %.3f (alpha %.3f, two-sided)\n", p.Power, p.Alpha)
	if p.Power < 0.8 {
		fmt.Fprintln(w, "WARNING: power below the conventional 0.8 threshold")
	}
	fmt.Fprintln(w)
}

func WriteResults(w io.Writer, rs *analyze.ResultSet) {
	fmt.Fprintln(w, "RESULTS")
	fmt.Fprintln(w, strings.Repeat("─", 78))
	fmt.Fprintf(w, "%-12s  %-8s  %-8s  %-8s  %-8s  %-8s  %-18s  %s\n",
		"SCOPE", "CONTROL", "TREAT", "EFFECT", "Z", "P", "CI", "SIG")

	writeRow(w, "overall", rs.Overall)

	names := make([]string, 0, len(rs.Strata))
	for name := range rs.Strata {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		writeRow(w, name, rs.Strata[name])
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Strata tested: %d, Bonferroni-adjusted alpha: %.4f\n", len(rs.Strata), rs.AdjustedAlpha)
	fmt.Fprintf(w, "Overall: %s at alpha %.3f (%s relative change)\n",
		verdict(rs.Overall.Significant), rs.Alpha, formatRelative(rs.Overall.RelativeEffect))
}

func writeRow(w io.Writer, scope string, r stats.TestResult) {
	if len(scope) > 12 {
		scope = scope[:9] + "..."
	}
	fmt.Fprintf(w, "%-12s  %-8.4f  %-8.4f  %+-8.4f  %-8.3f  %-8.4f  [%+.4f, %+.4f]  %s\n",
		scope, r.ControlRate, r.TreatmentRate, r.Effect, r.ZStat, r.PValue,
		r.CILow, r.CIHigh, verdict(r.Significant))
}

func verdict(significant bool) string {
	if significant {
		return "significant"
	}
	return "not significant"
}

func formatRelative(rel stats.NaNFloat) string {
	if math.IsNaN(float64(rel)) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", float64(rel))
}
