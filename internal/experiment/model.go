package experiment

import (
	"math"
	"sort"
)

// Group is the arm an observation was assigned to.
type Group string

const (
	GroupControl   Group = "control"
	GroupTreatment Group = "treatment"
)

// Valid reports whether the group is one of the two experiment arms.
func (g Group) Valid() bool {
	return g == GroupControl || g == GroupTreatment
}

// Observation is one experimental unit after the two source files have been
// joined by id. The collection is treated as immutable once deduplicated.
type Observation struct {
	ID        string
	Group     Group
	Page      string // exposure actually shown, used only for integrity checks
	Converted bool
	Stratum   string // e.g. country; "" means missing
}

// GroupSample is the (trials, successes) view of one (scope, group) pair.
type GroupSample struct {
	Trials    int
	Successes int
}

// Rate returns successes/trials, or NaN when the sample is empty.
func (s GroupSample) Rate() float64 {
	if s.Trials == 0 {
		return math.NaN()
	}
	return float64(s.Successes) / float64(s.Trials)
}

// Dedupe removes observations with repeated ids, keeping the first-seen
// representative. It returns a new slice and the number of rows removed;
// the input is never modified.
func Dedupe(obs []Observation) ([]Observation, int) {
	seen := make(map[string]struct{}, len(obs))
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	return out, len(obs) - len(out)
}

// Sample tallies trials and successes for one group over the whole collection.
func Sample(obs []Observation, g Group) GroupSample {
	var s GroupSample
	for _, o := range obs {
		if o.Group != g {
			continue
		}
		s.Trials++
		if o.Converted {
			s.Successes++
		}
	}
	return s
}

// StratumSample tallies trials and successes for one group within a stratum.
func StratumSample(obs []Observation, stratum string, g Group) GroupSample {
	var s GroupSample
	for _, o := range obs {
		if o.Stratum != stratum || o.Group != g {
			continue
		}
		s.Trials++
		if o.Converted {
			s.Successes++
		}
	}
	return s
}

// Strata returns the distinct non-empty stratum labels, sorted. Observations
// with a missing stratum belong to no stratum.
func Strata(obs []Observation) []string {
	set := make(map[string]struct{})
	for _, o := range obs {
		if o.Stratum == "" {
			continue
		}
		set[o.Stratum] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
