package experiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column names accepted in the assignment file. The strata file needs "id"
// plus exactly one label column (conventionally "country").
const (
	colID        = "id"
	colGroup     = "con_treat"
	colGroupAlt  = "group"
	colPage      = "page"
	colConverted = "converted"
)

// LoadCSV reads the assignment and strata files and joins them by id with
// inner-join semantics: ids present in only one file are silently excluded.
// Duplicate ids survive the join; deduplication is the caller's concern.
func LoadCSV(assignmentsPath, strataPath string) ([]Observation, error) {
	strata, err := loadStrata(strataPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(assignmentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open assignments file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read assignments header: %w", err)
	}
	cols := indexColumns(header)

	idIdx, ok := cols[colID]
	if !ok {
		return nil, fmt.Errorf("assignments file has no %q column", colID)
	}
	groupIdx, ok := cols[colGroup]
	if !ok {
		groupIdx, ok = cols[colGroupAlt]
	}
	if !ok {
		return nil, fmt.Errorf("assignments file has no %q column", colGroup)
	}
	pageIdx, hasPage := cols[colPage]
	convIdx, ok := cols[colConverted]
	if !ok {
		return nil, fmt.Errorf("assignments file has no %q column", colConverted)
	}

	var obs []Observation
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read assignments row: %w", err)
		}

		id := strings.TrimSpace(field(rec, idIdx))
		stratum, joined := strata[id]
		if id == "" || !joined {
			continue
		}

		o := Observation{
			ID:      id,
			Group:   Group(strings.ToLower(strings.TrimSpace(field(rec, groupIdx)))),
			Stratum: stratum,
		}
		if hasPage {
			o.Page = strings.ToLower(strings.TrimSpace(field(rec, pageIdx)))
		}
		switch strings.ToLower(strings.TrimSpace(field(rec, convIdx))) {
		case "1", "true", "t", "yes":
			o.Converted = true
		default:
			o.Converted = false
		}
		obs = append(obs, o)
	}
	return obs, nil
}

// loadStrata maps id -> stratum label. The label may be empty (missing).
// On duplicate ids the first row wins, mirroring first-seen deduplication.
func loadStrata(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open strata file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read strata header: %w", err)
	}
	cols := indexColumns(header)

	idIdx, ok := cols[colID]
	if !ok {
		return nil, fmt.Errorf("strata file has no %q column", colID)
	}
	labelIdx := -1
	for name, idx := range cols {
		if name != colID {
			labelIdx = idx
			break
		}
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("strata file has no label column")
	}

	strata := make(map[string]string)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read strata row: %w", err)
		}
		id := strings.TrimSpace(field(rec, idIdx))
		if id == "" {
			continue
		}
		if _, dup := strata[id]; dup {
			continue
		}
		strata[id] = strings.TrimSpace(field(rec, labelIdx))
	}
	return strata, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}
