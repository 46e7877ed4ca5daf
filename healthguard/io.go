package healthguard

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PatientRecord is one row of a batch input file.
type PatientRecord struct {
	Row  int
	Name string
	Form Form
}

var nameColumnCandidates = []string{"name", "patient_name", "patient name", "patient"}

// ParsePatientRecords reads a CSV or TSV file with a header row into forms for schema.
// Columns are matched by feature name or label, case-insensitively. Every feature must
// have a column; extra columns are ignored.
func ParsePatientRecords(path string, schema *Schema) ([]PatientRecord, error) {
	comma := ','
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
	case ".tsv", ".tab":
		comma = '\t'
	default:
		return nil, fmt.Errorf("unsupported batch file %s: expected .csv or .tsv", filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	columns := make([]int, schema.Len())
	for i, feature := range schema.Features {
		idx := findColumn(header, []string{feature.Name, feature.Label})
		if idx < 0 {
			return nil, invalidInput("%s: no column for feature %q", filepath.Base(path), feature.Name)
		}
		columns[i] = idx
	}
	nameIdx := findColumn(header, nameColumnCandidates)

	records := make([]PatientRecord, 0, len(rows)-1)
	for r, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := PatientRecord{Row: r + 2, Form: make(Form, schema.Len())}
		for i, feature := range schema.Features {
			if idx := columns[i]; idx < len(row) {
				rec.Form[feature.Name] = cleanCell(row[idx])
			}
		}
		if nameIdx >= 0 && nameIdx < len(row) {
			rec.Name = cleanCell(row[nameIdx])
		}
		records = append(records, rec)
	}
	return records, nil
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		want := normalizeKey(cand)
		for i, col := range header {
			if normalizeKey(col) == want {
				return i
			}
		}
	}
	return -1
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}
