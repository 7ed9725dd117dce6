package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// DischargeReader streams a delimited discharge file and emits
// DischargeRecord values one CSV row at a time.
type DischargeReader struct {
	file   *os.File
	csv    *csv.Reader
	rowNum int64
	colIdx map[string]int // normalized column name → index
}

func NewDischargeReader(filepath string) (*DischargeReader, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath, err)
	}

	bufReader := bufio.NewReaderSize(file, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	r := &DischargeReader{
		file:   file,
		csv:    reader,
		colIdx: make(map[string]int),
	}

	if err := r.readHeaders(); err != nil {
		file.Close()
		return nil, err
	}

	return r, nil
}

// normalizeColumn lowercases a header and collapses runs of spaces and
// punctuation into single underscores:
// "APR Severity of Illness Description" → "apr_severity_of_illness_description".
func normalizeColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	parts := strings.FieldsFunc(h, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(parts, "_")
}

func (r *DischargeReader) readHeaders() error {
	headerRow, err := r.csv.Read()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	r.rowNum++
	if len(headerRow) > 0 {
		headerRow[0] = strings.TrimPrefix(headerRow[0], "\uFEFF")
	}

	for i, h := range headerRow {
		key := normalizeColumn(h)
		if key == "" {
			continue
		}
		if _, dup := r.colIdx[key]; !dup {
			r.colIdx[key] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := r.colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Next reads one record. Returns io.EOF when the file is exhausted.
func (r *DischargeReader) Next() (DischargeRecord, error) {
	row, err := r.csv.Read()
	if err == io.EOF {
		return DischargeRecord{}, io.EOF
	}
	if err != nil {
		return DischargeRecord{}, fmt.Errorf("row %d: %w", r.rowNum+1, err)
	}
	r.rowNum++
	return r.parseRow(row)
}

// ReadAll drains the reader into a slice.
func (r *DischargeReader) ReadAll() ([]DischargeRecord, error) {
	var records []DischargeRecord
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

func (r *DischargeReader) Close() error {
	return r.file.Close()
}

func (r *DischargeReader) field(row []string, col string) string {
	idx := r.colIdx[col]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (r *DischargeReader) parseRow(row []string) (DischargeRecord, error) {
	rec := DischargeRecord{
		AgeGroup:      r.field(row, colAgeGroup),
		Gender:        r.field(row, colGender),
		Race:          r.field(row, colRace),
		Ethnicity:     r.field(row, colEthnicity),
		AdmissionType: r.field(row, colAdmissionType),
		Severity:      r.field(row, colSeverity),
		MortalityRisk: r.field(row, colMortalityRisk),
		MedSurg:       r.field(row, colMedSurg),
	}

	closed := []struct {
		col    string
		val    string
		levels map[string]bool
	}{
		{colAgeGroup, rec.AgeGroup, ageGroupLevels},
		{colGender, rec.Gender, genderLevels},
		{colAdmissionType, rec.AdmissionType, admissionTypeLevels},
		{colSeverity, rec.Severity, severityLevels},
		{colMortalityRisk, rec.MortalityRisk, mortalityLevels},
		{colMedSurg, rec.MedSurg, medSurgLevels},
	}
	for _, c := range closed {
		if c.val != "" && !c.levels[c.val] {
			return DischargeRecord{}, fmt.Errorf("row %d: unknown %s value %q", r.rowNum, c.col, c.val)
		}
	}

	rec.PayTypology1 = optString(r.field(row, colPayTypology1))
	rec.PayTypology2 = optString(r.field(row, colPayTypology2))
	rec.PayTypology3 = optString(r.field(row, colPayTypology3))

	var err error
	rec.LengthOfStay, err = parseLengthOfStay(r.field(row, colLengthOfStay))
	if err != nil {
		return DischargeRecord{}, fmt.Errorf("row %d: %s: %w", r.rowNum, colLengthOfStay, err)
	}
	rec.TotalCharges, err = parseAmount(r.field(row, colTotalCharges))
	if err != nil {
		return DischargeRecord{}, fmt.Errorf("row %d: %s: %w", r.rowNum, colTotalCharges, err)
	}
	rec.TotalCosts, err = parseAmount(r.field(row, colTotalCosts))
	if err != nil {
		return DischargeRecord{}, fmt.Errorf("row %d: %s: %w", r.rowNum, colTotalCosts, err)
	}

	return rec, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseAmount parses a dollar amount, tolerating "$" and thousands
// separators. Empty → NaN (missing).
func parseAmount(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}

// parseLengthOfStay parses the stay duration in days. The source data
// right-censors long stays as "120 +", which is taken as 120.
func parseLengthOfStay(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "+"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse length of stay %q: %w", s, err)
	}
	return v, nil
}
