package main

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// buildDataset encodes prepared records into a design matrix: one-hot
// dummies for each categorical field (first sorted level is the reference
// and gets no column), the six insurance indicators, and whichever cost
// columns survived the correlation screen. Column order is deterministic
// given the records.
func buildDataset(p *PreparedData) *Dataset {
	type catField struct {
		name string
		get  func(PreparedRecord) string
	}
	cats := []catField{
		{colAgeGroup, func(r PreparedRecord) string { return r.AgeGroup }},
		{colGender, func(r PreparedRecord) string { return r.Gender }},
		{colRace, func(r PreparedRecord) string { return r.Race }},
		{colEthnicity, func(r PreparedRecord) string { return r.Ethnicity }},
		{colAdmissionType, func(r PreparedRecord) string { return r.AdmissionType }},
		{colSeverity, func(r PreparedRecord) string { return r.Severity }},
		{colMortalityRisk, func(r PreparedRecord) string { return r.MortalityRisk }},
		{colMedSurg, func(r PreparedRecord) string { return r.MedSurg }},
	}

	// Sorted distinct levels per field; the first is the reference level.
	dummies := make([][]string, len(cats))
	for i, c := range cats {
		seen := map[string]bool{}
		for _, r := range p.Records {
			seen[c.get(r)] = true
		}
		levels := make([]string, 0, len(seen))
		for l := range seen {
			levels = append(levels, l)
		}
		sort.Strings(levels)
		if len(levels) > 1 {
			dummies[i] = levels[1:]
		}
	}

	type indField struct {
		name string
		get  func(PreparedRecord) bool
	}
	inds := []indField{
		{"medicare", func(r PreparedRecord) bool { return r.Medicare }},
		{"medicaid", func(r PreparedRecord) bool { return r.Medicaid }},
		{"private", func(r PreparedRecord) bool { return r.Private }},
		{"blue_cross", func(r PreparedRecord) bool { return r.BlueCross }},
		{"self_pay", func(r PreparedRecord) bool { return r.SelfPay }},
		{"government", func(r PreparedRecord) bool { return r.Government }},
	}

	removed := map[string]bool{}
	for _, name := range p.Removed {
		removed[name] = true
	}
	type numField struct {
		name string
		get  func(PreparedRecord) float64
	}
	var nums []numField
	if !removed[colTotalCharges] {
		nums = append(nums, numField{colTotalCharges, func(r PreparedRecord) float64 { return r.TotalCharges }})
	}
	if !removed[colTotalCosts] {
		nums = append(nums, numField{colTotalCosts, func(r PreparedRecord) float64 { return r.TotalCosts }})
	}

	var names []string
	for i, c := range cats {
		for _, l := range dummies[i] {
			names = append(names, c.name+"="+l)
		}
	}
	for _, f := range inds {
		names = append(names, f.name)
	}
	for _, f := range nums {
		names = append(names, f.name)
	}

	X := make([][]float64, len(p.Records))
	Y := make([]int, len(p.Records))
	for ri, r := range p.Records {
		row := make([]float64, 0, len(names))
		for i, c := range cats {
			v := c.get(r)
			for _, l := range dummies[i] {
				if v == l {
					row = append(row, 1)
				} else {
					row = append(row, 0)
				}
			}
		}
		for _, f := range inds {
			if f.get(r) {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}
		for _, f := range nums {
			row = append(row, f.get(r))
		}
		X[ri] = row
		if r.ExtendedStay {
			Y[ri] = 1
		}
	}

	return &Dataset{X: X, Y: Y, Names: names}
}

// standardizer centers and scales columns using statistics estimated from
// the data it was fitted on. Constant columns are centered only.
type standardizer struct {
	mean []float64
	std  []float64
}

func fitStandardizer(X [][]float64) *standardizer {
	if len(X) == 0 {
		return &standardizer{}
	}
	d := len(X[0])
	s := &standardizer{mean: make([]float64, d), std: make([]float64, d)}
	col := make([]float64, len(X))
	for j := 0; j < d; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		s.mean[j] = stat.Mean(col, nil)
		sd := stat.StdDev(col, nil)
		if sd == 0 || sd != sd {
			sd = 1
		}
		s.std[j] = sd
	}
	return s
}

// transform returns a new matrix; the input rows are never modified.
func (s *standardizer) transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.mean[j]) / s.std[j]
		}
		out[i] = r
	}
	return out
}
