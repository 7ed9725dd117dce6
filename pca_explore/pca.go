package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var ordinalFeatureNames = []string{
	"age_group",
	"severity",
	"mortality_risk",
	"total_charges",
	"total_costs",
}

// Ordinal encodings of the ordered categorical scales.
var (
	ageOrder = map[string]float64{
		"0 to 17": 1, "18 to 29": 2, "30 to 49": 3, "50 to 69": 4, "70 or Older": 5,
	}
	severityOrder = map[string]float64{
		"Minor": 1, "Moderate": 2, "Major": 3, "Extreme": 4,
	}
)

// loadOrdinalRows reads the discharge file and produces one numeric row
// per complete record: ordinal age / severity / mortality risk plus the
// two cost columns.
func loadOrdinalRows(filepath string) ([][]float64, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath, err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReaderSize(file, 256*1024))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	colIdx := map[string]int{}
	for i, h := range header {
		key := strings.Join(strings.FieldsFunc(strings.ToLower(strings.TrimSpace(h)), func(r rune) bool {
			return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
		}), "_")
		if _, dup := colIdx[key]; !dup {
			colIdx[key] = i
		}
	}
	needed := []string{
		"age_group", "apr_severity_of_illness_description",
		"apr_risk_of_mortality", "total_charges", "total_costs",
	}
	for _, col := range needed {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing required column %s", col)
		}
	}

	field := func(row []string, col string) string {
		idx := colIdx[col]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows [][]float64
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		age, okAge := ageOrder[field(row, "age_group")]
		sev, okSev := severityOrder[field(row, "apr_severity_of_illness_description")]
		risk, okRisk := severityOrder[field(row, "apr_risk_of_mortality")]
		charges, err1 := parseAmount(field(row, "total_charges"))
		costs, err2 := parseAmount(field(row, "total_costs"))
		if !okAge || !okSev || !okRisk || err1 != nil || err2 != nil {
			continue // complete cases only
		}
		rows = append(rows, []float64{age, sev, risk, charges, costs})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no complete rows in %s", filepath)
	}
	return rows, nil
}

func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	return strconv.ParseFloat(s, 64)
}

// PCAResult holds per-component variance proportions and the loading
// matrix (features x components).
type PCAResult struct {
	Proportions []float64
	Loadings    *mat.Dense
}

// principalComponents standardizes the columns and extracts principal
// components.
func principalComponents(rows [][]float64) (*PCAResult, error) {
	n, d := len(rows), len(rows[0])
	if n <= d {
		return nil, fmt.Errorf("pca: need more than %d rows, have %d", d, n)
	}

	col := make([]float64, n)
	means := make([]float64, d)
	stds := make([]float64, d)
	for j := 0; j < d; j++ {
		for i := range rows {
			col[i] = rows[i][j]
		}
		means[j] = stat.Mean(col, nil)
		stds[j] = stat.StdDev(col, nil)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	m := mat.NewDense(n, d, nil)
	for i, row := range rows {
		for j, v := range row {
			m.Set(i, j, (v-means[j])/stds[j])
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(m, nil); !ok {
		return nil, fmt.Errorf("pca: decomposition failed")
	}

	vars := pc.VarsTo(nil)
	total := 0.0
	for _, v := range vars {
		total += v
	}
	props := make([]float64, len(vars))
	for i, v := range vars {
		props[i] = v / total
	}

	var loadings mat.Dense
	pc.VectorsTo(&loadings)

	return &PCAResult{Proportions: props, Loadings: &loadings}, nil
}

// plotScree renders explained-variance proportion per component.
func plotScree(path string, props []float64) error {
	p := plot.New()
	p.Title.Text = "Scree plot"
	p.X.Label.Text = "Component"
	p.Y.Label.Text = "Proportion of variance"
	p.Y.Min = 0

	pts := make(plotter.XYs, len(props))
	for i, v := range props {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	if err := plotutil.AddLinePoints(p, "Variance", pts); err != nil {
		return fmt.Errorf("plot scree: %w", err)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
