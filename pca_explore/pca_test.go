package main

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCohortCSV(t *testing.T, lines ...string) string {
	t.Helper()
	header := "Age Group,APR Severity of Illness Description,APR Risk of Mortality,Total Charges,Total Costs"
	path := filepath.Join(t.TempDir(), "cohort.csv")
	content := header + "\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write CSV: %v", err)
	}
	return path
}

func TestLoadOrdinalRows(t *testing.T) {
	path := writeCohortCSV(t,
		`50 to 69,Extreme,Major,"$12,000.50",4000`,
		"0 to 17,Minor,Minor,100,50",
		"30 to 49,Unknown,Minor,100,50", // unmapped level: skipped
		"18 to 29,Moderate,Major,,50",   // missing amount: skipped
	)
	rows, err := loadOrdinalRows(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 complete", len(rows))
	}
	want := []float64{4, 4, 3, 12000.50, 4000}
	for j, v := range want {
		if math.Abs(rows[0][j]-v) > 0.01 {
			t.Errorf("row 0 col %d = %f, want %f", j, rows[0][j], v)
		}
	}
}

func TestLoadOrdinalRowsMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.csv")
	if err := os.WriteFile(path, []byte("Age Group\n50 to 69\n"), 0644); err != nil {
		t.Fatalf("write CSV: %v", err)
	}
	if _, err := loadOrdinalRows(path); err == nil {
		t.Fatal("expected missing-column error, got nil")
	}
}

func TestPrincipalComponentsDominantDirection(t *testing.T) {
	// Columns 3 and 4 move together along one latent factor; the first
	// component should absorb well over half the variance.
	rng := rand.New(rand.NewSource(5))
	rows := make([][]float64, 300)
	for i := range rows {
		f := rng.NormFloat64()
		rows[i] = []float64{
			1 + float64(i%5),
			1 + float64(i%4),
			1 + float64((i+1)%4),
			10000 + 5000*f + 100*rng.NormFloat64(),
			3500 + 1750*f + 50*rng.NormFloat64(),
		}
	}

	res, err := principalComponents(rows)
	if err != nil {
		t.Fatalf("pca: %v", err)
	}
	if len(res.Proportions) != 5 {
		t.Fatalf("got %d components, want 5", len(res.Proportions))
	}

	total := 0.0
	for i, p := range res.Proportions {
		if p < 0 || p > 1 {
			t.Errorf("proportion[%d] = %f outside [0,1]", i, p)
		}
		if i > 0 && res.Proportions[i] > res.Proportions[i-1]+1e-12 {
			t.Errorf("proportions not descending at %d", i)
		}
		total += p
	}
	if math.Abs(total-1) > 1e-9 {
		t.Errorf("proportions sum to %f, want 1", total)
	}

	if res.Proportions[0] < 0.35 {
		t.Errorf("first component explains %f, want a dominant share", res.Proportions[0])
	}

	// The correlated cost columns load together on the first component.
	l3 := res.Loadings.At(3, 0)
	l4 := res.Loadings.At(4, 0)
	if l3*l4 <= 0 {
		t.Errorf("cost loadings %f and %f have opposite signs", l3, l4)
	}
}

func TestPrincipalComponentsTooFewRows(t *testing.T) {
	rows := [][]float64{{1, 2, 3, 4, 5}, {2, 3, 4, 5, 6}}
	if _, err := principalComponents(rows); err == nil {
		t.Fatal("expected error for too few rows")
	}
}

func TestPlotScree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scree.png")
	if err := plotScree(path, []float64{0.6, 0.2, 0.1, 0.06, 0.04}); err != nil {
		t.Fatalf("plotScree: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("scree plot missing or empty: %v", err)
	}
}

func TestOrdinalEncodingScales(t *testing.T) {
	for level, want := range map[string]float64{"Minor": 1, "Moderate": 2, "Major": 3, "Extreme": 4} {
		if got := severityOrder[level]; got != want {
			t.Errorf("severityOrder[%s] = %f, want %f", level, got, want)
		}
	}
	if len(ageOrder) != 5 {
		t.Errorf("ageOrder has %d levels, want 5", len(ageOrder))
	}
}
