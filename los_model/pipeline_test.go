package main

import (
	"fmt"
	"math/rand"
	"testing"
)

// writeSyntheticCohort writes a CSV cohort where illness severity drives
// extended stays, at roughly the requested positive prevalence.
func writeSyntheticCohort(t *testing.T, n int, seed int64) string {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	severities := []string{"Minor", "Moderate", "Major", "Extreme"}
	ages := []string{"0 to 17", "18 to 29", "30 to 49", "50 to 69", "70 or Older"}
	typologies := []string{"Medicare", "Medicaid", "Private Health Insurance", "Self-Pay"}

	lines := make([]string, n)
	for i := 0; i < n; i++ {
		sev := severities[rng.Intn(4)]
		los := 1 + rng.Intn(5)
		// Severe cases stay long; a fifth of the cohort ends up extended.
		if (sev == "Extreme" || sev == "Major") && rng.Float64() < 0.4 {
			los = 8 + rng.Intn(20)
		}
		charges := 2000 + rng.Float64()*30000
		lines[i] = dischargeRow(map[string]string{
			colSeverity:      sev,
			colAgeGroup:      ages[rng.Intn(len(ages))],
			colPayTypology1:  typologies[rng.Intn(len(typologies))],
			colLengthOfStay:  fmt.Sprintf("%d", los),
			colTotalCharges:  fmt.Sprintf("%.2f", charges),
			colTotalCosts:    fmt.Sprintf("%.2f", 0.35*charges+rng.Float64()*500),
		})
	}
	return writeDischargeCSV(t, lines...)
}

func TestPipelineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("end-to-end pipeline in -short mode")
	}

	path := writeSyntheticCohort(t, 1000, 99)
	records := readAll(t, path)
	if len(records) != 1000 {
		t.Fatalf("read %d records, want 1000", len(records))
	}

	prep, err := prepare(records, DefaultPrepareOptions())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(prep.Records) != 1000 {
		t.Fatalf("%d complete cases, want all 1000", len(prep.Records))
	}
	// Costs track charges tightly here: the screen must drop exactly one.
	if len(prep.Removed) != 1 {
		t.Fatalf("Removed = %v, want one cost column", prep.Removed)
	}

	ds := buildDataset(prep)
	train, test, err := splitStratified(ds, 0.7, 42)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	cvOpts := DefaultCVOptions()
	smallTreeGrid := []Candidate{
		{Params: map[string]float64{"cp": 0.001}, Build: func() Classifier { return newTree(0.001) }},
		{Params: map[string]float64{"cp": 0.051}, Build: func() Classifier { return newTree(0.051) }},
	}

	baseline, err := trainFamily(train, FamilyLogistic, baselineGrid(), ResampleNone, cvOpts)
	if err != nil {
		t.Fatalf("train baseline: %v", err)
	}
	tree, err := trainFamily(train, FamilyTree, smallTreeGrid, ResampleDownMajority, cvOpts)
	if err != nil {
		t.Fatalf("train tree: %v", err)
	}

	for _, art := range []*ModelArtifact{baseline, tree} {
		if art.CVAUC < 0.5 {
			t.Errorf("%s CV AUC = %f, want above chance with an informative severity signal", art.Family, art.CVAUC)
		}
		if art.CVAUC > 1 {
			t.Errorf("%s CV AUC = %f above 1", art.Family, art.CVAUC)
		}
	}

	best, table, err := selectBest([]*ModelArtifact{baseline, tree})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("comparison has %d rows, want 2", len(table))
	}

	eval, err := evaluate(best, test, 0.5)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	cm := eval.Confusion
	if cm.TP+cm.FP+cm.TN+cm.FN != test.Len() {
		t.Errorf("confusion total %d, want %d", cm.TP+cm.FP+cm.TN+cm.FN, test.Len())
	}
	if eval.AUC < 0.5 {
		t.Errorf("test AUC = %f, want above chance", eval.AUC)
	}
}

func TestPipelineDeterministicEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("end-to-end pipeline in -short mode")
	}

	path := writeSyntheticCohort(t, 400, 7)
	records := readAll(t, path)

	runOnce := func() (*ModelArtifact, *Evaluation) {
		prep, err := prepare(records, DefaultPrepareOptions())
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		ds := buildDataset(prep)
		train, test, err := splitStratified(ds, 0.7, 42)
		if err != nil {
			t.Fatalf("split: %v", err)
		}
		grid := []Candidate{
			{Params: map[string]float64{"cp": 0.011}, Build: func() Classifier { return newTree(0.011) }},
		}
		art, err := trainFamily(train, FamilyTree, grid, ResampleDownMajority, DefaultCVOptions())
		if err != nil {
			t.Fatalf("train: %v", err)
		}
		eval, err := evaluate(art, test, 0.5)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		return art, eval
	}

	a1, e1 := runOnce()
	a2, e2 := runOnce()
	if a1.CVAUC != a2.CVAUC {
		t.Errorf("CV AUC differs across identical runs: %f vs %f", a1.CVAUC, a2.CVAUC)
	}
	if e1.Confusion != e2.Confusion {
		t.Errorf("confusion differs across identical runs: %+v vs %+v", e1.Confusion, e2.Confusion)
	}
}
