package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func readParquet[T any](t *testing.T, path string) []T {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[T](f)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		t.Fatalf("read parquet: %v", err)
	}
	return rows[:n]
}

func TestParamsString(t *testing.T) {
	cases := []struct {
		params map[string]float64
		want   string
	}{
		{nil, "default"},
		{map[string]float64{}, "default"},
		{map[string]float64{"cp": 0.011}, "cp=0.011"},
		{map[string]float64{"lambda": 0.01, "alpha": 0.3}, "alpha=0.3,lambda=0.01"},
	}
	for _, c := range cases {
		if got := paramsString(c.params); got != c.want {
			t.Errorf("paramsString(%v) = %q, want %q", c.params, got, c.want)
		}
	}
}

// trainedTreeArtifact runs a small real grid so reports carry genuine CV
// structure.
func trainedTreeArtifact(t *testing.T) (*Dataset, *ModelArtifact) {
	t.Helper()
	ds := makeDataset(t, 250, 0.3, 30)
	grid := []Candidate{
		{Params: map[string]float64{"cp": 0.01}, Build: func() Classifier { return newTree(0.01) }},
		{Params: map[string]float64{"cp": 0.1}, Build: func() Classifier { return newTree(0.1) }},
	}
	art, err := trainFamily(ds, FamilyTree, grid, ResampleDownMajority, DefaultCVOptions())
	if err != nil {
		t.Fatalf("trainFamily: %v", err)
	}
	return ds, art
}

func TestWriteReports(t *testing.T) {
	ds, art := trainedTreeArtifact(t)
	arts := []*ModelArtifact{art}

	best, table, err := selectBest(arts)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	eval, err := evaluate(best, ds, 0.5)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "reports")
	if err := writeReports(dir, arts, table, best, eval, ds.Names); err != nil {
		t.Fatalf("writeReports: %v", err)
	}

	folds := readParquet[FoldRow](t, filepath.Join(dir, "cv_folds.parquet"))
	if len(folds) != 2*10 {
		t.Errorf("cv_folds has %d rows, want 20 (2 configs x 10 folds)", len(folds))
	}
	for _, r := range folds {
		if r.Family != string(FamilyTree) {
			t.Errorf("fold row family = %q", r.Family)
		}
		if r.AUC < 0 || r.AUC > 1 {
			t.Errorf("fold AUC %f outside [0,1]", r.AUC)
		}
	}

	configs := readParquet[ConfigRow](t, filepath.Join(dir, "cv_configs.parquet"))
	if len(configs) != 2 {
		t.Errorf("cv_configs has %d rows, want 2", len(configs))
	}

	comp := readParquet[ComparisonReportRow](t, filepath.Join(dir, "comparison.parquet"))
	if len(comp) != 1 {
		t.Fatalf("comparison has %d rows, want 1", len(comp))
	}
	if !comp[0].Selected {
		t.Error("comparison row not marked selected")
	}
	if comp[0].Config != paramsString(best.Params) {
		t.Errorf("comparison config = %q, want %q", comp[0].Config, paramsString(best.Params))
	}

	evals := readParquet[EvaluationRow](t, filepath.Join(dir, "evaluation.parquet"))
	if len(evals) != 1 {
		t.Fatalf("evaluation has %d rows, want 1", len(evals))
	}
	total := evals[0].TP + evals[0].FP + evals[0].TN + evals[0].FN
	if total != int64(ds.Len()) {
		t.Errorf("confusion total %d, want %d", total, ds.Len())
	}

	rocRows := readParquet[ROCRow](t, filepath.Join(dir, "roc.parquet"))
	if len(rocRows) != len(eval.ROC) {
		t.Errorf("roc has %d rows, want %d", len(rocRows), len(eval.ROC))
	}

	// Winner is a tree: the importance ranking must exist and be sorted.
	imps := readParquet[ImportanceRow](t, filepath.Join(dir, "importance.parquet"))
	if len(imps) == 0 {
		t.Fatal("importance.parquet is empty for a tree winner")
	}
	for i := 1; i < len(imps); i++ {
		if imps[i].Importance > imps[i-1].Importance {
			t.Errorf("importance not descending at %d", i)
		}
	}

	if fi, err := os.Stat(filepath.Join(dir, "roc.png")); err != nil || fi.Size() == 0 {
		t.Errorf("roc.png missing or empty: %v", err)
	}
}
