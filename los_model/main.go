package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"
)

type pipelineConfig struct {
	inputFile string
	outDir    string
	seed      int64
	ratio     float64
	folds     int
	cutoff    float64
	stayDays  float64
	threshold float64
	workers   int
}

func main() {
	cfg := pipelineConfig{}
	flag.StringVar(&cfg.inputFile, "file", "", "Input discharge CSV file")
	flag.StringVar(&cfg.outDir, "out", "reports", "Output directory for report artifacts")
	flag.Int64Var(&cfg.seed, "seed", 42, "Random seed (split, folds, down-sampling)")
	flag.Float64Var(&cfg.ratio, "ratio", 0.7, "Training proportion of the stratified split")
	flag.IntVar(&cfg.folds, "folds", 10, "Cross-validation fold count")
	flag.Float64Var(&cfg.cutoff, "cutoff", 0.4, "Correlation screen cutoff")
	flag.Float64Var(&cfg.stayDays, "los-days", 7, "Extended-stay threshold in days")
	flag.Float64Var(&cfg.threshold, "threshold", 0.5, "Classification probability threshold")
	flag.IntVar(&cfg.workers, "workers", 0, "Grid search workers (0 = all CPUs)")
	flag.Parse()

	if cfg.inputFile == "" {
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  los_model -file discharges.csv [-out reports] [-seed N] [-ratio 0.7] [-folds 10]\n")
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg pipelineConfig) error {
	start := time.Now()

	reader, err := NewDischargeReader(cfg.inputFile)
	if err != nil {
		return err
	}
	records, err := reader.ReadAll()
	reader.Close()
	if err != nil {
		return err
	}
	fmt.Printf("Read %d records from %s\n", len(records), cfg.inputFile)

	prep, err := prepare(records, PrepareOptions{StayDays: cfg.stayDays, CorrCutoff: cfg.cutoff})
	if err != nil {
		return err
	}
	fmt.Printf("Prepared %d complete cases (%d dropped)\n", len(prep.Records), prep.Dropped)
	for _, f := range prep.Removed {
		fmt.Printf("Correlation screen removed: %s\n", f)
	}

	ds := buildDataset(prep)
	pos := 0
	for _, y := range ds.Y {
		pos += y
	}
	fmt.Printf("Design matrix: %d rows x %d features, %.1f%% extended stays\n",
		ds.Len(), len(ds.Names), 100*float64(pos)/float64(ds.Len()))

	train, test, err := splitStratified(ds, cfg.ratio, cfg.seed)
	if err != nil {
		return err
	}
	fmt.Printf("Split: %d training / %d testing\n", train.Len(), test.Len())

	cvOpts := CVOptions{
		Folds:     cfg.folds,
		Seed:      cfg.seed,
		Threshold: cfg.threshold,
		Workers:   cfg.workers,
	}

	families := []struct {
		family Family
		grid   []Candidate
		policy ResamplePolicy
	}{
		{FamilyLogistic, baselineGrid(), ResampleNone},
		{FamilyElasticNet, elasticNetGrid(), ResampleDownMajority},
		{FamilyTree, treeGrid(), ResampleDownMajority},
	}

	var arts []*ModelArtifact
	for _, f := range families {
		t0 := time.Now()
		art, err := trainFamily(train, f.family, f.grid, f.policy, cvOpts)
		if err != nil {
			return err
		}
		fmt.Printf("Trained %s in %v: best %s\n",
			f.family, time.Since(t0).Round(time.Millisecond), paramsString(art.Params))
		arts = append(arts, art)
	}

	best, table, err := selectBest(arts)
	if err != nil {
		return err
	}

	fmt.Printf("\n%-12s %-28s %8s %8s %8s\n", "family", "config", "auc", "sens", "spec")
	for _, row := range table {
		marker := " "
		if row.Selected {
			marker = "*"
		}
		fmt.Printf("%-12s %-28s %8s %8s %8s %s\n",
			row.Family, paramsString(row.Params),
			formatMetric(row.AUC), formatMetric(row.Sensitivity), formatMetric(row.Specificity), marker)
	}

	eval, err := evaluate(best, test, cfg.threshold)
	if err != nil {
		return err
	}
	cm := eval.Confusion
	fmt.Printf("\nTest evaluation of %s (%s):\n", best.Family, paramsString(best.Params))
	fmt.Printf("  confusion: TP=%d FP=%d TN=%d FN=%d\n", cm.TP, cm.FP, cm.TN, cm.FN)
	fmt.Printf("  accuracy=%s sensitivity=%s specificity=%s ppv=%s npv=%s auc=%s\n",
		formatMetric(eval.Accuracy), formatMetric(eval.Sensitivity), formatMetric(eval.Specificity),
		formatMetric(eval.PPV), formatMetric(eval.NPV), formatMetric(eval.AUC))

	if err := writeReports(cfg.outDir, arts, table, best, eval, ds.Names); err != nil {
		return err
	}
	fmt.Printf("\nReports written to %s in %v\n", cfg.outDir, time.Since(start).Round(time.Millisecond))
	return nil
}

// formatMetric prints undefined metrics as such instead of a fake zero.
func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "undef"
	}
	return fmt.Sprintf("%.4f", v)
}
