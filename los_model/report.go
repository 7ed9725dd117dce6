package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Parquet report rows. NaN metric values round-trip as NaN doubles.

type FoldRow struct {
	Family      string  `parquet:"family"`
	Config      string  `parquet:"config"`
	Fold        int32   `parquet:"fold"`
	AUC         float64 `parquet:"auc"`
	Sensitivity float64 `parquet:"sensitivity"`
	Specificity float64 `parquet:"specificity"`
}

type ConfigRow struct {
	Family      string  `parquet:"family"`
	Config      string  `parquet:"config"`
	MeanAUC     float64 `parquet:"mean_auc"`
	MeanSens    float64 `parquet:"mean_sensitivity"`
	MeanSpec    float64 `parquet:"mean_specificity"`
	Failed      bool    `parquet:"failed"`
	FailMessage string  `parquet:"fail_message"`
}

type ComparisonReportRow struct {
	Family      string  `parquet:"family"`
	Config      string  `parquet:"config"`
	AUC         float64 `parquet:"cv_auc"`
	Sensitivity float64 `parquet:"cv_sensitivity"`
	Specificity float64 `parquet:"cv_specificity"`
	Selected    bool    `parquet:"selected"`
}

type EvaluationRow struct {
	Family      string  `parquet:"family"`
	Config      string  `parquet:"config"`
	TP          int64   `parquet:"true_positives"`
	FP          int64   `parquet:"false_positives"`
	TN          int64   `parquet:"true_negatives"`
	FN          int64   `parquet:"false_negatives"`
	Accuracy    float64 `parquet:"accuracy"`
	Sensitivity float64 `parquet:"sensitivity"`
	Specificity float64 `parquet:"specificity"`
	PPV         float64 `parquet:"ppv"`
	NPV         float64 `parquet:"npv"`
	AUC         float64 `parquet:"auc"`
}

type ROCRow struct {
	FPR       float64 `parquet:"fpr"`
	TPR       float64 `parquet:"tpr"`
	Threshold float64 `parquet:"threshold"`
}

type ImportanceRow struct {
	Feature    string  `parquet:"feature"`
	Importance float64 `parquet:"importance"`
}

const reportFlushInterval = 100_000

// writeParquet writes rows to a Snappy-compressed parquet file, flushing
// row groups periodically to bound memory.
func writeParquet[T any](path string, rowset []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	writer := parquet.NewGenericWriter[T](file,
		parquet.Compression(&parquet.Snappy),
	)
	for start := 0; start < len(rowset); start += reportFlushInterval {
		end := start + reportFlushInterval
		if end > len(rowset) {
			end = len(rowset)
		}
		if _, err := writer.Write(rowset[start:end]); err != nil {
			file.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := writer.Flush(); err != nil {
			file.Close()
			return fmt.Errorf("flush %s: %w", path, err)
		}
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("close %s: %w", path, err)
	}
	return file.Close()
}

// paramsString renders a configuration for reports and failure logs:
// "alpha=0.3,lambda=0.01", or "default" for the empty configuration.
func paramsString(params map[string]float64) string {
	if len(params) == 0 {
		return "default"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.6g", k, params[k])
	}
	return strings.Join(parts, ",")
}

// writeReports emits every report artifact into dir: per-fold and
// per-configuration CV metrics, the comparison table, the winner's test
// evaluation, its ROC points and plot, and the variable-importance
// ranking when the winner is a tree.
func writeReports(dir string, arts []*ModelArtifact, table []ComparisonRow, best *ModelArtifact, eval *Evaluation, featureNames []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	var foldRows []FoldRow
	var configRows []ConfigRow
	for _, a := range arts {
		for c, res := range a.Results {
			cfg := paramsString(res.Params)
			configRows = append(configRows, ConfigRow{
				Family:      string(a.Family),
				Config:      cfg,
				MeanAUC:     res.MeanAUC,
				MeanSens:    res.MeanSens,
				MeanSpec:    res.MeanSpec,
				Failed:      res.Failed,
				FailMessage: res.FailMessage,
			})
			if res.Failed {
				continue
			}
			for f, fm := range a.Folds[c] {
				foldRows = append(foldRows, FoldRow{
					Family:      string(a.Family),
					Config:      cfg,
					Fold:        int32(f),
					AUC:         fm.AUC,
					Sensitivity: fm.Sensitivity,
					Specificity: fm.Specificity,
				})
			}
		}
	}
	if err := writeParquet(filepath.Join(dir, "cv_folds.parquet"), foldRows); err != nil {
		return err
	}
	if err := writeParquet(filepath.Join(dir, "cv_configs.parquet"), configRows); err != nil {
		return err
	}

	compRows := make([]ComparisonReportRow, len(table))
	for i, r := range table {
		compRows[i] = ComparisonReportRow{
			Family:      string(r.Family),
			Config:      paramsString(r.Params),
			AUC:         r.AUC,
			Sensitivity: r.Sensitivity,
			Specificity: r.Specificity,
			Selected:    r.Selected,
		}
	}
	if err := writeParquet(filepath.Join(dir, "comparison.parquet"), compRows); err != nil {
		return err
	}

	evalRows := []EvaluationRow{{
		Family:      string(best.Family),
		Config:      paramsString(best.Params),
		TP:          int64(eval.Confusion.TP),
		FP:          int64(eval.Confusion.FP),
		TN:          int64(eval.Confusion.TN),
		FN:          int64(eval.Confusion.FN),
		Accuracy:    eval.Accuracy,
		Sensitivity: eval.Sensitivity,
		Specificity: eval.Specificity,
		PPV:         eval.PPV,
		NPV:         eval.NPV,
		AUC:         eval.AUC,
	}}
	if err := writeParquet(filepath.Join(dir, "evaluation.parquet"), evalRows); err != nil {
		return err
	}

	rocRows := make([]ROCRow, len(eval.ROC))
	for i, p := range eval.ROC {
		rocRows[i] = ROCRow{FPR: p.FPR, TPR: p.TPR, Threshold: p.Threshold}
	}
	if err := writeParquet(filepath.Join(dir, "roc.parquet"), rocRows); err != nil {
		return err
	}
	if err := plotROC(filepath.Join(dir, "roc.png"), eval.ROC, eval.AUC); err != nil {
		return err
	}

	if tree, ok := best.Model.(*treeModel); ok {
		imps := tree.Importances(featureNames)
		impRows := make([]ImportanceRow, len(imps))
		for i, imp := range imps {
			impRows[i] = ImportanceRow{Feature: imp.Feature, Importance: imp.Importance}
		}
		if err := writeParquet(filepath.Join(dir, "importance.parquet"), impRows); err != nil {
			return err
		}
	}
	return nil
}

// plotROC renders the test ROC curve next to the chance diagonal.
func plotROC(path string, roc []ROCPoint, auc float64) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("ROC Curve (AUC = %.3f)", auc)
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	curve := make(plotter.XYs, len(roc))
	for i, pt := range roc {
		curve[i].X = pt.FPR
		curve[i].Y = pt.TPR
	}
	chance := plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}

	if err := plotutil.AddLinePoints(p, "Model", curve, "Chance", chance); err != nil {
		return fmt.Errorf("plot roc: %w", err)
	}
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
