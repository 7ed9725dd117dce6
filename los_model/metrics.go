package main

import (
	"math"
	"sort"
)

// ROCPoint is one operating point of an ROC curve.
type ROCPoint struct {
	FPR       float64
	TPR       float64
	Threshold float64
}

// rocCurve sweeps the classification threshold over the predicted
// probabilities and returns the curve from (0,0) to (1,1). Tied
// probabilities collapse into a single point. Returns nil when the labels
// contain only one class, in which case the curve (and its AUC) is
// undefined.
func rocCurve(y []int, probs []float64) []ROCPoint {
	nPos, nNeg := 0, 0
	for _, v := range y {
		if v == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return nil
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return probs[order[a]] > probs[order[b]] })

	pts := []ROCPoint{{FPR: 0, TPR: 0, Threshold: math.Inf(1)}}
	tp, fp := 0, 0
	for i := 0; i < len(order); {
		p := probs[order[i]]
		// Consume the whole tie group before emitting a point.
		for i < len(order) && probs[order[i]] == p {
			if y[order[i]] == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		pts = append(pts, ROCPoint{
			FPR:       float64(fp) / float64(nNeg),
			TPR:       float64(tp) / float64(nPos),
			Threshold: p,
		})
	}
	return pts
}

// aucFromROC integrates the curve with the trapezoidal rule. The same
// estimator serves cross-validated fold scoring and held-out evaluation.
func aucFromROC(pts []ROCPoint) float64 {
	if len(pts) < 2 {
		return math.NaN()
	}
	auc := 0.0
	for i := 1; i < len(pts); i++ {
		auc += (pts[i].FPR - pts[i-1].FPR) * (pts[i].TPR + pts[i-1].TPR) / 2
	}
	return auc
}

func rocAUC(y []int, probs []float64) float64 {
	return aucFromROC(rocCurve(y, probs))
}

// ConfusionMatrix counts predictions with the extended-stay class ("Yes")
// as positive.
type ConfusionMatrix struct {
	TP int
	FP int
	TN int
	FN int
}

// confusionAt labels a row positive when its probability exceeds the
// threshold.
func confusionAt(y []int, probs []float64, threshold float64) ConfusionMatrix {
	var cm ConfusionMatrix
	for i, p := range probs {
		pred := p > threshold
		switch {
		case pred && y[i] == 1:
			cm.TP++
		case pred && y[i] != 1:
			cm.FP++
		case !pred && y[i] == 1:
			cm.FN++
		default:
			cm.TN++
		}
	}
	return cm
}

// ratio returns NaN on a zero denominator: an undefined metric is reported
// as undefined, never silently as zero.
func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

func (c ConfusionMatrix) Sensitivity() float64 { return ratio(c.TP, c.TP+c.FN) }
func (c ConfusionMatrix) Specificity() float64 { return ratio(c.TN, c.TN+c.FP) }
func (c ConfusionMatrix) PPV() float64         { return ratio(c.TP, c.TP+c.FP) }
func (c ConfusionMatrix) NPV() float64         { return ratio(c.TN, c.TN+c.FN) }
func (c ConfusionMatrix) Accuracy() float64 {
	return ratio(c.TP+c.TN, c.TP+c.TN+c.FP+c.FN)
}
