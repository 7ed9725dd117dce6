package main

import "fmt"

// Evaluation is the held-out test result of the selected model. Metrics
// with a zero denominator are NaN (reported as undefined downstream).
type Evaluation struct {
	Confusion ConfusionMatrix

	Accuracy    float64
	Sensitivity float64
	Specificity float64
	PPV         float64
	NPV         float64

	ROC []ROCPoint
	AUC float64
}

// evaluate applies the selected artifact to the testing subset: class
// labels at the given threshold, confusion matrix with Yes positive, and
// the ROC curve from the same estimator used during cross-validation.
func evaluate(art *ModelArtifact, test *Dataset, threshold float64) (*Evaluation, error) {
	if test.Len() == 0 {
		return nil, fmt.Errorf("evaluate: empty test set")
	}

	probs := art.Model.PredictProb(test.X)
	cm := confusionAt(test.Y, probs, threshold)
	roc := rocCurve(test.Y, probs)

	return &Evaluation{
		Confusion:   cm,
		Accuracy:    cm.Accuracy(),
		Sensitivity: cm.Sensitivity(),
		Specificity: cm.Specificity(),
		PPV:         cm.PPV(),
		NPV:         cm.NPV(),
		ROC:         roc,
		AUC:         aucFromROC(roc),
	}, nil
}
