package main

import (
	"fmt"
	"math"
)

// Classifier is the uniform fit-and-score surface every model family
// implements. Fit receives training rows only; any statistic a model
// estimates (e.g. the standardizer) comes from those rows alone.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	PredictProb(X [][]float64) []float64
}

// logitModel is plain logistic regression fit by full-batch gradient
// descent on binary cross-entropy. It is the unregularized baseline: no
// hyperparameters, no resampling.
type logitModel struct {
	weights []float64
	bias    float64
	scaler  *standardizer

	epochs int
	lr     float64
}

func newLogistic() *logitModel {
	return &logitModel{epochs: 400, lr: 0.5}
}

func (m *logitModel) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("logistic: empty training set")
	}
	m.scaler = fitStandardizer(X)
	Xs := m.scaler.transform(X)

	d := len(Xs[0])
	n := float64(len(Xs))
	m.weights = make([]float64, d)
	m.bias = 0

	// Gradients: dL/dw_j = mean((p-y)·x_j), dL/db = mean(p-y).
	grad := make([]float64, d)
	for epoch := 0; epoch < m.epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gb := 0.0
		for i, row := range Xs {
			p := sigmoid(dot(m.weights, row) + m.bias)
			e := p - float64(y[i])
			for j, xj := range row {
				grad[j] += e * xj
			}
			gb += e
		}
		for j := range m.weights {
			m.weights[j] -= m.lr * grad[j] / n
		}
		m.bias -= m.lr * gb / n

		if epoch%50 == 0 && !finiteWeights(m.weights, m.bias) {
			return fmt.Errorf("logistic: diverged at epoch %d", epoch)
		}
	}
	if !finiteWeights(m.weights, m.bias) {
		return fmt.Errorf("logistic: diverged")
	}
	return nil
}

func (m *logitModel) PredictProb(X [][]float64) []float64 {
	Xs := m.scaler.transform(X)
	probs := make([]float64, len(Xs))
	for i, row := range Xs {
		probs[i] = sigmoid(dot(m.weights, row) + m.bias)
	}
	return probs
}

// baselineGrid is the singleton grid: the baseline trains once per fold
// with fixed settings, so the selector can compare all three families on
// the same cross-validated footing.
func baselineGrid() []Candidate {
	return []Candidate{{
		Params: map[string]float64{},
		Build:  func() Classifier { return newLogistic() },
	}}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(w, x []float64) float64 {
	s := 0.0
	for i, wi := range w {
		s += wi * x[i]
	}
	return s
}

func finiteWeights(w []float64, b float64) bool {
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return false
	}
	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
