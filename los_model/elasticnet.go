package main

import (
	"fmt"
	"math"
)

// elasticNet is logistic regression with a mixed L1/L2 penalty
// λ·[α·|w|₁ + (1-α)/2·|w|₂²], fit by proximal gradient descent. Features
// are centered and scaled with statistics from the training rows only;
// the bias is unpenalized.
type elasticNet struct {
	alpha  float64 // mixing: 1 = lasso, 0 = ridge
	lambda float64 // penalty strength

	weights []float64
	bias    float64
	scaler  *standardizer

	maxIter int
	lr      float64
	tol     float64 // early-stop when the largest update falls below this
	stall   float64 // fail when the largest update is still above this at maxIter
}

func newElasticNet(alpha, lambda float64) *elasticNet {
	return &elasticNet{
		alpha:   alpha,
		lambda:  lambda,
		maxIter: 2000,
		lr:      0.2,
		tol:     1e-5,
		stall:   1e-3,
	}
}

func (m *elasticNet) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("elastic net: empty training set")
	}
	m.scaler = fitStandardizer(X)
	Xs := m.scaler.transform(X)

	d := len(Xs[0])
	n := float64(len(Xs))
	m.weights = make([]float64, d)
	m.bias = 0

	l1 := m.lambda * m.alpha
	l2 := m.lambda * (1 - m.alpha)

	grad := make([]float64, d)
	maxDelta := 0.0
	for iter := 0; iter < m.maxIter; iter++ {
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

		maxDelta = 0
		for j := range m.weights {
			step := m.weights[j] - m.lr*(grad[j]/n+l2*m.weights[j])
			next := softThreshold(step, m.lr*l1)
			if delta := math.Abs(next - m.weights[j]); delta > maxDelta {
				maxDelta = delta
			}
			m.weights[j] = next
		}
		biasNext := m.bias - m.lr*gb/n
		if delta := math.Abs(biasNext - m.bias); delta > maxDelta {
			maxDelta = delta
		}
		m.bias = biasNext

		if !finiteWeights(m.weights, m.bias) {
			return fmt.Errorf("elastic net: diverged at iteration %d (alpha=%.2f lambda=%.4g)",
				iter, m.alpha, m.lambda)
		}
		if maxDelta < m.tol {
			return nil
		}
	}
	// A slowly decaying tail is fine; a step that never contracted is a
	// degenerate optimization and excludes this configuration.
	if maxDelta > m.stall {
		return fmt.Errorf("elastic net: no convergence after %d iterations (alpha=%.2f lambda=%.4g, step %.2g)",
			m.maxIter, m.alpha, m.lambda, maxDelta)
	}
	return nil
}

func (m *elasticNet) PredictProb(X [][]float64) []float64 {
	Xs := m.scaler.transform(X)
	probs := make([]float64, len(Xs))
	for i, row := range Xs {
		probs[i] = sigmoid(dot(m.weights, row) + m.bias)
	}
	return probs
}

func softThreshold(z, t float64) float64 {
	switch {
	case z > t:
		return z - t
	case z < -t:
		return z + t
	default:
		return 0
	}
}

// elasticNetGrid is the dense search grid: 11 mixing values × 10 penalty
// strengths on a log scale, 110 candidate configurations.
func elasticNetGrid() []Candidate {
	var grid []Candidate
	for ai := 0; ai <= 10; ai++ {
		alpha := float64(ai) / 10
		for li := 0; li < 10; li++ {
			lambda := math.Pow(10, -4+float64(li)*4.0/9.0)
			a, l := alpha, lambda
			grid = append(grid, Candidate{
				Params: map[string]float64{"alpha": a, "lambda": l},
				Build:  func() Classifier { return newElasticNet(a, l) },
			})
		}
	}
	return grid
}
