package main

import (
	"fmt"
	"math"
)

// ComparisonRow is one line of the model comparison table.
type ComparisonRow struct {
	Family      Family
	Params      map[string]float64
	AUC         float64
	Sensitivity float64
	Specificity float64
	Selected    bool
}

const aucTieEpsilon = 1e-9

// selectBest ranks the family winners strictly by cross-validated ROC-AUC.
// Ties go to the model with the smaller sensitivity/specificity gap, since
// AUC alone says nothing about operating-point balance.
func selectBest(arts []*ModelArtifact) (*ModelArtifact, []ComparisonRow, error) {
	if len(arts) == 0 {
		return nil, nil, fmt.Errorf("select: no artifacts")
	}

	best := -1
	for i, a := range arts {
		if math.IsNaN(a.CVAUC) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		switch {
		case a.CVAUC > arts[best].CVAUC+aucTieEpsilon:
			best = i
		case math.Abs(a.CVAUC-arts[best].CVAUC) <= aucTieEpsilon:
			if balanceGap(a) < balanceGap(arts[best]) {
				best = i
			}
		}
	}
	if best < 0 {
		return nil, nil, fmt.Errorf("select: no artifact has a defined cross-validated AUC")
	}

	table := make([]ComparisonRow, len(arts))
	for i, a := range arts {
		table[i] = ComparisonRow{
			Family:      a.Family,
			Params:      a.Params,
			AUC:         a.CVAUC,
			Sensitivity: a.CVSens,
			Specificity: a.CVSpec,
			Selected:    i == best,
		}
	}
	return arts[best], table, nil
}

func balanceGap(a *ModelArtifact) float64 {
	gap := math.Abs(a.CVSens - a.CVSpec)
	if math.IsNaN(gap) {
		return math.Inf(1)
	}
	return gap
}
