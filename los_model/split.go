package main

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// splitStratified partitions a dataset into training and testing subsets.
// Within each class, ratio of the rows (rounded) goes to training; the
// remainder to testing. The split is deterministic given the seed and the
// input row order. Fails when a class is too small to land on both sides.
func splitStratified(ds *Dataset, ratio float64, seed int64) (train, test *Dataset, err error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("split: ratio %.3f outside (0, 1)", ratio)
	}

	byClass := map[int][]int{}
	for i, y := range ds.Y {
		byClass[y] = append(byClass[y], i)
	}

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int

	// Classes in fixed order so the RNG stream is stable.
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	for _, c := range classes {
		idx := append([]int(nil), byClass[c]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		n := int(math.Round(ratio * float64(len(idx))))
		if n == 0 || n == len(idx) {
			return nil, nil, fmt.Errorf("split: %w: class %d has %d records, cannot stratify at ratio %.2f",
				ErrInsufficientClass, c, len(idx), ratio)
		}
		trainIdx = append(trainIdx, idx[:n]...)
		testIdx = append(testIdx, idx[n:]...)
	}

	sort.Ints(trainIdx)
	sort.Ints(testIdx)
	return subset(ds, trainIdx), subset(ds, testIdx), nil
}

// subset selects rows by index. Row slices are shared with the parent;
// rows are read-only after preparation.
func subset(ds *Dataset, idx []int) *Dataset {
	out := &Dataset{
		X:     make([][]float64, len(idx)),
		Y:     make([]int, len(idx)),
		Names: ds.Names,
	}
	for i, id := range idx {
		out.X[i] = ds.X[id]
		out.Y[i] = ds.Y[id]
	}
	return out
}
