package main

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
)

// ErrInsufficientClass marks a stratification failure: a class has too few
// members for the requested folds or split ratio.
var ErrInsufficientClass = errors.New("insufficient class support")

// Candidate is one hyperparameter configuration: its parameter values (for
// ranking reports and failure logs) and a constructor for a fresh,
// unfitted classifier.
type Candidate struct {
	Params map[string]float64
	Build  func() Classifier
}

// CVOptions configures cross-validated grid search.
type CVOptions struct {
	Folds     int
	Seed      int64
	Threshold float64 // probability cutoff for fold sensitivity/specificity
	Workers   int     // 0 = GOMAXPROCS
}

func DefaultCVOptions() CVOptions {
	return CVOptions{Folds: 10, Seed: 42, Threshold: 0.5}
}

// FoldMetric is the held-out-fold performance of one configuration.
type FoldMetric struct {
	AUC         float64
	Sensitivity float64
	Specificity float64
	Err         error
}

// CandidateResult is the fold-mean performance of one configuration. A
// configuration with any failed fold is excluded from ranking.
type CandidateResult struct {
	Params      map[string]float64
	MeanAUC     float64
	MeanSens    float64
	MeanSpec    float64
	Failed      bool
	FailMessage string
}

// ModelArtifact is a trained family: the refitted model, the winning
// configuration, and the full cross-validation record.
type ModelArtifact struct {
	Family Family
	Model  Classifier
	Params map[string]float64

	CVAUC  float64
	CVSens float64
	CVSpec float64

	Results []CandidateResult
	Folds   [][]FoldMetric // [candidate][fold]
}

// stratifiedFolds deals each class round-robin into k folds after a seeded
// shuffle, so every fold carries both classes at roughly the full
// prevalence. Fails fast rather than degrading the fold count.
func stratifiedFolds(y []int, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("folds: k=%d, need at least 2", k)
	}
	byClass := map[int][]int{}
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}

	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	folds := make([][]int, k)
	for _, c := range classes {
		idx := append([]int(nil), byClass[c]...)
		if len(idx) < k {
			return nil, fmt.Errorf("folds: %w: class %d has %d records for %d folds",
				ErrInsufficientClass, c, len(idx), k)
		}
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for i, id := range idx {
			folds[i%k] = append(folds[i%k], id)
		}
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds, nil
}

// downsampleMajority returns a subset of idx with exactly equal class
// counts: all minority rows plus a seeded sample of the majority, sorted
// for determinism.
func downsampleMajority(idx []int, y []int, rng *rand.Rand) []int {
	var pos, neg []int
	for _, i := range idx {
		if y[i] == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	minor, major := pos, neg
	if len(neg) < len(pos) {
		minor, major = neg, pos
	}
	if len(major) == len(minor) {
		return append([]int(nil), idx...)
	}

	sampled := append([]int(nil), major...)
	rng.Shuffle(len(sampled), func(i, j int) { sampled[i], sampled[j] = sampled[j], sampled[i] })
	sampled = sampled[:len(minor)]

	out := append(append([]int(nil), minor...), sampled...)
	sort.Ints(out)
	return out
}

// trainFamily runs the shared cross-validation protocol for one family:
// stratified k-fold evaluation of every candidate, ranking by mean
// held-out ROC-AUC, then a full-Training refit of the winner under the
// same resampling policy. Per-candidate fit failures are logged with
// their hyperparameters and excluded from ranking.
func trainFamily(train *Dataset, family Family, grid []Candidate, policy ResamplePolicy, opts CVOptions) (*ModelArtifact, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("train %s: empty grid", family)
	}
	folds, err := stratifiedFolds(train.Y, opts.Folds, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", family, err)
	}

	scores := make([][]FoldMetric, len(grid))
	for c := range scores {
		scores[c] = make([]FoldMetric, len(folds))
	}

	type cell struct{ c, f int }
	tasks := make(chan cell)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				// Each cell writes only its own slot, so aggregation is
				// deterministic regardless of completion order.
				scores[t.c][t.f] = fitAndScore(train, grid[t.c], folds, t.f, policy, opts, cellSeed(opts.Seed, t.c, t.f))
			}
		}()
	}
	for c := range grid {
		for f := range folds {
			tasks <- cell{c, f}
		}
	}
	close(tasks)
	wg.Wait()

	results := make([]CandidateResult, len(grid))
	bestIdx, bestAUC := -1, math.Inf(-1)
	for c := range grid {
		res := CandidateResult{Params: grid[c].Params}
		var sumAUC, sumSens, sumSpec float64
		for _, fm := range scores[c] {
			if fm.Err != nil {
				res.Failed = true
				res.FailMessage = fm.Err.Error()
				break
			}
			sumAUC += fm.AUC
			sumSens += fm.Sensitivity
			sumSpec += fm.Specificity
		}
		if res.Failed {
			log.Printf("train %s: excluded %s: %s", family, paramsString(res.Params), res.FailMessage)
		} else {
			k := float64(len(scores[c]))
			res.MeanAUC = sumAUC / k
			res.MeanSens = sumSens / k
			res.MeanSpec = sumSpec / k
			if res.MeanAUC > bestAUC {
				bestIdx, bestAUC = c, res.MeanAUC
			}
		}
		results[c] = res
	}
	if bestIdx < 0 {
		return nil, fmt.Errorf("train %s: all %d configurations failed", family, len(grid))
	}

	// Refit on the entire training set under the same resampling policy.
	refitIdx := make([]int, train.Len())
	for i := range refitIdx {
		refitIdx[i] = i
	}
	if policy == ResampleDownMajority {
		rng := rand.New(rand.NewSource(cellSeed(opts.Seed, bestIdx, len(folds))))
		refitIdx = downsampleMajority(refitIdx, train.Y, rng)
	}
	model := grid[bestIdx].Build()
	if err := model.Fit(rows(train, refitIdx), labels(train, refitIdx)); err != nil {
		return nil, fmt.Errorf("train %s: refit %s: %w", family, paramsString(grid[bestIdx].Params), err)
	}

	return &ModelArtifact{
		Family:  family,
		Model:   model,
		Params:  grid[bestIdx].Params,
		CVAUC:   results[bestIdx].MeanAUC,
		CVSens:  results[bestIdx].MeanSens,
		CVSpec:  results[bestIdx].MeanSpec,
		Results: results,
		Folds:   scores,
	}, nil
}

// fitAndScore trains one candidate on nine folds (resampled per policy)
// and scores it on the held-out fold. The held-out fold is never
// resampled, so evaluation reflects true prevalence.
func fitAndScore(ds *Dataset, cand Candidate, folds [][]int, holdout int, policy ResamplePolicy, opts CVOptions, seed int64) FoldMetric {
	var trainIdx []int
	for f, fold := range folds {
		if f != holdout {
			trainIdx = append(trainIdx, fold...)
		}
	}
	sort.Ints(trainIdx)

	if policy == ResampleDownMajority {
		rng := rand.New(rand.NewSource(seed))
		trainIdx = downsampleMajority(trainIdx, ds.Y, rng)
	}

	clf := cand.Build()
	if err := clf.Fit(rows(ds, trainIdx), labels(ds, trainIdx)); err != nil {
		return FoldMetric{Err: err}
	}

	val := folds[holdout]
	probs := clf.PredictProb(rows(ds, val))
	yVal := labels(ds, val)

	cm := confusionAt(yVal, probs, opts.Threshold)
	return FoldMetric{
		AUC:         rocAUC(yVal, probs),
		Sensitivity: cm.Sensitivity(),
		Specificity: cm.Specificity(),
	}
}

// cellSeed derives a per-(configuration, fold) RNG seed so down-sampling
// draws reproduce across runs and worker counts.
func cellSeed(base int64, cand, fold int) int64 {
	return base + int64(cand)*1_000_003 + int64(fold)*7919
}

func rows(ds *Dataset, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, id := range idx {
		out[i] = ds.X[id]
	}
	return out
}

func labels(ds *Dataset, idx []int) []int {
	out := make([]int, len(idx))
	for i, id := range idx {
		out[i] = ds.Y[id]
	}
	return out
}
