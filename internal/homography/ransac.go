package homography

import (
	"math"
	"math/rand"
	"time"

	"github.com/golang/geo/r2"
)

// RANSAC fits a transform robustly: it scores minimal four-point DLT fits by
// the number of pairs within InlierThreshold and refits the best consensus
// set with DLT.
//
// A RANSAC instance owns its random source and is not safe for concurrent use.
type RANSAC struct {
	cfg RANSACConfig
	dlt DLTConfig
	rng *rand.Rand
}

// NewRANSAC returns a RANSAC estimator. The DLT block configures the
// minimal-sample and refit solves.
func NewRANSAC(cfg RANSACConfig, dlt DLTConfig) *RANSAC {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RANSAC{
		cfg: cfg,
		dlt: dlt,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Estimate implements Estimator.
func (r *RANSAC) Estimate(from, to []r2.Point) (Result, error) {
	n := len(from)
	if n != len(to) || n < MinCorrespondences {
		return Result{}, ErrInsufficientPoints
	}
	if n == MinCorrespondences {
		var sample [4]r2.Point
		copy(sample[:], from)
		if degenerateSample(sample) {
			return Result{}, ErrDegenerate
		}
		return NewDLT(r.dlt).Estimate(from, to)
	}

	thrSq := r.cfg.InlierThreshold * r.cfg.InlierThreshold
	iterations := r.cfg.MaxIterations

	var (
		bestCount int
		bestMask  []bool
		bestH     Matrix
		idx       [4]int
		sFrom     [4]r2.Point
		sTo       [4]r2.Point
	)
	for it := 0; it < iterations; it++ {
		r.sample(n, &idx)
		for k, i := range idx {
			sFrom[k], sTo[k] = from[i], to[i]
		}
		if degenerateSample(sFrom) || degenerateSample(sTo) {
			continue
		}
		h, err := solveDLT(sFrom[:], sTo[:], r.dlt.Normalize)
		if err != nil {
			continue
		}
		mask, count := inlierMask(h, from, to, thrSq)
		if count <= bestCount {
			continue
		}
		bestCount, bestMask, bestH = count, mask, h
		iterations = min(iterations, adaptiveIterations(count, n, r.cfg.Confidence, it+1))
	}
	if bestCount < MinCorrespondences {
		return Result{}, ErrDegenerate
	}

	inFrom := make([]r2.Point, 0, bestCount)
	inTo := make([]r2.Point, 0, bestCount)
	for i, in := range bestMask {
		if in {
			inFrom = append(inFrom, from[i])
			inTo = append(inTo, to[i])
		}
	}
	if refit, err := solveDLT(inFrom, inTo, r.dlt.Normalize); err == nil {
		if mask, count := inlierMask(refit, from, to, thrSq); count >= bestCount {
			bestH, bestMask = refit, mask
		}
	}
	return Result{H: bestH, Inliers: bestMask}, nil
}

// sample draws four distinct indices in [0, n).
func (r *RANSAC) sample(n int, idx *[4]int) {
	for k := 0; k < 4; k++ {
	draw:
		for {
			c := r.rng.Intn(n)
			for j := 0; j < k; j++ {
				if idx[j] == c {
					continue draw
				}
			}
			idx[k] = c
			break
		}
	}
}

func inlierMask(h Matrix, from, to []r2.Point, thrSq float64) ([]bool, int) {
	mask := make([]bool, len(from))
	count := 0
	for i := range from {
		if h.TransferErrorSquared(from[i], to[i]) <= thrSq {
			mask[i] = true
			count++
		}
	}
	return mask, count
}

// adaptiveIterations returns the number of rounds needed to draw one
// all-inlier sample with the given confidence at the observed inlier ratio.
// The result is never below done, the number of rounds already run.
func adaptiveIterations(inliers, n int, confidence float64, done int) int {
	w := float64(inliers) / float64(n)
	p := math.Pow(w, MinCorrespondences)
	if p >= 1 {
		return done
	}
	if p <= 0 {
		return math.MaxInt32
	}
	k := math.Log(1-confidence) / math.Log(1-p)
	if math.IsNaN(k) || k > math.MaxInt32 {
		return math.MaxInt32
	}
	return max(done, int(math.Ceil(k)))
}
