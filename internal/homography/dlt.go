package homography

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// rankTolerance is the relative singular value below which the DLT system
// is treated as rank deficient.
const rankTolerance = 1e-10

// DLT fits a transform to every correspondence by solving the homogeneous
// direct linear transform system A·h = 0 in the least-squares sense.
type DLT struct {
	cfg DLTConfig
}

// NewDLT returns a DLT estimator.
func NewDLT(cfg DLTConfig) *DLT {
	return &DLT{cfg: cfg}
}

// Estimate implements Estimator. Every pair is reported as an inlier.
func (d *DLT) Estimate(from, to []r2.Point) (Result, error) {
	h, err := solveDLT(from, to, d.cfg.Normalize)
	if err != nil {
		return Result{}, err
	}
	inliers := make([]bool, len(from))
	for i := range inliers {
		inliers[i] = true
	}
	return Result{H: h, Inliers: inliers}, nil
}

func solveDLT(from, to []r2.Point, normalize bool) (Matrix, error) {
	n := len(from)
	if n != len(to) || n < MinCorrespondences {
		return Matrix{}, ErrInsufficientPoints
	}

	tFrom, tTo := Identity(), Identity()
	src, dst := from, to
	if normalize {
		var ok bool
		if src, tFrom, ok = normalizePoints(from); !ok {
			return Matrix{}, ErrDegenerate
		}
		if dst, tTo, ok = normalizePoints(to); !ok {
			return Matrix{}, ErrDegenerate
		}
	}

	// Two rows per correspondence (x,y) -> (u,v):
	//   [-x -y -1  0  0  0 ux uy u]
	//   [ 0  0  0 -x -y -1 vx vy v]
	a := mat.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return Matrix{}, ErrDegenerate
	}
	values := svd.Values(nil)
	// A unique solution needs rank 8: the eighth singular value must be
	// clearly non-zero relative to the largest.
	if len(values) < 8 || values[0] == 0 || values[7]/values[0] < rankTolerance {
		return Matrix{}, ErrDegenerate
	}

	var v mat.Dense
	svd.VTo(&v)
	var hn Matrix
	for i := 0; i < 9; i++ {
		hn[i] = v.At(i, 8)
	}

	h := hn
	if normalize {
		tToInv, ok := tTo.Inverse()
		if !ok {
			return Matrix{}, ErrDegenerate
		}
		h = tToInv.Mul(hn).Mul(tFrom)
	}
	h = h.Normalize()
	if !h.IsFinite() || math.Abs(h.Determinant()) < MinDeterminant {
		return Matrix{}, ErrDegenerate
	}
	return h, nil
}

// normalizePoints translates pts to their centroid and scales them so the
// mean distance from the origin is √2. It returns the normalised points and
// the similarity transform that produced them.
func normalizePoints(pts []r2.Point) ([]r2.Point, Matrix, bool) {
	var c r2.Point
	for _, p := range pts {
		c = c.Add(p)
	}
	c = c.Mul(1 / float64(len(pts)))

	mean := 0.0
	for _, p := range pts {
		mean += p.Sub(c).Norm()
	}
	mean /= float64(len(pts))
	if mean < MinProjectiveScale {
		return nil, Matrix{}, false
	}

	s := math.Sqrt2 / mean
	out := make([]r2.Point, len(pts))
	for i, p := range pts {
		out[i] = p.Sub(c).Mul(s)
	}
	t := Matrix{
		s, 0, -s * c.X,
		0, s, -s * c.Y,
		0, 0, 1,
	}
	return out, t, true
}

// collinear reports whether a, b and c lie on (nearly) one line, relative
// to the spread of the points.
func collinear(a, b, c r2.Point) bool {
	ab, ac := b.Sub(a), c.Sub(a)
	scale := math.Max(ab.Norm(), ac.Norm())
	if scale == 0 {
		return true
	}
	return math.Abs(ab.Cross(ac)) <= 1e-9*scale*scale
}

// degenerateSample reports whether any three of the four points are collinear.
func degenerateSample(p [4]r2.Point) bool {
	return collinear(p[0], p[1], p[2]) ||
		collinear(p[0], p[1], p[3]) ||
		collinear(p[0], p[2], p[3]) ||
		collinear(p[1], p[2], p[3])
}
