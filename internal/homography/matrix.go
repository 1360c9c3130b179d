package homography

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// Numerical guards shared by the matrix helpers and the estimators.
const (
	// MinProjectiveScale is the smallest |w| accepted when dehomogenising a point.
	MinProjectiveScale = 1e-12
	// MinDeterminant is the smallest |det(H)| for which H is considered invertible.
	MinDeterminant = 1e-12
)

// Matrix is a 3×3 projective transform stored row-major:
//
//	h0 h1 h2
//	h3 h4 h5
//	h6 h7 h8
//
// Within this repository a frame's Matrix maps image coordinates to
// ground-plane coordinates.
type Matrix [9]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Apply maps p through the transform. ok is false when p maps to (or near)
// the line at infinity.
func (h Matrix) Apply(p r2.Point) (out r2.Point, ok bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < MinProjectiveScale {
		return r2.Point{}, false
	}
	return r2.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Mul returns h·o, i.e. the transform that applies o first and then h.
func (h Matrix) Mul(o Matrix) Matrix {
	var out Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = h[r*3+0]*o[0*3+c] + h[r*3+1]*o[1*3+c] + h[r*3+2]*o[2*3+c]
		}
	}
	return out
}

// Determinant returns det(h).
func (h Matrix) Determinant() float64 {
	return mat.Det(h.dense())
}

// Inverse returns h⁻¹, normalised so that the bottom-right element is 1
// where possible. ok is false for singular or ill-conditioned transforms.
func (h Matrix) Inverse() (Matrix, bool) {
	if math.Abs(h.Determinant()) < MinDeterminant {
		return Matrix{}, false
	}
	var inv mat.Dense
	if err := inv.Inverse(h.dense()); err != nil {
		return Matrix{}, false
	}
	return fromDense(&inv).Normalize(), true
}

// Normalize rescales h so that h[8] == 1. When h[8] is (near) zero the
// matrix is scaled to unit Frobenius norm instead.
func (h Matrix) Normalize() Matrix {
	s := h[8]
	if math.Abs(s) < MinProjectiveScale {
		s = mat.Norm(h.dense(), 2)
		if s == 0 {
			return h
		}
	}
	for i := range h {
		h[i] /= s
	}
	return h
}

// IsFinite reports whether every element is finite.
func (h Matrix) IsFinite() bool {
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ApproxEqual compares two transforms element-wise after normalisation.
func (h Matrix) ApproxEqual(o Matrix, tol float64) bool {
	a, b := h.Normalize(), o.Normalize()
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// String formats the matrix on one line, row by row.
func (h Matrix) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g; %g %g %g]",
		h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], h[8])
}

// TransferErrorSquared returns |h(from) − to|², or +Inf when from cannot
// be mapped.
func (h Matrix) TransferErrorSquared(from, to r2.Point) float64 {
	p, ok := h.Apply(from)
	if !ok {
		return math.Inf(1)
	}
	d := p.Sub(to)
	return d.Dot(d)
}

func (h Matrix) dense() *mat.Dense {
	data := h
	return mat.NewDense(3, 3, data[:])
}

func fromDense(m mat.Matrix) Matrix {
	var out Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m.At(r, c)
		}
	}
	return out
}
