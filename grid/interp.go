// SPDX-License-Identifier: MIT
// Package: grid
//
// Purpose:
//   - Interpolation weights W(X) and their input derivatives ∂W/∂x_d.
//
// Cubic convolution (Keys, a = −0.5):
//
//	u(s) = 1.5|s|³ − 2.5|s|² + 1          for |s| < 1
//	u(s) = −0.5|s|³ + 2.5|s|² − 4|s| + 2  for 1 ≤ |s| < 2
//
// Weights along one axis sum to 1 for any offset, so every row of W sums to 1
// whatever the spacing. A D-dimensional row is the tensor product of the
// per-axis weights: Support()^D stored entries.

package grid

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kissgp/linalg"
)

// boundsTol absorbs rounding when an input sits exactly on the range ends.
const boundsTol = 1e-9

// Interp holds W for a batch of points and, when requested, ∂W/∂x_d for every
// dimension d. DW[d] shares W's sparsity pattern.
type Interp struct {
	W  *linalg.Sparse
	DW []*linalg.Sparse
}

func cubicWeight(s float64) float64 {
	a := math.Abs(s)
	switch {
	case a < 1:
		return (1.5*a-2.5)*a*a + 1
	case a < 2:
		return ((-0.5*a+2.5)*a-4)*a + 2
	}

	return 0
}

func cubicSlope(s float64) float64 {
	a := math.Abs(s)
	sign := 1.0
	if s < 0 {
		sign = -1
	}
	switch {
	case a < 1:
		return sign * (4.5*a - 5) * a
	case a < 2:
		return sign * ((-1.5*a+5)*a - 4)
	}

	return 0
}

// axisWeights fills w (and dw, ∂w/∂x) for value v along dimension d and
// returns the first neighbour index.
func (g *Grid) axisWeights(d int, v float64, w, dw []float64) (int, error) {
	support := g.scheme.Support()
	left := support/2 - 1
	right := support / 2
	m := g.sizes[d]
	h := g.spacing[d]

	t := (v - g.origin[d]) / h
	if math.IsNaN(t) || t < float64(left)-boundsTol || t > float64(m-right)+boundsTol {
		return 0, ErrOutOfBounds
	}
	i0 := int(math.Floor(t))
	i0 = max(left, min(i0, m-1-right))
	frac := t - float64(i0)

	for o := 0; o < support; o++ {
		s := frac - float64(o-left)
		if g.scheme == Linear {
			w[o] = 1 - math.Abs(s)
			dw[o] = float64(2*o-1) / h
			continue
		}
		w[o] = cubicWeight(s)
		dw[o] = cubicSlope(s) / h
	}

	return i0 - left, nil
}

// pointWeights returns the flat indices, weights and (optionally) per-dimension
// weight derivatives of a single point.
func (g *Grid) pointWeights(x []float64, withGrad bool) ([]int, []float64, [][]float64, error) {
	dims := len(g.sizes)
	if len(x) != dims {
		return nil, nil, nil, ErrDimensionMismatch
	}
	support := g.scheme.Support()
	bases := make([]int, dims)
	ws := make([][]float64, dims)
	dws := make([][]float64, dims)
	for d := 0; d < dims; d++ {
		ws[d] = make([]float64, support)
		dws[d] = make([]float64, support)
		base, err := g.axisWeights(d, x[d], ws[d], dws[d])
		if err != nil {
			return nil, nil, nil, err
		}
		bases[d] = base
	}

	nnz := 1
	for d := 0; d < dims; d++ {
		nnz *= support
	}
	idx := make([]int, nnz)
	val := make([]float64, nnz)
	var grad [][]float64
	if withGrad {
		grad = make([][]float64, dims)
		for d := range grad {
			grad[d] = make([]float64, nnz)
		}
	}

	offsets := make([]int, dims)
	for c := 0; c < nnz; c++ {
		rem := c
		for d := dims - 1; d >= 0; d-- {
			offsets[d] = rem % support
			rem /= support
		}
		flat := 0
		v := 1.0
		for d, o := range offsets {
			flat += (bases[d] + o) * g.strides[d]
			v *= ws[d][o]
		}
		idx[c], val[c] = flat, v
		for d := range grad {
			gv := dws[d][offsets[d]]
			for e, o := range offsets {
				if e != d {
					gv *= ws[e][o]
				}
			}
			grad[d][c] = gv
		}
	}

	return idx, val, grad, nil
}

// Weights builds W(X) (n × Size()) and, with withGrad, ∂W/∂x_d.
//
// Errors: ErrDimensionMismatch, ErrOutOfBounds.
func (g *Grid) Weights(x *mat.Dense, withGrad bool) (*Interp, error) {
	n, c := x.Dims()
	if c != len(g.sizes) {
		return nil, gridErrorf(opWeights, ErrDimensionMismatch)
	}
	nnz := 1
	for range g.sizes {
		nnz *= g.scheme.Support()
	}
	out := &Interp{W: linalg.NewSparse(n, g.size, nnz)}
	if withGrad {
		out.DW = make([]*linalg.Sparse, c)
		for d := range out.DW {
			out.DW[d] = linalg.NewSparse(n, g.size, nnz)
		}
	}
	for i := 0; i < n; i++ {
		idx, val, grad, err := g.pointWeights(x.RawRowView(i), withGrad)
		if err != nil {
			return nil, gridErrorf(opWeights, err)
		}
		for s, j := range idx {
			out.W.Set(i, s, j, val[s])
			for d := range out.DW {
				out.DW[d].Set(i, s, j, grad[d][s])
			}
		}
	}

	return out, nil
}
