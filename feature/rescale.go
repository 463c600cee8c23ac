// SPDX-License-Identifier: MIT
// Package: feature
//
// Purpose:
//   - Per-batch, per-feature affine map of the extractor output onto
//     [Lower, Upper].
//
// For feature column f with batch minimum mn, maximum mx and R = mx − mn:
//
//	z_i = Lower + span·(f_i − mn)/R,  span = Upper − Lower
//
// The backward pass routes gradient through f_i directly and through the
// arg-min and arg-max rows, which move mn and mx:
//
//	∂z_i/∂mn = span·(−1/R + (f_i − mn)/R²)
//	∂z_i/∂mx = −span·(f_i − mn)/R²
//
// A constant column (R ≤ degenerateRange) maps to the midpoint and carries no
// gradient.

package feature

import (
	"math"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
)

const degenerateRange = 1e-12

// Rescale maps each feature of a batch onto [Lower, Upper].
type Rescale struct {
	Lower float64
	Upper float64
}

// DefaultRescale maps onto [-1, 1].
func DefaultRescale() Rescale { return Rescale{Lower: -1, Upper: 1} }

// Validate checks Lower < Upper and both finite.
func (r Rescale) Validate() error {
	if math.IsInf(r.Lower, 0) || math.IsInf(r.Upper, 0) || !(r.Upper > r.Lower) {
		return featureErrorf(opRescale, ErrBounds)
	}

	return nil
}

// RescaleTape records the batch statistics used by one Forward call.
type RescaleTape struct {
	rows   int
	input  *mat.Dense
	argMin []int
	argMax []int
	rng    []float64 // per-feature R; 0 marks a degenerate column
	min    []float64
}

// Forward rescales f (n × k) column by column.
func (r Rescale) Forward(f *mat.Dense) (*mat.Dense, *RescaleTape) {
	n, k := f.Dims()
	t := &RescaleTape{
		rows:   n,
		input:  f,
		argMin: make([]int, k),
		argMax: make([]int, k),
		rng:    make([]float64, k),
		min:    make([]float64, k),
	}
	mid := 0.5 * (r.Lower + r.Upper)
	span := r.Upper - r.Lower
	out := mat.NewDense(n, k, nil)
	for j := 0; j < k; j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < n; i++ {
			v := f.At(i, j)
			if v < lo {
				lo, t.argMin[j] = v, i
			}
			if v > hi {
				hi, t.argMax[j] = v, i
			}
		}
		t.min[j] = lo
		if hi-lo <= degenerateRange {
			for i := 0; i < n; i++ {
				out.Set(i, j, mid)
			}

			continue
		}
		t.rng[j] = hi - lo
		scale := span / t.rng[j]
		for i := 0; i < n; i++ {
			out.Set(i, j, r.Lower+scale*(f.At(i, j)-lo))
		}
	}

	return out, t
}

// Backward returns ∂L/∂f given dz = ∂L/∂z for the batch recorded in t.
func (r Rescale) Backward(t *RescaleTape, dz *mat.Dense) (*mat.Dense, error) {
	n, k := dz.Dims()
	if t == nil || n != t.rows || k != len(t.rng) {
		return nil, featureErrorf(opRescale, ErrDimensionMismatch)
	}
	span := r.Upper - r.Lower
	df := mat.NewDense(n, k, nil)
	col := make([]float64, n)
	shift := make([]float64, n)
	for j := 0; j < k; j++ {
		R := t.rng[j]
		if R == 0 {
			continue
		}
		mat.Col(col, j, dz)
		for i := 0; i < n; i++ {
			shift[i] = t.input.At(i, j) - t.min[j]
		}
		// Σ_i dz_i (f_i − mn)
		weighted := vek.Dot(col, shift)
		total := 0.0
		for _, v := range col {
			total += v
		}

		vek.MulNumber_Inplace(col, span/R)
		df.SetCol(j, col)
		mn, mx := t.argMin[j], t.argMax[j]
		df.Set(mn, j, df.At(mn, j)+span*(-total/R+weighted/(R*R)))
		df.Set(mx, j, df.At(mx, j)-span*weighted/(R*R))
	}

	return df, nil
}
