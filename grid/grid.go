// SPDX-License-Identifier: MIT

package grid

import "math"

// Bounds is a closed interval [Lo, Hi].
type Bounds struct {
	Lo, Hi float64
}

// Grid is an immutable Cartesian grid.
type Grid struct {
	sizes   []int
	origin  []float64
	spacing []float64
	bounds  []Bounds
	strides []int
	size    int
	scheme  Scheme
}

// New builds a grid with sizes[d] points along dimension d covering bounds[d]
// extended by the padding on both sides:
// h_d = (Hi−Lo)/(m_d−1−2p), g_{d,k} = Lo − p·h_d + k·h_d.
//
// Errors:
//   - ErrDimensionMismatch if len(bounds) != len(sizes) or both are empty.
//   - ErrBounds for Hi ≤ Lo or non-finite bounds.
//   - ErrResolution when m_d−1−2p < 1 or m_d < Support().
func New(bounds []Bounds, sizes []int, opts ...Option) (*Grid, error) {
	if len(bounds) == 0 || len(bounds) != len(sizes) {
		return nil, gridErrorf(opNew, ErrDimensionMismatch)
	}
	o := gatherOptions(opts)
	dims := len(sizes)
	g := &Grid{
		sizes:   append([]int(nil), sizes...),
		origin:  make([]float64, dims),
		spacing: make([]float64, dims),
		bounds:  append([]Bounds(nil), bounds...),
		strides: make([]int, dims),
		scheme:  o.scheme,
	}
	for d, b := range bounds {
		if math.IsNaN(b.Lo) || math.IsInf(b.Lo, 0) || math.IsInf(b.Hi, 0) || !(b.Hi > b.Lo) {
			return nil, gridErrorf(opNew, ErrBounds)
		}
		intervals := sizes[d] - 1 - 2*o.padding
		if intervals < 1 || sizes[d] < o.scheme.Support() {
			return nil, gridErrorf(opNew, ErrResolution)
		}
		g.spacing[d] = (b.Hi - b.Lo) / float64(intervals)
		g.origin[d] = b.Lo - float64(o.padding)*g.spacing[d]
	}
	g.size = 1
	for d := dims - 1; d >= 0; d-- {
		g.strides[d] = g.size
		g.size *= sizes[d]
	}

	return g, nil
}

// Dims returns the number of dimensions.
func (g *Grid) Dims() int { return len(g.sizes) }

// Size returns the total number of grid points Π_d m_d.
func (g *Grid) Size() int { return g.size }

// Sizes returns the per-dimension point counts.
func (g *Grid) Sizes() []int { return g.sizes }

// Spacing returns h_d.
func (g *Grid) Spacing(d int) float64 { return g.spacing[d] }

// Bounds returns the requested (unpadded) bounds.
func (g *Grid) Bounds() []Bounds { return g.bounds }

// Scheme returns the interpolation scheme.
func (g *Grid) Scheme() Scheme { return g.scheme }

// Axis returns the coordinates of dimension d.
func (g *Grid) Axis(d int) []float64 {
	axis := make([]float64, g.sizes[d])
	for k := range axis {
		axis[k] = g.origin[d] + float64(k)*g.spacing[d]
	}

	return axis
}

// Lags returns, per dimension, the distances k·h_d for k = 0..m_d−1, the
// arguments of the Toeplitz first columns of K_grid.
func (g *Grid) Lags() [][]float64 {
	lags := make([][]float64, len(g.sizes))
	for d, m := range g.sizes {
		lags[d] = make([]float64, m)
		for k := range lags[d] {
			lags[d][k] = float64(k) * g.spacing[d]
		}
	}

	return lags
}

// Point returns the coordinates of flat grid index i (last dimension fastest).
func (g *Grid) Point(i int) []float64 {
	p := make([]float64, len(g.sizes))
	for d, stride := range g.strides {
		p[d] = g.origin[d] + float64((i/stride)%g.sizes[d])*g.spacing[d]
	}

	return p
}
