// SPDX-License-Identifier: MIT
// Package: linalg
//
// Purpose:
//   - Define the Operator capability every solver consumes.
//   - Provide the small adapters the GP layer composes: a dense symmetric
//     operator, a diagonal shift (K + σ²I) and the interpolated W·K·Wᵀ form.

package linalg

import "gonum.org/v1/gonum/mat"

// Operator is a square linear map applied only through matrix-vector products.
// MulVecTo writes A·x into dst; both slices have length Size() and must not alias.
type Operator interface {
	Size() int
	MulVecTo(dst, x []float64)
}

// Dense adapts a gonum symmetric matrix to Operator.
type Dense struct {
	a mat.Symmetric
}

// NewDense wraps a.
func NewDense(a mat.Symmetric) *Dense { return &Dense{a: a} }

// Size returns the order of the matrix.
func (d *Dense) Size() int { return d.a.SymmetricDim() }

// MulVecTo computes dst = A·x.
func (d *Dense) MulVecTo(dst, x []float64) {
	n := d.Size()
	mat.NewVecDense(n, dst).MulVec(d.a, mat.NewVecDense(n, x))
}

// Matrix returns the wrapped matrix.
func (d *Dense) Matrix() mat.Symmetric { return d.a }

// Shifted is Op + Shift·I. It carries the likelihood noise and any jitter.
type Shifted struct {
	Op    Operator
	Shift float64
}

// AddDiag returns op + s·I.
func AddDiag(op Operator, s float64) *Shifted { return &Shifted{Op: op, Shift: s} }

// Size returns the order of the wrapped operator.
func (s *Shifted) Size() int { return s.Op.Size() }

// MulVecTo computes dst = Op·x + Shift·x.
func (s *Shifted) MulVecTo(dst, x []float64) {
	s.Op.MulVecTo(dst, x)
	for i, v := range x {
		dst[i] += s.Shift * v
	}
}

// Interpolated is the implicit SKI product W·Inner·Wᵀ. It is never densified.
type Interpolated struct {
	W     *Sparse
	Inner Operator
}

// Size returns the number of interpolated points (rows of W).
func (p *Interpolated) Size() int { return p.W.Rows() }

// MulVecTo computes dst = W·(Inner·(Wᵀ·x)).
func (p *Interpolated) MulVecTo(dst, x []float64) {
	m := p.Inner.Size()
	t := make([]float64, m)
	u := make([]float64, m)
	p.W.TMulVecTo(t, x)
	p.Inner.MulVecTo(u, t)
	p.W.MulVecTo(dst, u)
}

// Outer is one rank-one term Coef·A·Bᵀ of a gradient contraction matrix.
// Backward passes of structured covariances accept a list of these instead of
// a dense n×n matrix.
type Outer struct {
	Coef float64
	A, B []float64
}
