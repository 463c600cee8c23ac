// SPDX-License-Identifier: MIT

package kernel

import (
	"fmt"
	"math"

	"github.com/katalvlaran/kissgp/linalg"
)

// RBF is the squared-exponential kernel exp(−½ Σ_d (x_d−y_d)²/ℓ_d²).
// Its amplitude comes from a Scale wrapper.
type RBF struct {
	dims int
	ard  bool
	raw  []float64 // raw length-scales: dims entries with ARD, else one
}

var _ Separable = (*RBF)(nil)

// NewRBF builds an RBF kernel for inputs of width dims (≥ 1).
func NewRBF(dims int, opts ...Option) (*RBF, error) {
	if dims <= 0 {
		return nil, kernelErrorf(opNewKernel, ErrDimensionMismatch)
	}
	o := gatherOptions(opts)
	n := 1
	if o.ard {
		n = dims
	}
	raw, err := positive.Raw(o.lengthscale)
	if err != nil {
		return nil, kernelErrorf(opNewKernel, err)
	}
	k := &RBF{dims: dims, ard: o.ard, raw: make([]float64, n)}
	for i := range k.raw {
		k.raw[i] = raw
	}

	return k, nil
}

func (k *RBF) Kind() Kind     { return KindRBF }
func (k *RBF) Dims() int      { return k.dims }
func (k *RBF) NumParams() int { return len(k.raw) }
func (k *RBF) ARD() bool      { return k.ard }
func (k *RBF) Params() []float64 {
	return append([]float64(nil), k.raw...)
}

// SetParams replaces the raw length-scales.
func (k *RBF) SetParams(raw []float64) error { return setRaw(k.raw, raw) }

// ParamNames returns "lengthscale" or "lengthscale[d]".
func (k *RBF) ParamNames() []string {
	if !k.ard {
		return []string{"lengthscale"}
	}
	names := make([]string, len(k.raw))
	for d := range names {
		names[d] = fmt.Sprintf("lengthscale[%d]", d)
	}

	return names
}

// Lengthscales returns the constrained length-scale of every dimension.
func (k *RBF) Lengthscales() []float64 {
	out := make([]float64, k.dims)
	for d := range out {
		out[d] = k.lengthscale(d)
	}

	return out
}

func (k *RBF) lengthscale(d int) float64 {
	if k.ard {
		return positive.Value(k.raw[d])
	}

	return positive.Value(k.raw[0])
}

// Eval returns k(x, y).
func (k *RBF) Eval(x, y []float64) float64 {
	s := 0.0
	for d := range x {
		l := k.lengthscale(d)
		t := (x[d] - y[d]) / l
		s += t * t
	}

	return math.Exp(-0.5 * s)
}

// AccumParamGrad adds w·∂k/∂raw. ∂k/∂ℓ_d = k·τ_d²/ℓ_d³.
func (k *RBF) AccumParamGrad(dst, x, y []float64, w float64) {
	v := k.Eval(x, y)
	for d := range x {
		l := k.lengthscale(d)
		tau := x[d] - y[d]
		g := w * v * tau * tau / (l * l * l)
		if k.ard {
			dst[d] += g * positive.Grad(k.raw[d])
		} else {
			dst[0] += g * positive.Grad(k.raw[0])
		}
	}
}

// AccumInputGrad adds w·∂k/∂x_d = −w·k·τ_d/ℓ_d².
func (k *RBF) AccumInputGrad(dst, x, y []float64, w float64) {
	v := k.Eval(x, y)
	for d := range x {
		l := k.lengthscale(d)
		dst[d] -= w * v * (x[d] - y[d]) / (l * l)
	}
}

func (k *RBF) column(d int, lags []float64) []float64 {
	l := k.lengthscale(d)
	col := make([]float64, len(lags))
	for i, tau := range lags {
		t := tau / l
		col[i] = math.Exp(-0.5 * t * t)
	}

	return col
}

// GridTerms returns the single Kronecker term ⊗_d Toeplitz(exp(−½ τ²/ℓ_d²)).
func (k *RBF) GridTerms(lags [][]float64) ([]linalg.KronTerm, error) {
	if len(lags) != k.dims {
		return nil, kernelErrorf(opGridTerms, ErrDimensionMismatch)
	}
	cols := make([][]float64, k.dims)
	for d := range cols {
		cols[d] = k.column(d, lags[d])
	}

	return []linalg.KronTerm{{Coef: 1, Columns: cols}}, nil
}

// GridTermGrads differentiates one factor at a time. A shared length-scale
// yields one term per dimension.
func (k *RBF) GridTermGrads(lags [][]float64) ([][]linalg.KronTerm, error) {
	base, err := k.GridTerms(lags)
	if err != nil {
		return nil, err
	}
	cols := base[0].Columns
	grads := make([][]linalg.KronTerm, len(k.raw))
	for d := 0; d < k.dims; d++ {
		l := k.lengthscale(d)
		p := 0
		if k.ard {
			p = d
		}
		chain := positive.Grad(k.raw[p])
		dcol := make([]float64, len(lags[d]))
		for i, tau := range lags[d] {
			dcol[i] = cols[d][i] * tau * tau / (l * l * l) * chain
		}
		term := make([][]float64, k.dims)
		copy(term, cols)
		term[d] = dcol
		grads[p] = append(grads[p], linalg.KronTerm{Coef: 1, Columns: term})
	}

	return grads, nil
}
