// SPDX-License-Identifier: MIT

package gp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Mean is a prior mean function. Means in this package are constant in x,
// so they contribute no input gradient.
type Mean interface {
	NumParams() int
	Params() []float64
	SetParams(raw []float64) error
	ParamNames() []string
	// Eval returns m(x_i) for every row.
	Eval(x *mat.Dense) []float64
	// AccumGrad adds Σ_i w_i ∂m(x_i)/∂θ into dst.
	AccumGrad(dst []float64, x *mat.Dense, w []float64)
}

// ConstantMean is m(x) = c with c learned.
type ConstantMean struct {
	c float64
}

// NewConstantMean returns a constant mean starting at 0.
func NewConstantMean() *ConstantMean { return &ConstantMean{} }

// Constant returns c.
func (m *ConstantMean) Constant() float64 { return m.c }

func (m *ConstantMean) NumParams() int       { return 1 }
func (m *ConstantMean) Params() []float64    { return []float64{m.c} }
func (m *ConstantMean) ParamNames() []string { return []string{"constant"} }

func (m *ConstantMean) SetParams(raw []float64) error {
	if len(raw) != 1 {
		return fmt.Errorf("ConstantMean.SetParams: %w", ErrParamCount)
	}
	m.c = raw[0]

	return nil
}

func (m *ConstantMean) Eval(x *mat.Dense) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = m.c
	}

	return out
}

func (m *ConstantMean) AccumGrad(dst []float64, _ *mat.Dense, w []float64) {
	for _, v := range w {
		dst[0] += v
	}
}

// ZeroMean is m(x) = 0 with no parameters.
type ZeroMean struct{}

func (ZeroMean) NumParams() int       { return 0 }
func (ZeroMean) Params() []float64    { return nil }
func (ZeroMean) ParamNames() []string { return nil }

func (ZeroMean) SetParams(raw []float64) error {
	if len(raw) != 0 {
		return fmt.Errorf("ZeroMean.SetParams: %w", ErrParamCount)
	}

	return nil
}

func (ZeroMean) Eval(x *mat.Dense) []float64 {
	n, _ := x.Dims()

	return make([]float64, n)
}

func (ZeroMean) AccumGrad([]float64, *mat.Dense, []float64) {}
