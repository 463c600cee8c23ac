// SPDX-License-Identifier: MIT

package kernel

import "github.com/katalvlaran/kissgp/linalg"

// Scale multiplies its child by a learned positive outputscale. It owns the child.
type Scale struct {
	child Kernel
	raw   float64
}

var _ Separable = (*Scale)(nil)

// NewScale wraps child. The initial outputscale comes from WithOutputscale.
//
// A grid kernel is rejected with ErrGridChild; scale its base instead:
// grid.NewKernel(kernel.NewScale(base), g).
func NewScale(child Kernel, opts ...Option) (*Scale, error) {
	if child == nil {
		return nil, kernelErrorf(opNewKernel, ErrEmptyInput)
	}
	if child.Kind() == KindGridInterpolation {
		return nil, kernelErrorf(opNewKernel, ErrGridChild)
	}
	o := gatherOptions(opts)
	raw, err := positive.Raw(o.outputscale)
	if err != nil {
		return nil, kernelErrorf(opNewKernel, err)
	}

	return &Scale{child: child, raw: raw}, nil
}

func (k *Scale) Kind() Kind           { return KindScale }
func (k *Scale) Dims() int            { return k.child.Dims() }
func (k *Scale) Child() Kernel        { return k.child }
func (k *Scale) NumParams() int       { return 1 + k.child.NumParams() }
func (k *Scale) Outputscale() float64 { return positive.Value(k.raw) }

// Params returns [raw outputscale, child params...].
func (k *Scale) Params() []float64 {
	return append([]float64{k.raw}, k.child.Params()...)
}

// SetParams splits raw between the outputscale and the child.
func (k *Scale) SetParams(raw []float64) error {
	if len(raw) != k.NumParams() {
		return kernelErrorf(opSetParams, ErrParamCount)
	}
	if err := k.child.SetParams(raw[1:]); err != nil {
		return err
	}
	k.raw = raw[0]

	return nil
}

// ParamNames prefixes child names with "base.".
func (k *Scale) ParamNames() []string {
	names := []string{"outputscale"}
	for _, n := range k.child.ParamNames() {
		names = append(names, "base."+n)
	}

	return names
}

func (k *Scale) Eval(x, y []float64) float64 {
	return k.Outputscale() * k.child.Eval(x, y)
}

func (k *Scale) AccumParamGrad(dst, x, y []float64, w float64) {
	dst[0] += w * k.child.Eval(x, y) * positive.Grad(k.raw)
	k.child.AccumParamGrad(dst[1:], x, y, w*k.Outputscale())
}

func (k *Scale) AccumInputGrad(dst, x, y []float64, w float64) {
	k.child.AccumInputGrad(dst, x, y, w*k.Outputscale())
}

// GridTerms scales the child's terms. The child must be Separable.
func (k *Scale) GridTerms(lags [][]float64) ([]linalg.KronTerm, error) {
	child, ok := k.child.(Separable)
	if !ok {
		return nil, kernelErrorf(opGridTerms, ErrNotSeparable)
	}
	terms, err := child.GridTerms(lags)
	if err != nil {
		return nil, err
	}
	s := k.Outputscale()
	out := make([]linalg.KronTerm, len(terms))
	for i, t := range terms {
		out[i] = linalg.KronTerm{Coef: s * t.Coef, Columns: t.Columns}
	}

	return out, nil
}

// GridTermGrads prepends the outputscale gradient (child terms times
// softplus') to the child's gradients scaled by the outputscale.
func (k *Scale) GridTermGrads(lags [][]float64) ([][]linalg.KronTerm, error) {
	child, ok := k.child.(Separable)
	if !ok {
		return nil, kernelErrorf(opGridTerms, ErrNotSeparable)
	}
	terms, err := child.GridTerms(lags)
	if err != nil {
		return nil, err
	}
	childGrads, err := child.GridTermGrads(lags)
	if err != nil {
		return nil, err
	}

	chain := positive.Grad(k.raw)
	own := make([]linalg.KronTerm, len(terms))
	for i, t := range terms {
		own[i] = linalg.KronTerm{Coef: chain * t.Coef, Columns: t.Columns}
	}
	s := k.Outputscale()
	grads := [][]linalg.KronTerm{own}
	for _, g := range childGrads {
		scaled := make([]linalg.KronTerm, len(g))
		for i, t := range g {
			scaled[i] = linalg.KronTerm{Coef: s * t.Coef, Columns: t.Columns}
		}
		grads = append(grads, scaled)
	}

	return grads, nil
}
