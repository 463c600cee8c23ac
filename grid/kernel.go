// SPDX-License-Identifier: MIT
// Package: grid
//
// Purpose:
//   - GridInterpolation kernel variant: k_SKI(x,y) = w(x)ᵀ·K_grid·w(y).
//   - Covariance: the implicit n×n operator W·K_grid·Wᵀ plus the cross and
//     prior products the predictive path needs.
//   - Backward: Σ_r c_r a_rᵀ (∂K/∂θ) b_r and the matching input gradients,
//     without ever forming an n×n matrix.

package grid

import (
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kissgp/kernel"
	"github.com/katalvlaran/kissgp/linalg"
)

// Kernel is the grid-interpolated version of a separable base kernel. It owns
// its base; parameters are the base's parameters.
type Kernel struct {
	base kernel.Separable
	grid *Grid
}

var _ kernel.Kernel = (*Kernel)(nil)

// NewKernel wraps base on g.
//
// Errors: kernel.ErrNotSeparable, ErrDimensionMismatch.
func NewKernel(base kernel.Kernel, g *Grid) (*Kernel, error) {
	sep, ok := base.(kernel.Separable)
	if !ok {
		return nil, gridErrorf(opKernel, kernel.ErrNotSeparable)
	}
	if d := base.Dims(); d != 0 && d != g.Dims() {
		return nil, gridErrorf(opKernel, ErrDimensionMismatch)
	}
	if _, err := sep.GridTerms(g.Lags()); err != nil {
		return nil, gridErrorf(opKernel, err)
	}

	return &Kernel{base: sep, grid: g}, nil
}

func (k *Kernel) Kind() kernel.Kind             { return kernel.KindGridInterpolation }
func (k *Kernel) Dims() int                     { return k.grid.Dims() }
func (k *Kernel) Base() kernel.Kernel           { return k.base }
func (k *Kernel) Grid() *Grid                   { return k.grid }
func (k *Kernel) NumParams() int                { return k.base.NumParams() }
func (k *Kernel) Params() []float64             { return k.base.Params() }
func (k *Kernel) SetParams(raw []float64) error { return k.base.SetParams(raw) }
func (k *Kernel) ParamNames() []string          { return k.base.ParamNames() }

// GridCovariance returns K_grid for the current parameters.
func (k *Kernel) GridCovariance() (*linalg.KronSum, error) {
	terms, err := k.base.GridTerms(k.grid.Lags())
	if err != nil {
		return nil, err
	}

	return linalg.NewKronSum(k.grid.sizes, terms)
}

// bilinear returns Σ_ab wx[a]·wy[b]·K[ia,ib].
func bilinear(ks *linalg.KronSum, ix []int, wx []float64, iy []int, wy []float64) float64 {
	s := 0.0
	for a, i := range ix {
		if wx[a] == 0 {
			continue
		}
		for b, j := range iy {
			s += wx[a] * wy[b] * ks.At(i, j)
		}
	}

	return s
}

// mustPair returns the weights of x and y. The pointwise Kernel methods have
// no error return, so a point the grid cannot interpolate panics.
func (k *Kernel) mustPair(x, y []float64, withGrad bool) (ix []int, wx []float64, dwx [][]float64, iy []int, wy []float64) {
	ix, wx, dwx, err := k.grid.pointWeights(x, withGrad)
	if err != nil {
		panic(panicPointwise + err.Error())
	}
	iy, wy, _, err = k.grid.pointWeights(y, false)
	if err != nil {
		panic(panicPointwise + err.Error())
	}

	return ix, wx, dwx, iy, wy
}

func (k *Kernel) mustGridCovariance() *linalg.KronSum {
	ks, err := k.GridCovariance()
	if err != nil {
		panic(panicPointwise + err.Error())
	}

	return ks
}

// Eval returns w(x)ᵀK_grid w(y). It is meant for checks on a handful of
// points: it rebuilds K_grid on every call and panics on a point outside the
// grid. Models go through Covariance, which reports ErrOutOfBounds.
func (k *Kernel) Eval(x, y []float64) float64 {
	ix, wx, _, iy, wy := k.mustPair(x, y, false)

	return bilinear(k.mustGridCovariance(), ix, wx, iy, wy)
}

// AccumParamGrad adds w·w(x)ᵀ(∂K_grid/∂θ)w(y). It panics like Eval.
func (k *Kernel) AccumParamGrad(dst, x, y []float64, w float64) {
	ix, wx, _, iy, wy := k.mustPair(x, y, false)
	grads, err := k.base.GridTermGrads(k.grid.Lags())
	if err != nil {
		panic(panicPointwise + err.Error())
	}
	for p, terms := range grads {
		ks, err := linalg.NewKronSum(k.grid.sizes, terms)
		if err != nil {
			panic(panicPointwise + err.Error())
		}
		dst[p] += w * bilinear(ks, ix, wx, iy, wy)
	}
}

// AccumInputGrad adds w·(∂w(x)/∂x_d)ᵀK_grid w(y). It panics like Eval.
func (k *Kernel) AccumInputGrad(dst, x, y []float64, w float64) {
	ix, _, dwx, iy, wy := k.mustPair(x, y, true)
	ks := k.mustGridCovariance()
	for d := range dst {
		dst[d] += w * bilinear(ks, ix, dwx[d], iy, wy)
	}
}

// Covariance is the implicit SKI covariance W·K_grid·Wᵀ for a fixed input batch.
type Covariance struct {
	interp *Interp
	kg     *linalg.KronSum
	op     *linalg.Interpolated
}

var _ linalg.Operator = (*Covariance)(nil)

// Covariance builds the implicit covariance of x. withGrad also keeps ∂W/∂x
// for Backward.
//
// Errors: ErrDimensionMismatch, ErrOutOfBounds.
func (k *Kernel) Covariance(x *mat.Dense, withGrad bool) (*Covariance, error) {
	interp, err := k.grid.Weights(x, withGrad)
	if err != nil {
		return nil, gridErrorf(opCov, err)
	}
	kg, err := k.GridCovariance()
	if err != nil {
		return nil, gridErrorf(opCov, err)
	}

	return &Covariance{
		interp: interp,
		kg:     kg,
		op:     &linalg.Interpolated{W: interp.W, Inner: kg},
	}, nil
}

// Size returns n.
func (c *Covariance) Size() int { return c.op.Size() }

// MulVecTo computes dst = W·K_grid·Wᵀ·x.
func (c *Covariance) MulVecTo(dst, x []float64) { c.op.MulVecTo(dst, x) }

// Interp returns the interpolation weights of the batch.
func (c *Covariance) Interp() *Interp { return c.interp }

// GridOperator returns K_grid.
func (c *Covariance) GridOperator() *linalg.KronSum { return c.kg }

// GridVector returns K_grid·Wᵀ·v, a length-m vector. With v = α it is the
// predictive mean cache: μ(x*) = m(x*) + w(x*)ᵀ·GridVector(α).
func (c *Covariance) GridVector(v []float64) []float64 {
	m := c.kg.Size()
	t := make([]float64, m)
	out := make([]float64, m)
	c.interp.W.TMulVecTo(t, v)
	c.kg.MulVecTo(out, t)

	return out
}

// CrossColumn returns column j of K(X, X*) = W·K_grid·w*_j.
func (c *Covariance) CrossColumn(star *Interp, j int) []float64 {
	m := c.kg.Size()
	e := make([]float64, m)
	idx, val := star.W.Row(j)
	for s, col := range idx {
		e[col] += val[s]
	}
	ke := make([]float64, m)
	c.kg.MulVecTo(ke, e)
	out := make([]float64, c.Size())
	c.interp.W.MulVecTo(out, ke)

	return out
}

// PriorDiag returns w*_jᵀK_grid w*_j for every test row.
func (c *Covariance) PriorDiag(star *Interp) []float64 {
	n := star.W.Rows()
	out := make([]float64, n)
	for j := 0; j < n; j++ {
		idx, val := star.W.Row(j)
		out[j] = bilinear(c.kg, idx, val, idx, val)
	}

	return out
}

// Prior returns the dense SKI prior covariance W*·K_grid·W*ᵀ of the test rows.
func (c *Covariance) Prior(star *Interp) *mat.SymDense {
	n := star.W.Rows()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		ii, vi := star.W.Row(i)
		for j := i; j < n; j++ {
			ij, vj := star.W.Row(j)
			out.SetSym(i, j, bilinear(c.kg, ii, vi, ij, vj))
		}
	}

	return out
}

// Backward accumulates the contraction of ∂(W·K_grid·Wᵀ) with G = Σ_r c_r a_r b_rᵀ:
//
//	dParams[p] += Σ_r c_r (Wᵀa_r)ᵀ ∂K_grid/∂θ_p (Wᵀb_r)
//	∂/∂W_ij    =  Σ_r c_r [a_ri (K_grid Wᵀb_r)_j + b_ri (K_grid Wᵀa_r)_j]
//
// and chains the latter through ∂W/∂x into dX when dX is not nil.
func (k *Kernel) Backward(c *Covariance, outers []linalg.Outer, dParams []float64, dX *mat.Dense) error {
	if dX != nil && c.interp.DW == nil {
		return gridErrorf(opBackward, ErrNoGradient)
	}
	m := c.kg.Size()
	proj := make([][2][]float64, len(outers))
	for r, o := range outers {
		a := make([]float64, m)
		b := make([]float64, m)
		c.interp.W.TMulVecTo(a, o.A)
		c.interp.W.TMulVecTo(b, o.B)
		proj[r] = [2][]float64{a, b}
	}

	grads, err := k.base.GridTermGrads(k.grid.Lags())
	if err != nil {
		return gridErrorf(opBackward, err)
	}
	tmp := make([]float64, m)
	for p, terms := range grads {
		ks, err := linalg.NewKronSum(k.grid.sizes, terms)
		if err != nil {
			return gridErrorf(opBackward, err)
		}
		for r, o := range outers {
			ks.MulVecTo(tmp, proj[r][1])
			s := 0.0
			for j, v := range proj[r][0] {
				s += v * tmp[j]
			}
			dParams[p] += o.Coef * s
		}
	}

	if dX == nil {
		return nil
	}
	n := c.Size()
	dims := k.grid.Dims()
	for r, o := range outers {
		ka := make([]float64, m)
		kb := make([]float64, m)
		c.kg.MulVecTo(ka, proj[r][0])
		c.kg.MulVecTo(kb, proj[r][1])
		for i := 0; i < n; i++ {
			idx, _ := c.interp.W.Row(i)
			row := dX.RawRowView(i)
			for s, j := range idx {
				g := o.Coef * (o.A[i]*kb[j] + o.B[i]*ka[j])
				if g == 0 {
					continue
				}
				for d := 0; d < dims; d++ {
					_, dval := c.interp.DW[d].Row(i)
					row[d] += g * dval[s]
				}
			}
		}
	}

	return nil
}
