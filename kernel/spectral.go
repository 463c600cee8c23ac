// SPDX-License-Identifier: MIT
// Package: kernel
//
// Purpose:
//   - Spectral-mixture kernel: a Gaussian mixture over the spectral density,
//     k(τ) = Σ_q w_q Π_d exp(−2π²τ_d²s_qd²)·cos(2πτ_dμ_qd), with v = s².
//   - Data-driven initialisation (InitFromData).
//
// Parameter layout (raw, softplus-constrained):
//
//	[w_1..w_Q | s_11..s_1D, …, s_Q1..s_QD | μ_11..μ_1D, …, μ_Q1..μ_QD]

package kernel

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/kissgp/linalg"
)

// maxInitPoints bounds the O(n²) pairwise-distance pass of InitFromData.
const maxInitPoints = 512

// SpectralMixture is the Q-component spectral-mixture kernel.
type SpectralMixture struct {
	q, dims int
	rawW    []float64
	rawS    []float64
	rawM    []float64
}

var _ Separable = (*SpectralMixture)(nil)

// NewSpectralMixture builds a mixture of q components for inputs of width
// dims. All parameters start at raw 0 until InitFromData is called.
func NewSpectralMixture(q, dims int) (*SpectralMixture, error) {
	if q <= 0 {
		return nil, kernelErrorf(opNewKernel, ErrNonPositive)
	}
	if dims <= 0 {
		return nil, kernelErrorf(opNewKernel, ErrDimensionMismatch)
	}

	return &SpectralMixture{
		q:    q,
		dims: dims,
		rawW: make([]float64, q),
		rawS: make([]float64, q*dims),
		rawM: make([]float64, q*dims),
	}, nil
}

func (k *SpectralMixture) Kind() Kind     { return KindSpectralMixture }
func (k *SpectralMixture) Dims() int      { return k.dims }
func (k *SpectralMixture) Mixtures() int  { return k.q }
func (k *SpectralMixture) NumParams() int { return k.q + 2*k.q*k.dims }

func (k *SpectralMixture) Params() []float64 {
	out := make([]float64, 0, k.NumParams())
	out = append(out, k.rawW...)
	out = append(out, k.rawS...)

	return append(out, k.rawM...)
}

func (k *SpectralMixture) SetParams(raw []float64) error {
	if len(raw) != k.NumParams() {
		return kernelErrorf(opSetParams, ErrParamCount)
	}
	qd := k.q * k.dims
	copy(k.rawW, raw[:k.q])
	copy(k.rawS, raw[k.q:k.q+qd])
	copy(k.rawM, raw[k.q+qd:])

	return nil
}

func (k *SpectralMixture) ParamNames() []string {
	names := make([]string, 0, k.NumParams())
	for q := 0; q < k.q; q++ {
		names = append(names, fmt.Sprintf("weight[%d]", q))
	}
	for q := 0; q < k.q; q++ {
		for d := 0; d < k.dims; d++ {
			names = append(names, fmt.Sprintf("scale[%d,%d]", q, d))
		}
	}
	for q := 0; q < k.q; q++ {
		for d := 0; d < k.dims; d++ {
			names = append(names, fmt.Sprintf("mean[%d,%d]", q, d))
		}
	}

	return names
}

// Weights, Scales and Means return constrained values; Scales and Means are
// row-major Q×D.
func (k *SpectralMixture) Weights() []float64 { return constrained(k.rawW) }
func (k *SpectralMixture) Scales() []float64  { return constrained(k.rawS) }
func (k *SpectralMixture) Means() []float64   { return constrained(k.rawM) }

func constrained(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, r := range raw {
		out[i] = positive.Value(r)
	}

	return out
}

// factor returns exp(−2π²τ²s²) and cos(2πτμ) for one component and dimension.
func factor(tau, s, mu float64) (env, cos float64) {
	return math.Exp(-2 * math.Pi * math.Pi * tau * tau * s * s), math.Cos(2 * math.Pi * tau * mu)
}

func (k *SpectralMixture) Eval(x, y []float64) float64 {
	sum := 0.0
	for q := 0; q < k.q; q++ {
		prod := positive.Value(k.rawW[q])
		for d := 0; d < k.dims; d++ {
			i := q*k.dims + d
			env, cos := factor(x[d]-y[d], positive.Value(k.rawS[i]), positive.Value(k.rawM[i]))
			prod *= env * cos
		}
		sum += prod
	}

	return sum
}

// componentFactors fills the envelope and cosine factor of component q for
// every dimension.
func (k *SpectralMixture) componentFactors(q int, x, y []float64, env, cos []float64) {
	for d := 0; d < k.dims; d++ {
		i := q*k.dims + d
		env[d], cos[d] = factor(x[d]-y[d], positive.Value(k.rawS[i]), positive.Value(k.rawM[i]))
	}
}

func othersProduct(env, cos []float64, skip int) float64 {
	p := 1.0
	for d := range env {
		if d != skip {
			p *= env[d] * cos[d]
		}
	}

	return p
}

func (k *SpectralMixture) AccumParamGrad(dst, x, y []float64, w float64) {
	env := make([]float64, k.dims)
	cos := make([]float64, k.dims)
	qd := k.q * k.dims
	for q := 0; q < k.q; q++ {
		k.componentFactors(q, x, y, env, cos)
		weight := positive.Value(k.rawW[q])
		dst[q] += w * othersProduct(env, cos, -1) * positive.Grad(k.rawW[q])
		for d := 0; d < k.dims; d++ {
			i := q*k.dims + d
			tau := x[d] - y[d]
			s, mu := positive.Value(k.rawS[i]), positive.Value(k.rawM[i])
			rest := w * weight * othersProduct(env, cos, d)
			dEnv := env[d] * (-4 * math.Pi * math.Pi * tau * tau * s)
			dst[k.q+i] += rest * dEnv * cos[d] * positive.Grad(k.rawS[i])
			dCos := -math.Sin(2*math.Pi*tau*mu) * 2 * math.Pi * tau
			dst[k.q+qd+i] += rest * env[d] * dCos * positive.Grad(k.rawM[i])
		}
	}
}

func (k *SpectralMixture) AccumInputGrad(dst, x, y []float64, w float64) {
	env := make([]float64, k.dims)
	cos := make([]float64, k.dims)
	for q := 0; q < k.q; q++ {
		k.componentFactors(q, x, y, env, cos)
		weight := positive.Value(k.rawW[q])
		for d := 0; d < k.dims; d++ {
			i := q*k.dims + d
			tau := x[d] - y[d]
			s, mu := positive.Value(k.rawS[i]), positive.Value(k.rawM[i])
			dEnv := env[d] * (-4 * math.Pi * math.Pi * tau * s * s)
			dCos := -math.Sin(2*math.Pi*tau*mu) * 2 * math.Pi * mu
			dst[d] += w * weight * othersProduct(env, cos, d) * (dEnv*cos[d] + env[d]*dCos)
		}
	}
}

func (k *SpectralMixture) columns(q int, lags [][]float64) (env, cos [][]float64) {
	env = make([][]float64, k.dims)
	cos = make([][]float64, k.dims)
	for d := 0; d < k.dims; d++ {
		i := q*k.dims + d
		s, mu := positive.Value(k.rawS[i]), positive.Value(k.rawM[i])
		env[d] = make([]float64, len(lags[d]))
		cos[d] = make([]float64, len(lags[d]))
		for j, tau := range lags[d] {
			env[d][j], cos[d][j] = factor(tau, s, mu)
		}
	}

	return env, cos
}

func product(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}

	return out
}

// GridTerms returns one Kronecker term per mixture component.
func (k *SpectralMixture) GridTerms(lags [][]float64) ([]linalg.KronTerm, error) {
	if len(lags) != k.dims {
		return nil, kernelErrorf(opGridTerms, ErrDimensionMismatch)
	}
	terms := make([]linalg.KronTerm, k.q)
	for q := range terms {
		env, cos := k.columns(q, lags)
		cols := make([][]float64, k.dims)
		for d := range cols {
			cols[d] = product(env[d], cos[d])
		}
		terms[q] = linalg.KronTerm{Coef: positive.Value(k.rawW[q]), Columns: cols}
	}

	return terms, nil
}

// GridTermGrads differentiates one component factor at a time.
func (k *SpectralMixture) GridTermGrads(lags [][]float64) ([][]linalg.KronTerm, error) {
	terms, err := k.GridTerms(lags)
	if err != nil {
		return nil, err
	}
	grads := make([][]linalg.KronTerm, k.NumParams())
	qd := k.q * k.dims
	for q := 0; q < k.q; q++ {
		grads[q] = []linalg.KronTerm{{Coef: positive.Grad(k.rawW[q]), Columns: terms[q].Columns}}
		env, cos := k.columns(q, lags)
		for d := 0; d < k.dims; d++ {
			i := q*k.dims + d
			s, mu := positive.Value(k.rawS[i]), positive.Value(k.rawM[i])
			ds := make([]float64, len(lags[d]))
			dm := make([]float64, len(lags[d]))
			for j, tau := range lags[d] {
				ds[j] = env[d][j] * (-4 * math.Pi * math.Pi * tau * tau * s) * cos[d][j] * positive.Grad(k.rawS[i])
				dm[j] = env[d][j] * (-math.Sin(2*math.Pi*tau*mu) * 2 * math.Pi * tau) * positive.Grad(k.rawM[i])
			}
			grads[k.q+i] = []linalg.KronTerm{{Coef: terms[q].Coef, Columns: replaced(terms[q].Columns, d, ds)}}
			grads[k.q+qd+i] = []linalg.KronTerm{{Coef: terms[q].Coef, Columns: replaced(terms[q].Columns, d, dm)}}
		}
	}

	return grads, nil
}

func replaced(cols [][]float64, d int, col []float64) [][]float64 {
	out := make([][]float64, len(cols))
	copy(out, cols)
	out[d] = col

	return out
}

// InitFromData sets the mixture from the training set:
//   - weights: Var(y)/Q;
//   - per dimension, envelope length-scales ℓ_q from the (q+1)/(Q+1)
//     quantiles of the pairwise input distances, giving s_q = 1/(2πℓ_q);
//   - per dimension, frequencies μ_q spread evenly from 1/span (the lowest
//     resolvable frequency) up to the Nyquist frequency 0.5/Δ_min, lowest
//     frequency paired with the longest envelope.
//
// The initialisation is deterministic.
func (k *SpectralMixture) InitFromData(x *mat.Dense, y []float64) error {
	if x == nil || x.IsEmpty() || len(y) == 0 {
		return kernelErrorf(opInitData, ErrEmptyInput)
	}
	n, c := x.Dims()
	if c != k.dims || len(y) != n {
		return kernelErrorf(opInitData, ErrDimensionMismatch)
	}

	variance := 1.0
	if n > 1 {
		if v := stat.Variance(y, nil); v > 0 {
			variance = v
		}
	}
	for q := range k.rawW {
		raw, err := positive.Raw(variance / float64(k.q))
		if err != nil {
			return kernelErrorf(opInitData, err)
		}
		k.rawW[q] = raw
	}

	m := min(n, maxInitPoints)
	for d := 0; d < k.dims; d++ {
		col := make([]float64, m)
		for i := range col {
			col[i] = x.At(i*n/m, d)
		}
		sort.Float64s(col)

		span := col[m-1] - col[0]
		minGap := math.Inf(1)
		for i := 1; i < m; i++ {
			if g := col[i] - col[i-1]; g > 0 && g < minGap {
				minGap = g
			}
		}
		if !(span > 0) {
			span, minGap = 1, 1
		}

		dists := make([]float64, 0, m*(m-1)/2)
		for i := 0; i < m; i++ {
			for j := i + 1; j < m; j++ {
				if dd := col[j] - col[i]; dd > 0 {
					dists = append(dists, dd)
				}
			}
		}
		sort.Float64s(dists)

		fLow, fHigh := 1/span, 0.5/minGap
		if fHigh < fLow {
			fLow, fHigh = fHigh, fLow
		}
		for q := 0; q < k.q; q++ {
			i := q*k.dims + d
			ell := span
			if len(dists) > 0 {
				ell = stat.Quantile(float64(k.q-q)/float64(k.q+1), stat.Empirical, dists, nil)
			}
			mu := fLow
			if k.q > 1 {
				mu = fLow + (fHigh-fLow)*float64(q)/float64(k.q-1)
			}
			rawS, err := positive.Raw(1 / (2 * math.Pi * ell))
			if err != nil {
				return kernelErrorf(opInitData, err)
			}
			rawM, err := positive.Raw(mu)
			if err != nil {
				return kernelErrorf(opInitData, err)
			}
			k.rawS[i], k.rawM[i] = rawS, rawM
		}
	}

	return nil
}
