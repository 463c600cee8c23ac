// SPDX-License-Identifier: MIT
// Package: kernel
//
// Purpose:
//   - The Kernel interface and the dense helpers built only on it:
//     Matrix, Cross, MulVec (evaluate / matvec without storing K),
//     Backward (gradient contraction Σ_ij G_ij ∂k(x_i,x_j)) and MinEigenvalue.

package kernel

import (
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kissgp/linalg"
)

// Kind tags the kernel variant.
type Kind int

const (
	KindRBF Kind = iota
	KindScale
	KindSpectralMixture
	KindGridInterpolation
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindRBF:
		return "rbf"
	case KindScale:
		return "scale"
	case KindSpectralMixture:
		return "spectral_mixture"
	case KindGridInterpolation:
		return "grid_interpolation"
	}

	return "unknown"
}

// Kernel is a symmetric positive semi-definite covariance function.
//
// Parameters are raw (unconstrained) values; ParamNames has NumParams entries.
// The Accum methods add w times the derivative into dst and never reset it.
type Kernel interface {
	Kind() Kind
	// Dims is the input width the kernel was built for; 0 accepts any width.
	Dims() int

	NumParams() int
	Params() []float64
	SetParams(raw []float64) error
	ParamNames() []string

	Eval(x, y []float64) float64
	AccumParamGrad(dst, x, y []float64, w float64)
	AccumInputGrad(dst, x, y []float64, w float64)
}

// Separable kernels factor over dimensions on a regular grid. lags[d][k] is the
// distance k·h_d between grid points along dimension d.
type Separable interface {
	Kernel
	// GridTerms returns K_grid as Σ_t c_t ⊗_d Toeplitz(columns_{t,d}).
	GridTerms(lags [][]float64) ([]linalg.KronTerm, error)
	// GridTermGrads returns, for every raw parameter p, the terms of ∂K_grid/∂θ_p.
	GridTermGrads(lags [][]float64) ([][]linalg.KronTerm, error)
}

func rowsOf(x *mat.Dense) [][]float64 {
	r, _ := x.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = x.RawRowView(i)
	}

	return rows
}

func checkInputs(k Kernel, xs ...*mat.Dense) error {
	width := -1
	for _, x := range xs {
		if x == nil || x.IsEmpty() {
			return ErrEmptyInput
		}
		_, c := x.Dims()
		if width >= 0 && c != width {
			return ErrDimensionMismatch
		}
		width = c
	}
	if d := k.Dims(); d != 0 && d != width {
		return ErrDimensionMismatch
	}

	return nil
}

// Matrix returns K(X,X).
//
// Errors: ErrEmptyInput, ErrDimensionMismatch.
// Complexity: O(n²·cost(Eval)).
func Matrix(k Kernel, x *mat.Dense) (*mat.SymDense, error) {
	if err := checkInputs(k, x); err != nil {
		return nil, kernelErrorf(opMatrix, err)
	}
	rows := rowsOf(x)
	n := len(rows)
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, k.Eval(rows[i], rows[j]))
		}
	}

	return out, nil
}

// Cross returns K(A,B) (rows of A by rows of B).
func Cross(k Kernel, a, b *mat.Dense) (*mat.Dense, error) {
	if err := checkInputs(k, a, b); err != nil {
		return nil, kernelErrorf(opCross, err)
	}
	ra, rb := rowsOf(a), rowsOf(b)
	out := mat.NewDense(len(ra), len(rb), nil)
	for i, x := range ra {
		for j, y := range rb {
			out.Set(i, j, k.Eval(x, y))
		}
	}

	return out, nil
}

// Diag returns k(x_i, x_i) for every row.
func Diag(k Kernel, x *mat.Dense) []float64 {
	rows := rowsOf(x)
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = k.Eval(r, r)
	}

	return out
}

// MulVec returns K(A,B)·v one row at a time, without storing K.
func MulVec(k Kernel, a, b *mat.Dense, v []float64) ([]float64, error) {
	if err := checkInputs(k, a, b); err != nil {
		return nil, kernelErrorf(opMulVec, err)
	}
	ra, rb := rowsOf(a), rowsOf(b)
	if len(v) != len(rb) {
		return nil, kernelErrorf(opMulVec, ErrDimensionMismatch)
	}
	out := make([]float64, len(ra))
	for i, x := range ra {
		s := 0.0
		for j, y := range rb {
			s += k.Eval(x, y) * v[j]
		}
		out[i] = s
	}

	return out, nil
}

// Backward accumulates Σ_ij G_ij ∂k(x_i,x_j)/∂θ into dParams and, when dX is
// not nil, Σ_j G_ij ∂k/∂x_i + Σ_j G_ji ∂k/∂x_i into row i of dX.
// G need not be symmetric. Diagonal input terms are skipped; they vanish for
// stationary kernels.
func Backward(k Kernel, x *mat.Dense, g mat.Matrix, dParams []float64, dX *mat.Dense) {
	rows := rowsOf(x)
	n := len(rows)
	for i := 0; i < n; i++ {
		var dxi []float64
		if dX != nil {
			dxi = dX.RawRowView(i)
		}
		for j := 0; j < n; j++ {
			w := g.At(i, j)
			if w == 0 {
				continue
			}
			k.AccumParamGrad(dParams, rows[i], rows[j], w)
			if dX != nil && i != j {
				// ∂k(x_i,x_j)/∂x_j equals ∂k(x_j,x_i)/∂x_j by symmetry.
				k.AccumInputGrad(dxi, rows[i], rows[j], w)
				k.AccumInputGrad(dX.RawRowView(j), rows[j], rows[i], w)
			}
		}
	}
}

// MinEigenvalue returns the smallest eigenvalue of K(X,X). A valid kernel
// yields a value ≥ −ε for distinct inputs.
func MinEigenvalue(k Kernel, x *mat.Dense) (float64, error) {
	km, err := Matrix(k, x)
	if err != nil {
		return 0, err
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(km, false); !ok {
		return 0, kernelErrorf(opMinEigen, linalg.ErrEigenFailed)
	}

	return eig.Values(nil)[0], nil
}

func setRaw(dst []float64, src []float64) error {
	if len(src) != len(dst) {
		return kernelErrorf(opSetParams, ErrParamCount)
	}
	copy(dst, src)

	return nil
}
