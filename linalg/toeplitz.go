// SPDX-License-Identifier: MIT
// Package: linalg
//
// Purpose:
//   - Symmetric Toeplitz matrix-vector products in O(m log m).
//
// Algorithm:
//  1. Embed the m×m Toeplitz matrix T (first column c) into a circulant C of
//     order L = 2^⌈log₂(2m−1)⌉ with first column [c₀..c_{m−1}, 0.., c_{m−1}..c₁].
//  2. The eigenvalues of C are the DFT of that column; they are computed once.
//  3. T·x is the first m entries of IDFT(DFT(C col) ⊙ DFT(x padded with zeros)).
//
// Notes:
//   - gonum's real FFT is unnormalised in both directions, so the product is
//     divided by L.
//   - fourier.FFT keeps internal work space; each call borrows one from a pool.

package linalg

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Toeplitz is a symmetric Toeplitz matrix given by its first column.
type Toeplitz struct {
	col  []float64
	l    int
	eig  []complex128
	pool sync.Pool
}

type toeplitzWork struct {
	fft  *fourier.FFT
	buf  []float64
	coef []complex128
}

// NewToeplitz builds the operator for first column col (len ≥ 1).
// col is copied.
func NewToeplitz(col []float64) (*Toeplitz, error) {
	m := len(col)
	if m == 0 {
		return nil, linalgErrorf(opToeplitz, ErrEmpty)
	}
	t := &Toeplitz{col: append([]float64(nil), col...)}
	if m == 1 {
		return t, nil
	}

	l := 1
	for l < 2*m-1 {
		l <<= 1
	}
	t.l = l

	circ := make([]float64, l)
	copy(circ, col)
	for k := 1; k < m; k++ {
		circ[l-k] = col[k]
	}
	fft := fourier.NewFFT(l)
	t.eig = fft.Coefficients(nil, circ)
	t.pool.New = func() any {
		return &toeplitzWork{
			fft:  fourier.NewFFT(l),
			buf:  make([]float64, l),
			coef: make([]complex128, l/2+1),
		}
	}
	t.pool.Put(&toeplitzWork{fft: fft, buf: make([]float64, l), coef: make([]complex128, l/2+1)})

	return t, nil
}

// Size returns m.
func (t *Toeplitz) Size() int { return len(t.col) }

// At returns T[i,j] = c[|i−j|].
func (t *Toeplitz) At(i, j int) float64 {
	if i < j {
		i, j = j, i
	}

	return t.col[i-j]
}

// Column returns the first column. Callers must not modify it.
func (t *Toeplitz) Column() []float64 { return t.col }

// MulVecTo computes dst = T·x.
func (t *Toeplitz) MulVecTo(dst, x []float64) {
	m := len(t.col)
	if m == 1 {
		dst[0] = t.col[0] * x[0]

		return
	}

	w := t.pool.Get().(*toeplitzWork)
	defer t.pool.Put(w)

	copy(w.buf, x)
	for i := m; i < t.l; i++ {
		w.buf[i] = 0
	}
	w.coef = w.fft.Coefficients(w.coef, w.buf)
	for i := range w.coef {
		w.coef[i] *= t.eig[i]
	}
	w.buf = w.fft.Sequence(w.buf, w.coef)

	inv := 1 / float64(t.l)
	for i := 0; i < m; i++ {
		dst[i] = w.buf[i] * inv
	}
}
