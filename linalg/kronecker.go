// SPDX-License-Identifier: MIT
// Package: linalg
//
// Purpose:
//   - Represent the grid covariance of a separable stationary kernel on a
//     Cartesian grid: K_grid = Σ_t c_t · (T_{t,1} ⊗ T_{t,2} ⊗ … ⊗ T_{t,D}).
//     A single RBF term gives the plain Kronecker product of Toeplitz factors;
//     a spectral mixture gives one term per component.
//
// Layout:
//   - Flat grid index is row-major over dims (last dimension fastest).
//
// Complexity:
//   - MulVecTo: O(T · m · Σ_d log m_d) where m = Π_d m_d.
//   - At: O(T · D), no FFT work.

package linalg

import "sync"

// KronTerm is one Kronecker term: Coef times the product of symmetric Toeplitz
// factors, one per grid dimension, each given by its first column.
type KronTerm struct {
	Coef    float64
	Columns [][]float64
}

// KronSum is a sum of Kronecker products of symmetric Toeplitz matrices.
// FFT factors are built lazily on the first product.
type KronSum struct {
	dims    []int
	strides []int
	size    int
	terms   []KronTerm

	once    sync.Once
	factors [][]*Toeplitz
	err     error
}

// NewKronSum validates terms against the per-dimension sizes dims.
func NewKronSum(dims []int, terms []KronTerm) (*KronSum, error) {
	if len(dims) == 0 || len(terms) == 0 {
		return nil, linalgErrorf(opKronSum, ErrEmpty)
	}
	size := 1
	strides := make([]int, len(dims))
	for d := len(dims) - 1; d >= 0; d-- {
		if dims[d] <= 0 {
			return nil, linalgErrorf(opKronSum, ErrEmpty)
		}
		strides[d] = size
		size *= dims[d]
	}
	for _, t := range terms {
		if len(t.Columns) != len(dims) {
			return nil, linalgErrorf(opKronSum, ErrDimensionMismatch)
		}
		for d, c := range t.Columns {
			if len(c) != dims[d] {
				return nil, linalgErrorf(opKronSum, ErrDimensionMismatch)
			}
		}
	}

	return &KronSum{
		dims:    append([]int(nil), dims...),
		strides: strides,
		size:    size,
		terms:   terms,
	}, nil
}

// Size returns Π_d m_d.
func (k *KronSum) Size() int { return k.size }

// Dims returns the per-dimension grid sizes.
func (k *KronSum) Dims() []int { return k.dims }

// Terms returns the Kronecker terms.
func (k *KronSum) Terms() []KronTerm { return k.terms }

// At returns K_grid[i,j] for flat grid indices i and j.
func (k *KronSum) At(i, j int) float64 {
	sum := 0.0
	for _, t := range k.terms {
		v := t.Coef
		for d, stride := range k.strides {
			a := (i / stride) % k.dims[d]
			b := (j / stride) % k.dims[d]
			lag := a - b
			if lag < 0 {
				lag = -lag
			}
			v *= t.Columns[d][lag]
		}
		sum += v
	}

	return sum
}

func (k *KronSum) build() {
	k.factors = make([][]*Toeplitz, len(k.terms))
	for ti, t := range k.terms {
		k.factors[ti] = make([]*Toeplitz, len(t.Columns))
		for d, c := range t.Columns {
			f, err := NewToeplitz(c)
			if err != nil {
				k.err = err

				return
			}
			k.factors[ti][d] = f
		}
	}
}

// MulVecTo computes dst = K_grid·x.
func (k *KronSum) MulVecTo(dst, x []float64) {
	k.once.Do(k.build)
	if k.err != nil {
		// NewKronSum already rejected every input NewToeplitz can fail on.
		panic(k.err)
	}

	for i := range dst {
		dst[i] = 0
	}
	work := make([]float64, k.size)
	for ti, t := range k.terms {
		copy(work, x)
		k.applyKron(work, k.factors[ti])
		for i, v := range work {
			dst[i] += t.Coef * v
		}
	}
}

// applyKron multiplies v in place by ⊗_d factors[d], one mode at a time.
func (k *KronSum) applyKron(v []float64, factors []*Toeplitz) {
	for d, f := range factors {
		m := k.dims[d]
		if m == 1 {
			for i := range v {
				v[i] *= f.col[0]
			}

			continue
		}
		inner := k.strides[d]
		outer := k.size / (m * inner)
		in := make([]float64, m)
		out := make([]float64, m)
		for o := 0; o < outer; o++ {
			base := o * m * inner
			for s := 0; s < inner; s++ {
				for j := 0; j < m; j++ {
					in[j] = v[base+j*inner+s]
				}
				f.MulVecTo(out, in)
				for j := 0; j < m; j++ {
					v[base+j*inner+s] = out[j]
				}
			}
		}
	}
}
