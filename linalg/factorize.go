// SPDX-License-Identifier: MIT

package linalg

import "gonum.org/v1/gonum/mat"

// Factorize computes the exact Cholesky factorization of a + jitter·I.
// Returns ErrNotPositiveDefinite when the factorization fails.
func Factorize(a mat.Symmetric, jitter float64) (*mat.Cholesky, error) {
	n := a.SymmetricDim()
	if n == 0 {
		return nil, linalgErrorf(opFactorize, ErrEmpty)
	}
	s := mat.NewSymDense(n, nil)
	s.CopySym(a)
	if jitter != 0 {
		for i := 0; i < n; i++ {
			s.SetSym(i, i, s.At(i, i)+jitter)
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(s); !ok {
		return nil, linalgErrorf(opFactorize, ErrNotPositiveDefinite)
	}

	return &chol, nil
}
