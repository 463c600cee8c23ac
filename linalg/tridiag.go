// SPDX-License-Identifier: MIT

package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Tridiag is a symmetric tridiagonal matrix: Diag has k entries, Off has k−1.
type Tridiag struct {
	Diag []float64
	Off  []float64
}

// Len returns k.
func (t *Tridiag) Len() int { return len(t.Diag) }

// Eigen returns the eigenvalues of T (ascending) and the matrix of
// eigenvectors (columns).
func (t *Tridiag) Eigen() ([]float64, *mat.Dense, error) {
	k := t.Len()
	if k == 0 {
		return nil, nil, linalgErrorf(opQuadrature, ErrEmpty)
	}
	s := mat.NewSymDense(k, nil)
	for j := 0; j < k; j++ {
		s.SetSym(j, j, t.Diag[j])
		if j < k-1 {
			s.SetSym(j, j+1, t.Off[j])
		}
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(s, true); !ok {
		return nil, nil, linalgErrorf(opQuadrature, ErrEigenFailed)
	}
	vecs := mat.NewDense(k, k, nil)
	eig.VectorsTo(vecs)

	return eig.Values(nil), vecs, nil
}

// Quadrature applies Gauss quadrature with nodes λ_i and weights (e₁ᵀv_i)²:
// it returns norm2·Σ_i w_i·log λ_i and norm2·Σ_i w_i/λ_i, the estimates of
// zᵀlog(A)z and zᵀA⁻¹z for the start vector z with ‖z‖² = norm2.
//
// Errors: ErrNotPositiveDefinite if a Ritz value is not positive.
func (t *Tridiag) Quadrature(norm2 float64) (logDet, invQuad float64, err error) {
	vals, vecs, err := t.Eigen()
	if err != nil {
		return 0, 0, err
	}
	for i, lambda := range vals {
		if !(lambda > 0) {
			return 0, 0, linalgErrorf(opQuadrature, ErrNotPositiveDefinite)
		}
		w := vecs.At(0, i)
		w *= w
		logDet += w * math.Log(lambda)
		invQuad += w / lambda
	}

	return norm2 * logDet, norm2 * invQuad, nil
}
