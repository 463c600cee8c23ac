// SPDX-License-Identifier: MIT
// Package: linalg
//
// Purpose:
//   - Build an orthonormal Krylov basis Q (n×k) and tridiagonal T = QᵀAQ.
//     The fast predictive variance (LOVE) uses Q·T⁻¹·Qᵀ as a low-rank
//     stand-in for A⁻¹.
//
// Algorithm:
//  1. q₀ = start/‖start‖.
//  2. w = A q_j − α_j q_j − β_{j−1} q_{j−1}, then two passes of classical
//     Gram–Schmidt against all previous q (full reorthogonalisation).
//  3. If β_j collapses the Krylov space is exhausted: when a random source
//     is given the basis is extended with a random vector orthogonal to Q and
//     β_j = 0, otherwise the run stops early.
//
// Complexity: O(k·cost(MulVec) + k²·n).

package linalg

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// breakdownTol is the relative size of β below which the Krylov space is
// treated as exhausted.
const breakdownTol = 1e-10

// LanczosResult holds the basis and its tridiagonal projection.
type LanczosResult struct {
	Q *mat.Dense
	T *Tridiag
}

// Lanczos runs at most k steps of Lanczos on a from start.
//
// Errors:
//   - ErrDimensionMismatch if len(start) != a.Size().
//   - ErrBreakdown if start is (numerically) zero.
func Lanczos(a Operator, start []float64, k int, rng *rand.Rand) (*LanczosResult, error) {
	n := a.Size()
	if len(start) != n {
		return nil, linalgErrorf(opLanczos, ErrDimensionMismatch)
	}
	k = min(k, n)
	norm := floats.Norm(start, 2)
	if k <= 0 || !(norm > 0) {
		return nil, linalgErrorf(opLanczos, ErrBreakdown)
	}

	qs := make([][]float64, 0, k)
	q := append([]float64(nil), start...)
	floats.Scale(1/norm, q)

	t := &Tridiag{}
	w := make([]float64, n)
	scale := 0.0
	for j := 0; j < k; j++ {
		qs = append(qs, q)
		a.MulVecTo(w, q)
		alpha := floats.Dot(q, w)
		t.Diag = append(t.Diag, alpha)
		scale = math.Max(scale, math.Abs(alpha))
		floats.AddScaled(w, -alpha, q)
		if j > 0 {
			floats.AddScaled(w, -t.Off[j-1], qs[j-1])
		}
		reorthogonalize(w, qs)
		if j == k-1 {
			break
		}

		beta := floats.Norm(w, 2)
		if beta <= breakdownTol*math.Max(scale, 1) {
			if rng == nil {
				break
			}
			next, ok := randomOrthogonal(rng, qs)
			if !ok {
				break
			}
			t.Off = append(t.Off, 0)
			q = next

			continue
		}
		t.Off = append(t.Off, beta)
		q = make([]float64, n)
		floats.ScaleTo(q, 1/beta, w)
	}

	basis := mat.NewDense(n, len(qs), nil)
	for j, col := range qs {
		basis.SetCol(j, col)
	}

	return &LanczosResult{Q: basis, T: t}, nil
}

func reorthogonalize(w []float64, qs [][]float64) {
	for pass := 0; pass < 2; pass++ {
		for _, q := range qs {
			floats.AddScaled(w, -floats.Dot(q, w), q)
		}
	}
}

func randomOrthogonal(rng *rand.Rand, qs [][]float64) ([]float64, bool) {
	n := len(qs[0])
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	reorthogonalize(v, qs)
	norm := floats.Norm(v, 2)
	if norm <= breakdownTol {
		return nil, false
	}
	floats.Scale(1/norm, v)

	return v, true
}

// InverseRoot returns R (n×k') with R·Rᵀ = Q·T⁻¹·Qᵀ, using T = VΛVᵀ and
// R = Q·V·Λ^{-1/2}.
//
// Errors: ErrNotPositiveDefinite if T has a non-positive eigenvalue.
func (l *LanczosResult) InverseRoot() (*mat.Dense, error) {
	vals, vecs, err := l.T.Eigen()
	if err != nil {
		return nil, err
	}
	for j, lambda := range vals {
		if !(lambda > 0) {
			return nil, linalgErrorf(opLanczos, ErrNotPositiveDefinite)
		}
		col := mat.Col(nil, j, vecs)
		floats.Scale(1/math.Sqrt(lambda), col)
		vecs.SetCol(j, col)
	}
	var r mat.Dense
	r.Mul(l.Q, vecs)

	return &r, nil
}
