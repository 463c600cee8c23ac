// SPDX-License-Identifier: MIT
// Package: linalg
//
// Purpose:
//   - Stochastic Lanczos quadrature: log|A| ≈ (1/P)·Σ_p z_pᵀ log(A) z_p with
//     Rademacher probes z_p, each term evaluated from the tridiagonal that CG
//     records while solving A u_p = z_p.
//
// Determinism:
//   - Probes come from the caller's *rand.Rand; the estimate is random but
//     reproducible for a fixed seed.

package linalg

import (
	"context"
	"math/rand"
)

// Rademacher returns a vector of n independent ±1 entries.
func Rademacher(rng *rand.Rand, n int) []float64 {
	z := make([]float64, n)
	for i := range z {
		if rng.Int63()&1 == 0 {
			z[i] = -1
		} else {
			z[i] = 1
		}
	}

	return z
}

// LogDetEstimate is the outcome of StochasticLogDet.
type LogDetEstimate struct {
	LogDet  float64
	Probes  [][]float64 // z_p
	Solves  [][]float64 // A⁻¹ z_p (CG)
	Results []CGResult
}

// StochasticLogDet estimates log|A| from probes Rademacher probes.
// The per-probe solves are returned because gradient trace terms reuse them.
func StochasticLogDet(ctx context.Context, a Operator, probes int, rng *rand.Rand, opts CGOptions, workers int) (*LogDetEstimate, error) {
	if probes <= 0 {
		return nil, linalgErrorf(opLogDet, ErrEmpty)
	}
	n := a.Size()
	zs := make([][]float64, probes)
	for p := range zs {
		zs[p] = Rademacher(rng, n)
	}

	opts.Tridiag = true
	us, results, err := SolveMany(ctx, a, zs, opts, workers)
	if err != nil {
		return nil, linalgErrorf(opLogDet, err)
	}

	est := &LogDetEstimate{Probes: zs, Solves: us, Results: results}
	for _, res := range results {
		if res.Tridiag.Len() == 0 {
			return nil, linalgErrorf(opLogDet, ErrBreakdown)
		}
		ld, _, err := res.Tridiag.Quadrature(float64(n))
		if err != nil {
			return nil, linalgErrorf(opLogDet, err)
		}
		est.LogDet += ld
	}
	est.LogDet /= float64(probes)

	return est, nil
}
