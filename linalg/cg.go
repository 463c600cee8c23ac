// SPDX-License-Identifier: MIT
// Package: linalg
//
// Purpose:
//   - Approximate solve A x = b for symmetric positive-definite A using only
//     matrix-vector products (method of conjugate gradients).
//   - Optionally recover the Lanczos tridiagonal of A on the Krylov space of b
//     from the CG coefficients, so one run yields both the solve and the
//     quadrature needed for a log-determinant estimate:
//     T[0,0] = 1/α₀, T[j,j] = 1/α_j + β_{j−1}/α_{j−1}, T[j,j+1] = √β_j/α_j.
//
// Notes:
//   - The name says CG on purpose: this is not an exact factorization.
//   - Convergence is declared on the true residual b−Ax, not on the
//     recursively updated one. If they disagree CG restarts from the true
//     residual; the tridiagonal stops growing at the first restart.

package linalg

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// CGResult reports how a CG solve ended.
type CGResult struct {
	Iterations int
	Residual   float64 // final ‖b−Ax‖
	Relative   float64 // Residual/‖b‖ (0 when b = 0)
	Tridiag    *Tridiag
}

// CG approximately solves a·x = b.
//
// Errors:
//   - ErrDimensionMismatch if len(b) != a.Size().
//   - ErrNotPositiveDefinite on non-positive curvature.
//   - ErrNotConverged if MaxIterations is exhausted; x and the result still
//     hold the last iterate.
//
// Complexity: O(k·cost(MulVec) + k·n) for k iterations.
func CG(a Operator, b []float64, opts CGOptions) ([]float64, CGResult, error) {
	opts.validate()
	n := a.Size()
	if len(b) != n {
		return nil, CGResult{}, linalgErrorf(opCG, ErrDimensionMismatch)
	}

	x := make([]float64, n)
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		return x, CGResult{Tridiag: &Tridiag{}}, nil
	}
	target := opts.Tolerance * bnorm

	r := append([]float64(nil), b...)
	p := append([]float64(nil), b...)
	ap := make([]float64, n)
	rr := floats.Dot(r, r)

	var (
		alphas, betas []float64
		recording     = opts.Tridiag
		res           CGResult
	)
	for it := 0; it < opts.MaxIterations; it++ {
		a.MulVecTo(ap, p)
		pap := floats.Dot(p, ap)
		if !(pap > 0) {
			res.Iterations = it

			return x, res, linalgErrorf(opCG, ErrNotPositiveDefinite)
		}
		alpha := rr / pap
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ap)
		rrNew := floats.Dot(r, r)
		beta := rrNew / rr
		if recording {
			alphas = append(alphas, alpha)
			betas = append(betas, beta)
		}
		rr = rrNew
		res.Iterations = it + 1

		if math.Sqrt(rr) <= target {
			a.MulVecTo(ap, x)
			floats.SubTo(r, b, ap)
			rr = floats.Dot(r, r)
			if math.Sqrt(rr) <= target {
				res.Residual = math.Sqrt(rr)
				res.Relative = res.Residual / bnorm
				if opts.Tridiag {
					res.Tridiag = tridiagFromCG(alphas, betas)
				}

				return x, res, nil
			}
			recording = false
			copy(p, r)

			continue
		}
		for i := range p {
			p[i] = r[i] + beta*p[i]
		}
	}

	a.MulVecTo(ap, x)
	floats.SubTo(r, b, ap)
	res.Residual = floats.Norm(r, 2)
	res.Relative = res.Residual / bnorm
	if opts.Tridiag {
		res.Tridiag = tridiagFromCG(alphas, betas)
	}

	return x, res, linalgErrorf(opCG, ErrNotConverged)
}

func tridiagFromCG(alphas, betas []float64) *Tridiag {
	k := len(alphas)
	t := &Tridiag{Diag: make([]float64, k), Off: make([]float64, max(k-1, 0))}
	for j := 0; j < k; j++ {
		t.Diag[j] = 1 / alphas[j]
		if j > 0 {
			t.Diag[j] += betas[j-1] / alphas[j-1]
		}
		if j < k-1 {
			t.Off[j] = math.Sqrt(betas[j]) / alphas[j]
		}
	}

	return t
}

// SolveMany runs CG on every right-hand side, at most workers at a time.
// Results keep the order of rhs. The first error cancels the remaining solves.
func SolveMany(ctx context.Context, a Operator, rhs [][]float64, opts CGOptions, workers int) ([][]float64, []CGResult, error) {
	xs := make([][]float64, len(rhs))
	results := make([]CGResult, len(rhs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i := range rhs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			x, res, err := CG(a, rhs[i], opts)
			xs[i], results[i] = x, res

			return err
		})
	}
	if err := g.Wait(); err != nil {
		return xs, results, linalgErrorf(opSolveMany, err)
	}

	return xs, results, nil
}
