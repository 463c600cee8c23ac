// SPDX-License-Identifier: MIT
// Package linalg: sentinel error set.
// Every message is prefixed with "linalg: ". Operations wrap these with an
// op tag (fmt.Errorf("%s: %w", op, err)); callers match with errors.Is.

package linalg

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch indicates operands whose sizes do not agree.
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")

	// ErrEmpty is returned for zero-length columns, factors or operators.
	ErrEmpty = errors.New("linalg: empty operand")

	// ErrNotConverged indicates that CG hit its iteration budget before the
	// residual dropped below tolerance.
	ErrNotConverged = errors.New("linalg: cg did not converge")

	// ErrNotPositiveDefinite indicates a non-positive curvature pᵀAp, a failed
	// Cholesky factorization or a non-positive Ritz value.
	ErrNotPositiveDefinite = errors.New("linalg: operator is not positive definite")

	// ErrBreakdown indicates a Lanczos breakdown on a degenerate start vector.
	ErrBreakdown = errors.New("linalg: lanczos breakdown")

	// ErrEigenFailed indicates that the tridiagonal eigendecomposition failed.
	ErrEigenFailed = errors.New("linalg: eigen decomposition failed")
)

// Operation names used for error wrapping.
const (
	opToeplitz   = "NewToeplitz"
	opKronSum    = "NewKronSum"
	opCG         = "CG"
	opLanczos    = "Lanczos"
	opQuadrature = "Tridiag.Quadrature"
	opFactorize  = "Factorize"
	opLogDet     = "StochasticLogDet"
	opSolveMany  = "SolveMany"
)

func linalgErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
