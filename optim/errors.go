// SPDX-License-Identifier: MIT
// Package optim: sentinel error set. Messages carry the "optim: " prefix.

package optim

import (
	"errors"
	"fmt"
)

var (
	// ErrIterations indicates a non-positive iteration budget.
	ErrIterations = errors.New("optim: iterations must be ≥ 1")

	// ErrGradientLength indicates a gradient whose length differs from the
	// parameter vector.
	ErrGradientLength = errors.New("optim: gradient length mismatch")

	// ErrNonFinite indicates the objective returned NaN or ±Inf.
	ErrNonFinite = errors.New("optim: non-finite loss")
)

const (
	opRun   = "Run"
	opLBFGS = "LBFGS"
)

func optimErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

func iterErrorf(op string, iter int, err error) error {
	return fmt.Errorf("%s: iteration %d: %w", op, iter, err)
}
