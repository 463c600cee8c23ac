// SPDX-License-Identifier: MIT
// Package grid: sentinel error set. Messages carry the "grid: " prefix.

package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrResolution indicates a grid size too small for the interpolation scheme.
	ErrResolution = errors.New("grid: resolution too small")

	// ErrBounds indicates an empty or non-finite bounding interval.
	ErrBounds = errors.New("grid: invalid bounds")

	// ErrDimensionMismatch indicates inputs or kernels whose dimensionality
	// differs from the grid's.
	ErrDimensionMismatch = errors.New("grid: dimension mismatch")

	// ErrOutOfBounds indicates an input outside the interpolation range.
	ErrOutOfBounds = errors.New("grid: input outside grid bounds")

	// ErrNoGradient indicates an input gradient was requested from a
	// covariance built without interpolation derivatives.
	ErrNoGradient = errors.New("grid: covariance built without weight derivatives")
)

const (
	opNew      = "New"
	opWeights  = "Weights"
	opKernel   = "NewKernel"
	opCov      = "Kernel.Covariance"
	opBackward = "Kernel.Backward"
)

const panicPointwise = "grid: Kernel pointwise evaluation: "

func gridErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
