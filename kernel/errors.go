// SPDX-License-Identifier: MIT
// Package kernel: sentinel error set. Messages carry the "kernel: " prefix.

package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a kernel is evaluated on an empty input set.
	ErrEmptyInput = errors.New("kernel: empty input")

	// ErrDimensionMismatch indicates inputs whose width differs from the kernel's
	// dimensionality or from each other.
	ErrDimensionMismatch = errors.New("kernel: dimension mismatch")

	// ErrParamCount indicates SetParams received a vector of the wrong length.
	ErrParamCount = errors.New("kernel: wrong number of parameters")

	// ErrNonPositive indicates a constrained value ≤ its floor was requested.
	ErrNonPositive = errors.New("kernel: value must be positive")

	// ErrNotSeparable indicates a kernel without a grid (Kronecker) form.
	ErrNotSeparable = errors.New("kernel: kernel is not separable on a grid")

	// ErrGridChild indicates a grid-interpolated kernel passed as the child of
	// a wrapper. Grid interpolation must be the outermost kernel.
	ErrGridChild = errors.New("kernel: grid kernel cannot be wrapped")
)

const (
	opMatrix    = "Matrix"
	opCross     = "Cross"
	opMulVec    = "MulVec"
	opSetParams = "SetParams"
	opInitData  = "SpectralMixture.InitFromData"
	opGridTerms = "GridTerms"
	opMinEigen  = "MinEigenvalue"
	opNewKernel = "New"
	opValidate  = "Validate"
)

func kernelErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
