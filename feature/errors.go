// SPDX-License-Identifier: MIT
// Package feature: sentinel error set. Messages carry the "feature: " prefix.

package feature

import (
	"errors"
	"fmt"
)

var (
	// ErrLayerSizes indicates fewer than two layer widths or a width < 1.
	ErrLayerSizes = errors.New("feature: invalid layer sizes")

	// ErrDimensionMismatch indicates an input or gradient whose shape does not
	// match the extractor.
	ErrDimensionMismatch = errors.New("feature: dimension mismatch")

	// ErrParamCount indicates SetParams or Backward received a slice of the
	// wrong length.
	ErrParamCount = errors.New("feature: wrong number of parameters")

	// ErrTape indicates Backward was given a tape from another extractor or a
	// nil tape.
	ErrTape = errors.New("feature: invalid tape")

	// ErrBounds indicates a rescale range with Upper ≤ Lower.
	ErrBounds = errors.New("feature: invalid rescale bounds")
)

const (
	opNewMLP    = "NewMLP"
	opForward   = "MLP.Forward"
	opBackward  = "MLP.Backward"
	opSetParams = "MLP.SetParams"
	opRescale   = "Rescale"
)

func featureErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
