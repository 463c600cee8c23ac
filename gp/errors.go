// SPDX-License-Identifier: MIT
// Package gp: error taxonomy.
//
// Every error leaving this package carries exactly one category sentinel
// (ErrConfiguration, ErrNumerical or ErrShape) next to its cause, so both
// errors.Is(err, gp.ErrNumerical) and errors.Is(err, linalg.ErrNotConverged)
// hold. Context cancellation is passed through without a category.

package gp

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/kissgp/feature"
	"github.com/katalvlaran/kissgp/grid"
	"github.com/katalvlaran/kissgp/kernel"
	"github.com/katalvlaran/kissgp/linalg"
)

// Categories.
var (
	// ErrConfiguration marks invalid hyperparameters or option combinations.
	ErrConfiguration = errors.New("gp: configuration error")

	// ErrNumerical marks solver failures: a covariance that is not positive
	// definite, CG exhausting its budget, or a Lanczos breakdown. These are
	// recoverable by adjusting tolerances or adding jitter.
	ErrNumerical = errors.New("gp: numerical error")

	// ErrShape marks mismatched batch sizes or input widths.
	ErrShape = errors.New("gp: shape error")
)

// Causes specific to this package.
var (
	// ErrEmptyTraining indicates a model built without observations.
	ErrEmptyTraining = errors.New("gp: empty training set")

	// ErrTargetLength indicates len(y) differs from the number of input rows.
	ErrTargetLength = errors.New("gp: targets do not match inputs")

	// ErrInputDims indicates inputs whose width differs from the model's.
	ErrInputDims = errors.New("gp: input width mismatch")

	// ErrExtractorDims indicates a feature extractor whose output width differs
	// from the kernel (or grid) dimensionality.
	ErrExtractorDims = errors.New("gp: extractor output does not match kernel dimensions")

	// ErrGridNeedsIterative indicates a grid-interpolated kernel combined with
	// exact (Cholesky) inference.
	ErrGridNeedsIterative = errors.New("gp: grid kernel requires iterative inference")

	// ErrNestedGrid indicates a grid-interpolated kernel below the top of the
	// kernel tree. Only an outermost grid kernel runs on the structured path.
	ErrNestedGrid = errors.New("gp: grid kernel must be the outermost kernel")

	// ErrUnknownInference indicates an Inference value outside the defined set.
	ErrUnknownInference = errors.New("gp: unknown inference")

	// ErrWrongMode indicates an operation called in the wrong model mode:
	// the marginal likelihood needs TRAIN, prediction needs EVAL.
	ErrWrongMode = errors.New("gp: operation not allowed in current mode")

	// ErrParamCount indicates a parameter vector of the wrong length.
	ErrParamCount = errors.New("gp: wrong number of parameters")
)

const (
	opNewModel      = "NewModel"
	opSetParameters = "SetParameters"
	opEvaluate      = "MarginalLogLikelihood.Evaluate"
	opPredict       = "Predict"
	opForward       = "Forward"
)

// IsRecoverable reports whether err is a numerical failure that a retry with
// looser tolerances, a larger iteration budget or more jitter may fix.
func IsRecoverable(err error) bool { return errors.Is(err, ErrNumerical) }

func configErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrConfiguration, err)
}

func shapeErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrShape, err)
}

func numericalErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrNumerical, err)
}

func isNumerical(err error) bool {
	return errors.Is(err, linalg.ErrNotPositiveDefinite) ||
		errors.Is(err, linalg.ErrNotConverged) ||
		errors.Is(err, linalg.ErrBreakdown) ||
		errors.Is(err, linalg.ErrEigenFailed)
}

// classify wraps a lower-level error with its category.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrNumerical), errors.Is(err, ErrShape):
		return fmt.Errorf("%s: %w", op, err)
	case isNumerical(err):
		return numericalErrorf(op, err)
	case errors.Is(err, grid.ErrOutOfBounds),
		errors.Is(err, grid.ErrDimensionMismatch),
		errors.Is(err, kernel.ErrDimensionMismatch),
		errors.Is(err, kernel.ErrEmptyInput),
		errors.Is(err, feature.ErrDimensionMismatch),
		errors.Is(err, linalg.ErrDimensionMismatch):
		return shapeErrorf(op, err)
	}

	return configErrorf(op, err)
}
