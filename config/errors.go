// SPDX-License-Identifier: MIT
// Package config: sentinel error set. Messages carry the "config: " prefix.

package config

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/kissgp/gp"
)

var (
	// ErrUnknownKernel indicates a kernel name other than "rbf" or "sm".
	ErrUnknownKernel = errors.New("config: unknown kernel")

	// ErrUnknownInterpolation indicates a scheme other than "cubic" or "linear".
	ErrUnknownInterpolation = errors.New("config: unknown interpolation")

	// ErrUnknownInference indicates an inference other than "exact" or
	// "iterative".
	ErrUnknownInference = errors.New("config: unknown inference")

	// ErrOutOfRange indicates a numeric field outside its valid range.
	ErrOutOfRange = errors.New("config: value out of range")

	// ErrSnapshot indicates a snapshot that does not match the model its
	// config builds.
	ErrSnapshot = errors.New("config: snapshot does not match model")
)

const (
	opLoad     = "Load"
	opValidate = "Validate"
	opBuild    = "Build"
	opRestore  = "Snapshot.Restore"
	opRead     = "ReadSnapshot"
	opWrite    = "WriteSnapshot"
)

// fieldErrorf reports an invalid field as a gp configuration error.
func fieldErrorf(field string, err error) error {
	return fmt.Errorf("%s: %s: %w: %w", opValidate, field, gp.ErrConfiguration, err)
}

func configErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
