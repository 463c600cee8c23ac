// SPDX-License-Identifier: MIT

package kernel

import "math"

// Defaults. Raw parameters start at 0, i.e. softplus(0) = ln 2.
const (
	DefaultLengthscale = math.Ln2
	DefaultOutputscale = math.Ln2
	DefaultARD         = false
)

const (
	panicLengthscale = "kernel: WithLengthscale: value must be finite and > 0"
	panicOutputscale = "kernel: WithOutputscale: value must be finite and > 0"
)

// Option configures kernel constructors.
type Option func(*Options)

// Options holds constructor settings. Unused fields are ignored by kernels
// they do not apply to.
type Options struct {
	ard         bool
	lengthscale float64
	outputscale float64
}

func defaultOptions() Options {
	return Options{
		ard:         DefaultARD,
		lengthscale: DefaultLengthscale,
		outputscale: DefaultOutputscale,
	}
}

func gatherOptions(opts []Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithARD gives RBF one length-scale per input dimension.
func WithARD() Option {
	return func(o *Options) { o.ard = true }
}

// ValidateLengthscale returns ErrNonPositive unless l is finite and > 0.
// Callers holding untrusted values check with it before WithLengthscale.
func ValidateLengthscale(l float64) error {
	if !(l > 0) || math.IsInf(l, 1) {
		return kernelErrorf(opValidate, ErrNonPositive)
	}

	return nil
}

// ValidateOutputscale returns ErrNonPositive unless s is finite and > 0.
func ValidateOutputscale(s float64) error {
	if !(s > 0) || math.IsInf(s, 1) {
		return kernelErrorf(opValidate, ErrNonPositive)
	}

	return nil
}

// WithLengthscale sets the initial length-scale(s). It panics on a value
// ValidateLengthscale rejects.
func WithLengthscale(l float64) Option {
	if ValidateLengthscale(l) != nil {
		panic(panicLengthscale)
	}

	return func(o *Options) { o.lengthscale = l }
}

// WithOutputscale sets the initial outputscale of Scale. It panics on a value
// ValidateOutputscale rejects.
func WithOutputscale(s float64) Option {
	if ValidateOutputscale(s) != nil {
		panic(panicOutputscale)
	}

	return func(o *Options) { o.outputscale = s }
}
