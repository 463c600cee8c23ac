// SPDX-License-Identifier: MIT

package gp

import (
	"fmt"
	"math"

	"github.com/katalvlaran/kissgp/kernel"
)

// DefaultNoiseFloor keeps σ² away from zero.
const DefaultNoiseFloor = 1e-4

const panicNoiseFloor = "gp: NewGaussianLikelihoodWithFloor: floor must be finite and ≥ 0"

// GaussianLikelihood is y = f(x) + ε, ε ~ N(0, σ²), with
// σ² = floor + softplus(raw).
type GaussianLikelihood struct {
	raw   float64
	noise kernel.Positive
}

// NewGaussianLikelihood returns σ² = floor + ln 2 (raw 0).
func NewGaussianLikelihood() *GaussianLikelihood {
	return &GaussianLikelihood{noise: kernel.Positive{Floor: DefaultNoiseFloor}}
}

// NewGaussianLikelihoodWithFloor is NewGaussianLikelihood with a custom
// floor. It panics on a negative or non-finite floor.
func NewGaussianLikelihoodWithFloor(floor float64) *GaussianLikelihood {
	if !(floor >= 0) || math.IsInf(floor, 1) {
		panic(panicNoiseFloor)
	}

	return &GaussianLikelihood{noise: kernel.Positive{Floor: floor}}
}

// Floor returns the lower bound of σ².
func (l *GaussianLikelihood) Floor() float64 { return l.noise.Floor }

// Noise returns σ².
func (l *GaussianLikelihood) Noise() float64 { return l.noise.Value(l.raw) }

// SetNoise sets σ², which must exceed the floor.
func (l *GaussianLikelihood) SetNoise(v float64) error {
	raw, err := l.noise.Raw(v)
	if err != nil {
		return fmt.Errorf("GaussianLikelihood.SetNoise: %w: %w", ErrConfiguration, err)
	}
	l.raw = raw

	return nil
}

func (l *GaussianLikelihood) NumParams() int       { return 1 }
func (l *GaussianLikelihood) Params() []float64    { return []float64{l.raw} }
func (l *GaussianLikelihood) ParamNames() []string { return []string{"noise"} }

func (l *GaussianLikelihood) SetParams(raw []float64) error {
	if len(raw) != 1 {
		return fmt.Errorf("GaussianLikelihood.SetParams: %w", ErrParamCount)
	}
	l.raw = raw[0]

	return nil
}

// noiseGrad returns dσ²/draw.
func (l *GaussianLikelihood) noiseGrad() float64 { return l.noise.Grad(l.raw) }
