// SPDX-License-Identifier: MIT
// Package: optim
//
// Purpose:
//   - Adam and plain gradient-descent steppers.
//
// Adam (Kingma & Ba) with bias correction:
//
//	m ← β₁m + (1−β₁)g,  v ← β₂v + (1−β₂)g²
//	θ ← θ − lr·m̂/(√v̂ + ε),  m̂ = m/(1−β₁ᵗ), v̂ = v/(1−β₂ᵗ)

package optim

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Adam defaults.
const (
	DefaultBeta1   = 0.9
	DefaultBeta2   = 0.999
	DefaultEpsilon = 1e-8
)

const panicLearningRate = "optim: learning rate must be finite and > 0"

// Adam keeps first and second moment estimates per parameter. The moment
// buffers are sized on the first Step; changing the parameter count later
// resets them.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	t int
	m []float64
	v []float64
}

// NewAdam returns Adam with the default β₁, β₂ and ε.
func NewAdam(lr float64) *Adam {
	if !(lr > 0) || math.IsInf(lr, 1) {
		panic(panicLearningRate)
	}

	return &Adam{LearningRate: lr, Beta1: DefaultBeta1, Beta2: DefaultBeta2, Epsilon: DefaultEpsilon}
}

// Reset clears the moment estimates.
func (a *Adam) Reset() {
	a.t = 0
	a.m, a.v = nil, nil
}

// Step applies one Adam update.
func (a *Adam) Step(theta, grad []float64) {
	if len(a.m) != len(theta) {
		a.t = 0
		a.m = make([]float64, len(theta))
		a.v = make([]float64, len(theta))
	}
	a.t++
	floats.Scale(a.Beta1, a.m)
	floats.AddScaled(a.m, 1-a.Beta1, grad)
	for i, g := range grad {
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g
	}
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for i := range theta {
		theta[i] -= a.LearningRate * (a.m[i] / c1) / (math.Sqrt(a.v[i]/c2) + a.Epsilon)
	}
}

// SGD is fixed-rate gradient descent.
type SGD struct {
	LearningRate float64
}

// NewSGD returns SGD with rate lr.
func NewSGD(lr float64) *SGD {
	if !(lr > 0) || math.IsInf(lr, 1) {
		panic(panicLearningRate)
	}

	return &SGD{LearningRate: lr}
}

// Step sets θ ← θ − lr·g.
func (s *SGD) Step(theta, grad []float64) { floats.AddScaled(theta, -s.LearningRate, grad) }
