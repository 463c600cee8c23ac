// SPDX-License-Identifier: MIT

package optim

import "context"

// Objective is a differentiable scalar to be minimised.
type Objective interface {
	// Parameters returns a copy of the current parameter vector.
	Parameters() []float64
	// SetParameters replaces the parameter vector.
	SetParameters(theta []float64) error
	// LossGrad evaluates the loss and its gradient at the current parameters.
	LossGrad(ctx context.Context) (float64, []float64, error)
}

// Stepper updates theta in place given ∂loss/∂theta.
type Stepper interface {
	Step(theta, grad []float64)
}
