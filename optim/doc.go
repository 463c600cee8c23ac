// SPDX-License-Identifier: MIT

// Package optim drives gradient-based training of a differentiable scalar
// objective.
//
// 🚀 Contract:
//
//	Objective  exposes the current flat parameter vector, accepts a new one
//	           and evaluates loss and gradient at the current point
//	Stepper    updates a parameter vector in place from its gradient
//	           (Adam, SGD)
//	Run        the caller-owned loop: evaluate, record, step, repeat; it
//	           stops on context cancellation and never retries a failed
//	           evaluation
//	LBFGS      quasi-Newton minimisation through gonum/optimize, for
//	           deterministic objectives
//
//	trace, err := optim.Run(ctx, mll, optim.NewAdam(0.1), 50,
//		optim.WithLogger(logger))
//	fmt.Println(trace.First(), trace.Last())
package optim
