// SPDX-License-Identifier: MIT
// Package: optim
//
// Purpose:
//   - The synchronous training loop.
//
// Each iteration evaluates the objective once at the current parameters,
// records the loss, then asks the stepper for new parameters. Trace.Loss[i]
// is therefore the loss before step i+1; Trace.Loss[0] is the untrained loss.

package optim

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Trace records per-iteration losses and gradient norms.
type Trace struct {
	Loss     []float64
	GradNorm []float64
}

// Len returns the number of recorded iterations.
func (t *Trace) Len() int { return len(t.Loss) }

// First returns the first recorded loss, or NaN for an empty trace.
func (t *Trace) First() float64 {
	if len(t.Loss) == 0 {
		return math.NaN()
	}

	return t.Loss[0]
}

// Last returns the last recorded loss, or NaN for an empty trace.
func (t *Trace) Last() float64 {
	if len(t.Loss) == 0 {
		return math.NaN()
	}

	return t.Loss[len(t.Loss)-1]
}

func (t *Trace) add(loss, gradNorm float64) {
	t.Loss = append(t.Loss, loss)
	t.GradNorm = append(t.GradNorm, gradNorm)
}

// Run performs iters evaluate-and-step rounds. On error the trace holds the
// iterations completed so far and the objective keeps its last parameters.
//
// Errors: ErrIterations, ErrGradientLength, ErrNonFinite, ctx.Err(), and any
// error of the objective or callback.
func Run(ctx context.Context, obj Objective, s Stepper, iters int, opts ...Option) (*Trace, error) {
	if iters < 1 {
		return nil, optimErrorf(opRun, ErrIterations)
	}
	o := gatherOptions(opts)
	trace := &Trace{}
	for it := 0; it < iters; it++ {
		if err := ctx.Err(); err != nil {
			return trace, iterErrorf(opRun, it, err)
		}
		loss, grad, err := obj.LossGrad(ctx)
		if err != nil {
			return trace, iterErrorf(opRun, it, err)
		}
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return trace, iterErrorf(opRun, it, ErrNonFinite)
		}
		theta := obj.Parameters()
		if len(grad) != len(theta) {
			return trace, iterErrorf(opRun, it, ErrGradientLength)
		}
		norm := floats.Norm(grad, 2)
		trace.add(loss, norm)
		if it%o.logEvery == 0 || it == iters-1 {
			o.logger.Info("iteration",
				zap.Int("iter", it+1),
				zap.Int("of", iters),
				zap.Float64("loss", loss),
				zap.Float64("grad_norm", norm))
		}
		if o.callback != nil {
			if err := o.callback(Iteration{Index: it, Loss: loss, GradNorm: norm}); err != nil {
				return trace, iterErrorf(opRun, it, err)
			}
		}

		s.Step(theta, grad)
		if err := obj.SetParameters(theta); err != nil {
			return trace, iterErrorf(opRun, it, err)
		}
	}

	return trace, nil
}
