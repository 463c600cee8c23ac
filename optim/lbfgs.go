// SPDX-License-Identifier: MIT
// Package: optim
//
// Purpose:
//   - L-BFGS through gonum/optimize.
//
// gonum asks for the value and the gradient through separate callbacks; one
// LossGrad call serves both, cached on the last evaluated point. Evaluation
// errors and context cancellation stop the run through Problem.Status.

package optim

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// LBFGSOptions tunes LBFGS. Zero fields take gonum's defaults, except
// MaxIterations which defaults to DefaultLBFGSIterations.
type LBFGSOptions struct {
	MaxIterations     int
	GradientThreshold float64
	Store             int
}

// DefaultLBFGSIterations bounds the number of major iterations.
const DefaultLBFGSIterations = 100

type lbfgsEval struct {
	ctx  context.Context
	obj  Objective
	x    []float64
	loss float64
	grad []float64
	err  error
	n    int
}

func (e *lbfgsEval) at(x []float64) {
	if e.err != nil || (e.x != nil && floats.Equal(e.x, x)) {
		return
	}
	if err := e.ctx.Err(); err != nil {
		e.err = err

		return
	}
	if err := e.obj.SetParameters(x); err != nil {
		e.err = err

		return
	}
	loss, grad, err := e.obj.LossGrad(e.ctx)
	if err != nil {
		e.err = err

		return
	}
	e.x = append(e.x[:0], x...)
	e.loss, e.grad = loss, grad
	e.n++
}

type lbfgsRecorder struct {
	trace  *Trace
	logger *zap.Logger
	every  int
	cb     func(Iteration) error
}

func (r *lbfgsRecorder) Init() error { return nil }

func (r *lbfgsRecorder) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	norm := math.NaN()
	if loc.Gradient != nil {
		norm = floats.Norm(loc.Gradient, 2)
	}
	it := r.trace.Len()
	r.trace.add(loc.F, norm)
	if it%r.every == 0 {
		r.logger.Info("lbfgs iteration", zap.Int("iter", it), zap.Float64("loss", loc.F), zap.Float64("grad_norm", norm))
	}
	if r.cb != nil {
		return r.cb(Iteration{Index: it, Loss: loc.F, GradNorm: norm})
	}

	return nil
}

// LBFGS minimises obj starting from its current parameters and leaves the
// best point found in obj. The trace holds one entry per major iteration.
//
// Errors: any objective error, ctx.Err(), or a gonum failure status.
func LBFGS(ctx context.Context, obj Objective, lo LBFGSOptions, opts ...Option) (*Trace, error) {
	o := gatherOptions(opts)
	if lo.MaxIterations == 0 {
		lo.MaxIterations = DefaultLBFGSIterations
	}
	if lo.MaxIterations < 0 {
		return nil, optimErrorf(opLBFGS, ErrIterations)
	}

	eval := &lbfgsEval{ctx: ctx, obj: obj}
	trace := &Trace{}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			eval.at(x)
			if eval.err != nil {
				return math.Inf(1)
			}

			return eval.loss
		},
		Grad: func(grad, x []float64) {
			eval.at(x)
			if eval.err != nil || len(eval.grad) != len(grad) {
				for i := range grad {
					grad[i] = 0
				}

				return
			}
			copy(grad, eval.grad)
		},
		Status: func() (optimize.Status, error) {
			if eval.err != nil {
				return optimize.Failure, eval.err
			}

			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   lo.MaxIterations,
		GradientThreshold: lo.GradientThreshold,
		Converger:         &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 20},
		Recorder:          &lbfgsRecorder{trace: trace, logger: o.logger, every: o.logEvery, cb: o.callback},
	}

	x0 := obj.Parameters()
	res, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{Store: lo.Store})
	if eval.err != nil {
		return trace, optimErrorf(opLBFGS, eval.err)
	}
	if res == nil {
		return trace, optimErrorf(opLBFGS, err)
	}
	if setErr := obj.SetParameters(res.X); setErr != nil {
		return trace, optimErrorf(opLBFGS, setErr)
	}
	o.logger.Debug("lbfgs done",
		zap.String("status", res.Status.String()),
		zap.Int("evaluations", eval.n),
		zap.Float64("loss", res.F))
	if err != nil && res.Status != optimize.IterationLimit {
		return trace, optimErrorf(opLBFGS, err)
	}

	return trace, nil
}
