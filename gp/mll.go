// SPDX-License-Identifier: MIT
// Package: gp
//
// Purpose:
//   - Exact marginal log likelihood and its gradient with respect to every
//     raw parameter.
//
// With K̂ = K + σ²I, r = y − m and α = K̂⁻¹r:
//
//	L = −½ rᵀα − ½ log|K̂| − (n/2) log 2π
//	∂L/∂θ = ½ αᵀ(∂K/∂θ)α − ½ tr(K̂⁻¹ ∂K/∂θ)
//	∂L/∂σ² = ½ αᵀα − ½ tr(K̂⁻¹),   ∂L/∂m_i = α_i
//
// Exact inference (Cholesky) contracts G = ½(ααᵀ − K̂⁻¹) with ∂K. Iterative
// inference solves with CG, estimates log|K̂| by stochastic Lanczos
// quadrature over P probes z_p, and estimates the trace with the same
// solves u_p = K̂⁻¹z_p:
//
//	tr(K̂⁻¹ ∂K) ≈ (1/P) Σ_p u_pᵀ ∂K z_p
//
// Both sides are then a list of outer products (c, a, b) meaning c·aᵀ∂K b,
// which a grid kernel contracts without forming ∂K.

package gp

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kissgp/kernel"
	"github.com/katalvlaran/kissgp/linalg"
)

var log2Pi = math.Log(2 * math.Pi)

// MarginalLogLikelihood is the training objective of a model. It implements
// optim.Objective, minimising −L/n.
type MarginalLogLikelihood struct {
	model *Model
}

// NewMarginalLogLikelihood binds the objective to m.
func NewMarginalLogLikelihood(m *Model) *MarginalLogLikelihood {
	return &MarginalLogLikelihood{model: m}
}

// Evaluation is one evaluation of L at the current parameters.
type Evaluation struct {
	// Value is L (to be maximised).
	Value float64
	// Gradient is ∂L/∂θ in ParamSet order.
	Gradient []float64
	// QuadForm is rᵀK̂⁻¹r.
	QuadForm float64
	// LogDet is log|K̂|; an estimate under iterative inference.
	LogDet float64
	// CGIterations sums the iterations of every CG solve (0 when exact).
	CGIterations int
	// Jitter is the diagonal jitter added on top of σ² (0 without retries).
	Jitter float64
	// Noise is σ².
	Noise float64
}

// solveOut collects the inference-specific parts of an evaluation.
type solveOut struct {
	alpha   []float64
	quad    float64
	logDet  float64
	dNoise  float64
	cgIters int
}

// Evaluate computes L and ∂L/∂θ. The model must be in TRAIN mode.
//
// Errors: ErrConfiguration (wrong mode), ErrShape (grid bounds), ErrNumerical
// (not positive definite, CG budget, Lanczos breakdown).
func (l *MarginalLogLikelihood) Evaluate(ctx context.Context) (*Evaluation, error) {
	m := l.model
	if m.mode != ModeTrain {
		return nil, configErrorf(opEvaluate, ErrWrongMode)
	}
	f, ft, err := m.features(m.x)
	if err != nil {
		return nil, classify(opEvaluate, err)
	}
	n, k := f.Dims()
	r := residual(m.y, m.opts.mean.Eval(f))
	noise := m.opts.likelihood.Noise()

	grad := make([]float64, m.params.Len())
	var dF *mat.Dense
	var out *solveOut
	jitter, err := m.withJitter(opEvaluate, noise, func(shift float64) error {
		for i := range grad {
			grad[i] = 0
		}
		if ft != nil {
			dF = mat.NewDense(n, k, nil)
		}
		dKernel := m.params.slice(grad, idxKernel)
		var err error
		if m.opts.inference == InferenceExact {
			out, err = m.exactSolve(f, r, shift, dKernel, dF)
		} else {
			out, err = m.iterativeSolve(ctx, f, r, shift, dKernel, dF)
		}

		return err
	})
	if err != nil {
		return nil, classify(opEvaluate, err)
	}

	m.opts.mean.AccumGrad(m.params.slice(grad, idxMean), f, out.alpha)
	m.params.slice(grad, idxLikelihood)[0] = out.dNoise * m.opts.likelihood.noiseGrad()
	if ft != nil {
		if err := m.backpropFeatures(ft, dF, m.params.slice(grad, idxExtractor)); err != nil {
			return nil, classify(opEvaluate, err)
		}
	}

	ev := &Evaluation{
		Value:        -0.5*out.quad - 0.5*out.logDet - 0.5*float64(n)*log2Pi,
		Gradient:     grad,
		QuadForm:     out.quad,
		LogDet:       out.logDet,
		CGIterations: out.cgIters,
		Jitter:       jitter,
		Noise:        noise,
	}
	m.logger.Debug("marginal log likelihood",
		zap.Float64("value", ev.Value),
		zap.Float64("quad", ev.QuadForm),
		zap.Float64("logdet", ev.LogDet),
		zap.Int("cg_iterations", ev.CGIterations),
		zap.Float64("noise", noise),
		zap.Float64("jitter", jitter))

	return ev, nil
}

// ignoreCondition drops gonum's ill-conditioning warning; the result is
// still computed.
func ignoreCondition(err error) error {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return nil
	}

	return err
}

func (m *Model) exactSolve(f *mat.Dense, r []float64, shift float64, dKernel []float64, dF *mat.Dense) (*solveOut, error) {
	k, err := kernel.Matrix(m.kern, f)
	if err != nil {
		return nil, err
	}
	chol, err := linalg.Factorize(k, shift)
	if err != nil {
		return nil, err
	}
	n := len(r)
	var a mat.VecDense
	if err := ignoreCondition(chol.SolveVecTo(&a, mat.NewVecDense(n, r))); err != nil {
		return nil, err
	}
	var inv mat.SymDense
	if err := ignoreCondition(chol.InverseTo(&inv)); err != nil {
		return nil, err
	}

	alpha := a.RawVector().Data
	g := mat.NewSymDense(n, nil)
	trace := 0.0
	for i := 0; i < n; i++ {
		trace += inv.At(i, i)
		for j := i; j < n; j++ {
			g.SetSym(i, j, 0.5*(alpha[i]*alpha[j]-inv.At(i, j)))
		}
	}
	kernel.Backward(m.kern, f, g, dKernel, dF)

	return &solveOut{
		alpha:  alpha,
		quad:   floats.Dot(r, alpha),
		logDet: chol.LogDet(),
		dNoise: 0.5 * (floats.Dot(alpha, alpha) - trace),
	}, nil
}

func (m *Model) iterativeSolve(ctx context.Context, f *mat.Dense, r []float64, shift float64, dKernel []float64, dF *mat.Dense) (*solveOut, error) {
	op, cov, _, err := m.prior(f, dF != nil)
	if err != nil {
		return nil, err
	}
	khat := linalg.AddDiag(op, shift)
	alpha, res, err := linalg.CG(khat, r, m.opts.cg)
	if err != nil {
		return nil, err
	}
	est, err := linalg.StochasticLogDet(ctx, khat, m.opts.probes, m.rng, m.opts.cg, m.opts.workers)
	if err != nil {
		return nil, err
	}

	p := float64(m.opts.probes)
	outers := make([]linalg.Outer, 0, 1+m.opts.probes)
	outers = append(outers, linalg.Outer{Coef: 0.5, A: alpha, B: alpha})
	iters := res.Iterations
	traceEst := 0.0
	for i, z := range est.Probes {
		outers = append(outers, linalg.Outer{Coef: -0.5 / p, A: est.Solves[i], B: z})
		traceEst += floats.Dot(est.Solves[i], z)
		iters += est.Results[i].Iterations
	}
	traceEst /= p

	if cov != nil {
		if err := m.ski.Backward(cov, outers, dKernel, dF); err != nil {
			return nil, err
		}
	} else {
		n := len(r)
		g := mat.NewDense(n, n, nil)
		for _, o := range outers {
			for i := 0; i < n; i++ {
				row := g.RawRowView(i)
				floats.AddScaled(row, o.Coef*o.A[i], o.B)
			}
		}
		kernel.Backward(m.kern, f, g, dKernel, dF)
	}

	return &solveOut{
		alpha:   alpha,
		quad:    floats.Dot(r, alpha),
		logDet:  est.LogDet,
		dNoise:  0.5*floats.Dot(alpha, alpha) - 0.5*traceEst,
		cgIters: iters,
	}, nil
}

// Parameters returns the model's raw parameter vector.
func (l *MarginalLogLikelihood) Parameters() []float64 { return l.model.Parameters() }

// SetParameters replaces the model's raw parameters.
func (l *MarginalLogLikelihood) SetParameters(theta []float64) error {
	return l.model.SetParameters(theta)
}

// LossGrad returns −L/n and its gradient.
func (l *MarginalLogLikelihood) LossGrad(ctx context.Context) (float64, []float64, error) {
	ev, err := l.Evaluate(ctx)
	if err != nil {
		return 0, nil, err
	}
	scale := -1 / float64(l.model.NumData())
	floats.Scale(scale, ev.Gradient)

	return scale * ev.Value, ev.Gradient, nil
}
