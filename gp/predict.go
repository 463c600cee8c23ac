// SPDX-License-Identifier: MIT
// Package: gp
//
// Purpose:
//   - Posterior mean and (co)variance at test inputs.
//
// With k*_j = K(X, x*_j) and K̂ = K + σ²I:
//
//	μ*_j = m(x*_j) + k*_jᵀ α,   α = K̂⁻¹(y − m(X))
//	Σ*_ij = k(x*_i, x*_j) − k*_iᵀ K̂⁻¹ k*_j
//
// The subtracted term is always assembled as E = Lᵀ·Rt for two n'×n* blocks:
//
//	exact (Cholesky)   L = K(X,X*),  Rt = K̂⁻¹K(X,X*)
//	exact (CG)         L = K(X,X*),  Rt = CG solves, one per column
//	LOVE               L = Rt = Rᵀ K(X,X*) with R Rᵀ ≈ K̂⁻¹ from one
//	                   Lanczos pass of the chosen rank
//
// LOVE's R spans a Krylov subspace, so k*ᵀRRᵀk* ≤ k*ᵀK̂⁻¹k*: LOVE variances
// are never below the exact ones and reach them once the rank covers n.
// Under a grid kernel the mean uses the cached grid vector a = K_grid Wᵀα
// and LOVE the cache S = K_grid Wᵀ R, so each test point costs O(nnz(w*)).
// Both caches, α and the LOVE root live on the model until the parameters or
// the mode change.
//
// Under a feature extractor, training and test inputs pass the extractor and
// the rescale as one batch, so the rescale statistics depend on the test
// batch.

package gp

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kissgp/grid"
	"github.com/katalvlaran/kissgp/kernel"
	"github.com/katalvlaran/kissgp/linalg"
)

// PredictOption configures one Predict call.
type PredictOption func(*predictOptions)

type predictOptions struct {
	fast  bool
	full  bool
	noise bool
}

// WithFastVariance computes variances with LOVE instead of exact solves.
func WithFastVariance() PredictOption { return func(o *predictOptions) { o.fast = true } }

// WithFullCovariance also returns the n*×n* posterior covariance.
func WithFullCovariance() PredictOption { return func(o *predictOptions) { o.full = true } }

// WithObservationNoise adds σ² to the predictive variance (the predictive
// distribution of y instead of f).
func WithObservationNoise() PredictOption { return func(o *predictOptions) { o.noise = true } }

// Prediction is the posterior at a batch of test inputs.
type Prediction struct {
	Mean     []float64
	Variance []float64
	// Covariance is set only with WithFullCovariance.
	Covariance *mat.SymDense
}

// StdDev returns √Variance element-wise.
func (p *Prediction) StdDev() []float64 {
	out := make([]float64, len(p.Variance))
	for i, v := range p.Variance {
		out[i] = math.Sqrt(v)
	}

	return out
}

// ConfidenceRegion returns mean ∓ z·stddev.
func (p *Prediction) ConfidenceRegion(z float64) (lower, upper []float64) {
	sd := p.StdDev()
	lower = make([]float64, len(sd))
	upper = make([]float64, len(sd))
	for i, s := range sd {
		lower[i] = p.Mean[i] - z*s
		upper[i] = p.Mean[i] + z*s
	}

	return lower, upper
}

// posterior gathers the pieces of one prediction before assembly.
type posterior struct {
	mean      []float64
	priorDiag []float64
	prior     *mat.SymDense
	left      *mat.Dense
	right     *mat.Dense
}

// Predict returns the posterior at x (n* × d). The model must be in EVAL
// mode.
//
// Without a feature extractor the test-independent state (α, the factor or
// operator of K̂, the grid mean vector and the LOVE root) is cached on the
// first call and reused until the parameters change or the mode is switched.
//
// Errors: ErrConfiguration (wrong mode), ErrShape (input width, grid bounds),
// ErrNumerical.
func (m *Model) Predict(ctx context.Context, x *mat.Dense, opts ...PredictOption) (*Prediction, error) {
	if m.mode != ModeEval {
		return nil, configErrorf(opPredict, ErrWrongMode)
	}
	if err := m.checkInputs(opPredict, x); err != nil {
		return nil, err
	}
	var po predictOptions
	for _, opt := range opts {
		opt(&po)
	}

	fTrain, fTest, err := m.jointFeatures(x)
	if err != nil {
		return nil, classify(opPredict, err)
	}
	noise := m.opts.likelihood.Noise()

	base, prior := noise, 0.0
	if c := m.validCache(); c != nil {
		base, prior = c.shift, c.jitter
	}
	var post *posterior
	jitter, err := m.withJitter(opPredict, base, func(shift float64) error {
		c, err := m.evalState(fTrain, shift, shift-noise)
		if err != nil {
			return err
		}
		switch {
		case m.opts.inference == InferenceExact:
			post, err = m.exactPosterior(c, fTrain, fTest, po)
		case m.ski != nil:
			post, err = m.gridPosterior(ctx, c, fTest, po)
		default:
			post, err = m.densePosterior(ctx, c, fTrain, fTest, po)
		}

		return err
	})
	if err != nil {
		return nil, classify(opPredict, err)
	}
	mean := m.opts.mean.Eval(fTest)
	floats.Add(mean, post.mean)

	p := assemble(post, mean, po)
	if po.noise {
		for i := range p.Variance {
			p.Variance[i] += noise
			if p.Covariance != nil {
				p.Covariance.SetSym(i, i, p.Covariance.At(i, i)+noise)
			}
		}
	}
	m.logger.Debug("predict",
		zap.Int("points", len(mean)),
		zap.Bool("fast_variance", po.fast),
		zap.Bool("full_covariance", po.full),
		zap.Float64("jitter", prior+jitter))

	return p, nil
}

// evalCache is the test-independent half of the posterior at one diagonal
// shift. root and gridRoot are filled by the first fast-variance call.
type evalCache struct {
	theta    []float64
	resid    []float64 // y − m(X)
	shift    float64
	jitter   float64
	chol     *mat.Cholesky // exact only
	khat     linalg.Operator
	cov      *grid.Covariance // grid only
	alpha    []float64
	gridMean []float64   // K_grid Wᵀα
	root     *mat.Dense  // n × rank, R Rᵀ ≈ K̂⁻¹
	gridRoot [][]float64 // K_grid Wᵀ R, one length-m vector per column
}

// validCache returns the cache when it still matches the parameters.
func (m *Model) validCache() *evalCache {
	c := m.cache
	if c == nil || m.opts.extractor != nil || !floats.Equal(c.theta, m.params.Vector()) {
		return nil
	}

	return c
}

func (m *Model) dropCache() { m.cache = nil }

// evalState returns the cached state at shift, building it when missing.
// Under an extractor the training features depend on the test batch, so the
// state is rebuilt and never stored.
func (m *Model) evalState(fTrain *mat.Dense, shift, jitter float64) (*evalCache, error) {
	if c := m.validCache(); c != nil && c.shift == shift {
		return c, nil
	}
	r := residual(m.y, m.opts.mean.Eval(fTrain))
	c := &evalCache{theta: m.params.Vector(), resid: r, shift: shift, jitter: jitter}

	switch {
	case m.opts.inference == InferenceExact:
		k, err := kernel.Matrix(m.kern, fTrain)
		if err != nil {
			return nil, err
		}
		chol, err := linalg.Factorize(k, shift)
		if err != nil {
			return nil, err
		}
		var a mat.VecDense
		if err := ignoreCondition(chol.SolveVecTo(&a, mat.NewVecDense(len(r), r))); err != nil {
			return nil, err
		}
		c.chol = chol
		c.khat = linalg.AddDiag(linalg.NewDense(k), shift)
		c.alpha = a.RawVector().Data
	case m.ski != nil:
		cov, err := m.ski.Covariance(fTrain, false)
		if err != nil {
			return nil, err
		}
		c.cov = cov
		c.khat = linalg.AddDiag(cov, shift)
		if c.alpha, _, err = linalg.CG(c.khat, r, m.opts.cg); err != nil {
			return nil, err
		}
		c.gridMean = cov.GridVector(c.alpha)
	default:
		op, _, _, err := m.prior(fTrain, false)
		if err != nil {
			return nil, err
		}
		c.khat = linalg.AddDiag(op, shift)
		if c.alpha, _, err = linalg.CG(c.khat, r, m.opts.cg); err != nil {
			return nil, err
		}
	}

	if m.opts.extractor == nil {
		m.cache = c
	}
	m.logger.Debug("posterior cache built",
		zap.Int("n", len(r)),
		zap.Float64("shift", shift))

	return c, nil
}

// jointFeatures maps training and test inputs to kernel inputs. With an
// extractor both go through one forward pass.
func (m *Model) jointFeatures(x *mat.Dense) (train, test *mat.Dense, err error) {
	if m.opts.extractor == nil {
		return m.x, x, nil
	}
	n, d := m.x.Dims()
	ns, _ := x.Dims()
	joint := mat.NewDense(n+ns, d, nil)
	joint.Slice(0, n, 0, d).(*mat.Dense).Copy(m.x)
	joint.Slice(n, n+ns, 0, d).(*mat.Dense).Copy(x)
	f, _, err := m.features(joint)
	if err != nil {
		return nil, nil, err
	}
	_, k := f.Dims()

	return mat.DenseCopyOf(f.Slice(0, n, 0, k)), mat.DenseCopyOf(f.Slice(n, n+ns, 0, k)), nil
}

// assemble turns a posterior into mean, variance and optional covariance.
// Variances are clamped at 0 against round-off.
func assemble(post *posterior, mean []float64, po predictOptions) *Prediction {
	ns := len(mean)
	p := &Prediction{Mean: mean, Variance: make([]float64, ns)}
	for j := 0; j < ns; j++ {
		explained := floats.Dot(mat.Col(nil, j, post.left), mat.Col(nil, j, post.right))
		p.Variance[j] = math.Max(post.priorDiag[j]-explained, 0)
	}
	if !po.full {
		return p
	}

	var e mat.Dense
	e.Mul(post.left.T(), post.right)
	cov := mat.NewSymDense(ns, nil)
	for i := 0; i < ns; i++ {
		cov.SetSym(i, i, p.Variance[i])
		for j := i + 1; j < ns; j++ {
			cov.SetSym(i, j, post.prior.At(i, j)-0.5*(e.At(i, j)+e.At(j, i)))
		}
	}
	p.Covariance = cov

	return p
}

// loveRoot returns R with R Rᵀ ≈ K̂⁻¹ from one Lanczos pass on c.khat. The
// pass starts from the residual and runs once per cache.
func (m *Model) loveRoot(c *evalCache) (*mat.Dense, error) {
	if c.root != nil {
		return c.root, nil
	}
	start := c.resid
	if floats.Norm(start, 2) == 0 {
		start = linalg.Rademacher(m.rng, len(start))
	}
	lz, err := linalg.Lanczos(c.khat, start, m.opts.lanczosRank, m.rng)
	if err != nil {
		return nil, err
	}
	root, err := lz.InverseRoot()
	if err != nil {
		return nil, err
	}
	_, rank := root.Dims()
	m.logger.Debug("love root built", zap.Int("rank", rank))
	c.root = root

	return root, nil
}

func (m *Model) exactPosterior(c *evalCache, fTrain, fTest *mat.Dense, po predictOptions) (*posterior, error) {
	cross, err := kernel.Cross(m.kern, fTrain, fTest)
	if err != nil {
		return nil, err
	}

	post := &posterior{left: cross}
	var mu mat.VecDense
	mu.MulVec(cross.T(), mat.NewVecDense(len(c.alpha), c.alpha))
	post.mean = mu.RawVector().Data
	if err := m.denseTestPrior(post, fTest, po); err != nil {
		return nil, err
	}

	if po.fast {
		return m.denseLove(c, post, cross)
	}
	var s mat.Dense
	if err := ignoreCondition(c.chol.SolveTo(&s, cross)); err != nil {
		return nil, err
	}
	post.right = &s

	return post, nil
}

// denseLove sets both posterior blocks to Rᵀ K(X,X*).
func (m *Model) denseLove(c *evalCache, post *posterior, cross *mat.Dense) (*posterior, error) {
	root, err := m.loveRoot(c)
	if err != nil {
		return nil, err
	}
	var b mat.Dense
	b.Mul(root.T(), cross)
	post.left, post.right = &b, &b

	return post, nil
}

func (m *Model) denseTestPrior(post *posterior, fTest *mat.Dense, po predictOptions) error {
	post.priorDiag = kernel.Diag(m.kern, fTest)
	if !po.full {
		return nil
	}
	prior, err := kernel.Matrix(m.kern, fTest)
	if err != nil {
		return err
	}
	post.prior = prior

	return nil
}

func (m *Model) densePosterior(ctx context.Context, c *evalCache, fTrain, fTest *mat.Dense, po predictOptions) (*posterior, error) {
	cross, err := kernel.Cross(m.kern, fTrain, fTest)
	if err != nil {
		return nil, err
	}

	post := &posterior{left: cross}
	var mu mat.VecDense
	mu.MulVec(cross.T(), mat.NewVecDense(len(c.alpha), c.alpha))
	post.mean = mu.RawVector().Data
	if err := m.denseTestPrior(post, fTest, po); err != nil {
		return nil, err
	}

	if po.fast {
		return m.denseLove(c, post, cross)
	}
	post.right, err = m.solveColumns(ctx, c.khat, cross)
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (m *Model) gridPosterior(ctx context.Context, c *evalCache, fTest *mat.Dense, po predictOptions) (*posterior, error) {
	star, err := m.ski.Grid().Weights(fTest, false)
	if err != nil {
		return nil, err
	}

	ns, _ := fTest.Dims()
	post := &posterior{mean: make([]float64, ns), priorDiag: c.cov.PriorDiag(star)}
	for j := 0; j < ns; j++ {
		post.mean[j] = star.W.RowDot(j, c.gridMean)
	}
	if po.full {
		post.prior = c.cov.Prior(star)
	}

	if po.fast {
		if c.gridRoot == nil {
			root, err := m.loveRoot(c)
			if err != nil {
				return nil, err
			}
			_, rank := root.Dims()
			c.gridRoot = make([][]float64, rank)
			for k := range c.gridRoot {
				c.gridRoot[k] = c.cov.GridVector(mat.Col(nil, k, root))
			}
		}
		b := mat.NewDense(len(c.gridRoot), ns, nil)
		for k, s := range c.gridRoot {
			row := b.RawRowView(k)
			for j := 0; j < ns; j++ {
				row[j] = star.W.RowDot(j, s)
			}
		}
		post.left, post.right = b, b

		return post, nil
	}

	cross := mat.NewDense(c.cov.Size(), ns, nil)
	for j := 0; j < ns; j++ {
		cross.SetCol(j, c.cov.CrossColumn(star, j))
	}
	post.left = cross
	post.right, err = m.solveColumns(ctx, c.khat, cross)
	if err != nil {
		return nil, err
	}

	return post, nil
}

// solveColumns returns K̂⁻¹B column by column with CG.
func (m *Model) solveColumns(ctx context.Context, khat linalg.Operator, b *mat.Dense) (*mat.Dense, error) {
	n, ns := b.Dims()
	rhs := make([][]float64, ns)
	for j := range rhs {
		rhs[j] = mat.Col(nil, j, b)
	}
	xs, _, err := linalg.SolveMany(ctx, khat, rhs, m.opts.cg, m.opts.workers)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(n, ns, nil)
	for j, x := range xs {
		out.SetCol(j, x)
	}

	return out, nil
}
