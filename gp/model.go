// SPDX-License-Identifier: MIT
// Package: gp
//
// Purpose:
//   - Model: training data plus every learned component, and the
//     TRAIN/EVAL state machine.
//
// Parameter vector layout (ParamSet blocks, in order):
//
//	kernel | mean | likelihood | extractor (only with WithExtractor)

package gp

import (
	"context"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kissgp/feature"
	"github.com/katalvlaran/kissgp/grid"
	"github.com/katalvlaran/kissgp/kernel"
	"github.com/katalvlaran/kissgp/linalg"
)

// Mode is the model state: TRAIN returns the prior, EVAL the posterior.
type Mode int

const (
	ModeTrain Mode = iota
	ModeEval
)

// String returns "train" or "eval".
func (m Mode) String() string {
	if m == ModeEval {
		return "eval"
	}

	return "train"
}

// Block names inside ParamSet.
const (
	BlockKernel     = "kernel"
	BlockMean       = "mean"
	BlockLikelihood = "likelihood"
	BlockExtractor  = "extractor"
)

const (
	idxKernel = iota
	idxMean
	idxLikelihood
	idxExtractor
)

// Model is an exact GP regression model. It is not safe for concurrent use;
// parameters change only between calls.
type Model struct {
	x      *mat.Dense
	y      []float64
	kern   kernel.Kernel
	ski    *grid.Kernel
	opts   Options
	params *ParamSet
	mode   Mode
	rng    *rand.Rand
	logger *zap.Logger
	cache  *evalCache
}

// MultivariateNormal is a mean vector and a covariance operator.
type MultivariateNormal struct {
	Mean []float64
	Cov  linalg.Operator
}

// NewModel builds a model over training inputs x (n × d) and targets y.
// The model starts in TRAIN mode. x and y are copied.
//
// Errors:
//   - ErrShape: empty x, len(y) ≠ n, input width ≠ kernel (or extractor)
//     width.
//   - ErrConfiguration: extractor output ≠ kernel width, invalid rescale
//     range, grid kernel with exact inference, grid kernel nested inside
//     another kernel, unknown inference.
func NewModel(x *mat.Dense, y []float64, k kernel.Kernel, opts ...Option) (*Model, error) {
	if x == nil || x.IsEmpty() {
		return nil, shapeErrorf(opNewModel, ErrEmptyTraining)
	}
	n, d := x.Dims()
	if len(y) != n {
		return nil, shapeErrorf(opNewModel, ErrTargetLength)
	}
	o := gatherOptions(opts)

	if e := o.extractor; e != nil {
		if e.InDims() != d {
			return nil, shapeErrorf(opNewModel, ErrInputDims)
		}
		if k.Dims() != 0 && e.OutDims() != k.Dims() {
			return nil, configErrorf(opNewModel, ErrExtractorDims)
		}
		if err := o.rescale.Validate(); err != nil {
			return nil, configErrorf(opNewModel, err)
		}
	} else if k.Dims() != 0 && k.Dims() != d {
		return nil, shapeErrorf(opNewModel, ErrInputDims)
	}

	if nestedGrid(k) {
		return nil, configErrorf(opNewModel, ErrNestedGrid)
	}
	ski, isGrid := k.(*grid.Kernel)
	switch o.inference {
	case InferenceExact:
		if isGrid {
			return nil, configErrorf(opNewModel, ErrGridNeedsIterative)
		}
	case InferenceIterative:
	default:
		return nil, configErrorf(opNewModel, ErrUnknownInference)
	}

	names := []string{BlockKernel, BlockMean, BlockLikelihood}
	comps := []component{k, o.mean, o.likelihood}
	if o.extractor != nil {
		names = append(names, BlockExtractor)
		comps = append(comps, o.extractor)
	}

	m := &Model{
		x:      mat.DenseCopyOf(x),
		y:      append([]float64(nil), y...),
		kern:   k,
		opts:   o,
		params: newParamSet(names, comps),
		mode:   ModeTrain,
		rng:    rand.New(rand.NewSource(o.seed)),
		logger: o.logger.Named("gp"),
	}
	if isGrid {
		m.ski = ski
	}
	m.logger.Debug("model built",
		zap.Int("n", n),
		zap.Int("dims", d),
		zap.String("kernel", k.Kind().String()),
		zap.String("inference", o.inference.String()),
		zap.Int("params", m.params.Len()))

	return m, nil
}

// nestedGrid reports whether a grid kernel sits below the top of k's
// wrapper chain.
func nestedGrid(k kernel.Kernel) bool {
	for {
		w, ok := k.(interface{ Child() kernel.Kernel })
		if !ok {
			return false
		}
		k = w.Child()
		if k == nil {
			return false
		}
		if k.Kind() == kernel.KindGridInterpolation {
			return true
		}
	}
}

// Train switches to TRAIN mode and drops the prediction caches.
func (m *Model) Train() {
	m.mode = ModeTrain
	m.dropCache()
}

// Eval switches to EVAL mode. Prediction caches are rebuilt on the next
// Predict.
func (m *Model) Eval() {
	m.mode = ModeEval
	m.dropCache()
}

// Mode returns the current mode.
func (m *Model) Mode() Mode { return m.mode }

// Kernel returns the covariance kernel the model owns.
func (m *Model) Kernel() kernel.Kernel { return m.kern }

// Mean returns the prior mean function.
func (m *Model) Mean() Mean { return m.opts.mean }

// Likelihood returns the Gaussian observation model.
func (m *Model) Likelihood() *GaussianLikelihood { return m.opts.likelihood }

// Extractor returns the feature extractor, or nil without one.
func (m *Model) Extractor() feature.Extractor { return m.opts.extractor }

// Inference returns the inference strategy chosen at construction.
func (m *Model) Inference() Inference { return m.opts.inference }

// NumData returns the number of training observations.
func (m *Model) NumData() int { return len(m.y) }

// Targets returns a copy of the training targets.
func (m *Model) Targets() []float64 { return append([]float64(nil), m.y...) }

// TrainingInputs returns a copy of the training inputs.
func (m *Model) TrainingInputs() *mat.Dense { return mat.DenseCopyOf(m.x) }

// Params returns the live parameter set. Writes through it are seen by the
// next Evaluate or Predict.
func (m *Model) Params() *ParamSet { return m.params }

// Parameters returns a copy of the flat raw parameter vector.
func (m *Model) Parameters() []float64 { return m.params.Vector() }

// SetParameters replaces the flat raw parameter vector and drops the
// prediction caches.
//
// Errors: ErrConfiguration wrapping ErrParamCount.
func (m *Model) SetParameters(theta []float64) error {
	m.dropCache()

	return m.params.SetVector(theta)
}

// featureTape carries what the feature backward pass needs.
type featureTape struct {
	mlp     *feature.Tape
	rescale *feature.RescaleTape
}

// features maps raw inputs to kernel inputs. Without an extractor x is
// returned as is.
func (m *Model) features(x *mat.Dense) (*mat.Dense, *featureTape, error) {
	if m.opts.extractor == nil {
		return x, nil, nil
	}
	h, tape, err := m.opts.extractor.Forward(x)
	if err != nil {
		return nil, nil, err
	}
	z, rt := m.opts.rescale.Forward(h)

	return z, &featureTape{mlp: tape, rescale: rt}, nil
}

// backpropFeatures turns ∂L/∂features into ∂L/∂θ_extractor.
func (m *Model) backpropFeatures(ft *featureTape, dF *mat.Dense, dParams []float64) error {
	dH, err := m.opts.rescale.Backward(ft.rescale, dF)
	if err != nil {
		return err
	}

	return m.opts.extractor.Backward(ft.mlp, dH, dParams)
}

func (m *Model) checkInputs(op string, x *mat.Dense) error {
	if x == nil || x.IsEmpty() {
		return shapeErrorf(op, ErrEmptyTraining)
	}
	_, d := m.x.Dims()
	if _, c := x.Dims(); c != d {
		return shapeErrorf(op, ErrInputDims)
	}

	return nil
}

// prior returns the prior covariance operator over kernel inputs f.
func (m *Model) prior(f *mat.Dense, withGrad bool) (linalg.Operator, *grid.Covariance, *mat.SymDense, error) {
	if m.ski != nil {
		cov, err := m.ski.Covariance(f, withGrad)
		if err != nil {
			return nil, nil, nil, err
		}

		return cov, cov, nil, nil
	}
	k, err := kernel.Matrix(m.kern, f)
	if err != nil {
		return nil, nil, nil, err
	}

	return linalg.NewDense(k), nil, k, nil
}

// Forward returns the prior N(m(x), K(x,x)) in TRAIN mode and the posterior
// (with full covariance) in EVAL mode.
func (m *Model) Forward(ctx context.Context, x *mat.Dense) (*MultivariateNormal, error) {
	if err := m.checkInputs(opForward, x); err != nil {
		return nil, err
	}
	if m.mode == ModeEval {
		p, err := m.Predict(ctx, x, WithFullCovariance())
		if err != nil {
			return nil, err
		}

		return &MultivariateNormal{Mean: p.Mean, Cov: linalg.NewDense(p.Covariance)}, nil
	}

	f, _, err := m.features(x)
	if err != nil {
		return nil, classify(opForward, err)
	}
	cov, _, _, err := m.prior(f, false)
	if err != nil {
		return nil, classify(opForward, err)
	}

	return &MultivariateNormal{Mean: m.opts.mean.Eval(f), Cov: cov}, nil
}

// withJitter runs fn with diagonal shift base, retrying numerical failures
// with growing jitter when WithJitter enabled retries. It returns the jitter
// of the successful attempt.
func (m *Model) withJitter(op string, base float64, fn func(shift float64) error) (float64, error) {
	jitter := 0.0
	for attempt := 0; ; attempt++ {
		err := fn(base + jitter)
		if err == nil {
			return jitter, nil
		}
		if !isNumerical(err) || attempt >= m.opts.jitterRetries {
			return jitter, err
		}
		if jitter == 0 {
			jitter = m.opts.jitter
		} else {
			jitter *= 10
		}
		m.logger.Warn("numerical failure, retrying with jitter",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Float64("jitter", jitter),
			zap.Error(err))
	}
}

func residual(y, mean []float64) []float64 {
	r := make([]float64, len(y))
	for i := range y {
		r[i] = y[i] - mean[i]
	}

	return r
}
