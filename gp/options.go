// SPDX-License-Identifier: MIT

package gp

import (
	"math"

	"go.uber.org/zap"

	"github.com/katalvlaran/kissgp/feature"
	"github.com/katalvlaran/kissgp/linalg"
)

// Inference selects how (K + σ²I) is solved and how log|K + σ²I| is computed.
type Inference int

const (
	// InferenceExact factorises the dense covariance (Cholesky).
	InferenceExact Inference = iota
	// InferenceIterative uses conjugate gradients for solves and stochastic
	// Lanczos quadrature for the log-determinant. Required by grid kernels.
	InferenceIterative
)

// String returns "exact" or "iterative".
func (i Inference) String() string {
	switch i {
	case InferenceExact:
		return "exact"
	case InferenceIterative:
		return "iterative"
	}

	return "unknown"
}

// Defaults.
const (
	DefaultProbes        = 10
	DefaultJitter        = 1e-6
	DefaultJitterRetries = 0
	DefaultSeed          = 1
	DefaultWorkers       = 1
)

const (
	panicProbes      = "gp: WithProbes: count must be ≥ 1"
	panicRank        = "gp: WithLanczosRank: rank must be ≥ 1"
	panicTolerance   = "gp: WithCGTolerance: tolerance must be finite and > 0"
	panicIterations  = "gp: WithCGMaxIterations: iterations must be ≥ 1"
	panicJitter      = "gp: WithJitter: initial must be finite and > 0, retries ≥ 0"
	panicWorkers     = "gp: WithWorkers: workers must be ≥ 1"
	panicNilMean     = "gp: WithMean: mean must not be nil"
	panicNilLik      = "gp: WithLikelihood: likelihood must not be nil"
	panicNilFeatures = "gp: WithExtractor: extractor must not be nil"
)

// Option configures NewModel.
type Option func(*Options)

// Options holds model settings.
type Options struct {
	mean          Mean
	likelihood    *GaussianLikelihood
	extractor     feature.Extractor
	rescale       feature.Rescale
	inference     Inference
	cg            linalg.CGOptions
	probes        int
	lanczosRank   int
	jitter        float64
	jitterRetries int
	seed          int64
	workers       int
	logger        *zap.Logger
}

func gatherOptions(opts []Option) Options {
	o := Options{
		inference:     InferenceExact,
		cg:            linalg.DefaultCGOptions(),
		probes:        DefaultProbes,
		lanczosRank:   linalg.DefaultLanczosRank,
		jitter:        DefaultJitter,
		jitterRetries: DefaultJitterRetries,
		seed:          DefaultSeed,
		workers:       DefaultWorkers,
		rescale:       feature.DefaultRescale(),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.mean == nil {
		o.mean = NewConstantMean()
	}
	if o.likelihood == nil {
		o.likelihood = NewGaussianLikelihood()
	}

	return o
}

// WithMean sets the prior mean (default ConstantMean at 0).
func WithMean(m Mean) Option {
	if m == nil {
		panic(panicNilMean)
	}

	return func(o *Options) { o.mean = m }
}

// WithLikelihood sets the Gaussian likelihood (default noise softplus(0)).
func WithLikelihood(l *GaussianLikelihood) Option {
	if l == nil {
		panic(panicNilLik)
	}

	return func(o *Options) { o.likelihood = l }
}

// WithExtractor warps inputs through e and rescales its output per batch onto
// r before the kernel sees them (deep kernel learning).
func WithExtractor(e feature.Extractor, r feature.Rescale) Option {
	if e == nil {
		panic(panicNilFeatures)
	}

	return func(o *Options) {
		o.extractor = e
		o.rescale = r
	}
}

// WithInference selects exact or iterative inference (default exact).
func WithInference(i Inference) Option {
	return func(o *Options) { o.inference = i }
}

// WithCGTolerance sets the relative residual tolerance of every CG solve.
func WithCGTolerance(tol float64) Option {
	if !(tol > 0) || math.IsInf(tol, 1) {
		panic(panicTolerance)
	}

	return func(o *Options) { o.cg.Tolerance = tol }
}

// WithCGMaxIterations bounds every CG solve.
func WithCGMaxIterations(n int) Option {
	if n < 1 {
		panic(panicIterations)
	}

	return func(o *Options) { o.cg.MaxIterations = n }
}

// WithProbes sets the number of Rademacher probes of the log-det estimate.
func WithProbes(p int) Option {
	if p < 1 {
		panic(panicProbes)
	}

	return func(o *Options) { o.probes = p }
}

// WithLanczosRank sets the rank of the LOVE variance cache.
func WithLanczosRank(k int) Option {
	if k < 1 {
		panic(panicRank)
	}

	return func(o *Options) { o.lanczosRank = k }
}

// WithJitter enables up to retries further attempts after a numerical
// failure, adding initial, 10·initial, … to the diagonal. Each retry is
// logged at Warn. The default is no retry.
func WithJitter(initial float64, retries int) Option {
	if !(initial > 0) || math.IsInf(initial, 1) || retries < 0 {
		panic(panicJitter)
	}

	return func(o *Options) {
		o.jitter = initial
		o.jitterRetries = retries
	}
}

// WithSeed seeds the probe and Lanczos restart source.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.seed = seed }
}

// WithWorkers bounds the number of concurrent CG solves (probes, predictive
// variance columns).
func WithWorkers(n int) Option {
	if n < 1 {
		panic(panicWorkers)
	}

	return func(o *Options) { o.workers = n }
}

// WithLogger sets the model logger; nil disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
	}
}
