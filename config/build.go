// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kissgp/feature"
	"github.com/katalvlaran/kissgp/gp"
	"github.com/katalvlaran/kissgp/grid"
	"github.com/katalvlaran/kissgp/kernel"
)

// degenerateSpan is the half-width given to a constant input column.
const degenerateSpan = 0.5

// Build turns c and training data into a model in TRAIN mode. extra options
// are applied after the ones derived from c.
//
// The kernel works on raw inputs, or on the rescaled extractor output when
// FeatureDims > 0. With a grid, bounds cover the training inputs widened by
// GridMargin of their range on each side; under an extractor they are the
// rescale range.
func Build(c *Config, x *mat.Dense, y []float64, extra ...gp.Option) (*gp.Model, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if x == nil || x.IsEmpty() {
		return nil, fmt.Errorf("%s: %w: %w", opBuild, gp.ErrShape, gp.ErrEmptyTraining)
	}
	_, d := x.Dims()

	dims := d
	var ext feature.Extractor
	if c.FeatureDims > 0 {
		dims = c.FeatureDims
		sizes := append(append([]int{d}, c.ExtractorHidden...), dims)
		mlp, err := feature.NewMLP(sizes, rand.New(rand.NewSource(c.Seed)))
		if err != nil {
			return nil, buildErrorf(err)
		}
		ext = mlp
	}

	base, err := c.baseKernel(dims, x, y, ext == nil)
	if err != nil {
		return nil, buildErrorf(err)
	}
	k := base
	if c.GridSize > 0 {
		bounds := c.gridBounds(x, ext != nil)
		sizes := make([]int, dims)
		for i := range sizes {
			sizes[i] = c.GridSize
		}
		g, err := grid.New(bounds, sizes, grid.WithScheme(c.scheme()))
		if err != nil {
			return nil, buildErrorf(err)
		}
		if k, err = grid.NewKernel(base, g); err != nil {
			return nil, buildErrorf(err)
		}
	}

	opts := []gp.Option{
		gp.WithInference(c.inference()),
		gp.WithCGTolerance(c.CGTolerance),
		gp.WithCGMaxIterations(c.CGMaxIterations),
		gp.WithLanczosRank(c.LanczosRank),
		gp.WithProbes(c.Probes),
		gp.WithWorkers(c.Workers),
		gp.WithJitter(c.Jitter, c.JitterRetries),
		gp.WithSeed(c.Seed),
		gp.WithLikelihood(gp.NewGaussianLikelihoodWithFloor(c.NoiseFloor)),
	}
	if ext != nil {
		opts = append(opts, gp.WithExtractor(ext, feature.DefaultRescale()))
	}

	return gp.NewModel(x, y, k, append(opts, extra...)...)
}

// PredictOptions returns the per-call prediction options c selects.
func (c *Config) PredictOptions() []gp.PredictOption {
	if c.FastVariance {
		return []gp.PredictOption{gp.WithFastVariance()}
	}

	return nil
}

func buildErrorf(err error) error {
	return fmt.Errorf("%s: %w: %w", opBuild, gp.ErrConfiguration, err)
}

// baseKernel builds the stationary kernel. The spectral mixture carries its
// own weights and is never wrapped in a Scale.
func (c *Config) baseKernel(dims int, x *mat.Dense, y []float64, initFromData bool) (kernel.Kernel, error) {
	if c.Kernel == KernelSpectralMixture {
		sm, err := kernel.NewSpectralMixture(c.Mixtures, dims)
		if err != nil {
			return nil, err
		}
		if initFromData {
			if err := sm.InitFromData(x, y); err != nil {
				return nil, err
			}
		}

		return sm, nil
	}

	var ropts []kernel.Option
	if c.ARD {
		ropts = append(ropts, kernel.WithARD())
	}
	rbf, err := kernel.NewRBF(dims, ropts...)
	if err != nil {
		return nil, err
	}
	if !c.OutputScale {
		return rbf, nil
	}

	return kernel.NewScale(rbf)
}

func (c *Config) gridBounds(x *mat.Dense, rescaled bool) []grid.Bounds {
	if rescaled {
		r := feature.DefaultRescale()
		bounds := make([]grid.Bounds, c.FeatureDims)
		for i := range bounds {
			bounds[i] = grid.Bounds{Lo: r.Lower, Hi: r.Upper}
		}

		return bounds
	}

	n, d := x.Dims()
	bounds := make([]grid.Bounds, d)
	col := make([]float64, n)
	for j := range bounds {
		mat.Col(col, j, x)
		lo, hi := floats.Min(col), floats.Max(col)
		pad := c.GridMargin * (hi - lo)
		if hi-lo < 1e-12 {
			pad = degenerateSpan
		}
		bounds[j] = grid.Bounds{Lo: lo - pad, Hi: hi + pad}
	}

	return bounds
}

func (c *Config) scheme() grid.Scheme {
	if c.Interpolation == InterpolationLinear {
		return grid.Linear
	}

	return grid.Cubic
}

func (c *Config) inference() gp.Inference {
	if c.Inference == InferenceIterative {
		return gp.InferenceIterative
	}

	return gp.InferenceExact
}
