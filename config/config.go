// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"math"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Recognised option values.
const (
	KernelRBF             = "rbf"
	KernelSpectralMixture = "sm"
	InterpolationCubic    = "cubic"
	InterpolationLinear   = "linear"
	InferenceExact        = "exact"
	InferenceIterative    = "iterative"
)

// minGridSize is the smallest grid that leaves one interval inside the
// default padding.
const minGridSize = 6

// Config holds every recognised model option. A zero GridSize disables
// grid interpolation; a zero FeatureDims disables the feature extractor.
type Config struct {
	Kernel      string `envconfig:"KISSGP_KERNEL" default:"rbf" yaml:"kernel"`
	Mixtures    int    `envconfig:"KISSGP_MIXTURES" default:"4" yaml:"mixtures"`
	ARD         bool   `envconfig:"KISSGP_ARD" default:"true" yaml:"ard"`
	OutputScale bool   `envconfig:"KISSGP_OUTPUTSCALE" default:"true" yaml:"outputscale"`

	GridSize      int     `envconfig:"KISSGP_GRID_SIZE" default:"0" yaml:"grid_size"`
	GridMargin    float64 `envconfig:"KISSGP_GRID_MARGIN" default:"0.1" yaml:"grid_margin"`
	Interpolation string  `envconfig:"KISSGP_INTERPOLATION" default:"cubic" yaml:"interpolation"`

	Inference       string  `envconfig:"KISSGP_INFERENCE" default:"exact" yaml:"inference"`
	CGTolerance     float64 `envconfig:"KISSGP_CG_TOLERANCE" default:"1e-6" yaml:"cg_tolerance"`
	CGMaxIterations int     `envconfig:"KISSGP_CG_MAX_ITERATIONS" default:"1000" yaml:"cg_max_iterations"`
	LanczosRank     int     `envconfig:"KISSGP_LANCZOS_RANK" default:"100" yaml:"lanczos_rank"`
	Probes          int     `envconfig:"KISSGP_PROBES" default:"10" yaml:"probes"`
	FastVariance    bool    `envconfig:"KISSGP_FAST_VARIANCE" default:"false" yaml:"fast_variance"`
	Workers         int     `envconfig:"KISSGP_WORKERS" default:"1" yaml:"workers"`

	ExtractorHidden []int `envconfig:"KISSGP_EXTRACTOR_HIDDEN" yaml:"extractor_hidden,flow,omitempty"`
	FeatureDims     int   `envconfig:"KISSGP_FEATURE_DIMS" default:"0" yaml:"feature_dims"`

	NoiseFloor    float64 `envconfig:"KISSGP_NOISE_FLOOR" default:"1e-4" yaml:"noise_floor"`
	Jitter        float64 `envconfig:"KISSGP_JITTER" default:"1e-6" yaml:"jitter"`
	JitterRetries int     `envconfig:"KISSGP_JITTER_RETRIES" default:"0" yaml:"jitter_retries"`

	LearningRate float64 `envconfig:"KISSGP_LEARNING_RATE" default:"0.1" yaml:"learning_rate"`
	Iterations   int     `envconfig:"KISSGP_ITERATIONS" default:"100" yaml:"iterations"`
	Seed         int64   `envconfig:"KISSGP_SEED" default:"1" yaml:"seed"`
	LogLevel     string  `envconfig:"KISSGP_LOG_LEVEL" default:"info" yaml:"log_level"`
}

// Default returns the configuration built from struct tag defaults and the
// environment.
func Default() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, configErrorf(opLoad, fmt.Errorf("error loading environment variables: %w", err))
	}

	return &cfg, nil
}

// Load reads the environment, then overlays the YAML file at path when path
// is not empty, then validates.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, configErrorf(opLoad, fmt.Errorf("reading config: %w", err))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, configErrorf(opLoad, fmt.Errorf("parsing config: %w", err))
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field. The first problem found is returned.
func (c *Config) Validate() error {
	switch c.Kernel {
	case KernelRBF:
	case KernelSpectralMixture:
		if c.Mixtures < 1 {
			return fieldErrorf("mixtures", ErrOutOfRange)
		}
	default:
		return fieldErrorf("kernel", ErrUnknownKernel)
	}
	switch c.Interpolation {
	case InterpolationCubic, InterpolationLinear:
	default:
		return fieldErrorf("interpolation", ErrUnknownInterpolation)
	}
	switch c.Inference {
	case InferenceExact:
		if c.GridSize > 0 {
			return fieldErrorf("inference", fmt.Errorf("%w: grid interpolation needs %q", ErrUnknownInference, InferenceIterative))
		}
	case InferenceIterative:
	default:
		return fieldErrorf("inference", ErrUnknownInference)
	}

	checks := []struct {
		field string
		ok    bool
	}{
		{"grid_size", c.GridSize == 0 || c.GridSize >= minGridSize},
		{"grid_margin", c.GridMargin >= 0 && !math.IsInf(c.GridMargin, 1)},
		{"cg_tolerance", c.CGTolerance > 0 && !math.IsInf(c.CGTolerance, 1)},
		{"cg_max_iterations", c.CGMaxIterations >= 1},
		{"lanczos_rank", c.LanczosRank >= 1},
		{"probes", c.Probes >= 1},
		{"workers", c.Workers >= 1},
		{"feature_dims", c.FeatureDims >= 0},
		{"extractor_hidden", c.FeatureDims > 0 || len(c.ExtractorHidden) == 0},
		{"noise_floor", c.NoiseFloor >= 0 && !math.IsInf(c.NoiseFloor, 1)},
		{"jitter", c.Jitter > 0 && !math.IsInf(c.Jitter, 1)},
		{"jitter_retries", c.JitterRetries >= 0},
		{"learning_rate", c.LearningRate > 0 && !math.IsInf(c.LearningRate, 1)},
		{"iterations", c.Iterations >= 1},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fieldErrorf(chk.field, ErrOutOfRange)
		}
	}
	for _, h := range c.ExtractorHidden {
		if h < 1 {
			return fieldErrorf("extractor_hidden", ErrOutOfRange)
		}
	}

	return nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
