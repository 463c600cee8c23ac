package config_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/katalvlaran/kissgp/config"
	"github.com/katalvlaran/kissgp/gp"
	"github.com/katalvlaran/kissgp/grid"
	"github.com/katalvlaran/kissgp/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sine(n int) (*mat.Dense, []float64) {
	x := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n-1)
		x.Set(i, 0, v)
		y[i] = math.Sin(2 * math.Pi * v)
	}

	return x, y
}

func defaults(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)

	return cfg
}

// TestDefault checks the tag defaults.
func TestDefault(t *testing.T) {
	cfg := defaults(t)
	assert.Equal(t, config.KernelRBF, cfg.Kernel)
	assert.Equal(t, 4, cfg.Mixtures)
	assert.True(t, cfg.ARD)
	assert.True(t, cfg.OutputScale)
	assert.Zero(t, cfg.GridSize)
	assert.Equal(t, config.InterpolationCubic, cfg.Interpolation)
	assert.Equal(t, config.InferenceExact, cfg.Inference)
	assert.InDelta(t, 1e-6, cfg.CGTolerance, 0)
	assert.Equal(t, 1000, cfg.CGMaxIterations)
	assert.Equal(t, 100, cfg.LanczosRank)
	assert.Equal(t, 10, cfg.Probes)
	assert.InDelta(t, gp.DefaultNoiseFloor, cfg.NoiseFloor, 0)
	assert.Equal(t, int64(1), cfg.Seed)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.ExtractorHidden)
	assert.NoError(t, cfg.Validate())
}

// TestLoad_EnvironmentAndFile checks that file keys override the environment
// and that absent keys keep it.
func TestLoad_EnvironmentAndFile(t *testing.T) {
	t.Setenv("KISSGP_KERNEL", "sm")
	t.Setenv("KISSGP_PROBES", "32")
	t.Setenv("KISSGP_EXTRACTOR_HIDDEN", "8,4")
	t.Setenv("KISSGP_FEATURE_DIMS", "2")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.KernelSpectralMixture, cfg.Kernel)
	assert.Equal(t, 32, cfg.Probes)
	assert.Equal(t, []int{8, 4}, cfg.ExtractorHidden)

	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kernel: rbf\ngrid_size: 30\ninference: iterative\nmixtures: 2\n"), 0o600))
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.KernelRBF, cfg.Kernel)
	assert.Equal(t, 30, cfg.GridSize)
	assert.Equal(t, config.InferenceIterative, cfg.Inference)
	assert.Equal(t, 2, cfg.Mixtures)
	assert.Equal(t, 32, cfg.Probes, "untouched by the file")
}

// TestLoad_Errors covers unreadable, malformed and invalid files.
func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("kernel: [oops"), 0o600))
	_, err = config.Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("probes: 0\n"), 0o600))
	_, err = config.Load(invalid)
	assert.ErrorIs(t, err, gp.ErrConfiguration)
	assert.ErrorIs(t, err, config.ErrOutOfRange)

	t.Setenv("KISSGP_PROBES", "many")
	_, err = config.Load("")
	assert.Error(t, err)
}

// TestValidate checks every rejected field.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   error
	}{
		{"kernel", func(c *config.Config) { c.Kernel = "matern" }, config.ErrUnknownKernel},
		{"mixtures", func(c *config.Config) { c.Kernel, c.Mixtures = config.KernelSpectralMixture, 0 }, config.ErrOutOfRange},
		{"interpolation", func(c *config.Config) { c.Interpolation = "quintic" }, config.ErrUnknownInterpolation},
		{"inference", func(c *config.Config) { c.Inference = "magic" }, config.ErrUnknownInference},
		{"grid with exact", func(c *config.Config) { c.GridSize = 20 }, config.ErrUnknownInference},
		{"grid size", func(c *config.Config) { c.GridSize, c.Inference = 2, config.InferenceIterative }, config.ErrOutOfRange},
		{"grid margin", func(c *config.Config) { c.GridMargin = -1 }, config.ErrOutOfRange},
		{"tolerance", func(c *config.Config) { c.CGTolerance = 0 }, config.ErrOutOfRange},
		{"tolerance nan", func(c *config.Config) { c.CGTolerance = math.NaN() }, config.ErrOutOfRange},
		{"cg iterations", func(c *config.Config) { c.CGMaxIterations = 0 }, config.ErrOutOfRange},
		{"rank", func(c *config.Config) { c.LanczosRank = 0 }, config.ErrOutOfRange},
		{"probes", func(c *config.Config) { c.Probes = 0 }, config.ErrOutOfRange},
		{"workers", func(c *config.Config) { c.Workers = 0 }, config.ErrOutOfRange},
		{"hidden without features", func(c *config.Config) { c.ExtractorHidden = []int{8} }, config.ErrOutOfRange},
		{"hidden width", func(c *config.Config) { c.FeatureDims, c.ExtractorHidden = 2, []int{8, 0} }, config.ErrOutOfRange},
		{"noise floor", func(c *config.Config) { c.NoiseFloor = -1 }, config.ErrOutOfRange},
		{"jitter", func(c *config.Config) { c.Jitter = 0 }, config.ErrOutOfRange},
		{"jitter retries", func(c *config.Config) { c.JitterRetries = -1 }, config.ErrOutOfRange},
		{"learning rate", func(c *config.Config) { c.LearningRate = 0 }, config.ErrOutOfRange},
		{"iterations", func(c *config.Config) { c.Iterations = 0 }, config.ErrOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, gp.ErrConfiguration)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// TestBuild checks the model each configuration produces.
func TestBuild(t *testing.T) {
	x, y := sine(20)

	t.Run("rbf exact", func(t *testing.T) {
		m, err := config.Build(defaults(t), x, y)
		require.NoError(t, err)
		assert.Equal(t, kernel.KindScale, m.Kernel().Kind())
		assert.Equal(t, gp.InferenceExact, m.Inference())
		assert.Nil(t, m.Extractor())
		assert.Equal(t, gp.ModeTrain, m.Mode())
	})
	t.Run("no outputscale", func(t *testing.T) {
		cfg := defaults(t)
		cfg.OutputScale = false
		m, err := config.Build(cfg, x, y)
		require.NoError(t, err)
		assert.Equal(t, kernel.KindRBF, m.Kernel().Kind())
	})
	t.Run("spectral mixture", func(t *testing.T) {
		cfg := defaults(t)
		cfg.Kernel, cfg.Mixtures = config.KernelSpectralMixture, 3
		m, err := config.Build(cfg, x, y)
		require.NoError(t, err)
		assert.Equal(t, kernel.KindSpectralMixture, m.Kernel().Kind())
		assert.Equal(t, 9, m.Kernel().NumParams())
	})
	t.Run("grid", func(t *testing.T) {
		cfg := defaults(t)
		cfg.GridSize, cfg.Inference, cfg.Interpolation = 25, config.InferenceIterative, config.InterpolationLinear
		m, err := config.Build(cfg, x, y)
		require.NoError(t, err)
		ski, ok := m.Kernel().(*grid.Kernel)
		require.True(t, ok)
		assert.Equal(t, grid.Linear, ski.Grid().Scheme())
		b := ski.Grid().Bounds()
		require.Len(t, b, 1)
		assert.InDelta(t, -0.1, b[0].Lo, 1e-12)
		assert.InDelta(t, 1.1, b[0].Hi, 1e-12)
	})
	t.Run("deep kernel", func(t *testing.T) {
		cfg := defaults(t)
		cfg.FeatureDims, cfg.ExtractorHidden = 2, []int{6}
		cfg.GridSize, cfg.Inference = 10, config.InferenceIterative
		m, err := config.Build(cfg, x, y)
		require.NoError(t, err)
		require.NotNil(t, m.Extractor())
		assert.Equal(t, 1, m.Extractor().InDims())
		assert.Equal(t, 2, m.Extractor().OutDims())
		b := m.Kernel().(*grid.Kernel).Grid().Bounds()
		assert.Equal(t, []grid.Bounds{{Lo: -1, Hi: 1}, {Lo: -1, Hi: 1}}, b)
	})
	t.Run("noise floor", func(t *testing.T) {
		cfg := defaults(t)
		cfg.NoiseFloor = 0.01
		m, err := config.Build(cfg, x, y)
		require.NoError(t, err)
		assert.InDelta(t, 0.01, m.Likelihood().Floor(), 0)
	})
	t.Run("errors", func(t *testing.T) {
		cfg := defaults(t)
		_, err := config.Build(cfg, nil, nil)
		assert.ErrorIs(t, err, gp.ErrShape)
		cfg.Probes = 0
		_, err = config.Build(cfg, x, y)
		assert.ErrorIs(t, err, gp.ErrConfiguration)
	})
}

// TestSnapshot_RoundTrip writes, reads and restores a model.
func TestSnapshot_RoundTrip(t *testing.T) {
	x, y := sine(12)
	cfg := defaults(t)
	cfg.Kernel, cfg.Mixtures = config.KernelSpectralMixture, 2
	m, err := config.Build(cfg, x, y)
	require.NoError(t, err)
	theta := m.Parameters()
	for i := range theta {
		theta[i] += 0.01 * float64(i+1)
	}
	require.NoError(t, m.SetParameters(theta))

	snap := config.NewSnapshot(cfg, m)
	_, err = uuid.Parse(snap.ID)
	require.NoError(t, err)
	require.Len(t, snap.Params, len(theta))

	path := filepath.Join(t.TempDir(), "fitted.yaml")
	require.NoError(t, config.WriteSnapshot(path, snap))
	read, err := config.ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, read.ID)
	assert.Equal(t, snap.Config, read.Config)

	restored, err := read.Restore()
	require.NoError(t, err)
	assert.Equal(t, gp.ModeEval, restored.Mode())
	assert.Equal(t, theta, restored.Parameters())

	m.Eval()
	xs := mat.NewDense(3, 1, []float64{0.1, 0.5, 1.3})
	want, err := m.Predict(ctxBackground(), xs)
	require.NoError(t, err)
	got, err := restored.Predict(ctxBackground(), xs)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Mean, got.Mean, 1e-12)
	assert.InDeltaSlice(t, want.Variance, got.Variance, 1e-12)
}

// TestSnapshot_Mismatch checks a snapshot that no longer fits its config.
func TestSnapshot_Mismatch(t *testing.T) {
	x, y := sine(8)
	cfg := defaults(t)
	m, err := config.Build(cfg, x, y)
	require.NoError(t, err)

	snap := config.NewSnapshot(cfg, m)
	snap.Params[0].Name = "kernel.bogus"
	_, err = snap.Restore()
	assert.ErrorIs(t, err, config.ErrSnapshot)

	snap = config.NewSnapshot(cfg, m)
	snap.Config.ARD = false
	snap.Config.Kernel = config.KernelSpectralMixture
	_, err = snap.Restore()
	assert.ErrorIs(t, err, config.ErrSnapshot)

	snap = config.NewSnapshot(cfg, m)
	snap.Inputs = nil
	_, err = snap.Restore()
	assert.ErrorIs(t, err, config.ErrSnapshot)

	_, err = config.ReadSnapshot(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func ctxBackground() context.Context { return context.Background() }
