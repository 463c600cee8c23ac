package gp_test

import (
	"errors"
	"testing"

	"github.com/katalvlaran/kissgp/feature"
	"github.com/katalvlaran/kissgp/gp"
	"github.com/katalvlaran/kissgp/grid"
	"github.com/katalvlaran/kissgp/kernel"
	"github.com/katalvlaran/kissgp/linalg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func unitGridKernel(t *testing.T, d, size int) *grid.Kernel {
	t.Helper()
	bounds := make([]grid.Bounds, d)
	sizes := make([]int, d)
	for i := range bounds {
		bounds[i] = grid.Bounds{Lo: -1, Hi: 1}
		sizes[i] = size
	}
	g, err := grid.New(bounds, sizes)
	require.NoError(t, err)
	k, err := grid.NewKernel(scaledRBF(t, d, kernel.WithARD()), g)
	require.NoError(t, err)

	return k
}

// wrappedKernel hides a kernel behind a Child accessor, the way a user-defined
// wrapper would.
type wrappedKernel struct {
	kernel.Kernel
}

func (w wrappedKernel) Kind() kernel.Kind    { return kernel.KindScale }
func (w wrappedKernel) Child() kernel.Kernel { return w.Kernel }

// TestNewModel_Errors checks every construction error lands in its category.
func TestNewModel_Errors(t *testing.T) {
	x, y := sineData(10, 0, 1)
	mlp, err := feature.NewMLP([]int{1, 4, 2}, nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		x        *mat.Dense
		y        []float64
		k        kernel.Kernel
		opts     []gp.Option
		category error
		cause    error
	}{
		{"empty", nil, nil, scaledRBF(t, 1), nil, gp.ErrShape, gp.ErrEmptyTraining},
		{"targets", x, y[:5], scaledRBF(t, 1), nil, gp.ErrShape, gp.ErrTargetLength},
		{"width", x, y, scaledRBF(t, 2), nil, gp.ErrShape, gp.ErrInputDims},
		{"extractor width", x, y, scaledRBF(t, 3), []gp.Option{gp.WithExtractor(mlp, feature.DefaultRescale())}, gp.ErrConfiguration, gp.ErrExtractorDims},
		{"rescale range", x, y, scaledRBF(t, 2), []gp.Option{gp.WithExtractor(mlp, feature.Rescale{Lower: 1, Upper: -1})}, gp.ErrConfiguration, feature.ErrBounds},
		{"grid needs iterative", x, y, unitGridKernel(t, 1, 20), nil, gp.ErrConfiguration, gp.ErrGridNeedsIterative},
		{"nested grid", x, y, wrappedKernel{unitGridKernel(t, 1, 20)}, []gp.Option{gp.WithInference(gp.InferenceIterative)}, gp.ErrConfiguration, gp.ErrNestedGrid},
		{"unknown inference", x, y, scaledRBF(t, 1), []gp.Option{gp.WithInference(gp.Inference(7))}, gp.ErrConfiguration, gp.ErrUnknownInference},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gp.NewModel(tc.x, tc.y, tc.k, tc.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.category)
			assert.ErrorIs(t, err, tc.cause)
			assert.False(t, gp.IsRecoverable(err))
		})
	}
}

// TestOptions_Panics covers nonsensical option values.
func TestOptions_Panics(t *testing.T) {
	assert.Panics(t, func() { gp.WithProbes(0) })
	assert.Panics(t, func() { gp.WithLanczosRank(0) })
	assert.Panics(t, func() { gp.WithCGTolerance(-1) })
	assert.Panics(t, func() { gp.WithCGMaxIterations(0) })
	assert.Panics(t, func() { gp.WithJitter(0, 1) })
	assert.Panics(t, func() { gp.WithJitter(1e-6, -1) })
	assert.Panics(t, func() { gp.WithWorkers(0) })
	assert.Panics(t, func() { gp.WithMean(nil) })
}

// TestModel_ModeMachine checks the TRAIN/EVAL gates.
func TestModel_ModeMachine(t *testing.T) {
	x, y := sineData(10, 0.05, 2)
	m, err := gp.NewModel(x, y, scaledRBF(t, 1))
	require.NoError(t, err)
	assert.Equal(t, gp.ModeTrain, m.Mode())
	assert.Equal(t, "train", m.Mode().String())

	_, err = m.Predict(ctxBackground, x)
	assert.ErrorIs(t, err, gp.ErrWrongMode)
	assert.ErrorIs(t, err, gp.ErrConfiguration)

	m.Eval()
	assert.Equal(t, "eval", m.Mode().String())
	_, err = gp.NewMarginalLogLikelihood(m).Evaluate(ctxBackground)
	assert.ErrorIs(t, err, gp.ErrWrongMode)

	m.Train()
	_, err = gp.NewMarginalLogLikelihood(m).Evaluate(ctxBackground)
	assert.NoError(t, err)
}

// TestModel_Forward checks prior in TRAIN mode and posterior in EVAL mode.
func TestModel_Forward(t *testing.T) {
	x, y := sineData(12, 0.05, 3)
	mean := gp.NewConstantMean()
	require.NoError(t, mean.SetParams([]float64{0.25}))
	k := scaledRBF(t, 1)
	m, err := gp.NewModel(x, y, k, gp.WithMean(mean))
	require.NoError(t, err)

	xs := linspace(0, 1, 5)
	prior, err := m.Forward(ctxBackground, xs)
	require.NoError(t, err)
	assert.Equal(t, 5, prior.Cov.Size())
	assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.25, 0.25, 0.25}, prior.Mean, 1e-15)
	dense, ok := prior.Cov.(*linalg.Dense)
	require.True(t, ok)
	want, err := kernel.Matrix(k, xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, dense.Matrix(), 1e-12))

	m.Eval()
	post, err := m.Forward(ctxBackground, xs)
	require.NoError(t, err)
	pred, err := m.Predict(ctxBackground, xs)
	require.NoError(t, err)
	assert.InDeltaSlice(t, pred.Mean, post.Mean, 1e-12)
	sym := post.Cov.(*linalg.Dense).Matrix()
	for i := 0; i < 5; i++ {
		assert.InDelta(t, pred.Variance[i], sym.At(i, i), 1e-10)
		assert.Less(t, sym.At(i, i), want.At(i, i), "posterior shrinks the prior")
	}

	_, err = m.Forward(ctxBackground, mat.NewDense(2, 3, nil))
	assert.ErrorIs(t, err, gp.ErrShape)
}

// TestParamSet covers the flat vector record.
func TestParamSet(t *testing.T) {
	x, y := sineData(8, 0, 4)
	mlp, err := feature.NewMLP([]int{1, 3, 2}, nil)
	require.NoError(t, err)
	m, err := gp.NewModel(x, y, scaledRBF(t, 2, kernel.WithARD()), gp.WithExtractor(mlp, feature.DefaultRescale()))
	require.NoError(t, err)

	ps := m.Params()
	blocks := ps.Blocks()
	require.Len(t, blocks, 4)
	assert.Equal(t, gp.BlockKernel, blocks[0].Name)
	assert.Equal(t, 3, blocks[0].Len)
	assert.Equal(t, gp.Block{Name: gp.BlockMean, Offset: 3, Len: 1}, blocks[1])
	assert.Equal(t, gp.Block{Name: gp.BlockLikelihood, Offset: 4, Len: 1}, blocks[2])
	ext, ok := ps.Block(gp.BlockExtractor)
	require.True(t, ok)
	assert.Equal(t, mlp.NumParams(), ext.Len)
	assert.Equal(t, 5+mlp.NumParams(), ps.Len())

	names := ps.Names()
	require.Len(t, names, ps.Len())
	assert.Equal(t, "mean.constant", names[3])
	assert.Equal(t, "likelihood.noise", names[4])
	assert.Equal(t, "extractor.layer0.weight[0,0]", names[5])

	theta := ps.Vector()
	theta[3] = 1.5
	require.NoError(t, m.SetParameters(theta))
	assert.InDelta(t, 1.5, m.Mean().(*gp.ConstantMean).Constant(), 0)

	err = m.SetParameters(theta[:2])
	assert.ErrorIs(t, err, gp.ErrParamCount)
	assert.ErrorIs(t, err, gp.ErrConfiguration)
}

// TestGaussianLikelihood checks the noise floor and SetNoise.
func TestGaussianLikelihood(t *testing.T) {
	l := gp.NewGaussianLikelihood()
	require.NoError(t, l.SetParams([]float64{-50}))
	assert.InDelta(t, gp.DefaultNoiseFloor, l.Noise(), 1e-12)

	require.NoError(t, l.SetNoise(0.3))
	assert.InDelta(t, 0.3, l.Noise(), 1e-12)
	err := l.SetNoise(gp.DefaultNoiseFloor / 2)
	assert.ErrorIs(t, err, gp.ErrConfiguration)
	assert.ErrorIs(t, err, kernel.ErrNonPositive)
}

// TestIsRecoverable checks only numerical failures are recoverable.
func TestIsRecoverable(t *testing.T) {
	assert.True(t, gp.IsRecoverable(errors.Join(gp.ErrNumerical)))
	assert.False(t, gp.IsRecoverable(gp.ErrShape))
	assert.False(t, gp.IsRecoverable(nil))
}

// TestGaussianLikelihood_Floor checks a custom floor bounds σ².
func TestGaussianLikelihood_Floor(t *testing.T) {
	l := gp.NewGaussianLikelihoodWithFloor(0.01)
	assert.InDelta(t, 0.01, l.Floor(), 0)
	require.NoError(t, l.SetParams([]float64{-60}))
	assert.InDelta(t, 0.01, l.Noise(), 1e-12)
	assert.Panics(t, func() { gp.NewGaussianLikelihoodWithFloor(-1) })
}
