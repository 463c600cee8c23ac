package gp_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/kissgp/gp"
	"github.com/katalvlaran/kissgp/grid"
	"github.com/katalvlaran/kissgp/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"
)

// singlePointModel is one observation y=1 at x=0 under a unit RBF with zero
// mean and σ² = 0.5, so the posterior has a closed form.
func singlePointModel(t *testing.T, opts ...gp.Option) *gp.Model {
	t.Helper()
	rbf, err := kernel.NewRBF(1, kernel.WithLengthscale(1))
	require.NoError(t, err)
	lik := gp.NewGaussianLikelihood()
	require.NoError(t, lik.SetNoise(0.5))
	opts = append([]gp.Option{gp.WithMean(gp.ZeroMean{}), gp.WithLikelihood(lik)}, opts...)
	m, err := gp.NewModel(mat.NewDense(1, 1, []float64{0}), []float64{1}, rbf, opts...)
	require.NoError(t, err)
	m.Eval()

	return m
}

// TestPredict_ClosedForm checks μ* = k*/(1+σ²) and v* = 1 − k*²/(1+σ²).
func TestPredict_ClosedForm(t *testing.T) {
	xs := mat.NewDense(2, 1, []float64{0, 1})
	k1 := math.Exp(-0.5)
	wantMean := []float64{1 / 1.5, k1 / 1.5}
	wantVar := []float64{1 - 1/1.5, 1 - k1*k1/1.5}

	tests := []struct {
		name string
		opts []gp.Option
		pred []gp.PredictOption
	}{
		{"exact", nil, nil},
		{"exact-love", nil, []gp.PredictOption{gp.WithFastVariance()}},
		{"iterative", []gp.Option{gp.WithInference(gp.InferenceIterative)}, nil},
		{"iterative-love", []gp.Option{gp.WithInference(gp.InferenceIterative)}, []gp.PredictOption{gp.WithFastVariance()}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := singlePointModel(t, tc.opts...)
			p, err := m.Predict(ctxBackground, xs, tc.pred...)
			require.NoError(t, err)
			assert.InDeltaSlice(t, wantMean, p.Mean, 1e-6)
			assert.InDeltaSlice(t, wantVar, p.Variance, 1e-6)
			assert.Nil(t, p.Covariance)
		})
	}
}

// TestPredict_ObservationNoiseAndRegion checks the predictive extras.
func TestPredict_ObservationNoiseAndRegion(t *testing.T) {
	m := singlePointModel(t)
	xs := mat.NewDense(2, 1, []float64{0, 1})
	latent, err := m.Predict(ctxBackground, xs)
	require.NoError(t, err)
	noisy, err := m.Predict(ctxBackground, xs, gp.WithObservationNoise())
	require.NoError(t, err)
	for i := range latent.Variance {
		assert.InDelta(t, latent.Variance[i]+0.5, noisy.Variance[i], 1e-12)
	}

	lo, hi := latent.ConfidenceRegion(2)
	sd := latent.StdDev()
	for i := range lo {
		assert.InDelta(t, latent.Mean[i]-2*sd[i], lo[i], 1e-12)
		assert.InDelta(t, latent.Mean[i]+2*sd[i], hi[i], 1e-12)
	}
}

// TestPredict_FullCovariance checks diagonal, symmetry and positivity.
func TestPredict_FullCovariance(t *testing.T) {
	x, y := sineData(15, 0.05, 11)
	for _, inf := range []gp.Inference{gp.InferenceExact, gp.InferenceIterative} {
		t.Run(inf.String(), func(t *testing.T) {
			m, err := gp.NewModel(x, y, scaledRBF(t, 1), gp.WithInference(inf))
			require.NoError(t, err)
			m.Eval()
			xs := linspace(-0.2, 1.2, 7)
			p, err := m.Predict(ctxBackground, xs, gp.WithFullCovariance())
			require.NoError(t, err)
			require.NotNil(t, p.Covariance)
			for i := 0; i < 7; i++ {
				assert.InDelta(t, p.Variance[i], p.Covariance.At(i, i), 1e-12)
				for j := 0; j < 7; j++ {
					assert.Equal(t, p.Covariance.At(i, j), p.Covariance.At(j, i))
				}
			}
			var eig mat.EigenSym
			require.True(t, eig.Factorize(p.Covariance, false))
			for _, v := range eig.Values(nil) {
				assert.Greater(t, v, -1e-8)
			}
		})
	}
}

// TestPredict_LOVE compares fast variances with exact ones: equal once the
// Lanczos rank covers n, never smaller below that.
func TestPredict_LOVE(t *testing.T) {
	x, y := sineData(20, 0.05, 12)
	xs := linspace(-0.5, 1.5, 25)
	lik := gp.NewGaussianLikelihood()
	require.NoError(t, lik.SetNoise(0.05))

	for _, rank := range []int{5, 40} {
		m, err := gp.NewModel(x, y, scaledRBF(t, 1, kernel.WithLengthscale(0.3)),
			gp.WithLikelihood(lik), gp.WithLanczosRank(rank))
		require.NoError(t, err)
		m.Eval()
		exact, err := m.Predict(ctxBackground, xs)
		require.NoError(t, err)
		fast, err := m.Predict(ctxBackground, xs, gp.WithFastVariance())
		require.NoError(t, err)
		assert.InDeltaSlice(t, exact.Mean, fast.Mean, 1e-12, "mean does not depend on LOVE")
		for j := range xs.RawMatrix().Data {
			assert.GreaterOrEqual(t, fast.Variance[j], exact.Variance[j]-1e-9, "rank %d point %d", rank, j)
			if rank >= 20 {
				assert.InDelta(t, exact.Variance[j], fast.Variance[j], 1e-4+0.05*exact.Variance[j], "point %d", j)
			}
		}
	}
}

// TestPredict_ReusesPosteriorCache checks that repeated fast-variance queries
// run Lanczos once per parameter setting, and that parameter or mode changes
// rebuild the state.
func TestPredict_ReusesPosteriorCache(t *testing.T) {
	x, y := sineData(30, 0.05, 13)
	g, err := grid.New([]grid.Bounds{{Lo: 0, Hi: 1}}, []int{50})
	require.NoError(t, err)
	ski, err := grid.NewKernel(scaledRBF(t, 1, kernel.WithLengthscale(0.2)), g)
	require.NoError(t, err)

	tests := []struct {
		name string
		k    kernel.Kernel
		opts []gp.Option
	}{
		{"exact", scaledRBF(t, 1, kernel.WithLengthscale(0.2)), nil},
		{"iterative", scaledRBF(t, 1, kernel.WithLengthscale(0.2)), []gp.Option{gp.WithInference(gp.InferenceIterative)}},
		{"grid", ski, []gp.Option{gp.WithInference(gp.InferenceIterative)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			opts := append([]gp.Option{gp.WithLanczosRank(20), gp.WithLogger(zap.New(core))}, tc.opts...)
			m, err := gp.NewModel(x, y, tc.k, opts...)
			require.NoError(t, err)
			m.Eval()
			built := func(msg string) int { return logs.FilterMessage(msg).Len() }

			first, err := m.Predict(ctxBackground, linspace(0.1, 0.9, 5), gp.WithFastVariance())
			require.NoError(t, err)
			second, err := m.Predict(ctxBackground, linspace(0.1, 0.9, 5), gp.WithFastVariance())
			require.NoError(t, err)
			_, err = m.Predict(ctxBackground, linspace(0, 1, 7), gp.WithFastVariance())
			require.NoError(t, err)
			assert.Equal(t, 1, built("posterior cache built"))
			assert.Equal(t, 1, built("love root built"))
			assert.Equal(t, first.Mean, second.Mean)
			assert.Equal(t, first.Variance, second.Variance)

			// Exact variances share α with the cached state.
			_, err = m.Predict(ctxBackground, linspace(0.1, 0.9, 5))
			require.NoError(t, err)
			assert.Equal(t, 1, built("posterior cache built"))

			theta := m.Parameters()
			theta[0] += 0.1
			require.NoError(t, m.SetParameters(theta))
			_, err = m.Predict(ctxBackground, linspace(0.1, 0.9, 5), gp.WithFastVariance())
			require.NoError(t, err)
			assert.Equal(t, 2, built("posterior cache built"))
			assert.Equal(t, 2, built("love root built"))

			// Writes through the live parameter set are noticed too.
			theta[0] -= 0.1
			require.NoError(t, m.Params().SetVector(theta))
			_, err = m.Predict(ctxBackground, linspace(0.1, 0.9, 5))
			require.NoError(t, err)
			assert.Equal(t, 3, built("posterior cache built"))

			m.Train()
			m.Eval()
			again, err := m.Predict(ctxBackground, linspace(0.1, 0.9, 5), gp.WithFastVariance())
			require.NoError(t, err)
			assert.Equal(t, 4, built("posterior cache built"))
			assert.Equal(t, 3, built("love root built"))
			assert.InDeltaSlice(t, first.Mean, again.Mean, 1e-12)
		})
	}
}

// TestPredict_GridLOVE checks grid-cached LOVE against grid CG solves.
func TestPredict_GridLOVE(t *testing.T) {
	x, y := sineData(30, 0.05, 13)
	g, err := grid.New([]grid.Bounds{{Lo: 0, Hi: 1}}, []int{50})
	require.NoError(t, err)
	ski, err := grid.NewKernel(scaledRBF(t, 1, kernel.WithLengthscale(0.2)), g)
	require.NoError(t, err)
	m, err := gp.NewModel(x, y, ski, gp.WithInference(gp.InferenceIterative), gp.WithLanczosRank(64))
	require.NoError(t, err)
	m.Eval()

	xs := linspace(0.05, 0.95, 10)
	exact, err := m.Predict(ctxBackground, xs)
	require.NoError(t, err)
	fast, err := m.Predict(ctxBackground, xs, gp.WithFastVariance())
	require.NoError(t, err)
	assert.InDeltaSlice(t, exact.Mean, fast.Mean, 1e-9)
	for j := range exact.Variance {
		assert.InDelta(t, exact.Variance[j], fast.Variance[j], 1e-4+0.05*exact.Variance[j], "point %d", j)
	}

	// Dense reference: SKI on a 50-point grid tracks the exact kernel.
	dense, err := gp.NewModel(x, y, scaledRBF(t, 1, kernel.WithLengthscale(0.2)))
	require.NoError(t, err)
	dense.Eval()
	ref, err := dense.Predict(ctxBackground, xs)
	require.NoError(t, err)
	assert.InDeltaSlice(t, ref.Mean, exact.Mean, 1e-2)
}

// TestPredict_Idempotent checks repeated predictions agree.
func TestPredict_Idempotent(t *testing.T) {
	x, y := sineData(15, 0.05, 14)
	m, err := gp.NewModel(x, y, scaledRBF(t, 1), gp.WithInference(gp.InferenceIterative))
	require.NoError(t, err)
	m.Eval()
	xs := linspace(0, 1, 9)
	for _, opts := range [][]gp.PredictOption{nil, {gp.WithFastVariance()}} {
		a, err := m.Predict(ctxBackground, xs, opts...)
		require.NoError(t, err)
		b, err := m.Predict(ctxBackground, xs, opts...)
		require.NoError(t, err)
		assert.InDeltaSlice(t, a.Mean, b.Mean, 1e-12)
		assert.InDeltaSlice(t, a.Variance, b.Variance, 1e-9)
	}
}

// TestPredict_Errors covers input validation.
func TestPredict_Errors(t *testing.T) {
	x, y := sineData(10, 0.05, 15)
	m, err := gp.NewModel(x, y, scaledRBF(t, 1))
	require.NoError(t, err)
	m.Eval()
	_, err = m.Predict(ctxBackground, mat.NewDense(3, 2, nil))
	assert.ErrorIs(t, err, gp.ErrShape)
	assert.ErrorIs(t, err, gp.ErrInputDims)

	g, err := grid.New([]grid.Bounds{{Lo: 0, Hi: 1}}, []int{20})
	require.NoError(t, err)
	ski, err := grid.NewKernel(scaledRBF(t, 1), g)
	require.NoError(t, err)
	m, err = gp.NewModel(x, y, ski, gp.WithInference(gp.InferenceIterative))
	require.NoError(t, err)
	m.Eval()
	_, err = m.Predict(ctxBackground, mat.NewDense(1, 1, []float64{7}))
	assert.ErrorIs(t, err, gp.ErrShape)
	assert.ErrorIs(t, err, grid.ErrOutOfBounds)
	assert.False(t, gp.IsRecoverable(err))

	_, err = kernel.NewScale(ski)
	assert.ErrorIs(t, err, kernel.ErrGridChild)
}
