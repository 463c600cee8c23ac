package gp_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/katalvlaran/kissgp/gp"
	"github.com/katalvlaran/kissgp/kernel"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// sineData returns n evenly spaced points on [0,1] with y = sin(2πx) plus
// Gaussian noise of standard deviation sd.
func sineData(n int, sd float64, seed int64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n-1)
		x.Set(i, 0, v)
		y[i] = math.Sin(2*math.Pi*v) + sd*rng.NormFloat64()
	}

	return x, y
}

// linspace returns n points on [lo, hi] as an n×1 matrix.
func linspace(lo, hi float64, n int) *mat.Dense {
	x := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, lo+(hi-lo)*float64(i)/float64(n-1))
	}

	return x
}

func scaledRBF(tb testing.TB, d int, opts ...kernel.Option) kernel.Kernel {
	tb.Helper()
	rbf, err := kernel.NewRBF(d, opts...)
	require.NoError(tb, err)
	k, err := kernel.NewScale(rbf)
	require.NoError(tb, err)

	return k
}

// finiteDifference returns the central-difference gradient of L.
func finiteDifference(t *testing.T, m *gp.Model, mll *gp.MarginalLogLikelihood, h float64) []float64 {
	t.Helper()
	theta := m.Parameters()
	grad := make([]float64, len(theta))
	for p := range theta {
		shifted := append([]float64(nil), theta...)
		shifted[p] += h
		require.NoError(t, m.SetParameters(shifted))
		up, err := mll.Evaluate(ctxBackground)
		require.NoError(t, err)
		shifted[p] -= 2 * h
		require.NoError(t, m.SetParameters(shifted))
		down, err := mll.Evaluate(ctxBackground)
		require.NoError(t, err)
		grad[p] = (up.Value - down.Value) / (2 * h)
	}
	require.NoError(t, m.SetParameters(theta))

	return grad
}

func meanAbsError(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += math.Abs(a[i] - b[i])
	}

	return s / float64(len(a))
}

func mean(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}

	return s / float64(len(v))
}

var ctxBackground = context.Background()
