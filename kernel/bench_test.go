package kernel_test

import (
	"testing"

	"github.com/katalvlaran/kissgp/kernel"
	"gonum.org/v1/gonum/mat"
)

// BenchmarkMatrix measures dense evaluation of a 300×300 covariance.
func BenchmarkMatrix(b *testing.B) {
	rbf, err := kernel.NewRBF(3, kernel.WithARD())
	if err != nil {
		b.Fatal(err)
	}
	k, err := kernel.NewScale(rbf)
	if err != nil {
		b.Fatal(err)
	}
	x := randomInputs(300, 3, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := kernel.Matrix(k, x); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBackward measures the gradient contraction of a spectral mixture.
func BenchmarkBackward(b *testing.B) {
	sm, err := kernel.NewSpectralMixture(4, 2)
	if err != nil {
		b.Fatal(err)
	}
	x := randomInputs(150, 2, 2)
	g := mat.NewSymDense(150, nil)
	for i := 0; i < 150; i++ {
		g.SetSym(i, i, 1)
	}
	dParams := make([]float64, sm.NumParams())
	dX := mat.NewDense(150, 2, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		kernel.Backward(sm, x, g, dParams, dX)
	}
}
