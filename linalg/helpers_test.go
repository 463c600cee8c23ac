package linalg_test

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// randomSPD returns Bᵀ·B/n + shift·I for a seeded Gaussian B.
func randomSPD(n int, shift float64, seed int64) *mat.SymDense {
	rng := rand.New(rand.NewSource(seed))
	b := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			b.Set(i, j, rng.NormFloat64())
		}
	}
	a := mat.NewSymDense(n, nil)
	a.SymOuterK(1/float64(n), b.T())
	for i := 0; i < n; i++ {
		a.SetSym(i, i, a.At(i, i)+shift)
	}

	return a
}

func randomVec(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64()
	}

	return v
}

func denseMulVec(a mat.Matrix, x []float64) []float64 {
	r, _ := a.Dims()
	out := mat.NewVecDense(r, nil)
	out.MulVec(a, mat.NewVecDense(len(x), x))

	return out.RawVector().Data
}
