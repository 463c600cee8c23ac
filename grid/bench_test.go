package grid_test

import (
	"fmt"
	"testing"

	"github.com/katalvlaran/kissgp/grid"
)

// BenchmarkWeights measures building W for 1000 points on a 2-D grid.
func BenchmarkWeights(b *testing.B) {
	g, err := grid.New(unitBox(2), []int{50, 50})
	if err != nil {
		b.Fatal(err)
	}
	x := uniformPoints(1000, 2, -1, 1, 1)
	for _, withGrad := range []bool{false, true} {
		b.Run(fmt.Sprintf("grad=%t", withGrad), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := g.Weights(x, withGrad); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkCovariance_MulVecTo measures one SKI product W Kg Wᵀ v.
func BenchmarkCovariance_MulVecTo(b *testing.B) {
	g, err := grid.New(unitBox(2), []int{60, 60})
	if err != nil {
		b.Fatal(err)
	}
	ski, err := grid.NewKernel(scaledRBF(b, 2), g)
	if err != nil {
		b.Fatal(err)
	}
	x := uniformPoints(2000, 2, -1, 1, 2)
	cov, err := ski.Covariance(x, false)
	if err != nil {
		b.Fatal(err)
	}
	v := make([]float64, 2000)
	for i := range v {
		v[i] = 1
	}
	dst := make([]float64, 2000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cov.MulVecTo(dst, v)
	}
}
