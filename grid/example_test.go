package grid_test

import (
	"fmt"

	"github.com/katalvlaran/kissgp/grid"
	"github.com/katalvlaran/kissgp/kernel"
	"gonum.org/v1/gonum/mat"
)

// ExampleNewKernel wraps an RBF kernel on a 1-D grid and compares one SKI
// entry with the exact kernel. With 15 points and padding 2 the spacing is
// 0.1, so both inputs sit on grid nodes.
func ExampleNewKernel() {
	g, err := grid.New([]grid.Bounds{{Lo: 0, Hi: 1}}, []int{15})
	if err != nil {
		fmt.Println("error:", err)

		return
	}
	rbf, _ := kernel.NewRBF(1, kernel.WithLengthscale(0.2))
	ski, err := grid.NewKernel(rbf, g)
	if err != nil {
		fmt.Println("error:", err)

		return
	}
	x := mat.NewDense(2, 1, []float64{0.1, 0.3})
	cov, err := ski.Covariance(x, false)
	if err != nil {
		fmt.Println("error:", err)

		return
	}
	col := make([]float64, 2)
	cov.MulVecTo(col, []float64{0, 1})
	fmt.Printf("ski=%.4f exact=%.4f\n", col[0], rbf.Eval([]float64{0.1}, []float64{0.3}))
	// Output:
	// ski=0.6065 exact=0.6065
}
