package linalg_test

import (
	"fmt"

	"github.com/katalvlaran/kissgp/linalg"
)

// ExampleCG solves a small Toeplitz system with the approximate solver.
func ExampleCG() {
	t, err := linalg.NewToeplitz([]float64{4, 1, 0.5})
	if err != nil {
		fmt.Println("error:", err)

		return
	}
	x, res, err := linalg.CG(t, []float64{5.5, 6, 5.5}, linalg.DefaultCGOptions())
	if err != nil {
		fmt.Println("error:", err)

		return
	}
	fmt.Printf("x=[%.3f %.3f %.3f] converged=%v\n", x[0], x[1], x[2], res.Relative <= linalg.DefaultCGTolerance)
	// Output:
	// x=[1.000 1.000 1.000] converged=true
}
