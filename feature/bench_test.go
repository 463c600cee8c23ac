package feature_test

import (
	"math/rand"
	"testing"

	"github.com/katalvlaran/kissgp/feature"
)

// BenchmarkMLP measures one forward and backward pass of a [8, 64, 32, 2]
// network on 512 rows.
func BenchmarkMLP(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	m, err := feature.NewMLP([]int{8, 64, 32, 2}, rng)
	if err != nil {
		b.Fatal(err)
	}
	x := randomDense(rng, 512, 8)
	dOut := randomDense(rng, 512, 2)
	grad := make([]float64, m.NumParams())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, tape, err := m.Forward(x)
		if err != nil {
			b.Fatal(err)
		}
		if err := m.Backward(tape, dOut, grad); err != nil {
			b.Fatal(err)
		}
	}
}
