package feature_test

import (
	"math/rand"
	"testing"

	"github.com/katalvlaran/kissgp/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomDense(rng *rand.Rand, r, c int) *mat.Dense {
	x := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
	}

	return x
}

// elemSum returns Σ a ⊙ b, a scalar whose gradient w.r.t. a is b.
func elemSum(a, b *mat.Dense) float64 {
	var p mat.Dense
	p.MulElem(a, b)

	return mat.Sum(&p)
}

// TestNewMLP_Validation covers layer-size errors and the parameter layout.
func TestNewMLP_Validation(t *testing.T) {
	_, err := feature.NewMLP([]int{3}, nil)
	assert.ErrorIs(t, err, feature.ErrLayerSizes)
	_, err = feature.NewMLP([]int{3, 0, 2}, nil)
	assert.ErrorIs(t, err, feature.ErrLayerSizes)

	m, err := feature.NewMLP([]int{3, 5, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3*5+5+5*2+2, m.NumParams())
	assert.Len(t, m.ParamNames(), m.NumParams())
	assert.Equal(t, "layer0.weight[0,0]", m.ParamNames()[0])
	assert.Equal(t, "layer1.bias[1]", m.ParamNames()[m.NumParams()-1])
	assert.Equal(t, 3, m.InDims())
	assert.Equal(t, 2, m.OutDims())
	assert.Equal(t, 2, m.Layers())
	assert.ErrorIs(t, m.SetParams(make([]float64, 3)), feature.ErrParamCount)

	_, _, err = m.Forward(mat.NewDense(2, 4, nil))
	assert.ErrorIs(t, err, feature.ErrDimensionMismatch)
}

// TestMLP_InitRange checks weights stay inside U(−1/√fan_in, 1/√fan_in).
func TestMLP_InitRange(t *testing.T) {
	m, err := feature.NewMLP([]int{16, 4}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	for _, v := range m.Params() {
		assert.LessOrEqual(t, v, 0.25)
		assert.GreaterOrEqual(t, v, -0.25)
	}
}

// TestMLP_Forward checks a hand-computed network.
func TestMLP_Forward(t *testing.T) {
	m, err := feature.NewMLP([]int{2, 2, 1}, nil)
	require.NoError(t, err)
	// W0 = [[1, -1], [0.5, 0.5]], b0 = [0, -1], W1 = [[2, 3]], b1 = [1]
	require.NoError(t, m.SetParams([]float64{1, -1, 0.5, 0.5, 0, -1, 2, 3, 1}))
	out, _, err := m.Forward(mat.NewDense(2, 2, []float64{1, 2, 3, 1}))
	require.NoError(t, err)
	// row 0: z0 = [-1, 0.5] → relu [0, 0.5] → 2·0 + 3·0.5 + 1 = 2.5
	// row 1: z0 = [2, 1] → relu [2, 1] → 4 + 3 + 1 = 8
	assert.InDeltaSlice(t, []float64{2.5, 8}, out.RawMatrix().Data, 1e-12)
}

// TestMLP_BackwardMatchesFiniteDifference checks ∂(Σ c ⊙ f(x))/∂θ.
func TestMLP_BackwardMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m, err := feature.NewMLP([]int{3, 6, 4, 2}, rng)
	require.NoError(t, err)
	x := randomDense(rng, 5, 3)
	c := randomDense(rng, 5, 2)

	_, tape, err := m.Forward(x)
	require.NoError(t, err)
	require.Equal(t, 5, tape.Rows())
	grad := make([]float64, m.NumParams())
	require.NoError(t, m.Backward(tape, c, grad))

	loss := func() float64 {
		o, _, err := m.Forward(x)
		require.NoError(t, err)

		return elemSum(o, c)
	}
	const h = 1e-6
	raw := m.Params()
	for p := range raw {
		shifted := append([]float64(nil), raw...)
		shifted[p] += h
		require.NoError(t, m.SetParams(shifted))
		fp := loss()
		shifted[p] -= 2 * h
		require.NoError(t, m.SetParams(shifted))
		fm := loss()
		require.NoError(t, m.SetParams(raw))
		assert.InDelta(t, (fp-fm)/(2*h), grad[p], 1e-6, m.ParamNames()[p])
	}
}

// TestMLP_BackwardErrors covers tape and shape checks.
func TestMLP_BackwardErrors(t *testing.T) {
	a, err := feature.NewMLP([]int{2, 3, 1}, nil)
	require.NoError(t, err)
	b, err := feature.NewMLP([]int{2, 3, 1}, nil)
	require.NoError(t, err)
	_, tape, err := a.Forward(mat.NewDense(4, 2, nil))
	require.NoError(t, err)

	assert.ErrorIs(t, b.Backward(tape, mat.NewDense(4, 1, nil), make([]float64, b.NumParams())), feature.ErrTape)
	assert.ErrorIs(t, a.Backward(nil, mat.NewDense(4, 1, nil), make([]float64, a.NumParams())), feature.ErrTape)
	assert.ErrorIs(t, a.Backward(tape, mat.NewDense(3, 1, nil), make([]float64, a.NumParams())), feature.ErrDimensionMismatch)
	assert.ErrorIs(t, a.Backward(tape, mat.NewDense(4, 1, nil), nil), feature.ErrParamCount)
}

// TestRescale_Forward checks every column spans [Lower, Upper] exactly.
func TestRescale_Forward(t *testing.T) {
	tests := []struct {
		name string
		r    feature.Rescale
	}{
		{"symmetric", feature.DefaultRescale()},
		{"unit", feature.Rescale{Lower: 0, Upper: 1}},
	}
	f := mat.NewDense(4, 2, []float64{
		3, -1,
		5, -1,
		4, -1,
		7, -1,
	})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.r.Validate())
			z, _ := tc.r.Forward(f)
			assert.InDelta(t, tc.r.Lower, z.At(0, 0), 1e-15)
			assert.InDelta(t, tc.r.Upper, z.At(3, 0), 1e-15)
			mid := tc.r.Lower + (tc.r.Upper-tc.r.Lower)*0.25
			assert.InDelta(t, mid, z.At(2, 0), 1e-15)
			for i := 0; i < 4; i++ {
				// constant column maps to the midpoint
				assert.InDelta(t, 0.5*(tc.r.Lower+tc.r.Upper), z.At(i, 1), 1e-15)
			}
		})
	}
	assert.ErrorIs(t, feature.Rescale{Lower: 1, Upper: 1}.Validate(), feature.ErrBounds)
}

// TestRescale_BackwardMatchesFiniteDifference checks the gradient routed
// through the batch minimum and maximum.
func TestRescale_BackwardMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	r := feature.DefaultRescale()
	f := randomDense(rng, 6, 2)
	c := randomDense(rng, 6, 2)

	_, tape := r.Forward(f)
	df, err := r.Backward(tape, c)
	require.NoError(t, err)

	const h = 1e-6
	for i := 0; i < 6; i++ {
		for j := 0; j < 2; j++ {
			v := f.At(i, j)
			f.Set(i, j, v+h)
			zp, _ := r.Forward(f)
			fp := elemSum(zp, c)
			f.Set(i, j, v-h)
			zm, _ := r.Forward(f)
			fm := elemSum(zm, c)
			f.Set(i, j, v)
			assert.InDelta(t, (fp-fm)/(2*h), df.At(i, j), 1e-5, "i=%d j=%d", i, j)
		}
	}

	_, err = r.Backward(tape, mat.NewDense(2, 2, nil))
	assert.ErrorIs(t, err, feature.ErrDimensionMismatch)
}
