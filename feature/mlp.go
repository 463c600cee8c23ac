// SPDX-License-Identifier: MIT
// Package: feature
//
// Purpose:
//   - Multi-layer perceptron extractor.
//
// Layer l computes Z_l = A_l W_lᵀ + 1 b_lᵀ, A_{l+1} = ReLU(Z_l) except on the
// last layer, which stays linear. Parameters are stored in one flat slice,
// layer by layer: W_l row-major (out × in) followed by b_l.
//
// Complexity: Forward and Backward are O(n · Σ_l in_l·out_l).

package feature

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
)

// MLP is a fully connected ReLU network.
type MLP struct {
	sizes  []int
	offset []int // start of W_l in params
	params []float64
}

// NewMLP builds a network with widths sizes[0] → … → sizes[L]. Weights and
// biases of a layer with fan-in k are drawn from U(−1/√k, 1/√k). A nil rng
// uses a source seeded with 1.
//
// Errors: ErrLayerSizes.
func NewMLP(sizes []int, rng *rand.Rand) (*MLP, error) {
	if len(sizes) < 2 {
		return nil, featureErrorf(opNewMLP, ErrLayerSizes)
	}
	for _, s := range sizes {
		if s < 1 {
			return nil, featureErrorf(opNewMLP, ErrLayerSizes)
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	m := &MLP{sizes: append([]int(nil), sizes...)}
	total := 0
	for l := 0; l+1 < len(sizes); l++ {
		m.offset = append(m.offset, total)
		total += sizes[l+1]*sizes[l] + sizes[l+1]
	}
	m.params = make([]float64, total)
	for l := 0; l+1 < len(sizes); l++ {
		bound := 1 / math.Sqrt(float64(sizes[l]))
		start := m.offset[l]
		end := start + sizes[l+1]*sizes[l] + sizes[l+1]
		for i := start; i < end; i++ {
			m.params[i] = bound * (2*rng.Float64() - 1)
		}
	}

	return m, nil
}

// Layers returns the number of dense layers.
func (m *MLP) Layers() int { return len(m.sizes) - 1 }

// Sizes returns the layer widths.
func (m *MLP) Sizes() []int { return append([]int(nil), m.sizes...) }

func (m *MLP) InDims() int    { return m.sizes[0] }
func (m *MLP) OutDims() int   { return m.sizes[len(m.sizes)-1] }
func (m *MLP) NumParams() int { return len(m.params) }

func (m *MLP) Params() []float64 { return append([]float64(nil), m.params...) }

func (m *MLP) SetParams(raw []float64) error {
	if len(raw) != len(m.params) {
		return featureErrorf(opSetParams, ErrParamCount)
	}
	copy(m.params, raw)

	return nil
}

func (m *MLP) ParamNames() []string {
	names := make([]string, 0, len(m.params))
	for l := 0; l < m.Layers(); l++ {
		in, out := m.sizes[l], m.sizes[l+1]
		for i := 0; i < out; i++ {
			for j := 0; j < in; j++ {
				names = append(names, fmt.Sprintf("layer%d.weight[%d,%d]", l, i, j))
			}
		}
		for i := 0; i < out; i++ {
			names = append(names, fmt.Sprintf("layer%d.bias[%d]", l, i))
		}
	}

	return names
}

// layer returns views of W_l and b_l inside buf (params or a gradient).
func (m *MLP) layer(buf []float64, l int) (*mat.Dense, []float64) {
	in, out := m.sizes[l], m.sizes[l+1]
	start := m.offset[l]
	w := mat.NewDense(out, in, buf[start:start+out*in])

	return w, buf[start+out*in : start+out*in+out]
}

// Forward evaluates the network on every row of x.
//
// Errors: ErrDimensionMismatch.
func (m *MLP) Forward(x *mat.Dense) (*mat.Dense, *Tape, error) {
	n, c := x.Dims()
	if c != m.InDims() || n == 0 {
		return nil, nil, featureErrorf(opForward, ErrDimensionMismatch)
	}
	tape := &Tape{owner: m}
	a := x
	for l := 0; l < m.Layers(); l++ {
		w, b := m.layer(m.params, l)
		z := mat.NewDense(n, m.sizes[l+1], nil)
		z.Mul(a, w.T())
		for i := 0; i < n; i++ {
			vek.Add_Inplace(z.RawRowView(i), b)
		}
		tape.inputs = append(tape.inputs, a)
		tape.pre = append(tape.pre, z)
		if l == m.Layers()-1 {
			a = z

			break
		}
		act := mat.NewDense(n, m.sizes[l+1], nil)
		act.Apply(func(_, _ int, v float64) float64 { return math.Max(v, 0) }, z)
		a = act
	}

	return a, tape, nil
}

// Backward accumulates ∂L/∂θ into dParams.
//
// Errors: ErrTape, ErrDimensionMismatch, ErrParamCount.
func (m *MLP) Backward(tape *Tape, dOut *mat.Dense, dParams []float64) error {
	if tape == nil || tape.owner != m || len(tape.pre) != m.Layers() {
		return featureErrorf(opBackward, ErrTape)
	}
	if len(dParams) != len(m.params) {
		return featureErrorf(opBackward, ErrParamCount)
	}
	n, c := dOut.Dims()
	if n != tape.Rows() || c != m.OutDims() {
		return featureErrorf(opBackward, ErrDimensionMismatch)
	}

	dz := mat.DenseCopyOf(dOut)
	for l := m.Layers() - 1; l >= 0; l-- {
		w, _ := m.layer(m.params, l)
		gw, gb := m.layer(dParams, l)

		var tmp mat.Dense
		tmp.Mul(dz.T(), tape.inputs[l])
		vek.Add_Inplace(gw.RawMatrix().Data, tmp.RawMatrix().Data)
		for i := 0; i < n; i++ {
			vek.Add_Inplace(gb, dz.RawRowView(i))
		}
		if l == 0 {
			break
		}

		da := mat.NewDense(n, m.sizes[l], nil)
		da.Mul(dz, w)
		prev := tape.pre[l-1]
		for i := 0; i < n; i++ {
			row := da.RawRowView(i)
			z := prev.RawRowView(i)
			for j := range row {
				if z[j] <= 0 {
					row[j] = 0
				}
			}
		}
		dz = da
	}

	return nil
}
