// SPDX-License-Identifier: MIT

package feature

import "gonum.org/v1/gonum/mat"

// Extractor is a parametric differentiable map R^InDims → R^OutDims applied
// row-wise to a batch.
type Extractor interface {
	InDims() int
	OutDims() int
	NumParams() int
	// Params returns a copy of the flat parameter vector.
	Params() []float64
	SetParams(raw []float64) error
	ParamNames() []string
	// Forward maps x (n × InDims) to n × OutDims and records what Backward
	// needs.
	Forward(x *mat.Dense) (*mat.Dense, *Tape, error)
	// Backward adds ∂L/∂θ to dParams given dOut = ∂L/∂Forward(x).
	Backward(tape *Tape, dOut *mat.Dense, dParams []float64) error
}

// Tape holds the intermediate activations of one Forward call.
type Tape struct {
	owner any
	// inputs[l] is the input of layer l; pre[l] its pre-activation.
	inputs []*mat.Dense
	pre    []*mat.Dense
}

// Rows returns the batch size the tape was recorded for.
func (t *Tape) Rows() int {
	if t == nil || len(t.inputs) == 0 {
		return 0
	}
	r, _ := t.inputs[0].Dims()

	return r
}
