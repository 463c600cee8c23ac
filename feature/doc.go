// SPDX-License-Identifier: MIT

// Package feature provides the learned input warps used by deep kernel
// learning: a differentiable map f_θ: R^d → R^k followed by a per-batch
// rescale into the fixed range covered by an interpolation grid.
//
// 🚀 Pieces:
//
//	Extractor  interface; Forward records a Tape, Backward turns ∂L/∂out
//	           into ∂L/∂θ accumulated into a flat gradient slice
//	MLP        dense layers, ReLU on hidden layers, linear output
//	Rescale    per-feature min/max of the current batch mapped onto
//	           [Lower, Upper], with its own backward pass
//
// Rescale statistics come from whatever batch is passed in. Training and
// prediction batches are therefore scaled with different min/max values.
//
//	mlp, _ := feature.NewMLP([]int{4, 32, 2}, rand.New(rand.NewSource(1)))
//	h, tape, _ := mlp.Forward(X)
//	z, rt := feature.DefaultRescale().Forward(h)
package feature
