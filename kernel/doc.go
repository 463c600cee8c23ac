// SPDX-License-Identifier: MIT

// Package kernel defines the covariance functions of kissgp.
//
// 🚀 Variants:
//
//	Kernels are a small tagged family behind one interface:
//	  • RBF                exp(−½ Σ_d τ_d²/ℓ_d²), shared or per-dimension (ARD) length-scales
//	  • Scale              outputscale·child; Scale(RBF) is the σ²·exp(…) kernel
//	  • SpectralMixture    Σ_q w_q Π_d exp(−2π²τ_d²v_qd)·cos(2πτ_dμ_qd)
//	  • grid.Kernel        SKI wrapper, defined in package grid
//
// Every kernel evaluates pairs (Eval), accumulates analytic derivatives
// with respect to its raw parameters (AccumParamGrad) and its first input
// (AccumInputGrad). Stationary kernels on a regular grid additionally
// implement Separable, which exposes K_grid as a sum of Kronecker products of
// per-dimension Toeplitz columns for the structured backend.
//
// ⚙️ Parameters:
//
//	Positive hyperparameters are stored raw and mapped through softplus
//	(Positive), so any raw vector an optimizer proposes is valid.
//
//	rbf, _ := kernel.NewRBF(2, kernel.WithARD())
//	k, _ := kernel.NewScale(rbf)
//	K, err := kernel.Matrix(k, X)
package kernel
