// SPDX-License-Identifier: MIT

// Package linalg is the structured linear-algebra backend of kissgp.
//
// 🚀 What is inside?
//
//	Every routine here talks to a covariance through the Operator
//	capability (Size + MulVecTo). Nothing in the iterative path forms or
//	factorizes a dense n×n matrix:
//	  • Toeplitz          symmetric Toeplitz product via FFT circulant embedding, O(m log m)
//	  • KronSum           Σ_t c_t ⊗_d T_{t,d}, the grid covariance of a separable kernel
//	  • Sparse            constant-stride row-sparse interpolation matrix W
//	  • Interpolated      W·K·Wᵀ, the SKI covariance
//	  • CG                approximate solve (K+σ²I)⁻¹b, optionally recording the Lanczos tridiagonal
//	  • Lanczos           orthonormal Krylov basis with full reorthogonalisation (LOVE)
//	  • Tridiag           Gauss quadrature for log-det and inverse quadratic forms
//
// Exact factorization lives next to it (Factorize) so callers can pick
// between the exact and the approximate solve explicitly.
//
// Concurrency:
//
//	Operators in this package are safe for concurrent MulVecTo calls;
//	Toeplitz keeps its FFT work buffers in a sync.Pool.
//
// Errors:
//
//	All sentinels live in errors.go and are matched with errors.Is.
package linalg
