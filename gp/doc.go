// SPDX-License-Identifier: MIT

// Package gp implements exact Gaussian process regression with scalable
// structured inference.
//
// 🚀 Pieces:
//
//	Model                  training data, kernel, mean, likelihood and an
//	                       optional feature extractor; a TRAIN/EVAL state
//	                       machine decides between prior and posterior
//	MarginalLogLikelihood  L = −½ rᵀK̂⁻¹r − ½ log|K̂| − (n/2) log 2π and its
//	                       gradient over one flat parameter vector; it is an
//	                       optim.Objective
//	Predict                posterior mean and variance, exact or LOVE
//
// ⚙️ Inference:
//
//	InferenceExact      Cholesky of the dense K + σ²I
//	InferenceIterative  conjugate gradients and stochastic Lanczos
//	                    quadrature, consuming the covariance only through
//	                    matrix-vector products; required by grid.Kernel
//
// Approximate paths are never chosen implicitly: a grid kernel with exact
// inference is a configuration error, and LOVE runs only under
// WithFastVariance.
//
// ❗ Errors:
//
//	Every error carries one of ErrConfiguration, ErrShape or ErrNumerical.
//	Numerical failures are reported as is unless WithJitter enabled a
//	bounded retry with growing diagonal jitter.
//
// Usage:
//
//	rbf, _ := kernel.NewRBF(1)
//	k, _ := kernel.NewScale(rbf)
//	model, _ := gp.NewModel(X, y, k)
//	mll := gp.NewMarginalLogLikelihood(model)
//	_, _ = optim.Run(ctx, mll, optim.NewAdam(0.1), 50)
//	model.Eval()
//	pred, _ := model.Predict(ctx, Xtest, gp.WithFastVariance())
//	lower, upper := pred.ConfidenceRegion(2)
package gp
