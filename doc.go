// Package kissgp is an exact Gaussian process regression engine that scales
// through structure instead of approximation of the model: structured kernel
// interpolation onto a regular grid, Toeplitz and Kronecker algebra, conjugate
// gradients, stochastic Lanczos log-determinants and LOVE fast variances.
//
// 🚀 What is inside?
//
//	linalg/   operators, Toeplitz and Kronecker products, CG, Lanczos,
//	          stochastic log-determinant, exact Cholesky
//	kernel/   RBF (shared or ARD), Scale, spectral mixture, dense evaluation
//	          and gradient contraction
//	grid/     inducing grid, cubic and linear interpolation weights, the SKI
//	          kernel and its covariance operator
//	feature/  MLP feature extractor and per-batch rescaling (deep kernels)
//	gp/       model, marginal log likelihood with gradients, prediction
//	optim/    Adam, SGD and L-BFGS training loops
//	config/   declarative model configuration and YAML snapshots
//	logging/  zap loggers carried through a context
//	cmd/kissgp  command line: fit, predict, demo
//
// ✨ A sine fit in a few lines:
//
//	m, _ := gp.NewModel(x, y, k, gp.WithInference(gp.InferenceIterative))
//	mll := gp.NewMarginalLogLikelihood(m)
//	_, _ = optim.Run(ctx, mll, optim.NewAdam(0.1), 50)
//	m.Eval()
//	p, _ := m.Predict(ctx, xs, gp.WithFastVariance())
//
//	go get github.com/katalvlaran/kissgp
package kissgp
