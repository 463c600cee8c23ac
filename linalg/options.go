// SPDX-License-Identifier: MIT

package linalg

// Defaults for the iterative solver.
const (
	// DefaultCGTolerance is the relative residual ‖b−Ax‖/‖b‖ at which CG stops.
	DefaultCGTolerance = 1e-6

	// DefaultCGMaxIterations caps CG iterations per right-hand side.
	DefaultCGMaxIterations = 1000

	// DefaultLanczosRank caps the Krylov basis built for fast variances.
	DefaultLanczosRank = 100
)

const (
	panicTolerance = "linalg: CGOptions: tolerance must be finite and > 0"
	panicMaxIter   = "linalg: CGOptions: max iterations must be > 0"
)

// CGOptions configures CG.
//
// Fields:
//   - Tolerance      stop once ‖b−Ax‖ ≤ Tolerance·‖b‖ (checked on the true residual).
//   - MaxIterations  give up with ErrNotConverged after this many iterations.
//   - Tridiag        record the Lanczos tridiagonal implied by the CG coefficients.
type CGOptions struct {
	Tolerance     float64
	MaxIterations int
	Tridiag       bool
}

// DefaultCGOptions returns the default CG configuration.
func DefaultCGOptions() CGOptions {
	return CGOptions{
		Tolerance:     DefaultCGTolerance,
		MaxIterations: DefaultCGMaxIterations,
	}
}

func (o CGOptions) validate() {
	if !(o.Tolerance > 0) {
		panic(panicTolerance)
	}
	if o.MaxIterations <= 0 {
		panic(panicMaxIter)
	}
}
