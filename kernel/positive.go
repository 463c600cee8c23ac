// SPDX-License-Identifier: MIT

package kernel

import "math"

// Positive maps an unconstrained raw value to (Floor, ∞) with softplus.
type Positive struct {
	Floor float64
}

// Value returns Floor + softplus(raw).
func (p Positive) Value(raw float64) float64 { return p.Floor + softplus(raw) }

// Grad returns d Value / d raw = sigmoid(raw).
func (p Positive) Grad(raw float64) float64 { return 1 / (1 + math.Exp(-raw)) }

// Raw inverts Value. v must exceed Floor.
func (p Positive) Raw(v float64) (float64, error) {
	y := v - p.Floor
	if !(y > 0) || math.IsInf(y, 1) {
		return 0, ErrNonPositive
	}
	if y > 20 {
		return y + math.Log(-math.Expm1(-y)), nil
	}

	return math.Log(math.Expm1(y)), nil
}

func softplus(x float64) float64 {
	if x > 20 {
		return x + math.Log1p(math.Exp(-x))
	}

	return math.Log1p(math.Exp(x))
}

var positive = Positive{}
