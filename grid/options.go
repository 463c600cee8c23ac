// SPDX-License-Identifier: MIT

package grid

// Scheme is the local interpolation rule.
type Scheme int

const (
	// Cubic is Keys' cubic convolution (a = −0.5), 4 neighbours per dimension.
	Cubic Scheme = iota
	// Linear uses the 2 enclosing neighbours per dimension.
	Linear
)

// Support returns the number of neighbours per dimension.
func (s Scheme) Support() int {
	if s == Linear {
		return 2
	}

	return 4
}

// String returns "cubic" or "linear".
func (s Scheme) String() string {
	if s == Linear {
		return "linear"
	}

	return "cubic"
}

// Defaults.
const (
	DefaultScheme  = Cubic
	DefaultPadding = 2
)

const panicPadding = "grid: WithPadding: padding must be ≥ 1"

// Option configures New.
type Option func(*Options)

// Options holds grid settings.
type Options struct {
	scheme  Scheme
	padding int
}

func gatherOptions(opts []Option) Options {
	o := Options{scheme: DefaultScheme, padding: DefaultPadding}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithScheme selects the interpolation order.
func WithScheme(s Scheme) Option {
	return func(o *Options) { o.scheme = s }
}

// WithPadding sets how many grid spacings extend beyond the bounds on each side.
func WithPadding(p int) Option {
	if p < 1 {
		panic(panicPadding)
	}

	return func(o *Options) { o.padding = p }
}
