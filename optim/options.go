// SPDX-License-Identifier: MIT

package optim

import "go.uber.org/zap"

// DefaultLogEvery logs every iteration.
const DefaultLogEvery = 1

const panicLogEvery = "optim: WithLogEvery: k must be ≥ 1"

// Iteration describes one completed objective evaluation.
type Iteration struct {
	Index    int
	Loss     float64
	GradNorm float64
}

// Option configures Run and LBFGS.
type Option func(*Options)

// Options holds loop settings.
type Options struct {
	logger   *zap.Logger
	logEvery int
	callback func(Iteration) error
}

func gatherOptions(opts []Option) Options {
	o := Options{logger: zap.NewNop(), logEvery: DefaultLogEvery}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithLogger logs progress at Info level. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
	}
}

// WithLogEvery logs one line per k iterations.
func WithLogEvery(k int) Option {
	if k < 1 {
		panic(panicLogEvery)
	}

	return func(o *Options) { o.logEvery = k }
}

// WithCallback calls fn after every evaluation, before the step. A non-nil
// return stops the loop and is returned from Run.
func WithCallback(fn func(Iteration) error) Option {
	return func(o *Options) { o.callback = fn }
}
