// SPDX-License-Identifier: MIT

package workerpool

import "log/slog"

// DefaultNumNodes treats the machine as a single memory domain.
const DefaultNumNodes = 1

const (
	panicNilLogger    = "workerpool: WithLogger: logger must be non-nil"
	panicNodesInvalid = "workerpool: WithNumNodes: n must be >= 1"
)

// Option configures a Pool.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	numNodes int
	pin      bool
}

func gatherOptions(opts ...Option) options {
	o := options{logger: slog.Default(), numNodes: DefaultNumNodes}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the structured logger. Panics on nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic(panicNilLogger)
	}
	return func(o *options) { o.logger = l }
}

// WithNumNodes spreads workers round-robin over n memory domains: worker
// slot s belongs to node s % n. Panics if n < 1.
func WithNumNodes(n int) Option {
	if n < 1 {
		panic(panicNodesInvalid)
	}
	return func(o *options) { o.numNodes = n }
}

// WithPinning locks every worker to an OS thread bound to CPU slot % NumCPU.
// Pinning failures are logged and the worker keeps running unpinned.
func WithPinning() Option {
	return func(o *options) { o.pin = true }
}
