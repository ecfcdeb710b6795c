// SPDX-License-Identifier: MIT

// Package engine: functional configuration.
//
// Notes:
//   - ChunkSize is measured in elements. A product portion whose long
//     dimension exceeds ChunkSize / max(result rows, result cols) is cut
//     into chunks of that many columns; each chunk folds into the widened
//     accumulator.
//   - SparseFoldThreshold bounds how many dense x sparse chunks accumulate
//     directly in the element type before folding. 0 derives it from
//     ChunkSize / max(left rows, long dimension).
package engine

import (
	"log/slog"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/workerpool"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultChunkSize is the number of elements a product chunk targets.
	DefaultChunkSize = 16384

	// DefaultSparseFoldThreshold = 0 derives the fold threshold from the
	// chunk size.
	DefaultSparseFoldThreshold = 0

	// DefaultOutputLayout = LayoutNone picks the layout per expression
	// (see NewInnerProduct).
	DefaultOutputLayout = portion.LayoutNone

	// DefaultGroupMaterialize materializes block-sink tiles one at a time.
	DefaultGroupMaterialize = false
)

// ---------- Internal panic messages (no magic strings) ----------

const (
	panicNilPool       = "engine: WithPool: pool must be non-nil"
	panicChunkInvalid  = "engine: WithChunkSize: n must be > 0"
	panicFoldInvalid   = "engine: WithSparseFoldThreshold: n must be > 0"
	panicLayoutInvalid = "engine: WithOutputLayout: layout must be RowMajor or ColMajor"
	panicNilLogger     = "engine: WithLogger: logger must be non-nil"
)

// Option mutates internal options; constructors panic only on nonsensical
// values.
type Option func(*Options)

// Options stores the effective configuration.
type Options struct {
	pool       *workerpool.Pool
	chunkSize  int
	sparseFold int
	outLayout  portion.Layout
	logger     *slog.Logger
	group      bool
	name       string
}

// WithPool sets the worker pool. The default is workerpool.Default().
func WithPool(p *workerpool.Pool) Option {
	if p == nil {
		panic(panicNilPool)
	}
	return func(o *Options) { o.pool = p }
}

// WithChunkSize sets the element budget of one product chunk.
func WithChunkSize(n int) Option {
	if n <= 0 {
		panic(panicChunkInvalid)
	}
	return func(o *Options) { o.chunkSize = n }
}

// WithSparseFoldThreshold fixes the number of dense x sparse chunks
// accumulated before folding into the widened accumulator.
func WithSparseFoldThreshold(n int) Option {
	if n <= 0 {
		panic(panicFoldInvalid)
	}
	return func(o *Options) { o.sparseFold = n }
}

// WithOutputLayout forces the layout of a materialized result.
func WithOutputLayout(l portion.Layout) Option {
	if !l.Valid() {
		panic(panicLayoutInvalid)
	}
	return func(o *Options) { o.outLayout = l }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic(panicNilLogger)
	}
	return func(o *Options) { o.logger = l }
}

// WithGroupMaterialize makes a block sink drive all its tiles in one pass
// over the shared long dimension.
func WithGroupMaterialize() Option {
	return func(o *Options) { o.group = true }
}

// WithName names the expression node.
func WithName(name string) Option {
	return func(o *Options) { o.name = name }
}

func gatherOptions(user ...Option) Options {
	o := Options{
		chunkSize:  DefaultChunkSize,
		sparseFold: DefaultSparseFoldThreshold,
		outLayout:  DefaultOutputLayout,
		group:      DefaultGroupMaterialize,
	}
	for _, set := range user {
		set(&o)
	}
	if o.pool == nil {
		o.pool = workerpool.Default()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
