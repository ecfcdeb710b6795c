// SPDX-License-Identifier: MIT

// Package matrix: functional configuration for matrix stores.
// This file defines:
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - gatherOptions helper (internal).
//
// Notes:
//   - Layout, node placement and portion length describe how data is cut
//     into portions; they never change the values a matrix holds.
//   - IODepth and BackendLogger only affect external (file-backed) matrices.
package matrix

import (
	"log/slog"

	"github.com/katalvlaran/lazymat/portion"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultLayout is the storage order of newly allocated dense matrices.
	DefaultLayout = portion.RowMajor

	// DefaultNode means "not bound to a NUMA node".
	DefaultNode = -1

	// DefaultNumNodes = 0 keeps every portion on the matrix node.
	DefaultNumNodes = 0

	// DefaultPortionLen is the extent of a portion along the long dimension
	// (rows of a tall matrix, columns of a wide one).
	DefaultPortionLen = 4096

	// DefaultIODepth bounds concurrent reads of one backing file.
	DefaultIODepth = 8
)

// ---------- Internal panic messages (no magic strings) ----------

const (
	panicLayoutInvalid     = "matrix: WithLayout: layout must be RowMajor or ColMajor"
	panicNumNodesInvalid   = "matrix: WithNumNodes: n must be >= 0"
	panicNodeInvalid       = "matrix: WithNode: node must be >= -1"
	panicPortionLenInvalid = "matrix: WithPortionLen: n must be > 0"
	panicIODepthInvalid    = "matrix: WithIODepth: depth must be > 0"
	panicNilLogger         = "matrix: WithBackendLogger: logger must be non-nil"
)

// ---------- Public option type (functional) ----------

// Option mutates internal options. Constructors panic only on nonsensical
// values (programmer error).
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
// Fields are unexported; public entry points accept ...Option.
type Options struct {
	layout     portion.Layout // DefaultLayout
	node       int            // DefaultNode
	numNodes   int            // DefaultNumNodes
	portionLen int            // DefaultPortionLen
	name       string         // generated from the ID when empty
	ioDepth    int            // DefaultIODepth
	logger     *slog.Logger   // slog.Default()
}

// WithLayout sets the storage order of allocated data (or of the data a
// slice or file already holds).
func WithLayout(l portion.Layout) Option {
	if !l.Valid() {
		panic(panicLayoutInvalid)
	}
	return func(o *Options) { o.layout = l }
}

// WithNode binds the matrix to one NUMA node (-1 = none).
func WithNode(node int) Option {
	if node < -1 {
		panic(panicNodeInvalid)
	}
	return func(o *Options) { o.node = node }
}

// WithNumNodes spreads the portions of an in-memory matrix over n nodes:
// portion i along the long dimension is reported on node i % n. 0 disables
// spreading.
func WithNumNodes(n int) Option {
	if n < 0 {
		panic(panicNumNodesInvalid)
	}
	return func(o *Options) { o.numNodes = n }
}

// WithPortionLen sets the portion extent along the long dimension.
func WithPortionLen(n int) Option {
	if n <= 0 {
		panic(panicPortionLenInvalid)
	}
	return func(o *Options) { o.portionLen = n }
}

// WithName sets a human readable name used in expression names and logs.
func WithName(name string) Option {
	return func(o *Options) { o.name = name }
}

// WithIODepth bounds the number of concurrent reads issued to a backing file.
func WithIODepth(depth int) Option {
	if depth <= 0 {
		panic(panicIODepthInvalid)
	}
	return func(o *Options) { o.ioDepth = depth }
}

// WithBackendLogger sets the logger of a file backend.
func WithBackendLogger(l *slog.Logger) Option {
	if l == nil {
		panic(panicNilLogger)
	}
	return func(o *Options) { o.logger = l }
}

// gatherOptions applies user setters over the documented defaults.
func gatherOptions(user ...Option) Options {
	o := Options{
		layout:     DefaultLayout,
		node:       DefaultNode,
		numNodes:   DefaultNumNodes,
		portionLen: DefaultPortionLen,
		ioDepth:    DefaultIODepth,
		logger:     slog.Default(),
	}
	for _, set := range user {
		set(&o) // last-writer-wins
	}
	return o
}
