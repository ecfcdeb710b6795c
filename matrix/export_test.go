// SPDX-License-Identifier: MIT

package matrix

// Test bridge: white-box access for matrix_test.

// Panic message exports to avoid "magic strings" in tests.
const (
	PanicLayoutInvalid_TestOnly     = panicLayoutInvalid
	PanicNumNodesInvalid_TestOnly   = panicNumNodesInvalid
	PanicNodeInvalid_TestOnly       = panicNodeInvalid
	PanicPortionLenInvalid_TestOnly = panicPortionLenInvalid
	PanicIODepthInvalid_TestOnly    = panicIODepthInvalid
	PanicNilLogger_TestOnly         = panicNilLogger
)

// OptionsSnapshot is a read-only view of the effective options.
type OptionsSnapshot struct {
	Layout     string
	Node       int
	NumNodes   int
	PortionLen int
	Name       string
	IODepth    int
}

// GatherOptionsSnapshot_TestOnly resolves opts over the defaults.
func GatherOptionsSnapshot_TestOnly(opts ...Option) OptionsSnapshot {
	o := gatherOptions(opts...)
	return OptionsSnapshot{
		Layout:     o.layout.String(),
		Node:       o.node,
		NumNodes:   o.numNodes,
		PortionLen: o.portionLen,
		Name:       o.name,
		IODepth:    o.ioDepth,
	}
}
