// SPDX-License-Identifier: MIT

package scalar

import "sync"

// Registry maps operator names to one implementation per element type.
// It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]map[Type]BinaryOp
}

// NewRegistry returns a registry preloaded with the builtin operators
// (add, sub, mul, max, min) for every element type.
func NewRegistry() *Registry {
	r := &Registry{ops: make(map[string]map[Type]BinaryOp)}
	for _, t := range []Type{Int64, Float32, Float64} {
		for _, op := range []BinaryOp{Add(t), Sub(t), Mul(t), Max(t), Min(t)} {
			r.register(op.Name(), op)
		}
	}
	return r
}

// Register adds the given implementations under name. A later registration
// for the same (name, type) replaces the earlier one.
func (r *Registry) Register(name string, ops ...BinaryOp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range ops {
		r.register(name, op)
	}
}

func (r *Registry) register(name string, op BinaryOp) {
	byType, ok := r.ops[name]
	if !ok {
		byType = make(map[Type]BinaryOp)
		r.ops[name] = byType
	}
	byType[op.InputType()] = op
}

// Lookup returns the operator registered under name for type t.
func (r *Registry) Lookup(name string, t Type) (BinaryOp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name][t]
	if !ok {
		return nil, opErrorf(name, "Lookup "+t.String(), ErrUnknownOp)
	}
	return op, nil
}
