// Package layout computes immediate lengths, member offsets and stack frame
// sizes from a signature list.
package layout

import (
	"fortio.org/safecast"

	"tether/internal/diag"
	"tether/internal/signature"
)

// Engine answers layout queries against a growing signature list.
//
// Names registered with Declare are complex types whose signature is not in
// the list yet; they resolve to the target pointer size.
type Engine struct {
	Target Target

	sigs     signature.List
	index    map[string]int // name -> first position in sigs
	declared map[string]struct{}
}

// New creates an Engine seeded with known.
func New(target Target, known signature.List) *Engine {
	e := &Engine{
		Target:   target,
		sigs:     make(signature.List, 0, len(known)+8),
		index:    make(map[string]int, len(known)+8),
		declared: make(map[string]struct{}, len(known)+8),
	}
	for _, s := range known {
		e.Add(s)
	}
	return e
}

// Add appends s to the list. The first signature registered for a name stays
// authoritative for lookups.
func (e *Engine) Add(s signature.Signature) {
	if _, ok := e.index[s.Name]; !ok {
		e.index[s.Name] = len(e.sigs)
	}
	e.sigs = append(e.sigs, s)
	e.declared[s.Name] = struct{}{}
}

// Declare marks name as an available type before its signature exists.
func (e *Engine) Declare(name string) {
	e.declared[name] = struct{}{}
}

// Available reports whether name is known or declared.
func (e *Engine) Available(name string) bool {
	_, ok := e.declared[name]
	return ok
}

// Lookup returns the first signature called name.
func (e *Engine) Lookup(name string) (*signature.Signature, bool) {
	idx, ok := e.index[name]
	if !ok {
		return nil, false
	}
	return &e.sigs[idx], true
}

// Signatures returns the accumulated list.
func (e *Engine) Signatures() signature.List {
	return e.sigs
}

// ImmediateLength resolves the immediate length of a type by exact lookup,
// falling back to the pointer size for declared types.
func (e *Engine) ImmediateLength(name string) (int, bool) {
	if s, ok := e.Lookup(name); ok {
		return s.ImmediateLength(), true
	}
	if e.Available(name) {
		return e.Target.PtrSize, true
	}
	return 0, false
}

// EndOffset returns the offset following members: the sum of the immediate
// lengths of their types as currently known. Declared types count as a
// pointer, matching the slot they were laid out with; unknown types count
// as zero.
func (e *Engine) EndOffset(members []signature.Member) int {
	total := 0
	for _, m := range members {
		if n, ok := e.ImmediateLength(m.TypeName); ok {
			total += n
		}
	}
	return total
}

// Offset converts a running byte offset to its on-disk width.
func Offset(n int) (uint32, error) {
	off, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0, diag.Errorf(diag.InvalidInput, "member offset %d does not fit in 32 bits: %v", n, err)
	}
	return off, nil
}
