package ecs

import "github.com/TheBitDrifter/mask"

// MaxComponentTypes is the capacity of the Signature bitset, fixed by the
// word width of mask.Mask (the same bitset type the warehouse example uses
// to key its archetype map). Registering more component types than this
// panics with ErrSignatureOverflow.
const MaxComponentTypes = 64

// Signature is the fixed-capacity bitset identifying an archetype: the set
// of TypeIds an entity currently possesses. Two signatures with the same
// bit pattern are equal and name the same archetype.
//
// The bit pattern itself (bits) is the source of truth for equality,
// containment and subset tests, mirroring exactly how the warehouse example
// uses mask.Mask as its archetype map key. ids is redundant bookkeeping
// maintained alongside bits so Hash() and iteration don't need to
// introspect mask's internal word layout (which this repo treats as
// opaque). Archetype relies on this list for ascending-TypeId column
// order instead of storing an ordering of its own.
type Signature struct {
	bits mask.Mask
	ids  []TypeId // sorted ascending, kept in lockstep with bits
}

// Add returns the signature with id set. A no-op if id is already present.
func (s Signature) Add(id TypeId) Signature {
	if s.Contains(id) {
		return s
	}
	s.bits.Mark(uint32(id))
	ids := make([]TypeId, 0, len(s.ids)+1)
	inserted := false
	for _, existing := range s.ids {
		if !inserted && id < existing {
			ids = append(ids, id)
			inserted = true
		}
		ids = append(ids, existing)
	}
	if !inserted {
		ids = append(ids, id)
	}
	s.ids = ids
	return s
}

// Remove returns the signature with id cleared. A no-op if id is absent.
func (s Signature) Remove(id TypeId) Signature {
	if !s.Contains(id) {
		return s
	}
	s.bits.Unmark(uint32(id))
	ids := make([]TypeId, 0, len(s.ids))
	for _, existing := range s.ids {
		if existing != id {
			ids = append(ids, existing)
		}
	}
	s.ids = ids
	return s
}

// Contains reports whether id is a member of the signature.
func (s Signature) Contains(id TypeId) bool {
	var probe mask.Mask
	probe.Mark(uint32(id))
	return s.bits.ContainsAll(probe)
}

// Equals reports whether two signatures have the same bit pattern.
func (s Signature) Equals(o Signature) bool {
	return s.bits == o.bits
}

// IsSupersetOf reports whether s contains every id in o.
func (s Signature) IsSupersetOf(o Signature) bool {
	return s.bits.ContainsAll(o.bits)
}

// Intersects reports whether s and o share at least one member; used
// by the scheduler's conflict analysis.
func (s Signature) Intersects(o Signature) bool {
	return s.bits.ContainsAny(o.bits)
}

// IsEmpty reports whether the signature has no members (archetype 0).
func (s Signature) IsEmpty() bool {
	return s.bits.IsEmpty()
}

// Len returns the number of member TypeIds (cardinality).
func (s Signature) Len() int {
	return len(s.ids)
}

// IDs returns the member TypeIds in ascending order. The caller must treat
// the returned slice as read-only.
func (s Signature) IDs() []TypeId {
	return s.ids
}

// Hash returns a stable hash of the signature, identical for any two
// signatures with equal bit patterns. It mixes in cardinality as well as
// the member ids, Used as the integer key into the
// archetype manager's intmap-backed signature index.
func (s Signature) Hash() uint64 {
	const offset = uint64(14695981039346656037)
	const prime = uint64(1099511628211)
	h := offset
	for _, id := range s.ids {
		h ^= uint64(id)
		h *= prime
	}
	h ^= uint64(len(s.ids))
	h *= prime
	return h
}

// SignatureOf builds a Signature from a set of TypeIds in any order.
func SignatureOf(ids ...TypeId) Signature {
	var s Signature
	for _, id := range ids {
		s = s.Add(id)
	}
	return s
}
