package ecs

import "iter"

// Query is the result of asking a World for every archetype matching a
// required component set: a query yields archetype references, and the
// consumer then pulls typed column slices out of each archetype by
// TypeId via the package-level Column[T] helper. This is coarser than a
// per-entity query that flattens matching archetypes into one
// entity/component array per frame — systems here operate
// archetype-by-archetype so each worker-pool batch item can claim whole
// archetypes without per-entity bookkeeping.
type Query struct {
	required   Signature
	archetypes []*Archetype
}

// newQuery wraps the archetype list the ArchetypeManager's cache already
// produced for required.
func newQuery(required Signature, archetypes []*Archetype) Query {
	return Query{required: required, archetypes: archetypes}
}

// Archetypes returns every archetype whose signature is a superset of the
// query's required set, in creation order.
func (q Query) Archetypes() []*Archetype { return q.archetypes }

// Len returns the number of matching archetypes.
func (q Query) Len() int { return len(q.archetypes) }

// All iterates the matching archetypes.
func (q Query) All() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for _, a := range q.archetypes {
			if !yield(a) {
				return
			}
		}
	}
}

// Query asks the World's Archetype Manager for every archetype whose
// signature is a superset of required, using the manager's cached index.
func (w *World) Query(required ...TypeId) Query {
	sig := SignatureOf(required...)
	return newQuery(sig, w.archetypes.Query(required))
}
