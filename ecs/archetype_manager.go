package ecs

import "github.com/kamstrup/intmap"

// sigBucket resolves Signature.Hash() collisions: in the astronomically
// unlikely event two distinct signatures mix to the same 64-bit hash, both
// live in the same bucket and are disambiguated by Signature.Equals.
type sigBucket struct {
	archetypes []*Archetype
}

func (b *sigBucket) find(sig Signature) *Archetype {
	for _, a := range b.archetypes {
		if a.signature.Equals(sig) {
			return a
		}
	}
	return nil
}

// queryBucket is the query-cache analogue of sigBucket, keyed by the hash
// of the requested TypeId set.
type queryBucket struct {
	entries []queryCacheEntry
}

type queryCacheEntry struct {
	required   Signature
	archetypes []*Archetype
}

// ArchetypeManager owns every archetype indexed by signature, creates them
// on demand, and caches queries. The signature->archetype and query
// caches both use intmap, a fast integer-keyed map, because both are
// keyed by a 64-bit hash rather than an arbitrary comparable struct.
type ArchetypeManager struct {
	registry       *ComponentRegistry
	columnCapacity int

	bySignature *intmap.Map[uint64, *sigBucket]
	all         []*Archetype
	empty       *Archetype

	queryCache    *intmap.Map[uint64, *queryBucket]
	nextID        uint32
	queryCacheGen uint64 // bumped whenever a new archetype is created
}

// NewArchetypeManager creates a manager with archetype 0 (the empty
// signature) already present. columnCapacity sizes every freshly created
// archetype's columns (Config.ColumnInitialCapacity).
func NewArchetypeManager(registry *ComponentRegistry, columnCapacity int) *ArchetypeManager {
	m := &ArchetypeManager{
		registry:       registry,
		columnCapacity: columnCapacity,
		bySignature:    intmap.New[uint64, *sigBucket](64),
		queryCache:     intmap.New[uint64, *queryBucket](64),
	}
	m.empty = m.createArchetype(Signature{})
	return m
}

// Empty returns archetype 0, the empty-signature archetype newly created
// entities with no components land in.
func (m *ArchetypeManager) Empty() *Archetype { return m.empty }

// All returns every archetype created so far, in creation order.
func (m *ArchetypeManager) All() []*Archetype { return m.all }

// GetOrCreate returns the archetype for sig, creating (and caching) it if
// absent. Creation pre-allocates one column per type in the signature.
func (m *ArchetypeManager) GetOrCreate(sig Signature) *Archetype {
	hash := sig.Hash()
	if bucket, ok := m.bySignature.Get(hash); ok {
		if a := bucket.find(sig); a != nil {
			return a
		}
		a := m.createArchetype(sig)
		bucket.archetypes = append(bucket.archetypes, a)
		return a
	}
	a := m.createArchetype(sig)
	m.bySignature.Put(hash, &sigBucket{archetypes: []*Archetype{a}})
	return a
}

// Lookup returns the archetype for sig without creating it.
func (m *ArchetypeManager) Lookup(sig Signature) (*Archetype, bool) {
	bucket, ok := m.bySignature.Get(sig.Hash())
	if !ok {
		return nil, false
	}
	a := bucket.find(sig)
	return a, a != nil
}

func (m *ArchetypeManager) createArchetype(sig Signature) *Archetype {
	a := newArchetype(m.nextID, sig, m.registry, m.columnCapacity)
	m.nextID++
	m.all = append(m.all, a)
	m.queryCacheGen++
	m.queryCache = intmap.New[uint64, *queryBucket](64)
	return a
}

// Query returns every archetype whose signature is a superset of required,
// caching the result keyed by the hash of required. The cache is
// invalidated wholesale whenever a new archetype is created, an
// "archetype count changed" strategy rather than tracking fine-grained
// per-entry validity.
func (m *ArchetypeManager) Query(required []TypeId) []*Archetype {
	needle := SignatureOf(required...)
	hash := needle.Hash()

	if bucket, ok := m.queryCache.Get(hash); ok {
		for _, entry := range bucket.entries {
			if entry.required.Equals(needle) {
				return entry.archetypes
			}
		}
	}

	matches := make([]*Archetype, 0, len(m.all))
	for _, a := range m.all {
		if a.signature.IsSupersetOf(needle) {
			matches = append(matches, a)
		}
	}

	bucket, ok := m.queryCache.Get(hash)
	if !ok {
		bucket = &queryBucket{}
		m.queryCache.Put(hash, bucket)
	}
	bucket.entries = append(bucket.entries, queryCacheEntry{required: needle, archetypes: matches})
	return matches
}

// invalidateQueryCacheIfStale clears the query cache wholesale, whether or
// not any archetype was created since it was last populated. Called once
// per tick, before systems run.
func (m *ArchetypeManager) invalidateQueryCacheIfStale() {
	// The cache already self-heals on miss (GetOrCreate/Query never
	// return stale data — a miss just recomputes), but clearing it
	// wholesale on every structural phase keeps cache memory bounded by
	// "queries issued this frame" rather than growing across the world's
	// entire lifetime as archetypes proliferate.
	m.queryCache = intmap.New[uint64, *queryBucket](64)
}

// MoveEntity orchestrates a cross-archetype row move for entity, currently
// at (src, srcSlot), into dst, optionally writing one additional component
// (component-add transitions). It updates em's lookup for both the moved
// entity and whichever entity was swapped into the vacated source slot.
func (m *ArchetypeManager) MoveEntity(em *EntityManager, entity Entity, src *Archetype, srcSlot int, dst *Archetype, additional *ComponentValue) {
	dstSlot, relocated, relocatedOk := src.moveRowTo(srcSlot, dst, additional)
	em.updateLookup(entity, dst, dstSlot)
	if relocatedOk {
		em.updateLookup(relocated, src, srcSlot)
	}
}
