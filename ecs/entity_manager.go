package ecs

// entityRecord is one row of the entity table: archetype reference, slot,
// generation, and alive flag.
type entityRecord struct {
	archetype  *Archetype
	slot       int
	generation uint32
	alive      bool
}

// EntityBlueprint is a data-oriented entity builder: the caller fills a
// small, serializable list of (TypeId, value) pairs and enqueues it,
// instead of a closure the deferred-create queue would otherwise have to
// box and invoke later.
type EntityBlueprint struct {
	components []ComponentValue
}

// NewEntityBlueprint returns an empty blueprint.
func NewEntityBlueprint() *EntityBlueprint {
	return &EntityBlueprint{}
}

// With appends one component value to the blueprint and returns it for
// chaining.
func (b *EntityBlueprint) With(id TypeId, value any) *EntityBlueprint {
	b.components = append(b.components, ComponentValue{Type: id, Value: value})
	return b
}

func (b *EntityBlueprint) signature() Signature {
	ids := make([]TypeId, len(b.components))
	for i, c := range b.components {
		ids[i] = c.Type
	}
	return SignatureOf(ids...)
}

// EntityManager allocates and recycles entity indices with generation
// counters, maintains the entity -> (archetype, slot) lookup, and owns the
// deferred entity create/destroy queues.
type EntityManager struct {
	table       []entityRecord
	freeList    []uint32 // stack of recycled indices
	destroyQ    []Entity
	createQ     []*EntityBlueprint
	diagnostics *Diagnostics
}

func newEntityManager(diag *Diagnostics, queueCapacity int) *EntityManager {
	return &EntityManager{
		diagnostics: diag,
		destroyQ:    make([]Entity, 0, queueCapacity),
		createQ:     make([]*EntityBlueprint, 0, queueCapacity),
	}
}

// createImmediate allocates (or recycles) an index, bumps its generation,
// marks it alive, places it directly into the archetype matching
// blueprint's signature (or the empty archetype if blueprint is nil or
// has no components), and returns the handle. Restricted to outside the
// tick's system phase; World enforces that as a debug-time assertion.
func (em *EntityManager) createImmediate(archetypes *ArchetypeManager, blueprint *EntityBlueprint) Entity {
	index := em.allocIndex()
	rec := &em.table[index]
	rec.generation++
	if rec.generation == 0 {
		rec.generation = 1 // generation 0 is reserved for "never issued"
	}
	rec.alive = true

	entity := NewEntity(index, rec.generation)
	var components []ComponentValue
	target := archetypes.Empty()
	if blueprint != nil {
		components = blueprint.components
		target = archetypes.GetOrCreate(blueprint.signature())
	}

	rec.archetype = target
	rec.slot = target.addEntity(entity, components)
	return entity
}

func (em *EntityManager) allocIndex() uint32 {
	if n := len(em.freeList); n > 0 {
		index := em.freeList[n-1]
		em.freeList = em.freeList[:n-1]
		return index
	}
	em.table = append(em.table, entityRecord{})
	return uint32(len(em.table) - 1)
}

// EnqueueCreate appends a blueprint to the create queue. The resulting
// handle is only knowable after the next drain.
func (em *EntityManager) EnqueueCreate(blueprint *EntityBlueprint) {
	if blueprint == nil {
		blueprint = NewEntityBlueprint()
	}
	em.createQ = append(em.createQ, blueprint)
}

// EnqueueDestroy appends entity to the destroy queue.
func (em *EntityManager) EnqueueDestroy(entity Entity) {
	em.destroyQ = append(em.destroyQ, entity)
}

// IsAlive reports whether entity's generation still matches the table and
// the slot is occupied.
func (em *EntityManager) IsAlive(entity Entity) bool {
	index := entity.Index()
	if int(index) >= len(em.table) {
		return false
	}
	rec := &em.table[index]
	return rec.alive && rec.generation == entity.Generation()
}

// Locate returns the archetype and slot for entity, or ok=false if it is
// not alive.
func (em *EntityManager) Locate(entity Entity) (archetype *Archetype, slot int, ok bool) {
	if !em.IsAlive(entity) {
		return nil, 0, false
	}
	rec := &em.table[entity.Index()]
	return rec.archetype, rec.slot, true
}

// updateLookup is the trusted callback the Archetype Manager uses after a
// move to repoint the entity table at the entity's new (archetype, slot).
func (em *EntityManager) updateLookup(entity Entity, archetype *Archetype, slot int) {
	index := entity.Index()
	if int(index) >= len(em.table) {
		return
	}
	rec := &em.table[index]
	if rec.generation != entity.Generation() {
		return
	}
	rec.archetype = archetype
	rec.slot = slot
}

// drainDestroys processes the destroy queue: for each entity, swap-pop it
// out of its archetype, fix up whichever entity was relocated into the
// vacated slot, bump the destroyed entity's generation, and push its
// index onto the free list. Returns the entities actually destroyed (for
// the on_entity_destroyed_batch hook).
func (em *EntityManager) drainDestroys() []Entity {
	if len(em.destroyQ) == 0 {
		return nil
	}
	destroyed := make([]Entity, 0, len(em.destroyQ))
	for _, entity := range em.destroyQ {
		if !em.IsAlive(entity) {
			em.diagnostics.staleDestroySkipped.Add(1)
			continue
		}
		index := entity.Index()
		rec := &em.table[index]
		archetype := rec.archetype
		slot := rec.slot

		relocated, relocatedOk := archetype.removeEntity(slot)
		if relocatedOk {
			em.updateLookup(relocated, archetype, slot)
		}

		rec.alive = false
		rec.archetype = nil
		rec.slot = 0
		rec.generation++
		if rec.generation == 0 {
			rec.generation = 1 // skip the reserved "never issued" generation
		}
		em.freeList = append(em.freeList, index)

		destroyed = append(destroyed, entity)
	}
	em.destroyQ = em.destroyQ[:0]
	return destroyed
}

// drainCreates processes the create queue: for each blueprint, allocate an
// index/generation and place the entity into the archetype matching its
// accumulated signature in a single append, with no intermediate
// archetype transitions. Returns the entities created.
func (em *EntityManager) drainCreates(archetypes *ArchetypeManager) []Entity {
	if len(em.createQ) == 0 {
		return nil
	}
	created := make([]Entity, 0, len(em.createQ))
	for _, blueprint := range em.createQ {
		index := em.allocIndex()
		rec := &em.table[index]
		rec.generation++
		if rec.generation == 0 {
			rec.generation = 1
		}
		rec.alive = true

		entity := NewEntity(index, rec.generation)
		target := archetypes.GetOrCreate(blueprint.signature())
		slot := target.addEntity(entity, blueprint.components)

		rec.archetype = target
		rec.slot = slot

		created = append(created, entity)
	}
	em.createQ = em.createQ[:0]
	return created
}
