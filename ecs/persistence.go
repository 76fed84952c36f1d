package ecs

// Persistence support is deliberately a thin protocol, not a file format:
// it exposes exactly enough of the World's internal layout for a host to
// build its own save format on top, using the archetype columns' raw byte
// ranges for POD component types.

// ArchetypeSnapshot describes one archetype's exported contents: its
// signature, the dense entity column, and one raw byte range per
// component type, keyed by TypeId.
type ArchetypeSnapshot struct {
	Signature Signature
	Entities  []Entity
	Columns   map[TypeId][]byte
}

// EntityTableSnapshot describes the Entity Manager's bookkeeping: for
// every allocated index, whether it's alive, its generation, and the
// free-list of recycled indices not currently represented by a live
// entity.
type EntityTableSnapshot struct {
	Generations []uint32
	Alive       []bool
	FreeList    []uint32
}

// Export enumerates every archetype and the entity table as a pair of
// snapshots, suitable for a host to serialize in whatever format it
// chooses. Valid only for archetypes whose component types are POD:
// rawBytes panics or misbehaves on non-POD columns containing
// pointers/slices/maps.
func (w *World) Export() ([]ArchetypeSnapshot, EntityTableSnapshot) {
	archetypes := w.archetypes.All()
	out := make([]ArchetypeSnapshot, 0, len(archetypes))
	for _, a := range archetypes {
		cols := make(map[TypeId][]byte, a.signature.Len())
		for _, id := range a.signature.IDs() {
			cols[id] = a.columnFor(id).rawBytes()
		}
		entities := make([]Entity, len(a.entities))
		copy(entities, a.entities)
		out = append(out, ArchetypeSnapshot{
			Signature: a.signature,
			Entities:  entities,
			Columns:   cols,
		})
	}

	table := w.entities.table
	snap := EntityTableSnapshot{
		Generations: make([]uint32, len(table)),
		Alive:       make([]bool, len(table)),
		FreeList:    append([]uint32(nil), w.entities.freeList...),
	}
	for i, rec := range table {
		snap.Generations[i] = rec.generation
		snap.Alive[i] = rec.alive
	}
	return out, snap
}

// Import replaces the World's entire entity/archetype state with the
// contents of snapshots and table. The World must be freshly constructed
// (no entities created yet) before calling Import; it does not merge with
// existing state.
func (w *World) Import(snapshots []ArchetypeSnapshot, table EntityTableSnapshot) {
	w.archetypes = NewArchetypeManager(w.registry, w.config.ColumnInitialCapacity)
	w.components.archetypes = w.archetypes
	restored := make([]*Archetype, 0, len(snapshots))

	for _, snap := range snapshots {
		a := w.archetypes.GetOrCreate(snap.Signature)
		a.entities = append(a.entities[:0], snap.Entities...)
		for _, id := range snap.Signature.IDs() {
			data, ok := snap.Columns[id]
			if !ok {
				continue
			}
			col := a.columnFor(id)
			col.loadRaw(data, len(snap.Entities))
		}
		restored = append(restored, a)
	}

	w.entities.table = make([]entityRecord, len(table.Generations))
	for i := range w.entities.table {
		w.entities.table[i].generation = table.Generations[i]
		w.entities.table[i].alive = table.Alive[i]
	}
	w.entities.freeList = append([]uint32(nil), table.FreeList...)

	for _, a := range restored {
		for slot, e := range a.entities {
			idx := e.Index()
			if int(idx) < len(w.entities.table) {
				w.entities.table[idx].archetype = a
				w.entities.table[idx].slot = slot
			}
		}
	}
}
