package ecs

import "fmt"

// ValidateInvariants checks the structural invariants of the world,
// intended for debug builds and tests (Config.DebugValidate) rather than
// production ticks: entity-table/archetype-slot consistency, alive-entity
// signature correspondence, and column-length consistency. Batch
// conflict-freedom is checked at scheduling time (buildBatches), not here.
func (w *World) ValidateInvariants() error {
	for index, rec := range w.entities.table {
		if !rec.alive {
			continue
		}
		entity := NewEntity(uint32(index), rec.generation)

		if rec.archetype == nil {
			return fmt.Errorf("ecs: invariant violation: alive entity %s has no archetype", entity)
		}
		if rec.slot < 0 || rec.slot >= rec.archetype.Count() {
			return fmt.Errorf("ecs: invariant violation: entity %s slot %d out of range for archetype %d (count %d)",
				entity, rec.slot, rec.archetype.ID(), rec.archetype.Count())
		}
		if rec.archetype.EntityAt(rec.slot) != entity {
			return fmt.Errorf("ecs: invariant violation: entity %s does not occupy its recorded slot %d in archetype %d",
				entity, rec.slot, rec.archetype.ID())
		}
	}

	for _, a := range w.archetypes.All() {
		want := a.Count()
		for _, typeID := range a.signature.IDs() {
			col := a.columnFor(typeID)
			if col == nil {
				return fmt.Errorf("ecs: invariant violation: archetype %d missing column for type %d", a.ID(), typeID)
			}
			if col.len() != want {
				return fmt.Errorf("ecs: invariant violation: archetype %d column %d has length %d, want %d",
					a.ID(), typeID, col.len(), want)
			}
		}
	}

	return nil
}
