package ecs

// componentOp is one queued add-or-remove-component request. value is only
// meaningful for adds.
type componentOp struct {
	entity Entity
	typ    TypeId
	value  any
}

// ComponentManager owns the deferred add/remove-component queues and
// applies them against the Entity Manager / Archetype Manager during the
// tick's structural phase, strictly after creates and destroys have
// drained. Add and remove are each applied in strict FIFO order within
// their own queue; adds are drained before removes, matching the overall
// destroy -> create -> add -> remove phase sequence.
type ComponentManager struct {
	registry    *ComponentRegistry
	archetypes  *ArchetypeManager
	entities    *EntityManager
	diagnostics *Diagnostics

	addQ    []componentOp
	removeQ []componentOp
}

func newComponentManager(registry *ComponentRegistry, archetypes *ArchetypeManager, entities *EntityManager, diag *Diagnostics, queueCapacity int) *ComponentManager {
	return &ComponentManager{
		registry:    registry,
		archetypes:  archetypes,
		entities:    entities,
		diagnostics: diag,
		addQ:        make([]componentOp, 0, queueCapacity),
		removeQ:     make([]componentOp, 0, queueCapacity),
	}
}

// EnqueueAdd appends an add-component request.
func (cm *ComponentManager) EnqueueAdd(entity Entity, typ TypeId, value any) {
	cm.addQ = append(cm.addQ, componentOp{entity: entity, typ: typ, value: value})
}

// EnqueueRemove appends a remove-component request.
func (cm *ComponentManager) EnqueueRemove(entity Entity, typ TypeId) {
	cm.removeQ = append(cm.removeQ, componentOp{entity: entity, typ: typ})
}

// Drain applies every queued add then every queued remove, in FIFO order
// within each kind. Operations against an entity that is no longer alive
// (destroyed earlier this same phase, or already stale) are silently
// skipped and counted in Diagnostics rather than treated as an error.
func (cm *ComponentManager) Drain() {
	for _, op := range cm.addQ {
		cm.applyAdd(op)
	}
	cm.addQ = cm.addQ[:0]

	for _, op := range cm.removeQ {
		cm.applyRemove(op)
	}
	cm.removeQ = cm.removeQ[:0]
}

func (cm *ComponentManager) applyAdd(op componentOp) {
	archetype, slot, ok := cm.entities.Locate(op.entity)
	if !ok {
		cm.diagnostics.staleComponentAddSkip.Add(1)
		return
	}
	if int(op.typ) >= cm.registry.TypeCount() {
		cm.diagnostics.invalidComponentTypeSkp.Add(1)
		return
	}
	if archetype.signature.Contains(op.typ) {
		// Already present: overwrite in place, no structural move needed.
		archetype.columnFor(op.typ).setValue(slot, op.value)
		return
	}

	targetSig := archetype.signature.Add(op.typ)
	target := cm.archetypes.GetOrCreate(targetSig)
	cm.archetypes.MoveEntity(cm.entities, op.entity, archetype, slot, target, &ComponentValue{Type: op.typ, Value: op.value})
}

func (cm *ComponentManager) applyRemove(op componentOp) {
	archetype, slot, ok := cm.entities.Locate(op.entity)
	if !ok {
		cm.diagnostics.staleComponentRemSkip.Add(1)
		return
	}
	if int(op.typ) >= cm.registry.TypeCount() {
		cm.diagnostics.invalidComponentTypeSkp.Add(1)
		return
	}
	if !archetype.signature.Contains(op.typ) {
		// Removing a component the entity never had is a no-op, not an
		// error.
		return
	}

	targetSig := archetype.signature.Remove(op.typ)
	target := cm.archetypes.GetOrCreate(targetSig)
	cm.archetypes.MoveEntity(cm.entities, op.entity, archetype, slot, target, nil)
}
