package ecs

import "sync"

// CommandBuffer accumulates deferred structural operations issued by a
// system body, applied by the World during the next structural phase
// rather than immediately. Operations target an opaque Entity handle
// instead of chasing a migrated id: the generation-based staleness model
// means a stale handle is simply skipped and counted, never silently
// redirected. Buffers are drawn from a pool rather than allocated fresh
// per frame, since Go has no goroutine-local storage to give each
// concurrently-executing system its own buffer the way a systems
// language would via TLS.
type CommandBuffer struct {
	creates  []*EntityBlueprint
	destroys []Entity
	adds     []componentOp
	removes  []componentOp
	defers   []func()
}

var commandBufferPool = sync.Pool{
	New: func() any { return &CommandBuffer{} },
}

// AcquireCommandBuffer draws a reset buffer from the shared pool. Each
// worker-pool work item acquires exactly one for the duration of a single
// system invocation and releases it back after the batch's post-flush.
func AcquireCommandBuffer() *CommandBuffer {
	return commandBufferPool.Get().(*CommandBuffer)
}

// Release returns buf to the pool after its contents have been drained
// into the World's queues. Callers must not use buf after calling this.
func (b *CommandBuffer) Release() {
	b.creates = b.creates[:0]
	b.destroys = b.destroys[:0]
	b.adds = b.adds[:0]
	b.removes = b.removes[:0]
	b.defers = b.defers[:0]
	commandBufferPool.Put(b)
}

// CreateEntity queues an entity creation from blueprint, applied at the
// next structural phase.
func (b *CommandBuffer) CreateEntity(blueprint *EntityBlueprint) {
	b.creates = append(b.creates, blueprint)
}

// DestroyEntity queues entity for destruction.
func (b *CommandBuffer) DestroyEntity(entity Entity) {
	b.destroys = append(b.destroys, entity)
}

// AddComponent queues a component add for entity.
func (b *CommandBuffer) AddComponent(entity Entity, typ TypeId, value any) {
	b.adds = append(b.adds, componentOp{entity: entity, typ: typ, value: value})
}

// RemoveComponent queues a component remove for entity.
func (b *CommandBuffer) RemoveComponent(entity Entity, typ TypeId) {
	b.removes = append(b.removes, componentOp{entity: entity, typ: typ})
}

// Defer queues an arbitrary function to run once on the scheduler's
// goroutine, after the system's batch has finished and right after this
// buffer's commands have been moved into the World's queues (the queued
// structural changes themselves apply at the next structural phase).
// Used for host-side bookkeeping that must happen outside the concurrent
// system phase.
func (b *CommandBuffer) Defer(fn func()) {
	b.defers = append(b.defers, fn)
}

// drainInto pushes every queued operation onto the World's shared queues.
// Called once per command buffer, after the whole batch the buffer's
// system belonged to has finished running: the scheduler calls this
// serially, from its own goroutine, for every buffer in a batch after
// the batch's worker-pool call returns, so two drainInto calls never
// race on the shared queues.
func (b *CommandBuffer) drainInto(entities *EntityManager, components *ComponentManager) []func() {
	for _, bp := range b.creates {
		entities.EnqueueCreate(bp)
	}
	for _, e := range b.destroys {
		entities.EnqueueDestroy(e)
	}
	for _, op := range b.adds {
		components.EnqueueAdd(op.entity, op.typ, op.value)
	}
	for _, op := range b.removes {
		components.EnqueueRemove(op.entity, op.typ)
	}
	return b.defers
}
