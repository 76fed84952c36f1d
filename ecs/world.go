package ecs

import (
	"log/slog"
	"time"

	"github.com/plus3/ecscore/ecs/workerpool"
)

// World is the root object: it owns the component type registry, entity
// table, archetype store, component-operation queues, scheduler, worker
// pool, diagnostics and hooks, and drives the fixed per-tick phase order:
// drain destroys, drain creates, drain component adds then removes, run
// the due systems' conflict-free batches (each batch's command buffers
// flushed immediately after it completes), then advance the frame
// counter.
type World struct {
	config Config
	logger *slog.Logger

	registry    *ComponentRegistry
	entities    *EntityManager
	archetypes  *ArchetypeManager
	components  *ComponentManager
	diagnostics *Diagnostics
	pool        *workerpool.Pool
	scheduler   *Scheduler
	hooks       Hooks

	frame int64

	// inTickPhase guards the "no immediate structural calls from inside a
	// system" rule: CreateEntity (the immediate path) panics if called
	// while true and Config.DebugValidate is set.
	inTickPhase bool
}

// NewWorld constructs a World and its fixed worker pool. The pool's
// goroutines live for the World's entire lifetime; call Shutdown to tear
// them down.
func NewWorld(cfg Config) *World {
	cfg = cfg.normalized()

	w := &World{
		config: cfg,
		logger: cfg.Logger,
	}
	w.registry = NewComponentRegistry()
	w.diagnostics = newDiagnostics()
	w.entities = newEntityManager(w.diagnostics, cfg.QueueInitialCapacity)
	w.archetypes = NewArchetypeManager(w.registry, cfg.ColumnInitialCapacity)
	w.components = newComponentManager(w.registry, w.archetypes, w.entities, w.diagnostics, cfg.QueueInitialCapacity)
	w.pool = workerpool.New(cfg.Workers)
	w.scheduler = newScheduler(w, w.pool)
	return w
}

// Registry returns the World's component type registry.
func (w *World) Registry() *ComponentRegistry { return w.registry }

// Diagnostics returns the World's rolling non-fatal counters.
func (w *World) Diagnostics() *Diagnostics { return w.diagnostics }

// Hooks returns the World's observer-slice registration surface.
func (w *World) Hooks() *Hooks { return &w.hooks }

// Frame returns the number of completed Tick calls.
func (w *World) Frame() int64 { return w.frame }

// IsAlive reports whether entity is currently alive.
func (w *World) IsAlive(entity Entity) bool { return w.entities.IsAlive(entity) }

// CreateEntity creates an entity immediately from blueprint and returns
// its handle. Restricted to outside the tick's system phase: calling this
// from within a system's Update panics in debug builds
// (Config.DebugValidate), since a system must route structural changes
// through its CommandBuffer instead.
func (w *World) CreateEntity(blueprint *EntityBlueprint) Entity {
	if w.config.DebugValidate && w.inTickPhase {
		panic("ecs: CreateEntity called from within a system's tick phase; use CommandBuffer.CreateEntity instead")
	}
	return w.entities.createImmediate(w.archetypes, blueprint)
}

// EnqueueCreateEntity defers an entity creation to the next structural
// phase.
func (w *World) EnqueueCreateEntity(blueprint *EntityBlueprint) {
	w.entities.EnqueueCreate(blueprint)
}

// EnqueueDestroyEntity defers entity's destruction to the next structural
// phase.
func (w *World) EnqueueDestroyEntity(entity Entity) {
	w.entities.EnqueueDestroy(entity)
}

// EnqueueAddComponent defers adding a component to entity.
func (w *World) EnqueueAddComponent(entity Entity, typ TypeId, value any) {
	w.components.EnqueueAdd(entity, typ, value)
}

// EnqueueRemoveComponent defers removing a component from entity.
func (w *World) EnqueueRemoveComponent(entity Entity, typ TypeId) {
	w.components.EnqueueRemove(entity, typ)
}

// RegisterSystem adds a system to the scheduler and returns its id.
func (w *World) RegisterSystem(cfg SystemConfig) SystemId {
	return w.scheduler.Register(cfg)
}

// UnregisterSystem removes a system, running its shutdown hook.
func (w *World) UnregisterSystem(id SystemId) {
	w.scheduler.Unregister(id)
}

// EnableSystem / DisableSystem toggle a system's participation in Tick.
func (w *World) EnableSystem(id SystemId)  { w.scheduler.Enable(id) }
func (w *World) DisableSystem(id SystemId) { w.scheduler.Disable(id) }

// RunManual runs a Manual-rate system immediately, outside Tick.
func (w *World) RunManual(id SystemId) {
	w.scheduler.RunManual(id)
}

// flushCommandBuffer drains one system's command buffer into the shared
// queues and runs its deferred functions, then releases it back to the
// pool. The scheduler calls this once per buffer, after the whole batch
// that buffer's system belonged to has finished running, serially from
// its own goroutine — never from inside a worker, and never while that
// batch's pool.RunBatch call is still in flight — so the shared queues
// are never appended to concurrently.
func (w *World) flushCommandBuffer(buf *CommandBuffer) {
	defers := buf.drainInto(w.entities, w.components)
	buf.Release()
	for _, fn := range defers {
		fn()
	}
}

// Tick advances the World by delta, running the fixed structural phase
// order: destroy, create, add, remove, (debug) validate invariants, then
// the due systems' conflict-free batches.
func (w *World) Tick(delta time.Duration) {
	w.hooks.runBeforeTick(w, int64(delta))

	destroyed := w.entities.drainDestroys()
	w.hooks.runEntityDestroyedBatch(w, destroyed)

	created := w.entities.drainCreates(w.archetypes)
	w.hooks.runEntityCreatedBatch(w, created)

	w.components.Drain()

	w.archetypes.invalidateQueryCacheIfStale()

	if w.config.DebugValidate {
		if err := w.ValidateInvariants(); err != nil {
			panic(err)
		}
	}

	w.inTickPhase = true
	w.scheduler.Tick(delta)
	w.inTickPhase = false

	w.frame++
	w.hooks.runAfterTick(w, int64(delta))
}

// Shutdown runs every registered system's OnShutdown hook and tears down
// the worker pool. The World must not be used afterward.
func (w *World) Shutdown() error {
	for _, rs := range w.scheduler.systems {
		if rs.cfg.OnShutdown != nil {
			rs.cfg.OnShutdown(w)
		}
	}
	return w.pool.Shutdown()
}
