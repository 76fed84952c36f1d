package ecs

import (
	"time"

	"github.com/TheBitDrifter/bark"
	"github.com/plus3/ecscore/ecs/workerpool"
)

// Scheduler is the combined System Manager and Tick Scheduler: it owns
// every registered system, decides which are due on a given tick, groups
// the due set into conflict-free parallel batches, and dispatches each
// batch to the worker pool.
type Scheduler struct {
	world     *World
	pool      *workerpool.Pool
	systems   []*registeredSystem
	byName    map[string]SystemId
	nextID    SystemId
	worldTime time.Duration

	// due, batchPool, fns and cmdBufs are scratch state reused across every
	// Tick so steady-state ticks grow no new backing arrays once warmed up.
	due       []*registeredSystem
	batchPool [][]*registeredSystem
	batches   [][]*registeredSystem
	fns       []func()
	cmdBufs   []*CommandBuffer
}

func newScheduler(world *World, pool *workerpool.Pool) *Scheduler {
	return &Scheduler{
		world:  world,
		pool:   pool,
		byName: make(map[string]SystemId),
	}
}

// Register adds a system, building its conflict masks from cfg.Read and
// cfg.Write. Panics with ErrSystemAlreadyRegistered if cfg.Name was already
// registered (names double as a stable identity across save/reload).
func (s *Scheduler) Register(cfg SystemConfig) SystemId {
	if _, exists := s.byName[cfg.Name]; exists {
		panic(bark.AddTrace(ErrSystemAlreadyRegistered{ID: s.byName[cfg.Name]}))
	}
	id := s.nextID
	s.nextID++

	rs := &registeredSystem{
		id:        id,
		cfg:       cfg,
		readMask:  SignatureOf(cfg.Read...),
		writeMask: SignatureOf(cfg.Write...),
		enabled:   true,
		lastRun:   s.worldTime,
	}
	s.systems = append(s.systems, rs)
	s.byName[cfg.Name] = id

	if cfg.OnInitialize != nil {
		cfg.OnInitialize(s.world)
	}
	return id
}

// Enable/Disable toggle whether a system participates in Tick's due-set
// computation. A disabled system never runs, including via RunManual.
func (s *Scheduler) Enable(id SystemId)  { s.setEnabled(id, true) }
func (s *Scheduler) Disable(id SystemId) { s.setEnabled(id, false) }

func (s *Scheduler) setEnabled(id SystemId, enabled bool) {
	for _, rs := range s.systems {
		if rs.id == id {
			rs.enabled = enabled
			return
		}
	}
}

// Unregister removes a system entirely, running its OnShutdown hook first.
func (s *Scheduler) Unregister(id SystemId) {
	for i, rs := range s.systems {
		if rs.id != id {
			continue
		}
		if rs.cfg.OnShutdown != nil {
			rs.cfg.OnShutdown(s.world)
		}
		delete(s.byName, rs.cfg.Name)
		s.systems = append(s.systems[:i], s.systems[i+1:]...)
		return
	}
}

// conflicts reports whether a and b cannot run in the same parallel
// batch: one's write set intersects the other's read or write set —
// (write ∩ read) ∪ (write ∩ write) ∪ (read ∩ write).
func conflicts(a, b *registeredSystem) bool {
	if a.writeMask.Intersects(b.readMask) {
		return true
	}
	if a.writeMask.Intersects(b.writeMask) {
		return true
	}
	if a.readMask.Intersects(b.writeMask) {
		return true
	}
	return false
}

// Tick advances every enabled system whose tick rate is due this frame,
// given the frame's wall-clock delta. EveryFrame systems always run with
// delta itself; fixed-rate systems accumulate delta into a per-system
// bucket and run (at most once per Tick) whenever the bucket reaches
// Period(). Manual systems never run here.
//
// EveryFrame is special-cased to bypass the accumulate-and-subtract-period
// model entirely: Period() is zero for EveryFrame, and subtracting zero
// from an ever-growing accumulator every tick would never reset it,
// corrupting the "effective delta" the rule is meant to produce for timed
// systems. Running EveryFrame systems directly off the tick's own delta
// is both simpler and the intended behavior.
func (s *Scheduler) Tick(delta time.Duration) {
	s.worldTime += delta

	s.due = s.due[:0]
	for _, rs := range s.systems {
		if !rs.enabled || rs.cfg.Rate == Manual {
			continue
		}
		if rs.cfg.Rate == EveryFrame {
			s.due = append(s.due, rs)
			continue
		}
		rs.accumulator += delta
		period := rs.cfg.Rate.Period()
		if rs.accumulator >= period {
			s.due = append(s.due, rs)
		}
	}

	s.runDue(s.due, delta)
}

// RunManual runs a single Manual-rate system immediately, outside the
// batch machinery, with the delta computed since that system's own last
// run (or world start, if it has never run). Manual systems participate
// in no conflict analysis: the caller is responsible for not invoking one
// concurrently with a Tick batch.
func (s *Scheduler) RunManual(id SystemId) {
	for _, rs := range s.systems {
		if rs.id != id || !rs.enabled {
			continue
		}
		effective := s.worldTime - rs.lastRun
		buf := s.runOne(rs, effective)
		rs.lastRun = s.worldTime
		if buf != nil {
			s.world.flushCommandBuffer(buf)
		}
		return
	}
}

// runDue dispatches due systems batch by batch. Every batch member runs
// concurrently on the worker pool, each against its own command buffer;
// s.pool.RunBatch is a hard barrier, so by the time it returns every
// fns[i] has completed and written its buffer into s.cmdBufs with a
// happens-before edge back to this goroutine. Only then, serially and
// from this goroutine alone, are the batch's buffers flushed into the
// shared entity/component queues — never from inside a worker, and never
// between two systems of the same batch.
func (s *Scheduler) runDue(due []*registeredSystem, frameDelta time.Duration) {
	if len(due) == 0 {
		return
	}

	batches := s.buildBatches(due)
	for _, batch := range batches {
		if cap(s.fns) < len(batch) {
			s.fns = make([]func(), len(batch))
			s.cmdBufs = make([]*CommandBuffer, len(batch))
		} else {
			s.fns = s.fns[:len(batch)]
			s.cmdBufs = s.cmdBufs[:len(batch)]
		}

		for i, rs := range batch {
			i, rs := i, rs
			effective := frameDelta
			if rs.cfg.Rate != EveryFrame {
				effective = rs.accumulator
				rs.accumulator -= rs.cfg.Rate.Period()
			}
			s.fns[i] = func() { s.cmdBufs[i] = s.runOne(rs, effective) }
		}

		s.pool.RunBatch(s.fns)

		for i, rs := range batch {
			rs.lastRun = s.worldTime
			if buf := s.cmdBufs[i]; buf != nil {
				s.world.flushCommandBuffer(buf)
				s.cmdBufs[i] = nil
			}
		}
	}
}

// buildBatches greedily groups due systems into conflict-free batches in
// registration order, assigning each system to the earliest batch it does
// not conflict with. The outer batch list and each batch's member slice
// are drawn from s.batchPool, a set of slices reused across ticks; both
// grow only the first time a tick needs a batch count or batch size
// larger than any previous tick produced.
func (s *Scheduler) buildBatches(due []*registeredSystem) [][]*registeredSystem {
	batches := s.batches[:0]
	for _, rs := range due {
		placed := false
		for bi := range batches {
			conflict := false
			for _, other := range batches[bi] {
				if conflicts(rs, other) {
					conflict = true
					break
				}
			}
			if !conflict {
				batches[bi] = append(batches[bi], rs)
				s.batchPool[bi] = batches[bi]
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		idx := len(batches)
		if idx < len(s.batchPool) {
			s.batchPool[idx] = append(s.batchPool[idx][:0], rs)
		} else {
			s.batchPool = append(s.batchPool, []*registeredSystem{rs})
		}
		batches = append(batches, s.batchPool[idx])
	}
	s.batches = batches
	return batches
}

// runOne invokes a single system's Update with a freshly acquired command
// buffer, recovering any panic as a non-fatal system failure: the frame
// continues, the failure is logged and counted, and the failing system's
// partially-built commands are discarded rather than flushed. It returns
// the acquired buffer for the caller to flush once the whole batch has
// finished running, or nil if the system panicked. runOne never flushes
// a buffer itself: flushing appends to queues shared across the whole
// batch, and runOne can be executing concurrently with the rest of the
// batch's systems.
func (s *Scheduler) runOne(rs *registeredSystem, delta time.Duration) *CommandBuffer {
	buf := AcquireCommandBuffer()
	ctx := &SystemContext{DeltaTime: delta, Commands: buf, World: s.world}

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.world.diagnostics.systemFailures.incr(rs.id)
				s.world.logger.Error("system panicked",
					"system", rs.cfg.Name,
					"panic", r,
				)
				buf.Release()
				buf = nil
			}
		}()
		rs.cfg.Update(ctx)
	}()

	return buf
}
