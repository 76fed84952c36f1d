package ecs

import (
	"sync"
	"sync/atomic"
)

// Diagnostics holds the rolling counters for non-fatal conditions:
// stale-entity operations are silently skipped, not surfaced as errors,
// but are counted in a diagnostic metric so host tooling can observe
// them. Every counter is a plain atomic so systems running concurrently
// within a batch can increment them without a lock.
type Diagnostics struct {
	staleDestroySkipped     atomic.Int64
	staleComponentAddSkip   atomic.Int64
	staleComponentRemSkip   atomic.Int64
	invalidComponentTypeSkp atomic.Int64
	systemFailures          systemFailureCounters
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{
		systemFailures: newSystemFailureCounters(),
	}
}

// StaleDestroySkipped is the count of destroy operations that targeted an
// already-dead (stale generation) entity.
func (d *Diagnostics) StaleDestroySkipped() int64 { return d.staleDestroySkipped.Load() }

// StaleComponentAddSkipped is the count of add-component operations
// skipped because the target entity was no longer alive.
func (d *Diagnostics) StaleComponentAddSkipped() int64 { return d.staleComponentAddSkip.Load() }

// StaleComponentRemoveSkipped is the count of remove-component operations
// skipped because the target entity was no longer alive.
func (d *Diagnostics) StaleComponentRemoveSkipped() int64 { return d.staleComponentRemSkip.Load() }

// InvalidComponentTypeSkipped is the count of operations that referenced a
// TypeId outside the registered range.
func (d *Diagnostics) InvalidComponentTypeSkipped() int64 {
	return d.invalidComponentTypeSkp.Load()
}

// SystemFailures returns the number of times system id's Update has
// panicked, logged at the worker boundary and otherwise swallowed so the
// frame can continue.
func (d *Diagnostics) SystemFailures(id SystemId) int64 {
	return d.systemFailures.get(id)
}

// systemFailureCounters is a small map of SystemId -> failure
// count. SystemIds are dense and small in practice (one per registered
// system), so a mutex-guarded map is simpler and plenty fast; failures are
// rare by construction (panics), so this is not a hot path.
type systemFailureCounters struct {
	mu     sync.Mutex
	counts map[SystemId]*atomic.Int64
}

func newSystemFailureCounters() systemFailureCounters {
	return systemFailureCounters{counts: make(map[SystemId]*atomic.Int64)}
}

func (c *systemFailureCounters) incr(id SystemId) {
	c.mu.Lock()
	counter, ok := c.counts[id]
	if !ok {
		counter = &atomic.Int64{}
		c.counts[id] = counter
	}
	c.mu.Unlock()
	counter.Add(1)
}

func (c *systemFailureCounters) get(id SystemId) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	counter, ok := c.counts[id]
	if !ok {
		return 0
	}
	return counter.Load()
}
