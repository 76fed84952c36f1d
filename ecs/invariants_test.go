package ecs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/plus3/ecscore/ecs"
)

func TestValidateInvariantsPassesAfterOrdinaryTraffic(t *testing.T) {
	w, _ := newTestWorld(t)
	posID := ecs.ComponentID[Position](w.Registry())

	for i := 0; i < 10; i++ {
		w.EnqueueCreateEntity(ecs.NewEntityBlueprint().With(posID, Position{X: float32(i)}))
	}
	w.Tick(time.Millisecond)

	var toDestroy []ecs.Entity
	for _, a := range w.Query(posID).Archetypes() {
		toDestroy = append(toDestroy, a.Entities()...)
	}
	for i, e := range toDestroy {
		if i%2 == 0 {
			w.EnqueueDestroyEntity(e)
		}
	}
	w.Tick(time.Millisecond)

	assert.NoError(t, w.ValidateInvariants())
}

func TestSystemPanicIsRecoveredAndCounted(t *testing.T) {
	w, _ := newTestWorld(t)
	id := w.RegisterSystem(ecs.SystemConfig{
		Name: "flaky",
		Rate: ecs.EveryFrame,
		Update: func(ctx *ecs.SystemContext) {
			panic("deliberate failure")
		},
	})

	assert.NotPanics(t, func() {
		w.Tick(time.Millisecond)
	})
	assert.Equal(t, int64(1), w.Diagnostics().SystemFailures(id))
}

func TestPanickingSystemCommandsAreDiscardedNotFlushed(t *testing.T) {
	w, _ := newTestWorld(t)
	posID := ecs.ComponentID[Position](w.Registry())

	w.RegisterSystem(ecs.SystemConfig{
		Name: "half-built",
		Rate: ecs.EveryFrame,
		Update: func(ctx *ecs.SystemContext) {
			ctx.Commands.CreateEntity(ecs.NewEntityBlueprint().With(posID, Position{X: 1}))
			panic("failure after queuing a create")
		},
	})

	w.Tick(time.Millisecond)

	total := 0
	for _, a := range w.Query(posID).Archetypes() {
		total += a.Count()
	}
	assert.Equal(t, 0, total, "a failed system's queued commands must never be applied")
}
