package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentIDIsStableAndDenselyAssigned(t *testing.T) {
	registry := NewComponentRegistry()
	a1 := ComponentID[Position](registry)
	b1 := ComponentID[Velocity](registry)
	a2 := ComponentID[Position](registry)

	assert.Equal(t, a1, a2, "the same type must always mint the same id")
	assert.NotEqual(t, a1, b1)
	assert.Equal(t, 2, registry.TypeCount())
}

func TestRegisterDropFnInvokedOnSwapRemove(t *testing.T) {
	registry := NewComponentRegistry()
	posID := ComponentID[Position](registry)

	var dropped []Position
	RegisterDropFn[Position](registry, func(v Position) {
		dropped = append(dropped, v)
	})

	sig := SignatureOf(posID)
	a := newArchetype(0, sig, registry, 4)
	e := NewEntity(0, 1)
	a.addEntity(e, []ComponentValue{{Type: posID, Value: Position{X: 7}}})
	a.removeEntity(0)

	require.Len(t, dropped, 1)
	assert.Equal(t, Position{X: 7}, dropped[0])
}

// TestComponentIDPanicsPastSignatureCapacity fills the registry's type
// table to its fixed capacity directly (rather than minting
// MaxComponentTypes distinct generic instantiations just to exercise the
// overflow branch), then confirms registering one real type past that
// point panics with ErrSignatureOverflow.
func TestComponentIDPanicsPastSignatureCapacity(t *testing.T) {
	registry := NewComponentRegistry()
	for len(registry.meta) < MaxComponentTypes {
		registry.meta = append(registry.meta, componentMeta{})
	}

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		var overflow ErrSignatureOverflow
		assert.True(t, errors.As(err, &overflow))
	}()

	ComponentID[Position](registry)
}

func TestRegisterMoveFnInvokedOnArchetypeTransition(t *testing.T) {
	registry := NewComponentRegistry()
	posID := ComponentID[Position](registry)

	var moveCalls int
	RegisterMoveFn[Position](registry, func(dst, src Position) Position {
		moveCalls++
		return src
	})

	velID := ComponentID[Velocity](registry)
	archetypes := NewArchetypeManager(registry, 4)
	src := archetypes.GetOrCreate(SignatureOf(posID))
	dst := archetypes.GetOrCreate(SignatureOf(posID, velID))

	e := NewEntity(0, 1)
	src.addEntity(e, []ComponentValue{{Type: posID, Value: Position{X: 1}}})
	src.moveRowTo(0, dst, &ComponentValue{Type: velID, Value: Velocity{}})

	assert.Equal(t, 1, moveCalls)
}
