package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchetypeAddAndRemoveEntitySwapPop(t *testing.T) {
	registry := NewComponentRegistry()
	posID := ComponentID[Position](registry)
	sig := SignatureOf(posID)
	a := newArchetype(0, sig, registry, 4)

	e0 := NewEntity(0, 1)
	e1 := NewEntity(1, 1)
	e2 := NewEntity(2, 1)

	a.addEntity(e0, []ComponentValue{{Type: posID, Value: Position{X: 0}}})
	a.addEntity(e1, []ComponentValue{{Type: posID, Value: Position{X: 1}}})
	a.addEntity(e2, []ComponentValue{{Type: posID, Value: Position{X: 2}}})
	require.Equal(t, 3, a.Count())

	relocated, ok := a.removeEntity(0)
	require.True(t, ok)
	assert.Equal(t, e2, relocated, "the last row should be swapped into the removed slot")
	assert.Equal(t, 2, a.Count())
	assert.Equal(t, e2, a.EntityAt(0))
	assert.Equal(t, Position{X: 2}, Column[Position](a, posID)[0])

	_, ok = a.removeEntity(1)
	assert.False(t, ok, "removing the last row relocates nothing")
}

func TestArchetypeMoveRowToCopiesIntersectionAndAppendsAdditional(t *testing.T) {
	registry := NewComponentRegistry()
	posID := ComponentID[Position](registry)
	velID := ComponentID[Velocity](registry)

	src := newArchetype(0, SignatureOf(posID), registry, 4)
	dst := newArchetype(1, SignatureOf(posID, velID), registry, 4)

	e := NewEntity(0, 1)
	src.addEntity(e, []ComponentValue{{Type: posID, Value: Position{X: 5, Y: 6}}})

	dstSlot, _, relocatedOk := src.moveRowTo(0, dst, &ComponentValue{Type: velID, Value: Velocity{DX: 1, DY: 2}})

	assert.False(t, relocatedOk)
	assert.Equal(t, 0, src.Count())
	assert.Equal(t, 1, dst.Count())
	assert.Equal(t, Position{X: 5, Y: 6}, Column[Position](dst, posID)[dstSlot])
	assert.Equal(t, Velocity{DX: 1, DY: 2}, Column[Velocity](dst, velID)[dstSlot])
}
