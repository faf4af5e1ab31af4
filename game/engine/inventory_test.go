package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryEmptyPool(t *testing.T) {
	f := NewPieceFactoryWithSeed(nil, 1)
	_, err := f.CreateRandomPiece()
	assert.True(t, errors.Is(err, ErrNoShapes))
}

func TestFactoryDrawsFromPool(t *testing.T) {
	a := mustShape(t, "a", "#")
	b := mustShape(t, "b", "##")
	f := NewPieceFactoryWithSeed([]*Shape{a, b}, 42)

	seenShapes := map[string]bool{}
	seenOps := map[Operation]bool{}
	for i := 0; i < 200; i++ {
		p, err := f.CreateRandomPiece()
		require.NoError(t, err)
		assert.Equal(t, 0, p.Rotation())
		seenShapes[p.Shape().Name()] = true
		seenOps[p.Operation()] = true
	}
	assert.Len(t, seenShapes, 2)
	assert.Len(t, seenOps, 3)
}

func TestFactorySeedIsReproducible(t *testing.T) {
	shapes := DefaultShapes()
	f1 := NewPieceFactoryWithSeed(shapes, 7)
	f2 := NewPieceFactoryWithSeed(shapes, 7)
	for i := 0; i < 20; i++ {
		p1, _ := f1.CreateRandomPiece()
		p2, _ := f2.CreateRandomPiece()
		assert.Equal(t, p1.Shape().Name(), p2.Shape().Name())
		assert.Equal(t, p1.Operation(), p2.Operation())
	}
}

func TestFactoryAddRemoveShape(t *testing.T) {
	f := NewPieceFactoryWithSeed(nil, 1)
	assert.True(t, f.AddShape(mustShape(t, "dot", "#")))
	assert.False(t, f.AddShape(mustShape(t, "DOT", "##")))
	assert.Len(t, f.Shapes(), 1)

	p := f.CreatePieceWithType(f.FindShape("dot"), OpNOT)
	assert.Equal(t, OpNOT, p.Operation())

	assert.True(t, f.RemoveShape("dot"))
	assert.False(t, f.RemoveShape("dot"))
	assert.Nil(t, f.FindShape("dot"))
}

func TestFactorySetOperations(t *testing.T) {
	f := NewPieceFactoryWithSeed([]*Shape{mustShape(t, "dot", "#")}, 3)
	f.SetOperations([]Operation{OpOR})
	for i := 0; i < 10; i++ {
		p, err := f.CreateRandomPiece()
		require.NoError(t, err)
		assert.Equal(t, OpOR, p.Operation())
	}
}

func TestInventoryRefillAndRemove(t *testing.T) {
	f := NewPieceFactoryWithSeed(DefaultShapes(), 11)
	inv := NewInventory(f, 3)
	require.NoError(t, inv.Refill())
	assert.Equal(t, 3, inv.Count())

	before := inv.Pieces()
	require.NoError(t, inv.RemovePiece(0))
	after := inv.Pieces()

	require.Len(t, after, 3)
	assert.Same(t, before[1], after[0])
	assert.Same(t, before[2], after[1])
	assert.False(t, inv.Has(before[0]))
}

func TestInventoryInvariant(t *testing.T) {
	inv := NewInventory(NewPieceFactoryWithSeed(DefaultShapes(), 5), 3)
	require.NoError(t, inv.Refill())
	for i := 0; i < 50; i++ {
		require.NoError(t, inv.RemovePiece(i%3))
		assert.Equal(t, 3, inv.Count())
	}
}

func TestInventoryInvalidSlot(t *testing.T) {
	inv := NewInventory(NewPieceFactoryWithSeed(DefaultShapes(), 5), 3)
	require.NoError(t, inv.Refill())

	for _, idx := range []int{-1, 3, 10} {
		err := inv.RemovePiece(idx)
		assert.True(t, errors.Is(err, ErrInvalidSlot), "index %d", idx)
		_, err = inv.Get(idx)
		assert.True(t, errors.Is(err, ErrInvalidSlot), "index %d", idx)
	}
	assert.Equal(t, 3, inv.Count())
}

func TestInventoryCapacityDefault(t *testing.T) {
	f := NewPieceFactoryWithSeed(DefaultShapes(), 1)
	assert.Equal(t, DefaultInventorySlots, NewInventory(f, 0).Capacity())
	assert.Equal(t, DefaultInventorySlots, NewInventory(f, MaxInventorySlots+1).Capacity())
	assert.Equal(t, 5, NewInventory(f, 5).Capacity())
}

func TestInventoryEmptyPool(t *testing.T) {
	inv := NewInventory(NewPieceFactoryWithSeed(nil, 1), 3)
	err := inv.Refill()
	assert.True(t, errors.Is(err, ErrNoShapes))
	assert.Equal(t, 0, inv.Count())
}

func TestInventoryOnChanged(t *testing.T) {
	inv := NewInventory(NewPieceFactoryWithSeed(DefaultShapes(), 2), 2)
	calls := 0
	inv.OnChanged = func(pieces []*Piece) { calls++ }

	require.NoError(t, inv.Refill())
	require.NoError(t, inv.RemovePiece(1))
	inv.Clear()

	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, inv.Count())
}
