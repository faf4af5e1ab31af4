package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidSlot = errors.New("invalid inventory slot")

// Inventory holds up to capacity pieces and refills itself from a factory
type Inventory struct {
	factory  *PieceFactory
	capacity int
	pieces   []*Piece

	// OnChanged runs after every refill, removal or clear
	OnChanged func(pieces []*Piece)
}

// NewInventory creates an inventory; capacity outside [1, MaxInventorySlots]
// falls back to DefaultInventorySlots. It starts empty until Refill.
func NewInventory(factory *PieceFactory, capacity int) *Inventory {
	if capacity < 1 || capacity > MaxInventorySlots {
		capacity = DefaultInventorySlots
	}
	return &Inventory{factory: factory, capacity: capacity}
}

func (inv *Inventory) Capacity() int { return inv.capacity }

// Count returns the number of pieces held
func (inv *Inventory) Count() int { return len(inv.pieces) }

// Pieces returns the held pieces in slot order
func (inv *Inventory) Pieces() []*Piece {
	return append([]*Piece(nil), inv.pieces...)
}

// Refill tops the inventory up to capacity. It stops early and returns
// ErrNoShapes when the factory pool is empty.
func (inv *Inventory) Refill() error {
	defer inv.notify()
	for len(inv.pieces) < inv.capacity {
		p, err := inv.factory.CreateRandomPiece()
		if err != nil {
			return fmt.Errorf("refill inventory: %w", err)
		}
		inv.pieces = append(inv.pieces, p)
	}
	return nil
}

// Get returns the piece in slot index
func (inv *Inventory) Get(index int) (*Piece, error) {
	if index < 0 || index >= len(inv.pieces) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, index)
	}
	return inv.pieces[index], nil
}

// Has reports whether piece is held
func (inv *Inventory) Has(piece *Piece) bool {
	for _, p := range inv.pieces {
		if p == piece {
			return true
		}
	}
	return false
}

// RemovePiece drops slot index, shifts later slots down and refills
func (inv *Inventory) RemovePiece(index int) error {
	if index < 0 || index >= len(inv.pieces) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, index)
	}
	inv.pieces = append(inv.pieces[:index], inv.pieces[index+1:]...)
	return inv.Refill()
}

// Clear empties the inventory without refilling
func (inv *Inventory) Clear() {
	inv.pieces = nil
	inv.notify()
}

// Restore replaces the held pieces, truncated to capacity
func (inv *Inventory) Restore(pieces []*Piece) {
	if len(pieces) > inv.capacity {
		pieces = pieces[:inv.capacity]
	}
	inv.pieces = append([]*Piece(nil), pieces...)
	inv.notify()
}

func (inv *Inventory) notify() {
	if inv.OnChanged != nil {
		inv.OnChanged(inv.Pieces())
	}
}
