package engine

import "log"

// BoardStatus is the board controller's lifecycle phase
type BoardStatus string

const (
	BoardEmpty    BoardStatus = "empty"
	BoardReady    BoardStatus = "ready"
	BoardComplete BoardStatus = "complete"
)

// Board owns a grid and applies piece placements to it
type Board struct {
	grid   *Grid
	rule   PlacementRule
	status BoardStatus
}

// NewBoard wraps grid with the given rule. The board starts Empty and
// accepts placements only after Initialize.
func NewBoard(grid *Grid, rule PlacementRule) *Board {
	return &Board{grid: grid, rule: rule, status: BoardEmpty}
}

func (b *Board) Grid() *Grid             { return b.grid }
func (b *Board) Rule() PlacementRule     { return b.rule }
func (b *Board) Status() BoardStatus     { return b.status }
func (b *Board) SetRule(r PlacementRule) { b.rule = r }

// Initialize clears occupancy, keeps the target map and moves to Ready.
// This is the only way out of Complete.
func (b *Board) Initialize() {
	b.grid.Initialize(false)
	b.status = BoardReady
	b.updateCompletion()
}

// SetTargetMap replaces the grid's target map
func (b *Board) SetTargetMap(m [][]bool) error {
	return b.grid.SetTargetMap(m)
}

// CanPlacePiece reports whether PlacePiece would accept piece at position:
// the board must be Ready (not Empty or Complete) and the geometry must
// satisfy the placement rule.
func (b *Board) CanPlacePiece(piece *Piece, position Position) bool {
	if piece == nil || b.status != BoardReady {
		return false
	}
	return b.rule.CanPlace(piece.OccupiedCells(), position, b.grid.Width(), b.grid.Height())
}

// Preview lists the writes a placement would perform without applying them.
// ok is false when the placement would be rejected.
func (b *Board) Preview(piece *Piece, position Position) (changes []CellChange, ok bool) {
	if !b.CanPlacePiece(piece, position) {
		return nil, false
	}
	for _, c := range piece.OccupiedCellsAt(position) {
		if !b.grid.InBounds(c.X, c.Y) {
			continue
		}
		before := b.grid.GetCell(c.X, c.Y)
		changes = append(changes, CellChange{
			X:      c.X,
			Y:      c.Y,
			Before: before,
			After:  ApplyOperation(before, piece.Operation()),
			Target: b.grid.IsTargetCell(c.X, c.Y),
		})
	}
	return changes, true
}

// PlacePiece applies piece at position. It returns false and leaves the
// grid untouched when the placement is rejected. Covered cells outside the
// grid are skipped.
func (b *Board) PlacePiece(piece *Piece, position Position) bool {
	_, ok := b.PlacePieceWithChanges(piece, position)
	return ok
}

// PlacePieceWithChanges is PlacePiece that also reports each cell write
func (b *Board) PlacePieceWithChanges(piece *Piece, position Position) ([]CellChange, bool) {
	changes, ok := b.Preview(piece, position)
	if !ok {
		if b.status != BoardReady {
			log.Printf("[Board] placement refused in state %s", b.status)
		}
		return nil, false
	}
	for _, ch := range changes {
		b.grid.SetCell(ch.X, ch.Y, ch.After)
	}
	b.updateCompletion()
	return changes, true
}

// IsComplete evaluates the win condition for the current rule
func (b *Board) IsComplete() bool {
	for x := 0; x < b.grid.Width(); x++ {
		for y := 0; y < b.grid.Height(); y++ {
			if b.rule.FillAllTiles {
				if !b.grid.GetCell(x, y) {
					return false
				}
			} else if b.grid.IsTargetCell(x, y) && !b.grid.GetCell(x, y) {
				return false
			}
		}
	}
	return true
}

func (b *Board) updateCompletion() {
	if b.status == BoardReady && b.IsComplete() {
		b.status = BoardComplete
	}
}

// Restore loads occupancy rows and re-derives the board status
func (b *Board) Restore(rows []string) error {
	if err := b.grid.LoadRows(rows); err != nil {
		return err
	}
	b.status = BoardReady
	b.updateCompletion()
	return nil
}
