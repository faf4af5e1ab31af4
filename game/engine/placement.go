package engine

// PlacementRule holds the per-level placement and win policy
type PlacementRule struct {
	// RequireFullyInside rejects any placement with a cell off the board.
	// When false a placement needs at least one cell on the board.
	RequireFullyInside bool `json:"require_fully_inside"`

	// FillAllTiles wins on a full board instead of full target cells
	FillAllTiles bool `json:"fill_all_tiles"`
}

// DefaultPlacementRule is strict placement with a fill-all win
func DefaultPlacementRule() PlacementRule {
	return PlacementRule{RequireFullyInside: true, FillAllTiles: true}
}

// CanPlace checks cell geometry against board extents only
func (r PlacementRule) CanPlace(cells []Position, position Position, boardWidth, boardHeight int) bool {
	inside := func(c Position) bool {
		c = c.Add(position)
		return c.X >= 0 && c.X < boardWidth && c.Y >= 0 && c.Y < boardHeight
	}

	if r.RequireFullyInside {
		for _, c := range cells {
			if !inside(c) {
				return false
			}
		}
		return true
	}

	for _, c := range cells {
		if inside(c) {
			return true
		}
	}
	return false
}

// ApplyOperation computes a cell's new value under op.
// OR always fills, NOT flips, AND keeps the current value.
func ApplyOperation(current bool, op Operation) bool {
	switch op {
	case OpOR:
		return true
	case OpAND:
		return current
	case OpNOT:
		return !current
	default:
		return current
	}
}
