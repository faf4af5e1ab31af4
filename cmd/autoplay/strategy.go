package main

import (
	"github.com/wricardo/logicfill/game/engine"
)

// Move is one planned placement: set Slot to Rotation, then place it at (X, Y)
type Move struct {
	Slot     int
	Rotation int
	X, Y     int
	Score    int
}

// GreedyStrategy picks the placement that fills the most still-needed cells.
// Cells a placement would clear cost the same as cells it fills; filling a
// cell that is not needed costs a little so ties go to tidy placements.
type GreedyStrategy struct {
	wasteCost int
}

// NewGreedyStrategy creates a strategy with the default waste penalty
func NewGreedyStrategy() *GreedyStrategy {
	return &GreedyStrategy{wasteCost: 1}
}

const gainWeight = 10

// NextMove returns the best legal placement for state. ok is false when no
// piece can be placed anywhere, or the game is over.
func (g *GreedyStrategy) NextMove(state *engine.GameState) (Move, bool) {
	if state == nil || state.GameOver || state.Status == engine.StatusPaused {
		return Move{}, false
	}

	board, err := engine.RowsToMap(state.Board, state.Width, state.Height)
	if err != nil {
		return Move{}, false
	}
	target, err := engine.RowsToMap(state.Target, state.Width, state.Height)
	if err != nil {
		return Move{}, false
	}
	rule := engine.PlacementRule{RequireFullyInside: state.RequireInside, FillAllTiles: state.FillAllTiles}

	var best Move
	found := false
	for _, piece := range state.Inventory {
		base, err := engine.ShapeFromRows(piece.ShapeName, piece.BaseRows)
		if err != nil {
			continue
		}
		shape := base
		for rot := 0; rot < 4; rot++ {
			if rot > 0 {
				shape = shape.RotateClockwise()
			}
			cells := shape.OccupiedCells()
			for ox := -shape.Width() + 1; ox < state.Width; ox++ {
				for oy := -shape.Height() + 1; oy < state.Height; oy++ {
					pos := engine.Position{X: ox, Y: oy}
					if !rule.CanPlace(cells, pos, state.Width, state.Height) {
						continue
					}
					score := g.score(cells, pos, piece.Operation, board, target, state.FillAllTiles)
					if !found || score > best.Score {
						best = Move{Slot: piece.Slot, Rotation: rot, X: ox, Y: oy, Score: score}
						found = true
					}
				}
			}
		}
	}
	return best, found
}

func (g *GreedyStrategy) score(cells []engine.Position, pos engine.Position, op engine.Operation, board, target [][]bool, fillAll bool) int {
	width, height := len(board), 0
	if width > 0 {
		height = len(board[0])
	}

	score := 0
	for _, c := range cells {
		c = c.Add(pos)
		if c.X < 0 || c.X >= width || c.Y < 0 || c.Y >= height {
			continue
		}
		before := board[c.X][c.Y]
		after := engine.ApplyOperation(before, op)
		if before == after {
			continue
		}
		needed := fillAll || target[c.X][c.Y]
		switch {
		case after && needed:
			score += gainWeight
		case !after && needed:
			score -= gainWeight
		case after:
			score -= g.wasteCost
		}
	}
	return score
}
