package engine

import "math"

// Vec2 is a world-space point
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CellMapper converts between grid cells and world coordinates.
// Cell (0,0) spans [Origin, Origin+CellSize).
type CellMapper struct {
	Origin   Vec2    `json:"origin"`
	CellSize float64 `json:"cell_size"`
}

// NewCellMapper returns a mapper with unit cells when cellSize is not positive
func NewCellMapper(origin Vec2, cellSize float64) CellMapper {
	if cellSize <= 0 {
		cellSize = 1
	}
	return CellMapper{Origin: origin, CellSize: cellSize}
}

// GridToWorld returns the centre of cell p
func (m CellMapper) GridToWorld(p Position) Vec2 {
	return Vec2{
		X: m.Origin.X + (float64(p.X)+0.5)*m.CellSize,
		Y: m.Origin.Y + (float64(p.Y)+0.5)*m.CellSize,
	}
}

// WorldToGrid returns the cell containing v. The result may lie outside any board.
func (m CellMapper) WorldToGrid(v Vec2) Position {
	return Position{
		X: int(math.Floor((v.X - m.Origin.X) / m.CellSize)),
		Y: int(math.Floor((v.Y - m.Origin.Y) / m.CellSize)),
	}
}
