package engine

import (
	"fmt"
	"strings"
)

// Shape is a named occupancy pattern in local coordinates with origin (0,0).
// Cells are stored row-major (y*width+x); len(cells) == width*height always.
type Shape struct {
	name   string
	width  int
	height int
	cells  []bool
}

// NewShape creates an empty shape of the given size
func NewShape(name string, width, height int) *Shape {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Shape{
		name:   name,
		width:  width,
		height: height,
		cells:  make([]bool, width*height),
	}
}

// ShapeFromRows builds a shape from text rows, one row per y.
// Every row must have the same length.
func ShapeFromRows(name string, rows []string) (*Shape, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("shape %q: no rows", name)
	}
	width := len(rows[0])
	m, err := RowsToMap(rows, width, len(rows))
	if err != nil {
		return nil, fmt.Errorf("shape %q: %w", name, err)
	}
	return shapeFromMap(name, m), nil
}

// shapeFromMap builds a shape from an [x][y] map
func shapeFromMap(name string, m [][]bool) *Shape {
	width := len(m)
	height := 0
	if width > 0 {
		height = len(m[0])
	}
	s := NewShape(name, width, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			s.cells[y*width+x] = m[x][y]
		}
	}
	return s
}

func (s *Shape) Name() string { return s.name }
func (s *Shape) Width() int   { return s.width }
func (s *Shape) Height() int  { return s.height }

// GetCell returns false outside the shape
func (s *Shape) GetCell(x, y int) bool {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return false
	}
	return s.cells[y*s.width+x]
}

// SetCell is a no-op outside the shape
func (s *Shape) SetCell(x, y int, value bool) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	s.cells[y*s.width+x] = value
}

// OccupiedCells lists occupied cells with x as the outer loop and y as the
// inner loop. Callers rely on this order.
func (s *Shape) OccupiedCells() []Position {
	cells := make([]Position, 0, len(s.cells))
	for x := 0; x < s.width; x++ {
		for y := 0; y < s.height; y++ {
			if s.cells[y*s.width+x] {
				cells = append(cells, Position{X: x, Y: y})
			}
		}
	}
	return cells
}

// CellCount counts occupied cells
func (s *Shape) CellCount() int {
	n := 0
	for _, c := range s.cells {
		if c {
			n++
		}
	}
	return n
}

// RotateClockwise returns a new shape turned 90 degrees clockwise.
// Dimensions swap and (x,y) maps to (height-1-y, x).
func (s *Shape) RotateClockwise() *Shape {
	rotated := NewShape(s.name, s.height, s.width)
	for x := 0; x < s.width; x++ {
		for y := 0; y < s.height; y++ {
			rx, ry := s.height-1-y, x
			rotated.cells[ry*rotated.width+rx] = s.cells[y*s.width+x]
		}
	}
	return rotated
}

// Resize keeps the overlapping top-left region and clears new cells
func (s *Shape) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([]bool, width*height)
	for x := 0; x < min(s.width, width); x++ {
		for y := 0; y < min(s.height, height); y++ {
			cells[y*width+x] = s.cells[y*s.width+x]
		}
	}
	s.width, s.height, s.cells = width, height, cells
}

// Clear empties every cell
func (s *Shape) Clear() {
	for i := range s.cells {
		s.cells[i] = false
	}
}

// Fill occupies every cell
func (s *Shape) Fill() {
	for i := range s.cells {
		s.cells[i] = true
	}
}

// Clone returns a deep copy
func (s *Shape) Clone() *Shape {
	return &Shape{
		name:   s.name,
		width:  s.width,
		height: s.height,
		cells:  append([]bool(nil), s.cells...),
	}
}

// Equal compares dimensions and cells; names are ignored
func (s *Shape) Equal(other *Shape) bool {
	if other == nil || s.width != other.width || s.height != other.height {
		return false
	}
	for i := range s.cells {
		if s.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Rows renders the shape as one string per y
func (s *Shape) Rows() []string {
	rows := make([]string, s.height)
	for y := 0; y < s.height; y++ {
		var sb strings.Builder
		for x := 0; x < s.width; x++ {
			if s.cells[y*s.width+x] {
				sb.WriteByte(FilledChar)
			} else {
				sb.WriteByte(EmptyChar)
			}
		}
		rows[y] = sb.String()
	}
	return rows
}
