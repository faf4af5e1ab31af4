package engine

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

var ErrTargetSizeMismatch = errors.New("target map size mismatch")

// Grid is a fixed-size occupancy map with a parallel target map.
// Both maps are indexed [x][y].
type Grid struct {
	width     int
	height    int
	occupancy [][]bool
	target    [][]bool
}

// NewGrid creates an empty grid with no target cells
func NewGrid(width, height int) *Grid {
	g := &Grid{width: width, height: height}
	g.occupancy = newBoolMap(width, height)
	g.target = newBoolMap(width, height)
	return g
}

func newBoolMap(width, height int) [][]bool {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	m := make([][]bool, width)
	for x := range m {
		m[x] = make([]bool, height)
	}
	return m
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// InBounds reports whether (x,y) addresses a cell of the grid
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Initialize clears occupancy and optionally the target map
func (g *Grid) Initialize(clearTarget bool) {
	g.occupancy = newBoolMap(g.width, g.height)
	if clearTarget {
		g.target = newBoolMap(g.width, g.height)
	}
}

// SetCell writes occupancy; out-of-range writes are ignored
func (g *Grid) SetCell(x, y int, value bool) {
	if !g.InBounds(x, y) {
		return
	}
	g.occupancy[x][y] = value
}

// GetCell reads occupancy; out-of-range reads return false
func (g *Grid) GetCell(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return g.occupancy[x][y]
}

// IsTargetCell reports whether (x,y) must be filled in target mode
func (g *Grid) IsTargetCell(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return g.target[x][y]
}

// SetTargetMap replaces the target map. A map whose dimensions differ from
// the grid is rejected and the previous target is kept.
func (g *Grid) SetTargetMap(m [][]bool) error {
	if len(m) != g.width {
		log.Printf("[Grid] target map size mismatch: got width %d, want %d", len(m), g.width)
		return fmt.Errorf("%w: width %d, want %d", ErrTargetSizeMismatch, len(m), g.width)
	}
	for x := range m {
		if len(m[x]) != g.height {
			log.Printf("[Grid] target map size mismatch: column %d has height %d, want %d", x, len(m[x]), g.height)
			return fmt.Errorf("%w: column %d height %d, want %d", ErrTargetSizeMismatch, x, len(m[x]), g.height)
		}
	}

	target := newBoolMap(g.width, g.height)
	for x := range m {
		copy(target[x], m[x])
	}
	g.target = target
	return nil
}

// TargetMap returns a copy of the target map
func (g *Grid) TargetMap() [][]bool {
	return cloneBoolMap(g.target)
}

// Occupancy returns a copy of the occupancy map
func (g *Grid) Occupancy() [][]bool {
	return cloneBoolMap(g.occupancy)
}

func cloneBoolMap(m [][]bool) [][]bool {
	out := make([][]bool, len(m))
	for x := range m {
		out[x] = append([]bool(nil), m[x]...)
	}
	return out
}

// FilledCount counts occupied cells
func (g *Grid) FilledCount() int {
	return g.count(func(x, y int) bool { return g.occupancy[x][y] })
}

// TargetCount counts target cells
func (g *Grid) TargetCount() int {
	return g.count(func(x, y int) bool { return g.target[x][y] })
}

// FilledTargetCount counts target cells that are occupied
func (g *Grid) FilledTargetCount() int {
	return g.count(func(x, y int) bool { return g.target[x][y] && g.occupancy[x][y] })
}

func (g *Grid) count(pred func(x, y int) bool) int {
	n := 0
	for x := 0; x < g.width; x++ {
		for y := 0; y < g.height; y++ {
			if pred(x, y) {
				n++
			}
		}
	}
	return n
}

// Rows renders occupancy as one string per y, '#' for filled
func (g *Grid) Rows() []string {
	return mapToRows(g.occupancy, g.width, g.height)
}

// TargetRows renders the target map as one string per y
func (g *Grid) TargetRows() []string {
	return mapToRows(g.target, g.width, g.height)
}

// LoadRows restores occupancy from rows produced by Rows
func (g *Grid) LoadRows(rows []string) error {
	m, err := RowsToMap(rows, g.width, g.height)
	if err != nil {
		return err
	}
	g.occupancy = m
	return nil
}

func mapToRows(m [][]bool, width, height int) []string {
	rows := make([]string, height)
	for y := 0; y < height; y++ {
		var sb strings.Builder
		sb.Grow(width)
		for x := 0; x < width; x++ {
			if m[x][y] {
				sb.WriteByte(FilledChar)
			} else {
				sb.WriteByte(EmptyChar)
			}
		}
		rows[y] = sb.String()
	}
	return rows
}

// RowsToMap parses height rows of width characters into an [x][y] map.
// '#', 'X', 'x' and '1' mark a set cell; '.', '0', ' ' and '-' a clear one.
func RowsToMap(rows []string, width, height int) ([][]bool, error) {
	if len(rows) != height {
		return nil, fmt.Errorf("expected %d rows, got %d", height, len(rows))
	}
	m := newBoolMap(width, height)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d must have %d characters, got %d", y+1, width, len(row))
		}
		for x := 0; x < len(row); x++ {
			set, ok := parseCellChar(row[x])
			if !ok {
				return nil, fmt.Errorf("invalid character '%c' at row %d, col %d", row[x], y+1, x+1)
			}
			m[x][y] = set
		}
	}
	return m, nil
}

func parseCellChar(c byte) (set bool, ok bool) {
	switch c {
	case '#', 'X', 'x', '1':
		return true, true
	case '.', '0', ' ', '-':
		return false, true
	}
	return false, false
}
