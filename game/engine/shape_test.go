package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustShape(t *testing.T, name string, rows ...string) *Shape {
	t.Helper()
	s, err := ShapeFromRows(name, rows)
	require.NoError(t, err)
	return s
}

func TestShapeCellsLength(t *testing.T) {
	s := NewShape("box", 3, 2)
	assert.Len(t, s.cells, 6)

	s.Resize(4, 5)
	assert.Len(t, s.cells, 20)

	r := s.RotateClockwise()
	assert.Len(t, r.cells, 20)
	assert.Equal(t, 5, r.Width())
	assert.Equal(t, 4, r.Height())
}

func TestShapeOutOfRange(t *testing.T) {
	s := NewShape("x", 2, 2)
	s.SetCell(2, 0, true)
	s.SetCell(0, -1, true)
	assert.Equal(t, 0, s.CellCount())
	assert.False(t, s.GetCell(-1, 0))
	assert.False(t, s.GetCell(0, 2))
}

func TestShapeOccupiedCellsColumnMajor(t *testing.T) {
	s := mustShape(t, "l", "#.", "##")
	assert.Equal(t, []Position{{0, 0}, {0, 1}, {1, 1}}, s.OccupiedCells())
}

func TestShapeRotateClockwise(t *testing.T) {
	// ###
	// #..
	s := mustShape(t, "ell", "###", "#..")
	r := s.RotateClockwise()

	assert.Equal(t, 2, r.Width())
	assert.Equal(t, 3, r.Height())
	assert.Equal(t, []string{"##", ".#", ".#"}, r.Rows())
}

func TestShapeRotationClosure(t *testing.T) {
	shapes := []*Shape{
		mustShape(t, "ell", "#.", "#.", "##"),
		mustShape(t, "tee", "###", ".#."),
		mustShape(t, "line", "####"),
		mustShape(t, "odd", "#..#", ".##.", "#..."),
	}
	for _, s := range shapes {
		t.Run(s.Name(), func(t *testing.T) {
			r := s
			for i := 0; i < 4; i++ {
				r = r.RotateClockwise()
			}
			assert.True(t, s.Equal(r))
			assert.Equal(t, s.CellCount(), s.RotateClockwise().CellCount())
		})
	}
}

func TestShapeResizeKeepsTopLeft(t *testing.T) {
	s := mustShape(t, "sq", "##", "##")
	s.Resize(3, 1)
	assert.Equal(t, []string{"##."}, s.Rows())

	s.Resize(1, 2)
	assert.Equal(t, []string{"#", "."}, s.Rows())
}

func TestShapeClearFill(t *testing.T) {
	s := NewShape("f", 2, 3)
	s.Fill()
	assert.Equal(t, 6, s.CellCount())
	s.Clear()
	assert.Equal(t, 0, s.CellCount())
}

func TestShapeFromRowsErrors(t *testing.T) {
	_, err := ShapeFromRows("empty", nil)
	assert.Error(t, err)

	_, err = ShapeFromRows("ragged", []string{"##", "#"})
	assert.Error(t, err)
}

func TestShapeCloneIsIndependent(t *testing.T) {
	s := mustShape(t, "dot", "#")
	c := s.Clone()
	c.Clear()
	assert.True(t, s.GetCell(0, 0))
}
