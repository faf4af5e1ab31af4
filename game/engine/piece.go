package engine

// Piece binds a shape to an operation and a rotation in quarter turns
type Piece struct {
	shape    *Shape
	op       Operation
	rotation int
	current  *Shape
}

// NewPiece creates a piece at rotation 0
func NewPiece(shape *Shape, op Operation) *Piece {
	p := &Piece{shape: shape, op: op}
	p.updateCurrentShape()
	return p
}

// Rotate turns the piece 90 degrees clockwise
func (p *Piece) Rotate() {
	p.rotation = (p.rotation + 1) % 4
	p.updateCurrentShape()
}

// SetRotation clamps r into [0,3]; it does not wrap
func (p *Piece) SetRotation(r int) {
	p.rotation = max(0, min(r, 3))
	p.updateCurrentShape()
}

// updateCurrentShape always rebuilds from the base shape
func (p *Piece) updateCurrentShape() {
	current := p.shape.Clone()
	for i := 0; i < p.rotation; i++ {
		current = current.RotateClockwise()
	}
	p.current = current
}

func (p *Piece) Shape() *Shape        { return p.shape }
func (p *Piece) Operation() Operation { return p.op }
func (p *Piece) Rotation() int        { return p.rotation }
func (p *Piece) Current() *Shape      { return p.current }
func (p *Piece) Width() int           { return p.current.Width() }
func (p *Piece) Height() int          { return p.current.Height() }

// OccupiedCells lists the rotated shape's cells in column-major order
func (p *Piece) OccupiedCells() []Position {
	return p.current.OccupiedCells()
}

// OccupiedCellsAt lists the rotated shape's cells shifted by offset
func (p *Piece) OccupiedCellsAt(offset Position) []Position {
	cells := p.current.OccupiedCells()
	for i := range cells {
		cells[i] = cells[i].Add(offset)
	}
	return cells
}

// View builds the serializable form of the piece for the given slot
func (p *Piece) View(slot int) PieceView {
	return PieceView{
		Slot:      slot,
		ShapeName: p.shape.Name(),
		BaseRows:  p.shape.Rows(),
		Operation: p.op,
		Rotation:  p.rotation,
		Rows:      p.current.Rows(),
		Width:     p.current.Width(),
		Height:    p.current.Height(),
		CellCount: p.current.CellCount(),
	}
}
