package engine

import (
	"errors"
	"math/rand"
	"strings"
	"time"
)

var ErrNoShapes = errors.New("no shapes available")

// PieceFactory creates pieces from a pool of shapes
type PieceFactory struct {
	shapes []*Shape
	ops    []Operation
	rng    *rand.Rand
}

// NewPieceFactory creates a factory over shapes, seeded from the clock
func NewPieceFactory(shapes []*Shape) *PieceFactory {
	return NewPieceFactoryWithSeed(shapes, time.Now().UnixNano())
}

// NewPieceFactoryWithSeed creates a factory with a reproducible sequence
func NewPieceFactoryWithSeed(shapes []*Shape, seed int64) *PieceFactory {
	f := &PieceFactory{
		ops: append([]Operation(nil), AllOperations...),
		rng: rand.New(rand.NewSource(seed)),
	}
	for _, s := range shapes {
		f.AddShape(s)
	}
	return f
}

// Shapes returns the current pool
func (f *PieceFactory) Shapes() []*Shape {
	return append([]*Shape(nil), f.shapes...)
}

// SetOperations restricts the operations drawn by random creation.
// An empty list restores all operations.
func (f *PieceFactory) SetOperations(ops []Operation) {
	if len(ops) == 0 {
		ops = AllOperations
	}
	f.ops = append([]Operation(nil), ops...)
}

// CreateRandomPiece picks a shape and an operation uniformly at random
func (f *PieceFactory) CreateRandomPiece() (*Piece, error) {
	if len(f.shapes) == 0 {
		return nil, ErrNoShapes
	}
	shape := f.shapes[f.rng.Intn(len(f.shapes))]
	return f.CreatePiece(shape), nil
}

// CreatePiece builds a piece from shape with a random operation
func (f *PieceFactory) CreatePiece(shape *Shape) *Piece {
	return NewPiece(shape, f.ops[f.rng.Intn(len(f.ops))])
}

// CreatePieceWithType builds a piece from shape with a fixed operation
func (f *PieceFactory) CreatePieceWithType(shape *Shape, op Operation) *Piece {
	return NewPiece(shape, op)
}

// AddShape adds shape unless one with the same name is already pooled
func (f *PieceFactory) AddShape(shape *Shape) bool {
	if shape == nil || f.FindShape(shape.Name()) != nil {
		return false
	}
	f.shapes = append(f.shapes, shape)
	return true
}

// RemoveShape removes the named shape from the pool
func (f *PieceFactory) RemoveShape(name string) bool {
	for i, s := range f.shapes {
		if strings.EqualFold(s.Name(), name) {
			f.shapes = append(f.shapes[:i], f.shapes[i+1:]...)
			return true
		}
	}
	return false
}

// FindShape looks up a pooled shape by name, case-insensitively
func (f *PieceFactory) FindShape(name string) *Shape {
	for _, s := range f.shapes {
		if strings.EqualFold(s.Name(), name) {
			return s
		}
	}
	return nil
}
