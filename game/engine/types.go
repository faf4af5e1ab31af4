package engine

import (
	"fmt"
	"strings"
)

// Operation is the logic gate a piece applies to each cell it covers
type Operation string

const (
	OpAND Operation = "AND"
	OpOR  Operation = "OR"
	OpNOT Operation = "NOT"

	// Validation constants
	DefaultBoardSize      = 15
	MinBoardSize          = 1
	MaxBoardSize          = 50
	MaxShapeSize          = 15
	DefaultInventorySlots = 3
	MaxInventorySlots     = 9
	TargetAlphaThreshold  = 0.1
	MaxHistoryPageSize    = 100

	// Row encoding for boards, targets and shapes
	FilledChar = '#'
	EmptyChar  = '.'
)

// AllOperations lists the operations a factory draws from
var AllOperations = []Operation{OpAND, OpOR, OpNOT}

// ParseOperation converts a case-insensitive name to an Operation
func ParseOperation(s string) (Operation, error) {
	switch Operation(strings.ToUpper(strings.TrimSpace(s))) {
	case OpAND:
		return OpAND, nil
	case OpOR:
		return OpOR, nil
	case OpNOT:
		return OpNOT, nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add offsets p by o
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// CellChange describes a single cell write performed by a placement
type CellChange struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Before bool `json:"before"`
	After  bool `json:"after"`
	Target bool `json:"target,omitempty"`
}

// Status is the lifecycle phase of a level instance
type Status string

const (
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// IsTerminal reports whether no further play is allowed until a restart
func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusLost
}

// PieceView is the serializable form of an inventory piece
type PieceView struct {
	Slot      int       `json:"slot"`
	ShapeName string    `json:"shape_name"`
	BaseRows  []string  `json:"base_rows"`
	Operation Operation `json:"operation"`
	Rotation  int       `json:"rotation"`
	Rows      []string  `json:"rows"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CellCount int       `json:"cell_count"`
}

// GameState represents the complete state of one level instance
type GameState struct {
	LevelName        string                  `json:"level_name"`
	LevelIndex       int                     `json:"level_index"`
	Width            int                     `json:"width"`
	Height           int                     `json:"height"`
	Board            []string                `json:"board"`
	Target           []string                `json:"target"`
	FillAllTiles     bool                    `json:"fill_all_tiles"`
	RequireInside    bool                    `json:"require_fully_inside"`
	Inventory        []PieceView             `json:"inventory"`
	Status           Status                  `json:"status"`
	TimeLimit        float64                 `json:"time_limit_seconds"`
	Remaining        float64                 `json:"remaining_seconds"`
	Message          string                  `json:"message"`
	GameOver         bool                    `json:"game_over"`
	Victory          bool                    `json:"victory"`
	FilledCells      int                     `json:"filled_cells"`
	TargetCells      int                     `json:"target_cells"`
	FilledTargets    int                     `json:"filled_targets"`
	History          []PlacementHistoryEntry `json:"history"`
	TotalPlacements  int                     `json:"total_placements"`
	CurrentSegment   []PlacementHistoryEntry `json:"current_segment"`
	SegmentPlacement int                     `json:"segment_placements"`
}

// PlacementHistoryEntry represents a single placement attempt in the history
type PlacementHistoryEntry struct {
	Slot       int          `json:"slot"`
	ShapeName  string       `json:"shape_name"`
	Operation  Operation    `json:"operation"`
	Rotation   int          `json:"rotation"`
	Position   Position     `json:"position"`
	Success    bool         `json:"success"`
	Changes    []CellChange `json:"changes,omitempty"`
	Timestamp  int64        `json:"timestamp"`
	MoveNumber int          `json:"move_number"`
}
