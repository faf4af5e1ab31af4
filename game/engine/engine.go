package engine

import (
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	ErrGameOver = errors.New("game is over")
	ErrPaused   = errors.New("game is paused")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	IsVictory() bool
	Status() Status

	// Piece operations
	Place(slot, x, y int) (bool, error)
	Preview(slot, x, y int) ([]CellChange, bool, error)
	Rotate(slot int) error
	SetRotation(slot, rotation int) error

	// Clock
	Tick(dt time.Duration) bool
	Pause() bool
	Resume() bool

	// Configuration
	GetConfig() *LevelConfig

	// History
	GetPlacementHistory() []PlacementHistoryEntry
	GetLastPlacement() *PlacementHistoryEntry
}

// GameEngine implements the Engine interface for one level instance
type GameEngine struct {
	config    *LevelConfig
	board     *Board
	factory   *PieceFactory
	inventory *Inventory
	countdown *Countdown
	outcome   *Outcome
	message   string

	history         []PlacementHistoryEntry
	totalPlacements int
	segment         []PlacementHistoryEntry
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *LevelConfig) (*GameEngine, error) {
	return NewEngineWithSeed(config, time.Now().UnixNano())
}

// NewEngineWithSeed creates an engine whose piece sequence is reproducible
func NewEngineWithSeed(config *LevelConfig, seed int64) (*GameEngine, error) {
	if err := ValidateLevelConfig(config); err != nil {
		return nil, err
	}
	shapes, err := config.BuildShapes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	e := &GameEngine{
		config:    config,
		factory:   newLevelFactory(config, shapes, seed),
		countdown: NewCountdown(),
		outcome:   NewOutcome(),
		history:   []PlacementHistoryEntry{},
		segment:   []PlacementHistoryEntry{},
	}
	e.board = NewBoard(NewGrid(config.Width, config.Height), config.Rule())
	e.inventory = NewInventory(e.factory, config.InventorySlots)
	e.countdown.OnTimeUp = e.handleTimeUp

	if err := e.start(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in level
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultLevelConfig())
	if err != nil {
		panic(fmt.Sprintf("default level: %v", err))
	}
	return e
}

func newLevelFactory(config *LevelConfig, shapes []*Shape, seed int64) *PieceFactory {
	f := NewPieceFactoryWithSeed(shapes, seed)
	f.SetOperations(config.BuildOperations())
	return f
}

// start loads the target, clears the board, refills the inventory and starts the clock
func (e *GameEngine) start() error {
	target, err := e.config.TargetMap()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := e.board.SetTargetMap(target); err != nil {
		return err
	}
	e.board.Initialize()

	e.inventory.Clear()
	if err := e.inventory.Refill(); err != nil {
		return err
	}

	e.outcome.Restart()
	e.countdown.Start(secondsToDuration(e.config.TimeLimitSeconds))
	e.message = e.config.Messages.Welcome
	e.checkCompletion()
	return nil
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	grid := e.board.Grid()
	pieces := e.inventory.Pieces()
	views := make([]PieceView, len(pieces))
	for i, p := range pieces {
		views[i] = p.View(i)
	}

	status := e.outcome.Status()
	return &GameState{
		LevelName:        e.config.Name,
		LevelIndex:       e.config.Index,
		Width:            grid.Width(),
		Height:           grid.Height(),
		Board:            grid.Rows(),
		Target:           grid.TargetRows(),
		FillAllTiles:     e.config.FillAllTiles,
		RequireInside:    e.config.RequireFullyInside,
		Inventory:        views,
		Status:           status,
		TimeLimit:        e.countdown.Limit().Seconds(),
		Remaining:        e.countdown.Remaining().Seconds(),
		Message:          e.message,
		GameOver:         status.IsTerminal(),
		Victory:          status == StatusWon,
		FilledCells:      grid.FilledCount(),
		TargetCells:      grid.TargetCount(),
		FilledTargets:    grid.FilledTargetCount(),
		History:          append([]PlacementHistoryEntry{}, e.history...),
		TotalPlacements:  e.totalPlacements,
		CurrentSegment:   append([]PlacementHistoryEntry{}, e.segment...),
		SegmentPlacement: len(e.segment),
	}
}

// SetState restores the engine from a snapshot (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Width != e.config.Width || state.Height != e.config.Height {
		return fmt.Errorf("state is %dx%d but level %q is %dx%d",
			state.Width, state.Height, e.config.Name, e.config.Width, e.config.Height)
	}

	pieces := make([]*Piece, 0, len(state.Inventory))
	for _, v := range state.Inventory {
		shape, err := ShapeFromRows(v.ShapeName, v.BaseRows)
		if err != nil {
			return fmt.Errorf("restore inventory slot %d: %w", v.Slot, err)
		}
		op, err := ParseOperation(string(v.Operation))
		if err != nil {
			return fmt.Errorf("restore inventory slot %d: %w", v.Slot, err)
		}
		p := NewPiece(shape, op)
		p.SetRotation(v.Rotation)
		pieces = append(pieces, p)
	}

	if err := e.board.Restore(state.Board); err != nil {
		return fmt.Errorf("restore board: %w", err)
	}
	e.inventory.Restore(pieces)
	if e.inventory.Count() < e.inventory.Capacity() {
		if err := e.inventory.Refill(); err != nil {
			return err
		}
	}

	e.outcome.restore(state.Status)
	e.countdown.Restore(
		secondsToDuration(state.TimeLimit),
		secondsToDuration(state.Remaining),
		!state.Status.IsTerminal(),
	)
	if state.Status == StatusPaused {
		e.countdown.Pause()
	}
	e.message = state.Message
	e.history = append([]PlacementHistoryEntry{}, state.History...)
	e.totalPlacements = state.TotalPlacements
	e.segment = append([]PlacementHistoryEntry{}, state.CurrentSegment...)
	return nil
}

// Reset restarts the level. Cumulative history is kept; the current segment is cleared.
func (e *GameEngine) Reset() *GameState {
	if err := e.start(); err != nil {
		log.Printf("[Engine] reset of level %q failed: %v", e.config.Name, err)
	}
	e.segment = []PlacementHistoryEntry{}
	return e.GetState()
}

func (e *GameEngine) IsGameOver() bool { return e.outcome.Status().IsTerminal() }
func (e *GameEngine) IsVictory() bool  { return e.outcome.Status() == StatusWon }
func (e *GameEngine) Status() Status   { return e.outcome.Status() }

// Board exposes the underlying board controller
func (e *GameEngine) Board() *Board { return e.board }

// Inventory exposes the piece inventory
func (e *GameEngine) Inventory() *Inventory { return e.inventory }

// GetConfig returns the level configuration
func (e *GameEngine) GetConfig() *LevelConfig {
	return e.config
}

// SetConfig switches to a new level and restarts
func (e *GameEngine) SetConfig(config *LevelConfig) error {
	if err := ValidateLevelConfig(config); err != nil {
		return err
	}
	shapes, err := config.BuildShapes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	e.config = config
	e.factory = newLevelFactory(config, shapes, time.Now().UnixNano())
	e.board = NewBoard(NewGrid(config.Width, config.Height), config.Rule())
	e.inventory = NewInventory(e.factory, config.InventorySlots)
	e.segment = []PlacementHistoryEntry{}
	return e.start()
}

func (e *GameEngine) checkPlayable() error {
	switch e.outcome.Status() {
	case StatusWon, StatusLost:
		return ErrGameOver
	case StatusPaused:
		return ErrPaused
	}
	return nil
}

// Place puts the piece in slot with its origin at (x,y). A rejected
// placement returns false with a nil error and is recorded in history.
func (e *GameEngine) Place(slot, x, y int) (bool, error) {
	if err := e.checkPlayable(); err != nil {
		return false, err
	}
	piece, err := e.inventory.Get(slot)
	if err != nil {
		return false, err
	}

	pos := Position{X: x, Y: y}
	changes, ok := e.board.PlacePieceWithChanges(piece, pos)
	e.addToHistory(slot, piece, pos, ok, changes)

	if !ok {
		e.message = e.config.Messages.Rejected
		return false, nil
	}

	if err := e.inventory.RemovePiece(slot); err != nil {
		log.Printf("[Engine] inventory refill failed: %v", err)
	}
	if e.config.Messages.Placed != "" {
		e.message = fmt.Sprintf(e.config.Messages.Placed, e.board.Grid().FilledCount())
	}
	e.checkCompletion()
	return true, nil
}

// Preview reports the writes placing slot at (x,y) would make
func (e *GameEngine) Preview(slot, x, y int) ([]CellChange, bool, error) {
	if err := e.checkPlayable(); err != nil {
		return nil, false, err
	}
	piece, err := e.inventory.Get(slot)
	if err != nil {
		return nil, false, err
	}
	changes, ok := e.board.Preview(piece, Position{X: x, Y: y})
	return changes, ok, nil
}

// Rotate turns the piece in slot 90 degrees clockwise
func (e *GameEngine) Rotate(slot int) error {
	if err := e.checkPlayable(); err != nil {
		return err
	}
	piece, err := e.inventory.Get(slot)
	if err != nil {
		return err
	}
	piece.Rotate()
	return nil
}

// SetRotation sets the rotation of the piece in slot, clamped to [0,3]
func (e *GameEngine) SetRotation(slot, rotation int) error {
	if err := e.checkPlayable(); err != nil {
		return err
	}
	piece, err := e.inventory.Get(slot)
	if err != nil {
		return err
	}
	piece.SetRotation(rotation)
	return nil
}

// Tick advances the level clock by dt while playing. Completion is polled
// before the clock so a win in the same frame beats a timeout. It reports
// whether the status changed.
func (e *GameEngine) Tick(dt time.Duration) bool {
	if e.outcome.Status() != StatusPlaying {
		return false
	}
	before := e.outcome.Status()
	e.checkCompletion()
	if e.outcome.Status() == StatusPlaying {
		e.countdown.Tick(dt)
	}
	return e.outcome.Status() != before
}

// Pause stops the clock and blocks moves
func (e *GameEngine) Pause() bool {
	if !e.outcome.Pause() {
		return false
	}
	e.countdown.Pause()
	return true
}

// Resume continues a paused level
func (e *GameEngine) Resume() bool {
	if !e.outcome.Resume() {
		return false
	}
	e.countdown.Resume()
	return true
}

// Remaining returns the time left on the level clock
func (e *GameEngine) Remaining() time.Duration {
	return e.countdown.Remaining()
}

func (e *GameEngine) checkCompletion() {
	if e.board.Status() != BoardComplete {
		return
	}
	if e.outcome.TriggerWin() {
		e.countdown.Stop()
		e.message = e.config.Messages.Victory
	}
}

func (e *GameEngine) handleTimeUp() {
	if e.outcome.TriggerLose() {
		e.message = e.config.Messages.TimeUp
	}
}

// GetPlacementHistory returns the complete placement history
func (e *GameEngine) GetPlacementHistory() []PlacementHistoryEntry {
	return e.history
}

// GetLastPlacement returns the last placement attempt, or nil if none
func (e *GameEngine) GetLastPlacement() *PlacementHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

func (e *GameEngine) addToHistory(slot int, piece *Piece, pos Position, success bool, changes []CellChange) {
	entry := PlacementHistoryEntry{
		Slot:       slot,
		ShapeName:  piece.Shape().Name(),
		Operation:  piece.Operation(),
		Rotation:   piece.Rotation(),
		Position:   pos,
		Success:    success,
		Changes:    changes,
		Timestamp:  time.Now().Unix(),
		MoveNumber: e.totalPlacements + 1,
	}
	// Cumulative history survives resets; the segment does not
	e.history = append(e.history, entry)
	e.totalPlacements++
	e.segment = append(e.segment, entry)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
