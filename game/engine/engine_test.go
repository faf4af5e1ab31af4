package engine

import (
	"errors"
	"testing"
	"time"
)

func createTestLevel() *LevelConfig {
	return &LevelConfig{
		Name:               "Engine Test Level",
		Description:        "Two cells, single-cell pieces",
		Index:              1,
		Width:              2,
		Height:             1,
		TimeLimitSeconds:   60,
		FillAllTiles:       true,
		RequireFullyInside: true,
		InventorySlots:     3,
		Target:             []string{".."},
		Shapes:             []ShapeConfig{{Name: "dot", Rows: []string{"#"}}},
		Messages: LevelMessages{
			Welcome:  "Welcome to engine test!",
			Placed:   "Placed! %d cells filled",
			Rejected: "Does not fit",
			Victory:  "Victory!",
			TimeUp:   "Time's up!",
		},
	}
}

// newTestEngine builds an engine whose inventory only holds OR pieces
func newTestEngine(t *testing.T, config *LevelConfig) *GameEngine {
	t.Helper()
	e, err := NewEngineWithSeed(config, 1)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	e.factory.SetOperations([]Operation{OpOR})
	e.inventory.Clear()
	if err := e.inventory.Refill(); err != nil {
		t.Fatalf("Failed to refill inventory: %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	e := newTestEngine(t, createTestLevel())
	state := e.GetState()

	if state.Message != "Welcome to engine test!" {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if len(state.Inventory) != 3 {
		t.Errorf("Expected 3 inventory pieces, got %d", len(state.Inventory))
	}
	if state.Status != StatusPlaying {
		t.Errorf("Expected status playing, got %s", state.Status)
	}
	if state.Remaining != 60 || state.TimeLimit != 60 {
		t.Errorf("Expected 60s remaining, got %v/%v", state.Remaining, state.TimeLimit)
	}
	if state.Board[0] != ".." {
		t.Errorf("Expected empty board, got %v", state.Board)
	}
}

func TestNewEngineInvalidConfig(t *testing.T) {
	config := createTestLevel()
	config.Width = 0
	if _, err := NewEngine(config); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	e := NewEngineWithDefaults()
	state := e.GetState()
	if state.Width != DefaultBoardSize || state.Height != DefaultBoardSize {
		t.Errorf("Expected %dx%d board, got %dx%d", DefaultBoardSize, DefaultBoardSize, state.Width, state.Height)
	}
	if len(state.Inventory) != DefaultInventorySlots {
		t.Errorf("Expected %d pieces, got %d", DefaultInventorySlots, len(state.Inventory))
	}
}

func TestEnginePlaceAndWin(t *testing.T) {
	e := newTestEngine(t, createTestLevel())

	ok, err := e.Place(0, 0, 0)
	if err != nil || !ok {
		t.Fatalf("First placement failed: ok=%v err=%v", ok, err)
	}
	state := e.GetState()
	if state.Message != "Placed! 1 cells filled" {
		t.Errorf("Unexpected message %q", state.Message)
	}
	if state.GameOver {
		t.Fatal("Game should not be over after one placement")
	}

	ok, err = e.Place(2, 1, 0)
	if err != nil || !ok {
		t.Fatalf("Second placement failed: ok=%v err=%v", ok, err)
	}
	if !e.IsVictory() || !e.IsGameOver() {
		t.Error("Expected victory after filling the board")
	}
	if e.GetState().Message != "Victory!" {
		t.Errorf("Expected victory message, got %q", e.GetState().Message)
	}

	if _, err := e.Place(0, 0, 0); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver, got %v", err)
	}
	if e.Tick(time.Hour) {
		t.Error("Tick after victory must not change the outcome")
	}
}

func TestEnginePlaceRejected(t *testing.T) {
	e := newTestEngine(t, createTestLevel())
	piece, _ := e.inventory.Get(1)

	ok, err := e.Place(1, 5, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ok {
		t.Fatal("Expected out-of-bounds placement to be rejected")
	}

	if got, _ := e.inventory.Get(1); got != piece {
		t.Error("Rejected placement must not consume the piece")
	}
	last := e.GetLastPlacement()
	if last == nil || last.Success {
		t.Fatalf("Expected failed placement in history, got %+v", last)
	}
	if e.GetState().Message != "Does not fit" {
		t.Errorf("Expected rejected message, got %q", e.GetState().Message)
	}
	if e.GetState().FilledCells != 0 {
		t.Error("Rejected placement changed the board")
	}
}

func TestEngineInvalidSlot(t *testing.T) {
	e := newTestEngine(t, createTestLevel())
	if _, err := e.Place(3, 0, 0); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("Expected ErrInvalidSlot, got %v", err)
	}
	if err := e.Rotate(-1); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("Expected ErrInvalidSlot, got %v", err)
	}
}

func TestEngineRotation(t *testing.T) {
	e := newTestEngine(t, createTestLevel())
	if err := e.Rotate(0); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if r := e.GetState().Inventory[0].Rotation; r != 1 {
		t.Errorf("Expected rotation 1, got %d", r)
	}
	if err := e.SetRotation(0, 9); err != nil {
		t.Fatalf("SetRotation failed: %v", err)
	}
	if r := e.GetState().Inventory[0].Rotation; r != 3 {
		t.Errorf("Expected rotation clamped to 3, got %d", r)
	}
}

func TestEngineTimeout(t *testing.T) {
	config := createTestLevel()
	config.TimeLimitSeconds = 2
	e := newTestEngine(t, config)

	if e.Tick(time.Second) {
		t.Error("Status changed before the limit")
	}
	if !e.Tick(2 * time.Second) {
		t.Fatal("Expected status change on timeout")
	}
	state := e.GetState()
	if state.Status != StatusLost || state.Victory || !state.GameOver {
		t.Errorf("Expected lost, got %+v", state.Status)
	}
	if state.Message != "Time's up!" || state.Remaining != 0 {
		t.Errorf("Unexpected timeout state: %q %v", state.Message, state.Remaining)
	}
	if _, err := e.Place(0, 0, 0); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver, got %v", err)
	}
}

func TestEngineWinBeatsTimeout(t *testing.T) {
	e := newTestEngine(t, createTestLevel())
	state := e.GetState()
	state.Board = []string{"##"}
	state.Remaining = 0.5
	if err := e.SetState(state); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	if !e.Tick(time.Second) {
		t.Fatal("Expected status change")
	}
	if !e.IsVictory() {
		t.Errorf("Expected win to take precedence, got %s", e.Status())
	}
}

func TestEnginePause(t *testing.T) {
	e := newTestEngine(t, createTestLevel())
	if !e.Pause() {
		t.Fatal("Pause failed")
	}
	if _, err := e.Place(0, 0, 0); !errors.Is(err, ErrPaused) {
		t.Errorf("Expected ErrPaused, got %v", err)
	}
	e.Tick(10 * time.Second)
	if e.Remaining() != 60*time.Second {
		t.Errorf("Clock advanced while paused: %v", e.Remaining())
	}
	if !e.Resume() {
		t.Fatal("Resume failed")
	}
	if ok, err := e.Place(0, 0, 0); !ok || err != nil {
		t.Errorf("Placement after resume failed: %v %v", ok, err)
	}
}

func TestEngineResetKeepsHistory(t *testing.T) {
	e := newTestEngine(t, createTestLevel())
	e.Place(0, 0, 0)
	e.Place(0, 9, 9)

	state := e.Reset()
	if state.TotalPlacements != 2 || len(state.History) != 2 {
		t.Errorf("Expected cumulative history of 2, got %d/%d", state.TotalPlacements, len(state.History))
	}
	if state.SegmentPlacement != 0 || len(state.CurrentSegment) != 0 {
		t.Errorf("Expected empty segment, got %d", state.SegmentPlacement)
	}
	if state.FilledCells != 0 || state.Status != StatusPlaying {
		t.Errorf("Board not reset: %+v", state.Board)
	}
	if e.GetState().History[1].MoveNumber != 2 {
		t.Error("Move numbers should be sequential")
	}
}

func TestEngineStateRoundTrip(t *testing.T) {
	e := newTestEngine(t, createTestLevel())
	e.Place(0, 1, 0)
	e.Rotate(1)
	e.Tick(5 * time.Second)
	saved := e.GetState()

	restored := newTestEngine(t, createTestLevel())
	if err := restored.SetState(saved); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	got := restored.GetState()

	if got.Board[0] != ".#" {
		t.Errorf("Board mismatch: %v", got.Board)
	}
	if got.Remaining != 55 {
		t.Errorf("Expected 55s remaining, got %v", got.Remaining)
	}
	if got.Inventory[1].Rotation != 1 || got.Inventory[1].ShapeName != "dot" {
		t.Errorf("Inventory mismatch: %+v", got.Inventory[1])
	}
	if got.TotalPlacements != 1 {
		t.Errorf("Expected 1 placement, got %d", got.TotalPlacements)
	}
}

func TestEngineSetStateRejectsWrongSize(t *testing.T) {
	e := newTestEngine(t, createTestLevel())
	state := e.GetState()
	state.Width = 3
	if err := e.SetState(state); err == nil {
		t.Error("Expected error for mismatched dimensions")
	}
	if err := e.SetState(nil); err == nil {
		t.Error("Expected error for nil state")
	}
}
