package service

import (
	"time"

	"github.com/wricardo/logicfill/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string              `json:"id"`
	LevelID        string              `json:"level_id"`
	LevelName      string              `json:"level_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	GameState      *engine.GameState   `json:"game_state"`
	Level          *engine.LevelConfig `json:"level"`
}

// PlaceResult contains the result of a placement
type PlaceResult struct {
	Success   bool                          `json:"success"`
	GameState *engine.GameState             `json:"game_state"`
	Message   string                        `json:"message"`
	Events    []GameEvent                   `json:"events,omitempty"`
	Placement *engine.PlacementHistoryEntry `json:"placement,omitempty"`
	Remaining int                           `json:"cells_remaining"`
}

// PreviewResult describes what a placement would do without applying it
type PreviewResult struct {
	Valid   bool                `json:"valid"`
	Slot    int                 `json:"slot"`
	X       int                 `json:"x"`
	Y       int                 `json:"y"`
	Changes []engine.CellChange `json:"changes"`
	Piece   engine.PieceView    `json:"piece"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "place", "rejected", "victory", "time_up", "restart", "pause", "resume", "level_changed"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// ClockUpdate reports a session whose outcome changed while its clock advanced
type ClockUpdate struct {
	SessionID string            `json:"session_id"`
	Event     GameEvent         `json:"event"`
	GameState *engine.GameState `json:"game_state"`
}

// HistoryOptions configures placement history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated placement history
type HistoryResponse struct {
	Placements      []engine.PlacementHistoryEntry `json:"placements"`
	TotalPlacements int                            `json:"total_placements"`
	Page            int                            `json:"page"`
	PageSize        int                            `json:"page_size"`
	TotalPages      int                            `json:"total_pages"`
	HasNext         bool                           `json:"has_next"`
	HasPrevious     bool                           `json:"has_previous"`
}

// LevelInfo provides information about a level file
type LevelInfo struct {
	Filename         string  `json:"filename"`
	LevelID          string  `json:"level_id"` // The identifier to use for session creation
	Name             string  `json:"name"`     // Display name
	Description      string  `json:"description"`
	Index            int     `json:"index"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	TimeLimitSeconds float64 `json:"time_limit_seconds"`
	FillAllTiles     bool    `json:"fill_all_tiles"`
}
