package service

import (
	"context"
	"time"

	"github.com/wricardo/logicfill/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, levelID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Place(ctx context.Context, sessionID string, slot, x, y int) (*PlaceResult, error)
	Preview(ctx context.Context, sessionID string, slot, x, y int) (*PreviewResult, error)
	Rotate(ctx context.Context, sessionID string, slot int) (*engine.GameState, error)
	SetRotation(ctx context.Context, sessionID string, slot, rotation int) (*engine.GameState, error)
	Restart(ctx context.Context, sessionID string) (*engine.GameState, error)
	Pause(ctx context.Context, sessionID string) (*engine.GameState, error)
	Resume(ctx context.Context, sessionID string) (*engine.GameState, error)
	NextLevel(ctx context.Context, sessionID string) (*SessionInfo, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetPlacementHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	AdvanceClocks(ctx context.Context, now time.Time) []ClockUpdate

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelID string) (*engine.LevelConfig, error)
	SaveLevel(ctx context.Context, levelID string, level *engine.LevelConfig) error

	// Preferences
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, levelID string, level *engine.LevelConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	Touch(id string) error
	Save(id string) error
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(id string) (*engine.LevelConfig, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() (string, *engine.LevelConfig)
	SaveLevel(id string, level *engine.LevelConfig) error
	NextLevel(id string) (string, *engine.LevelConfig, error)
}

// PreferenceStore persists small key-value settings
type PreferenceStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Save() error
}

// Preference keys written by the service
const (
	PrefSelectedLevel = "selected_level"
	PrefLastSession   = "last_session"
	PrefLastState     = "last_state"
)

// Session represents an active game session
type Session struct {
	ID             string
	LevelID        string
	Engine         *engine.GameEngine
	Level          *engine.LevelConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
	// LastTickAt is the wall-clock time the engine clock was last advanced to
	LastTickAt time.Time
}
