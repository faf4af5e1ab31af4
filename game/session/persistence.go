package session

import (
	"time"

	"github.com/wricardo/logicfill/game/engine"
	"github.com/wricardo/logicfill/game/service"
)

// SessionPersistence is durable storage for sessions. Load and Delete
// return ErrSessionNotFound for unknown IDs.
type SessionPersistence interface {
	Save(session *service.Session) error
	Load(id string) (*service.Session, error)
	Delete(id string) error
	ListAll() ([]string, error)
	Exists(id string) bool
}

// LevelLoader resolves a level ID to its configuration
type LevelLoader interface {
	LoadLevel(id string) (*engine.LevelConfig, error)
}

// PersistedSessionData is the JSON document written for each session. Level
// is a copy of the configuration the session was playing, used when the
// level file has since been removed or resized.
type PersistedSessionData struct {
	ID             string              `json:"id"`
	LevelID        string              `json:"level_id"`
	Level          *engine.LevelConfig `json:"level"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	GameState      *engine.GameState   `json:"game_state"`
}
