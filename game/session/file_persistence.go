package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/logicfill/game/engine"
	"github.com/wricardo/logicfill/game/service"
)

const sessionFileExt = ".json"

// FilePersistence stores each session as <dir>/<id>.json with the ID
// lowercased, so lookups match the manager's case-insensitive keys.
type FilePersistence struct {
	dir    string
	levels LevelLoader
}

// NewFilePersistence creates dir if needed. levels may be nil, in which case
// sessions always restore from the level copy stored in their file.
func NewFilePersistence(dir string, levels LevelLoader) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FilePersistence{dir: dir, levels: levels}, nil
}

func (p *FilePersistence) path(id string) string {
	return filepath.Join(p.dir, sessionKey(id)+sessionFileExt)
}

// Save writes the session atomically through a temp file
func (p *FilePersistence) Save(sess *service.Session) error {
	if sess == nil {
		return errors.New("session cannot be nil")
	}
	if !ValidSessionID(sess.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, sess.ID)
	}

	raw, err := json.MarshalIndent(snapshot(sess), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
	}

	final := p.path(sess.ID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func snapshot(sess *service.Session) PersistedSessionData {
	return PersistedSessionData{
		ID:             sess.ID,
		LevelID:        sess.LevelID,
		Level:          sess.Level,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
	}
}

// Load rebuilds a session engine from its file. The level clock restarts
// at load time rather than at the moment of the save.
func (p *FilePersistence) Load(id string) (*service.Session, error) {
	if !ValidSessionID(id) {
		return nil, ErrSessionNotFound
	}

	raw, err := os.ReadFile(p.path(id))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", id)
	}
	return p.restore(&data)
}

func (p *FilePersistence) restore(data *PersistedSessionData) (*service.Session, error) {
	level, err := p.levelFor(data)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	if err := eng.SetState(data.GameState); err != nil {
		return nil, fmt.Errorf("failed to restore game state: %w", err)
	}

	return &service.Session{
		ID:             data.ID,
		LevelID:        data.LevelID,
		Engine:         eng,
		Level:          level,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
		LastTickAt:     time.Now(),
	}, nil
}

// levelFor picks the live level file when its board size still matches the
// saved state, and the embedded copy otherwise.
func (p *FilePersistence) levelFor(data *PersistedSessionData) (*engine.LevelConfig, error) {
	if p.levels != nil && data.LevelID != "" {
		live, err := p.levels.LoadLevel(data.LevelID)
		switch {
		case err != nil:
			log.Printf("[Sessions] level %s for session %s unavailable: %v", data.LevelID, data.ID, err)
		case live.Width != data.GameState.Width || live.Height != data.GameState.Height:
			log.Printf("[Sessions] level %s changed size, restoring session %s from its saved copy", data.LevelID, data.ID)
		default:
			return live, nil
		}
	}
	if data.Level == nil {
		return nil, fmt.Errorf("failed to load level '%s' for session %s: %w", data.LevelID, data.ID, service.ErrLevelNotFound)
	}
	return data.Level, nil
}

func (p *FilePersistence) Delete(id string) error {
	if !p.Exists(id) {
		return ErrSessionNotFound
	}
	if err := os.Remove(p.path(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns the IDs of every session file. Stray files are ignored.
func (p *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), sessionFileExt)
		if e.IsDir() || !ok || !ValidSessionID(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *FilePersistence) Exists(id string) bool {
	if !ValidSessionID(id) {
		return false
	}
	info, err := os.Stat(p.path(id))
	return err == nil && !info.IsDir()
}
