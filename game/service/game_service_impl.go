package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/logicfill/game/engine"
)

// ErrInvalidState is returned when an operation does not apply to the session's current status
var ErrInvalidState = errors.New("operation not allowed in current state")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	prefs    PreferenceStore
	now      func() time.Time
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance. prefs may be nil.
func NewGameService(sessions SessionManager, levels LevelManager, prefs PreferenceStore) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		prefs:    prefs,
		now:      time.Now,
	}
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.LevelID,
		LevelName:      sess.Level.Name,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		Level:          sess.Level,
	}
}

// getSession loads a session and marks it accessed. Callers hold s.mu.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.Touch(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after %s: %v", sessionID, after, err)
	}
}

// advance brings the session clock up to now and reports an outcome change
func (s *gameServiceImpl) advance(sess *Session, now time.Time) (GameEvent, bool) {
	if sess.LastTickAt.IsZero() || now.Before(sess.LastTickAt) {
		sess.LastTickAt = now
		return GameEvent{}, false
	}
	dt := now.Sub(sess.LastTickAt)
	sess.LastTickAt = now
	if !sess.Engine.Tick(dt) {
		return GameEvent{}, false
	}
	s.setPref(PrefLastState, string(sess.Engine.Status()))
	return outcomeEvent(sess.Engine.GetState(), now), true
}

func outcomeEvent(state *engine.GameState, now time.Time) GameEvent {
	eventType := "time_up"
	if state.Victory {
		eventType = "victory"
	}
	return GameEvent{Type: eventType, Message: state.Message, Timestamp: now}
}

// resolveLevel picks the requested level, else the selected_level preference, else the default
func (s *gameServiceImpl) resolveLevel(levelID string) (string, *engine.LevelConfig, error) {
	if levelID != "" {
		level, err := s.levels.LoadLevel(levelID)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrLevelNotFound) {
				available, listErr := s.levels.ListLevels()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, info := range available {
						ids = append(ids, info.LevelID)
					}
					return "", nil, fmt.Errorf("level '%s': %w. Available levels: %v", levelID, err, ids)
				}
			}
			return "", nil, fmt.Errorf("failed to load level %s: %w", levelID, err)
		}
		return levelID, level, nil
	}

	if s.prefs != nil {
		if selected, ok := s.prefs.Get(PrefSelectedLevel); ok && selected != "" {
			if level, err := s.levels.LoadLevel(selected); err == nil {
				return selected, level, nil
			}
			log.Printf("[Service] selected level %q unavailable, using default", selected)
		}
	}

	id, level := s.levels.GetDefault()
	return id, level, nil
}

func (s *gameServiceImpl) setPref(key, value string) {
	if s.prefs == nil {
		return
	}
	s.prefs.Set(key, value)
	if err := s.prefs.Save(); err != nil {
		log.Printf("Warning: Failed to save preference %s: %v", key, err)
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, level, err := s.resolveLevel(levelID)
	if err != nil {
		return nil, err
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", id, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.LastTickAt = s.now()
	s.setPref(PrefLastSession, sess.ID)

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.advance(sess, s.now())
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return nil
}

// Place puts the piece in slot at (x,y) for a session
func (s *gameServiceImpl) Place(ctx context.Context, sessionID string, slot, x, y int) (*PlaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	events := []GameEvent{}
	if ev, changed := s.advance(sess, now); changed {
		events = append(events, ev)
		s.persist(sessionID, "clock update")
	}

	success, err := sess.Engine.Place(slot, x, y)
	if err != nil {
		return nil, fmt.Errorf("place in session %s: %w", sessionID, err)
	}

	state := sess.Engine.GetState()
	pos := engine.Position{X: x, Y: y}
	result := &PlaceResult{
		Success:   success,
		GameState: state,
		Message:   state.Message,
		Remaining: engine.CellsRemaining(sess.Engine.Board().Grid(), sess.Engine.Board().Rule()),
	}
	if last := sess.Engine.GetLastPlacement(); last != nil {
		entry := *last
		result.Placement = &entry
	}

	if success {
		events = append(events, GameEvent{
			Type:      "place",
			Message:   fmt.Sprintf("Placed slot %d at (%d,%d)", slot, x, y),
			Timestamp: now,
			Position:  pos,
		})
		if state.Victory {
			events = append(events, outcomeEvent(state, now))
			s.setPref(PrefLastState, string(state.Status))
		}
	} else {
		events = append(events, GameEvent{
			Type:      "rejected",
			Message:   state.Message,
			Timestamp: now,
			Position:  pos,
		})
	}
	result.Events = events

	// Auto-save session after placement
	s.persist(sessionID, "placement")
	return result, nil
}

// Preview reports the cell changes a placement would make
func (s *gameServiceImpl) Preview(ctx context.Context, sessionID string, slot, x, y int) (*PreviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.advance(sess, s.now())

	changes, ok, err := sess.Engine.Preview(slot, x, y)
	if err != nil {
		return nil, fmt.Errorf("preview in session %s: %w", sessionID, err)
	}
	piece, _ := sess.Engine.Inventory().Get(slot)
	if changes == nil {
		changes = []engine.CellChange{}
	}
	return &PreviewResult{
		Valid:   ok,
		Slot:    slot,
		X:       x,
		Y:       y,
		Changes: changes,
		Piece:   piece.View(slot),
	}, nil
}

// Rotate turns the piece in slot clockwise
func (s *gameServiceImpl) Rotate(ctx context.Context, sessionID string, slot int) (*engine.GameState, error) {
	return s.mutate(sessionID, "rotate", func(sess *Session) error {
		return sess.Engine.Rotate(slot)
	})
}

// SetRotation sets the rotation of the piece in slot, clamped to [0,3]
func (s *gameServiceImpl) SetRotation(ctx context.Context, sessionID string, slot, rotation int) (*engine.GameState, error) {
	return s.mutate(sessionID, "rotate", func(sess *Session) error {
		return sess.Engine.SetRotation(slot, rotation)
	})
}

// Restart resets a session's level to its initial state
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.mutate(sessionID, "restart", func(sess *Session) error {
		sess.Engine.Reset()
		return nil
	})
}

// Pause stops a session's clock
func (s *gameServiceImpl) Pause(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.mutate(sessionID, "pause", func(sess *Session) error {
		if !sess.Engine.Pause() {
			return fmt.Errorf("%w: cannot pause while %s", ErrInvalidState, sess.Engine.Status())
		}
		return nil
	})
}

// Resume restarts a paused session's clock
func (s *gameServiceImpl) Resume(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.mutate(sessionID, "resume", func(sess *Session) error {
		if !sess.Engine.Resume() {
			return fmt.Errorf("%w: cannot resume while %s", ErrInvalidState, sess.Engine.Status())
		}
		return nil
	})
}

// mutate advances the clock, applies fn and persists the session
func (s *gameServiceImpl) mutate(sessionID, action string, fn func(sess *Session) error) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.advance(sess, s.now())

	if err := fn(sess); err != nil {
		return nil, fmt.Errorf("%s in session %s: %w", action, sessionID, err)
	}
	sess.LastTickAt = s.now()

	// Auto-save session after the change
	s.persist(sessionID, action)
	return sess.Engine.GetState(), nil
}

// NextLevel moves a session on to the level after its current one
func (s *gameServiceImpl) NextLevel(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	nextID, level, err := s.levels.NextLevel(sess.LevelID)
	if err != nil {
		return nil, fmt.Errorf("next level after %s: %w", sess.LevelID, err)
	}
	if err := sess.Engine.SetConfig(level); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	sess.LevelID = nextID
	sess.Level = level
	sess.LastTickAt = s.now()
	s.setPref(PrefSelectedLevel, nextID)

	s.persist(sessionID, "level change")
	return s.sessionInfo(sess), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if _, changed := s.advance(sess, s.now()); changed {
		s.persist(sessionID, "clock update")
	}
	return sess.Engine.GetState(), nil
}

// GetPlacementHistory returns paginated placement history
func (s *gameServiceImpl) GetPlacementHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	history := sess.Engine.GetPlacementHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > engine.MaxHistoryPageSize {
		opts.Limit = engine.MaxHistoryPageSize
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var placements []engine.PlacementHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			placements = append(placements, history[i])
		}
	} else if start < total {
		placements = append(placements, history[start:end]...)
	}

	if placements == nil {
		placements = []engine.PlacementHistoryEntry{}
	}

	return &HistoryResponse{
		Placements:      placements,
		TotalPlacements: total,
		Page:            opts.Page,
		PageSize:        opts.Limit,
		TotalPages:      totalPages,
		HasNext:         opts.Page < totalPages,
		HasPrevious:     opts.Page > 1,
	}, nil
}

// AdvanceClocks ticks every session up to now and returns those whose outcome changed
func (s *gameServiceImpl) AdvanceClocks(ctx context.Context, now time.Time) []ClockUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updates []ClockUpdate
	for _, sess := range s.sessions.List() {
		ev, changed := s.advance(sess, now)
		if !changed {
			continue
		}
		updates = append(updates, ClockUpdate{
			SessionID: sess.ID,
			Event:     ev,
			GameState: sess.Engine.GetState(),
		})
		s.persist(sess.ID, "clock update")
	}
	return updates
}

// ListLevels returns available levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads a specific level
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelID string) (*engine.LevelConfig, error) {
	return s.levels.LoadLevel(levelID)
}

// SaveLevel saves a level to disk
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelID string, level *engine.LevelConfig) error {
	return s.levels.SaveLevel(levelID, level)
}

// GetPreference reads a stored preference
func (s *gameServiceImpl) GetPreference(ctx context.Context, key string) (string, bool, error) {
	if strings.TrimSpace(key) == "" {
		return "", false, fmt.Errorf("%w: key is required", ErrInvalidPref)
	}
	if s.prefs == nil {
		return "", false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.prefs.Get(key)
	return value, ok, nil
}

// SetPreference stores a preference and writes it to disk
func (s *gameServiceImpl) SetPreference(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidPref)
	}
	if s.prefs == nil {
		return fmt.Errorf("preferences are not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Set(key, value)
	return s.prefs.Save()
}
