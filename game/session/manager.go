package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/logicfill/game/engine"
	"github.com/wricardo/logicfill/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
	ErrSessionIDsExhausted  = errors.New("no free session ID")
)

// maxIDAttempts bounds the random draws for one generated ID
const maxIDAttempts = 1024

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Manager keeps running level instances in memory, keyed case-insensitively,
// and mirrors them to an optional SessionPersistence.
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	random      io.Reader
	mu          sync.RWMutex
}

// NewManager creates a new in-memory session manager
func NewManager() *Manager {
	return NewManagerWithPersistence(nil)
}

// NewManagerWithPersistence creates a manager that saves every new session
// through persistence and falls back to it on lookup misses.
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		persistence: persistence,
		random:      rand.Reader,
	}
}

// ValidSessionID reports whether id is safe to use as a session key and file name
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func sessionKey(id string) string { return strings.ToLower(id) }

// Create starts a fresh engine for level. An empty id is replaced by a generated one.
func (m *Manager) Create(id, levelID string, level *engine.LevelConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case id == "":
		generated, err := m.generateSessionID()
		if err != nil {
			return nil, err
		}
		id = generated
	case !ValidSessionID(id):
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	if _, exists := m.sessions[sessionKey(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	sess := &service.Session{
		ID:             id,
		LevelID:        levelID,
		Engine:         eng,
		Level:          level,
		CreatedAt:      now,
		LastAccessedAt: now,
		LastTickAt:     now,
	}
	m.sessions[sessionKey(id)] = sess
	log.Printf("[Sessions] created %s on level %s", id, levelID)

	if m.persistence != nil {
		if err := m.persistence.Save(sess); err != nil {
			log.Printf("[Sessions] warning: could not persist %s: %v", id, err)
		}
	}
	return sess, nil
}

// Get returns the session with id, loading it from persistence on a miss
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[sessionKey(id)]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if m.persistence == nil || !ValidSessionID(id) || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	loaded, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have loaded it meanwhile
	if existing, ok := m.sessions[sessionKey(id)]; ok {
		return existing, nil
	}
	m.sessions[sessionKey(id)] = loaded
	return loaded, nil
}

// List returns all in-memory sessions in no particular order
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	return out
}

// Delete removes a session from memory and from disk. The file is
// addressed by the stored ID when the session is loaded.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, inMemory := m.sessions[sessionKey(id)]
	if inMemory {
		id = sess.ID
		delete(m.sessions, sessionKey(id))
	}

	onDisk := m.persistence != nil && ValidSessionID(id) && m.persistence.Exists(id)
	if onDisk {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
	}
	if !inMemory && !onDisk {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory unloads a session and leaves its file alone
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionKey(id)]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionKey(id))
	return nil
}

// Touch marks a session as used now
func (m *Manager) Touch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionKey(id)]
	if !ok {
		return ErrSessionNotFound
	}
	sess.LastAccessedAt = time.Now()
	return nil
}

// Save writes one session through persistence. Without persistence it is a no-op.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sess, ok := m.sessions[sessionKey(id)]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	return m.persistence.Save(sess)
}

// CleanupExpiredSessions unloads sessions idle for longer than maxAge.
// Persisted copies stay on disk and reload on the next Get.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, sess := range m.sessions {
		if sess.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

// PruneOrphans unloads sessions whose file was removed from disk, so deleting
// a session file ends that session. It returns the pruned IDs.
func (m *Manager) PruneOrphans() []string {
	if m.persistence == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var pruned []string
	for key, sess := range m.sessions {
		if !m.persistence.Exists(sess.ID) {
			delete(m.sessions, key)
			pruned = append(pruned, sess.ID)
		}
	}
	return pruned
}

// Count returns the number of in-memory sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID returns 4 hex characters unused in memory and on disk.
// Callers hold m.mu.
func (m *Manager) generateSessionID() (string, error) {
	var b [2]byte
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if _, err := io.ReadFull(m.random, b[:]); err != nil {
			return "", fmt.Errorf("failed to generate session ID: %w", err)
		}
		id := hex.EncodeToString(b[:])
		if _, taken := m.sessions[id]; taken {
			continue
		}
		if m.persistence != nil && m.persistence.Exists(id) {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrSessionIDsExhausted, maxIDAttempts)
}

// LoadPersistedSessions reads every saved session into memory. Files that
// fail to load are logged and skipped.
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		if _, ok := m.sessions[sessionKey(id)]; ok {
			continue
		}
		sess, err := m.persistence.Load(id)
		if err != nil {
			log.Printf("[Sessions] skipping %s: %v", id, err)
			continue
		}
		m.sessions[sessionKey(id)] = sess
		loaded++
	}

	if loaded > 0 {
		log.Printf("[Sessions] loaded %d persisted sessions from storage", loaded)
	}
	return nil
}

// SaveAllSessions writes every in-memory session and joins the failures
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	var errs []error
	for _, sess := range m.List() {
		if err := m.persistence.Save(sess); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", sess.ID, err))
		}
	}
	return errors.Join(errs...)
}
