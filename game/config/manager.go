package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/logicfill/game/engine"
	"github.com/wricardo/logicfill/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = service.ErrInvalidLevel
	ErrNoNextLevel   = service.ErrNoNextLevel
)

// DefaultLevelID is the level used when nothing else is selected
const DefaultLevelID = "default"

// levelExtensions are tried in order when a level ID has no extension
var levelExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultID    string
	defaultLevel *engine.LevelConfig
	levels       map[string]*engine.LevelConfig
	mu           sync.RWMutex
}

// NewManager creates a new level manager over levelDir
func NewManager(levelDir string) (*Manager, error) {
	// Ensure level directory exists
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*engine.LevelConfig),
	}

	m.loadDefaultLevel()
	return m, nil
}

// levelID strips a known extension from name
func levelID(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range levelExtensions {
		if ext == known {
			return strings.TrimSuffix(name, filepath.Ext(name))
		}
	}
	return name
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// findFile returns the path of the file backing a level ID
func (m *Manager) findFile(name string) (string, error) {
	if filepath.Ext(name) != "" && levelID(name) != name {
		path := filepath.Join(m.levelDir, name)
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	for _, ext := range levelExtensions {
		path := filepath.Join(m.levelDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadLevel loads a level by ID. The ID may carry a .json, .yaml or .yml extension.
func (m *Manager) LoadLevel(name string) (*engine.LevelConfig, error) {
	id := levelID(name)
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrLevelNotFound, name)
	}

	m.mu.RLock()
	// Check cache first
	if level, exists := m.levels[id]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[id]; exists {
		return level, nil
	}

	return m.loadLocked(name, id)
}

// loadLocked reads, validates and caches a level. Callers hold m.mu.
func (m *Manager) loadLocked(name, id string) (*engine.LevelConfig, error) {
	path, err := m.findFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, id)
		}
		return nil, fmt.Errorf("failed to locate level file: %w", err)
	}

	level, err := engine.LoadLevelConfig(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLevel, filepath.Base(path), err)
	}

	// Cache the level
	m.levels[id] = level
	return level, nil
}

// ListLevels returns information about all loadable levels ordered by index
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var levels []*service.LevelInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := levelID(entry.Name())
		if id == entry.Name() || seen[id] {
			continue
		}

		// Try to load the level to get details
		level, err := m.LoadLevel(entry.Name())
		if err != nil {
			// Skip invalid levels
			log.Printf("[Levels] skipping %s: %v", entry.Name(), err)
			continue
		}
		seen[id] = true

		levels = append(levels, &service.LevelInfo{
			Filename:         entry.Name(),
			LevelID:          id, // This is the identifier to use for session creation
			Name:             level.Name,
			Description:      level.Description,
			Index:            level.Index,
			Width:            level.Width,
			Height:           level.Height,
			TimeLimitSeconds: level.TimeLimitSeconds,
			FillAllTiles:     level.FillAllTiles,
		})
	}

	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Index != levels[j].Index {
			return levels[i].Index < levels[j].Index
		}
		return levels[i].LevelID < levels[j].LevelID
	})
	return levels, nil
}

// GetDefault returns the default level and its ID
func (m *Manager) GetDefault() (string, *engine.LevelConfig) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID, m.defaultLevel
}

// SetDefault sets the default level by ID
func (m *Manager) SetDefault(name string) error {
	level, err := m.LoadLevel(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = levelID(name)
	m.defaultLevel = level
	return nil
}

// NextLevel returns the first level whose index is greater than the current one
func (m *Manager) NextLevel(id string) (string, *engine.LevelConfig, error) {
	current, err := m.LoadLevel(id)
	if err != nil {
		return "", nil, err
	}
	levels, err := m.ListLevels()
	if err != nil {
		return "", nil, err
	}
	for _, info := range levels {
		if info.Index > current.Index {
			next, err := m.LoadLevel(info.LevelID)
			if err != nil {
				return "", nil, err
			}
			return info.LevelID, next, nil
		}
	}
	return "", nil, fmt.Errorf("%w after %s", ErrNoNextLevel, levelID(id))
}

// ReloadLevel drops a level from the cache and reads it again
func (m *Manager) ReloadLevel(name string) error {
	m.mu.Lock()
	// Remove from cache to force reload
	delete(m.levels, levelID(name))
	m.mu.Unlock()

	_, err := m.LoadLevel(name)
	return err
}

// RefreshCache drops every cached level and re-resolves the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.levels = make(map[string]*engine.LevelConfig)
	m.mu.Unlock()

	m.loadDefaultLevel()
}

// ValidateLevel checks a level without saving it
func (m *Manager) ValidateLevel(level *engine.LevelConfig) error {
	return engine.ValidateLevelConfig(level)
}

// Count returns the number of cached levels
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.levels)
}

// loadDefaultLevel resolves "default", then the first listed level, then the built-in level
func (m *Manager) loadDefaultLevel() {
	id := DefaultLevelID
	level, err := m.LoadLevel(DefaultLevelID)
	if err != nil {
		// Try to load the first available level
		levels, listErr := m.ListLevels()
		if listErr != nil || len(levels) == 0 {
			level = engine.DefaultLevelConfig()
		} else {
			id = levels[0].LevelID
			if level, err = m.LoadLevel(id); err != nil {
				id, level = DefaultLevelID, engine.DefaultLevelConfig()
			}
		}
	}

	m.mu.Lock()
	m.defaultID = id
	m.defaultLevel = level
	m.mu.Unlock()
}

// SaveLevel writes a level to disk. The format follows the extension of
// name, or an existing file for the same ID, and defaults to JSON.
func (m *Manager) SaveLevel(name string, level *engine.LevelConfig) error {
	// Validate level before saving
	if err := engine.ValidateLevelConfig(level); err != nil {
		return err
	}

	id := levelID(name)
	if !validID(id) {
		return fmt.Errorf("%w: invalid level id %q", ErrInvalidLevel, name)
	}

	filename := name
	if id == name {
		filename = id + ".json"
		if existing, err := m.findFile(id); err == nil {
			filename = filepath.Base(existing)
		}
	}
	levelPath := filepath.Join(m.levelDir, filename)

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(level)
	default:
		// Marshal level to JSON with indentation
		data, err = json.MarshalIndent(level, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	if err := os.WriteFile(levelPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.levels[id] = level
	m.mu.Unlock()

	return nil
}
