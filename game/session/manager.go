package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/service"
	log "github.com/sirupsen/logrus"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// maxIDLength keeps IDs usable as file names
const maxIDLength = 64

// Manager handles game session lifecycle. IDs are case-insensitive. Finished
// games are kept in memory but dropped from persistence, so only games worth
// resuming stay on disk.
type Manager struct {
	mu          sync.RWMutex
	games       map[string]*service.Session
	persistence SessionPersistence
}

// NewManager creates a manager that keeps games in memory only
func NewManager() *Manager {
	return NewManagerWithPersistence(nil)
}

// NewManagerWithPersistence creates a manager that writes every hosted game
// through persistence
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	return &Manager{
		games:       make(map[string]*service.Session),
		persistence: persistence,
	}
}

func key(id string) string { return strings.ToLower(id) }

// Create hosts game under id. An empty id gets a random 4-character one.
// The new session is written to persistence straight away; a failed write is
// logged and the game is still hosted.
func (m *Manager) Create(id string, game *engine.Game, preset string) (*service.Session, error) {
	if game == nil {
		return nil, fmt.Errorf("game cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case id == "":
		id = m.unusedID()
	case !validID(id):
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	if _, taken := m.games[key(id)]; taken {
		return nil, ErrSessionAlreadyExists
	}

	now := time.Now()
	s := &service.Session{
		ID:             id,
		Game:           game,
		Preset:         preset,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.games[key(id)] = s

	if m.persistence != nil {
		if err := m.persistence.Save(s); err != nil {
			log.WithField("session", id).WithError(err).Warn("failed to persist new game")
		}
	}
	return s, nil
}

// Get returns the session for id. Games saved by an earlier run are loaded
// on first use.
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	s, ok := m.games[key(id)]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	if m.persistence == nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}
	loaded, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved game: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.games[key(id)]; ok {
		return s, nil
	}
	m.games[key(id)] = loaded
	return loaded, nil
}

// List returns every hosted game, oldest first
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	list := make([]*service.Session, 0, len(m.games))
	for _, s := range m.games {
		list = append(list, s)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// Delete forgets a game and removes its save file
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, hosted := m.games[key(id)]
	delete(m.games, key(id))
	m.mu.Unlock()

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete saved game: %w", err)
		}
		return nil
	}
	if !hosted {
		return ErrSessionNotFound
	}
	return nil
}

// UpdateLastAccessed marks a game as in use, keeping it from expiring
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.games[key(id)]
	if !ok {
		return ErrSessionNotFound
	}
	s.LastAccessedAt = time.Now()
	return nil
}

// Save writes a game to persistence, or removes its file once the game is
// over
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	s, ok := m.games[key(id)]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	if !s.Game.Finished() {
		return m.persistence.Save(s)
	}
	if err := m.persistence.Delete(s.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// SaveAllSessions saves every hosted game, carrying on past failures
func (m *Manager) SaveAllSessions() error {
	var failed int
	for _, s := range m.List() {
		if err := m.Save(s.ID); err != nil {
			log.WithField("session", s.ID).WithError(err).Warn("failed to save game")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to save %d games", failed)
	}
	return nil
}

// CleanupExpiredSessions forgets games nobody has touched for maxAge. Save
// files are left alone, so an expired game can still be resumed.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, s := range m.games {
		if s.LastAccessedAt.Before(cutoff) {
			delete(m.games, k)
			removed++
		}
	}
	return removed
}

// LoadPersistedSessions hosts every saved game not already in memory.
// Unreadable files are logged and skipped.
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list saved games: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, id := range ids {
		if _, ok := m.games[key(id)]; ok {
			continue
		}
		s, err := m.persistence.Load(id)
		if err != nil {
			log.WithField("session", id).WithError(err).Warn("failed to load saved game")
			continue
		}
		m.games[key(id)] = s
		count++
	}

	if count > 0 {
		log.WithField("count", count).Info("loaded saved games")
	}
	return nil
}

// Refresh brings memory in line with persistence for a process that only
// watches games played elsewhere. Every saved game is reloaded, and
// unfinished games whose file has gone are dropped.
func (m *Manager) Refresh() (loaded, pruned int, err error) {
	if m.persistence == nil {
		return 0, 0, nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list saved games: %w", err)
	}

	fresh := make(map[string]*service.Session, len(ids))
	for _, id := range ids {
		s, err := m.persistence.Load(id)
		if err != nil {
			log.WithField("session", id).WithError(err).Warn("failed to reload saved game")
			continue
		}
		fresh[key(id)] = s
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, s := range m.games {
		if _, ok := fresh[k]; !ok && !s.Game.Finished() {
			delete(m.games, k)
			pruned++
		}
	}
	for k, s := range fresh {
		m.games[k] = s
		loaded++
	}
	return loaded, pruned, nil
}

// unusedID picks a random 4-character ID free both in memory and on disk.
// Callers hold the write lock.
func (m *Manager) unusedID() string {
	buf := make([]byte, 2)
	for {
		rand.Read(buf)
		id := hex.EncodeToString(buf)
		if _, taken := m.games[id]; taken {
			continue
		}
		if m.persistence != nil && m.persistence.Exists(id) {
			continue
		}
		return id
	}
}

// validID rejects IDs that could escape the sessions directory
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
