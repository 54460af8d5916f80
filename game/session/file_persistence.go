package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/service"
)

const saveExt = ".json"

// FilePersistence keeps each unfinished game in <dir>/<id>.json
type FilePersistence struct {
	dir string
}

// NewFilePersistence creates dir if needed and stores games in it
func NewFilePersistence(dir string) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FilePersistence{dir: dir}, nil
}

// path maps an ID to its save file, refusing IDs that aren't safe file names
func (fp *FilePersistence) path(id string) (string, error) {
	if !validID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return filepath.Join(fp.dir, strings.ToLower(id)+saveExt), nil
}

// Save writes the game's snapshot and session metadata. The file is written
// to a temporary name in the same directory and renamed into place.
func (fp *FilePersistence) Save(s *service.Session) error {
	if s == nil {
		return fmt.Errorf("session cannot be nil")
	}
	path, err := fp.path(s.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(PersistedSessionData{
		ID:             s.ID,
		Preset:         s.Preset,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
		Game:           s.Game.Snapshot(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode game %s: %w", s.ID, err)
	}

	tmp, err := os.CreateTemp(fp.dir, ".save-*")
	if err != nil {
		return fmt.Errorf("failed to write game %s: %w", s.ID, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write game %s: %w", s.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write game %s: %w", s.ID, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write game %s: %w", s.ID, err)
	}
	return nil
}

// Load reads a save file and restores the game in it. A snapshot that
// breaks the board rules is rejected by engine.Restore.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	path, err := fp.path(id)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read game %s: %w", id, err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode game %s: %w", id, err)
	}
	game, err := engine.Restore(data.Game, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to restore game %s: %w", id, err)
	}

	return &service.Session{
		ID:             data.ID,
		Game:           game,
		Preset:         data.Preset,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// Delete removes a save file
func (fp *FilePersistence) Delete(id string) error {
	path, err := fp.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove game %s: %w", id, err)
	}
	return nil
}

// ListAll returns the IDs of every save file
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		id, ok := strings.CutSuffix(entry.Name(), saveExt)
		if ok && !entry.IsDir() && validID(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Exists reports whether id has a save file
func (fp *FilePersistence) Exists(id string) bool {
	path, err := fp.path(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
