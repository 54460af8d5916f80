package session

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/service"
)

func newTestGame(t *testing.T) *engine.Game {
	t.Helper()
	game, err := engine.NewGame(engine.DefaultSettings(), rand.New(rand.NewPCG(3, 4)))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return game
}

func newTestSession(t *testing.T, id string) *service.Session {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	return &service.Session{
		ID:             id,
		Game:           newTestGame(t),
		Preset:         "classic",
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

func TestFilePersistence(t *testing.T) {
	persistence, err := NewFilePersistence(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	session := newTestSession(t, "test1")

	t.Run("Save and Load Session", func(t *testing.T) {
		if err := persistence.Save(session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
		if !persistence.Exists("test1") {
			t.Error("Session file should exist after save")
		}

		loaded, err := persistence.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if loaded.ID != session.ID || loaded.Preset != "classic" {
			t.Errorf("unexpected metadata %+v", loaded)
		}
		if !loaded.CreatedAt.Equal(session.CreatedAt) {
			t.Errorf("Expected created at %v, got %v", session.CreatedAt, loaded.CreatedAt)
		}
		if !reflect.DeepEqual(loaded.Game.Snapshot(), session.Game.Snapshot()) {
			t.Error("restored game differs from the saved one")
		}
	})

	t.Run("Save State Changes", func(t *testing.T) {
		board, err := engine.BoardFromRows([]string{"O////", "/////", "//#//", "/////", "////X"})
		if err != nil {
			t.Fatal(err)
		}
		session.Game = engine.NewGameFromBoard(engine.DefaultSettings(), board, nil)
		if _, err := session.Game.Apply(engine.MoveAction(engine.Coord{}, engine.Right)); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if err := persistence.Save(session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		loaded, err := persistence.Load("TEST1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if loaded.Game.Turn() != engine.Player2 || loaded.Game.TurnNumber() != 2 {
			t.Errorf("expected player 2 on turn 2, got %s on %d", loaded.Game.Turn(), loaded.Game.TurnNumber())
		}
		if !loaded.Game.Board().HasDot(engine.Player1, engine.Coord{Row: 0, Col: 1}) {
			t.Error("expected player 1's dot to have moved")
		}
	})

	t.Run("List and Delete", func(t *testing.T) {
		if err := persistence.Save(newTestSession(t, "test2")); err != nil {
			t.Fatal(err)
		}
		ids, err := persistence.ListAll()
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		sort.Strings(ids)
		if !reflect.DeepEqual(ids, []string{"test1", "test2"}) {
			t.Errorf("unexpected ids %v", ids)
		}

		if err := persistence.Delete("test2"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if persistence.Exists("test2") {
			t.Error("session should be gone after delete")
		}
		if err := persistence.Delete("test2"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Missing Session", func(t *testing.T) {
		if _, err := persistence.Load("nope"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Unsafe IDs", func(t *testing.T) {
		for _, id := range []string{"../escape", "a/b", ""} {
			if _, err := persistence.Load(id); !errors.Is(err, ErrInvalidSessionID) {
				t.Errorf("Load(%q): expected ErrInvalidSessionID, got %v", id, err)
			}
			if persistence.Exists(id) {
				t.Errorf("Exists(%q) should be false", id)
			}
		}
	})
}

func TestFilePersistence_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	persistence, err := NewFilePersistence(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := persistence.Load("junk"); err == nil {
		t.Error("expected an error for malformed JSON")
	}

	// well-formed JSON but a board that breaks the rules
	data := PersistedSessionData{ID: "bad", Game: newTestGame(t).Snapshot()}
	data.Game.Rows[0] = "//"
	raw, _ := json.Marshal(data)
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), raw, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := persistence.Load("bad"); !errors.Is(err, engine.ErrCorruptState) {
		t.Errorf("expected ErrCorruptState, got %v", err)
	}
}

func TestFilePersistenceFileStructure(t *testing.T) {
	dir := t.TempDir()
	persistence, err := NewFilePersistence(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := persistence.Save(newTestSession(t, "abcd")); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "abcd.json"))
	if err != nil {
		t.Fatalf("expected abcd.json: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("session file is not a JSON object: %v", err)
	}
	for _, key := range []string{"id", "preset", "created_at", "last_accessed_at", "game"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("session file is missing %q", key)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files should not be left behind, found %d entries", len(entries))
	}
}
