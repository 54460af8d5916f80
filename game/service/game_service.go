package service

import (
	"context"
	"time"

	"github.com/MarshTheBacca/dotto/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	BeginTurn(ctx context.Context, sessionID string) (*TurnInfo, error)
	Apply(ctx context.Context, sessionID string, action engine.Action) (*ActionResult, error)
	LegalMoves(ctx context.Context, sessionID string, step int) ([]engine.DotMoves, error)

	// Game State
	GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Settings and presets
	GetSettings(ctx context.Context) (engine.Settings, error)
	SaveSettings(ctx context.Context, settings engine.Settings) error
	ListPresets(ctx context.Context) ([]*PresetInfo, error)
	LoadPreset(ctx context.Context, name string) (*Preset, error)
	SavePreset(ctx context.Context, name string, preset *Preset) error
	UsePreset(ctx context.Context, name string) (engine.Settings, error)

	// Scores
	RecordScore(ctx context.Context, sessionID, name string) (*ScoreRecord, error)
	ListScores(ctx context.Context) ([]ScoreRecord, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, game *engine.Game, preset string) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles the current settings and named presets
type ConfigManager interface {
	Current() engine.Settings
	SaveCurrent(settings engine.Settings) error
	LoadPreset(name string) (*Preset, error)
	ListPresets() ([]*PresetInfo, error)
	SavePreset(name string, preset *Preset) error
}

// ScoreLedger stores finished game results
type ScoreLedger interface {
	Append(record ScoreRecord) error
	Load() ([]ScoreRecord, error)
}

// Notifier receives a snapshot whenever a hosted game changes
type Notifier interface {
	BroadcastToSession(sessionID string, snapshot *engine.Snapshot)
	BroadcastEvent(sessionID string, event string, data interface{})
}

// Session represents a hosted game
type Session struct {
	ID             string
	Game           *engine.Game
	Preset         string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
