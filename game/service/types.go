package service

import (
	"time"

	"github.com/MarshTheBacca/dotto/game/engine"
)

// CreateOptions selects the settings a new game is generated from. When
// Settings is nil the named preset is used, and when that is empty too the
// current settings are.
type CreateOptions struct {
	Preset   string           `json:"preset,omitempty"`
	Settings *engine.Settings `json:"settings,omitempty"`
	Rand     engine.Rand      `json:"-"`
}

// SessionInfo provides information about a hosted game
type SessionInfo struct {
	ID             string              `json:"id"`
	Preset         string              `json:"preset,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	Status         engine.Status       `json:"status"`
	Turn           engine.PlayerID     `json:"turn"`
	TurnNumber     int                 `json:"turn_number"`
	Winner         engine.PlayerID     `json:"winner,omitempty"`
	Snapshot       *engine.Snapshot    `json:"snapshot"`
	Settings       engine.Settings     `json:"settings"`
	Reason         engine.FinishReason `json:"reason,omitempty"`
}

// TurnInfo describes the start of a turn
type TurnInfo struct {
	Player         engine.PlayerID  `json:"player"`
	TurnNumber     int              `json:"turn_number"`
	SpawnedPowerup *engine.Coord    `json:"spawned_powerup,omitempty"`
	Snapshot       *engine.Snapshot `json:"snapshot"`
	// Stuck is set when none of the player's dots can make a plain move
	Stuck bool `json:"stuck"`
}

// ActionResult contains the outcome of a player action
type ActionResult struct {
	Result   *engine.Result   `json:"result"`
	Snapshot *engine.Snapshot `json:"snapshot"`
	Events   []GameEvent      `json:"events"`
}

// GameEvent represents something that happened during play
type GameEvent struct {
	Type      string          `json:"type"` // "move", "capture", "pickup", "teleport", "collapse", "delete", "create", "portal", "destroy", "spawn", "concede", "victory"
	Message   string          `json:"message"`
	Player    engine.PlayerID `json:"player,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Preset is a named set of settings stored alongside the game
type Preset struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Settings    engine.Settings `json:"settings" yaml:"settings"`
}

// PresetInfo provides information about a preset file
type PresetInfo struct {
	Filename    string `json:"filename"`
	PresetID    string `json:"preset_id"` // The identifier to load the preset by
	Name        string `json:"name"`
	Description string `json:"description"`
	Length      int    `json:"length"`
	Width       int    `json:"width"`
	NumDots     int    `json:"num_dots"`
	Density     string `json:"density"`
}

// ScoreRecord is one row of the score ledger
type ScoreRecord struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
	Width  int    `json:"width"`
	Dots   int    `json:"dots"`
	Turns  int    `json:"turns"`
}
