package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MarshTheBacca/dotto/game/engine"
	log "github.com/sirupsen/logrus"
)

var (
	ErrGameNotFinished = errors.New("game is not finished")
	ErrInvalidName     = errors.New("invalid name")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	scores   ScoreLedger
	notifier Notifier
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance. The notifier may be
// nil when nobody is watching.
func NewGameService(sessions SessionManager, configs ConfigManager, scores ScoreLedger, notifier Notifier) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		scores:   scores,
		notifier: notifier,
	}
}

// CreateSession generates a new board and hosts it
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, preset, err := s.resolveSettings(opts)
	if err != nil {
		return nil, err
	}

	game, err := engine.NewGame(settings, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", game, preset)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.WithFields(log.Fields{
		"session": session.ID,
		"preset":  preset,
		"length":  settings.Length,
		"width":   settings.Width,
	}).Info("created session")

	return sessionInfo(session), nil
}

func (s *gameServiceImpl) resolveSettings(opts CreateOptions) (engine.Settings, string, error) {
	if opts.Settings != nil {
		return *opts.Settings, "", nil
	}
	if opts.Preset == "" {
		return s.configs.Current(), "", nil
	}
	preset, err := s.configs.LoadPreset(opts.Preset)
	if err != nil {
		available, listErr := s.configs.ListPresets()
		if listErr == nil && len(available) > 0 {
			ids := make([]string, 0, len(available))
			for _, p := range available {
				ids = append(ids, p.PresetID)
			}
			return engine.Settings{}, "", fmt.Errorf("preset '%s' not found. Available presets: %v: %w", opts.Preset, ids, err)
		}
		return engine.Settings{}, "", fmt.Errorf("failed to load preset %s: %w", opts.Preset, err)
	}
	return preset.Settings, opts.Preset, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	log.WithField("session", sessionID).Info("deleted session")
	return nil
}

// BeginTurn spawns the turn's powerup, if one is due, and reports whose
// turn it is
func (s *gameServiceImpl) BeginTurn(ctx context.Context, sessionID string) (*TurnInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	game := session.Game
	if game.Finished() {
		return nil, engine.ErrGameOver
	}

	info := &TurnInfo{
		Player:     game.Turn(),
		TurnNumber: game.TurnNumber(),
	}
	if spawned, ok := game.BeginTurn(); ok {
		info.SpawnedPowerup = &spawned
		s.persist(sessionID)
		s.notifyEvent(sessionID, GameEvent{
			Type:      "spawn",
			Message:   fmt.Sprintf("A powerup appeared at %s", engine.FormatCoord(spawned, game.Board().Width())),
			Timestamp: time.Now(),
		})
	}

	snap := game.Snapshot()
	info.Snapshot = &snap
	info.Stuck = len(game.MovableDots(1)) == 0
	s.sessions.UpdateLastAccessed(sessionID)
	return info, nil
}

// Apply validates and performs one action for the player whose turn it is
func (s *gameServiceImpl) Apply(ctx context.Context, sessionID string, action engine.Action) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	game := session.Game

	result, err := game.Apply(action)
	if err != nil {
		log.WithFields(log.Fields{
			"session": sessionID,
			"action":  action.Kind.String(),
		}).WithError(err).Debug("action rejected")
		return nil, err
	}

	events := describe(result, game.Board().Width())
	snap := game.Snapshot()

	s.sessions.UpdateLastAccessed(sessionID)
	s.persist(sessionID)

	if s.notifier != nil {
		s.notifier.BroadcastToSession(sessionID, &snap)
		for _, event := range events {
			s.notifier.BroadcastEvent(sessionID, event.Type, event)
		}
	}

	log.WithFields(log.Fields{
		"session": sessionID,
		"player":  int(result.Player),
		"action":  result.Kind.String(),
		"turn":    result.TurnNumber,
	}).Debug("action applied")

	return &ActionResult{
		Result:   result,
		Snapshot: &snap,
		Events:   events,
	}, nil
}

// LegalMoves lists every movable dot of the current player
func (s *gameServiceImpl) LegalMoves(ctx context.Context, sessionID string, step int) ([]engine.DotMoves, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	if step < 1 {
		step = 1
	}
	return session.Game.LegalMoves(step), nil
}

// GetSnapshot returns a copy of the session's game state
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	snap := session.Game.Snapshot()
	return &snap, nil
}

// GetSettings returns the settings new games are generated from
func (s *gameServiceImpl) GetSettings(ctx context.Context) (engine.Settings, error) {
	return s.configs.Current(), nil
}

// SaveSettings validates and stores the current settings
func (s *gameServiceImpl) SaveSettings(ctx context.Context, settings engine.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.configs.SaveCurrent(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ListPresets returns the stored presets
func (s *gameServiceImpl) ListPresets(ctx context.Context) ([]*PresetInfo, error) {
	return s.configs.ListPresets()
}

// LoadPreset reads a single preset
func (s *gameServiceImpl) LoadPreset(ctx context.Context, name string) (*Preset, error) {
	return s.configs.LoadPreset(name)
}

// SavePreset stores a preset under name
func (s *gameServiceImpl) SavePreset(ctx context.Context, name string, preset *Preset) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: preset name is empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := preset.Settings.Validate(); err != nil {
		return err
	}
	return s.configs.SavePreset(name, preset)
}

// UsePreset makes a preset's settings the current settings
func (s *gameServiceImpl) UsePreset(ctx context.Context, name string) (engine.Settings, error) {
	preset, err := s.configs.LoadPreset(name)
	if err != nil {
		return engine.Settings{}, err
	}
	if err := s.SaveSettings(ctx, preset.Settings); err != nil {
		return engine.Settings{}, err
	}
	return preset.Settings, nil
}

// RecordScore appends the winner of a finished session to the ledger
func (s *gameServiceImpl) RecordScore(ctx context.Context, sessionID, name string) (*ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, ",\r\n") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	game := session.Game
	if !game.Finished() {
		return nil, ErrGameNotFinished
	}

	settings := game.Settings()
	record := ScoreRecord{
		Name:   name,
		Length: settings.Length,
		Width:  settings.Width,
		Dots:   settings.NumDots,
		Turns:  game.TurnNumber(),
	}
	if err := s.scores.Append(record); err != nil {
		return nil, fmt.Errorf("failed to record score: %w", err)
	}
	log.WithFields(log.Fields{"name": name, "turns": record.Turns}).Info("recorded score")
	return &record, nil
}

// ListScores returns every recorded score in the order they were saved
func (s *gameServiceImpl) ListScores(ctx context.Context) ([]ScoreRecord, error) {
	return s.scores.Load()
}

func (s *gameServiceImpl) persist(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.WithField("session", sessionID).WithError(err).Warn("failed to persist session")
	}
}

func (s *gameServiceImpl) notifyEvent(sessionID string, event GameEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastEvent(sessionID, event.Type, event)
}

func sessionInfo(session *Session) *SessionInfo {
	game := session.Game
	snap := game.Snapshot()
	return &SessionInfo{
		ID:             session.ID,
		Preset:         session.Preset,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Status:         game.Status(),
		Turn:           game.Turn(),
		TurnNumber:     game.TurnNumber(),
		Winner:         game.Winner(),
		Reason:         game.Reason(),
		Snapshot:       &snap,
		Settings:       game.Settings(),
	}
}

// describe turns an action result into the messages shown to players
func describe(result *engine.Result, width int) []GameEvent {
	now := time.Now()
	player := result.Player
	var events []GameEvent
	add := func(kind, format string, args ...interface{}) {
		events = append(events, GameEvent{
			Type:      kind,
			Message:   fmt.Sprintf(format, args...),
			Player:    player,
			Timestamp: now,
		})
	}
	coord := func(c engine.Coord) string { return engine.FormatCoord(c, width) }

	switch result.Kind {
	case engine.ActionDelete:
		add("delete", "%s deleted a space", player)
	case engine.ActionCreate:
		add("create", "%s created a space", player)
	case engine.ActionConcede:
		add("concede", "%s conceded", player)
	case engine.ActionUsePowerup:
		switch result.Powerup {
		case engine.PortalPowerup:
			add("portal", "%s placed a portal", player)
		case engine.Destroyer:
			add("destroy", "%s destroyed a barrier", player)
		}
	}

	if move := result.Move; move != nil {
		add("move", "%s moved %s to %s", player, coord(move.From), coord(move.To))
		if move.Teleported {
			add("teleport", "%s went through a portal at %s", player, coord(move.Entered))
		}
		if move.Pickup != "" {
			add("pickup", "%s picked up a %s!", player, move.Pickup)
		}
		if move.Captured {
			add("capture", "%s captured a dot at %s", player, coord(move.To))
		}
		if move.Collapsed {
			add("collapse", "The crumbly space at %s collapsed", coord(move.From))
		}
	}

	if result.Finished {
		player = result.Winner
		add("victory", "%s has won in %d turns!", result.Winner, result.TurnNumber)
	}
	return events
}
