package engine

import (
	"fmt"
	"strings"
)

// PlayerSnapshot is a player's public state plus their dots
type PlayerSnapshot struct {
	Player
	Symbol string  `json:"symbol"`
	Dots   []Coord `json:"dots"`
}

// Snapshot is a complete, self-contained copy of a game. It is what gets
// rendered, sent to spectators and written to disk.
type Snapshot struct {
	Settings    Settings         `json:"settings"`
	Length      int              `json:"length"`
	Width       int              `json:"width"`
	Rows        []string         `json:"rows"`
	Turn        PlayerID         `json:"turn"`
	TurnNumber  int              `json:"turn_number"`
	SpawnedTurn int              `json:"spawned_turn"`
	Status      Status           `json:"status"`
	Winner      PlayerID         `json:"winner,omitempty"`
	Reason      FinishReason     `json:"reason,omitempty"`
	Players     []PlayerSnapshot `json:"players"`
	Portals     []Portal         `json:"portals"`
	Crumblies   []Coord          `json:"crumblies"`
	Powerups    []Coord          `json:"powerups"`
}

// Snapshot captures the current game state
func (g *Game) Snapshot() Snapshot {
	snap := Snapshot{
		Settings:    g.settings,
		Length:      g.board.length,
		Width:       g.board.width,
		Rows:        g.board.Rows(),
		Turn:        g.turn,
		TurnNumber:  g.turnNumber,
		SpawnedTurn: g.spawnedTurn,
		Status:      g.status,
		Winner:      g.winner,
		Reason:      g.reason,
		Portals:     g.board.Portals(),
		Crumblies:   g.board.Crumblies(),
		Powerups:    g.board.Powerups(),
	}
	for _, p := range g.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			Player: p.clone(),
			Symbol: p.ID.Dot().String(),
			Dots:   g.board.DotCoords(p.ID),
		})
	}
	return snap
}

// Cell returns the symbol at c, or false when c is off the board
func (s Snapshot) Cell(c Coord) (Cell, bool) {
	if c.Row < 0 || c.Row >= len(s.Rows) || c.Col < 0 || c.Col >= len(s.Rows[c.Row]) {
		return 0, false
	}
	return Cell(s.Rows[c.Row][c.Col]), true
}

// PlayerState returns the snapshot of one player
func (s Snapshot) PlayerState(id PlayerID) (PlayerSnapshot, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerSnapshot{}, false
}

// Text lays the board out as plain text: one tab separated row per line
// led by its letters, with the column numbers underneath
func (s Snapshot) Text() string {
	var b strings.Builder
	for r, row := range s.Rows {
		b.WriteString(RowLabel(r))
		for i := 0; i < len(row); i++ {
			b.WriteByte('\t')
			b.WriteByte(row[i])
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	for c := 0; c < s.Width; c++ {
		b.WriteByte('\t')
		b.WriteString(ColumnLabel(c, s.Width))
	}
	b.WriteByte('\n')
	return b.String()
}

// Restore rebuilds a game from a snapshot, checking that the indices it
// carries agree with the grid.
func Restore(s Snapshot, rng Rand) (*Game, error) {
	if err := s.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	b, err := BoardFromRows(s.Rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if b.Length() != s.Settings.Length || b.Width() != s.Settings.Width {
		return nil, fmt.Errorf("%w: board is %dx%d but settings say %dx%d",
			ErrCorruptState, b.Length(), b.Width(), s.Settings.Length, s.Settings.Width)
	}

	b.crumblies = make(map[Coord]struct{}, len(s.Crumblies))
	for _, c := range s.Crumblies {
		if !b.InBounds(c) {
			return nil, fmt.Errorf("%w: crumbly %s is off the board", ErrCorruptState, c)
		}
		b.crumblies[c] = struct{}{}
	}

	markers := 0
	for _, p := range s.Portals {
		if p.A == p.B {
			return nil, fmt.Errorf("%w: portal endpoints coincide at %s", ErrCorruptState, p.A)
		}
		for _, end := range []Coord{p.A, p.B} {
			if !b.InBounds(end) || b.Get(end) != PortalMarker {
				return nil, fmt.Errorf("%w: portal endpoint %s is not a portal marker", ErrCorruptState, end)
			}
		}
		b.addPortal(p)
		markers += 2
	}
	if markers != b.Count(PortalMarker) {
		return nil, fmt.Errorf("%w: %d portal markers on the grid but %d in the portal list",
			ErrCorruptState, b.Count(PortalMarker), markers)
	}

	if !s.Turn.Valid() || s.TurnNumber < 1 {
		return nil, fmt.Errorf("%w: turn %d of turn number %d", ErrCorruptState, s.Turn, s.TurnNumber)
	}
	switch s.Status {
	case StatusPlaying:
	case StatusFinished:
		if !s.Winner.Valid() {
			return nil, fmt.Errorf("%w: finished game has no winner", ErrCorruptState)
		}
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrCorruptState, s.Status)
	}

	g := NewGameFromBoard(s.Settings, b, rng)
	g.turn = s.Turn
	g.turnNumber = s.TurnNumber
	g.spawnedTurn = s.SpawnedTurn
	g.status = s.Status
	g.winner = s.Winner
	g.reason = s.Reason

	if len(s.Players) != len(g.players) {
		return nil, fmt.Errorf("%w: expected %d players, got %d", ErrCorruptState, len(g.players), len(s.Players))
	}
	seen := make(map[PlayerID]bool, len(s.Players))
	for _, ps := range s.Players {
		if !ps.ID.Valid() {
			return nil, fmt.Errorf("%w: unknown player %d", ErrCorruptState, ps.ID)
		}
		if seen[ps.ID] {
			return nil, fmt.Errorf("%w: %s appears twice", ErrCorruptState, ps.ID)
		}
		seen[ps.ID] = true
		if !sameCoords(ps.Dots, b.DotCoords(ps.ID)) {
			return nil, fmt.Errorf("%w: %s's dots %v do not match the grid %v",
				ErrCorruptState, ps.ID, ps.Dots, b.DotCoords(ps.ID))
		}
		if ps.Deletes < 0 || ps.Creates < 0 {
			return nil, fmt.Errorf("%w: %s has a negative budget", ErrCorruptState, ps.ID)
		}
		for _, kind := range ps.Inventory {
			if !kind.Valid() {
				return nil, fmt.Errorf("%w: %s holds unknown powerup %q", ErrCorruptState, ps.ID, kind)
			}
		}
		p := ps.Player.clone()
		g.players[ps.ID-1] = &p
	}
	return g, nil
}

func sameCoords(a, b []Coord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
