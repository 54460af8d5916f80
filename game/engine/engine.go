package engine

import (
	"fmt"
	"math/rand/v2"
)

// Status is the lifecycle state of a game
type Status string

const (
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// FinishReason explains how a finished game ended
type FinishReason string

const (
	ReasonDefeat     FinishReason = "defeat"
	ReasonConcession FinishReason = "concession"
)

// Player is one side's inventory and budgets
type Player struct {
	ID        PlayerID      `json:"id"`
	Inventory []PowerupKind `json:"inventory"`
	Deletes   int           `json:"deletes"`
	Creates   int           `json:"creates"`
}

func (p *Player) clone() Player {
	out := *p
	out.Inventory = append([]PowerupKind{}, p.Inventory...)
	return out
}

// DotMoves lists where a single dot can go
type DotMoves struct {
	Dot          Coord               `json:"dot"`
	Destinations map[Direction]Coord `json:"destinations"`
}

// Game is a single match between two players. It is not safe for
// concurrent use.
type Game struct {
	settings    Settings
	board       *Board
	rng         Rand
	players     [2]*Player
	turn        PlayerID
	turnNumber  int
	spawnedTurn int
	status      Status
	winner      PlayerID
	reason      FinishReason
}

// NewGame validates settings and generates a fresh board. A nil rng falls
// back to a randomly seeded PCG source.
func NewGame(s Settings, rng Rand) (*Game, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return NewGameFromBoard(s, Generate(s, rng), rng), nil
}

// NewGameFromBoard starts a game on a prepared board. Budgets come from s;
// the board's dimensions take precedence over s.Length and s.Width.
func NewGameFromBoard(s Settings, b *Board, rng Rand) *Game {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.Length, s.Width = b.Length(), b.Width()
	if s.PowerupFrequency < 1 {
		s.PowerupFrequency = 1
	}
	g := &Game{
		settings:   s,
		board:      b,
		rng:        rng,
		turn:       Player1,
		turnNumber: 1,
		status:     StatusPlaying,
	}
	for i := range g.players {
		g.players[i] = &Player{
			ID:        PlayerID(i + 1),
			Inventory: []PowerupKind{},
			Deletes:   s.NumDeletes,
			Creates:   s.NumCreates,
		}
	}
	return g
}

// Settings returns the settings the game was created with
func (g *Game) Settings() Settings { return g.settings }

// Board exposes the board for reading. Callers must not mutate it.
func (g *Game) Board() *Board { return g.board }

// Turn returns the player to act
func (g *Game) Turn() PlayerID { return g.turn }

// TurnNumber returns the current turn, starting at 1
func (g *Game) TurnNumber() int { return g.turnNumber }

// Status returns whether the game is still being played
func (g *Game) Status() Status { return g.status }

// Finished reports whether the game has a winner
func (g *Game) Finished() bool { return g.status == StatusFinished }

// Winner returns the winning player, or NoPlayer while playing
func (g *Game) Winner() PlayerID { return g.winner }

// Reason returns how the game ended
func (g *Game) Reason() FinishReason { return g.reason }

// Player returns a copy of a player's inventory and budgets
func (g *Game) Player(id PlayerID) Player {
	if !id.Valid() {
		return Player{}
	}
	return g.player(id).clone()
}

func (g *Game) player(id PlayerID) *Player {
	return g.players[id-1]
}

// BeginTurn runs the start-of-turn step: every powerup_frequency turns a
// powerup spawns. It acts at most once per turn number, so calling it again
// after a cancelled action does nothing.
func (g *Game) BeginTurn() (Coord, bool) {
	if g.status != StatusPlaying || g.spawnedTurn == g.turnNumber {
		return Coord{}, false
	}
	g.spawnedTurn = g.turnNumber
	if g.turnNumber%g.settings.PowerupFrequency != 0 {
		return Coord{}, false
	}
	return g.board.SpawnPowerup(g.rng)
}

// LegalMoves returns the destinations of every dot of the current player,
// in dot order. Dots with no legal direction have an empty map.
func (g *Game) LegalMoves(step int) []DotMoves {
	dots := g.board.DotCoords(g.turn)
	out := make([]DotMoves, 0, len(dots))
	for _, dot := range dots {
		out = append(out, DotMoves{Dot: dot, Destinations: g.board.Destinations(dot, step, g.turn)})
	}
	return out
}

// MovableDots returns the current player's dots that have at least one
// legal direction
func (g *Game) MovableDots(step int) []Coord {
	var out []Coord
	for _, m := range g.LegalMoves(step) {
		if len(m.Destinations) > 0 {
			out = append(out, m.Dot)
		}
	}
	return out
}

// Apply performs one action for the current player. On error nothing has
// changed and the same player is still to act. The turn's powerup spawn is
// not part of the action; callers run BeginTurn before showing the board.
func (g *Game) Apply(a Action) (*Result, error) {
	if g.status != StatusPlaying {
		return nil, ErrGameOver
	}

	res := &Result{Kind: a.Kind, Player: g.turn, TurnNumber: g.turnNumber}
	var err error
	switch a.Kind {
	case ActionMove:
		res.Move, err = g.move(a.Dot, a.Direction, 1)
	case ActionDelete:
		err = g.deleteCell(a.Target)
	case ActionCreate:
		err = g.createCell(a.Target)
	case ActionUsePowerup:
		res.Powerup, res.Move, err = g.usePowerup(a)
	case ActionConcede:
		g.finish(g.turn.Opponent(), ReasonConcession)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownAction, a.Kind)
	}
	if err != nil {
		return nil, err
	}

	if a.Kind != ActionConcede {
		g.endTurn()
	}
	res.Finished = g.Finished()
	res.Winner = g.winner
	return res, nil
}

func (g *Game) move(dot Coord, d Direction, step int) (*MoveOutcome, error) {
	if !g.board.InBounds(dot) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfBounds, FormatCoord(dot, g.board.width))
	}
	if !g.board.HasDot(g.turn, dot) {
		return nil, fmt.Errorf("%w: %s", ErrNotYourDot, FormatCoord(dot, g.board.width))
	}
	dests := g.board.Destinations(dot, step, g.turn)
	if len(dests) == 0 {
		return nil, ErrNoLegalMoves
	}
	if _, ok := directionNames[d]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDirection, d)
	}
	dest, ok := dests[d]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIllegalDirection, d.Name())
	}
	outcome := g.applyMove(dot, dest)
	return &outcome, nil
}

func (g *Game) deleteCell(target Coord) error {
	p := g.player(g.turn)
	if p.Deletes == 0 {
		return ErrNoDeletesLeft
	}
	if err := g.requireCell(target, Open); err != nil {
		return err
	}
	g.board.Set(target, Void)
	p.Deletes--
	return nil
}

func (g *Game) createCell(target Coord) error {
	p := g.player(g.turn)
	if p.Creates == 0 {
		return ErrNoCreatesLeft
	}
	if err := g.requireCell(target, Void); err != nil {
		return err
	}
	g.board.Set(target, Open)
	p.Creates--
	return nil
}

func (g *Game) usePowerup(a Action) (PowerupKind, *MoveOutcome, error) {
	p := g.player(g.turn)
	if len(p.Inventory) == 0 {
		return "", nil, ErrNoPowerups
	}
	if a.Slot < 0 || a.Slot >= len(p.Inventory) {
		return "", nil, fmt.Errorf("%w: %d", ErrInvalidSlot, a.Slot+1)
	}
	kind := p.Inventory[a.Slot]
	if a.Powerup != "" && a.Powerup != kind {
		return "", nil, fmt.Errorf("%w: slot %d holds %s", ErrPowerupMismatch, a.Slot+1, kind)
	}

	var outcome *MoveOutcome
	switch kind {
	case PortalPowerup:
		if err := g.placePortal(a.Target, a.Second); err != nil {
			return "", nil, err
		}
	case DoubleJump:
		var err error
		if outcome, err = g.move(a.Dot, a.Direction, 2); err != nil {
			return "", nil, err
		}
	case Destroyer:
		if err := g.requireCell(a.Target, Barrier); err != nil {
			return "", nil, err
		}
		g.board.Set(a.Target, Open)
	default:
		panic(fmt.Sprintf("engine: unknown powerup %q in inventory", kind))
	}

	kept := make([]PowerupKind, 0, len(p.Inventory)-1)
	kept = append(kept, p.Inventory[:a.Slot]...)
	p.Inventory = append(kept, p.Inventory[a.Slot+1:]...)
	return kind, outcome, nil
}

// placePortal checks both endpoints before touching the board, so a bad
// second endpoint leaves the first one Open.
func (g *Game) placePortal(entrance, exit Coord) error {
	if err := g.requireCell(entrance, Open); err != nil {
		return err
	}
	if err := g.requireCell(exit, Open); err != nil {
		return err
	}
	if entrance == exit {
		return fmt.Errorf("%w: %s", ErrSameCell, FormatCoord(entrance, g.board.width))
	}
	g.board.Set(entrance, PortalMarker)
	g.board.Set(exit, PortalMarker)
	g.board.addPortal(Portal{A: entrance, B: exit})
	return nil
}

func (g *Game) requireCell(c Coord, want Cell) error {
	if !g.board.InBounds(c) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, c)
	}
	if got := g.board.Get(c); got != want {
		return fmt.Errorf("%w: %s is %s, not %s", ErrCellMismatch, FormatCoord(c, g.board.width), got.Name(), want.Name())
	}
	return nil
}

// endTurn declares the current player the winner if the opponent has no
// dots left, otherwise hands the turn over.
func (g *Game) endTurn() {
	opponent := g.turn.Opponent()
	if g.board.Count(opponent.Dot()) == 0 {
		g.finish(g.turn, ReasonDefeat)
		return
	}
	g.turn = opponent
	g.turnNumber++
}

func (g *Game) finish(winner PlayerID, reason FinishReason) {
	g.status = StatusFinished
	g.winner = winner
	g.reason = reason
}
