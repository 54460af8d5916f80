package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/service"
	log "github.com/sirupsen/logrus"
)

var turnOptions = []string{"Move", "Delete a space", "Create a space", "Use a powerup", "Concede"}

// Match drives one hosted game at the console, alternating between the two
// players sitting at the keyboard.
type Match struct {
	svc       service.GameService
	prompt    *Prompter
	render    *Renderer
	sessionID string
}

// NewMatch creates a console match for an existing session
func NewMatch(svc service.GameService, prompt *Prompter, render *Renderer, sessionID string) *Match {
	return &Match{svc: svc, prompt: prompt, render: render, sessionID: sessionID}
}

// Play runs turns until the game finishes, then offers to save the score.
// It returns the final snapshot.
func (m *Match) Play(ctx context.Context) (*engine.Snapshot, error) {
	log.WithField("session", m.sessionID).Info("match started")

	for {
		snap, err := m.svc.GetSnapshot(ctx, m.sessionID)
		if err != nil {
			return nil, err
		}
		if snap.Status == engine.StatusFinished {
			return snap, m.finish(ctx, snap)
		}

		turn, err := m.svc.BeginTurn(ctx, m.sessionID)
		if err != nil {
			return nil, err
		}
		snap = turn.Snapshot
		if turn.SpawnedPowerup != nil {
			m.prompt.Printf("A powerup appeared at %s\n", engine.FormatCoord(*turn.SpawnedPowerup, snap.Width))
		}

		m.prompt.Println(m.render.Board(snap))
		m.prompt.Println(m.render.TurnHeader(snap))
		if turn.Stuck {
			m.prompt.Println("None of your dots can move right now")
		}

		if err := m.takeTurn(ctx, snap); err != nil {
			if errors.Is(err, ErrCancelled) {
				continue
			}
			return nil, err
		}
	}
}

// takeTurn asks for one action and applies it. ErrCancelled means the same
// player chooses again.
func (m *Match) takeTurn(ctx context.Context, snap *engine.Snapshot) error {
	option, err := m.prompt.Menu("What would you like to do?", turnOptions)
	if err != nil {
		return err
	}

	state, _ := snap.PlayerState(snap.Turn)
	switch option {
	case 0:
		return m.move(ctx, snap, 1, -1)
	case 1:
		if state.Deletes == 0 {
			m.prompt.Println("You have run out of deletes")
			return ErrCancelled
		}
		m.prompt.Printf("Number of deletes remaining: %d\n", state.Deletes)
		return m.editCell(ctx, snap, "Which space would you like to delete?", engine.Open, engine.DeleteAction)
	case 2:
		if state.Creates == 0 {
			m.prompt.Println("You have run out of creates")
			return ErrCancelled
		}
		m.prompt.Printf("Number of creates remaining: %d\n", state.Creates)
		return m.editCell(ctx, snap, "Which space would you like to create?", engine.Void, engine.CreateAction)
	case 3:
		return m.usePowerup(ctx, snap, state.Inventory)
	default:
		sure, err := m.prompt.Confirm("Are you sure?")
		if err != nil {
			return err
		}
		if !sure {
			return ErrCancelled
		}
		return m.apply(ctx, engine.ConcedeAction())
	}
}

// move asks for a dot and a direction. slot is the Double-Jump being spent,
// or -1 for a plain move.
func (m *Match) move(ctx context.Context, snap *engine.Snapshot, step, slot int) error {
	moves, err := m.svc.LegalMoves(ctx, m.sessionID, step)
	if err != nil {
		return err
	}

	dots := make([]string, 0, len(moves))
	for _, dm := range moves {
		dots = append(dots, engine.FormatCoord(dm.Dot, snap.Width))
	}
	choice, err := m.prompt.MenuWithCancel("Which one would you like to move?", dots)
	if err != nil {
		return err
	}

	selected := moves[choice]
	if len(selected.Destinations) == 0 {
		m.prompt.Println("That dot can't move")
		return ErrCancelled
	}

	keys := make([]Key, 0, len(selected.Destinations))
	for _, d := range engine.Directions {
		if _, ok := selected.Destinations[d]; ok {
			keys = append(keys, Key{Key: string(d), Label: d.Name()})
		}
	}
	key, err := m.prompt.Choice("Which direction would you like to move?", keys)
	if err != nil {
		return err
	}

	direction, err := engine.ParseDirection(key)
	if err != nil {
		return err
	}
	if slot >= 0 {
		return m.apply(ctx, engine.DoubleJumpAction(slot, selected.Dot, direction))
	}
	return m.apply(ctx, engine.MoveAction(selected.Dot, direction))
}

// editCell asks for a coordinate holding want until the action succeeds or
// the player cancels
func (m *Match) editCell(ctx context.Context, snap *engine.Snapshot, prompt string, want engine.Cell, action func(engine.Coord) engine.Action) error {
	for {
		target, err := m.prompt.Coord(prompt, snap.Length, snap.Width)
		if err != nil {
			return err
		}
		err = m.apply(ctx, action(target))
		if errors.Is(err, engine.ErrCellMismatch) {
			m.prompt.Printf("Coordinate does not correspond to %s\n", article(want))
			continue
		}
		return err
	}
}

func (m *Match) usePowerup(ctx context.Context, snap *engine.Snapshot, inventory []engine.PowerupKind) error {
	if len(inventory) == 0 {
		m.prompt.Println("You don't have any powerups")
		return ErrCancelled
	}

	names := make([]string, 0, len(inventory))
	for _, kind := range inventory {
		names = append(names, string(kind))
	}
	slot, err := m.prompt.MenuWithCancel("Which one would you like to use?", names)
	if err != nil {
		return err
	}

	switch inventory[slot] {
	case engine.PortalPowerup:
		return m.placePortal(ctx, snap, slot)
	case engine.DoubleJump:
		return m.move(ctx, snap, 2, slot)
	case engine.Destroyer:
		return m.editCell(ctx, snap, "Which barrier would you like to destroy?", engine.Barrier, func(c engine.Coord) engine.Action {
			return engine.DestroyerAction(slot, c)
		})
	}
	return fmt.Errorf("unknown powerup %q", inventory[slot])
}

// placePortal collects both ends before anything changes, so cancelling the
// exit leaves the board as it was
func (m *Match) placePortal(ctx context.Context, snap *engine.Snapshot, slot int) error {
	openCell := func(prompt string, taken *engine.Coord) (engine.Coord, error) {
		for {
			c, err := m.prompt.Coord(prompt, snap.Length, snap.Width)
			if err != nil {
				return c, err
			}
			if cell, _ := snap.Cell(c); cell != engine.Open {
				m.prompt.Printf("Coordinate does not correspond to %s\n", article(engine.Open))
				continue
			}
			if taken != nil && *taken == c {
				m.prompt.Println("The exit must be a different space to the entrance")
				continue
			}
			return c, nil
		}
	}

	entrance, err := openCell("Where would you like the entrance to your portal?", nil)
	if err != nil {
		return err
	}
	exit, err := openCell("Where would you like the exit to your portal?", &entrance)
	if err != nil {
		return err
	}
	err = m.apply(ctx, engine.PortalAction(slot, entrance, exit))
	if errors.Is(err, engine.ErrCellMismatch) {
		m.prompt.Printf("Coordinate does not correspond to %s\n", article(engine.Open))
		return ErrCancelled
	}
	return err
}

// apply hands the action to the service and reports what happened
func (m *Match) apply(ctx context.Context, action engine.Action) error {
	result, err := m.svc.Apply(ctx, m.sessionID, action)
	if err != nil {
		if errors.Is(err, engine.ErrCellMismatch) {
			return err
		}
		if isRuleError(err) {
			m.prompt.Println(capitalise(err.Error()))
			return ErrCancelled
		}
		return err
	}

	for _, event := range result.Events {
		switch event.Type {
		case "move", "victory":
			// the board and the final line already show these
		default:
			m.prompt.Println(event.Message)
		}
	}
	return nil
}

// finish announces the winner and offers to save the score
func (m *Match) finish(ctx context.Context, snap *engine.Snapshot) error {
	m.prompt.Println(m.render.Board(snap))
	m.prompt.Println(m.render.Winner(snap.Winner, snap.TurnNumber))
	log.WithFields(log.Fields{
		"session": m.sessionID,
		"winner":  int(snap.Winner),
		"turns":   snap.TurnNumber,
		"reason":  snap.Reason,
	}).Info("match finished")

	save, err := m.prompt.Confirm("Would you like to save your scores?")
	if err != nil || !save {
		return err
	}
	for {
		name, err := m.prompt.Text("Enter your names", 1, 40)
		if err != nil {
			return err
		}
		if _, err := m.svc.RecordScore(ctx, m.sessionID, name); err != nil {
			if errors.Is(err, service.ErrInvalidName) {
				m.prompt.Println("Names must not contain commas")
				continue
			}
			return err
		}
		m.prompt.Println("Score saved")
		return nil
	}
}

// isRuleError reports whether err is a rejected move the player can retry
func isRuleError(err error) bool {
	for _, rule := range []error{
		engine.ErrNoDeletesLeft, engine.ErrNoCreatesLeft, engine.ErrNoPowerups,
		engine.ErrInvalidSlot, engine.ErrPowerupMismatch, engine.ErrNotYourDot,
		engine.ErrNoLegalMoves, engine.ErrIllegalDirection, engine.ErrOutOfBounds,
		engine.ErrSameCell, engine.ErrUnknownDirection,
	} {
		if errors.Is(err, rule) {
			return true
		}
	}
	return false
}

func article(c engine.Cell) string {
	switch c {
	case engine.Open:
		return "an open space"
	case engine.Void:
		return "a void"
	case engine.Barrier:
		return "a barrier"
	}
	return c.Name()
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
