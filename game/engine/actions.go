package engine

import (
	"errors"
	"fmt"
)

var (
	ErrGameOver         = errors.New("game is over")
	ErrUnknownAction    = errors.New("unknown action")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrOutOfBounds      = errors.New("coordinate is out of bounds")
	ErrMalformedCoord   = errors.New("malformed coordinate")
	ErrCellMismatch     = errors.New("coordinate does not hold the expected cell")
	ErrSameCell         = errors.New("both coordinates are the same cell")
	ErrNoDeletesLeft    = errors.New("you have run out of deletes")
	ErrNoCreatesLeft    = errors.New("you have run out of creates")
	ErrNoPowerups       = errors.New("you don't have any powerups")
	ErrInvalidSlot      = errors.New("no powerup in that slot")
	ErrPowerupMismatch  = errors.New("slot holds a different powerup")
	ErrNotYourDot       = errors.New("you have no dot there")
	ErrNoLegalMoves     = errors.New("that dot can't move")
	ErrIllegalDirection = errors.New("that dot can't move in that direction")
	ErrCorruptState     = errors.New("corrupt game state")
)

// ActionKind is the closed set of things a player can do on their turn
type ActionKind int

const (
	ActionMove ActionKind = iota + 1
	ActionDelete
	ActionCreate
	ActionUsePowerup
	ActionConcede
)

var actionNames = map[ActionKind]string{
	ActionMove:       "move",
	ActionDelete:     "delete",
	ActionCreate:     "create",
	ActionUsePowerup: "use_powerup",
	ActionConcede:    "concede",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// MarshalText encodes the kind by name
func (k ActionKind) MarshalText() ([]byte, error) {
	if _, ok := actionNames[k]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind from its name
func (k *ActionKind) UnmarshalText(text []byte) error {
	for kind, name := range actionNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, text)
}

// Action is a single player intent. Which fields are read depends on Kind:
//
//	Move:        Dot, Direction
//	Delete:      Target
//	Create:      Target
//	UsePowerup:  Slot, Powerup and then
//	               Portal:      Target, Second
//	               Double-Jump: Dot, Direction
//	               Destroyer:   Target
//	Concede:     nothing
type Action struct {
	Kind      ActionKind  `json:"kind"`
	Dot       Coord       `json:"dot,omitempty"`
	Direction Direction   `json:"direction,omitempty"`
	Target    Coord       `json:"target,omitempty"`
	Second    Coord       `json:"second,omitempty"`
	Slot      int         `json:"slot,omitempty"`
	Powerup   PowerupKind `json:"powerup,omitempty"`
}

// MoveAction moves dot one step (plus any void fall-through) in d
func MoveAction(dot Coord, d Direction) Action {
	return Action{Kind: ActionMove, Dot: dot, Direction: d}
}

// DeleteAction turns an Open cell into Void
func DeleteAction(target Coord) Action {
	return Action{Kind: ActionDelete, Target: target}
}

// CreateAction turns a Void cell into Open
func CreateAction(target Coord) Action {
	return Action{Kind: ActionCreate, Target: target}
}

// PortalAction links two Open cells using the Portal in slot
func PortalAction(slot int, entrance, exit Coord) Action {
	return Action{Kind: ActionUsePowerup, Slot: slot, Powerup: PortalPowerup, Target: entrance, Second: exit}
}

// DoubleJumpAction moves dot with step-2 vectors using the Double-Jump in slot
func DoubleJumpAction(slot int, dot Coord, d Direction) Action {
	return Action{Kind: ActionUsePowerup, Slot: slot, Powerup: DoubleJump, Dot: dot, Direction: d}
}

// DestroyerAction clears a Barrier using the Destroyer in slot
func DestroyerAction(slot int, target Coord) Action {
	return Action{Kind: ActionUsePowerup, Slot: slot, Powerup: Destroyer, Target: target}
}

// ConcedeAction hands the game to the opponent
func ConcedeAction() Action {
	return Action{Kind: ActionConcede}
}

// Result describes what a successful action did
type Result struct {
	Kind       ActionKind   `json:"kind"`
	Player     PlayerID     `json:"player"`
	TurnNumber int          `json:"turn_number"`
	Powerup    PowerupKind  `json:"powerup,omitempty"`
	Move       *MoveOutcome `json:"move,omitempty"`
	Finished   bool         `json:"finished"`
	Winner     PlayerID     `json:"winner,omitempty"`
}
