package engine

import (
	"fmt"
	"strings"
)

// Cell represents the content of a single grid cell. The underlying byte is
// the symbol shown on the board.
type Cell byte

const (
	Open         Cell = '/'
	Void         Cell = ' '
	Player1Dot   Cell = 'O'
	Player2Dot   Cell = 'X'
	Barrier      Cell = '#'
	Powerup      Cell = '?'
	Crumbly      Cell = '~'
	PortalMarker Cell = '@'

	// Validation constants
	MinBoardSize     = 5
	MaxBoardSize     = 15
	spawnAttempts    = 100
	barrierAttempts  = 1000
	largestFootprint = 4
)

// TriangleNumbers bounds how many dots fit in a triangular starting cluster.
var TriangleNumbers = []int{1, 3, 6, 10, 15, 21, 28, 36, 45, 55, 66, 78, 91, 105}

var cellNames = map[Cell]string{
	Open:         "open",
	Void:         "void",
	Player1Dot:   "player 1 dot",
	Player2Dot:   "player 2 dot",
	Barrier:      "barrier",
	Powerup:      "powerup",
	Crumbly:      "crumbly",
	PortalMarker: "portal",
}

// String returns the board symbol of the cell
func (c Cell) String() string {
	return string(c)
}

// Name returns a human readable name for the cell
func (c Cell) Name() string {
	if name, ok := cellNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%q)", byte(c))
}

// Valid reports whether c is one of the known cell values
func (c Cell) Valid() bool {
	_, ok := cellNames[c]
	return ok
}

// IsDot reports whether the cell holds a dot of either player
func (c Cell) IsDot() bool {
	return c == Player1Dot || c == Player2Dot
}

// ParseCell converts a board symbol back into a Cell
func ParseCell(symbol byte) (Cell, error) {
	c := Cell(symbol)
	if !c.Valid() {
		return 0, fmt.Errorf("unknown cell symbol %q", symbol)
	}
	return c, nil
}

// PlayerID identifies one of the two players
type PlayerID int

const (
	NoPlayer PlayerID = 0
	Player1  PlayerID = 1
	Player2  PlayerID = 2
)

// Opponent returns the other player
func (p PlayerID) Opponent() PlayerID {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// Dot returns the cell value used for this player's dots
func (p PlayerID) Dot() Cell {
	if p == Player2 {
		return Player2Dot
	}
	return Player1Dot
}

// Valid reports whether p is player 1 or player 2
func (p PlayerID) Valid() bool {
	return p == Player1 || p == Player2
}

func (p PlayerID) String() string {
	return fmt.Sprintf("Player %d", int(p))
}

// owner returns the player whose dot occupies a cell
func owner(c Cell) PlayerID {
	switch c {
	case Player1Dot:
		return Player1
	case Player2Dot:
		return Player2
	}
	return NoPlayer
}

// Coord is a 0-indexed (row, column) position on the board
type Coord struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Add returns c offset by v
func (c Coord) Add(v Coord) Coord {
	return Coord{Row: c.Row + v.Row, Col: c.Col + v.Col}
}

// Less orders coordinates by row, then column
func (c Coord) Less(o Coord) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Direction is one of the four cardinal directions, keyed the way players
// type them.
type Direction string

const (
	Right Direction = "D"
	Left  Direction = "A"
	Down  Direction = "S"
	Up    Direction = "W"
)

// Directions lists the directions in the order they are offered to players
var Directions = []Direction{Right, Left, Down, Up}

var directionNames = map[Direction]string{
	Right: "Right",
	Left:  "Left",
	Down:  "Down",
	Up:    "Up",
}

// Name returns the long name of the direction
func (d Direction) Name() string {
	return directionNames[d]
}

// Vector returns the offset travelled per step for the given step size
func (d Direction) Vector(step int) Coord {
	switch d {
	case Right:
		return Coord{Row: 0, Col: step}
	case Left:
		return Coord{Row: 0, Col: -step}
	case Down:
		return Coord{Row: step, Col: 0}
	case Up:
		return Coord{Row: -step, Col: 0}
	}
	return Coord{}
}

// ParseDirection accepts a direction key (WASD) or its long name, case-insensitively
func ParseDirection(s string) (Direction, error) {
	s = strings.TrimSpace(s)
	for _, d := range Directions {
		if strings.EqualFold(s, string(d)) || strings.EqualFold(s, d.Name()) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// PowerupKind is one of the collectible powerups
type PowerupKind string

const (
	PortalPowerup PowerupKind = "Portal"
	DoubleJump    PowerupKind = "Double-Jump"
	Destroyer     PowerupKind = "Destroyer"
)

// PowerupKinds is the catalog pickups are drawn from
var PowerupKinds = []PowerupKind{PortalPowerup, DoubleJump, Destroyer}

// Valid reports whether k is in the catalog
func (k PowerupKind) Valid() bool {
	for _, known := range PowerupKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Portal is an unordered pair of linked portal markers
type Portal struct {
	A Coord `json:"a" yaml:"a"`
	B Coord `json:"b" yaml:"b"`
}

// Has reports whether c is one of the portal's endpoints
func (p Portal) Has(c Coord) bool {
	return p.A == c || p.B == c
}

// Other returns the endpoint opposite to c
func (p Portal) Other(c Coord) Coord {
	if p.A == c {
		return p.B
	}
	return p.A
}

// Rand is the source of randomness used by generation and pickups.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}
