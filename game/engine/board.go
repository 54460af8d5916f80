package engine

import (
	"fmt"
	"sort"
)

// Board owns the grid and the coordinate indices derived from it.
//
// The dot and powerup indices follow the grid automatically through Set. The
// crumbly set and portal list carry meaning the grid alone cannot express and
// are maintained by the move logic.
type Board struct {
	length    int
	width     int
	cells     [][]Cell
	dots      [2][]Coord
	powerups  map[Coord]struct{}
	crumblies map[Coord]struct{}
	portals   []Portal
}

// NewBoard creates an all-Open board
func NewBoard(length, width int) *Board {
	cells := make([][]Cell, length)
	for r := range cells {
		cells[r] = make([]Cell, width)
		for c := range cells[r] {
			cells[r][c] = Open
		}
	}
	return &Board{
		length:    length,
		width:     width,
		cells:     cells,
		powerups:  make(map[Coord]struct{}),
		crumblies: make(map[Coord]struct{}),
	}
}

// BoardFromRows builds a board from rows of cell symbols. Every Crumbly
// marker is registered in the crumbly set.
func BoardFromRows(rows []string) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("board has no rows")
	}
	width := len(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("board has no columns")
	}
	b := NewBoard(len(rows), width)
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", r, len(row), width)
		}
		for c := 0; c < width; c++ {
			cell, err := ParseCell(row[c])
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", r, c, err)
			}
			b.Set(Coord{r, c}, cell)
			if cell == Crumbly {
				b.crumblies[Coord{r, c}] = struct{}{}
			}
		}
	}
	return b, nil
}

// Length returns the number of rows
func (b *Board) Length() int { return b.length }

// Width returns the number of columns
func (b *Board) Width() int { return b.width }

// InBounds reports whether c lies on the board
func (b *Board) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < b.length && c.Col >= 0 && c.Col < b.width
}

// Get returns the cell at c. c must be in bounds.
func (b *Board) Get(c Coord) Cell {
	return b.cells[c.Row][c.Col]
}

// Set writes a cell and keeps the dot and powerup indices in step with the grid
func (b *Board) Set(c Coord, cell Cell) {
	old := b.cells[c.Row][c.Col]
	if old == cell {
		return
	}
	b.cells[c.Row][c.Col] = cell

	if p := owner(old); p != NoPlayer {
		b.dots[p-1] = removeCoord(b.dots[p-1], c)
	}
	if p := owner(cell); p != NoPlayer {
		b.dots[p-1] = insertCoord(b.dots[p-1], c)
	}

	if old == Powerup {
		delete(b.powerups, c)
	}
	if cell == Powerup {
		b.powerups[c] = struct{}{}
	}
}

// DotCoords returns player p's dot coordinates sorted by (row, col)
func (b *Board) DotCoords(p PlayerID) []Coord {
	if !p.Valid() {
		return nil
	}
	out := make([]Coord, len(b.dots[p-1]))
	copy(out, b.dots[p-1])
	return out
}

// HasDot reports whether player p has a dot at c
func (b *Board) HasDot(p PlayerID, c Coord) bool {
	if !p.Valid() {
		return false
	}
	i := sort.Search(len(b.dots[p-1]), func(i int) bool { return !b.dots[p-1][i].Less(c) })
	return i < len(b.dots[p-1]) && b.dots[p-1][i] == c
}

// Count returns how many cells hold the given value
func (b *Board) Count(cell Cell) int {
	n := 0
	for _, row := range b.cells {
		for _, c := range row {
			if c == cell {
				n++
			}
		}
	}
	return n
}

// IsCrumbly reports whether a dot leaving c collapses it
func (b *Board) IsCrumbly(c Coord) bool {
	_, ok := b.crumblies[c]
	return ok
}

// Crumblies returns the crumbly set, sorted
func (b *Board) Crumblies() []Coord {
	return sortedKeys(b.crumblies)
}

// Powerups returns the coordinates of uncollected powerups, sorted
func (b *Board) Powerups() []Coord {
	return sortedKeys(b.powerups)
}

// Portals returns the active portal pairs in creation order
func (b *Board) Portals() []Portal {
	out := make([]Portal, len(b.portals))
	copy(out, b.portals)
	return out
}

// Rows renders each row as a string of cell symbols
func (b *Board) Rows() []string {
	rows := make([]string, b.length)
	for r, row := range b.cells {
		buf := make([]byte, len(row))
		for c, cell := range row {
			buf[c] = byte(cell)
		}
		rows[r] = string(buf)
	}
	return rows
}

// SpawnPowerup places a single powerup on a random Open cell. It reports
// false when no Open cell was hit within the attempt budget.
func (b *Board) SpawnPowerup(rng Rand) (Coord, bool) {
	placed := b.scatter(rng, 1, Powerup)
	if len(placed) == 0 {
		return Coord{}, false
	}
	return placed[0], true
}

// scatter turns up to n random Open cells into cell using rejection sampling
func (b *Board) scatter(rng Rand, n int, cell Cell) []Coord {
	var placed []Coord
	for attempts := 0; n > 0 && attempts < spawnAttempts; attempts++ {
		c := Coord{Row: rng.IntN(b.length), Col: rng.IntN(b.width)}
		if b.Get(c) == Open {
			b.Set(c, cell)
			placed = append(placed, c)
			n--
		}
	}
	return placed
}

func (b *Board) addPortal(p Portal) {
	b.portals = append(b.portals, p)
}

// takePortal removes and returns the portal with an endpoint at c
func (b *Board) takePortal(c Coord) (Portal, bool) {
	for i, p := range b.portals {
		if p.Has(c) {
			kept := make([]Portal, 0, len(b.portals)-1)
			kept = append(kept, b.portals[:i]...)
			kept = append(kept, b.portals[i+1:]...)
			b.portals = kept
			return p, true
		}
	}
	return Portal{}, false
}

// clone returns a deep copy of the board
func (b *Board) clone() *Board {
	out := &Board{
		length:    b.length,
		width:     b.width,
		cells:     make([][]Cell, b.length),
		powerups:  make(map[Coord]struct{}, len(b.powerups)),
		crumblies: make(map[Coord]struct{}, len(b.crumblies)),
		portals:   b.Portals(),
	}
	for r, row := range b.cells {
		out.cells[r] = append([]Cell(nil), row...)
	}
	for i := range b.dots {
		out.dots[i] = append([]Coord(nil), b.dots[i]...)
	}
	for c := range b.powerups {
		out.powerups[c] = struct{}{}
	}
	for c := range b.crumblies {
		out.crumblies[c] = struct{}{}
	}
	return out
}

func insertCoord(list []Coord, c Coord) []Coord {
	i := sort.Search(len(list), func(i int) bool { return !list[i].Less(c) })
	if i < len(list) && list[i] == c {
		return list
	}
	out := make([]Coord, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, c)
	return append(out, list[i:]...)
}

func removeCoord(list []Coord, c Coord) []Coord {
	out := make([]Coord, 0, len(list))
	for _, existing := range list {
		if existing != c {
			out = append(out, existing)
		}
	}
	return out
}

func sortedKeys(set map[Coord]struct{}) []Coord {
	out := make([]Coord, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
