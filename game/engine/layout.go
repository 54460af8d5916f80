package engine

// barrierFootprints are the barrier shapes as offsets from an anchor cell:
//
//	#       #     #     #
//	# # #   # #   #   # #
//	        #     #
var barrierFootprints = [][]Coord{
	{{0, 0}, {1, 0}, {0, 1}, {0, 2}},
	{{0, 0}, {1, 0}, {0, 1}, {-1, 0}},
	{{0, 0}, {1, 0}, {-1, 0}},
	{{0, 0}, {0, -1}, {1, 0}},
}

// Generate builds the starting board for s. Settings are expected to be
// valid; scattering that runs out of attempts places fewer items.
func Generate(s Settings, rng Rand) *Board {
	b := NewBoard(s.Length, s.Width)

	// Player 2's cluster is rotated into the bottom-right corner before
	// player 1 fills the top-left.
	placeDots(b, Player2Dot, s.NumDots)
	b.mirror()
	placeDots(b, Player1Dot, s.NumDots)

	b.scatter(rng, s.NumPowerups, Powerup)
	placeBarriers(b, rng, s.BarrierShapes())
	for _, c := range b.scatter(rng, s.NumCrumblies, Crumbly) {
		b.crumblies[c] = struct{}{}
	}
	return b
}

// placeDots fills a triangle from row 0: the first row takes as many dots as
// the smallest triangle number holding n allows, each following row one fewer.
func placeDots(b *Board, dot Cell, n int) {
	perRow := 0
	for i, t := range TriangleNumbers {
		if n <= t {
			perRow = i + 1
			break
		}
	}
	for r := 0; r < b.length && n > 0; r++ {
		for c := 0; c < perRow && c < b.width && n > 0; c++ {
			b.Set(Coord{r, c}, dot)
			n--
		}
		perRow--
	}
}

// mirror rotates the board by 180 degrees
func (b *Board) mirror() {
	cells := make([][]Cell, b.length)
	for r := range cells {
		cells[r] = make([]Cell, b.width)
		for c := range cells[r] {
			cells[r][c] = b.cells[b.length-1-r][b.width-1-c]
		}
	}
	flip := func(c Coord) Coord { return Coord{b.length - 1 - c.Row, b.width - 1 - c.Col} }

	fresh := NewBoard(b.length, b.width)
	for r := range cells {
		for c := range cells[r] {
			fresh.Set(Coord{r, c}, cells[r][c])
		}
	}
	for c := range b.crumblies {
		fresh.crumblies[flip(c)] = struct{}{}
	}
	for _, p := range b.portals {
		fresh.portals = append(fresh.portals, Portal{A: flip(p.A), B: flip(p.B)})
	}
	*b = *fresh
}

// placeBarriers drops random footprints onto Open cells until shapes have
// been placed or the attempt budget runs out. It returns the number placed.
func placeBarriers(b *Board, rng Rand, shapes int) int {
	placed := 0
	for attempts := 0; placed < shapes && attempts < barrierAttempts; attempts++ {
		anchor := Coord{Row: rng.IntN(b.length), Col: rng.IntN(b.width)}
		footprint := barrierFootprints[rng.IntN(len(barrierFootprints))]
		if !fits(b, anchor, footprint) {
			continue
		}
		for _, offset := range footprint {
			b.Set(anchor.Add(offset), Barrier)
		}
		placed++
	}
	return placed
}

func fits(b *Board, anchor Coord, footprint []Coord) bool {
	for _, offset := range footprint {
		c := anchor.Add(offset)
		if !b.InBounds(c) || b.Get(c) != Open {
			return false
		}
	}
	return true
}
