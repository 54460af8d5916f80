package engine

import "fmt"

// MoveOutcome records the side effects of a resolved move
type MoveOutcome struct {
	From       Coord       `json:"from"`
	Entered    Coord       `json:"entered"`
	To         Coord       `json:"to"`
	Pickup     PowerupKind `json:"pickup,omitempty"`
	Captured   bool        `json:"captured,omitempty"`
	Teleported bool        `json:"teleported,omitempty"`
	Collapsed  bool        `json:"collapsed,omitempty"`
}

// ResolveDirection walks from origin along vector and returns where mover's
// dot would land. Void cells are stepped through; Barriers, the mover's own
// dots and the board edge block the direction.
func (b *Board) ResolveDirection(origin, vector Coord, mover PlayerID) (Coord, bool) {
	target := mover.Opponent().Dot()
	pos := origin
	for steps := max(b.length, b.width); steps > 0; steps-- {
		pos = pos.Add(vector)
		if !b.InBounds(pos) {
			return Coord{}, false
		}
		switch cell := b.Get(pos); cell {
		case Void:
			continue
		case Open, Powerup, Crumbly, PortalMarker, target:
			return pos, true
		default:
			return Coord{}, false
		}
	}
	return Coord{}, false
}

// Destinations returns the landing cell for each direction dot can move in
func (b *Board) Destinations(dot Coord, step int, mover PlayerID) map[Direction]Coord {
	out := make(map[Direction]Coord, len(Directions))
	for _, d := range Directions {
		if dest, ok := b.ResolveDirection(dot, d.Vector(step), mover); ok {
			out[d] = dest
		}
	}
	return out
}

// applyMove moves the current player's dot from origin to dest and applies
// whatever dest held: a pickup, a portal jump, a crumbly or a capture.
func (g *Game) applyMove(origin, dest Coord) MoveOutcome {
	b := g.board
	mover := g.turn
	if !b.HasDot(mover, origin) {
		panic(fmt.Sprintf("engine: %s has no dot at %s", mover, origin))
	}

	out := MoveOutcome{From: origin, Entered: dest, To: dest}
	if b.IsCrumbly(origin) {
		delete(b.crumblies, origin)
		b.Set(origin, Void)
		out.Collapsed = true
	} else {
		b.Set(origin, Open)
	}

	switch b.Get(dest) {
	case Powerup:
		kind := PowerupKinds[g.rng.IntN(len(PowerupKinds))]
		p := g.player(mover)
		p.Inventory = append(p.Inventory, kind)
		out.Pickup = kind
	case PortalMarker:
		portal, ok := b.takePortal(dest)
		if !ok {
			panic(fmt.Sprintf("engine: portal marker at %s is not in the active portal list", dest))
		}
		b.Set(dest, Open)
		out.To = portal.Other(dest)
		out.Teleported = true
	case Crumbly:
		b.crumblies[dest] = struct{}{}
	case mover.Opponent().Dot():
		out.Captured = true
	}

	// Set drops a captured coordinate from the opponent's index.
	b.Set(out.To, mover.Dot())
	return out
}
