package engine

import (
	"reflect"
	"testing"
)

func TestResolveDirection(t *testing.T) {
	tests := []struct {
		name   string
		rows   []string
		origin Coord
		dir    Direction
		step   int
		mover  PlayerID
		want   Coord
		wantOK bool
	}{
		{"open neighbour", []string{"O////"}, Coord{0, 0}, Right, 1, Player1, Coord{0, 1}, true},
		{"falls through void", []string{"O  //"}, Coord{0, 0}, Right, 1, Player1, Coord{0, 3}, true},
		{"falls onto opponent", []string{"O   X"}, Coord{0, 0}, Right, 1, Player1, Coord{0, 4}, true},
		{"void then barrier", []string{"O  #/"}, Coord{0, 0}, Right, 1, Player1, Coord{}, false},
		{"void then own dot", []string{"O O//"}, Coord{0, 0}, Right, 1, Player1, Coord{}, false},
		{"void to the edge", []string{"O    "}, Coord{0, 0}, Right, 1, Player1, Coord{}, false},
		{"edge of board", []string{"O////"}, Coord{0, 0}, Left, 1, Player1, Coord{}, false},
		{"powerup", []string{"O?///"}, Coord{0, 0}, Right, 1, Player1, Coord{0, 1}, true},
		{"crumbly", []string{"O~///"}, Coord{0, 0}, Right, 1, Player1, Coord{0, 1}, true},
		{"portal", []string{"O@///"}, Coord{0, 0}, Right, 1, Player1, Coord{0, 1}, true},
		{"barrier", []string{"O#///"}, Coord{0, 0}, Right, 1, Player1, Coord{}, false},
		{"player 2 moves left", []string{"////X"}, Coord{0, 4}, Left, 1, Player2, Coord{0, 3}, true},
		{"player 2 captures player 1", []string{"//OX/"}, Coord{0, 3}, Left, 1, Player2, Coord{0, 2}, true},
		{"vertical fall through", []string{"O", " ", "/"}, Coord{0, 0}, Down, 1, Player1, Coord{2, 0}, true},
		{"upwards", []string{"/", "/", "O"}, Coord{2, 0}, Up, 1, Player1, Coord{1, 0}, true},
		{"double jump over barrier", []string{"O#///"}, Coord{0, 0}, Right, 2, Player1, Coord{0, 2}, true},
		{"double jump through void", []string{"O/ /X"}, Coord{0, 0}, Right, 2, Player1, Coord{0, 4}, true},
		{"double jump off board", []string{"O/ / "}, Coord{0, 0}, Right, 2, Player1, Coord{}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := mustBoard(t, test.rows...)
			got, ok := b.ResolveDirection(test.origin, test.dir.Vector(test.step), test.mover)
			if ok != test.wantOK || got != test.want {
				t.Errorf("ResolveDirection(%v, %s, %d): expected %v/%v, got %v/%v",
					test.origin, test.dir.Name(), test.step, test.want, test.wantOK, got, ok)
			}
		})
	}
}

func TestResolveDirection_Idempotent(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		s := DefaultSettings()
		s.Length, s.Width, s.NumDots = 9, 11, 6
		b := Generate(s, seeded(seed))
		for _, p := range []PlayerID{Player1, Player2} {
			for _, dot := range b.DotCoords(p) {
				for _, d := range Directions {
					for _, step := range []int{1, 2} {
						first, ok1 := b.ResolveDirection(dot, d.Vector(step), p)
						second, ok2 := b.ResolveDirection(dot, d.Vector(step), p)
						if first != second || ok1 != ok2 {
							t.Fatalf("seed %d: %v %s step %d gave %v/%v then %v/%v", seed, dot, d, step, first, ok1, second, ok2)
						}
					}
				}
			}
		}
	}
}

func TestApplyMove_RoundTrip(t *testing.T) {
	t.Run("plain move is reversible", func(t *testing.T) {
		game := newTestGame(t, "O///X", "/////")
		before := game.Board().Rows()

		game.applyMove(Coord{0, 0}, Coord{0, 1})
		game.applyMove(Coord{0, 1}, Coord{0, 0})

		if after := game.Board().Rows(); !reflect.DeepEqual(before, after) {
			t.Errorf("expected rows %q, got %q", before, after)
		}
	})

	t.Run("pickup is not reversed", func(t *testing.T) {
		game := newTestGame(t, "O?//X")

		out := game.applyMove(Coord{0, 0}, Coord{0, 1})
		if out.Pickup == "" {
			t.Fatal("expected a pickup")
		}
		if got := len(game.Player(Player1).Inventory); got != 1 {
			t.Fatalf("expected one powerup, got %d", got)
		}
		game.applyMove(Coord{0, 1}, Coord{0, 0})

		if got := len(game.Player(Player1).Inventory); got != 1 {
			t.Errorf("inventory changed on the way back: %d", got)
		}
		if got := game.Board().Get(Coord{0, 1}); got != Open {
			t.Errorf("expected the pickup cell to be open, got %q", got)
		}
		if len(game.Board().Powerups()) != 0 {
			t.Error("expected the powerup index to be empty")
		}
	})
}

func TestApplyMove_Pickup(t *testing.T) {
	game := NewGameFromBoard(quietSettings(), mustBoard(t, "O?//X"), &scriptedRand{values: []int{2}})
	out := game.applyMove(Coord{0, 0}, Coord{0, 1})
	if out.Pickup != Destroyer {
		t.Errorf("expected Destroyer from the third catalog slot, got %q", out.Pickup)
	}
}

func TestApplyMove_Capture(t *testing.T) {
	game := newTestGame(t,
		"OX///",
		"////X",
	)
	before := len(game.Board().DotCoords(Player2))

	out := game.applyMove(Coord{0, 0}, Coord{0, 1})

	if !out.Captured {
		t.Error("expected a capture")
	}
	after := game.Board().DotCoords(Player2)
	if len(after) != before-1 {
		t.Errorf("expected opponent index to shrink by one, %d -> %d", before, len(after))
	}
	if game.Board().HasDot(Player2, Coord{0, 1}) {
		t.Error("captured coordinate still indexed for player 2")
	}
	if !game.Board().HasDot(Player1, Coord{0, 1}) {
		t.Error("expected player 1 to occupy the captured cell")
	}
}

func TestApplyMove_Portal(t *testing.T) {
	game := newTestGame(t,
		"O@//@",
		"/O///",
		"////X",
	)
	game.board.addPortal(Portal{A: Coord{0, 1}, B: Coord{0, 4}})

	out := game.applyMove(Coord{0, 0}, Coord{0, 1})
	if !out.Teleported || out.To != (Coord{0, 4}) {
		t.Fatalf("expected a teleport to (0,4), got %+v", out)
	}
	if got := game.Board().Get(Coord{0, 1}); got != Open {
		t.Errorf("expected the entered portal to be open, got %q", got)
	}
	if len(game.Board().Portals()) != 0 {
		t.Errorf("expected the portal to be consumed, got %+v", game.Board().Portals())
	}

	// Re-entering the cleared cell is an ordinary move.
	dest, ok := game.Board().ResolveDirection(Coord{1, 1}, Up.Vector(1), Player1)
	if !ok || dest != (Coord{0, 1}) {
		t.Fatalf("expected (1,1) to reach (0,1), got %v/%v", dest, ok)
	}
	out = game.applyMove(Coord{1, 1}, dest)
	if out.Teleported || out.To != (Coord{0, 1}) {
		t.Errorf("expected a plain move, got %+v", out)
	}
}

func TestApplyMove_UnknownPortalPanics(t *testing.T) {
	game := newTestGame(t, "O@//X")
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a portal marker without a pair")
		}
	}()
	game.applyMove(Coord{0, 0}, Coord{0, 1})
}

func TestApplyMove_Crumbly(t *testing.T) {
	game := newTestGame(t, "O~///", "////X")
	b := game.Board()

	out := game.applyMove(Coord{0, 0}, Coord{0, 1})
	if out.Collapsed {
		t.Error("origin was not crumbly and should not collapse")
	}
	if got := b.Get(Coord{0, 0}); got != Open {
		t.Errorf("expected origin to be open, got %q", got)
	}
	if !b.IsCrumbly(Coord{0, 1}) {
		t.Fatal("expected the crumbly to stay registered under the dot")
	}

	out = game.applyMove(Coord{0, 1}, Coord{0, 2})
	if !out.Collapsed {
		t.Error("expected the crumbly origin to collapse")
	}
	if got := b.Get(Coord{0, 1}); got != Void {
		t.Errorf("expected void behind the dot, got %q", got)
	}
	if b.IsCrumbly(Coord{0, 1}) {
		t.Error("collapsed cell should leave the crumbly set")
	}

	// The gap is transparent for the next move back.
	if dest, ok := b.ResolveDirection(Coord{0, 2}, Left.Vector(1), Player1); !ok || dest != (Coord{0, 0}) {
		t.Errorf("expected to fall through the gap to (0,0), got %v/%v", dest, ok)
	}
}

func TestBoardSet_KeepsIndices(t *testing.T) {
	b := mustBoard(t, "O/X/?")
	b.Set(Coord{0, 1}, Player1Dot)
	b.Set(Coord{0, 0}, Open)
	b.Set(Coord{0, 4}, Player2Dot)

	if got := b.DotCoords(Player1); !reflect.DeepEqual(got, []Coord{{0, 1}}) {
		t.Errorf("player 1 index %v", got)
	}
	if got := b.DotCoords(Player2); !reflect.DeepEqual(got, []Coord{{0, 2}, {0, 4}}) {
		t.Errorf("player 2 index %v", got)
	}
	if got := b.Powerups(); len(got) != 0 {
		t.Errorf("expected powerup index to be empty, got %v", got)
	}
}
