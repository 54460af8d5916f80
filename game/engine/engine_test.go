package engine

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"
)

// scriptedRand replays a fixed sequence of values, wrapping around
type scriptedRand struct {
	values []int
	pos    int
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.pos%len(r.values)]
	r.pos++
	return v % n
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func mustBoard(t *testing.T, rows ...string) *Board {
	t.Helper()
	b, err := BoardFromRows(rows)
	if err != nil {
		t.Fatalf("BoardFromRows: %v", err)
	}
	return b
}

// quietSettings never spawns powerups during short tests
func quietSettings() Settings {
	s := DefaultSettings()
	s.PowerupFrequency = 1000
	return s
}

func newTestGame(t *testing.T, rows ...string) *Game {
	t.Helper()
	return NewGameFromBoard(quietSettings(), mustBoard(t, rows...), &scriptedRand{})
}

func TestNewGame(t *testing.T) {
	s := DefaultSettings()
	game, err := NewGame(s, seeded(1))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	if game.Turn() != Player1 {
		t.Errorf("expected player 1 to start, got %v", game.Turn())
	}
	if game.TurnNumber() != 1 {
		t.Errorf("expected turn number 1, got %d", game.TurnNumber())
	}
	if game.Status() != StatusPlaying {
		t.Errorf("expected status playing, got %s", game.Status())
	}
	for _, id := range []PlayerID{Player1, Player2} {
		p := game.Player(id)
		if p.Deletes != s.NumDeletes || p.Creates != s.NumCreates {
			t.Errorf("%v: budgets %d/%d, expected %d/%d", id, p.Deletes, p.Creates, s.NumDeletes, s.NumCreates)
		}
		if len(p.Inventory) != 0 {
			t.Errorf("%v: expected empty inventory, got %v", id, p.Inventory)
		}
		if got := len(game.Board().DotCoords(id)); got != s.NumDots {
			t.Errorf("%v: expected %d dots, got %d", id, s.NumDots, got)
		}
	}
}

func TestNewGame_InvalidSettings(t *testing.T) {
	s := DefaultSettings()
	s.Length = 3
	if _, err := NewGame(s, seeded(1)); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestApply_EndToEndCapture(t *testing.T) {
	t.Run("player 1 captures on turn 1", func(t *testing.T) {
		game := newTestGame(t,
			"OX///",
			"/////",
			"/////",
			"/////",
			"/////",
		)
		before := game.TurnNumber()

		result, err := game.Apply(MoveAction(Coord{0, 0}, Right))
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if !result.Finished || result.Winner != Player1 {
			t.Fatalf("expected player 1 to win, got finished=%v winner=%v", result.Finished, result.Winner)
		}
		if !result.Move.Captured {
			t.Error("expected the move to report a capture")
		}
		if game.TurnNumber() != before {
			t.Errorf("turn number changed from %d to %d", before, game.TurnNumber())
		}
		if game.Reason() != ReasonDefeat {
			t.Errorf("expected reason defeat, got %s", game.Reason())
		}
		if got := game.Board().Count(Player2Dot); got != 0 {
			t.Errorf("expected no player 2 dots, got %d", got)
		}
	})

	t.Run("capture through void on a later turn", func(t *testing.T) {
		game := newTestGame(t,
			"/////",
			"/////",
			"O   X",
			"/////",
			"/////",
		)
		if _, err := game.Apply(MoveAction(Coord{2, 0}, Up)); err != nil {
			t.Fatalf("player 1 move: %v", err)
		}
		if game.Turn() != Player2 || game.TurnNumber() != 2 {
			t.Fatalf("expected player 2 on turn 2, got %v on %d", game.Turn(), game.TurnNumber())
		}
		if _, err := game.Apply(MoveAction(Coord{2, 4}, Up)); err != nil {
			t.Fatalf("player 2 move: %v", err)
		}
		if _, err := game.Apply(MoveAction(Coord{1, 0}, Down)); err != nil {
			t.Fatalf("player 1 move back: %v", err)
		}

		result, err := game.Apply(MoveAction(Coord{1, 4}, Down))
		if err != nil {
			t.Fatalf("player 2 move down: %v", err)
		}
		if result.Finished {
			t.Fatal("game should not be finished yet")
		}

		// Player 1 at (2,0) slides right through the void onto player 2 at (2,4).
		result, err = game.Apply(MoveAction(Coord{2, 0}, Right))
		if err != nil {
			t.Fatalf("capture: %v", err)
		}
		if !result.Finished || game.Winner() != Player1 || game.TurnNumber() != 5 {
			t.Errorf("expected player 1 win on turn 5, got finished=%v winner=%v turn=%d",
				result.Finished, game.Winner(), game.TurnNumber())
		}
	})
}

func TestApply_Concede(t *testing.T) {
	game := newTestGame(t, "O///X")
	result, err := game.Apply(ConcedeAction())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !result.Finished || result.Winner != Player2 {
		t.Errorf("expected player 2 to win by concession, got %+v", result)
	}
	if game.Reason() != ReasonConcession {
		t.Errorf("expected reason concession, got %s", game.Reason())
	}
	if game.TurnNumber() != 1 {
		t.Errorf("expected turn number unchanged, got %d", game.TurnNumber())
	}
	if _, err := game.Apply(MoveAction(Coord{0, 0}, Right)); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver after concession, got %v", err)
	}
}

func TestApply_FailuresChangeNothing(t *testing.T) {
	tests := []struct {
		name      string
		inventory []PowerupKind
		deletes   int
		action    Action
		wantErr   error
	}{
		{"move from empty cell", nil, 3, MoveAction(Coord{0, 1}, Right), ErrNotYourDot},
		{"move opponent dot", nil, 3, MoveAction(Coord{2, 4}, Left), ErrNotYourDot},
		{"move boxed in dot", nil, 3, MoveAction(Coord{4, 0}, Up), ErrNoLegalMoves},
		{"move blocked direction", nil, 3, MoveAction(Coord{0, 0}, Up), ErrIllegalDirection},
		{"move unknown direction", nil, 3, MoveAction(Coord{0, 0}, Direction("Q")), ErrUnknownDirection},
		{"move off board", nil, 3, MoveAction(Coord{9, 9}, Up), ErrOutOfBounds},
		{"delete without budget", nil, 0, DeleteAction(Coord{0, 1}), ErrNoDeletesLeft},
		{"delete barrier", nil, 3, DeleteAction(Coord{1, 0}), ErrCellMismatch},
		{"create on open cell", nil, 3, CreateAction(Coord{0, 1}), ErrCellMismatch},
		{"powerup with empty inventory", nil, 3, DestroyerAction(0, Coord{1, 0}), ErrNoPowerups},
		{"powerup slot out of range", []PowerupKind{Destroyer}, 3, DestroyerAction(1, Coord{1, 0}), ErrInvalidSlot},
		{"powerup kind mismatch", []PowerupKind{PortalPowerup}, 3, DestroyerAction(0, Coord{1, 0}), ErrPowerupMismatch},
		{"destroyer on open cell", []PowerupKind{Destroyer}, 3, DestroyerAction(0, Coord{0, 1}), ErrCellMismatch},
		{"portal onto barrier", []PowerupKind{PortalPowerup}, 3, PortalAction(0, Coord{0, 1}, Coord{1, 0}), ErrCellMismatch},
		{"portal on one cell", []PowerupKind{PortalPowerup}, 3, PortalAction(0, Coord{0, 1}, Coord{0, 1}), ErrSameCell},
		{"double jump blocked", []PowerupKind{DoubleJump}, 3, DoubleJumpAction(0, Coord{0, 0}, Up), ErrIllegalDirection},
		{"unknown action", nil, 3, Action{Kind: ActionKind(42)}, ErrUnknownAction},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			game := newTestGame(t,
				"O////",
				"#////",
				"////X",
				"#////",
				"O#///",
			)
			p := game.player(Player1)
			p.Inventory = append([]PowerupKind{}, test.inventory...)
			p.Deletes = test.deletes
			game.BeginTurn()
			before := game.Snapshot()

			_, err := game.Apply(test.action)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
			if after := game.Snapshot(); !reflect.DeepEqual(before, after) {
				t.Errorf("state changed after failed action\nbefore: %+v\nafter:  %+v", before, after)
			}
		})
	}
}

func TestApply_RejectedActionOnSpawnTurn(t *testing.T) {
	s := quietSettings()
	s.PowerupFrequency = 1
	game := NewGameFromBoard(s, mustBoard(t, "O////", "/////", "////X"), &scriptedRand{values: []int{0, 2}})
	game.player(Player1).Deletes = 0
	before := game.Snapshot()

	if _, err := game.Apply(DeleteAction(Coord{1, 1})); !errors.Is(err, ErrNoDeletesLeft) {
		t.Fatalf("expected ErrNoDeletesLeft, got %v", err)
	}
	if after := game.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Errorf("a rejected action changed the board\nbefore: %v\nafter:  %v", before.Rows, after.Rows)
	}

	// the spawn still happens once the turn begins
	if _, spawned := game.BeginTurn(); !spawned {
		t.Error("expected turn 1 to spawn a powerup with frequency 1")
	}
	if got := len(game.Board().Powerups()); got != 1 {
		t.Errorf("expected one powerup, got %d", got)
	}
}

func TestApply_DeleteThenCreate(t *testing.T) {
	game := newTestGame(t,
		"O////",
		"/////",
		"/////",
		"/////",
		"////X",
	)
	target := Coord{2, 2}

	if _, err := game.Apply(DeleteAction(target)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := game.Board().Get(target); got != Void {
		t.Fatalf("expected void after delete, got %q", got)
	}
	if _, err := game.Apply(MoveAction(Coord{4, 4}, Up)); err != nil {
		t.Fatalf("player 2 move: %v", err)
	}
	if _, err := game.Apply(CreateAction(target)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := game.Board().Get(target); got != Open {
		t.Errorf("expected open after create, got %q", got)
	}
	p := game.Player(Player1)
	if p.Deletes != 2 || p.Creates != 2 {
		t.Errorf("expected both budgets spent once, got deletes=%d creates=%d", p.Deletes, p.Creates)
	}
}

func TestApply_PortalPowerup(t *testing.T) {
	game := newTestGame(t,
		"O////",
		"/////",
		"/////",
		"/////",
		"////X",
	)
	game.player(Player1).Inventory = []PowerupKind{DoubleJump, PortalPowerup}

	result, err := game.Apply(PortalAction(1, Coord{1, 1}, Coord{3, 3}))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Powerup != PortalPowerup {
		t.Errorf("expected Portal to be used, got %q", result.Powerup)
	}
	for _, c := range []Coord{{1, 1}, {3, 3}} {
		if got := game.Board().Get(c); got != PortalMarker {
			t.Errorf("expected portal marker at %v, got %q", c, got)
		}
	}
	portals := game.Board().Portals()
	if len(portals) != 1 || !portals[0].Has(Coord{1, 1}) || !portals[0].Has(Coord{3, 3}) {
		t.Errorf("unexpected portal list %+v", portals)
	}
	if inv := game.Player(Player1).Inventory; !reflect.DeepEqual(inv, []PowerupKind{DoubleJump}) {
		t.Errorf("expected only Double-Jump left, got %v", inv)
	}
	if game.Turn() != Player2 {
		t.Errorf("expected the turn to pass, got %v", game.Turn())
	}
}

func TestApply_DoubleJump(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want Coord
	}{
		{"jumps a barrier", []string{"O#///", "////X"}, Coord{0, 2}},
		{"falls through void in steps of two", []string{"O# #/", "////X"}, Coord{0, 4}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			game := newTestGame(t, test.rows...)
			game.player(Player1).Inventory = []PowerupKind{DoubleJump}

			result, err := game.Apply(DoubleJumpAction(0, Coord{0, 0}, Right))
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if result.Move == nil || result.Move.To != test.want {
				t.Fatalf("expected landing at %v, got %+v", test.want, result.Move)
			}
			if !game.Board().HasDot(Player1, test.want) {
				t.Errorf("expected player 1 dot at %v", test.want)
			}
			if len(game.Player(Player1).Inventory) != 0 {
				t.Error("expected the Double-Jump to be consumed")
			}
		})
	}
}

func TestApply_Destroyer(t *testing.T) {
	game := newTestGame(t, "O#//X")
	game.player(Player1).Inventory = []PowerupKind{Destroyer}

	if _, err := game.Apply(DestroyerAction(0, Coord{0, 1})); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := game.Board().Get(Coord{0, 1}); got != Open {
		t.Errorf("expected the barrier to be open, got %q", got)
	}
}

func TestBeginTurn_Spawning(t *testing.T) {
	s := quietSettings()
	s.PowerupFrequency = 2
	game := NewGameFromBoard(s, mustBoard(t, "O///X", "/////"), &scriptedRand{values: []int{1, 2}})

	if _, spawned := game.BeginTurn(); spawned {
		t.Fatal("turn 1 should not spawn with frequency 2")
	}
	if _, err := game.Apply(MoveAction(Coord{0, 0}, Down)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	at, spawned := game.BeginTurn()
	if !spawned {
		t.Fatal("turn 2 should spawn a powerup")
	}
	if at != (Coord{1, 2}) || game.Board().Get(at) != Powerup {
		t.Errorf("expected powerup at (1,2), got %v holding %q", at, game.Board().Get(at))
	}
	if _, again := game.BeginTurn(); again {
		t.Error("a second BeginTurn on the same turn must not spawn again")
	}
	if got := len(game.Board().Powerups()); got != 1 {
		t.Errorf("expected one powerup, got %d", got)
	}
}

func TestLegalMoves(t *testing.T) {
	game := newTestGame(t,
		"O#///",
		"/////",
		"////X",
	)
	moves := game.LegalMoves(1)
	if len(moves) != 1 {
		t.Fatalf("expected one dot, got %d", len(moves))
	}
	want := map[Direction]Coord{Down: {1, 0}}
	if !reflect.DeepEqual(moves[0].Destinations, want) {
		t.Errorf("expected %v, got %v", want, moves[0].Destinations)
	}
	if dots := game.MovableDots(2); !reflect.DeepEqual(dots, []Coord{{0, 0}}) {
		t.Errorf("expected (0,0) to be movable with a double jump, got %v", dots)
	}
}
