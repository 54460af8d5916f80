package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/MarshTheBacca/dotto/game/engine"
)

func (e *testEnv) app(lines ...string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	return NewApp(e.svc, in, out, nil), out
}

func TestApp_Run(t *testing.T) {
	env := newTestEnv(t)
	app, out := env.app(
		"2",      // Settings
		"1", "7", // length 7
		"12",     // back
		"3",      // View Scores
		"4",      // Exit
	)

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	settings, _ := env.svc.GetSettings(context.Background())
	if settings.Length != 7 {
		t.Errorf("Expected length 7, got %d", settings.Length)
	}
	for _, want := range []string{
		"Welcome To Dotto!",
		"1) Play\n2) Settings\n3) View Scores\n4) Exit",
		"Length: 7",
		"No scores have been saved yet",
		"Goodbye!",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestApp_RunInputClosed(t *testing.T) {
	env := newTestEnv(t)
	app := NewApp(env.svc, strings.NewReader(""), &bytes.Buffer{}, nil)
	if err := app.Run(context.Background()); err != nil {
		t.Errorf("Expected a quiet exit when input ends, got %v", err)
	}
}

func TestApp_Resume(t *testing.T) {
	env := newTestEnv(t)
	env.host(t, "rsme", engine.DefaultSettings(), "O/X", "///")

	app, out := env.app(
		"2", "1",      // Resume a game, the only one
		"5", "y", "n", // concede, don't save
		"4",           // Exit, no longer resumable
	)
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "rsme - 2x3, turn 1, Player 1 to move") {
		t.Errorf("Expected the saved game to be listed:\n%s", out.String())
	}

	info, err := env.svc.GetSession(context.Background(), "rsme")
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != engine.StatusFinished {
		t.Errorf("Expected the resumed game to finish, got %s", info.Status)
	}
}

func TestApp_Discard(t *testing.T) {
	env := newTestEnv(t)
	env.host(t, "gone", engine.DefaultSettings(), "O/X", "///")

	app, out := env.app(
		"3", "1", "n", // Discard a saved game, change of heart
		"3", "1", "y", // Discard it for real
		"4",           // Exit, nothing left to resume
	)
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "1) Play\n2) Resume a game\n3) Discard a saved game\n4) Settings") {
		t.Errorf("Expected the discard option while a game is saved:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Discarded gone") {
		t.Errorf("Expected the game to be discarded:\n%s", out.String())
	}
	if _, err := env.svc.GetSession(context.Background(), "gone"); err == nil {
		t.Error("Expected the discarded game to be gone")
	}
}

func TestApp_NewGame(t *testing.T) {
	env := newTestEnv(t)
	app, out := env.app(
		"1",           // Play
		"5", "y", "n", // Player 1 concedes straight away
		"4",           // Exit: finished games aren't resumable
	)
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "Player 2 has won in 1 turns!") {
		t.Errorf("Expected the new game to be played:\n%s", out.String())
	}

	sessions, _ := env.svc.ListSessions(context.Background())
	if len(sessions) != 1 {
		t.Fatalf("Expected one session, got %d", len(sessions))
	}
	if sessions[0].Settings.Length != 5 || sessions[0].Settings.Width != 5 {
		t.Errorf("Expected a board from the default settings, got %dx%d", sessions[0].Settings.Length, sessions[0].Settings.Width)
	}
}

func TestEditSettings_RejectsBrokenCombination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	big := engine.DefaultSettings()
	big.Length, big.Width, big.NumDots = 10, 10, 15
	if err := env.svc.SaveSettings(ctx, big); err != nil {
		t.Fatal(err)
	}

	app, out := env.app("1", "5", "12")
	if err := app.EditSettings(ctx); err != nil {
		t.Fatalf("EditSettings failed: %v", err)
	}
	if !strings.Contains(out.String(), "Those settings don't fit together") {
		t.Errorf("Expected the change to be refused:\n%s", out.String())
	}
	if got, _ := env.svc.GetSettings(ctx); got != big {
		t.Errorf("Expected the settings to be unchanged, got %+v", got)
	}
}

func TestEditSettings_Density(t *testing.T) {
	env := newTestEnv(t)
	app, out := env.app("7", "2", "12")
	if err := app.EditSettings(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "1) Normal\n2) Thick\n3) Sparse\n4) Insanely Thick") {
		t.Errorf("unexpected density menu:\n%s", out.String())
	}
	if got, _ := env.svc.GetSettings(context.Background()); got.BarrierDensity != 3 {
		t.Errorf("Expected density 3, got %d", got.BarrierDensity)
	}
}

func TestEditSettings_Presets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app, out := env.app(
		"10",                          // Use a Preset with none saved
		"2", "9",                      // width 9
		"11", "Wide", "A wider board", // Save as Preset
		"2", "5",                      // back to width 5
		"10", "1",                     // Use the saved preset
		"12",
	)
	if err := app.EditSettings(ctx); err != nil {
		t.Fatalf("EditSettings failed: %v", err)
	}

	for _, want := range []string{"No presets found", "Saved preset Wide", "Wide (5x9, 3 dots, Normal) - A wider board", "Now using Wide"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
	if got, _ := env.svc.GetSettings(ctx); got.Width != 9 {
		t.Errorf("Expected the preset's width 9, got %d", got.Width)
	}
}
