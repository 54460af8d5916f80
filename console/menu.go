package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/service"
	log "github.com/sirupsen/logrus"
)

// App is the console front end: the main menu and everything reachable from
// it.
type App struct {
	svc    service.GameService
	prompt *Prompter
	render *Renderer
	rng    engine.Rand
}

// NewApp creates the console front end reading from in and writing to out.
// A nil rng seeds each new game from the clock.
func NewApp(svc service.GameService, in io.Reader, out io.Writer, rng engine.Rand) *App {
	return &App{
		svc:    svc,
		prompt: NewPrompter(in, out),
		render: NewRenderer(out),
		rng:    rng,
	}
}

// Run shows the main menu until the player exits. Running out of input ends
// the program quietly.
func (a *App) Run(ctx context.Context) error {
	a.prompt.Println(a.render.Banner())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		resumable, err := a.resumable(ctx)
		if err != nil {
			return err
		}

		options := []string{"Play"}
		if len(resumable) > 0 {
			options = append(options, "Resume a game", "Discard a saved game")
		}
		options = append(options, "Settings", "View Scores", "Exit")

		choice, err := a.prompt.Menu("What would you like to do?", options)
		if err != nil {
			return quiet(err)
		}

		switch options[choice] {
		case "Play":
			err = a.NewGame(ctx, "")
		case "Resume a game":
			err = a.chooseResume(ctx, resumable)
		case "Discard a saved game":
			err = a.chooseDiscard(ctx, resumable)
		case "Settings":
			err = a.EditSettings(ctx)
		case "View Scores":
			err = a.ShowScores(ctx)
		default:
			a.prompt.Println("Goodbye!")
			return nil
		}
		if err != nil && !errors.Is(err, ErrCancelled) {
			return quiet(err)
		}
	}
}

// NewGame generates a board and plays it. The board comes from the named
// preset, or from the current settings when preset is empty.
func (a *App) NewGame(ctx context.Context, preset string) error {
	info, err := a.svc.CreateSession(ctx, service.CreateOptions{Preset: preset, Rand: a.rng})
	if err != nil {
		var invalid *engine.SettingsError
		if errors.As(err, &invalid) {
			a.prompt.Printf("The current settings can't make a board: %v\n", invalid)
			return ErrCancelled
		}
		return err
	}
	log.WithField("session", info.ID).Debug("new game")
	_, err = NewMatch(a.svc, a.prompt, a.render, info.ID).Play(ctx)
	return err
}

// Resume continues a saved game
func (a *App) Resume(ctx context.Context, sessionID string) error {
	info, err := a.svc.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = NewMatch(a.svc, a.prompt, a.render, info.ID).Play(ctx)
	return err
}

// ShowScores prints the score ledger
func (a *App) ShowScores(ctx context.Context) error {
	records, err := a.svc.ListScores(ctx)
	if err != nil {
		return err
	}
	a.prompt.Println(a.render.Scores(records))
	return nil
}

func (a *App) resumable(ctx context.Context) ([]*service.SessionInfo, error) {
	sessions, err := a.svc.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	var playing []*service.SessionInfo
	for _, s := range sessions {
		if s.Status == engine.StatusPlaying {
			playing = append(playing, s)
		}
	}
	return playing, nil
}

func (a *App) chooseResume(ctx context.Context, sessions []*service.SessionInfo) error {
	choice, err := a.prompt.MenuWithCancel("Which game would you like to resume?", sessionLabels(sessions))
	if err != nil {
		return err
	}
	return a.Resume(ctx, sessions[choice].ID)
}

// chooseDiscard deletes a saved game the players no longer want to finish
func (a *App) chooseDiscard(ctx context.Context, sessions []*service.SessionInfo) error {
	choice, err := a.prompt.MenuWithCancel("Which game would you like to discard?", sessionLabels(sessions))
	if err != nil {
		return err
	}
	id := sessions[choice].ID
	sure, err := a.prompt.Confirm(fmt.Sprintf("Discard %s for good?", id))
	if err != nil {
		return err
	}
	if !sure {
		return ErrCancelled
	}
	if err := a.svc.DeleteSession(ctx, id); err != nil {
		return err
	}
	log.WithField("session", id).Info("saved game discarded")
	a.prompt.Printf("Discarded %s\n", id)
	return nil
}

func sessionLabels(sessions []*service.SessionInfo) []string {
	labels := make([]string, 0, len(sessions))
	for _, s := range sessions {
		labels = append(labels, fmt.Sprintf("%s - %dx%d, turn %d, %s to move",
			s.ID, s.Settings.Length, s.Settings.Width, s.TurnNumber, s.Turn))
	}
	return labels
}

func quiet(err error) error {
	if errors.Is(err, ErrInputClosed) {
		return nil
	}
	return err
}
