package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/service"
	log "github.com/sirupsen/logrus"
)

var settingsOptions = []string{
	"Set Length",
	"Set Width",
	"Set Amount of Dots",
	"Set Amount of Start Powerups",
	"Set Frequency of Powerup Placement",
	"Change Number of Crumblies",
	"Set Barrier Density",
	"Set Number of Deletes",
	"Set Number of Creates",
	"Use a Preset",
	"Save as Preset",
	"Exit",
}

// densityChoices is the order densities are offered in the editor
var densityChoices = []int{4, 3, 5, 2}

// EditSettings runs the settings editor until the player exits. Every change
// is validated and saved straight away; a change that breaks the settings is
// refused and the previous value kept.
func (a *App) EditSettings(ctx context.Context) error {
	for {
		current, err := a.svc.GetSettings(ctx)
		if err != nil {
			return err
		}
		a.prompt.Println(a.render.Settings(current))

		option, err := a.prompt.Menu("What would you like to do?", settingsOptions)
		if err != nil {
			return err
		}

		next := current
		switch option {
		case 0:
			next.Length, err = a.prompt.Int(fmt.Sprintf("Enter your preferred length. (%d-%d)", engine.MinBoardSize, engine.MaxBoardSize), engine.MinBoardSize, engine.MaxBoardSize)
		case 1:
			next.Width, err = a.prompt.Int(fmt.Sprintf("Enter your preferred width. (%d-%d)", engine.MinBoardSize, engine.MaxBoardSize), engine.MinBoardSize, engine.MaxBoardSize)
		case 2:
			limit := engine.MaxDots(current.Length, current.Width)
			next.NumDots, err = a.prompt.Int(fmt.Sprintf("Enter your preferred amount of dots. (1-%d for a %dx%d board)", limit, current.Length, current.Width), 1, limit)
		case 3:
			limit := current.PowerupLimit()
			next.NumPowerups, err = a.prompt.Int(fmt.Sprintf("Enter your preferred amount of start powerups (Limited to available spaces and number of crumblies: %d)", limit), 0, limit)
		case 4:
			next.PowerupFrequency, err = a.prompt.IntAtLeast("Enter your preferred frequency of powerup placement", 1)
		case 5:
			limit := current.CrumblyLimit()
			next.NumCrumblies, err = a.prompt.Int(fmt.Sprintf("Enter your preferred number of crumblies. (Limited to available spaces and number of powerups: %d)", limit), 0, limit)
		case 6:
			labels := make([]string, 0, len(densityChoices))
			for _, d := range densityChoices {
				labels = append(labels, engine.DensityLabel(d))
			}
			var choice int
			choice, err = a.prompt.Menu("Enter your preferred density of barriers.", labels)
			if err == nil {
				next.BarrierDensity = densityChoices[choice]
			}
		case 7:
			next.NumDeletes, err = a.prompt.IntAtLeast("Enter your preferred number of deletes each player gets.", 0)
		case 8:
			next.NumCreates, err = a.prompt.IntAtLeast("Enter your preferred number of creates each player gets.", 0)
		case 9:
			err = a.usePreset(ctx)
		case 10:
			err = a.savePreset(ctx, current)
		default:
			return nil
		}

		if err != nil {
			if errors.Is(err, ErrCancelled) {
				continue
			}
			return err
		}
		if next == current {
			continue
		}

		if err := a.svc.SaveSettings(ctx, next); err != nil {
			var invalid *engine.SettingsError
			if errors.As(err, &invalid) {
				a.prompt.Printf("Those settings don't fit together (%v), keeping the previous value\n", invalid)
				continue
			}
			return err
		}
		log.WithField("settings", next).Debug("settings changed")
	}
}

func (a *App) usePreset(ctx context.Context) error {
	presets, err := a.svc.ListPresets(ctx)
	if err != nil {
		return err
	}
	if len(presets) == 0 {
		a.prompt.Println("No presets found")
		return ErrCancelled
	}

	choice, err := a.prompt.MenuWithCancel("Which preset would you like to use?", a.render.Presets(presets))
	if err != nil {
		return err
	}
	if _, err := a.svc.UsePreset(ctx, presets[choice].PresetID); err != nil {
		var invalid *engine.SettingsError
		if errors.As(err, &invalid) {
			a.prompt.Printf("That preset is invalid: %v\n", invalid)
			return ErrCancelled
		}
		return err
	}
	a.prompt.Printf("Now using %s\n", presets[choice].Name)
	return nil
}

func (a *App) savePreset(ctx context.Context, current engine.Settings) error {
	name, err := a.prompt.Text("Enter a name for the preset ('c' to cancel)", 1, 40)
	if err != nil {
		return err
	}
	if name == CancelToken {
		return ErrCancelled
	}
	description, err := a.prompt.Text("Enter a description (optional)", 0, 200)
	if err != nil {
		return err
	}

	preset := &service.Preset{Name: name, Description: description, Settings: current}
	if err := a.svc.SavePreset(ctx, name, preset); err != nil {
		if errors.Is(err, service.ErrInvalidName) {
			a.prompt.Println("That name is invalid")
			return ErrCancelled
		}
		return err
	}
	a.prompt.Printf("Saved preset %s\n", name)
	return nil
}
