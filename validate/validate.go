// Package validate checks preset files before the game tries to load them.
// It checks:
//   - JSON or YAML structure and unknown keys
//   - Every setting is a whole number
//   - The settings ranges and board capacity rule the game enforces
//   - Playability: sample boards generated from the preset give both
//     players a legal first move
//   - The game itself can load the file
package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MarshTheBacca/dotto/game/config"
	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SampleBoards is how many boards the playability check generates
const SampleBoards = 20

var presetKeys = map[string]bool{"name": true, "description": true, "settings": true}

// settingFields lists the settings keys in the order they are reported
var settingFields = []string{
	"length", "width", "num_dots", "num_powerups", "powerup_frequency",
	"num_crumblies", "barrier_density", "num_deletes", "num_creates",
}

// Result captures the outcome of validating a single file.
// If Valid is true, Messages holds informational lines; otherwise it
// holds the problems that were found.
type Result struct {
	File     string
	Valid    bool
	Messages []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *Result) info(format string, args ...interface{}) {
	r.Messages = append(r.Messages, "✓ "+fmt.Sprintf(format, args...))
}

// File validates a single preset file
func File(path string) Result {
	result := Result{File: filepath.Base(path), Valid: true, Messages: []string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	raw := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		result.fail("Invalid %s: %v", strings.TrimPrefix(strings.ToUpper(filepath.Ext(path)), "."), err)
		return result
	}

	for key := range raw {
		if !presetKeys[key] {
			result.fail("Unknown key: %s", key)
		}
	}
	if name, _ := raw["name"].(string); strings.TrimSpace(name) == "" {
		result.Messages = append(result.Messages, "Note: no name, the file name will be used")
	}

	rawSettings, ok := raw["settings"].(map[string]interface{})
	if !ok {
		result.fail("Missing settings block")
		return result
	}
	settings := decodeSettings(rawSettings, &result)
	if !result.Valid {
		return result
	}

	if err := settings.Validate(); err != nil {
		result.fail("%v", err)
		return result
	}

	if n := playableBoards(settings, SampleBoards); n < SampleBoards {
		result.fail("Playability: only %d/%d sample boards gave both players a legal first move", n, SampleBoards)
	} else {
		result.info("Playability: all %d sample boards give both players a legal first move", SampleBoards)
	}

	// The game's own loader has the last word
	preset, err := config.ReadPreset(path)
	if err != nil {
		result.fail("The game cannot load this preset: %v", err)
		return result
	}

	if result.Valid {
		name := preset.Name
		if name == "" {
			name = strings.TrimSuffix(result.File, filepath.Ext(result.File))
		}
		result.info("Name: %s", name)
		result.info("Board: %dx%d", settings.Length, settings.Width)
		result.info("Dots: %d each (max %d)", settings.NumDots, engine.MaxDots(settings.Length, settings.Width))
		result.info("Barriers: %s, %d shapes", engine.DensityLabel(settings.BarrierDensity), settings.BarrierShapes())
		result.info("Powerups: %d at start, one every %d turns", settings.NumPowerups, settings.PowerupFrequency)
		result.info("Crumblies: %d", settings.NumCrumblies)
		result.info("Deletes/Creates: %d/%d", settings.NumDeletes, settings.NumCreates)
	}
	return result
}

func decodeSettings(raw map[string]interface{}, result *Result) engine.Settings {
	values := make(map[string]int, len(settingFields))
	known := make(map[string]bool, len(settingFields))
	for _, field := range settingFields {
		known[field] = true
		value, ok := raw[field]
		if !ok {
			result.fail("Missing setting: %s", field)
			continue
		}
		n, err := wholeNumber(value)
		if err != nil {
			result.fail("settings.%s: %v", field, err)
			continue
		}
		values[field] = n
	}

	var unknown []string
	for key := range raw {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		result.fail("Unknown setting: %s", key)
	}

	return engine.Settings{
		Length:           values["length"],
		Width:            values["width"],
		NumDots:          values["num_dots"],
		NumPowerups:      values["num_powerups"],
		PowerupFrequency: values["powerup_frequency"],
		NumCrumblies:     values["num_crumblies"],
		BarrierDensity:   values["barrier_density"],
		NumDeletes:       values["num_deletes"],
		NumCreates:       values["num_creates"],
	}
}

// wholeNumber accepts numbers only; quoted numbers are reported rather than
// coerced because the game's loader rejects them.
func wholeNumber(value interface{}) (int, error) {
	switch v := value.(type) {
	case string:
		if _, err := cast.ToIntE(v); err == nil {
			return 0, fmt.Errorf("must be a number, not the string %q", v)
		}
		return 0, fmt.Errorf("must be a number, got %q", v)
	case bool, nil:
		return 0, fmt.Errorf("must be a number, got %v", v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("must be a whole number, got %v", v)
		}
	}
	n, err := cast.ToIntE(value)
	if err != nil {
		return 0, fmt.Errorf("must be a number, got %v", value)
	}
	return n, nil
}

// playableBoards generates sample boards with fixed seeds and counts those
// where every player has a dot that can move.
func playableBoards(s engine.Settings, samples int) int {
	playable := 0
	for seed := 0; seed < samples; seed++ {
		board := engine.Generate(s, rand.New(rand.NewPCG(uint64(seed), uint64(seed)+1)))
		if canMove(board, engine.Player1) && canMove(board, engine.Player2) {
			playable++
		}
	}
	return playable
}

func canMove(b *engine.Board, p engine.PlayerID) bool {
	for _, dot := range b.DotCoords(p) {
		if len(b.Destinations(dot, 1, p)) > 0 {
			return true
		}
	}
	return false
}

// Dir validates every preset file in dir, sorted by file name
func Dir(dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			results = append(results, File(filepath.Join(dir, entry.Name())))
		}
	}
	return results, nil
}

// Report prints a concise report and returns whether every file was valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Messages {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		fmt.Fprintln(w, "❌ INVALID")
		allValid = false
		for _, msg := range result.Messages {
			if !strings.HasPrefix(msg, "✓") {
				fmt.Fprintln(w, "  ❌ "+msg)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No preset files found")
	case allValid:
		fmt.Fprintln(w, "✅ All presets are valid!")
	default:
		fmt.Fprintln(w, "❌ Some presets have errors")
	}
	return allValid
}
