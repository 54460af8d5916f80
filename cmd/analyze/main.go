// Command analyze prints quick, human-readable heuristics about the presets
// in the project's configs directory. For each preset it generates a batch
// of seeded boards and reports how crowded they come out: barrier coverage,
// pickups on the board, how many first moves each player has and how often
// a dot starts fully boxed in.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MarshTheBacca/dotto/game/config"
	"github.com/MarshTheBacca/dotto/game/engine"
)

// Analysis holds the averages gathered over the sample boards of one preset
type Analysis struct {
	Name      string
	Settings  engine.Settings
	Samples   int
	Barriers  float64
	Open      float64
	Powerups  float64
	Crumblies float64
	Moves     [2]float64 // first moves available to player 1 and player 2
	Boxed     int        // boards where at least one dot has nowhere to go
	Stuck     int        // boards where a player can't move at all
}

func main() {
	dir := flag.String("dir", "configs", "directory holding the presets")
	samples := flag.Int("samples", 100, "boards to generate per preset")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		var err error
		if files, err = presetFiles(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *dir, err)
			os.Exit(1)
		}
	}

	for _, path := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(path))
		preset, err := config.ReadPreset(path)
		if err != nil {
			fmt.Printf("Error loading preset: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analyze(preset.Name, preset.Settings, *samples))
	}
}

func presetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// analyze generates samples boards from s with fixed seeds
func analyze(name string, s engine.Settings, samples int) Analysis {
	a := Analysis{Name: name, Settings: s, Samples: samples}
	if samples <= 0 {
		return a
	}

	for seed := 0; seed < samples; seed++ {
		board := engine.Generate(s, rand.New(rand.NewPCG(uint64(seed), 0x5eed)))
		a.Barriers += float64(board.Count(engine.Barrier))
		a.Open += float64(board.Count(engine.Open))
		a.Powerups += float64(len(board.Powerups()))
		a.Crumblies += float64(len(board.Crumblies()))

		boxed, stuck := false, false
		for i, p := range []engine.PlayerID{engine.Player1, engine.Player2} {
			moves := 0
			for _, dot := range board.DotCoords(p) {
				n := len(board.Destinations(dot, 1, p))
				if n == 0 {
					boxed = true
				}
				moves += n
			}
			if moves == 0 {
				stuck = true
			}
			a.Moves[i] += float64(moves)
		}
		if boxed {
			a.Boxed++
		}
		if stuck {
			a.Stuck++
		}
	}

	n := float64(samples)
	a.Barriers /= n
	a.Open /= n
	a.Powerups /= n
	a.Crumblies /= n
	a.Moves[0] /= n
	a.Moves[1] /= n
	return a
}

func printAnalysis(w io.Writer, a Analysis) {
	s := a.Settings
	cells := s.Length * s.Width

	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Board: %d x %d (%d cells)\n", s.Length, s.Width, cells)
	fmt.Fprintf(w, "Dots: %d each (max %d)\n", s.NumDots, engine.MaxDots(s.Length, s.Width))
	fmt.Fprintf(w, "Barrier Density: %s\n", engine.DensityLabel(s.BarrierDensity))
	if a.Samples <= 0 {
		fmt.Fprintln(w, "No sample boards generated")
		return
	}

	fmt.Fprintf(w, "Sample Boards: %d\n", a.Samples)
	fmt.Fprintf(w, "Avg Barrier Cells: %.1f (%.0f%% of the board)\n", a.Barriers, 100*a.Barriers/float64(cells))
	fmt.Fprintf(w, "Avg Open Cells: %.1f\n", a.Open)
	fmt.Fprintf(w, "Avg Powerups: %.1f, Crumblies: %.1f\n", a.Powerups, a.Crumblies)
	fmt.Fprintf(w, "Avg First Moves: Player 1 %.1f, Player 2 %.1f\n", a.Moves[0], a.Moves[1])

	if a.Stuck > 0 {
		fmt.Fprintf(w, "⚠️  CRITICAL: %d of %d boards leave a player with no move!\n", a.Stuck, a.Samples)
	} else {
		fmt.Fprintln(w, "✅ Both players can move on every sample board")
	}
	if a.Boxed > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d of %d boards start with a boxed-in dot\n", a.Boxed, a.Samples)
	} else {
		fmt.Fprintln(w, "✅ No dot starts boxed in")
	}
}
