package engine

import (
	"errors"
	"fmt"
	"sort"
)

// Settings holds the parameters a board is generated from
type Settings struct {
	Length           int `json:"length" yaml:"length"`
	Width            int `json:"width" yaml:"width"`
	NumDots          int `json:"num_dots" yaml:"num_dots"`
	NumPowerups      int `json:"num_powerups" yaml:"num_powerups"`
	PowerupFrequency int `json:"powerup_frequency" yaml:"powerup_frequency"`
	NumCrumblies     int `json:"num_crumblies" yaml:"num_crumblies"`
	BarrierDensity   int `json:"barrier_density" yaml:"barrier_density"`
	NumDeletes       int `json:"num_deletes" yaml:"num_deletes"`
	NumCreates       int `json:"num_creates" yaml:"num_creates"`
}

var ErrInvalidSettings = errors.New("invalid settings")

// SettingsError describes which setting is out of range
type SettingsError struct {
	Field  string
	Reason string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *SettingsError) Unwrap() error {
	return ErrInvalidSettings
}

// DensityLabels maps barrier density values to their display names
var DensityLabels = map[int]string{
	2: "Insanely Thick",
	3: "Thick",
	4: "Normal",
	5: "Sparse",
}

// Densities returns the accepted barrier densities, thickest first
func Densities() []int {
	out := make([]int, 0, len(DensityLabels))
	for d := range DensityLabels {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// DensityLabel returns the display name for a density value
func DensityLabel(density int) string {
	if label, ok := DensityLabels[density]; ok {
		return label
	}
	return fmt.Sprintf("Custom (%d)", density)
}

// DefaultSettings returns the settings a fresh install starts with
func DefaultSettings() Settings {
	return Settings{
		Length:           5,
		Width:            5,
		NumDots:          3,
		NumPowerups:      2,
		PowerupFrequency: 5,
		NumCrumblies:     3,
		BarrierDensity:   4,
		NumDeletes:       3,
		NumCreates:       3,
	}
}

// MaxDots returns how many dots each player may start with on a board of
// the given dimensions.
func MaxDots(length, width int) int {
	n := min(length, width) - 2
	if n < 0 {
		return 0
	}
	if n >= len(TriangleNumbers) {
		n = len(TriangleNumbers) - 1
	}
	return TriangleNumbers[n]
}

// BarrierShapes returns how many barrier shapes generation aims to place
func (s Settings) BarrierShapes() int {
	if s.BarrierDensity <= 0 {
		return 0
	}
	return (s.Length / s.BarrierDensity) * (s.Width / s.BarrierDensity)
}

// BarrierCells returns the worst-case number of cells barriers occupy
func (s Settings) BarrierCells() int {
	return s.BarrierShapes() * largestFootprint
}

// freeCells is the board area left after dots and barriers
func (s Settings) freeCells() int {
	return s.Length*s.Width - 2*s.NumDots - s.BarrierCells()
}

// PowerupLimit returns the largest starting powerup count that still fits
// alongside the current crumblies.
func (s Settings) PowerupLimit() int {
	return max(0, s.freeCells()-s.NumCrumblies)
}

// CrumblyLimit returns the largest crumbly count that still fits alongside
// the current starting powerups.
func (s Settings) CrumblyLimit() int {
	return max(0, s.freeCells()-s.NumPowerups)
}

// Validate checks every field and the board capacity rule
func (s Settings) Validate() error {
	if s.Length < MinBoardSize || s.Length > MaxBoardSize {
		return &SettingsError{"length", fmt.Sprintf("%d is outside %d-%d", s.Length, MinBoardSize, MaxBoardSize)}
	}
	if s.Width < MinBoardSize || s.Width > MaxBoardSize {
		return &SettingsError{"width", fmt.Sprintf("%d is outside %d-%d", s.Width, MinBoardSize, MaxBoardSize)}
	}
	if maxDots := MaxDots(s.Length, s.Width); s.NumDots < 1 || s.NumDots > maxDots {
		return &SettingsError{"num_dots", fmt.Sprintf("%d is outside 1-%d for a %dx%d board", s.NumDots, maxDots, s.Length, s.Width)}
	}
	if s.NumPowerups < 0 {
		return &SettingsError{"num_powerups", "must not be negative"}
	}
	if s.PowerupFrequency < 1 {
		return &SettingsError{"powerup_frequency", "must be at least 1"}
	}
	if s.NumCrumblies < 0 {
		return &SettingsError{"num_crumblies", "must not be negative"}
	}
	if _, ok := DensityLabels[s.BarrierDensity]; !ok {
		return &SettingsError{"barrier_density", fmt.Sprintf("%d is not one of %v", s.BarrierDensity, Densities())}
	}
	if s.NumDeletes < 0 {
		return &SettingsError{"num_deletes", "must not be negative"}
	}
	if s.NumCreates < 0 {
		return &SettingsError{"num_creates", "must not be negative"}
	}
	if used := s.NumPowerups + s.NumCrumblies + 2*s.NumDots + s.BarrierCells(); used > s.Length*s.Width {
		return &SettingsError{"capacity", fmt.Sprintf("%d cells needed but the board only has %d", used, s.Length*s.Width)}
	}
	return nil
}
