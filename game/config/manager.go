package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/service"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// presetExtensions lists the accepted preset formats in lookup order
var presetExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles the current settings and preset loading and caching
type Manager struct {
	presetDir    string
	settingsFile string
	current      engine.Settings
	presets      map[string]*service.Preset
	mu           sync.RWMutex
}

// NewManager creates a new configuration manager. The current settings are
// read from settingsFile; a missing or invalid file falls back to the
// defaults. A missing preset directory simply has no presets.
func NewManager(presetDir, settingsFile string) *Manager {
	m := &Manager{
		presetDir:    presetDir,
		settingsFile: settingsFile,
		current:      engine.DefaultSettings(),
		presets:      make(map[string]*service.Preset),
	}
	m.loadCurrent()
	return m
}

// Current returns the settings new games are generated from
func (m *Manager) Current() engine.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SaveCurrent validates settings, writes them to the settings file and makes
// them current
func (m *Manager) SaveCurrent(settings engine.Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settingsFile != "" {
		if err := os.MkdirAll(filepath.Dir(m.settingsFile), 0755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
		if err := os.WriteFile(m.settingsFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write settings file: %w", err)
		}
	}
	m.current = settings
	return nil
}

// LoadPreset loads a preset by name
func (m *Manager) LoadPreset(name string) (*service.Preset, error) {
	name = presetID(name)

	m.mu.RLock()
	// Check cache first
	if preset, exists := m.presets[name]; exists {
		m.mu.RUnlock()
		return preset, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if preset, exists := m.presets[name]; exists {
		return preset, nil
	}

	path, err := m.findPreset(name)
	if err != nil {
		return nil, err
	}
	preset, err := ReadPreset(path)
	if err != nil {
		return nil, err
	}
	if preset.Name == "" {
		preset.Name = name
	}

	m.presets[name] = preset
	return preset, nil
}

// ListPresets returns information about all valid presets
func (m *Manager) ListPresets() ([]*service.PresetInfo, error) {
	entries, err := os.ReadDir(m.presetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var presets []*service.PresetInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isPresetFile(entry.Name()) {
			continue
		}

		name := presetID(entry.Name())
		if seen[name] {
			continue
		}

		// Try to load the preset to get details
		preset, err := m.LoadPreset(name)
		if err != nil {
			log.WithField("file", entry.Name()).WithError(err).Warn("skipping invalid preset")
			continue
		}
		seen[name] = true

		presets = append(presets, &service.PresetInfo{
			Filename:    entry.Name(),
			PresetID:    name, // This is the identifier to use for session creation
			Name:        preset.Name,
			Description: preset.Description,
			Length:      preset.Settings.Length,
			Width:       preset.Settings.Width,
			NumDots:     preset.Settings.NumDots,
			Density:     engine.DensityLabel(preset.Settings.BarrierDensity),
		})
	}

	sort.Slice(presets, func(i, j int) bool { return presets[i].PresetID < presets[j].PresetID })
	return presets, nil
}

// SavePreset saves a preset to disk. The format follows the extension of
// name and defaults to JSON.
func (m *Manager) SavePreset(name string, preset *service.Preset) error {
	// Validate preset before saving
	if err := preset.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	filename := name
	if !isPresetFile(filename) {
		filename = name + ".json"
	}

	var (
		data []byte
		err  error
	)
	if filepath.Ext(filename) == ".json" {
		data, err = json.MarshalIndent(preset, "", "  ")
	} else {
		data, err = yaml.Marshal(preset)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.MkdirAll(m.presetDir, 0755); err != nil {
		return fmt.Errorf("failed to create preset directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.presetDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.presets[presetID(name)] = preset
	m.mu.Unlock()

	return nil
}

// RefreshCache drops every cached preset and rereads the settings file
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.presets = make(map[string]*service.Preset)
	m.mu.Unlock()
	m.loadCurrent()
}

// ReadPreset parses and validates a single JSON or YAML preset file
func ReadPreset(path string) (*service.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset service.Preset
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &preset)
	default:
		err = json.Unmarshal(data, &preset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}

	if err := preset.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &preset, nil
}

func (m *Manager) findPreset(name string) (string, error) {
	for _, ext := range presetExtensions {
		path := filepath.Join(m.presetDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrConfigNotFound
}

func (m *Manager) loadCurrent() {
	settings := engine.DefaultSettings()
	if m.settingsFile != "" {
		data, err := os.ReadFile(m.settingsFile)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			log.WithError(err).Warn("failed to read settings file, using defaults")
		default:
			var stored engine.Settings
			if err := json.Unmarshal(data, &stored); err != nil {
				log.WithError(err).Warn("failed to parse settings file, using defaults")
			} else if err := stored.Validate(); err != nil {
				log.WithError(err).Warn("stored settings are invalid, using defaults")
			} else {
				settings = stored
			}
		}
	}

	m.mu.Lock()
	m.current = settings
	m.mu.Unlock()
}

// presetID strips any directory and known extension from a preset name
func presetID(name string) string {
	name = filepath.Base(name)
	for _, ext := range presetExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

func isPresetFile(name string) bool {
	for _, ext := range presetExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
