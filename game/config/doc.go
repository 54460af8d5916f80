// Package config provides settings and preset management for Dotto.
//
// The config package handles:
//   - The current settings, persisted between runs in a settings file
//   - Named presets stored as JSON or YAML files
//   - Preset validation, discovery and listing
//
// Preset Format:
//
// A preset has a name, a description and a settings block with snake_case
// keys:
//
//	name: Big Sparse
//	description: A wide board with few barriers
//	settings:
//	  length: 12
//	  width: 12
//	  num_dots: 6
//	  num_powerups: 4
//	  powerup_frequency: 4
//	  num_crumblies: 6
//	  barrier_density: 5
//	  num_deletes: 3
//	  num_creates: 3
//
// Usage:
//
//	manager := config.NewManager("configs", settingsFile)
//
//	preset, err := manager.LoadPreset("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = manager.SaveCurrent(preset.Settings)
package config
