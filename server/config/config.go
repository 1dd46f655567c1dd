// Package config implements the on-disk server configuration: view
// distance, tick rate, generation worker pool size, and save-on-unload
// paths (AMBIENT STACK), loaded from and saved to a TOML file the same way
// the teacher's whitelist persists its player list.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

// Config holds every tunable the world/server wiring reads at startup.
type Config struct {
	// ViewDistance is the default view distance, in chunks, assigned to a
	// newly joined player (§4.7).
	ViewDistance int32 `toml:"view_distance"`
	// TickRate is the target ticks per second the clock runs at (§6.1).
	TickRate float64 `toml:"tick_rate"`
	// MaxConcurrentGenerations bounds the chunk map's generation worker
	// pool (§5).
	MaxConcurrentGenerations int `toml:"max_concurrent_generations"`
	// WorldDir is the base directory region files are read from and
	// written to (§6.5).
	WorldDir string `toml:"world_dir"`
	// MinY and Height define the build height range new chunks are created
	// with (§3).
	MinY   int32 `toml:"min_y"`
	Height int32 `toml:"height"`
}

// New returns the default configuration a freshly installed server starts
// with.
func New() Config {
	return Config{
		ViewDistance:             10,
		TickRate:                 20,
		MaxConcurrentGenerations: 4,
		WorldDir:                 "world",
		MinY:                     -64,
		Height:                   384,
	}
}

// Load reads the TOML configuration at path, creating it (with defaults)
// if it does not yet exist, matching the teacher's whitelist
// read-or-initialize behavior.
func Load(path string) (Config, error) {
	cfg := New()
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, Save(path, cfg)
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if len(contents) == 0 {
		return cfg, nil
	}
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating its parent directory if
// needed.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("config: create directory %s: %w", dir, err)
		}
	}
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
