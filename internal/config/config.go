// Package config loads the governor daemon's TOML configuration file,
// mirroring the teacher daemon's Config/DefaultConfig pattern.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the daemon's top-level configuration, loaded from
// ~/.yawngovd/config.toml or an explicit path.
type Config struct {
	API       APIConfig       `toml:"api"`
	Governor  GovernorConfig  `toml:"governor"`
	Trace     TraceConfig     `toml:"trace"`
	Platform  PlatformConfig  `toml:"platform"`
}

// APIConfig controls the debugapi HTTP surface.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// GovernorConfig seeds every CPU's initial tunables at startup.
type GovernorConfig struct {
	NumCPUs            int    `toml:"num_cpus"`
	DeepThresholdUs     uint64 `toml:"deep_threshold_us"`
	ShallowThresholdUs  uint64 `toml:"shallow_threshold_us"`
	StatesFile          string `toml:"states_file"`
}

// TraceConfig controls the round-history recorder.
type TraceConfig struct {
	Enabled  bool   `toml:"enabled"`
	DBPath   string `toml:"db_path"`
	MaxSpans int    `toml:"max_spans"`
}

// PlatformConfig selects which Platform implementation to run against.
type PlatformConfig struct {
	// Driver is "linux" or "sim". "sim" is for local development and the
	// `simulate` CLI subcommand; it never touches real hardware.
	Driver string `toml:"driver"`
}

// DefaultConfig returns the daemon's built-in defaults, used when no config
// file is present.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7873,
		},
		Governor: GovernorConfig{
			NumCPUs:            4,
			DeepThresholdUs:    10_000,
			ShallowThresholdUs: 50,
		},
		Trace: TraceConfig{
			Enabled:  true,
			DBPath:   defaultDBPath(),
			MaxSpans: 10_000,
		},
		Platform: PlatformConfig{
			Driver: "linux",
		},
	}
}

// Load reads path if it exists, overlaying it onto DefaultConfig; a missing
// file is not an error, matching the daemon's "run fine on first boot"
// expectation.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = defaultConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

func configDir() string {
	if env := os.Getenv("YAWNGOVD_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".yawngovd")
}

func defaultConfigPath() string {
	return filepath.Join(configDir(), "config.toml")
}

func defaultDBPath() string {
	return filepath.Join(configDir(), "trace.db")
}
