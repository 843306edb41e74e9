// Package app wires configuration, logging, locking, and the run flows
// shared by the fancyjob CLI entry points.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// RunParams configures one invocation.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called; if that finds nothing the
	// built-in defaults are used (the tool must run without a config).
	ConfigPath string

	// Version is injected at build time via ldflags and surfaces in the
	// daemon startup log and status endpoint.
	Version string

	// LogLevel sets the minimum log level. Defaults to slog.LevelInfo.
	LogLevel slog.Level
}

// NewLogger builds the standard text logger on stderr.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/fancyjob/fancyjob.yaml →
// ~/.config/fancyjob/fancyjob.yaml → ./fancyjob.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "fancyjob", "fancyjob.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "fancyjob", "fancyjob.yaml"))
	}

	candidates = append(candidates, "fancyjob.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/fancyjob if set, otherwise ~/.local/share/fancyjob.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "fancyjob")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "fancyjob")
}
