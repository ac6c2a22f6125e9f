// Package app is the entry point shared by the doorman commands: it loads
// configuration, wires the components and runs them until shutdown.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/flemzord/doorman/internal/config"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, config.ResolvePath is consulted; when no file exists the
	// configuration comes from the environment alone.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// Environ replaces the process environment. Nil uses os.Environ.
	Environ map[string]string

	// LogOutput receives log records. Nil means os.Stderr.
	LogOutput io.Writer
}

// LoadConfig resolves, loads and validates the configuration.
func LoadConfig(path string, environ map[string]string) (*config.Config, error) {
	if path == "" {
		resolved, err := config.ResolvePath()
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	if environ == nil {
		environ = config.Environ()
	}

	cfg, err := config.LoadEnv(path, environ)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run loads configuration, starts every component and blocks until a
// shutdown signal is received or ctx is canceled.
func Run(ctx context.Context, params RunParams) error {
	cfg, err := LoadConfig(params.ConfigPath, params.Environ)
	if err != nil {
		return err
	}

	out := params.LogOutput
	if out == nil {
		out = os.Stderr
	}

	bot, err := Build(ctx, cfg, Options{
		Version:   params.Version,
		LogOutput: out,
	})
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	bot.Logger.Info("starting doorman",
		"version", params.Version,
		"commit", params.Commit,
		"built", params.Date,
		"components", bot.App.Names(),
	)
	return bot.App.Run(ctx)
}
