package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// FileName is the default configuration file name.
const FileName = "doorman.yaml"

// Load reads configuration from path (optional: an empty path means
// environment only) using the process environment.
func Load(path string) (*Config, error) {
	return LoadEnv(path, Environ())
}

// LoadEnv is Load with an explicit environment.
func LoadEnv(path string, environ map[string]string) (*Config, error) {
	var raw []byte
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		raw = data
	}

	cfg, err := Parse(raw, environ)
	if err != nil && path != "" {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, err
}

// Parse expands ${VAR} references in raw YAML, decodes it, applies
// environment overrides and fills defaults. It does not validate.
func Parse(raw []byte, environ map[string]string) (*Config, error) {
	if environ == nil {
		// A nil map would make the env parser fall back to the process environment.
		environ = map[string]string{}
	}
	expanded, err := expandEnv(raw, environ)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables: %w", err)
	}

	var cfg Config
	if len(bytes.TrimSpace(expanded)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: parsing: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if cfg.Webhook.PublicURL == "" {
		cfg.Webhook.PublicURL = environ["RENDER_EXTERNAL_URL"]
	}

	cfg.Defaults()
	return &cfg, nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Returns an error listing all unresolved variables (no default, no env value).
func expandEnv(raw []byte, environ map[string]string) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		hasDefault := len(subs) > 2 && subs[2] != nil

		if value, ok := environ[name]; ok {
			return []byte(value)
		}
		if hasDefault {
			return subs[2]
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	return env.ToMap(os.Environ())
}

// ResolvePath returns the configuration file to use, or "" when none exists.
// Search order: $DOORMAN_CONFIG, $XDG_CONFIG_HOME/doorman/doorman.yaml
// (or ~/.config/doorman/doorman.yaml), ./doorman.yaml.
func ResolvePath() (string, error) {
	if p, ok := os.LookupEnv("DOORMAN_CONFIG"); ok && strings.TrimSpace(p) != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config: DOORMAN_CONFIG: %w", err)
		}
		return p, nil
	}

	var candidates []string
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "doorman", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "doorman", FileName))
	}
	candidates = append(candidates, FileName)

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}
