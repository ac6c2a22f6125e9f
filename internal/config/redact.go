package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/doorman/internal/security"
)

// Redacted renders cfg as YAML with secrets replaced, for display.
func Redacted(cfg *Config, r *security.Redactor) ([]byte, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	r.AddLiteral(cfg.Secrets()...)
	r.RedactMap(doc)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return out, nil
}
