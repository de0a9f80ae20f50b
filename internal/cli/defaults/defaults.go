// Package defaults provides the embedded configuration template.
package defaults

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"hookwatch/internal/config"
)

//go:embed config.example.yaml
var exampleConfig []byte

// ExampleYAML returns the commented configuration template.
func ExampleYAML() []byte {
	out := make([]byte, len(exampleConfig))
	copy(out, exampleConfig)
	return out
}

// ExampleConfig parses the template.
func ExampleConfig() (*config.Config, error) {
	var cfg config.Config
	if err := yaml.Unmarshal(exampleConfig, &cfg); err != nil {
		return nil, fmt.Errorf("parse config template: %w", err)
	}
	return &cfg, nil
}
