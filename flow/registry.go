package flow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRegistry reads and parses a registry YAML document from disk. It
// does not lint the result; callers should run Lint(registry) before
// trusting it for execution.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	return ParseRegistry(data)
}

// ParseRegistry unmarshals a registry YAML document from bytes.
func ParseRegistry(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	return &reg, nil
}
