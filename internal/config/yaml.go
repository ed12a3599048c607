package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a legacy YAML profile file into a Profile. YAML profiles
// predate the JSONC format; Load does not read them, and new profiles
// should use Parse/Format instead.
func ParseYAML(data []byte) (Profile, error) {
	var p Profile

	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("invalid YAML: %w", err)
	}

	return p, nil
}

// FormatYAML renders a profile as YAML, the inverse of ParseYAML.
func FormatYAML(p Profile) (string, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to format profile as YAML: %w", err)
	}

	return string(data), nil
}
