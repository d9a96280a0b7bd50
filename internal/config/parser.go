// Package config handles fota configuration parsing and location resolution.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format represents the file format of a config file.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
	FormatJSON
)

// detectFormat determines the file format based on extension or content.
func detectFormat(path string, content []byte) Format {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}

	// Content sniffing for extensionless files
	return sniffFormat(content)
}

// sniffFormat attempts to detect format from content.
func sniffFormat(content []byte) Format {
	trimmed := strings.TrimSpace(string(content))

	// JSON starts with { or [
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}

	// TOML typically has [sections] or key = value with = sign
	// YAML uses key: value with : sign
	// Check for TOML indicators first
	if strings.Contains(trimmed, " = ") || strings.HasPrefix(trimmed, "[") {
		// Verify it's valid TOML by checking for = on non-comment lines
		lines := strings.Split(trimmed, "\n")
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if strings.Contains(line, " = ") || strings.HasPrefix(line, "[") {
				return FormatTOML
			}
			// If we see : without =, it's likely YAML
			if strings.Contains(line, ":") && !strings.Contains(line, "=") {
				return FormatYAML
			}
		}
	}

	// Default to YAML if we see colons
	if strings.Contains(trimmed, ":") {
		return FormatYAML
	}

	return FormatUnknown
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns in content.
// Hosts and credentials vary per fleet, so files can reference the
// environment instead of hardcoding them.
func expandEnvVars(content []byte) []byte {
	result := envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		parts := envVarPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := string(parts[1])
		value := os.Getenv(varName)

		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			// Use default value
			value = string(parts[2])
		}

		return []byte(value)
	})

	return result
}

// parse parses the content according to the specified format.
func parse(content []byte, format Format) (*Config, error) {
	// Expand environment variables first
	content = expandEnvVars(content)

	cfg := &Config{}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("JSON parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown file format")
	}

	return cfg, nil
}
