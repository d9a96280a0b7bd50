// Package config handles fota configuration parsing and location resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adamancini/fota/internal/transport"
	"github.com/adamancini/fota/internal/update"
)

// Defaults applied by Load for fields the config file leaves unset.
const (
	DefaultDataDir      = "/var/lib/fota"
	DefaultManifestPort = 80
	DefaultManifestPath = "/manifest.json"
	DefaultLogLevel     = "info"
)

// Device identifies the firmware currently running on this unit.
type Device struct {
	Type    string `yaml:"type" toml:"type" json:"type"`
	Version int    `yaml:"version" toml:"version" json:"version"`
	DataDir string `yaml:"data_dir,omitempty" toml:"data_dir,omitempty" json:"data_dir,omitempty"`
}

// Manifest describes where update manifests are published.
type Manifest struct {
	Host        string `yaml:"host" toml:"host" json:"host"`
	Port        int    `yaml:"port,omitempty" toml:"port,omitempty" json:"port,omitempty"`
	Path        string `yaml:"path,omitempty" toml:"path,omitempty" json:"path,omitempty"`
	UseDeviceID *bool  `yaml:"use_device_id,omitempty" toml:"use_device_id,omitempty" json:"use_device_id,omitempty"`
}

// SendsDeviceID reports whether check requests should carry the device id.
// Unset means yes.
func (m Manifest) SendsDeviceID() bool {
	return m.UseDeviceID == nil || *m.UseDeviceID
}

// Download tunes the firmware transfer loop.
type Download struct {
	ChunkSize  int    `yaml:"chunk_size,omitempty" toml:"chunk_size,omitempty" json:"chunk_size,omitempty"`
	Timeout    string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
	RetryDelay string `yaml:"retry_delay,omitempty" toml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
	MaxRetries int    `yaml:"max_retries,omitempty" toml:"max_retries,omitempty" json:"max_retries,omitempty"`
}

// TimeoutDuration returns the parsed socket timeout. Validate guarantees the
// field parses; an unset field falls back to the transport default.
func (d Download) TimeoutDuration() time.Duration {
	return parseDurationOr(d.Timeout, transport.DefaultTimeout)
}

// RetryDelayDuration returns the parsed pause between failed transfer windows.
func (d Download) RetryDelayDuration() time.Duration {
	return parseDurationOr(d.RetryDelay, update.DefaultRetryDelay)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return v
}

// Install controls where verified images are staged and activated.
type Install struct {
	Dir      string `yaml:"dir,omitempty" toml:"dir,omitempty" json:"dir,omitempty"`
	Capacity int64  `yaml:"capacity,omitempty" toml:"capacity,omitempty" json:"capacity,omitempty"`
}

// Log controls logger verbosity and destination.
type Log struct {
	Level string `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	File  string `yaml:"file,omitempty" toml:"file,omitempty" json:"file,omitempty"`
}

// Config represents the parsed configuration file.
type Config struct {
	Device   Device   `yaml:"device" toml:"device" json:"device"`
	Manifest Manifest `yaml:"manifest" toml:"manifest" json:"manifest"`
	Download Download `yaml:"download,omitempty" toml:"download,omitempty" json:"download,omitempty"`
	Install  Install  `yaml:"install,omitempty" toml:"install,omitempty" json:"install,omitempty"`
	Log      Log      `yaml:"log,omitempty" toml:"log,omitempty" json:"log,omitempty"`
}

// Default returns a Config with every tunable at its default value.
// Device type, version, and manifest host still need to be filled in.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// applyDefaults fills unset fields so the rest of the program never has to
// re-check for zero values.
func (c *Config) applyDefaults() {
	if c.Device.DataDir == "" {
		c.Device.DataDir = DefaultDataDir
	}
	if c.Manifest.Port == 0 {
		c.Manifest.Port = DefaultManifestPort
	}
	if c.Manifest.Path == "" {
		c.Manifest.Path = DefaultManifestPath
	}
	if c.Download.ChunkSize == 0 {
		c.Download.ChunkSize = update.DefaultChunkSize
	}
	if c.Download.Timeout == "" {
		c.Download.Timeout = transport.DefaultTimeout.String()
	}
	if c.Download.RetryDelay == "" {
		c.Download.RetryDelay = update.DefaultRetryDelay.String()
	}
	if c.Install.Dir == "" {
		c.Install.Dir = filepath.Join(c.Device.DataDir, "images")
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// FindConfig searches for a fota config file in the standard locations.
// Returns the path to the first file found, or an error if none exists.
func FindConfig(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Check FOTA_CONFIG environment variable
	if envPath := os.Getenv("FOTA_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	// Build search paths in order of precedence. Home directories are
	// optional so that headless units with only /etc/fota still resolve.
	var searchPaths []string

	if home, err := os.UserHomeDir(); err == nil {
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig == "" {
			xdgConfig = filepath.Join(home, ".config")
		}
		searchPaths = append(searchPaths, filepath.Join(xdgConfig, "fota"))
		searchPaths = append(searchPaths, filepath.Join(home, ".fota"))
	}
	searchPaths = append(searchPaths, "/etc/fota")

	// File name variants
	fileNames := []string{
		"fota.toml",
		"fota.yaml",
		"fota.yml",
		"fota.json",
		"config.toml",
		"config.yaml",
		"config.yml",
		"config.json",
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("no config file found in standard locations")
}

// DefaultConfigPath returns where `fota init` writes a starter config.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return filepath.Join(xdgConfig, "fota", "fota.toml"), nil
}

// Load reads, parses, and validates a config file from the given path.
// Defaults are applied before validation.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	cfg, err := parse(content, format)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
