// Package identity resolves the stable device identifier reported to the
// update server during manifest checks.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Provider yields the device identifier appended to manifest requests.
type Provider interface {
	ID() (string, error)
}

// Static is a fixed identifier, used when configuration pins the device ID.
type Static string

// ID returns the fixed identifier.
func (s Static) ID() (string, error) {
	return string(s), nil
}

// Machine derives the identifier from the host's machine ID. Hosts without
// one get a generated UUID persisted under the data directory so the device
// keeps the same identity across runs.
type Machine struct {
	dataDir string
	paths   []string
}

// NewMachine returns a Machine provider that persists its fallback
// identifier under dataDir.
func NewMachine(dataDir string) *Machine {
	return &Machine{
		dataDir: dataDir,
		paths: []string{
			"/etc/machine-id",
			"/var/lib/dbus/machine-id",
		},
	}
}

// ID returns the machine ID, or the persisted fallback identifier.
func (m *Machine) ID() (string, error) {
	for _, path := range m.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}
	return m.persistedID()
}

// persistedID reads the generated identifier from the data directory,
// creating one on first use.
func (m *Machine) persistedID() (string, error) {
	path := filepath.Join(m.dataDir, "device-id")

	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	id := uuid.New().String()
	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("persisting device ID: %w", err)
	}
	return id, nil
}
