// Package manifest defines the update manifest wire format and the rule
// deciding whether a manifest warrants an update.
package manifest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SizeLimit is the largest manifest body the updater accepts, in bytes. The
// manifest is read into a fixed-size buffer on constrained targets, so the
// server side must keep it small.
const SizeLimit = 256

// Manifest describes the latest firmware image a server offers. The JSON
// field names are the wire contract and must not change.
type Manifest struct {
	FirmwareType string `json:"type"`
	Version      int    `json:"version"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Bin          string `json:"bin"`
	Checksum     string `json:"checksum,omitempty"`
}

// Decode parses a manifest body. A manifest that omits the port defaults to
// 80. Structural problems (missing host or bin, out-of-range port, malformed
// checksum) are reported the same way as JSON syntax errors: the manifest is
// unusable either way.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Port == 0 {
		m.Port = 80
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.FirmwareType == "" {
		return fmt.Errorf("missing firmware type")
	}
	if m.Host == "" {
		return fmt.Errorf("missing host")
	}
	if m.Bin == "" {
		return fmt.Errorf("missing bin path")
	}
	if m.Version < 0 {
		return fmt.Errorf("negative version %d", m.Version)
	}
	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("port %d out of range", m.Port)
	}
	if m.Checksum != "" {
		raw, err := hex.DecodeString(m.Checksum)
		if err != nil || len(raw) != 16 {
			return fmt.Errorf("checksum %q is not hex MD5", m.Checksum)
		}
	}
	return nil
}

// String returns the announced firmware and its source for logs.
func (m *Manifest) String() string {
	return fmt.Sprintf("%s v%d at %s:%d%s", m.FirmwareType, m.Version, m.Host, m.Port, m.Bin)
}

// Identity is the firmware the device is currently running. It is fixed at
// construction time and immutable for the process lifetime.
type Identity struct {
	Type    string
	Version int
}

// Accepts reports whether m describes an update for this identity: the same
// firmware type and a strictly newer version. The forced-update path bypasses
// this gate entirely.
func (id Identity) Accepts(m *Manifest) bool {
	if m == nil {
		return false
	}
	return m.FirmwareType == id.Type && m.Version > id.Version
}

// String returns the identity in type/version form for logs and status
// output.
func (id Identity) String() string {
	return fmt.Sprintf("%s v%d", id.Type, id.Version)
}
