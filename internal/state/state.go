// Package state records which firmware image is currently activated.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// recordName is the file the store keeps under its data directory.
const recordName = "installed.json"

// Image describes an activated firmware image.
type Image struct {
	Type        string    `json:"type"`
	Version     int       `json:"version"`
	Checksum    string    `json:"checksum"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	InstalledAt time.Time `json:"installed_at"`
}

// Store persists activation records under the device data directory.
type Store struct {
	dataDir string
}

// NewStore creates a store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// Record replaces the current activation record with img. The record lands
// via rename so a reader never sees a partial file.
func (s *Store) Record(img Image) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(img, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode activation record: %w", err)
	}
	data = append(data, '\n')

	tmp := filepath.Join(s.dataDir, recordName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write activation record: %w", err)
	}

	if err := os.Rename(tmp, filepath.Join(s.dataDir, recordName)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit activation record: %w", err)
	}

	return nil
}

// Current returns the last recorded image, or nil when none was recorded yet.
func (s *Store) Current() (*Image, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, recordName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read activation record: %w", err)
	}

	img := &Image{}
	if err := json.Unmarshal(data, img); err != nil {
		return nil, fmt.Errorf("failed to parse activation record: %w", err)
	}

	return img, nil
}
