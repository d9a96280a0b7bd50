// Package output handles formatting command results in different formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer handles output in the specified format.
type Writer struct {
	format Format
	w      io.Writer
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// Write outputs the given value in the configured format.
func (w *Writer) Write(v interface{}) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		return enc.Encode(v)
	default:
		// Text format - assume v implements fmt.Stringer or use default
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w.w, s.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// CheckReport summarizes a manifest poll for the check command.
type CheckReport struct {
	DeviceType       string `json:"device_type" yaml:"device_type"`
	InstalledVersion int    `json:"installed_version" yaml:"installed_version"`
	UpdateAvailable  bool   `json:"update_available" yaml:"update_available"`
	OfferedVersion   int    `json:"offered_version,omitempty" yaml:"offered_version,omitempty"`
	Image            string `json:"image,omitempty" yaml:"image,omitempty"`
	Checksum         string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

func (r CheckReport) String() string {
	if !r.UpdateAvailable {
		return fmt.Sprintf("%s is up to date (version %d)", r.DeviceType, r.InstalledVersion)
	}
	s := fmt.Sprintf("update available for %s: version %d -> %d, image %s",
		r.DeviceType, r.InstalledVersion, r.OfferedVersion, r.Image)
	if r.Checksum != "" {
		s += fmt.Sprintf(" (md5 %s)", r.Checksum)
	}
	return s
}

// UpdateReport summarizes a completed update attempt.
type UpdateReport struct {
	Updated  bool   `json:"updated" yaml:"updated"`
	Version  int    `json:"version,omitempty" yaml:"version,omitempty"`
	Written  int64  `json:"written_bytes" yaml:"written_bytes"`
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	Mode     string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
}

func (r UpdateReport) String() string {
	if !r.Updated {
		return "no update applied"
	}
	s := fmt.Sprintf("installed %d bytes (%s mode)", r.Written, r.Mode)
	if r.Version > 0 {
		s = fmt.Sprintf("installed version %d, %d bytes (%s mode)", r.Version, r.Written, r.Mode)
	}
	if r.Path != "" {
		s += fmt.Sprintf("\nimage: %s", r.Path)
	}
	if r.Checksum != "" {
		s += fmt.Sprintf("\nmd5:   %s", r.Checksum)
	}
	return s
}

// ImageReport describes an activated firmware image.
type ImageReport struct {
	Version     int       `json:"version" yaml:"version"`
	Checksum    string    `json:"checksum" yaml:"checksum"`
	Size        int64     `json:"size" yaml:"size"`
	Path        string    `json:"path" yaml:"path"`
	InstalledAt time.Time `json:"installed_at" yaml:"installed_at"`
}

// StatusReport describes the device as configured plus the last activation.
type StatusReport struct {
	DeviceType       string       `json:"device_type" yaml:"device_type"`
	DeviceID         string       `json:"device_id,omitempty" yaml:"device_id,omitempty"`
	InstalledVersion int          `json:"installed_version" yaml:"installed_version"`
	ManifestURL      string       `json:"manifest_url" yaml:"manifest_url"`
	LastImage        *ImageReport `json:"last_image,omitempty" yaml:"last_image,omitempty"`
}

func (r StatusReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "device:    %s (version %d)\n", r.DeviceType, r.InstalledVersion)
	if r.DeviceID != "" {
		fmt.Fprintf(&b, "id:        %s\n", r.DeviceID)
	}
	fmt.Fprintf(&b, "manifest:  %s", r.ManifestURL)
	if r.LastImage != nil {
		fmt.Fprintf(&b, "\nlast image: version %d, %d bytes, md5 %s",
			r.LastImage.Version, r.LastImage.Size, r.LastImage.Checksum)
		fmt.Fprintf(&b, "\n            %s, installed %s",
			r.LastImage.Path, r.LastImage.InstalledAt.Format(time.RFC3339))
	}
	return b.String()
}
