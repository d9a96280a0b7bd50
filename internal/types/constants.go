// Package types provides type-safe constants for the fota update pipeline.
//
// This package centralizes the enumerated types used throughout the codebase,
// replacing magic strings with typed constants that provide compile-time safety
// and validation methods.
package types

import (
	"fmt"
	"strings"
)

// Phase represents where the update orchestrator currently is.
type Phase string

const (
	// PhaseIdle indicates no update activity.
	PhaseIdle Phase = "idle"
	// PhaseChecking indicates the manifest check is in flight.
	PhaseChecking Phase = "checking"
	// PhaseDownloading indicates image bytes are being transferred.
	PhaseDownloading Phase = "downloading"
	// PhaseInstalling indicates the received image is being finalized.
	PhaseInstalling Phase = "installing"
	// PhaseRebooting indicates a finished image is waiting for restart.
	PhaseRebooting Phase = "rebooting"
)

// AllPhases returns all valid phases in pipeline order.
func AllPhases() []Phase {
	return []Phase{PhaseIdle, PhaseChecking, PhaseDownloading, PhaseInstalling, PhaseRebooting}
}

// Validate checks if the Phase is a valid value.
func (p Phase) Validate() error {
	switch p {
	case PhaseIdle, PhaseChecking, PhaseDownloading, PhaseInstalling, PhaseRebooting:
		return nil
	case "":
		return fmt.Errorf("phase is required")
	default:
		return fmt.Errorf("invalid phase '%s'", p)
	}
}

// String returns the string representation of the Phase.
func (p Phase) String() string {
	return string(p)
}

// IsIdle returns true if no update activity is underway.
func (p Phase) IsIdle() bool {
	return p == PhaseIdle
}

// IsActive returns true while a check or transfer is in flight.
func (p Phase) IsActive() bool {
	return p == PhaseChecking || p == PhaseDownloading || p == PhaseInstalling
}

// IsTerminal returns true once the process is headed for restart.
func (p Phase) IsTerminal() bool {
	return p == PhaseRebooting
}

// ParsePhase parses a string into a Phase.
// Returns an error if the string is not a valid phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(s))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// DownloadMode represents how the firmware image is transferred.
type DownloadMode string

const (
	// DownloadStreamed indicates a single GET with the body streamed to the
	// installer in one pass.
	DownloadStreamed DownloadMode = "streamed"
	// DownloadChunked indicates a sequence of ranged GETs that survive
	// disconnects.
	DownloadChunked DownloadMode = "chunked"
)

// AllDownloadModes returns all valid download modes.
func AllDownloadModes() []DownloadMode {
	return []DownloadMode{DownloadStreamed, DownloadChunked}
}

// Validate checks if the DownloadMode is a valid value.
func (m DownloadMode) Validate() error {
	switch m {
	case DownloadStreamed, DownloadChunked:
		return nil
	case "":
		return fmt.Errorf("download mode is required")
	default:
		return fmt.Errorf("invalid download mode '%s' (must be streamed or chunked)", m)
	}
}

// String returns the string representation of the DownloadMode.
func (m DownloadMode) String() string {
	return string(m)
}

// IsStreamed returns true if the image is fetched in one pass.
func (m DownloadMode) IsStreamed() bool {
	return m == DownloadStreamed
}

// IsChunked returns true if the image is fetched with ranged requests.
func (m DownloadMode) IsChunked() bool {
	return m == DownloadChunked
}

// ParseDownloadMode parses a string into a DownloadMode.
// Returns an error if the string is not a valid download mode.
func ParseDownloadMode(s string) (DownloadMode, error) {
	m := DownloadMode(strings.ToLower(s))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}
