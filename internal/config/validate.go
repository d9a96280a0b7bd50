// Package config handles fota configuration parsing and location resolution.
//
// SYNC REQUIREMENT: Validation rules in this file must stay in sync with
// the JSON Schema at schema/fota.schema.json.
//
// When updating validation rules:
//  1. Update this file (validate.go) with the new validation logic
//  2. Update schema/fota.schema.json with matching constraints
//  3. Update the starter config written by `fota init` if adding new fields
//
// Synced validation rules:
//   - Device type format: name characters only (validateDevice)
//   - Manifest host: bare host without scheme or path (validateManifest)
//   - Port range: 1-65535 (validateManifest)
//   - Durations: time.ParseDuration strings, positive (validateDownload)
//   - Log levels: logrus level names (validateLog)
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// deviceTypePattern validates firmware type identifiers sent on the wire.
var deviceTypePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the Config for required fields and valid values.
func Validate(c *Config) error {
	var errors []string

	if err := validateDevice(c.Device); err != nil {
		errors = append(errors, err.Error())
	}

	if err := validateManifest(c.Manifest); err != nil {
		errors = append(errors, err.Error())
	}

	if err := validateDownload(c.Download); err != nil {
		errors = append(errors, err.Error())
	}

	if err := validateInstall(c.Install); err != nil {
		errors = append(errors, err.Error())
	}

	if err := validateLog(c.Log); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateDevice(d Device) error {
	if d.Type == "" {
		return ValidationError{
			Field:   "device.type",
			Message: "type is required",
		}
	}

	if !deviceTypePattern.MatchString(d.Type) {
		return ValidationError{
			Field:   "device.type",
			Message: fmt.Sprintf("invalid type %q (letters, digits, '.', '_' and '-' only)", d.Type),
		}
	}

	if d.Version < 0 {
		return ValidationError{
			Field:   "device.version",
			Message: "version cannot be negative",
		}
	}

	return nil
}

func validateManifest(m Manifest) error {
	if m.Host == "" {
		return ValidationError{
			Field:   "manifest.host",
			Message: "host is required",
		}
	}

	// The host goes straight into the Host header; schemes and paths
	// belong elsewhere.
	if strings.Contains(m.Host, "://") || strings.Contains(m.Host, "/") {
		return ValidationError{
			Field:   "manifest.host",
			Message: "host must be a bare host name without scheme or path",
		}
	}

	if m.Port < 1 || m.Port > 65535 {
		return ValidationError{
			Field:   "manifest.port",
			Message: fmt.Sprintf("port %d out of range (1-65535)", m.Port),
		}
	}

	if !strings.HasPrefix(m.Path, "/") {
		return ValidationError{
			Field:   "manifest.path",
			Message: "path must start with '/'",
		}
	}

	return nil
}

func validateDownload(d Download) error {
	if d.ChunkSize < 1 {
		return ValidationError{
			Field:   "download.chunk_size",
			Message: "chunk_size must be positive",
		}
	}

	if err := validateDuration("download.timeout", d.Timeout); err != nil {
		return err
	}

	if err := validateDuration("download.retry_delay", d.RetryDelay); err != nil {
		return err
	}

	if d.MaxRetries < 0 {
		return ValidationError{
			Field:   "download.max_retries",
			Message: "max_retries cannot be negative",
		}
	}

	return nil
}

// validateDuration accepts empty values; unset durations fall back to their
// package defaults.
func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}

	v, err := time.ParseDuration(value)
	if err != nil {
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid duration %q", value),
		}
	}

	if v <= 0 {
		return ValidationError{
			Field:   field,
			Message: "duration must be positive",
		}
	}

	return nil
}

func validateInstall(i Install) error {
	if i.Dir == "" {
		return ValidationError{
			Field:   "install.dir",
			Message: "dir is required",
		}
	}

	if i.Capacity < 0 {
		return ValidationError{
			Field:   "install.capacity",
			Message: "capacity cannot be negative",
		}
	}

	return nil
}

func validateLog(l Log) error {
	if l.Level == "" {
		return nil
	}

	if _, err := log.ParseLevel(l.Level); err != nil {
		return ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level %q", l.Level),
		}
	}

	return nil
}
