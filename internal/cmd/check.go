package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adamancini/fota/internal/output"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Poll the manifest server for a pending update",
		Long: `Check downloads the manifest and reports whether a newer firmware version
is published for this device type. Nothing is downloaded or installed.

Exit codes:
  0   firmware is up to date
  10  an update is available`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}
}

// runCheck executes the check workflow.
func runCheck() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	c, err := buildCollaborators(cfg)
	if err != nil {
		return err
	}

	m, err := c.checker.Check()
	if err != nil {
		return fmt.Errorf("manifest check failed: %w", err)
	}

	report := output.CheckReport{
		DeviceType:       cfg.Device.Type,
		InstalledVersion: cfg.Device.Version,
	}
	if m != nil {
		report.UpdateAvailable = true
		report.OfferedVersion = m.Version
		report.Image = m.Bin
		report.Checksum = m.Checksum
	}

	if err := writeReport(report); err != nil {
		return err
	}

	if report.UpdateAvailable {
		os.Exit(10)
	}
	return nil
}
