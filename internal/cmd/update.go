package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/fota/internal/interactive"
)

func newUpdateCmd() *cobra.Command {
	var (
		reboot     bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for new firmware and install it",
		Long: `Update runs the full cycle: poll the manifest, download the image when a
newer version is published, verify it, and activate it.

Downloads resume across connection drops and server restarts. Progress is
drawn on stderr; use --no-progress for non-interactive runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(reboot, noProgress)
		},
	}

	cmd.Flags().BoolVar(&reboot, "reboot", false, "Reboot after a successful install")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

// runUpdate executes the update workflow.
func runUpdate(reboot, noProgress bool) error {
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
	if reboot {
		c.updater = c.updater.WithReboot(rebootDevice)
	}

	stop := make(chan struct{})
	if !noProgress && !quiet && interactive.StderrIsTerminal() {
		go drawProgress(c.updater, stop)
	}

	res, err := c.updater.Run()
	close(stop)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	recordActivation(cfg, c, res)

	return writeReport(updateReport(c, res))
}
