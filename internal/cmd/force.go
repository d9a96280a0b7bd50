package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/fota/internal/config"
	"github.com/adamancini/fota/internal/interactive"
	"github.com/adamancini/fota/internal/update"
)

func newForceCmd() *cobra.Command {
	var (
		host       string
		port       int
		imagePath  string
		checksum   string
		reboot     bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "force",
		Short: "Install a specific image, bypassing the version gate",
		Long: `Force downloads and installs the image at the given path without consulting
the manifest. The version comparison is skipped; the checksum is still
verified when one is provided.

Examples:
  fota force --path /firmware/sensor-gw-9.bin
  fota force --host lab.example.com --port 8080 --path /img.bin --checksum 9e107d9d372bb6826bd81d3542a419d6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForce(host, port, imagePath, checksum, reboot, noProgress)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Image server host (defaults to manifest host)")
	cmd.Flags().IntVar(&port, "port", 0, "Image server port (defaults to manifest port)")
	cmd.Flags().StringVar(&imagePath, "path", "", "Image path on the server")
	cmd.Flags().StringVar(&checksum, "checksum", "", "Expected MD5 of the image")
	cmd.Flags().BoolVar(&reboot, "reboot", false, "Reboot after a successful install")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

// runForce executes the forced update workflow.
func runForce(host string, port int, imagePath, checksum string, reboot, noProgress bool) error {
	cfg, err := loadConfig()
	if err != nil {
		// Forced installs may run on unprovisioned units as long as the
		// server is given explicitly.
		if host == "" {
			return err
		}
		cfg = config.Default()
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	if host == "" {
		host = cfg.Manifest.Host
	}
	if port == 0 {
		port = cfg.Manifest.Port
	}
	if host == "" {
		return fmt.Errorf("no image server: set --host or configure manifest.host")
	}

	c, err := buildCollaborators(cfg)
	if err != nil {
		return err
	}
	if reboot {
		c.updater = c.updater.WithReboot(rebootDevice)
	}

	req := update.Request{
		Host:     host,
		Port:     port,
		Path:     imagePath,
		Checksum: checksum,
	}

	stop := make(chan struct{})
	if !noProgress && !quiet && interactive.StderrIsTerminal() {
		go drawProgress(c.updater, stop)
	}

	res, err := c.updater.ForceUpdate(req)
	close(stop)
	if err != nil {
		return fmt.Errorf("forced update failed: %w", err)
	}

	recordActivation(cfg, c, res)

	return writeReport(updateReport(c, res))
}
