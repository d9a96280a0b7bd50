package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adamancini/fota/internal/identity"
	"github.com/adamancini/fota/internal/output"
	"github.com/adamancini/fota/internal/state"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show device identity and last activation",
		Long: `Status shows the configured device identity, the manifest endpoint, and
the last image this client activated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

// runStatus executes the status workflow.
func runStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	report := output.StatusReport{
		DeviceType:       cfg.Device.Type,
		InstalledVersion: cfg.Device.Version,
		ManifestURL:      fmt.Sprintf("http://%s:%d%s", cfg.Manifest.Host, cfg.Manifest.Port, cfg.Manifest.Path),
	}

	if cfg.Manifest.SendsDeviceID() {
		if id, err := identity.NewMachine(cfg.Device.DataDir).ID(); err == nil {
			report.DeviceID = id
		} else {
			log.WithError(err).Debug("no device id available")
		}
	}

	img, err := state.NewStore(cfg.Device.DataDir).Current()
	if err != nil {
		log.WithError(err).Warn("failed to read activation record")
	} else if img != nil {
		report.LastImage = &output.ImageReport{
			Version:     img.Version,
			Checksum:    img.Checksum,
			Size:        img.Size,
			Path:        img.Path,
			InstalledAt: img.InstalledAt,
		}
	}

	return writeReport(report)
}
