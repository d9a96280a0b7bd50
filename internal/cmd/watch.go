package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adamancini/fota/internal/update"
)

func newWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		reboot   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the update cycle on a schedule",
		Long: `Watch polls the manifest server at a fixed interval and installs any update
it finds. Failed cycles back off exponentially before returning to the
regular cadence. SIGINT or SIGTERM stops the loop cleanly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(interval, reboot)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Hour, "Time between update cycles")
	cmd.Flags().BoolVar(&reboot, "reboot", false, "Reboot after a successful install")

	return cmd
}

// runWatch executes the periodic update loop.
func runWatch(interval time.Duration, reboot bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0

	log.WithFields(log.Fields{
		"host":     cfg.Manifest.Host,
		"interval": interval,
	}).Info("watching for updates")

	for {
		var res *update.Result
		c, err := buildCollaborators(cfg)
		if err == nil {
			if reboot {
				c.updater = c.updater.WithReboot(rebootDevice)
			}
			res, err = c.updater.Run()
		}

		wait := interval
		switch {
		case err != nil:
			wait = bo.NextBackOff()
			log.WithError(err).Warnf("update cycle failed, next attempt in %s", wait.Round(time.Second))
		case res.Updated:
			bo.Reset()
			recordActivation(cfg, c, res)
			log.WithFields(log.Fields{
				"written": res.Written,
				"md5":     res.Checksum,
			}).Info("firmware installed")
			if reboot {
				// The unit is going down; nothing left to watch.
				return nil
			}
			if res.Manifest != nil {
				// Until the unit reboots into the new image, skip re-offers
				// of the version just installed.
				cfg.Device.Version = res.Manifest.Version
			}
		default:
			bo.Reset()
		}

		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil
		case <-time.After(wait):
		}
	}
}
