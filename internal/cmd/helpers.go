package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"github.com/adamancini/fota/internal/config"
	"github.com/adamancini/fota/internal/identity"
	"github.com/adamancini/fota/internal/install"
	"github.com/adamancini/fota/internal/link"
	"github.com/adamancini/fota/internal/logging"
	"github.com/adamancini/fota/internal/manifest"
	"github.com/adamancini/fota/internal/output"
	"github.com/adamancini/fota/internal/state"
	"github.com/adamancini/fota/internal/transport"
	"github.com/adamancini/fota/internal/update"
)

// loadConfig resolves and loads the config file honoring the --config flag.
func loadConfig() (*config.Config, error) {
	path, err := config.FindConfig(configPath)
	if err != nil {
		return nil, err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Using config: %s\n", path)
	}

	return config.Load(path)
}

// initLogging applies log settings. The --log-level flag beats --verbose and
// --quiet, which beat the config file.
func initLogging(cfg *config.Config) error {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	if quiet {
		level = "error"
	}
	if logLevel != "" {
		level = logLevel
	}

	file := cfg.Log.File
	if logFile != "" {
		file = logFile
	}

	return logging.Init(level, file)
}

// collaborators bundles the update pipeline built from one config, sharing a
// single transport client and link arbiter the way the device firmware does.
type collaborators struct {
	client     transport.Client
	arbiter    *link.Arbiter
	installer  *install.File
	checker    *update.Checker
	downloader *update.Downloader
	updater    *update.Updater
	store      *state.Store
}

// buildCollaborators wires checker, downloader, and updater from cfg. Nothing
// touches the network until the updater runs.
func buildCollaborators(cfg *config.Config) (*collaborators, error) {
	client := transport.NewTCP()
	client.SetTimeout(cfg.Download.TimeoutDuration())

	arb := link.New()

	if err := os.MkdirAll(cfg.Install.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create install directory: %w", err)
	}
	imageName := cfg.Device.Type + ".bin"
	if cfg.Device.Type == "" {
		imageName = "firmware.bin"
	}
	installer := install.NewFile(cfg.Install.Dir, imageName)
	if cfg.Install.Capacity > 0 {
		installer = installer.WithCapacity(cfg.Install.Capacity)
	}

	id := manifest.Identity{Type: cfg.Device.Type, Version: cfg.Device.Version}
	checker := update.NewChecker(client, id, cfg.Manifest.Host, cfg.Manifest.Port, cfg.Manifest.Path).
		WithArbiter(arb)
	if cfg.Manifest.SendsDeviceID() {
		checker = checker.WithDeviceID(identity.NewMachine(cfg.Device.DataDir))
	}

	downloader := update.NewDownloader(client, installer).
		WithArbiter(arb).
		WithChunkSize(cfg.Download.ChunkSize).
		WithRetryDelay(cfg.Download.RetryDelayDuration())
	if cfg.Download.MaxRetries > 0 {
		downloader = downloader.WithMaxRetries(uint64(cfg.Download.MaxRetries))
	}

	return &collaborators{
		client:     client,
		arbiter:    arb,
		installer:  installer,
		checker:    checker,
		downloader: downloader,
		updater:    update.NewUpdater(checker, downloader),
		store:      state.NewStore(cfg.Device.DataDir),
	}, nil
}

// writeReport renders v on stdout in the format selected by --output.
func writeReport(v interface{}) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	return output.NewWriter(os.Stdout, format).Write(v)
}

// updateReport converts an updater result into the printable summary.
func updateReport(c *collaborators, res *update.Result) output.UpdateReport {
	report := output.UpdateReport{Updated: res.Updated}
	if !res.Updated {
		return report
	}

	report.Written = res.Written
	report.Checksum = res.Checksum
	report.Mode = res.Mode.String()
	report.Path = c.installer.Path()
	if res.Manifest != nil {
		report.Version = res.Manifest.Version
	}
	return report
}

// recordActivation persists what was just installed so status can report it
// after the process exits.
func recordActivation(cfg *config.Config, c *collaborators, res *update.Result) {
	if !res.Updated {
		return
	}

	img := state.Image{
		Type:        cfg.Device.Type,
		Checksum:    res.Checksum,
		Path:        c.installer.Path(),
		Size:        res.Written,
		InstalledAt: time.Now(),
	}
	if res.Manifest != nil {
		img.Version = res.Manifest.Version
	}

	if err := c.store.Record(img); err != nil {
		log.WithError(err).Warn("failed to record activation")
	}
}

// rebootDevice hands the unit to the init system for a restart. The updater
// only calls this after a verified image was activated.
func rebootDevice() {
	log.Warn("rebooting into new firmware")
	if err := exec.Command("reboot").Run(); err != nil {
		log.WithError(err).Error("reboot command failed")
	}
}

// drawProgress renders a byte progress bar on stderr until stop closes. The
// bar appears once the downloader has probed the image size.
func drawProgress(u *update.Updater, stop <-chan struct{}) {
	var bar *progressbar.ProgressBar

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
			return
		case <-ticker.C:
			p := u.Progress()
			if p.Total <= 0 {
				continue
			}
			if bar == nil {
				bar = progressbar.NewOptions64(p.Total,
					progressbar.OptionSetDescription("downloading"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowBytes(true),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionThrottle(100*time.Millisecond),
				)
			}
			_ = bar.Set64(p.Written)
		}
	}
}
