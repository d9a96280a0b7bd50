// Package update implements the firmware update pipeline: the manifest
// check, the resumable image download, and the orchestration that sequences
// check, download, install, and restart.
package update

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/adamancini/fota/internal/manifest"
	"github.com/adamancini/fota/internal/types"
)

// RebootFunc restarts the device once a finished image is in place. Host
// builds and tests substitute their own.
type RebootFunc func()

// Updater sequences one full update pass. It is the only component that
// moves the phase machine; the checker and downloader below it are
// phase-free.
type Updater struct {
	checker    UpdateChecker
	downloader ImageFetcher
	reboot     RebootFunc

	mu    sync.Mutex
	phase types.Phase
}

// NewUpdater wires a checker and a downloader into one orchestrated flow.
func NewUpdater(checker UpdateChecker, downloader ImageFetcher) *Updater {
	return &Updater{
		checker:    checker,
		downloader: downloader,
		phase:      types.PhaseIdle,
	}
}

// WithReboot sets the restart hook fired after a successful install.
func (u *Updater) WithReboot(fn RebootFunc) *Updater {
	u.reboot = fn
	return u
}

// Phase reports where the updater currently is. Safe to call from other
// goroutines while an update runs.
func (u *Updater) Phase() types.Phase {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.phase
}

func (u *Updater) setPhase(p types.Phase) {
	u.mu.Lock()
	u.phase = p
	u.mu.Unlock()
	log.WithField("phase", p).Debug("phase change")
}

// Progress exposes the downloader's transfer counters for pollers.
func (u *Updater) Progress() Progress {
	return u.downloader.Progress()
}

// Run performs one update cycle: check the manifest and, when it announces
// acceptable firmware, download, install, and restart. A result with
// Updated false means the device is already on the newest acceptable
// firmware. Failures return the updater to idle; retry cadence belongs to
// the caller.
func (u *Updater) Run() (*Result, error) {
	u.setPhase(types.PhaseChecking)

	m, err := u.checker.Check()
	if err != nil {
		u.setPhase(types.PhaseIdle)
		return nil, err
	}
	if m == nil {
		u.setPhase(types.PhaseIdle)
		log.Info("firmware up to date")
		return &Result{Updated: false}, nil
	}

	return u.apply(RequestFromManifest(m), m)
}

// ForceUpdate downloads and installs the image at req without consulting
// the manifest or the version gate.
func (u *Updater) ForceUpdate(req Request) (*Result, error) {
	log.WithFields(log.Fields{
		"host": req.Host,
		"path": req.Path,
	}).Warn("forced update, version gate bypassed")
	return u.apply(req, nil)
}

// apply drives Downloading, Installing, and Rebooting for one image.
func (u *Updater) apply(req Request, m *manifest.Manifest) (res *Result, err error) {
	defer func() {
		if err != nil {
			u.setPhase(types.PhaseIdle)
		}
	}()

	u.setPhase(types.PhaseDownloading)

	probe, err := u.downloader.Probe(req)
	if err != nil {
		return nil, err
	}
	if !isBinaryContent(probe.ContentType) {
		return nil, fmt.Errorf("%w: server offered content type %q, not a firmware image", ErrContentMismatch, probe.ContentType)
	}
	log.WithFields(log.Fields{
		"size": probe.ContentLength,
		"mode": probe.Mode(),
	}).Info("image probe complete")

	written, err := u.downloader.Download(req, probe.ContentLength, probe.AcceptsRanges)
	if err != nil {
		return nil, err
	}

	u.setPhase(types.PhaseInstalling)
	if err = u.downloader.Commit(); err != nil {
		return nil, err
	}

	u.setPhase(types.PhaseRebooting)
	res = &Result{
		Updated:  true,
		Manifest: m,
		Written:  written,
		Checksum: u.downloader.Checksum(),
		Mode:     probe.Mode(),
	}
	if u.reboot != nil {
		log.Info("restarting into new firmware")
		u.reboot()
	}
	return res, nil
}
