package update

import (
	"github.com/adamancini/fota/internal/manifest"
	"github.com/adamancini/fota/internal/types"
)

// Request identifies one firmware image on the update server. The updater
// builds it from an accepted manifest, or from the forced-update arguments,
// and passes it into the downloader by value; nothing here is shared state
// between attempts.
type Request struct {
	Host     string
	Port     int
	Path     string
	Checksum string // Optional hex MD5, verified by the installer
}

// RequestFromManifest builds the download request an accepted manifest names.
func RequestFromManifest(m *manifest.Manifest) Request {
	return Request{
		Host:     m.Host,
		Port:     m.Port,
		Path:     m.Bin,
		Checksum: m.Checksum,
	}
}

// ProbeResult reports what the server advertised for an image ahead of the
// download.
type ProbeResult struct {
	ContentLength int64
	ContentType   string
	AcceptsRanges bool
}

// Mode returns the transfer mode the probe result calls for.
func (p ProbeResult) Mode() types.DownloadMode {
	if p.AcceptsRanges {
		return types.DownloadChunked
	}
	return types.DownloadStreamed
}

// Progress is a point-in-time snapshot of a running transfer.
type Progress struct {
	Written int64
	Total   int64
}

// Percent returns completion in the range 0 to 100.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Written) / float64(p.Total) * 100
}

// Result describes a finished update attempt.
type Result struct {
	Updated  bool               // Whether new firmware was installed
	Manifest *manifest.Manifest // Accepted manifest, nil for forced updates
	Written  int64              // Bytes the installer accepted
	Checksum string             // Hex MD5 of the installed image
	Mode     types.DownloadMode // How the image was transferred
}

// UpdateChecker decides whether the server announces an acceptable update.
type UpdateChecker interface {
	Check() (*manifest.Manifest, error)
}

// ImageFetcher probes and transfers a firmware image into the installer.
type ImageFetcher interface {
	Probe(req Request) (*ProbeResult, error)
	Download(req Request, contentLength int64, acceptRanges bool) (int64, error)
	Commit() error
	Progress() Progress
	Checksum() string
}
