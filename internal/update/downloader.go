package update

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/adamancini/fota/internal/install"
	"github.com/adamancini/fota/internal/link"
	"github.com/adamancini/fota/internal/transport"
	"github.com/adamancini/fota/internal/types"
)

const (
	// DefaultChunkSize is the ranged-GET window size.
	DefaultChunkSize = 16384

	// DefaultRetryDelay paces reconnects and chunk retries.
	DefaultRetryDelay = 5 * time.Second

	// DefaultYieldDelay is how long the link is left free after release so
	// other arbiter waiters can take it.
	DefaultYieldDelay = 250 * time.Millisecond
)

// Downloader transfers a firmware image into the installer, either as one
// streamed body or as a sequence of ranged GETs that survive disconnects.
//
// In chunked mode the running total of installer-accepted bytes is the single
// source of truth for where the next range request begins: short reads, short
// writes, and dropped connections all shrink the current window and retry,
// which makes the transfer resumable at byte granularity without any
// checkpoint storage.
type Downloader struct {
	client     transport.Client
	installer  install.Installer
	arbiter    *link.Arbiter
	online     func() bool
	chunkSize  int
	retryDelay time.Duration
	yieldDelay time.Duration
	maxRetries uint64

	written atomic.Int64
	total   atomic.Int64
}

// NewDownloader creates a downloader feeding client bytes into installer.
func NewDownloader(client transport.Client, installer install.Installer) *Downloader {
	return &Downloader{
		client:     client,
		installer:  installer,
		chunkSize:  DefaultChunkSize,
		retryDelay: DefaultRetryDelay,
		yieldDelay: DefaultYieldDelay,
	}
}

// WithArbiter serializes link access with other subsystems sharing the
// transport.
func (d *Downloader) WithArbiter(a *link.Arbiter) *Downloader {
	d.arbiter = a
	return d
}

// WithConnectivity installs a predicate consulted before each chunk. While it
// reports false the download pauses without discarding progress.
func (d *Downloader) WithConnectivity(fn func() bool) *Downloader {
	d.online = fn
	return d
}

// WithChunkSize overrides the ranged-GET window size.
func (d *Downloader) WithChunkSize(n int) *Downloader {
	if n > 0 {
		d.chunkSize = n
	}
	return d
}

// WithRetryDelay overrides the pacing between retries.
func (d *Downloader) WithRetryDelay(delay time.Duration) *Downloader {
	d.retryDelay = delay
	return d
}

// WithYieldDelay overrides the pause after each link release.
func (d *Downloader) WithYieldDelay(delay time.Duration) *Downloader {
	d.yieldDelay = delay
	return d
}

// WithMaxRetries bounds consecutive failed attempts on a single window.
// Zero keeps retrying forever.
func (d *Downloader) WithMaxRetries(n uint64) *Downloader {
	d.maxRetries = n
	return d
}

// Progress reports the transfer counters for pollers. Safe to call from
// other goroutines while a download runs.
func (d *Downloader) Progress() Progress {
	return Progress{Written: d.written.Load(), Total: d.total.Load()}
}

// Checksum returns the installer's digest of the bytes written so far.
func (d *Downloader) Checksum() string {
	return d.installer.Checksum()
}

// Probe asks the server how the image can be fetched. The answer selects
// streamed or chunked mode and sizes the install.
func (d *Downloader) Probe(req Request) (*ProbeResult, error) {
	d.arbiter.Acquire()
	defer d.releaseLink()
	defer d.client.Close()

	if err := d.client.Connect(req.Host, req.Port); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	r := request{
		method:  "HEAD",
		path:    req.Path,
		host:    req.Host,
		port:    req.Port,
		headers: []string{"Connection: close"},
	}
	if err := r.write(d.client); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	h, err := readHead(d.client)
	if err != nil {
		return nil, wireErr(err)
	}
	if h.status != 200 {
		return nil, statusError(h.status)
	}

	return &ProbeResult{
		ContentLength: h.contentLength,
		ContentType:   h.contentType,
		AcceptsRanges: h.acceptRanges,
	}, nil
}

// Download transfers the image described by req into the installer and
// returns the number of bytes the installer accepted. The caller supplies
// the probed content length and range support.
func (d *Downloader) Download(req Request, contentLength int64, acceptRanges bool) (int64, error) {
	if contentLength <= 0 {
		return 0, fmt.Errorf("%w: server did not report image size", ErrContentMismatch)
	}

	d.total.Store(contentLength)
	d.written.Store(0)

	if !d.installer.Begin(contentLength) {
		if err := d.installer.Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrSpaceExhausted, err)
		}
		return 0, fmt.Errorf("%w: image of %d bytes rejected", ErrSpaceExhausted, contentLength)
	}
	if req.Checksum != "" {
		d.installer.SetExpectedChecksum(req.Checksum)
	}

	mode := types.DownloadStreamed
	if acceptRanges {
		mode = types.DownloadChunked
	}
	log.WithFields(log.Fields{
		"host": req.Host,
		"path": req.Path,
		"size": contentLength,
		"mode": mode,
	}).Info("starting firmware download")

	var err error
	if acceptRanges {
		err = d.downloadChunked(req, contentLength)
	} else {
		err = d.downloadStreamed(req, contentLength)
	}

	written := d.written.Load()
	if err != nil {
		return written, err
	}
	if written != contentLength {
		return written, fmt.Errorf("%w: wrote %d of %d bytes", ErrSizeMismatch, written, contentLength)
	}

	log.WithField("written", written).Info("firmware download complete")
	return written, nil
}

// Commit finalizes the image with the installer once the transfer completed.
func (d *Downloader) Commit() error {
	if !d.installer.End() {
		if err := d.installer.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrInstallFailed, err)
		}
		return fmt.Errorf("%w: installer rejected image", ErrInstallFailed)
	}
	if !d.installer.IsFinished() {
		return fmt.Errorf("%w: image not activated", ErrInstallFailed)
	}
	return nil
}

// downloadChunked walks the image in fixed windows of ranged GETs. Each
// iteration recomputes its window from the accepted-byte total, so a failed
// or shortened iteration is retried from exactly where the last one ended.
func (d *Downloader) downloadChunked(req Request, contentLength int64) error {
	defer d.client.Close()

	buf := make([]byte, d.chunkSize)
	retry := d.newBackOff()

	for d.written.Load() < contentLength {
		d.waitOnline()

		start := d.written.Load()
		end := start + int64(d.chunkSize) - 1
		if end > contentLength-1 {
			end = contentLength - 1
		}

		n, err := d.fetchWindow(req, start, end, buf)
		if n > 0 {
			accepted, werr := d.installer.Write(buf[:n])
			if werr != nil {
				return fmt.Errorf("%w: %v", ErrInstallFailed, werr)
			}
			d.written.Add(int64(accepted))
			if accepted > 0 {
				retry.Reset()
			}
		}
		if err != nil {
			wait := retry.NextBackOff()
			if wait == backoff.Stop {
				return fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
			}
			log.WithFields(log.Fields{
				"window": fmt.Sprintf("%d-%d", start, end),
				"error":  err,
			}).Warn("chunk fetch failed, retrying")
			time.Sleep(wait)
		}
	}
	return nil
}

// fetchWindow issues one ranged GET and fills buf with whatever part of the
// window actually arrived. The connection stays open for the next window
// unless the server or a failure forces it closed.
func (d *Downloader) fetchWindow(req Request, start, end int64, buf []byte) (int, error) {
	d.arbiter.Acquire()
	defer d.releaseLink()

	if !d.client.Connected() {
		if err := d.client.Connect(req.Host, req.Port); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
	}

	r := request{
		method: "GET",
		path:   req.Path,
		host:   req.Host,
		port:   req.Port,
		headers: []string{
			fmt.Sprintf("Range: bytes=%d-%d", start, end),
			"Connection: keep-alive",
		},
	}
	if err := r.write(d.client); err != nil {
		d.client.Close()
		return 0, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	h, err := readHead(d.client)
	if err != nil {
		d.client.Close()
		return 0, wireErr(err)
	}
	if h.status != 206 {
		d.client.Close()
		return 0, statusError(h.status)
	}

	want := end - start + 1
	closeAfter := h.closeAfter
	if h.contentLength >= 0 && h.contentLength != want {
		// The part length disagrees with the requested window. Read what
		// fits and drop the connection so framing stays sane.
		if h.contentLength < want {
			want = h.contentLength
		}
		closeAfter = true
	}
	if want <= 0 {
		d.client.Close()
		return 0, fmt.Errorf("empty response for window %d-%d", start, end)
	}

	n, err := d.client.ReadFull(buf[:want])
	if err != nil {
		// Bytes that did arrive are the leading bytes of the window and
		// still count; the connection is gone for framing purposes.
		d.client.Close()
		return n, wireErr(err)
	}
	if closeAfter {
		d.client.Close()
	}
	return n, nil
}

// downloadStreamed fetches the whole image in one GET. The link stays held
// for the duration: a streamed body cannot be paused and resumed, so nothing
// is gained by releasing between reads. A drop mid-stream fails the whole
// download.
func (d *Downloader) downloadStreamed(req Request, contentLength int64) error {
	d.waitOnline()

	d.arbiter.Acquire()
	defer d.releaseLink()
	defer d.client.Close()

	if err := d.client.Connect(req.Host, req.Port); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	r := request{
		method:  "GET",
		path:    req.Path,
		host:    req.Host,
		port:    req.Port,
		headers: []string{"Connection: close"},
	}
	if err := r.write(d.client); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	h, err := readHead(d.client)
	if err != nil {
		return wireErr(err)
	}
	if h.status != 200 {
		return statusError(h.status)
	}
	if h.contentLength >= 0 && h.contentLength != contentLength {
		return fmt.Errorf("%w: image size %d differs from probed %d", ErrContentMismatch, h.contentLength, contentLength)
	}

	stored, err := d.installer.WriteStream(&bodyReader{
		client:    d.client,
		counter:   &d.written,
		remaining: contentLength,
	})
	d.written.Store(stored)
	if err != nil {
		if errors.Is(err, transport.ErrTimeout) || errors.Is(err, transport.ErrClosed) ||
			errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: stream interrupted: %v", ErrUnreachable, err)
		}
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	return nil
}

// waitOnline blocks while the external connectivity predicate reports the
// link down. Progress is kept; the same window runs once the link returns.
func (d *Downloader) waitOnline() {
	if d.online == nil {
		return
	}
	for !d.online() {
		log.Debug("link down, waiting")
		time.Sleep(d.retryDelay)
	}
}

// releaseLink frees the link and yields so other waiters can take it before
// the next exchange.
func (d *Downloader) releaseLink() {
	d.arbiter.Release()
	if d.yieldDelay > 0 {
		time.Sleep(d.yieldDelay)
	}
}

// newBackOff builds the pacing policy for failed windows. Retries are
// unbounded unless WithMaxRetries set a ceiling.
func (d *Downloader) newBackOff() backoff.BackOff {
	var bo backoff.BackOff = backoff.NewConstantBackOff(d.retryDelay)
	if d.maxRetries > 0 {
		bo = backoff.WithMaxRetries(bo, d.maxRetries)
	}
	return bo
}

// bodyReader adapts the transport to io.Reader for streamed installs and
// keeps the progress counter live while the installer consumes the body.
type bodyReader struct {
	client    transport.Client
	counter   *atomic.Int64
	remaining int64
}

func (r *bodyReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}

	n, err := r.client.ReadFull(p)
	r.remaining -= int64(n)
	r.counter.Add(int64(n))
	return n, err
}
