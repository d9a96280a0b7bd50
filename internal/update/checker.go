package update

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/adamancini/fota/internal/identity"
	"github.com/adamancini/fota/internal/link"
	"github.com/adamancini/fota/internal/manifest"
	"github.com/adamancini/fota/internal/transport"
)

// Checker fetches the update manifest over the raw transport and decides
// whether it announces firmware this device should take.
type Checker struct {
	client   transport.Client
	identity manifest.Identity
	host     string
	port     int
	path     string
	arbiter  *link.Arbiter
	provider identity.Provider
	yield    time.Duration
}

// NewChecker creates a checker for the manifest endpoint at host:port/path.
func NewChecker(client transport.Client, id manifest.Identity, host string, port int, path string) *Checker {
	return &Checker{
		client:   client,
		identity: id,
		host:     host,
		port:     port,
		path:     path,
		yield:    DefaultYieldDelay,
	}
}

// WithArbiter routes the manifest exchange through the shared-link arbiter.
func (c *Checker) WithArbiter(a *link.Arbiter) *Checker {
	c.arbiter = a
	return c
}

// WithDeviceID appends the device identifier to manifest requests so the
// server can answer with device-scoped firmware.
func (c *Checker) WithDeviceID(p identity.Provider) *Checker {
	c.provider = p
	return c
}

// WithYieldDelay overrides the pause after the link is released.
func (c *Checker) WithYieldDelay(delay time.Duration) *Checker {
	c.yield = delay
	return c
}

// Check fetches and parses the manifest. It returns the manifest when the
// announced firmware should be installed, nil when the device is up to date
// or the response failed the content gates, and an error when the exchange
// itself failed. The exchange is never retried here; the caller owns the
// check cadence.
func (c *Checker) Check() (*manifest.Manifest, error) {
	path, err := c.requestPath()
	if err != nil {
		return nil, err
	}

	c.arbiter.Acquire()
	defer func() {
		c.client.Close()
		c.arbiter.Release()
		if c.yield > 0 {
			time.Sleep(c.yield)
		}
	}()

	if err := c.client.Connect(c.host, c.port); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	req := request{
		method:  "GET",
		path:    path,
		host:    c.host,
		port:    c.port,
		headers: []string{"Connection: close"},
	}
	if err := req.write(c.client); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	h, err := readHead(c.client)
	if err != nil {
		return nil, wireErr(err)
	}
	if h.status != 200 {
		return nil, statusError(h.status)
	}

	// The manifest body is read into a bounded buffer, so anything that is
	// not a small JSON document is ignored rather than parsed.
	if !isJSONContent(h.contentType) {
		log.WithField("content_type", h.contentType).Warn("manifest response is not JSON, ignoring")
		return nil, nil
	}
	if h.contentLength <= 0 || h.contentLength > manifest.SizeLimit {
		log.WithField("content_length", h.contentLength).Warn("manifest content length outside accepted bounds, ignoring")
		return nil, nil
	}

	body := make([]byte, h.contentLength)
	if _, err := c.client.ReadFull(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	m, err := manifest.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestParse, err)
	}

	if !c.identity.Accepts(m) {
		log.WithFields(log.Fields{
			"announced": m.String(),
			"running":   c.identity.String(),
		}).Debug("announced firmware does not supersede running firmware")
		return nil, nil
	}

	log.WithField("manifest", m.String()).Info("update available")
	return m, nil
}

// requestPath renders the manifest path, appending the device identifier
// when a provider is configured.
func (c *Checker) requestPath() (string, error) {
	if c.provider == nil {
		return c.path, nil
	}

	id, err := c.provider.ID()
	if err != nil {
		return "", fmt.Errorf("resolving device ID: %w", err)
	}

	sep := "?"
	if strings.Contains(c.path, "?") {
		sep = "&"
	}
	return c.path + sep + "id=" + url.QueryEscape(id), nil
}

// IsTransient reports whether err names a failure worth retrying on the next
// check cycle rather than a hard protocol or storage failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, transport.ErrTimeout)
}
