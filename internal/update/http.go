package update

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/adamancini/fota/internal/transport"
)

// Everything on the wire is hand-built HTTP/1.1. The transport may be a plain
// TCP socket today and a modem link tomorrow, so requests are written and
// response headers scanned by hand instead of going through net/http.

const crlf = "\r\n"

// request describes one HTTP exchange issued over the raw transport.
type request struct {
	method  string
	path    string
	host    string
	port    int
	headers []string // Extra header lines without the trailing CRLF
}

// write serializes the request and sends it. Stale input buffered from a
// previous exchange is discarded first so the next read starts at this
// response's status line.
func (r request) write(t transport.Client) error {
	if err := t.Flush(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1%s", r.method, r.path, crlf)
	fmt.Fprintf(&b, "Host: %s%s", hostHeader(r.host, r.port), crlf)
	b.WriteString("Cache-Control: no-cache" + crlf)
	for _, h := range r.headers {
		b.WriteString(h + crlf)
	}
	b.WriteString(crlf)

	return t.Send([]byte(b.String()))
}

// hostHeader renders the Host header value, omitting the default port.
func hostHeader(host string, port int) string {
	if port == 0 || port == 80 {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// head holds the pieces of a response the updater acts on.
type head struct {
	status        int
	contentLength int64 // -1 when the server sent no Content-Length
	contentType   string
	acceptRanges  bool
	closeAfter    bool
}

// readHead consumes the status line and all headers up to the blank
// separator, leaving the transport positioned at the first body byte.
func readHead(t transport.Client) (*head, error) {
	line, err := t.ReadLine()
	if err != nil {
		return nil, err
	}
	status, err := parseStatusLine(line)
	if err != nil {
		return nil, err
	}

	h := &head{status: status, contentLength: -1}
	for {
		line, err := t.ReadLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			return h, nil
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(name) {
		case "content-length":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				h.contentLength = n
			}
		case "content-type":
			h.contentType = value
		case "accept-ranges":
			h.acceptRanges = strings.EqualFold(value, "bytes")
		case "connection":
			h.closeAfter = strings.EqualFold(value, "close")
		case "content-range":
			// The window arithmetic already bounds what is read, so the
			// range is recorded but not enforced.
			log.WithField("content_range", value).Debug("partial content range")
		}
	}
}

// parseStatusLine extracts the numeric status from a line like
// "HTTP/1.1 206 Partial Content".
func parseStatusLine(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, fmt.Errorf("%w: malformed status line %q", ErrHTTPStatus, line)
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed status line %q", ErrHTTPStatus, line)
	}
	return code, nil
}

// isJSONContent reports whether a Content-Type value names a JSON body,
// tolerating charset parameters.
func isJSONContent(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), "application/json")
}

// isBinaryContent reports whether a Content-Type value names a raw firmware
// body, tolerating parameters.
func isBinaryContent(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), "application/octet-stream")
}
