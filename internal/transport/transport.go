// Package transport defines the byte-level connection the updater drives its
// HTTP exchanges over, together with a plain-TCP reference binding.
//
// The updater speaks HTTP/1.1 manually rather than through net/http because
// the transport underneath may be anything that moves bytes: a TCP socket, a
// TLS session, or a cellular modem whose firmware exposes a socket-like API.
// Implementations of Client bind the updater to one such medium.
package transport

import (
	"errors"
	"time"
)

// DefaultTimeout bounds blocking transport operations when the caller has not
// set its own. Links behind cellular modems can legitimately stall for a long
// time, so the default is generous.
const DefaultTimeout = 120 * time.Second

var (
	// ErrTimeout reports that a blocking operation did not complete within
	// the configured timeout. It is distinct from ErrClosed and from an
	// end-of-stream so callers can retry rather than abort.
	ErrTimeout = errors.New("transport: timeout")

	// ErrClosed reports an operation on a client with no open connection.
	ErrClosed = errors.New("transport: not connected")
)

// Client is a single reusable connection to one peer at a time. All blocking
// calls honor the duration set by SetTimeout.
type Client interface {
	// Connect opens a connection to host:port, closing any previous one.
	Connect(host string, port int) error

	// Connected reports whether the client holds an open connection. A peer
	// that closed silently is only discovered by the next read or write.
	Connected() bool

	// Send writes the whole buffer.
	Send(p []byte) error

	// ReadLine reads through the next LF and returns the line without its
	// trailing CR/LF. A partial line terminated by end-of-stream is returned
	// without error; the stream end surfaces on the following call.
	ReadLine() (string, error)

	// ReadFull reads exactly len(p) bytes unless the stream ends or the
	// timeout expires first. It always reports how many bytes actually
	// arrived; a short count comes with a non-nil error.
	ReadFull(p []byte) (int, error)

	// Flush drops input already buffered by the client, so a fresh request
	// is not answered by stale bytes from an earlier exchange.
	Flush() error

	// Close tears the connection down. Closing a closed client is a no-op.
	Close() error

	// SetTimeout bounds each subsequent blocking operation. Zero or negative
	// restores DefaultTimeout.
	SetTimeout(d time.Duration)
}
