package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// TCP is the plain-TCP binding of Client. The zero value is not usable; call
// NewTCP.
type TCP struct {
	timeout time.Duration
	conn    net.Conn
	br      *bufio.Reader
}

// NewTCP returns a disconnected TCP client with the default timeout.
func NewTCP() *TCP {
	return &TCP{timeout: DefaultTimeout}
}

// Connect implements Client.
func (c *TCP) Connect(host string, port int) error {
	if c.conn != nil {
		_ = c.Close()
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, c.timeout)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, mapNetErr(err))
	}

	c.conn = conn
	c.br = bufio.NewReader(conn)
	return nil
}

// Connected implements Client.
func (c *TCP) Connected() bool {
	return c.conn != nil
}

// Send implements Client.
func (c *TCP) Send(p []byte) error {
	if c.conn == nil {
		return ErrClosed
	}
	if err := c.conn.SetWriteDeadline(c.deadline()); err != nil {
		return err
	}
	_, err := c.conn.Write(p)
	return mapNetErr(err)
}

// ReadLine implements Client.
func (c *TCP) ReadLine() (string, error) {
	if c.conn == nil {
		return "", ErrClosed
	}
	if err := c.conn.SetReadDeadline(c.deadline()); err != nil {
		return "", err
	}

	line, err := c.br.ReadString('\n')
	if err != nil {
		// A line cut off by end-of-stream is still a line; the EOF surfaces
		// on the next call.
		if line != "" && errors.Is(err, io.EOF) {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", mapNetErr(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadFull implements Client.
func (c *TCP) ReadFull(p []byte) (int, error) {
	if c.conn == nil {
		return 0, ErrClosed
	}
	if err := c.conn.SetReadDeadline(c.deadline()); err != nil {
		return 0, err
	}

	n, err := io.ReadFull(c.br, p)
	return n, mapNetErr(err)
}

// Flush implements Client.
func (c *TCP) Flush() error {
	if c.conn == nil || c.br == nil {
		return nil
	}
	if n := c.br.Buffered(); n > 0 {
		_, err := c.br.Discard(n)
		return err
	}
	return nil
}

// Close implements Client.
func (c *TCP) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.br = nil
	return err
}

// SetTimeout implements Client.
func (c *TCP) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	c.timeout = d
}

func (c *TCP) deadline() time.Time {
	return time.Now().Add(c.timeout)
}

// mapNetErr folds the various deadline errors into ErrTimeout so callers can
// branch on one sentinel.
func mapNetErr(err error) error {
	if err == nil {
		return nil
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
