package update

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/adamancini/fota/internal/transport"
)

// fakeClient scripts the server side of raw HTTP exchanges. Each Send
// consumes the next scripted reply; subsequent reads drain that reply's
// bytes. Once a reply runs dry, reads report its trailing error, defaulting
// to a timeout like a silent socket would.
type fakeClient struct {
	connectErrs []error // consumed per Connect; nil entries succeed
	replies     []reply

	connects  int
	connected bool
	requests  []string
	cur       reply
	active    bool
	closes    int
	timeout   time.Duration
}

type reply struct {
	data []byte
	err  error // reported once data runs out; nil means transport.ErrTimeout
}

func (c *fakeClient) Connect(host string, port int) error {
	c.connects++
	if len(c.connectErrs) > 0 {
		err := c.connectErrs[0]
		c.connectErrs = c.connectErrs[1:]
		if err != nil {
			return err
		}
	}
	c.connected = true
	return nil
}

func (c *fakeClient) Connected() bool {
	return c.connected
}

func (c *fakeClient) Send(p []byte) error {
	if !c.connected {
		return transport.ErrClosed
	}
	c.requests = append(c.requests, string(p))
	c.active = false
	if len(c.replies) > 0 {
		c.cur = c.replies[0]
		c.replies = c.replies[1:]
		c.active = true
	}
	return nil
}

func (c *fakeClient) drainErr() error {
	if c.active && c.cur.err != nil {
		return c.cur.err
	}
	return transport.ErrTimeout
}

func (c *fakeClient) ReadLine() (string, error) {
	if !c.connected {
		return "", transport.ErrClosed
	}
	if !c.active || len(c.cur.data) == 0 {
		return "", c.drainErr()
	}
	i := bytes.IndexByte(c.cur.data, '\n')
	if i < 0 {
		line := strings.TrimRight(string(c.cur.data), "\r")
		c.cur.data = nil
		return line, nil
	}
	line := strings.TrimRight(string(c.cur.data[:i]), "\r")
	c.cur.data = c.cur.data[i+1:]
	return line, nil
}

func (c *fakeClient) ReadFull(p []byte) (int, error) {
	if !c.connected {
		return 0, transport.ErrClosed
	}
	if !c.active {
		return 0, c.drainErr()
	}
	n := copy(p, c.cur.data)
	c.cur.data = c.cur.data[n:]
	if n < len(p) {
		return n, c.drainErr()
	}
	return n, nil
}

func (c *fakeClient) Flush() error {
	return nil
}

func (c *fakeClient) Close() error {
	c.connected = false
	c.active = false
	c.closes++
	return nil
}

func (c *fakeClient) SetTimeout(d time.Duration) {
	c.timeout = d
}

// request inspection helpers.

func (c *fakeClient) requestContaining(substr string) int {
	count := 0
	for _, r := range c.requests {
		if strings.Contains(r, substr) {
			count++
		}
	}
	return count
}

// httpReply renders one wire response.
func httpReply(status string, headers []string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString("HTTP/1.1 " + status + "\r\n")
	for _, h := range headers {
		b.WriteString(h + "\r\n")
	}
	b.WriteString("\r\n")
	b.Write(body)
	return b.Bytes()
}

// pattern returns n deterministic bytes for content equality checks.
func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

// fakeInstaller records what the download pipeline hands it and can be
// scripted to refuse storage, cap per-write acceptance, or fail finalize.
type fakeInstaller struct {
	refuseBegin bool
	acceptLimit int // max bytes accepted per Write, 0 = unlimited
	failEnd     bool

	beginCalls int
	size       int64
	expected   string
	writes     []int // accepted count per Write call
	data       bytes.Buffer
	ended      bool
	finished   bool
	err        error
}

func (f *fakeInstaller) Begin(size int64) bool {
	f.beginCalls++
	if f.refuseBegin {
		f.err = fmt.Errorf("no room for %d bytes", size)
		return false
	}
	f.size = size
	f.data.Reset()
	f.writes = nil
	return true
}

func (f *fakeInstaller) SetExpectedChecksum(hexsum string) {
	f.expected = hexsum
}

func (f *fakeInstaller) Write(p []byte) (int, error) {
	n := len(p)
	if f.acceptLimit > 0 && n > f.acceptLimit {
		n = f.acceptLimit
	}
	f.data.Write(p[:n])
	f.writes = append(f.writes, n)
	return n, nil
}

func (f *fakeInstaller) WriteStream(r io.Reader) (int64, error) {
	return io.Copy(&f.data, r)
}

func (f *fakeInstaller) End() bool {
	f.ended = true
	if f.failEnd {
		f.err = errors.New("activation failed")
		return false
	}
	f.finished = true
	return true
}

func (f *fakeInstaller) IsFinished() bool {
	return f.finished
}

func (f *fakeInstaller) Checksum() string {
	sum := md5.Sum(f.data.Bytes())
	return hex.EncodeToString(sum[:])
}

func (f *fakeInstaller) Err() error {
	return f.err
}

// newTestDownloader returns a downloader with test-friendly pacing.
func newTestDownloader(c transport.Client, ins *fakeInstaller) *Downloader {
	return NewDownloader(c, ins).
		WithRetryDelay(time.Millisecond).
		WithYieldDelay(0)
}

// timeoutAfter guards goroutine waits in tests against hangs.
func timeoutAfter(t *testing.T) <-chan time.Time {
	t.Helper()
	return time.After(2 * time.Second)
}
