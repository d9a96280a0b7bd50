package update

import (
	"errors"
	"testing"

	"github.com/adamancini/fota/internal/transport"
)

func TestParseStatusLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    int
		wantErr bool
	}{
		{"ok", "HTTP/1.1 200 OK", 200, false},
		{"partial content", "HTTP/1.1 206 Partial Content", 206, false},
		{"not found", "HTTP/1.0 404 Not Found", 404, false},
		{"no reason phrase", "HTTP/1.1 204", 204, false},
		{"not http", "ICY 200 OK", 0, true},
		{"missing code", "HTTP/1.1", 0, true},
		{"garbage code", "HTTP/1.1 abc OK", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStatusLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseStatusLine(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("parseStatusLine(%q) = %d, want %d", tt.line, got, tt.want)
			}
			if tt.wantErr && !errors.Is(err, ErrHTTPStatus) {
				t.Errorf("parseStatusLine(%q) error = %v, want ErrHTTPStatus", tt.line, err)
			}
		})
	}
}

func TestHostHeader(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"example.com", 80, "example.com"},
		{"example.com", 0, "example.com"},
		{"example.com", 8080, "example.com:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := hostHeader(tt.host, tt.port); got != tt.want {
				t.Errorf("hostHeader(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
			}
		})
	}
}

func TestIsJSONContent(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"text/html", false},
		{"application/octet-stream", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := isJSONContent(tt.contentType); got != tt.want {
				t.Errorf("isJSONContent(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestRequestWrite(t *testing.T) {
	client := &fakeClient{connected: true}

	r := request{
		method:  "GET",
		path:    "/fw/app.bin",
		host:    "fw.example.com",
		port:    8080,
		headers: []string{"Range: bytes=0-1023"},
	}
	if err := r.write(client); err != nil {
		t.Fatalf("write() error: %v", err)
	}

	want := "GET /fw/app.bin HTTP/1.1\r\n" +
		"Host: fw.example.com:8080\r\n" +
		"Cache-Control: no-cache\r\n" +
		"Range: bytes=0-1023\r\n" +
		"\r\n"
	if len(client.requests) != 1 || client.requests[0] != want {
		t.Errorf("wire request = %q, want %q", client.requests, want)
	}
}

func TestReadHead(t *testing.T) {
	client := &fakeClient{
		connected: true,
		active:    true,
		cur: reply{data: []byte("HTTP/1.1 206 Partial Content\r\n" +
			"content-length: 16384\r\n" +
			"Content-Type: application/octet-stream\r\n" +
			"ACCEPT-RANGES: bytes\r\n" +
			"Connection: close\r\n" +
			"X-Unrelated: ignored\r\n" +
			"not-a-header-line\r\n" +
			"\r\n" +
			"body bytes")},
	}

	h, err := readHead(client)
	if err != nil {
		t.Fatalf("readHead() error: %v", err)
	}
	if h.status != 206 {
		t.Errorf("status = %d, want 206", h.status)
	}
	if h.contentLength != 16384 {
		t.Errorf("contentLength = %d, want 16384", h.contentLength)
	}
	if h.contentType != "application/octet-stream" {
		t.Errorf("contentType = %q, want application/octet-stream", h.contentType)
	}
	if !h.acceptRanges {
		t.Error("acceptRanges = false, want true")
	}
	if !h.closeAfter {
		t.Error("closeAfter = false, want true")
	}

	// The body is left unread for the caller.
	body := make([]byte, 10)
	if n, err := client.ReadFull(body); err != nil || string(body[:n]) != "body bytes" {
		t.Errorf("body after readHead = %q (%v), want \"body bytes\"", body[:n], err)
	}
}

func TestReadHeadMissingContentLength(t *testing.T) {
	client := &fakeClient{
		connected: true,
		active:    true,
		cur:       reply{data: []byte("HTTP/1.1 200 OK\r\n\r\n")},
	}

	h, err := readHead(client)
	if err != nil {
		t.Fatalf("readHead() error: %v", err)
	}
	if h.contentLength != -1 {
		t.Errorf("contentLength = %d, want -1 for missing header", h.contentLength)
	}
}

func TestReadHeadTimeout(t *testing.T) {
	client := &fakeClient{connected: true}

	_, err := readHead(client)
	if !errors.Is(err, transport.ErrTimeout) {
		t.Errorf("readHead() error = %v, want transport.ErrTimeout", err)
	}
}
