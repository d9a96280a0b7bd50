package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"empty defaults to text", "", FormatText, false},
		{"text", "text", FormatText, false},
		{"json", "json", FormatJSON, false},
		{"yaml", "yaml", FormatYAML, false},
		{"yml alias", "yml", FormatYAML, false},
		{"unknown", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	report := CheckReport{
		DeviceType:       "sensor-gw",
		InstalledVersion: 7,
		UpdateAvailable:  true,
		OfferedVersion:   8,
		Image:            "/firmware/sensor-gw-8.bin",
	}

	if err := NewWriter(&buf, FormatJSON).Write(report); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded CheckReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded != report {
		t.Errorf("round trip = %+v, want %+v", decoded, report)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	report := UpdateReport{Updated: true, Version: 8, Written: 32768, Mode: "chunked"}

	if err := NewWriter(&buf, FormatYAML).Write(report); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if !strings.Contains(buf.String(), "written_bytes: 32768") {
		t.Errorf("YAML output missing written_bytes, got:\n%s", buf.String())
	}
}

func TestWriteTextUsesStringer(t *testing.T) {
	var buf bytes.Buffer
	report := CheckReport{DeviceType: "sensor-gw", InstalledVersion: 7}

	if err := NewWriter(&buf, FormatText).Write(report); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := "sensor-gw is up to date (version 7)\n"
	if buf.String() != want {
		t.Errorf("text output = %q, want %q", buf.String(), want)
	}
}

func TestCheckReportString(t *testing.T) {
	r := CheckReport{
		DeviceType:       "sensor-gw",
		InstalledVersion: 7,
		UpdateAvailable:  true,
		OfferedVersion:   9,
		Image:            "/firmware/sensor-gw-9.bin",
		Checksum:         "d41d8cd98f00b204e9800998ecf8427e",
	}

	s := r.String()
	for _, want := range []string{"7 -> 9", "sensor-gw", "/firmware/sensor-gw-9.bin", "md5"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, should contain %q", s, want)
		}
	}
}
