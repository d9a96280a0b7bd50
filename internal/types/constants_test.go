package types

import (
	"testing"
)

func TestPhaseValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Phase
		wantErr bool
	}{
		{"idle valid", PhaseIdle, false},
		{"checking valid", PhaseChecking, false},
		{"downloading valid", PhaseDownloading, false},
		{"installing valid", PhaseInstalling, false},
		{"rebooting valid", PhaseRebooting, false},
		{"empty invalid", "", true},
		{"invalid value", "sleeping", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Phase.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		p    Phase
		want string
	}{
		{PhaseIdle, "idle"},
		{PhaseChecking, "checking"},
		{PhaseDownloading, "downloading"},
		{PhaseInstalling, "installing"},
		{PhaseRebooting, "rebooting"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.p.String(); got != tt.want {
				t.Errorf("Phase.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPhaseHelpers(t *testing.T) {
	if !PhaseIdle.IsIdle() {
		t.Error("idle.IsIdle() should be true")
	}
	if PhaseIdle.IsActive() {
		t.Error("idle.IsActive() should be false")
	}
	if !PhaseChecking.IsActive() {
		t.Error("checking.IsActive() should be true")
	}
	if !PhaseDownloading.IsActive() {
		t.Error("downloading.IsActive() should be true")
	}
	if !PhaseInstalling.IsActive() {
		t.Error("installing.IsActive() should be true")
	}
	if PhaseRebooting.IsActive() {
		t.Error("rebooting.IsActive() should be false")
	}
	if !PhaseRebooting.IsTerminal() {
		t.Error("rebooting.IsTerminal() should be true")
	}
	if PhaseIdle.IsTerminal() {
		t.Error("idle.IsTerminal() should be false")
	}
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		input   string
		want    Phase
		wantErr bool
	}{
		{"idle", PhaseIdle, false},
		{"IDLE", PhaseIdle, false},
		{"downloading", PhaseDownloading, false},
		{"", "", true},
		{"sleeping", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePhase(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePhase() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParsePhase() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllPhases(t *testing.T) {
	phases := AllPhases()
	if len(phases) != 5 {
		t.Errorf("AllPhases() returned %d phases, want 5", len(phases))
	}
	if phases[0] != PhaseIdle {
		t.Errorf("AllPhases() starts with %v, want idle", phases[0])
	}
}

func TestDownloadModeValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       DownloadMode
		wantErr bool
	}{
		{"streamed valid", DownloadStreamed, false},
		{"chunked valid", DownloadChunked, false},
		{"empty invalid", "", true},
		{"invalid value", "torrent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("DownloadMode.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDownloadModeString(t *testing.T) {
	tests := []struct {
		m    DownloadMode
		want string
	}{
		{DownloadStreamed, "streamed"},
		{DownloadChunked, "chunked"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.m.String(); got != tt.want {
				t.Errorf("DownloadMode.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDownloadModeHelpers(t *testing.T) {
	if !DownloadStreamed.IsStreamed() {
		t.Error("streamed.IsStreamed() should be true")
	}
	if DownloadStreamed.IsChunked() {
		t.Error("streamed.IsChunked() should be false")
	}
	if !DownloadChunked.IsChunked() {
		t.Error("chunked.IsChunked() should be true")
	}
}

func TestParseDownloadMode(t *testing.T) {
	tests := []struct {
		input   string
		want    DownloadMode
		wantErr bool
	}{
		{"streamed", DownloadStreamed, false},
		{"STREAMED", DownloadStreamed, false},
		{"chunked", DownloadChunked, false},
		{"", "", true},
		{"torrent", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDownloadMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDownloadMode() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseDownloadMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllDownloadModes(t *testing.T) {
	modes := AllDownloadModes()
	if len(modes) != 2 {
		t.Errorf("AllDownloadModes() returned %d modes, want 2", len(modes))
	}
}
