package interactive

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirmYes(t *testing.T) {
	input := strings.NewReader("y\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	if !p.Confirm("Overwrite?") {
		t.Error("expected true for 'y'")
	}
	if !strings.Contains(output.String(), "Overwrite? [y/N]: ") {
		t.Errorf("prompt missing [y/N] marker: %q", output.String())
	}
}

func TestConfirmFullWordYes(t *testing.T) {
	input := strings.NewReader("yes\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	if !p.Confirm("Overwrite?") {
		t.Error("expected true for 'yes'")
	}
}

func TestConfirmNo(t *testing.T) {
	input := strings.NewReader("n\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	if p.Confirm("Overwrite?") {
		t.Error("expected false for 'n'")
	}
}

func TestConfirmEmptyDefaultsToNo(t *testing.T) {
	input := strings.NewReader("\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	if p.Confirm("Overwrite?") {
		t.Error("expected false for empty answer")
	}
}

func TestConfirmInvalidInput(t *testing.T) {
	input := strings.NewReader("maybe\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	if p.Confirm("Overwrite?") {
		t.Error("expected false for unrecognized answer")
	}
}

func TestConfirmEOF(t *testing.T) {
	input := strings.NewReader("")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	if p.Confirm("Overwrite?") {
		t.Error("expected false on EOF")
	}
}

func TestConfirmFormatsQuestion(t *testing.T) {
	input := strings.NewReader("n\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	p.Confirm("Overwrite %s?", "/etc/fota/fota.toml")

	if !strings.Contains(output.String(), "Overwrite /etc/fota/fota.toml? [y/N]: ") {
		t.Errorf("question not formatted: %q", output.String())
	}
}

func TestAskReturnsAnswer(t *testing.T) {
	input := strings.NewReader("/opt/fota.toml\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	got, err := p.Ask("Where?", "/etc/fota/fota.toml")
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if got != "/opt/fota.toml" {
		t.Errorf("Ask() = %q, want %q", got, "/opt/fota.toml")
	}
}

func TestAskEmptyReturnsFallback(t *testing.T) {
	input := strings.NewReader("\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	got, err := p.Ask("Where?", "/etc/fota/fota.toml")
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if got != "/etc/fota/fota.toml" {
		t.Errorf("Ask() = %q, want fallback", got)
	}
}

func TestAskEOFReturnsFallback(t *testing.T) {
	input := strings.NewReader("")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	got, err := p.Ask("Where?", "/etc/fota/fota.toml")
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if got != "/etc/fota/fota.toml" {
		t.Errorf("Ask() = %q, want fallback", got)
	}
}

func TestAskShowsDefault(t *testing.T) {
	input := strings.NewReader("\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	_, _ = p.Ask("Where?", "/etc/fota/fota.toml")

	if !strings.Contains(output.String(), "Where? [/etc/fota/fota.toml]: ") {
		t.Errorf("prompt missing default: %q", output.String())
	}
}

func TestReadLine(t *testing.T) {
	input := strings.NewReader("  https://example.com/t.toml  \n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	got, err := p.ReadLine("Enter template URL: ")
	if err != nil {
		t.Fatalf("ReadLine() error: %v", err)
	}
	if got != "https://example.com/t.toml" {
		t.Errorf("ReadLine() = %q, want trimmed URL", got)
	}
	if !strings.Contains(output.String(), "Enter template URL: ") {
		t.Errorf("prompt not printed: %q", output.String())
	}
}

func TestSelectFirstOption(t *testing.T) {
	input := strings.NewReader("1\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	got, err := p.Select("Pick one:", []string{"alpha", "beta", "gamma"})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got != 0 {
		t.Errorf("Select() = %d, want 0", got)
	}
}

func TestSelectLastOption(t *testing.T) {
	input := strings.NewReader("3\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	got, err := p.Select("Pick one:", []string{"alpha", "beta", "gamma"})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got != 2 {
		t.Errorf("Select() = %d, want 2", got)
	}
}

func TestSelectOutOfRange(t *testing.T) {
	input := strings.NewReader("4\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	_, err := p.Select("Pick one:", []string{"alpha", "beta", "gamma"})
	if err == nil {
		t.Error("expected error for out-of-range selection")
	}
}

func TestSelectNonNumeric(t *testing.T) {
	input := strings.NewReader("alpha\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	_, err := p.Select("Pick one:", []string{"alpha", "beta", "gamma"})
	if err == nil {
		t.Error("expected error for non-numeric selection")
	}
	if !strings.Contains(err.Error(), "invalid selection") {
		t.Errorf("error = %v, want invalid selection", err)
	}
}

func TestSelectRendersMenu(t *testing.T) {
	input := strings.NewReader("2\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	_, err := p.Select("Pick one:", []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}

	out := output.String()
	for _, want := range []string{"Pick one:", "  1. alpha", "  2. beta", "Select [1-2]: "} {
		if !strings.Contains(out, want) {
			t.Errorf("menu missing %q in %q", want, out)
		}
	}
}
