package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{OutputFormat("unknown"), "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f := NewFormatter(tt.format)
			switch f.(type) {
			case *TextFormatter:
				if tt.want != "*cli.TextFormatter" {
					t.Errorf("NewFormatter(%q) = TextFormatter, want %s", tt.format, tt.want)
				}
			case *JSONFormatter:
				if tt.want != "*cli.JSONFormatter" {
					t.Errorf("NewFormatter(%q) = JSONFormatter, want %s", tt.format, tt.want)
				}
			}
		})
	}
}

func TestTextFormatter(t *testing.T) {
	f := &TextFormatter{}

	out, err := f.Format("hello")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(out) != "hello\n" {
		t.Errorf("Format() = %q, want %q", out, "hello\n")
	}

	var buf bytes.Buffer
	if err := f.FormatTo(&buf, 42); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "42\n" {
		t.Errorf("FormatTo() wrote %q, want %q", buf.String(), "42\n")
	}
}

func TestJSONFormatter(t *testing.T) {
	data := map[string]int{"files": 3}

	compact := &JSONFormatter{}
	out, err := compact.Format(data)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(out) != `{"files":3}` {
		t.Errorf("Format() = %s, want compact JSON", out)
	}

	indented := &JSONFormatter{Indent: true}
	out, err = indented.Format(data)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(string(out), "\n  ") {
		t.Errorf("indented Format() = %s, want indentation", out)
	}

	var buf bytes.Buffer
	if err := indented.FormatTo(&buf, data); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	var round map[string]int
	if err := json.Unmarshal(buf.Bytes(), &round); err != nil {
		t.Fatalf("FormatTo() produced invalid JSON: %v", err)
	}
	if round["files"] != 3 {
		t.Errorf("round-tripped files = %d, want 3", round["files"])
	}
}
