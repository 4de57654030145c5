package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgnsrekt/soundboard/internal/catalog"
)

// TestResolveClip tests catalog lookup for command line arguments.
func TestResolveClip(t *testing.T) {
	sounds := []catalog.Sound{
		{Name: "Air Horn", FilePath: "sounds/horn.wav", KeyBinding: "q"},
		{Name: "Drum", FilePath: "sounds/drum.ogg", KeyBinding: "1"},
	}

	tests := []struct {
		arg       string
		wantID    string
		wantLabel string
	}{
		{"q", "sounds/horn.wav", "Air Horn"},
		{"air horn", "sounds/horn.wav", "Air Horn"},
		{"sounds/drum.ogg", "sounds/drum.ogg", "Drum"},
		{"other.mp3", "other.mp3", "other.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			id, label := resolveClip(sounds, tt.arg)
			if id != tt.wantID || label != tt.wantLabel {
				t.Errorf("resolveClip(%q) = %q, %q", tt.arg, id, label)
			}
		})
	}
}

// TestWriteTable tests column alignment.
func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, []row{
		{"KEY", "NAME", "FILE"},
		{"Q", "Air Horn", "horn.wav"},
		{"1", "Drüm", "drum.ogg"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	col := strings.Index(lines[0], "FILE")
	if got := strings.Index(lines[1], "horn.wav"); got != col {
		t.Errorf("file column at %d, want %d", got, col)
	}
}

// TestFormatSeconds tests duration formatting.
func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0s"},
		{1.5, "1.5s"},
		{0.123, "120ms"},
		{61, "1m1s"},
	}
	for _, tt := range tests {
		if got := formatSeconds(tt.in); got != tt.want {
			t.Errorf("formatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
