package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/soundboard/internal/catalog"
)

// TestKeyEvent tests translation of terminal keys into dispatcher events.
func TestKeyEvent(t *testing.T) {
	tests := []struct {
		name     string
		msg      tea.KeyMsg
		wantOK   bool
		wantKey  string
		wantCode string
		wantCtrl bool
		wantAlt  bool
	}{
		{"letter", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}}, true, "a", "KeyA", false, false},
		{"upper letter", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'Q'}}, true, "Q", "KeyQ", false, false},
		{"digit", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'5'}}, true, "5", "Digit5", false, false},
		{"shifted digit", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'('}}, true, "(", "Digit9", false, false},
		{"symbol", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}}, true, "-", "", false, false},
		{"alt letter", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}, Alt: true}, true, "s", "KeyS", false, true},
		{"ctrl letter", tea.KeyMsg{Type: tea.KeyCtrlP}, true, "p", "KeyP", true, false},
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, true, " ", "Space", false, false},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, false, "", "", false, false},
		{"tab", tea.KeyMsg{Type: tea.KeyTab}, false, "", "", false, false},
		{"arrow", tea.KeyMsg{Type: tea.KeyUp}, false, "", "", false, false},
		{"paste", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ab")}, false, "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := keyEvent(tt.msg)
			if ok != tt.wantOK {
				t.Fatalf("keyEvent ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ev.Key != tt.wantKey || ev.Code != tt.wantCode {
				t.Errorf("got key %q code %q, want %q %q", ev.Key, ev.Code, tt.wantKey, tt.wantCode)
			}
			if ev.Ctrl != tt.wantCtrl || ev.Alt != tt.wantAlt {
				t.Errorf("got ctrl=%v alt=%v", ev.Ctrl, ev.Alt)
			}
		})
	}
}

// TestFilterSounds tests fuzzy filtering of the catalog.
func TestFilterSounds(t *testing.T) {
	sounds := []catalog.Sound{
		{Name: "Air Horn", FilePath: "horn.wav", KeyBinding: "q"},
		{Name: "Bass Drum", FilePath: "drum.wav", KeyBinding: "w"},
		{Name: "Hand Clap", FilePath: "clap.wav", KeyBinding: "e"},
	}

	tests := []struct {
		query string
		want  []int
	}{
		{"", []int{0, 1, 2}},
		{"  ", []int{0, 1, 2}},
		{"drum", []int{1}},
		{"clap", []int{2}},
		{"zzz", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := filterSounds(sounds, tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("filterSounds(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("filterSounds(%q) = %v, want %v", tt.query, got, tt.want)
				}
			}
		})
	}
}

// TestRenderButton tests label fitting and button width.
func TestRenderButton(t *testing.T) {
	s := catalog.Sound{Name: "An extremely long clip name", FilePath: "x.wav", KeyBinding: "z"}
	out := renderButton(s, 16, buttonIdle, "")

	if w := lipgloss.Width(out); w != 16 {
		t.Errorf("expected width 16, got %d", w)
	}
	if !strings.Contains(out, "Z") {
		t.Error("expected the key label")
	}
	if !strings.Contains(out, ellipsis) {
		t.Error("expected a truncated name")
	}

	short := renderButton(catalog.Sound{Name: "Bell", FilePath: "b.wav"}, 16, buttonSelected, "▶")
	if !strings.Contains(short, "Bell") || !strings.Contains(short, "▶") {
		t.Errorf("unexpected button:\n%s", short)
	}
}

// TestGridColumns tests how many buttons fit per row.
func TestGridColumns(t *testing.T) {
	tests := []struct {
		width, button, want int
	}{
		{0, 18, 1},
		{10, 18, 1},
		{80, 18, 4},
		{100, 20, 5},
	}
	for _, tt := range tests {
		if got := gridColumns(tt.width, tt.button); got != tt.want {
			t.Errorf("gridColumns(%d, %d) = %d, want %d", tt.width, tt.button, got, tt.want)
		}
	}
}

// TestVolumeBar tests the volume meter.
func TestVolumeBar(t *testing.T) {
	if got := volumeBar(0.5, false, 10); strings.Count(got, "▮") != 5 {
		t.Errorf("expected 5 filled cells, got %q", got)
	}
	if got := volumeBar(1.5, false, 4); strings.Count(got, "▮") != 4 {
		t.Errorf("expected clamped meter, got %q", got)
	}
	if got := volumeBar(1, true, 10); !strings.Contains(got, "muted") {
		t.Errorf("expected muted, got %q", got)
	}
}
