package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// TestParse tests both accepted catalog layouts.
func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantLen   int
		wantFirst Sound
		wantErr   bool
	}{
		{
			name: "list",
			input: `
- name: Airhorn
  file: sounds/airhorn.wav
  key: q
- name: Drum
  file: sounds/drum.ogg
  key: "1"
`,
			wantLen:   2,
			wantFirst: Sound{Name: "Airhorn", FilePath: "sounds/airhorn.wav", KeyBinding: "q"},
		},
		{
			name: "mapping",
			input: `
sounds:
  - name: Bell
    file: https://example.com/bell.mp3
    key: B
`,
			wantLen:   1,
			wantFirst: Sound{Name: "Bell", FilePath: "https://example.com/bell.mp3", KeyBinding: "B"},
		},
		{name: "empty document", input: "", wantErr: true},
		{name: "empty list", input: "sounds: []", wantErr: true},
		{name: "scalar", input: "just a string", wantErr: true},
		{name: "invalid yaml", input: "sounds: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sounds, err := Parse([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", sounds)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(sounds) != tt.wantLen {
				t.Fatalf("expected %d sounds, got %d", tt.wantLen, len(sounds))
			}
			if sounds[0] != tt.wantFirst {
				t.Errorf("first sound = %+v, want %+v", sounds[0], tt.wantFirst)
			}
		})
	}
}

// TestLoad tests reading a catalog from disk.
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yml")
	if err := os.WriteFile(path, []byte("- {name: A, file: a.wav, key: a}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sounds, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(sounds) != 1 || sounds[0].ID() != "a.wav" {
		t.Errorf("unexpected catalog %+v", sounds)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestFromConfig tests the inline sounds key.
func TestFromConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	cfg := []byte(`
volume: 0.5
sounds:
  - name: Clap
    file: clap.wav
    key: c
`)
	if err := v.ReadConfig(bytes.NewReader(cfg)); err != nil {
		t.Fatalf("read config: %v", err)
	}

	sounds, err := FromConfig(v)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if len(sounds) != 1 || sounds[0] != (Sound{Name: "Clap", FilePath: "clap.wav", KeyBinding: "c"}) {
		t.Errorf("unexpected sounds %+v", sounds)
	}

	if _, err := FromConfig(viper.New()); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty without sounds, got %v", err)
	}
}

// TestDefault tests the sample board.
func TestDefault(t *testing.T) {
	sounds := Default()
	if len(sounds) != 9 {
		t.Fatalf("expected 9 sounds, got %d", len(sounds))
	}
	if err := Validate(sounds); err != nil {
		t.Errorf("default catalog should be valid: %v", err)
	}
	if ids := IDs(sounds); len(ids) != 3 {
		t.Errorf("expected 3 distinct clips, got %v", ids)
	}
}

// TestValidate tests duplicate and missing entries.
func TestValidate(t *testing.T) {
	sounds := []Sound{
		{Name: "one", FilePath: "1.wav", KeyBinding: "a"},
		{Name: "two", FilePath: "2.wav", KeyBinding: "A"},
		{Name: "three", KeyBinding: "b"},
		{Name: "four", FilePath: "4.wav"},
	}
	err := Validate(sounds)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if !errors.Is(err, ErrMissingFile) {
		t.Errorf("expected ErrMissingFile, got %v", err)
	}
}

// TestFind tests lookup by path, key and name.
func TestFind(t *testing.T) {
	sounds := Default()
	tests := []struct {
		query string
		want  string
		found bool
	}{
		{"/sounds/sample2.mp3", "Sample 2", true},
		{"d", "Sample 3", true},
		{"sample 9", "Sample 9", true},
		{"nope", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			s, ok := Find(sounds, tt.query)
			if ok != tt.found || s.Name != tt.want {
				t.Errorf("Find(%q) = %q, %v", tt.query, s.Name, ok)
			}
		})
	}
}

// TestLabel tests display name fallback.
func TestLabel(t *testing.T) {
	if got := (Sound{FilePath: "/a/b/air_horn.wav"}).Label(); got != "air_horn" {
		t.Errorf("expected air_horn, got %q", got)
	}
	if got := (Sound{Name: "Horn", FilePath: "x.wav"}).Label(); got != "Horn" {
		t.Errorf("expected Horn, got %q", got)
	}
}

// TestDiscover tests key assignment for found files.
func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_drum.wav", "a_bell.mp3", "notes.txt", "c_clap.ogg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	sounds, err := Discover(dir, true)
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if len(sounds) != 3 {
		t.Fatalf("expected 3 sounds, got %+v", sounds)
	}

	want := []struct{ name, key string }{{"a bell", "1"}, {"b drum", "2"}, {"c clap", "3"}}
	for i, w := range want {
		if sounds[i].Name != w.name || sounds[i].KeyBinding != w.key {
			t.Errorf("sound %d = %+v, want %s on %s", i, sounds[i], w.name, w.key)
		}
	}

	if _, err := Discover(t.TempDir(), true); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty for empty dir, got %v", err)
	}
}

// TestWatch tests reload on write.
func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yml")
	if err := os.WriteFile(path, []byte("- {file: a.wav, key: a}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := Watch(ctx, path)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("- {file: a.wav, key: a}\n- {file: b.wav, key: b}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case sounds := <-ch:
		if len(sounds) != 2 {
			t.Errorf("expected 2 sounds after reload, got %d", len(sounds))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}
