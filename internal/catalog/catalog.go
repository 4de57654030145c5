// Package catalog describes the clips on the board: their display names,
// where their bytes live and which key triggers them.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Catalog errors
var (
	// ErrDuplicateKey is reported when two sounds share a key binding
	ErrDuplicateKey = errors.New("duplicate key binding")

	// ErrMissingFile is reported for a sound without a file path
	ErrMissingFile = errors.New("sound has no file")

	// ErrEmpty is returned when a catalog defines no sounds
	ErrEmpty = errors.New("catalog has no sounds")
)

// Sound is one button on the board. FilePath doubles as the clip id.
type Sound struct {
	Name       string `yaml:"name" mapstructure:"name"`
	FilePath   string `yaml:"file" mapstructure:"file"`
	KeyBinding string `yaml:"key" mapstructure:"key"`
}

// ID returns the clip id used by the player.
func (s Sound) ID() string { return s.FilePath }

// Label returns the display name, falling back to the file name.
func (s Sound) Label() string {
	if s.Name != "" {
		return s.Name
	}
	name := s.FilePath
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

type document struct {
	Sounds []Sound `yaml:"sounds"`
}

// Load reads a catalog file. The file is either a list of sounds or a
// mapping with a sounds key.
func Load(path string) ([]Sound, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog YAML.
func Parse(data []byte) ([]Sound, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, ErrEmpty
	}

	var sounds []Sound
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&sounds); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	case yaml.MappingNode:
		var doc document
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		sounds = doc.Sounds
	default:
		return nil, fmt.Errorf("parse catalog: unexpected %s at line %d", kindName(root.Kind), root.Line)
	}

	if len(sounds) == 0 {
		return nil, ErrEmpty
	}
	return sounds, nil
}

// FromConfig reads an inline catalog from the sounds key of v.
func FromConfig(v *viper.Viper) ([]Sound, error) {
	var sounds []Sound
	if err := v.UnmarshalKey("sounds", &sounds); err != nil {
		return nil, fmt.Errorf("read sounds from config: %w", err)
	}
	if len(sounds) == 0 {
		return nil, ErrEmpty
	}
	return sounds, nil
}

// Default returns the sample board.
func Default() []Sound {
	return []Sound{
		{Name: "Sample 1", FilePath: "/sounds/sample1.mp3", KeyBinding: "A"},
		{Name: "Sample 2", FilePath: "/sounds/sample2.mp3", KeyBinding: "S"},
		{Name: "Sample 3", FilePath: "/sounds/sample3.mp3", KeyBinding: "D"},
		{Name: "Sample 4", FilePath: "/sounds/sample1.mp3", KeyBinding: "1"},
		{Name: "Sample 5", FilePath: "/sounds/sample2.mp3", KeyBinding: "2"},
		{Name: "Sample 6", FilePath: "/sounds/sample3.mp3", KeyBinding: "3"},
		{Name: "Sample 7", FilePath: "/sounds/sample1.mp3", KeyBinding: "F"},
		{Name: "Sample 8", FilePath: "/sounds/sample2.mp3", KeyBinding: "G"},
		{Name: "Sample 9", FilePath: "/sounds/sample3.mp3", KeyBinding: "H"},
	}
}

// Validate reports every problem in sounds. Duplicate bindings are legal
// (the last one wins) but almost always a mistake.
func Validate(sounds []Sound) error {
	var errs []error
	seen := make(map[string]int, len(sounds))
	for i, s := range sounds {
		if strings.TrimSpace(s.FilePath) == "" {
			errs = append(errs, fmt.Errorf("sound %d (%q): %w", i+1, s.Name, ErrMissingFile))
		}
		key := strings.ToUpper(strings.TrimSpace(s.KeyBinding))
		if key == "" {
			continue
		}
		if prev, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("%w %q: sound %d overrides sound %d", ErrDuplicateKey, key, i+1, prev+1))
		}
		seen[key] = i
	}
	return errors.Join(errs...)
}

// Find returns the sound whose name, key binding or file path matches q.
// Names and keys match case-insensitively.
func Find(sounds []Sound, q string) (Sound, bool) {
	for _, s := range sounds {
		if s.FilePath == q {
			return s, true
		}
	}
	for _, s := range sounds {
		if strings.EqualFold(s.KeyBinding, q) || strings.EqualFold(s.Name, q) {
			return s, true
		}
	}
	return Sound{}, false
}

// IDs returns the distinct clip ids in catalog order.
func IDs(sounds []Sound) []string {
	seen := make(map[string]bool, len(sounds))
	ids := make([]string, 0, len(sounds))
	for _, s := range sounds {
		if !seen[s.ID()] {
			seen[s.ID()] = true
			ids = append(ids, s.ID())
		}
	}
	return ids
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "node"
	}
}
