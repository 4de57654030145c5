package catalog

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
)

// AudioExtensions are the patterns Discover looks for.
var AudioExtensions = []string{"*.wav", "*.aif", "*.aiff", "*.mp3", "*.ogg"}

// discoveryKeys is the order keys are handed out to discovered files.
const discoveryKeys = "123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Discover builds a catalog from the audio files under dir, sorted by path.
// The first files get keys 1-9 then A-Z; the rest are listed without a key.
// Paths ignored by git are skipped unless all is set.
func Discover(dir string, all bool) ([]Sound, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	var ch chan gitcha.SearchResult
	if all {
		ch, err = gitcha.FindAllFilesExcept(abs, AudioExtensions, nil)
	} else {
		ch, err = gitcha.FindFilesExcept(abs, AudioExtensions, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", abs, err)
	}

	var paths []string
	for res := range ch {
		if res.Info != nil && res.Info.IsDir() {
			continue
		}
		paths = append(paths, res.Path)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrEmpty, abs)
	}
	sort.Strings(paths)

	sounds := make([]Sound, len(paths))
	for i, p := range paths {
		s := Sound{FilePath: p}
		s.Name = strings.ReplaceAll(s.Label(), "_", " ")
		if i < len(discoveryKeys) {
			s.KeyBinding = string(discoveryKeys[i])
		}
		sounds[i] = s
	}

	log.Debug("Discovered clips", "dir", abs, "count", len(sounds))
	return sounds, nil
}
