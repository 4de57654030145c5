// Package keys maps key presses to clips and tracks which bound key is held
// for visual feedback.
package keys

import (
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgnsrekt/soundboard/internal/catalog"
)

var digitCode = regexp.MustCompile(`^Digit([1-9])$`)

// Event is a key transition as reported by the host.
type Event struct {
	Key  string // label, e.g. "a", "A", "!"
	Code string // physical key, e.g. "KeyA", "Digit1"

	Repeat bool // auto-repeat while held

	Ctrl bool
	Alt  bool
	Meta bool

	// TextTarget is set while focus is in a text entry.
	TextTarget bool
}

// PlayFunc starts playback of a clip.
type PlayFunc func(id string)

// Dispatcher turns key-down events on bound keys into playback. The pressed
// key moves idle -> pressed(key) on a bound key-down and back to idle on the
// matching key-up.
type Dispatcher struct {
	mu       sync.Mutex
	upper    cases.Caser
	bindings map[string]string
	pressed  string
	play     PlayFunc
}

// NewDispatcher returns a dispatcher that calls play for bound keys.
func NewDispatcher(play PlayFunc) *Dispatcher {
	return &Dispatcher{
		upper:    cases.Upper(language.Und),
		bindings: make(map[string]string),
		play:     play,
	}
}

// SetCatalog rebuilds the key map. When two sounds share a key the later one
// wins. A pressed key that is no longer bound is released.
func (d *Dispatcher) SetCatalog(sounds []catalog.Sound) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bindings := make(map[string]string, len(sounds))
	for _, s := range sounds {
		key := d.upper.String(strings.TrimSpace(s.KeyBinding))
		if key == "" {
			continue
		}
		if prev, ok := bindings[key]; ok && prev != s.ID() {
			log.Debug("Key binding overridden", "key", key, "previous", prev, "id", s.ID())
		}
		bindings[key] = s.ID()
	}
	d.bindings = bindings

	if _, ok := d.bindings[d.pressed]; !ok {
		d.pressed = ""
	}
}

// Normalize returns the lookup key for ev. Digits use the physical code so
// shifted or localized labels still match.
func (d *Dispatcher) Normalize(ev Event) string {
	if m := digitCode.FindStringSubmatch(ev.Code); m != nil {
		return m[1]
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.upper.String(ev.Key)
}

// KeyDown handles a key press and reports whether it was consumed, in which
// case the host should suppress its default action.
func (d *Dispatcher) KeyDown(ev Event) bool {
	// Repeats keep the held highlight; only the matching key-up releases it.
	if ev.Repeat {
		return false
	}
	if ev.Ctrl || ev.Alt || ev.Meta || ev.TextTarget {
		d.Reset()
		return false
	}

	key := d.Normalize(ev)

	d.mu.Lock()
	id, ok := d.bindings[key]
	if ok && d.pressed == "" {
		d.pressed = key
	}
	play := d.play
	d.mu.Unlock()

	if !ok {
		return false
	}
	if play != nil {
		play(id)
	}
	return true
}

// KeyUp releases the pressed key if ev matches it. Anything else is ignored.
func (d *Dispatcher) KeyUp(ev Event) {
	key := d.Normalize(ev)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pressed != "" && d.pressed == key {
		d.pressed = ""
	}
}

// Pressed returns the held key.
func (d *Dispatcher) Pressed() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pressed, d.pressed != ""
}

// Reset releases any pressed key, e.g. when focus moves to a text entry.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pressed = ""
}

// Lookup returns the clip bound to key.
func (d *Dispatcher) Lookup(key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.bindings[d.upper.String(key)]
	return id, ok
}
