// Package status tracks per-clip loading and error state plus the board-wide
// volume and mute settings. Every update touches a single clip id and leaves
// the others as they were.
package status

import (
	"sort"
	"sync"
)

// DefaultVolume is the initial volume.
const DefaultVolume = 1.0

// Clip is the observable state of one clip.
type Clip struct {
	Loading bool
	Error   string
}

// Snapshot is a copy of the tracker state.
type Snapshot struct {
	Clips  map[string]Clip
	Volume float64
	Muted  bool
}

// Loading reports whether id is loading.
func (s Snapshot) Loading(id string) bool { return s.Clips[id].Loading }

// Error returns the error recorded for id, or "".
func (s Snapshot) Error(id string) string { return s.Clips[id].Error }

// Tracker holds clip state and notifies subscribers after each change.
type Tracker struct {
	mu     sync.RWMutex
	clips  map[string]Clip
	volume float64
	muted  bool

	subs []chan struct{}
}

// NewTracker returns a tracker at DefaultVolume, unmuted.
func NewTracker() *Tracker {
	return &Tracker{
		clips:  make(map[string]Clip),
		volume: DefaultVolume,
	}
}

// StartLoading marks id as loading and clears its previous error.
func (t *Tracker) StartLoading(id string) {
	t.update(id, func(c *Clip) {
		c.Loading = true
		c.Error = ""
	})
}

// FinishLoading marks id as no longer loading.
func (t *Tracker) FinishLoading(id string) {
	t.update(id, func(c *Clip) { c.Loading = false })
}

// Fail records msg as the error for id and ends its loading state.
func (t *Tracker) Fail(id, msg string) {
	t.update(id, func(c *Clip) {
		c.Loading = false
		c.Error = msg
	})
}

// ClearError removes the error recorded for id.
func (t *Tracker) ClearError(id string) {
	t.update(id, func(c *Clip) { c.Error = "" })
}

// SetVolume clamps v to [0, 1] and stores it. A resulting volume of 0 also
// mutes; any other value leaves the mute flag alone.
func (t *Tracker) SetVolume(v float64) float64 {
	v = Clamp(v)
	t.mu.Lock()
	t.volume = v
	if v == 0 {
		t.muted = true
	}
	t.mu.Unlock()
	t.notify()
	return v
}

// SetMuted sets the mute flag without touching the volume.
func (t *Tracker) SetMuted(m bool) {
	t.mu.Lock()
	t.muted = m
	t.mu.Unlock()
	t.notify()
}

// ToggleMuted flips the mute flag and returns the new value.
func (t *Tracker) ToggleMuted() bool {
	t.mu.Lock()
	t.muted = !t.muted
	m := t.muted
	t.mu.Unlock()
	t.notify()
	return m
}

// Volume returns the stored volume.
func (t *Tracker) Volume() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.volume
}

// Muted returns the mute flag.
func (t *Tracker) Muted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.muted
}

// EffectiveVolume is the level a new playback starts at: 0 when muted,
// otherwise the volume.
func (t *Tracker) EffectiveVolume() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.muted {
		return 0
	}
	return t.volume
}

// Clip returns the state of id.
func (t *Tracker) Clip(id string) Clip {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clips[id]
}

// Snapshot returns a copy of the full state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	clips := make(map[string]Clip, len(t.clips))
	for id, c := range t.clips {
		clips[id] = c
	}
	return Snapshot{Clips: clips, Volume: t.volume, Muted: t.muted}
}

// AnyLoading reports whether any clip is loading.
func (t *Tracker) AnyLoading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.clips {
		if c.Loading {
			return true
		}
	}
	return false
}

// FirstError returns the id and message of an erroring clip, choosing the
// lowest id so the result is stable. ok is false when no clip has an error.
func (t *Tracker) FirstError() (id, msg string, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.clips))
	for id, c := range t.clips {
		if c.Error != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", "", false
	}
	sort.Strings(ids)
	return ids[0], t.clips[ids[0]].Error, true
}

// Subscribe returns a channel that receives a value after state changes.
// Notifications are coalesced: a slow reader sees at least one signal after
// the latest change, not one per change.
func (t *Tracker) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	t.mu.Lock()
	t.subs = append(t.subs, ch)
	t.mu.Unlock()
	return ch
}

// Unsubscribe stops notifications on ch.
func (t *Tracker) Unsubscribe(ch <-chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subs {
		if s == ch {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}

func (t *Tracker) update(id string, f func(*Clip)) {
	t.mu.Lock()
	c := t.clips[id]
	f(&c)
	t.clips[id] = c
	t.mu.Unlock()
	t.notify()
}

func (t *Tracker) notify() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, ch := range t.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Clamp limits v to [0, 1].
func Clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	case v != v: // NaN
		return 0
	default:
		return v
	}
}
