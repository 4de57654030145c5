package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/dgnsrekt/soundboard/internal/audio"
	"github.com/dgnsrekt/soundboard/internal/decode"
	"github.com/dgnsrekt/soundboard/internal/fetch"
	"github.com/dgnsrekt/soundboard/internal/status"
)

// Envelope timings in seconds of context time.
const (
	FadeIn  = 0.2
	FadeOut = 0.2

	// Preview fades to silence at PreviewFadeEnd and is force-stopped at
	// PreviewStop. The two are independent.
	PreviewFadeEnd = 1.8
	PreviewStop    = 2.0
)

// Config holds engine dependencies and settings.
type Config struct {
	Manager   *audio.Manager
	Transport fetch.Transport
	Decoder   decode.Decoder

	// Status and Cache are created when nil.
	Status *status.Tracker
	Cache  *BufferCache

	// LoadTimeout bounds a single fetch and decode. Zero waits forever.
	LoadTimeout time.Duration
}

// Playback describes the sound currently occupying the active slot.
type Playback struct {
	ID       string
	Preview  bool
	Started  float64 // context time
	Duration float64 // seconds of buffer
}

type handle struct {
	Playback
	source      *audio.BufferSource
	gain        *audio.GainNode
	cancelTimer func()
	done        chan struct{}
	closeOnce   sync.Once
}

func (h *handle) release() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Engine loads, caches and plays clips. At most one playback is audible at
// a time: starting a new one tears down the previous before building the
// new graph.
type Engine struct {
	manager     *audio.Manager
	transport   fetch.Transport
	decoder     decode.Decoder
	status      *status.Tracker
	cache       *BufferCache
	loadTimeout time.Duration

	loads singleflight.Group

	mu     sync.Mutex
	active *handle
}

// NewEngine returns an engine wired to cfg.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Manager == nil {
		return nil, errors.New("board: audio manager is required")
	}
	if cfg.Transport == nil {
		return nil, errors.New("board: transport is required")
	}
	if cfg.Decoder == nil {
		return nil, errors.New("board: decoder is required")
	}
	if cfg.LoadTimeout < 0 {
		return nil, fmt.Errorf("board: load timeout must not be negative, got %v", cfg.LoadTimeout)
	}
	if cfg.Status == nil {
		cfg.Status = status.NewTracker()
	}
	if cfg.Cache == nil {
		cfg.Cache = NewBufferCache()
	}

	return &Engine{
		manager:     cfg.Manager,
		transport:   cfg.Transport,
		decoder:     cfg.Decoder,
		status:      cfg.Status,
		cache:       cfg.Cache,
		loadTimeout: cfg.LoadTimeout,
	}, nil
}

// Status returns the tracker the engine reports to.
func (e *Engine) Status() *status.Tracker { return e.status }

// Cache returns the decoded buffer cache.
func (e *Engine) Cache() *BufferCache { return e.cache }

// EnsureBuffer returns the decoded buffer for id, fetching and decoding it
// on a cache miss. Concurrent calls for the same id share one load. Failed
// loads are recorded in the status map and never cached.
//
// The load runs detached from ctx; ctx bounds only how long this caller
// waits.
func (e *Engine) EnsureBuffer(ctx context.Context, id string) (*audio.Buffer, error) {
	if buf, ok := e.cache.Get(id); ok {
		return buf, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := e.loads.DoChan(id, func() (any, error) {
		if buf, ok := e.cache.Get(id); ok {
			return buf, nil
		}
		return e.load(loadCtx, id)
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*audio.Buffer), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Engine) load(ctx context.Context, id string) (*audio.Buffer, error) {
	if e.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.loadTimeout)
		defer cancel()
	}

	e.status.StartLoading(id)
	start := time.Now()

	data, err := e.transport.Fetch(ctx, id)
	if err != nil {
		return nil, e.fail(newError(FetchError, id, "failed to fetch audio file", err))
	}

	buf, err := e.decoder.Decode(ctx, data)
	if err != nil {
		return nil, e.fail(newError(DecodeError, id, "failed to decode audio data", err))
	}

	e.cache.Put(id, buf)
	e.status.FinishLoading(id)
	log.Debug("Clip loaded", "id", id, "duration", buf.Duration(), "elapsed", time.Since(start))
	return buf, nil
}

// fail records err against its clip and returns it.
func (e *Engine) fail(err *Error) error {
	log.Warn("Clip failed", "id", err.ID, "kind", err.Kind, "error", err)
	e.status.Fail(err.ID, err.Error())
	return err
}

// Preload loads id into the cache without playing it.
func (e *Engine) Preload(ctx context.Context, id string) error {
	_, err := e.EnsureBuffer(ctx, id)
	return err
}

// PreloadAll loads every id, at most workers at a time, and returns the
// first error. Every id is attempted.
func (e *Engine) PreloadAll(ctx context.Context, ids []string, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := e.Preload(ctx, id); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return firstErr
}

// Play plays id from the start, replacing whatever is playing. The clip
// fades in over FadeIn and fades out over the last FadeOut of its duration.
// Failures are recorded in the status map and also returned.
func (e *Engine) Play(ctx context.Context, id string) error {
	return e.trigger(ctx, id, false)
}

// Preview plays at most the first PreviewStop seconds of id, fading out by
// PreviewFadeEnd. It shares the active slot with Play.
func (e *Engine) Preview(ctx context.Context, id string) error {
	return e.trigger(ctx, id, true)
}

func (e *Engine) trigger(ctx context.Context, id string, preview bool) error {
	_, cached := e.cache.Get(id)

	buf, err := e.EnsureBuffer(ctx, id)
	if err != nil {
		return err
	}
	if cached {
		e.status.ClearError(id)
	}

	g, err := e.manager.Ensure(ctx)
	if err != nil {
		return e.fail(newError(ResumeError, id, "failed to resume audio output", err))
	}

	if err := e.start(g, id, buf, preview); err != nil {
		return e.fail(newError(PlaybackError, id, "failed to start playback", err))
	}
	return nil
}

func (e *Engine) start(g *audio.Graph, id string, buf *audio.Buffer, preview bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.teardownLocked()

	now := g.CurrentTime()
	level := e.status.EffectiveVolume()

	gain := g.NewGain()
	gain.Gain.SetValueAtTime(0, now)
	gain.Gain.LinearRampToValueAtTime(level, now+FadeIn)

	src := g.NewBufferSource(buf)
	src.Connect(gain)
	gain.Connect(g.Destination())

	if preview {
		gain.Gain.LinearRampToValueAtTime(0, now+PreviewFadeEnd)
	} else {
		end := now + buf.Duration()
		// Short clips start fading before the fade-in completes; the
		// cancel-and-hold keeps the envelope continuous.
		fadeStart := max(now, end-FadeOut)
		gain.Gain.CancelAndHoldAtTime(fadeStart)
		gain.Gain.LinearRampToValueAtTime(0, end)
	}

	h := &handle{
		Playback: Playback{ID: id, Preview: preview, Started: now, Duration: buf.Duration()},
		source:   src,
		gain:     gain,
		done:     make(chan struct{}),
	}
	src.OnEnded(func() { e.ended(h) })

	if err := src.Start(now); err != nil {
		gain.Disconnect()
		return err
	}
	if preview {
		h.cancelTimer = g.AfterFunc(PreviewStop, func() { e.previewExpired(h) })
	}

	e.active = h
	log.Debug("Playback started", "id", id, "preview", preview, "level", level, "at", now)
	return nil
}

// ended runs when h's source finishes, naturally or after Stop. It only
// clears the slot if h still owns it.
func (e *Engine) ended(h *handle) {
	h.gain.Disconnect()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == h {
		if h.cancelTimer != nil {
			h.cancelTimer()
		}
		e.active = nil
	}
	h.release()
}

func (e *Engine) previewExpired(h *handle) {
	_ = h.source.Stop()
	h.gain.Disconnect()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == h {
		e.active = nil
	}
	h.release()
}

// teardownLocked stops and disconnects the active playback. Stop errors are
// ignored. Caller holds e.mu.
func (e *Engine) teardownLocked() {
	h := e.active
	if h == nil {
		return
	}
	if h.cancelTimer != nil {
		h.cancelTimer()
	}
	_ = h.source.Stop()
	h.source.Disconnect()
	h.gain.Disconnect()
	e.active = nil
	h.release()
	log.Debug("Playback interrupted", "id", h.ID, "preview", h.Preview)
}

// Stop silences the active playback, if any.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.teardownLocked()
}

// Active returns the playback occupying the slot.
func (e *Engine) Active() (Playback, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Playback{}, false
	}
	return e.active.Playback, true
}

// Wait blocks until the slot is empty or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	for {
		e.mu.Lock()
		h := e.active
		e.mu.Unlock()
		if h == nil {
			return nil
		}
		select {
		case <-h.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Duration returns the length in seconds of a cached clip.
func (e *Engine) Duration(id string) (float64, bool) {
	buf, ok := e.cache.Get(id)
	if !ok {
		return 0, false
	}
	return buf.Duration(), true
}

// ContextState reports the shared output context state.
func (e *Engine) ContextState() audio.State {
	return e.manager.State()
}

// SetVolume sets the level for subsequent playbacks.
func (e *Engine) SetVolume(v float64) float64 { return e.status.SetVolume(v) }

// SetMuted sets the mute flag for subsequent playbacks.
func (e *Engine) SetMuted(m bool) { e.status.SetMuted(m) }
