package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Output is the sound device a Graph renders to.
type Output interface {
	// Start opens the device and begins pulling PCM from r.
	Start(ctx context.Context, r io.Reader) error

	// Suspend pauses the device.
	Suspend() error

	// Resume restarts a suspended device.
	Resume() error
}

// NullOutput discards audio. The graph clock only moves when the owner
// calls Graph.Advance, which makes it suitable for tests and dry runs.
type NullOutput struct{}

func (NullOutput) Start(context.Context, io.Reader) error { return nil }
func (NullOutput) Suspend() error                         { return nil }
func (NullOutput) Resume() error                          { return nil }

// TickerOutput discards audio but pulls from the graph in real time, so the
// clock, source ends and timers behave as they would on a device.
type TickerOutput struct {
	mu         sync.Mutex
	sampleRate int
	interval   time.Duration
	started    bool
	paused     bool
}

// NewTickerOutput returns a device-less output rendering at sampleRate. A
// zero interval defaults to 10ms.
func NewTickerOutput(sampleRate int, interval time.Duration) *TickerOutput {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &TickerOutput{sampleRate: sampleRate, interval: interval}
}

// Start launches the render loop. The loop ends when r reports an error,
// which a Graph does once it is closed.
func (o *TickerOutput) Start(_ context.Context, r io.Reader) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return nil
	}
	o.started = true
	o.paused = false
	go o.run(r)
	return nil
}

// Suspend stops the clock until Resume.
func (o *TickerOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = true
	return nil
}

// Resume restarts the clock.
func (o *TickerOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = false
	return nil
}

func (o *TickerOutput) run(r io.Reader) {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	// at most four ticks are rendered at once so a stalled loop does not jump
	maxFrames := 4 * int(o.interval.Seconds()*float64(o.sampleRate))
	buf := make([]byte, maxFrames*bytesPerFrame)
	last := time.Now()
	var carry float64

	for now := range ticker.C {
		elapsed := now.Sub(last)
		last = now

		o.mu.Lock()
		paused := o.paused
		o.mu.Unlock()
		if paused {
			carry = 0
			continue
		}

		want := elapsed.Seconds()*float64(o.sampleRate) + carry
		frames := int(want)
		carry = want - float64(frames)
		frames = min(frames, maxFrames)
		if frames == 0 {
			continue
		}
		if _, err := r.Read(buf[:frames*bytesPerFrame]); err != nil {
			log.Debug("Ticker output stopped", "err", err)
			return
		}
	}
}

// ErrOutputTimeout is returned when the device does not become ready in time.
var ErrOutputTimeout = errors.New("audio device initialization timeout")

// OtoOutput plays a graph through oto. Only one oto context may exist per
// process, so an OtoOutput must back at most one Graph.
type OtoOutput struct {
	mu           sync.Mutex
	context      *oto.Context
	player       *oto.Player
	sampleRate   int
	bufferSize   time.Duration
	readyTimeout time.Duration
}

// NewOtoOutput configures an oto-backed output. A zero bufferSize picks a
// per-platform default.
func NewOtoOutput(sampleRate int, bufferSize time.Duration) *OtoOutput {
	if bufferSize <= 0 {
		bufferSize = platformBufferSize()
	}
	readyTimeout := 5 * time.Second
	if runtime.GOOS == "darwin" {
		// CoreAudio can take a while on first open
		readyTimeout = 10 * time.Second
	}
	return &OtoOutput{
		sampleRate:   sampleRate,
		bufferSize:   bufferSize,
		readyTimeout: readyTimeout,
	}
}

// Start creates the oto context, waits for it to become ready and starts a
// player reading from r.
func (o *OtoOutput) Start(ctx context.Context, r io.Reader) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return nil
	}

	options := &oto.NewContextOptions{
		SampleRate:   o.sampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   o.bufferSize,
	}

	log.Debug("Initializing audio output",
		"sample_rate", options.SampleRate,
		"channels", options.ChannelCount,
		"buffer_size", options.BufferSize)

	c, ready, err := oto.NewContext(options)
	if err != nil {
		return fmt.Errorf("failed to create audio context: %w", err)
	}

	select {
	case <-ready:
	case <-time.After(o.readyTimeout):
		// oto v3 contexts have no Close; it is left for the GC
		return fmt.Errorf("%w after %v", ErrOutputTimeout, o.readyTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	o.context = c
	o.player = c.NewPlayer(r)
	o.player.Play()
	log.Info("Audio output started", "sample_rate", o.sampleRate)
	return nil
}

// Suspend pauses the oto context.
func (o *OtoOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.context == nil {
		return nil
	}
	return o.context.Suspend()
}

// Resume restarts the oto context.
func (o *OtoOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.context == nil {
		return errors.New("audio output not started")
	}
	if err := o.context.Resume(); err != nil {
		return err
	}
	if o.player != nil && !o.player.IsPlaying() {
		o.player.Play()
	}
	return nil
}

func platformBufferSize() time.Duration {
	switch runtime.GOOS {
	case "darwin":
		// macOS benefits from larger buffers
		return 100 * time.Millisecond
	case "windows":
		return 80 * time.Millisecond
	default:
		return 50 * time.Millisecond
	}
}
