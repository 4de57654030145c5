package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
)

// State is the lifecycle state of a Graph.
type State string

const (
	// StateSuspended is the initial state. Time does not advance and
	// nothing is audible until the graph is resumed.
	StateSuspended State = "suspended"
	// StateRunning means the graph is rendering to its output.
	StateRunning State = "running"
	// StateClosed means the graph has been released.
	StateClosed State = "closed"
)

// Common graph errors
var (
	// ErrClosed is returned by operations on a closed graph
	ErrClosed = errors.New("audio context is closed")

	// ErrResume indicates the output could not leave the suspended state
	ErrResume = errors.New("audio context failed to resume")
)

// Channels is the channel count rendered by every graph.
const Channels = 2

// bytesPerFrame is the size of one interleaved signed 16-bit stereo frame.
const bytesPerFrame = Channels * 2

type timer struct {
	at        int64
	f         func()
	cancelled bool
}

// Graph is the shared audio output context. It owns the clock, the set of
// playing sources and the scheduled timers, and renders them to an Output.
type Graph struct {
	mu         sync.Mutex
	resumeMu   sync.Mutex
	sampleRate int
	output     Output
	started    bool

	state   State
	frame   int64
	sources []*BufferSource
	timers  []*timer
	pending []func()
}

// NewGraph creates a suspended graph rendering at sampleRate to out.
func NewGraph(sampleRate int, out Output) *Graph {
	if out == nil {
		out = NullOutput{}
	}
	return &Graph{
		sampleRate: sampleRate,
		output:     out,
		state:      StateSuspended,
	}
}

// SampleRate returns the rendering rate in Hz.
func (g *Graph) SampleRate() int { return g.sampleRate }

// State returns the current lifecycle state.
func (g *Graph) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CurrentTime returns the context clock in seconds.
func (g *Graph) CurrentTime() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return float64(g.frame) / float64(g.sampleRate)
}

// Destination returns the graph output node.
func (g *Graph) Destination() Destination {
	return Destination{graph: g}
}

// NewGain creates a gain node at unity level, not yet connected.
func (g *Graph) NewGain() *GainNode {
	return &GainNode{graph: g, Gain: newParam(1)}
}

// NewBufferSource creates a source that plays buf once.
func (g *Graph) NewBufferSource(buf *Buffer) *BufferSource {
	return &BufferSource{graph: g, buffer: buf}
}

// Resume moves a suspended graph to running, starting the output on first
// use. It blocks until the output is ready or ctx is done.
func (g *Graph) Resume(ctx context.Context) error {
	g.resumeMu.Lock()
	defer g.resumeMu.Unlock()

	switch g.State() {
	case StateRunning:
		return nil
	case StateClosed:
		return ErrClosed
	}

	var err error
	if !g.started {
		err = g.output.Start(ctx, g)
	} else {
		err = g.output.Resume()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResume, err)
	}

	g.started = true
	g.mu.Lock()
	if g.state == StateSuspended {
		g.state = StateRunning
	}
	g.mu.Unlock()
	log.Debug("Audio context resumed", "sample_rate", g.sampleRate)
	return nil
}

// Suspend pauses rendering. The clock stops until the next Resume.
func (g *Graph) Suspend() error {
	g.resumeMu.Lock()
	defer g.resumeMu.Unlock()

	g.mu.Lock()
	if g.state != StateRunning {
		g.mu.Unlock()
		return nil
	}
	g.state = StateSuspended
	g.mu.Unlock()

	if g.started {
		return g.output.Suspend()
	}
	return nil
}

// Close releases the graph. Playing sources are dropped without ended
// notifications.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateClosed
	g.sources = nil
	g.timers = nil
	g.pending = nil
	return nil
}

// AfterFunc runs f once the context clock has advanced delay seconds past
// now. The returned function cancels the timer if it has not fired.
func (g *Graph) AfterFunc(delay float64, f func()) (cancel func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := &timer{at: g.frame + int64(math.Round(delay*float64(g.sampleRate))), f: f}
	g.timers = append(g.timers, t)
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		t.cancelled = true
	}
}

// Audible returns the number of sources currently reaching the output.
func (g *Graph) Audible() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.sources {
		if s.audible() {
			n++
		}
	}
	return n
}

// Read renders interleaved signed 16-bit little-endian stereo PCM into p.
// It implements io.Reader so the graph can feed an oto player directly.
func (g *Graph) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	mix := make([]Frame, frames)
	if err := g.render(mix); err != nil {
		return 0, err
	}
	for i, f := range mix {
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame:], uint16(toInt16(f[0])))
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame+2:], uint16(toInt16(f[1])))
	}
	return frames * bytesPerFrame, nil
}

// Advance renders seconds worth of frames and discards them. Outputs that
// have no device use it to move the clock.
func (g *Graph) Advance(seconds float64) {
	frames := int(math.Round(seconds * float64(g.sampleRate)))
	const chunk = 1024
	buf := make([]Frame, chunk)
	for frames > 0 {
		n := min(frames, chunk)
		if err := g.render(buf[:n]); err != nil {
			return
		}
		frames -= n
	}
}

func (g *Graph) render(dst []Frame) error {
	g.mu.Lock()
	if g.state == StateClosed {
		g.mu.Unlock()
		return io.EOF
	}

	for i := range dst {
		dst[i] = Frame{}
	}

	if g.state == StateRunning {
		for i := range dst {
			t := float64(g.frame) / float64(g.sampleRate)
			var l, r float64
			for _, s := range g.sources {
				if s.state != sourceScheduled || s.startFrame > g.frame {
					continue
				}
				if s.pos >= s.buffer.Len() {
					s.finish()
					continue
				}
				if s.gain != nil && s.gain.connected {
					level := s.gain.Gain.ValueAt(t)
					f := s.buffer.Frame(s.pos)
					l += float64(f[0]) * level
					r += float64(f[1]) * level
				}
				s.pos++
				if s.pos >= s.buffer.Len() {
					s.finish()
				}
			}
			dst[i] = Frame{float32(l), float32(r)}
			g.frame++
			g.fireTimers()
		}
		g.compact()
	}

	callbacks := g.pending
	g.pending = nil
	g.mu.Unlock()

	for _, f := range callbacks {
		f()
	}
	return nil
}

// fireTimers moves due timers to pending. Caller holds the lock.
func (g *Graph) fireTimers() {
	if len(g.timers) == 0 {
		return
	}
	kept := g.timers[:0]
	for _, t := range g.timers {
		switch {
		case t.cancelled:
		case t.at <= g.frame:
			g.pending = append(g.pending, t.f)
		default:
			kept = append(kept, t)
		}
	}
	g.timers = kept
}

// compact drops finished sources. Caller holds the lock.
func (g *Graph) compact() {
	kept := g.sources[:0]
	for _, s := range g.sources {
		if s.state == sourceScheduled {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(g.sources); i++ {
		g.sources[i] = nil
	}
	g.sources = kept
}

// frameAt converts a context time to a frame index. Caller holds the lock.
func (g *Graph) frameAt(t float64) int64 {
	return int64(math.Round(t * float64(g.sampleRate)))
}

func toInt16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * math.MaxInt16)
}
