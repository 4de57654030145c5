package audio

import "errors"

// ErrInvalidState is returned when a node operation does not apply to the
// node's current state, such as stopping a source twice.
var ErrInvalidState = errors.New("audio node is in an invalid state for this operation")

// Destination is the final output of a Graph.
type Destination struct {
	graph *Graph
}

// GainNode scales whatever is connected to it by its Gain param.
type GainNode struct {
	graph     *Graph
	Gain      *Param
	connected bool
}

// Connect routes the node to the graph output.
func (n *GainNode) Connect(d Destination) {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	n.connected = d.graph == n.graph
}

// Disconnect detaches the node from the output. Sources feeding it keep
// running but become inaudible.
func (n *GainNode) Disconnect() {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	n.connected = false
}

// Connected reports whether the node currently reaches the output.
func (n *GainNode) Connected() bool {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	return n.connected
}

type sourceState int

const (
	sourceIdle sourceState = iota
	sourceScheduled
	sourceStopped
	sourceEnded
)

// BufferSource plays a Buffer once from the beginning.
type BufferSource struct {
	graph      *Graph
	buffer     *Buffer
	gain       *GainNode
	state      sourceState
	startFrame int64
	pos        int
	onEnded    []func()
}

// Buffer returns the buffer the source plays.
func (s *BufferSource) Buffer() *Buffer { return s.buffer }

// Connect routes the source into a gain node.
func (s *BufferSource) Connect(g *GainNode) {
	s.graph.mu.Lock()
	defer s.graph.mu.Unlock()
	s.gain = g
}

// Disconnect detaches the source from its gain node.
func (s *BufferSource) Disconnect() {
	s.graph.mu.Lock()
	defer s.graph.mu.Unlock()
	s.gain = nil
}

// OnEnded registers f to run once when the source finishes, either at the
// natural end of the buffer or after Stop. Callbacks run outside the graph
// lock, on the goroutine that renders the graph.
func (s *BufferSource) OnEnded(f func()) {
	s.graph.mu.Lock()
	defer s.graph.mu.Unlock()
	s.onEnded = append(s.onEnded, f)
}

// Start schedules playback at context time when. A time in the past starts
// immediately.
func (s *BufferSource) Start(when float64) error {
	g := s.graph
	g.mu.Lock()
	defer g.mu.Unlock()

	if s.state != sourceIdle {
		return ErrInvalidState
	}
	if g.state == StateClosed {
		return ErrClosed
	}
	start := g.frameAt(when)
	if start < g.frame {
		start = g.frame
	}
	s.startFrame = start
	s.state = sourceScheduled
	g.sources = append(g.sources, s)
	return nil
}

// Stop ends playback immediately. Stopping a source that was never started
// or has already finished returns ErrInvalidState.
func (s *BufferSource) Stop() error {
	g := s.graph
	g.mu.Lock()
	defer g.mu.Unlock()

	if s.state != sourceScheduled {
		return ErrInvalidState
	}
	s.state = sourceStopped
	g.pending = append(g.pending, s.onEnded...)
	s.onEnded = nil
	return nil
}

// Playing reports whether the source has been started and not yet finished.
func (s *BufferSource) Playing() bool {
	s.graph.mu.Lock()
	defer s.graph.mu.Unlock()
	return s.state == sourceScheduled
}

// finish marks a natural end. Caller holds the graph lock.
func (s *BufferSource) finish() {
	s.state = sourceEnded
	s.graph.pending = append(s.graph.pending, s.onEnded...)
	s.onEnded = nil
}

// audible reports whether the source currently reaches the output.
// Caller holds the graph lock.
func (s *BufferSource) audible() bool {
	return s.state == sourceScheduled && s.gain != nil && s.gain.connected
}
