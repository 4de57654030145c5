package audio

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Supported sample rates for the output context.
const (
	SampleRate44100 = 44100
	SampleRate48000 = 48000
)

// Config describes the output context a Manager creates.
type Config struct {
	SampleRate int           // 44100 or 48000 Hz only
	BufferSize time.Duration // device buffer; zero picks a platform default
	Mock       bool          // render to a TickerOutput instead of a device
}

// DefaultConfig returns the default output configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate: SampleRate44100,
		Mock:       IsCI(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SampleRate != SampleRate44100 && c.SampleRate != SampleRate48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer size must not be negative, got %v", c.BufferSize)
	}
	return nil
}

// Manager owns the single shared output context. The context is created
// lazily on first use and the same instance is returned thereafter.
type Manager struct {
	once    sync.Once
	factory func() *Graph
	graph   atomic.Pointer[Graph]
}

// NewManager returns a manager that builds its context from cfg.
func NewManager(cfg Config) *Manager {
	return NewManagerWithFactory(func() *Graph {
		var out Output
		if cfg.Mock {
			out = NewTickerOutput(cfg.SampleRate, 0)
		} else {
			out = NewOtoOutput(cfg.SampleRate, cfg.BufferSize)
		}
		log.Debug("Creating audio context", "sample_rate", cfg.SampleRate, "mock", cfg.Mock)
		return NewGraph(cfg.SampleRate, out)
	})
}

// NewManagerWithFactory returns a manager that builds its context with
// factory. Useful for tests that need a specific Output.
func NewManagerWithFactory(factory func() *Graph) *Manager {
	return &Manager{factory: factory}
}

// Context returns the shared context, creating it on first call.
func (m *Manager) Context() *Graph {
	m.once.Do(func() {
		m.graph.Store(m.factory())
	})
	return m.graph.Load()
}

// Ensure returns the shared context after making sure it is running. A
// suspended context is resumed and the call waits for the resume to finish.
func (m *Manager) Ensure(ctx context.Context) (*Graph, error) {
	g := m.Context()
	switch g.State() {
	case StateRunning:
		return g, nil
	case StateClosed:
		return nil, ErrClosed
	}
	if err := g.Resume(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// State reports the shared context state without creating it.
func (m *Manager) State() State {
	if g := m.graph.Load(); g != nil {
		return g.State()
	}
	return StateSuspended
}

// IsCI detects environments without a usable sound device.
func IsCI() bool {
	ciVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
	}

	for _, envVar := range ciVars {
		if val := os.Getenv(envVar); val != "" && val != "false" {
			log.Debug("CI environment detected", "variable", envVar, "value", val)
			return true
		}
	}

	if os.Getenv("SOUNDBOARD_MOCK_AUDIO") == "true" {
		log.Debug("Mock audio requested via environment variable")
		return true
	}

	return false
}
