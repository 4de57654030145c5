package audio

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestParamValueAt tests timeline evaluation for set and ramp events.
func TestParamValueAt(t *testing.T) {
	p := newParam(1)
	p.SetValueAtTime(0, 0)
	p.LinearRampToValueAtTime(0.8, 0.2)

	tests := []struct {
		name string
		at   float64
		want float64
	}{
		{"at start", 0, 0},
		{"half way up", 0.1, 0.4},
		{"ramp end", 0.2, 0.8},
		{"after last event", 5, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ValueAt(tt.at); !almostEqual(got, tt.want) {
				t.Errorf("ValueAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

// TestParamDefaultBeforeEvents tests the value before any event is reached.
func TestParamDefaultBeforeEvents(t *testing.T) {
	p := newParam(0.5)
	if got := p.ValueAt(3); got != 0.5 {
		t.Errorf("expected default 0.5 with no events, got %v", got)
	}

	p.SetValueAtTime(1, 2)
	if got := p.ValueAt(1); got != 0.5 {
		t.Errorf("expected default before first set event, got %v", got)
	}
	if got := p.ValueAt(2); got != 1 {
		t.Errorf("expected 1 at set time, got %v", got)
	}
}

// TestParamCancelAndHoldAfterRamp tests holding a value once earlier ramps
// have completed.
func TestParamCancelAndHoldAfterRamp(t *testing.T) {
	p := newParam(1)
	p.SetValueAtTime(0, 0)
	p.LinearRampToValueAtTime(1, 0.2)
	p.CancelAndHoldAtTime(0.8)
	p.LinearRampToValueAtTime(0, 1.0)

	if got := p.ValueAt(0.8); !almostEqual(got, 1) {
		t.Errorf("expected hold value 1 at 0.8, got %v", got)
	}
	if got := p.ValueAt(0.9); !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5 half way down, got %v", got)
	}
	if got := p.ValueAt(1.0); !almostEqual(got, 0) {
		t.Errorf("expected 0 at ramp end, got %v", got)
	}
}

// TestParamCancelAndHoldTruncatesRamp tests that a ramp in progress is cut
// short at the hold time.
func TestParamCancelAndHoldTruncatesRamp(t *testing.T) {
	p := newParam(1)
	p.SetValueAtTime(0, 0)
	p.LinearRampToValueAtTime(1, 0.2)
	p.CancelAndHoldAtTime(0.1)

	events := p.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events after cancel, got %d", len(events))
	}
	last := events[1]
	if last.Kind != EventLinearRamp || !almostEqual(last.Time, 0.1) || !almostEqual(last.Value, 0.5) {
		t.Errorf("expected truncated ramp to 0.5 at 0.1, got %+v", last)
	}
	if got := p.ValueAt(0.05); !almostEqual(got, 0.25) {
		t.Errorf("expected 0.25 during truncated ramp, got %v", got)
	}
}

// TestParamEventsSorted tests that events are kept in time order.
func TestParamEventsSorted(t *testing.T) {
	p := newParam(0)
	p.LinearRampToValueAtTime(1, 2)
	p.SetValueAtTime(0.5, 1)
	p.SetValueAtTime(0, 0)

	events := p.Events()
	for i := 1; i < len(events); i++ {
		if events[i-1].Time > events[i].Time {
			t.Fatalf("events out of order: %+v", events)
		}
	}
}
