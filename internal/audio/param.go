package audio

import (
	"sort"
	"sync"
)

// EventKind identifies how an automation event reaches its value.
type EventKind int

const (
	// EventSet jumps to the value at the event time.
	EventSet EventKind = iota
	// EventLinearRamp ramps linearly from the previous event to the value,
	// arriving exactly at the event time.
	EventLinearRamp
)

func (k EventKind) String() string {
	switch k {
	case EventSet:
		return "set"
	case EventLinearRamp:
		return "linear-ramp"
	default:
		return "unknown"
	}
}

// Event is a scheduled change on a Param timeline.
type Event struct {
	Kind  EventKind
	Time  float64
	Value float64
}

// Param is an automatable value such as a gain level. Changes are scheduled
// on the context clock and evaluated by the renderer per frame.
type Param struct {
	mu           sync.Mutex
	defaultValue float64
	events       []Event
}

func newParam(v float64) *Param {
	return &Param{defaultValue: v}
}

// SetValue sets the value used before the first scheduled event.
func (p *Param) SetValue(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaultValue = v
}

// SetValueAtTime schedules an instant change to v at time t.
func (p *Param) SetValueAtTime(v, t float64) {
	p.insert(Event{Kind: EventSet, Time: t, Value: v})
}

// LinearRampToValueAtTime schedules a linear ramp from the previous event
// that arrives at v exactly at time t.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.insert(Event{Kind: EventLinearRamp, Time: t, Value: v})
}

// CancelAndHoldAtTime drops every event after t and holds the value the
// timeline had at t. A ramp in progress at t is truncated so that it ends at
// t with the held value.
func (p *Param) CancelAndHoldAtTime(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	held := p.valueAt(t)
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time > t })
	kind := EventSet
	if i < len(p.events) {
		kind = p.events[i].Kind
	}
	p.events = append(p.events[:i], Event{Kind: kind, Time: t, Value: held})
}

// ValueAt evaluates the timeline at time t.
func (p *Param) ValueAt(t float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valueAt(t)
}

// Events returns a copy of the scheduled events in time order.
func (p *Param) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *Param) insert(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Events sharing a time keep insertion order.
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time > e.Time })
	p.events = append(p.events, Event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

func (p *Param) valueAt(t float64) float64 {
	prevTime, prevValue := 0.0, p.defaultValue
	for _, e := range p.events {
		if e.Time <= t {
			prevTime, prevValue = e.Time, e.Value
			continue
		}
		if e.Kind != EventLinearRamp {
			return prevValue
		}
		span := e.Time - prevTime
		if span <= 0 {
			return e.Value
		}
		return prevValue + (e.Value-prevValue)*(t-prevTime)/span
	}
	return prevValue
}
