package audioctx

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

type paramEvent struct {
	time  float64
	value float64
}

// Param is a k-rate node parameter. Its value is sampled once per quantum at
// the quantum's start time; scheduled changes take effect on the first
// quantum starting at or after their time. Values are clamped to the nominal
// range on read.
type Param struct {
	mu sync.Mutex

	name     string
	value    float64
	def      float64
	minValue float64
	maxValue float64
	events   []paramEvent
}

func newParam(name string, def, minValue, maxValue float64) *Param {
	return &Param{
		name:     name,
		value:    def,
		def:      def,
		minValue: minValue,
		maxValue: maxValue,
	}
}

func (p *Param) Name() string          { return p.name }
func (p *Param) DefaultValue() float64 { return p.def }
func (p *Param) MinValue() float64     { return p.minValue }
func (p *Param) MaxValue() float64     { return p.maxValue }

// Value returns the current value, clamped to the nominal range.
func (p *Param) Value() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.clamped()
}

// SetValue sets the value immediately.
func (p *Param) SetValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite: %v", ErrInvalidParameter, p.name, v)
	}

	p.mu.Lock()
	p.value = v
	p.mu.Unlock()

	return nil
}

// SetValueAtTime schedules v to take effect at time t (seconds on the
// context timeline). An event at the same time as an existing one replaces it.
func (p *Param) SetValueAtTime(v, t float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite: %v", ErrInvalidParameter, p.name, v)
	}

	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: %s event time must be >= 0: %v", ErrInvalidParameter, p.name, t)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	if i < len(p.events) && p.events[i].time == t {
		p.events[i].value = v
		return nil
	}

	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = paramEvent{time: t, value: v}

	return nil
}

// advance applies every event due at time t and returns the value to use for
// the quantum starting at t.
func (p *Param) advance(t float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for n < len(p.events) && p.events[n].time <= t {
		p.value = p.events[n].value
		n++
	}

	if n > 0 {
		p.events = p.events[n:]
	}

	return p.clamped()
}

func (p *Param) clamped() float64 {
	return min(max(p.value, p.minValue), p.maxValue)
}
