package sim

import (
	"sync"
	"time"
)

// PlayState is the transport's play/pause state.
type PlayState int

const (
	Paused PlayState = iota
	Playing
)

// PositionSource reports the route position as a fraction 0..1 of the
// recording, non-decreasing within a run. The driver polls it once per
// tick.
type PositionSource interface {
	Position() float64
}

// Transport is the playback collaborator: a position source plus the rate
// and play/pause sinks, and Seek for the start-of-run rewind.
type Transport interface {
	PositionSource
	SetRate(rate float64)
	Play()
	Pause()
	State() PlayState
	Seek(pos float64)
}

// VirtualTransport stands in for a real player: while playing, position
// advances rate·Δt over the configured route duration, clamped to 1.
// It makes the simulator fully operable headless and is the transport the
// tests drive.
type VirtualTransport struct {
	mu       sync.Mutex
	duration time.Duration
	now      func() time.Time

	pos     float64
	rate    float64
	playing bool
	last    time.Time
}

// NewVirtualTransport creates a paused transport at position 0. duration
// is the length of the recording at rate 1.0.
func NewVirtualTransport(duration time.Duration, now func() time.Time) *VirtualTransport {
	if now == nil {
		now = time.Now
	}
	return &VirtualTransport{
		duration: duration,
		now:      now,
		rate:     1.0,
		last:     now(),
	}
}

// advance folds elapsed wall time into the position. Callers hold mu.
func (v *VirtualTransport) advance() {
	t := v.now()
	if v.playing {
		v.pos += v.rate * t.Sub(v.last).Seconds() / v.duration.Seconds()
		if v.pos > 1 {
			v.pos = 1
		}
	}
	v.last = t
}

func (v *VirtualTransport) Position() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advance()
	return v.pos
}

func (v *VirtualTransport) SetRate(rate float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advance()
	if rate < 0 {
		rate = 0
	}
	v.rate = rate
}

func (v *VirtualTransport) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advance()
	v.playing = true
}

func (v *VirtualTransport) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advance()
	v.playing = false
}

func (v *VirtualTransport) State() PlayState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playing {
		return Playing
	}
	return Paused
}

func (v *VirtualTransport) Seek(pos float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = v.now()
	v.pos = pos
}
