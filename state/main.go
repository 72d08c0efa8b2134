// Package state holds the canonical mutable record of the trolley and the
// bell log. It has no behaviour beyond reset and bookkeeping; the brake,
// mode, and sim packages read and write it.
package state

import (
	"fmt"
	"time"
)

// Direction is the reverser position.
type Direction int

const (
	Forward Direction = iota
	Neutral
	Reverse
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Neutral:
		return "neutral"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Valve is the air-brake valve position.
type Valve int

const (
	Apply Valve = iota
	Release
	Lap
	Emergency
)

func (v Valve) String() string {
	switch v {
	case Apply:
		return "apply"
	case Release:
		return "release"
	case Lap:
		return "lap"
	case Emergency:
		return "emergency"
	default:
		return fmt.Sprintf("Valve(%d)", int(v))
	}
}

// MaxRunLevel is the highest notch on the controller. Levels above Run-3
// exist on the hardware but are reserved on this line (15 mph limit).
const MaxRunLevel = 8

// Trolley is the state ledger shared by the brake system, the mode policies,
// and the simulation driver. Speed is in playback-rate units (1.0 = the
// route recording at normal speed); accelerations are per-second, applied in
// tenths by the 10 Hz tick.
//
// RunLevel must only change through the driver's SetRun path, which
// validates the level against the speed table first.
type Trolley struct {
	RunLevel  int
	Direction Direction
	Valve     Valve
	Deadman   bool

	Speed             float64
	Acceleration      float64
	BrakeAcceleration float64
}

// Reset restores the ledger to the start-of-run state: controller at idle,
// reverser neutral, valve at apply, deadman released, everything at rest.
func (t *Trolley) Reset() {
	t.RunLevel = 0
	t.Direction = Neutral
	t.Valve = Apply
	t.Deadman = false
	t.Speed = 0
	t.Acceleration = 0
	t.BrakeAcceleration = 0
}

// Ding is one bell-ring event.
type Ding struct {
	Time     time.Time
	Position float64
}

// DingLog is the append-only record of bell rings for the current run. The
// Full-mode rule engine reads its tail to judge start/stop signalling and
// counts positions for crossing checks.
type DingLog struct {
	dings []Ding
}

// Add appends a ring. Entries are expected in time order; the log does not
// reorder them.
func (l *DingLog) Add(t time.Time, position float64) {
	l.dings = append(l.dings, Ding{Time: t, Position: position})
}

func (l *DingLog) Len() int { return len(l.dings) }

// Last returns the n-th ding from the end (1 = most recent). It panics when
// fewer than n dings are logged; callers check Len first.
func (l *DingLog) Last(n int) Ding {
	return l.dings[len(l.dings)-n]
}

// CountBetween returns how many logged dings fall inside the position
// interval [start, end].
func (l *DingLog) CountBetween(start, end float64) int {
	count := 0
	for _, d := range l.dings {
		if d.Position >= start && d.Position <= end {
			count++
		}
	}
	return count
}

// Reset clears the log for a new run.
func (l *DingLog) Reset() {
	l.dings = nil
}
