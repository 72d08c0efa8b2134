package mode

import (
	"fmt"
	"time"

	"scrm.ca/trolley/route"
	"scrm.ca/trolley/sound"
)

const (
	// maxSignalStart: the car must move within this long of the start
	// signal's first ding.
	maxSignalStart = 10 * time.Second
	// maxStartBetween: the two start dings must land within this gap.
	maxStartBetween = 2 * time.Second
	// stopCheckAfter: how long after a stop the stop signal is judged.
	stopCheckAfter = 10 * time.Second
	// stopSignalTime: the stop ding must be this fresh, and this far from
	// any other ding.
	stopSignalTime = 2 * time.Second
)

// ruleWindow is a route window plus its evaluated-once latch.
type ruleWindow struct {
	route.Window
	done bool
}

func newRuleWindows(ws []route.Window) []ruleWindow {
	out := make([]ruleWindow, len(ws))
	for i, w := range ws {
		out[i] = ruleWindow{Window: w}
	}
	return out
}

// full enforces the whole rulebook. It composes startStop for the motion
// model and the basic rules, then layers the position- and time-windowed
// checks: start/stop bell signals, crossing bells, scheduled stops, and
// dead sections.
type full struct {
	ss  *startStop
	env *Env

	// One tick of speed history detects start and stop edges.
	lastSpeed    float64
	currentSpeed float64
	// stopTime is when the car last came to rest; zero means no stop
	// signal check is pending.
	stopTime time.Time

	stops     []ruleWindow
	crossings []ruleWindow
	dead      []ruleWindow
}

func newFull(env *Env) Policy {
	return &full{
		ss:        &startStop{env: env},
		env:       env,
		stops:     newRuleWindows(env.Route.Stops),
		crossings: newRuleWindows(env.Route.Crossings),
		dead:      newRuleWindows(env.Route.Dead),
	}
}

func (f *full) Name() string { return "Full Mode" }

func (f *full) SetRun(level int) bool {
	return f.ss.SetRun(level)
}

func (f *full) Reset() {
	f.ss.Reset()
	f.lastSpeed = 0
	f.currentSpeed = 0
	f.stopTime = time.Time{}
	f.stops = newRuleWindows(f.env.Route.Stops)
	f.crossings = newRuleWindows(f.env.Route.Crossings)
	f.dead = newRuleWindows(f.env.Route.Dead)
}

func (f *full) Update() {
	f.ss.Update()
	f.lastSpeed = f.currentSpeed
	f.currentSpeed = f.env.State.Speed
}

func (f *full) RulesCheck() bool {
	if !f.ss.RulesCheck() {
		return false
	}

	f.checkSignals()

	pos := f.env.Position()
	f.checkCrossings(pos)
	f.checkStops(pos)
	f.checkDeadSections(pos)

	// Past the store and standing still: the run is complete.
	if pos > f.env.Route.Store && f.env.State.Speed == 0 {
		f.env.Success()
		return false
	}

	return true
}

// checkSignals judges the bell signals around start and stop edges:
// starting needs ding-(wait)-ding, freshly given; stopping needs exactly
// one timely ding.
func (f *full) checkSignals() {
	now := f.env.Now()
	dings := f.env.Dings

	// Stopped-to-moving edge: the start signal must already be rung.
	if f.lastSpeed == 0 && f.currentSpeed != 0 {
		switch {
		case dings.Len() < 2:
			f.env.Warn("Started moving without sounding start signal")
		case now.Sub(dings.Last(2).Time) > maxSignalStart:
			f.env.Warn("Started moving without sounding start signal")
		case dings.Last(1).Time.Sub(dings.Last(2).Time) > maxStartBetween:
			f.env.Warn("Start signal is ding-ding not ding-wait-ding")
		}
	}

	// A pending stop check resolves either by timeout or by the first
	// ding after the stop.
	var lastDing time.Time
	if dings.Len() > 0 && !dings.Last(1).Time.Before(f.stopTime) {
		lastDing = dings.Last(1).Time
	}
	if !f.stopTime.IsZero() &&
		(now.Sub(f.stopTime) >= stopCheckAfter || lastDing.After(f.stopTime)) {
		switch {
		case dings.Len() == 0:
			f.env.Warn("No stop signal")
		case now.Sub(dings.Last(1).Time) > stopSignalTime:
			f.env.Warn("Stop signal too slow or missing")
		case dings.Len() > 1 && dings.Last(1).Time.Sub(dings.Last(2).Time) < stopSignalTime:
			f.env.Warn("Stop signal confused with other signals")
		}
		f.stopTime = time.Time{}
	}

	// Moving-to-stopped edge arms the stop check.
	if f.lastSpeed != 0 && f.currentSpeed == 0 {
		f.stopTime = now
	}
}

// checkCrossings counts bell rings inside each crossing window once the
// car has passed it.
func (f *full) checkCrossings(pos float64) {
	for i := range f.crossings {
		c := &f.crossings[i]
		if c.done || pos < c.End {
			continue
		}
		if f.env.Dings.CountBetween(c.Start, c.End) < f.env.Route.CrossingDings {
			f.env.Warn(fmt.Sprintf("Failed to sound bell crossing %s", c.Name))
		}
		c.done = true
	}
}

// checkStops verifies the car came to rest inside each scheduled stop
// window.
func (f *full) checkStops(pos float64) {
	for i := range f.stops {
		s := &f.stops[i]
		if s.done {
			continue
		}
		if f.currentSpeed == 0 && s.Contains(pos) {
			s.done = true
			continue
		}
		if pos > s.End {
			s.done = true
			f.env.Warn(fmt.Sprintf("Failed stop at %s", s.Name))
		}
	}
}

// checkDeadSections fires the arcing sound every tick the car draws power
// in a dead section, and records the violation once per section.
func (f *full) checkDeadSections(pos float64) {
	for i := range f.dead {
		z := &f.dead[i]
		if !z.Contains(pos) || f.env.State.RunLevel == 0 {
			continue
		}
		f.env.Sound.Play(sound.Zorch, false)
		if !z.done {
			f.env.Warn(fmt.Sprintf("Zorched %s", z.Name))
			z.done = true
		}
	}
}
