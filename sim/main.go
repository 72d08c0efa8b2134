// Package sim runs the trainer: a 10 Hz clock that advances the brake and
// the active mode, polices the rules, drives the transport's playback
// rate, and fans events out to the console, the web stream, and the log.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"scrm.ca/trolley/brake"
	"scrm.ca/trolley/mode"
	"scrm.ca/trolley/notify"
	"scrm.ca/trolley/route"
	"scrm.ca/trolley/sound"
	"scrm.ca/trolley/state"
)

// TickPeriod is the simulation step. All per-tick rates in brake and mode
// assume this value.
const TickPeriod = 100 * time.Millisecond

// fatalText carries the operator-facing report for each run-ending
// violation.
var fatalText = map[mode.FatalKind]struct{ Title, Detail string }{
	mode.FatalDeadman: {"Deadman released",
		"The deadman pedal must be held down whenever the car is moving or powered. The car has been stopped."},
	mode.FatalReservedRun: {"Reserved run level",
		"Run levels above Run-3 are not used on this line; the speed limit is 15 mph."},
	mode.FatalRunTooLong: {"Controller left in a notch",
		"Staying in a resistance notch too long overheats the grids. Advance the controller or return it to idle."},
	mode.FatalRunDownTooLong: {"Controller returned too slowly",
		"When notching down, move the controller back to idle without pausing in the intermediate notches."},
	mode.FatalBrakesOn: {"Powered against the brakes",
		"The controller must stay at idle unless the brake valve is in release. Motoring against the brakes overheats the motors."},
	mode.FatalNotForward: {"Powered without forward",
		"The reverser must be in forward before applying power."},
	mode.FatalReverserMoved: {"Reverser moved while moving",
		"Never move the reverser while the car is in motion; it must only change while stopped."},
	mode.FatalOverrun: {"Overran the end of the line",
		"The car ran past the end of the route without stopping at the store."},
}

// Config assembles a Driver. Route, Sound, and Now default to the museum
// loop, the null player, and time.Now.
type Config struct {
	Mode      mode.Kind
	Route     *route.Route
	Sound     sound.Player
	Transport Transport
	Now       func() time.Time
}

// Driver is the simulation clock. One goroutine (Run, or the test calling
// Tick) advances time; operator inputs arrive from any goroutine and are
// serialised by the driver's lock.
type Driver struct {
	mu        sync.Mutex
	st        *state.Trolley
	brake     *brake.System
	route     *route.Route
	snd       sound.Player
	transport Transport
	now       func() time.Time

	kind   mode.Kind
	policy mode.Policy
	env    *mode.Env

	dings    state.DingLog
	warnings []string
	// clickClack is when the rail-joint sound next fires; zero while the
	// car is stopped.
	clickClack time.Time
	// curPos is the transport position sampled at the start of the current
	// tick; Env.Position reads it so every rule in a tick sees one value.
	curPos float64

	runID string
	mux   *notify.Mux[Event]
}

func NewDriver(cfg Config) *Driver {
	if cfg.Route == nil {
		cfg.Route = route.Default()
	}
	if cfg.Sound == nil {
		cfg.Sound = sound.Null{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	d := &Driver{
		st:        &state.Trolley{},
		route:     cfg.Route,
		snd:       cfg.Sound,
		transport: cfg.Transport,
		now:       cfg.Now,
		kind:      cfg.Mode,
		mux:       notify.New[Event]("sim"),
	}
	d.brake = brake.New(d.st, d.snd)
	d.env = &mode.Env{
		State:    d.st,
		Route:    d.route,
		Sound:    d.snd,
		Dings:    &d.dings,
		Position: func() float64 { return d.curPos },
		Now:      d.now,
		Warn:     d.warnLocked,
		Fatal:    d.fatalLocked,
		Success:  d.successLocked,
	}
	d.mu.Lock()
	d.resetLocked()
	d.mu.Unlock()
	return d
}

// Events is the driver's fan-out; subscribe before Run to see the first
// ResetEvent's successors.
func (d *Driver) Events() *notify.Mux[Event] { return d.mux }

// Run ticks the simulation until ctx is done.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(TickPeriod)
	defer ticker.Stop()
	zap.S().Infof("sim: running in %s", d.policy.Name())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick advances the simulation one step. Run calls it at TickPeriod; tests
// call it directly.
func (d *Driver) Tick() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tickLocked()
}

func (d *Driver) tickLocked() {
	d.curPos = d.transport.Position()

	d.brake.Update()
	d.policy.Update()
	if !d.policy.RulesCheck() {
		// A fatal or a completed run already reset everything.
		return
	}

	d.transport.SetRate(d.st.Speed)
	d.updateClickClackLocked()

	// Gate playback on motion until the recording runs out; past the end
	// the rate stays pinned so the overrun check below sees it.
	if d.curPos < d.route.EndOfRun {
		switch {
		case d.st.Speed > 0 && d.transport.State() == Paused:
			d.transport.Play()
		case d.st.Speed <= 0 && d.transport.State() == Playing:
			d.transport.Pause()
		}
	}

	zap.S().Debugf("sim: pos %.3f speed %.3f accel %.3f brake %.3f red %.1f black %.1f",
		d.curPos, d.st.Speed, d.st.Acceleration, d.st.BrakeAcceleration, d.brake.Red, d.brake.Black)

	ticksTotal.Inc()
	speedGauge.Set(d.st.Speed)
	positionGauge.Set(d.curPos)
	cylinderGauge.Set(d.brake.Red)
	reservoirGauge.Set(d.brake.Black)

	d.mux.Send(TickEvent{Snapshot: d.snapshotLocked()})

	if d.curPos > d.route.EndOfRun {
		d.transport.Pause()
		d.warnLocked("Failed to stop at store")
		d.fatalLocked(mode.FatalOverrun)
	}
}

// updateClickClackLocked runs the rail-joint clatter: a click when the car
// starts moving, then one every 3.0/speed seconds until it stops.
func (d *Driver) updateClickClackLocked() {
	now := d.now()
	if d.clickClack.IsZero() {
		if d.st.Speed > 0 {
			d.snd.Play(sound.ClickClack, false)
			d.clickClack = now.Add(time.Duration(3.0 / d.st.Speed * float64(time.Second)))
		}
		return
	}
	if now.After(d.clickClack) {
		if d.st.Speed > 0 {
			d.snd.Play(sound.ClickClack, false)
			d.clickClack = now.Add(time.Duration(3.0 / d.st.Speed * float64(time.Second)))
		} else {
			d.clickClack = time.Time{}
		}
	}
}

// SetRun moves the controller to a notch. It returns false when the level
// was rejected (reserved notch) and the run has been reset.
func (d *Driver) SetRun(level int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if level < 0 || level > state.MaxRunLevel {
		zap.S().Warnf("sim: run level %d out of range, ignored", level)
		return true
	}
	if level != d.st.RunLevel && mode.SpeedFor(level) < 0 {
		d.fatalLocked(mode.FatalReservedRun)
		return false
	}
	if !d.policy.SetRun(level) {
		return false
	}
	d.st.RunLevel = level
	return true
}

// SetDirection moves the reverser. Moving it away from forward while the
// controller is notched up is a run-ending violation.
func (d *Driver) SetDirection(dir state.Direction) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dir != state.Forward && (d.st.RunLevel != 0 || d.st.Speed != 0) {
		d.fatalLocked(mode.FatalReverserMoved)
		return
	}
	d.st.Direction = dir
}

// SetDeadman records the pedal state. The modes judge it on the next tick.
func (d *Driver) SetDeadman(held bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.st.Deadman = held
}

// SetBrakeValve moves the brake valve.
func (d *Driver) SetBrakeValve(v state.Valve) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brake.SetValve(v)
}

// Ding rings the bell once and logs it for the signalling rules. Rapid
// rings round-robin over three bell voices so they can overlap.
func (d *Driver) Ding() {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case !d.snd.Running(sound.Bell1):
		d.snd.Play(sound.Bell1, false)
	case !d.snd.Running(sound.Bell2):
		d.snd.Play(sound.Bell2, false)
	default:
		d.snd.Play(sound.Bell3, false)
	}
	d.dings.Add(d.now(), d.transport.Position())
}

// SetMode switches the rule set and starts a fresh run.
func (d *Driver) SetMode(k mode.Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kind = k
	d.resetLocked()
}

// Mode returns the active rule set.
func (d *Driver) Mode() mode.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.kind
}

// Restart abandons the current run and starts over.
func (d *Driver) Restart() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

// Snapshot returns the current observable state.
func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Driver) snapshotLocked() Snapshot {
	return Snapshot{
		RunID:             d.runID,
		Mode:              d.kind.String(),
		Time:              d.now(),
		Position:          d.curPos,
		Speed:             d.st.Speed,
		Acceleration:      d.st.Acceleration,
		BrakeAcceleration: d.st.BrakeAcceleration,
		RunLevel:          d.st.RunLevel,
		Direction:         d.st.Direction.String(),
		Valve:             d.st.Valve.String(),
		Deadman:           d.st.Deadman,
		CylinderPSI:       d.brake.Red,
		ReservoirPSI:      d.brake.Black,
		Pumping:           d.brake.Pumping,
		Extend:            d.brake.Extend,
		Warnings:          append([]string(nil), d.warnings...),
	}
}

func (d *Driver) warnLocked(msg string) {
	d.warnings = append(d.warnings, msg)
	warningsTotal.Inc()
	zap.S().Warnf("sim: %s", msg)
	d.mux.Send(WarningEvent{Message: msg, All: append([]string(nil), d.warnings...)})
}

func (d *Driver) fatalLocked(k mode.FatalKind) {
	d.transport.Pause()
	d.st.Speed = 0
	d.st.Acceleration = 0
	fatalsTotal.WithLabelValues(k.String()).Inc()
	text := fatalText[k]
	zap.S().Warnf("sim: fatal %s: %s", k, text.Title)
	d.mux.Send(FatalEvent{
		Kind:     k,
		Title:    text.Title,
		Detail:   text.Detail,
		Warnings: append([]string(nil), d.warnings...),
	})
	d.resetLocked()
}

func (d *Driver) successLocked() {
	runsCompleted.Inc()
	zap.S().Infof("sim: run complete with %d warnings", len(d.warnings))
	d.mux.Send(SuccessEvent{
		StoppedAtStore: true,
		Warnings:       append([]string(nil), d.warnings...),
	})
	d.resetLocked()
}

// resetLocked rewinds everything for a fresh run: transport at the start,
// ledger and brake recharged, a new rule context, lingering loops silenced.
func (d *Driver) resetLocked() {
	d.transport.Pause()
	d.transport.Seek(0)
	d.transport.SetRate(1.0)
	d.st.Reset()
	d.brake.Reset()
	d.dings.Reset()
	d.warnings = nil
	d.clickClack = time.Time{}
	d.curPos = 0
	for _, k := range []sound.Kind{sound.Apply, sound.Release, sound.CentralBell} {
		d.snd.Stop(k)
	}
	d.policy = mode.New(d.kind, d.env)
	d.runID = uuid.New().String()
	resetsTotal.Inc()
	d.mux.Send(ResetEvent{RunID: d.runID, Mode: d.kind.String()})
}
