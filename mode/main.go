// Package mode implements the three operating modes of the trainer. Easy
// only moves the car and enforces the deadman; Start/Stop adds the brake,
// reverser, and controller-dwell rules; Full adds the position-indexed
// signalling, stop, crossing, and dead-section rules on top of Start/Stop.
//
// Every mode follows the same per-tick contract: the driver calls SetRun on
// operator input, Update once per tick to integrate speed, then RulesCheck.
// A false return from SetRun or RulesCheck means a fatal rule violation was
// reported through Env and the run is over.
package mode

import (
	"fmt"
	"time"

	"scrm.ca/trolley/route"
	"scrm.ca/trolley/sound"
	"scrm.ca/trolley/state"
)

// tick matches the 10 Hz driver; per-second accelerations are applied in
// tenths.
const tick = 10.0

// MinSpeed is the lowest usable playback rate; Easy mode snaps starts up
// to it because the recording is unusable below it.
const MinSpeed = 0.5

const (
	// speedTime is how long a notch takes to pull the car to its full
	// speed, in seconds.
	speedTime = 6.0
	// friction bleeds 0.005% of speed per tick while coasting.
	friction = 0.99995

	// maxRunTime is the longest stay in a resistance notch before the
	// grids overheat.
	maxRunTime = 10 * time.Second
	// maxDownTime is the longest allowed pause in a notch while
	// returning the controller to idle.
	maxDownTime = 1 * time.Second
)

// speedTable maps run level to full speed in playback-rate units. Negative
// entries are the reserved notches (the line is limited to 15 mph).
//
// These speeds follow the pace of the route recording; they carry no
// further physical meaning.
var speedTable = [state.MaxRunLevel + 1]float64{0.5, 1.5, 2.0, 2.5, -1, -1, -1, -1, -1}

// SpeedFor returns the full speed for a run level, negative for reserved
// levels. The driver validates operator input against it before handing
// the level to a mode.
func SpeedFor(level int) float64 {
	return speedTable[level]
}

// accelFor returns the per-second acceleration a notch adds: the speed gap
// from the previous notch, spread over speedTime.
func accelFor(level int) float64 {
	if level == 0 {
		return 0
	}
	return (speedTable[level] - speedTable[level-1]) / speedTime
}

// Kind selects a mode variant.
type Kind int

const (
	Easy Kind = iota
	StartStop
	Full
)

func (k Kind) String() string {
	switch k {
	case Easy:
		return "easy"
	case StartStop:
		return "start-stop"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a flag value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "easy":
		return Easy, nil
	case "start-stop", "startstop":
		return StartStop, nil
	case "full":
		return Full, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want easy, start-stop, or full)", s)
	}
}

// FatalKind names the rule violations that end a run.
type FatalKind int

const (
	FatalDeadman FatalKind = iota
	FatalReservedRun
	FatalRunTooLong
	FatalRunDownTooLong
	FatalBrakesOn
	FatalNotForward
	FatalReverserMoved
	FatalOverrun
)

func (k FatalKind) String() string {
	switch k {
	case FatalDeadman:
		return "deadman-released"
	case FatalReservedRun:
		return "reserved-run-level"
	case FatalRunTooLong:
		return "run-level-too-long"
	case FatalRunDownTooLong:
		return "run-level-down-too-long"
	case FatalBrakesOn:
		return "moving-with-brakes-on"
	case FatalNotForward:
		return "moving-without-forward"
	case FatalReverserMoved:
		return "reverser-moved-while-moving"
	case FatalOverrun:
		return "overran-end-of-route"
	default:
		return fmt.Sprintf("FatalKind(%d)", int(k))
	}
}

// Env is everything a mode reads and reports through. The driver owns all
// of it; modes never talk to the transport or the operator directly.
type Env struct {
	State *state.Trolley
	Route *route.Route
	Sound sound.Player
	Dings *state.DingLog

	// Position returns the route position sampled at the start of the
	// current tick.
	Position func() float64
	// Now is the rule clock; tests pin it.
	Now func() time.Time

	// Warn records a non-fatal violation for the end-of-run report.
	Warn func(msg string)
	// Fatal reports a run-ending violation. The driver pauses the
	// transport, reports, and resets; the mode just returns false.
	Fatal func(k FatalKind)
	// Success reports a completed run (stopped at the store).
	Success func()
}

// Policy is the per-mode contract. SetRun and RulesCheck return false when
// a fatal violation was reported and the run is over.
type Policy interface {
	Name() string
	SetRun(level int) bool
	Reset()
	Update()
	RulesCheck() bool
}

// New builds a fresh policy (and so a fresh rule context) for a kind.
func New(k Kind, env *Env) Policy {
	switch k {
	case Easy:
		return newEasy(env)
	case StartStop:
		return newStartStop(env)
	case Full:
		return newFull(env)
	default:
		panic(fmt.Sprintf("impossible mode kind %d", k))
	}
}

// updateCentralBell loops the automatic crossing bell while the car is in
// the central zone. Every mode runs it from Update.
func updateCentralBell(env *Env, sounding *bool) {
	pos := env.Position()
	zone := env.Route.CentralBell
	if pos >= zone.Start && !*sounding {
		*sounding = true
		env.Sound.Play(sound.CentralBell, true)
	}
	if pos >= zone.End && *sounding {
		*sounding = false
		env.Sound.Stop(sound.CentralBell)
	}
}
