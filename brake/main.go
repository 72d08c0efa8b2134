// Package brake models the straight air brake: a reservoir (black needle),
// a brake cylinder (red needle), a 4-position valve, and the compressor
// that keeps the reservoir topped up. Its only output to the motion model
// is the brake-caused acceleration written into the state ledger.
package brake

import (
	"fmt"

	"go.uber.org/zap"
	"scrm.ca/trolley/sound"
	"scrm.ca/trolley/state"
)

// Tick is the number of simulation steps per second. All rates below are
// already divided down to per-tick values.
const Tick = 10.0

const (
	// MaxPressure is the reservoir ceiling in PSI.
	MaxPressure = 60.0
	// MaxCylinderPressure is the cylinder ceiling; a full-service
	// application tops out 5 PSI under the reservoir.
	MaxCylinderPressure = MaxPressure - 5

	// A release takes about two seconds from a full set.
	releaseRate = 30.0 / Tick
	applyRate   = 60.0 / Tick
	// Applying bleeds the reservoir while the cylinder fills.
	applyDrop = 5.0 / Tick

	pumpUpRate = 20.0 / Tick
	// The compressor cuts in after the reservoir has lost 15 PSI.
	pumpUpStart = MaxPressure - 15

	// The rigging takes a second of travel before the shoes bite.
	maxExtend  = 1.0
	extendRate = maxExtend / Tick
)

// Accel returns the per-tick brake acceleration for a cylinder pressure:
// a 10 PSI set slows the car by 0.025 speed units per second.
func Accel(cylinder float64) float64 {
	return -(0.025 * cylinder) / Tick
}

// AngleOf maps a pressure to a needle angle on the gauge face, for
// whatever renders it.
func AngleOf(pressure float64) float64 {
	const startAngle = -30
	return pressure*2 + startAngle
}

// System is the pneumatic state machine. It reads the valve position from
// the ledger every tick and writes BrakeAcceleration back.
type System struct {
	st  *state.Trolley
	snd sound.Player

	// Red is the brake cylinder pressure, Black the reservoir pressure.
	Red   float64
	Black float64

	// PumpAllowed is cleared by an emergency application and restored by
	// any ordinary valve position.
	PumpAllowed bool
	Pumping     bool

	// Extend models the mechanical slack: braking force only develops
	// once the rigging is fully extended (Extend == maxExtend).
	Extend float64
}

func New(st *state.Trolley, snd sound.Player) *System {
	s := &System{st: st, snd: snd}
	s.Reset()
	return s
}

// Reset charges the system to the start-of-run state: reservoir full,
// cylinder set (the car is parked on air), pump idle.
func (s *System) Reset() {
	s.st.Valve = state.Apply
	s.Black = MaxPressure
	s.Red = MaxCylinderPressure
	s.PumpAllowed = true
	s.setPumping(false)
	s.Extend = 0
	s.st.BrakeAcceleration = 0
}

// SetValve records a new valve position. An emergency application dumps
// both pressures immediately and sounds the emergency exhaust; everything
// else takes effect over the following ticks in Update.
func (s *System) SetValve(v state.Valve) {
	s.st.Valve = v
	if v == state.Emergency {
		s.Black = 0
		s.Red = 0
		s.snd.Play(sound.Emergency, false)
	}
	zap.S().Debugf("brake: valve %s", v)
}

// Update advances the pneumatics by one tick.
func (s *System) Update() {
	switch s.st.Valve {
	case state.Apply:
		s.Red += applyRate
		if s.Red >= MaxCylinderPressure {
			s.Red = MaxCylinderPressure
			s.snd.Stop(sound.Apply)
		} else {
			s.snd.Play(sound.Apply, true)
			// Air moved into the cylinder came out of the reservoir.
			s.Black -= applyDrop
		}
		if s.Black < 0 {
			s.Black = 0
		}
		s.PumpAllowed = true
		if s.Extend < maxExtend {
			s.Extend += extendRate
			if s.Extend > maxExtend {
				s.Extend = maxExtend
			}
			s.st.BrakeAcceleration = 0
		} else {
			s.st.BrakeAcceleration = Accel(s.Red)
		}

	case state.Release:
		s.snd.Play(sound.Release, true)
		s.Red -= releaseRate
		s.PumpAllowed = true
		s.st.BrakeAcceleration = 0
		if s.Extend > 0 {
			s.Extend -= extendRate
			if s.Extend < 0 {
				s.Extend = 0
			}
		}
		if s.Red <= 0 {
			s.Red = 0
			s.snd.Stop(sound.Release)
		}

	case state.Lap:
		s.PumpAllowed = true
		if s.Extend < maxExtend {
			s.Extend += extendRate
			if s.Extend > maxExtend {
				s.Extend = maxExtend
			}
			s.st.BrakeAcceleration = 0
		} else {
			s.st.BrakeAcceleration = Accel(s.Red)
		}

	case state.Emergency:
		s.pumpStop()
		// Full emergency braking force regardless of what the cylinder
		// actually holds.
		s.st.BrakeAcceleration = Accel(MaxPressure)

	default:
		panic(fmt.Sprintf("impossible valve position %d", s.st.Valve))
	}

	s.pumpCheck()
}

// pumpCheck runs the compressor: it cuts in once the reservoir has dropped
// to the cut-in pressure and runs until the reservoir is full again.
func (s *System) pumpCheck() {
	if !s.PumpAllowed {
		return
	}
	if s.Black <= pumpUpStart {
		s.setPumping(true)
	}
	if s.Pumping && s.Black < MaxPressure {
		s.Black += pumpUpRate
	}
	if s.Black >= MaxPressure {
		s.Black = MaxPressure
		s.setPumping(false)
	}
}

// pumpStop shuts the compressor down entirely (emergency position).
func (s *System) pumpStop() {
	s.PumpAllowed = false
	s.setPumping(false)
}

func (s *System) setPumping(pumping bool) {
	if s.Pumping == pumping {
		return
	}
	s.Pumping = pumping
	if pumping {
		s.snd.Play(sound.PumpUp, true)
	} else {
		s.snd.Stop(sound.PumpUp)
	}
}
