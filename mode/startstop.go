package mode

import (
	"time"

	"go.uber.org/zap"
	"scrm.ca/trolley/state"
)

// startStop is the intermediate mode: the controller only accelerates, the
// air brake does the stopping, and the prototype operating rules for the
// brake, reverser, deadman, and controller dwell are enforced.
type startStop struct {
	env      *Env
	maxSpeed float64

	// lastRunLevel and runLevelTime track the most recent notch change
	// for the dwell-time rules.
	lastRunLevel int
	runLevelTime time.Time

	central bool
}

func newStartStop(env *Env) Policy {
	return &startStop{env: env}
}

func (s *startStop) Name() string { return "Start/Stop Mode" }

func (s *startStop) SetRun(level int) bool {
	st := s.env.State
	if st.RunLevel != level {
		s.lastRunLevel = st.RunLevel
		s.runLevelTime = s.env.Now()

		if SpeedFor(level) < 0 {
			s.env.Fatal(FatalReservedRun)
			return false
		}

		if level != 0 {
			st.Acceleration = accelFor(level)
			s.maxSpeed = SpeedFor(level)
		} else {
			// Idle: the motor coasts and the brake owns the rest.
			st.Acceleration = 0
		}
	}

	if s.maxSpeed < st.Speed {
		st.Acceleration = 0
		st.Speed = s.maxSpeed
	}
	zap.S().Debugf("start-stop: run %d accel %.3f", level, st.Acceleration)
	return true
}

func (s *startStop) Reset() {
	s.env.State.Reset()
	s.maxSpeed = 0
	s.lastRunLevel = 0
	s.runLevelTime = time.Time{}
	s.central = false
}

func (s *startStop) Update() {
	st := s.env.State

	st.Speed += (st.Acceleration + st.BrakeAcceleration) / tick
	st.Speed *= friction
	if st.Speed < 0 {
		st.Speed = 0
	}

	if st.Acceleration > 0 && st.Speed > s.maxSpeed {
		st.Speed = s.maxSpeed
		st.Acceleration = 0
	}

	updateCentralBell(s.env, &s.central)
}

func (s *startStop) RulesCheck() bool {
	st := s.env.State

	// The deadman must be held while moving or powered.
	if !st.Deadman && (st.Speed != 0 || st.RunLevel != 0) {
		s.env.Fatal(FatalDeadman)
		return false
	}

	// Motor and brake must never fight each other.
	if st.RunLevel != 0 && st.Valve != state.Release {
		s.env.Fatal(FatalBrakesOn)
		return false
	}

	// Power only flows with the reverser in forward.
	if st.RunLevel != 0 && st.Direction != state.Forward {
		s.env.Fatal(FatalNotForward)
		return false
	}

	if st.RunLevel != 0 {
		elapsed := s.env.Now().Sub(s.runLevelTime)
		if st.RunLevel > s.lastRunLevel {
			if elapsed > maxRunTime {
				s.env.Fatal(FatalRunTooLong)
				return false
			}
		} else if elapsed > maxDownTime {
			s.env.Fatal(FatalRunDownTooLong)
			return false
		}
	}

	return true
}
