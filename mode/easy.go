package mode

import (
	"go.uber.org/zap"
)

// slowDownAccel is the fixed deceleration Easy mode applies when the
// operator notches below the current speed.
const slowDownAccel = -0.5

// easy is the introductory mode: the controller both accelerates and slows
// the car, the brake does nothing, and only the deadman is enforced.
type easy struct {
	env      *Env
	maxSpeed float64
	central  bool
}

func newEasy(env *Env) Policy {
	return &easy{env: env}
}

func (e *easy) Name() string { return "Easy Mode" }

func (e *easy) SetRun(level int) bool {
	st := e.env.State
	if level == st.RunLevel {
		return true
	}

	e.maxSpeed = SpeedFor(level)
	if level == 0 {
		e.maxSpeed = 0
	}

	// The recording is unusable below MinSpeed, so starts snap up to it.
	if level > 0 && st.Speed < MinSpeed {
		st.Speed = MinSpeed
	}

	if st.Speed > e.maxSpeed {
		st.Acceleration = slowDownAccel
	} else {
		st.Acceleration = accelFor(level)
	}
	zap.S().Debugf("easy: run %d ceiling %.2f accel %.3f", level, e.maxSpeed, st.Acceleration)
	return true
}

func (e *easy) Reset() {
	e.maxSpeed = 0
	e.central = false
	e.env.State.Reset()
}

func (e *easy) Update() {
	st := e.env.State
	st.Speed += st.Acceleration / tick

	if st.Acceleration > 0 {
		if st.Speed > e.maxSpeed {
			st.Acceleration = 0
			st.Speed = e.maxSpeed
		}
	} else {
		if st.Speed < 0 {
			st.Acceleration = 0
			st.Speed = 0
		}
	}

	updateCentralBell(e.env, &e.central)
}

func (e *easy) RulesCheck() bool {
	st := e.env.State
	if !st.Deadman && (st.Speed != 0 || st.RunLevel != 0) {
		e.env.Fatal(FatalDeadman)
		return false
	}
	return true
}
