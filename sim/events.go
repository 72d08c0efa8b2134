package sim

import (
	"fmt"
	"time"

	"scrm.ca/trolley/mode"
)

// Snapshot is the full observable state at one tick, as published to the
// console, the web stream, and the log.
type Snapshot struct {
	RunID string    `json:"run_id"`
	Mode  string    `json:"mode"`
	Time  time.Time `json:"time"`

	Position          float64 `json:"position"`
	Speed             float64 `json:"speed"`
	Acceleration      float64 `json:"acceleration"`
	BrakeAcceleration float64 `json:"brake_acceleration"`

	RunLevel  int    `json:"run_level"`
	Direction string `json:"direction"`
	Valve     string `json:"valve"`
	Deadman   bool   `json:"deadman"`

	CylinderPSI  float64 `json:"cylinder_psi"`
	ReservoirPSI float64 `json:"reservoir_psi"`
	Pumping      bool    `json:"pumping"`
	Extend       float64 `json:"extend"`

	Warnings []string `json:"warnings"`
}

// Event is anything the driver announces to subscribers.
type Event interface {
	fmt.Stringer
}

// TickEvent carries the snapshot for one completed tick.
type TickEvent struct {
	Snapshot Snapshot
}

func (e TickEvent) String() string {
	s := e.Snapshot
	return fmt.Sprintf("run %d pos %.2f speed %.2f acc %.3f brake %.3f cyl %.1f res %.1f",
		s.RunLevel, s.Position, s.Speed, s.Acceleration, s.BrakeAcceleration,
		s.CylinderPSI, s.ReservoirPSI)
}

// WarningEvent is a non-fatal rule violation; All is the run's warning list
// so far.
type WarningEvent struct {
	Message string
	All     []string
}

func (e WarningEvent) String() string { return "warning: " + e.Message }

// FatalEvent is a run-ending violation. The driver has already paused the
// transport and is about to reset.
type FatalEvent struct {
	Kind     mode.FatalKind
	Title    string
	Detail   string
	Warnings []string
}

func (e FatalEvent) String() string { return "fatal: " + e.Kind.String() }

// SuccessEvent reports a completed run, with the accumulated warnings for
// the operator's debrief.
type SuccessEvent struct {
	StoppedAtStore bool
	Warnings       []string
}

func (e SuccessEvent) String() string { return "run complete" }

// ResetEvent announces a fresh run.
type ResetEvent struct {
	RunID string
	Mode  string
}

func (e ResetEvent) String() string { return fmt.Sprintf("reset: run %s (%s)", e.RunID, e.Mode) }
