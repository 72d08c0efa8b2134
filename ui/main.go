// Package ui is the operator console: a terminal front panel with the two
// brake needles, the controls readout, and the run report, plus the key
// bindings that stand in for the car's controls.
//
// Keys: 0-8 controller notch, f/n/v reverser, a/r/l/e brake valve, space
// deadman, d bell, m cycle mode, R restart, q quit.
package ui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"scrm.ca/trolley/brake"
	"scrm.ca/trolley/mode"
	"scrm.ca/trolley/sim"
	"scrm.ca/trolley/state"
)

const help = "[0-8] run  [f/n/v] reverser  [a/r/l/e] valve  [space] deadman  [d] bell  [m] mode  [R] restart  [q] quit"

type console struct {
	driver *sim.Driver
	latest sim.Snapshot

	status    *widgets.Paragraph
	cylinder  *widgets.Gauge
	reservoir *widgets.Gauge
	report    *widgets.Paragraph
}

// Run owns the terminal until ctx is done or the operator quits.
func Run(ctx context.Context, d *sim.Driver) error {
	if err := termui.Init(); err != nil {
		return fmt.Errorf("termui init: %w", err)
	}
	defer termui.Close()

	c := &console{driver: d}
	c.build()
	c.render()

	ch := make(chan sim.Event, 16)
	d.Events().Subscribe("console", ch)
	defer d.Events().Unsubscribe(ch)

	uiEvents := termui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-ch:
			c.handleSim(e)
			c.render()
		case e := <-uiEvents:
			if e.Type != termui.KeyboardEvent {
				continue
			}
			if c.handleKey(e.ID) {
				return nil
			}
			c.render()
		}
	}
}

func (c *console) build() {
	c.status = widgets.NewParagraph()
	c.status.Title = "trolley"
	c.status.SetRect(0, 0, 60, 8)

	c.cylinder = widgets.NewGauge()
	c.cylinder.Title = "cylinder (red)"
	c.cylinder.SetRect(60, 0, 100, 4)
	c.cylinder.BarColor = termui.ColorRed

	c.reservoir = widgets.NewGauge()
	c.reservoir.Title = "reservoir (black)"
	c.reservoir.SetRect(60, 4, 100, 8)
	c.reservoir.BarColor = termui.ColorWhite

	c.report = widgets.NewParagraph()
	c.report.Title = "report"
	c.report.Text = help
	c.report.SetRect(0, 8, 100, 16)
}

func (c *console) render() {
	s := c.latest
	deadman := "RELEASED"
	if s.Deadman {
		deadman = "held"
	}
	c.status.Text = fmt.Sprintf(
		"mode  %s\npos   %.3f   speed %.3f\nrun   %d       reverser %s\nvalve %s\ndeadman %s",
		s.Mode, s.Position, s.Speed, s.RunLevel, s.Direction, s.Valve, deadman)

	c.cylinder.Percent = percentOf(s.CylinderPSI, brake.MaxCylinderPressure)
	c.cylinder.Label = fmt.Sprintf("%.1f psi (%.0f°)", s.CylinderPSI, brake.AngleOf(s.CylinderPSI))
	c.reservoir.Percent = percentOf(s.ReservoirPSI, brake.MaxPressure)
	c.reservoir.Label = fmt.Sprintf("%.1f psi (%.0f°)", s.ReservoirPSI, brake.AngleOf(s.ReservoirPSI))
	if s.Pumping {
		c.reservoir.Label += " pumping"
	}

	termui.Render(c.status, c.cylinder, c.reservoir, c.report)
}

func percentOf(v, max float64) int {
	p := int(v / max * 100)
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p
}

func (c *console) handleSim(e sim.Event) {
	switch e := e.(type) {
	case sim.TickEvent:
		c.latest = e.Snapshot
	case sim.WarningEvent:
		c.report.Text = fmt.Sprintf("WARNING: %s\n\n%s", e.Message, help)
	case sim.FatalEvent:
		c.report.Text = fmt.Sprintf("%s\n%s\n(run over, %d warnings)\n\n%s",
			e.Title, e.Detail, len(e.Warnings), help)
	case sim.SuccessEvent:
		c.report.Text = fmt.Sprintf("Run complete! Stopped at the store with %d warnings.\n\n%s",
			len(e.Warnings), help)
	case sim.ResetEvent:
		c.latest = sim.Snapshot{Mode: e.Mode, RunID: e.RunID}
	}
}

// handleKey applies one keypress; true means quit.
func (c *console) handleKey(id string) bool {
	switch id {
	case "q", "<C-c>":
		return true
	case "f":
		c.driver.SetDirection(state.Forward)
	case "n":
		c.driver.SetDirection(state.Neutral)
	case "v":
		c.driver.SetDirection(state.Reverse)
	case "a":
		c.driver.SetBrakeValve(state.Apply)
	case "r":
		c.driver.SetBrakeValve(state.Release)
	case "l":
		c.driver.SetBrakeValve(state.Lap)
	case "e":
		c.driver.SetBrakeValve(state.Emergency)
	case "<Space>":
		c.driver.SetDeadman(!c.latest.Deadman)
		// Reflect the pedal immediately instead of a tick later.
		c.latest.Deadman = !c.latest.Deadman
	case "d":
		c.driver.Ding()
	case "m":
		c.driver.SetMode(nextMode(c.driver.Mode()))
	case "R":
		c.driver.Restart()
	default:
		if n, err := strconv.Atoi(id); err == nil && n >= 0 && n <= state.MaxRunLevel {
			c.driver.SetRun(n)
		}
	}
	return false
}

func nextMode(k mode.Kind) mode.Kind {
	switch k {
	case mode.Easy:
		return mode.StartStop
	case mode.StartStop:
		return mode.Full
	default:
		return mode.Easy
	}
}
