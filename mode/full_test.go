package mode

import (
	"testing"
	"time"

	"scrm.ca/trolley/sound"
)

// moveOff transitions the car from rest to moving across one tick so the
// start-signal edge fires on the next RulesCheck.
func moveOff(r *rig, p Policy) {
	p.Update() // baseline: last and current both at rest
	r.st.Speed = 1.0
	p.Update()
	p.RulesCheck()
}

// stopCar transitions the car from moving to rest, arming the stop-signal
// check.
func stopCar(r *rig, p Policy) {
	r.st.Speed = 0
	p.Update()
	p.RulesCheck()
}

func TestFullStartSignal(t *testing.T) {
	const missing = "Started moving without sounding start signal"
	const tooClose = "Start signal is ding-ding not ding-wait-ding"

	tests := []struct {
		name  string
		dings []time.Duration // ding ages before moving off
		want  map[string]int
	}{
		{"no signal", nil, map[string]int{missing: 1}},
		{"one ding", []time.Duration{time.Second}, map[string]int{missing: 1}},
		{"good signal", []time.Duration{3 * time.Second, 2 * time.Second}, map[string]int{}},
		{"stale signal", []time.Duration{15 * time.Second, 12 * time.Second}, map[string]int{missing: 1}},
		{"dings too far apart", []time.Duration{8 * time.Second, 2 * time.Second}, map[string]int{tooClose: 1}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := newRig(t)
			r.driving()
			p := New(Full, r.env)
			for _, age := range test.dings {
				r.dings.Add(r.now.Add(-age), r.pos)
			}
			moveOff(r, p)
			for _, msg := range []string{missing, tooClose} {
				if got := r.warnCount(msg); got != test.want[msg] {
					t.Errorf("warning %q seen %d times, want %d", msg, got, test.want[msg])
				}
			}
		})
	}
}

func TestFullStopSignal(t *testing.T) {
	const none = "No stop signal"
	const slow = "Stop signal too slow or missing"
	const confused = "Stop signal confused with other signals"

	t.Run("timely single ding passes", func(t *testing.T) {
		r := newRig(t)
		r.driving()
		p := New(Full, r.env)
		moveOff(r, p)
		stopCar(r, p)
		r.advance(time.Second)
		r.dings.Add(r.now, r.pos)
		p.RulesCheck()
		for _, msg := range []string{none, slow, confused} {
			if r.warnCount(msg) != 0 {
				t.Errorf("unexpected warning %q", msg)
			}
		}
	})

	t.Run("no ding at all", func(t *testing.T) {
		r := newRig(t)
		r.driving()
		p := New(Full, r.env)
		moveOff(r, p)
		stopCar(r, p)
		r.advance(stopCheckAfter)
		p.RulesCheck()
		if r.warnCount(none) != 1 {
			t.Errorf("warning %q seen %d times, want 1", none, r.warnCount(none))
		}
	})

	t.Run("only a stale ding", func(t *testing.T) {
		r := newRig(t)
		r.driving()
		p := New(Full, r.env)
		r.dings.Add(r.now.Add(-20*time.Second), r.pos)
		moveOff(r, p)
		stopCar(r, p)
		r.advance(stopCheckAfter)
		p.RulesCheck()
		if r.warnCount(slow) != 1 {
			t.Errorf("warning %q seen %d times, want 1", slow, r.warnCount(slow))
		}
	})

	t.Run("double ding reads as another signal", func(t *testing.T) {
		r := newRig(t)
		r.driving()
		p := New(Full, r.env)
		moveOff(r, p)
		stopCar(r, p)
		r.advance(500 * time.Millisecond)
		r.dings.Add(r.now, r.pos)
		r.advance(500 * time.Millisecond)
		r.dings.Add(r.now, r.pos)
		r.advance(200 * time.Millisecond)
		p.RulesCheck()
		if r.warnCount(confused) != 1 {
			t.Errorf("warning %q seen %d times, want 1", confused, r.warnCount(confused))
		}
	})

	t.Run("check resolves once", func(t *testing.T) {
		r := newRig(t)
		r.driving()
		p := New(Full, r.env)
		moveOff(r, p)
		stopCar(r, p)
		r.advance(stopCheckAfter)
		p.RulesCheck()
		r.advance(time.Second)
		p.RulesCheck()
		if r.warnCount(none) != 1 {
			t.Errorf("warning %q seen %d times, want 1", none, r.warnCount(none))
		}
	})
}

func TestFullCrossings(t *testing.T) {
	const missed = "Failed to sound bell crossing Broadway north"

	t.Run("missed crossing warns once", func(t *testing.T) {
		r := newRig(t)
		r.driving()
		p := New(Full, r.env)
		r.st.Speed = 1.0
		p.Update()
		r.pos = 0.16 // past the Broadway north window with no dings
		p.RulesCheck()
		p.RulesCheck()
		if r.warnCount(missed) != 1 {
			t.Errorf("warning seen %d times, want 1", r.warnCount(missed))
		}
	})

	t.Run("three dings satisfy the crossing", func(t *testing.T) {
		r := newRig(t)
		r.driving()
		p := New(Full, r.env)
		r.st.Speed = 1.0
		p.Update()
		for i := 0; i < 3; i++ {
			r.dings.Add(r.now, 0.13)
			r.advance(time.Second)
		}
		r.pos = 0.16
		p.RulesCheck()
		if r.warnCount(missed) != 0 {
			t.Error("warned despite three dings in the window")
		}
	})

	t.Run("two dings are not enough", func(t *testing.T) {
		r := newRig(t)
		r.driving()
		p := New(Full, r.env)
		r.st.Speed = 1.0
		p.Update()
		r.dings.Add(r.now, 0.13)
		r.dings.Add(r.now, 0.14)
		r.pos = 0.16
		p.RulesCheck()
		if r.warnCount(missed) != 1 {
			t.Errorf("warning seen %d times, want 1", r.warnCount(missed))
		}
	})
}

func TestFullScheduledStops(t *testing.T) {
	const missed = "Failed stop at Broadway"

	t.Run("stop in the window", func(t *testing.T) {
		r := newRig(t)
		r.driving()
		p := New(Full, r.env)
		r.pos = 0.10
		p.Update() // at rest inside the window marks the stop done
		p.RulesCheck()
		r.st.Speed = 1.0
		p.Update()
		r.pos = 0.2
		p.RulesCheck()
		if r.warnCount(missed) != 0 {
			t.Error("warned despite stopping in the window")
		}
	})

	t.Run("rolled through", func(t *testing.T) {
		r := newRig(t)
		r.driving()
		p := New(Full, r.env)
		r.st.Speed = 1.0
		p.Update()
		r.pos = 0.13
		p.RulesCheck()
		p.RulesCheck()
		if r.warnCount(missed) != 1 {
			t.Errorf("warning seen %d times, want 1", r.warnCount(missed))
		}
	})
}

func TestFullDeadSections(t *testing.T) {
	r := newRig(t)
	r.driving()
	p := New(Full, r.env)
	p.SetRun(1)
	r.st.RunLevel = 1
	r.st.Speed = 1.0
	p.Update()

	r.pos = 0.71 // inside the Carbarn1 lead dead section
	p.RulesCheck()
	p.RulesCheck()
	p.RulesCheck()

	if got := r.warnCount("Zorched Carbarn1 lead"); got != 1 {
		t.Errorf("zorch warning seen %d times, want 1", got)
	}
	// The arc crackles every tick the power stays on.
	if got := r.snd.PlayCount(sound.Zorch); got != 3 {
		t.Errorf("zorch sound played %d times, want 3", got)
	}
}

func TestFullCoastingThroughDeadSectionIsFine(t *testing.T) {
	r := newRig(t)
	r.driving()
	p := New(Full, r.env)
	r.st.Speed = 1.0
	p.Update()

	r.pos = 0.71
	p.RulesCheck()
	if got := r.warnCount("Zorched Carbarn1 lead"); got != 0 {
		t.Error("zorch warning while coasting")
	}
	if r.snd.Played(sound.Zorch) {
		t.Error("zorch sound while coasting")
	}
}

func TestFullCompletion(t *testing.T) {
	r := newRig(t)
	r.driving()
	p := New(Full, r.env)
	r.st.Speed = 1.0
	p.Update()

	r.pos = 0.96
	if !p.RulesCheck() {
		t.Fatal("RulesCheck ended the run while still moving")
	}
	if r.successes != 0 {
		t.Fatal("success before stopping")
	}

	r.st.Speed = 0
	p.Update()
	if p.RulesCheck() {
		t.Error("RulesCheck continued past a completed run")
	}
	if r.successes != 1 {
		t.Errorf("successes = %d, want 1", r.successes)
	}
}

func TestFullBasicRulesStillApply(t *testing.T) {
	r := newRig(t)
	r.driving()
	p := New(Full, r.env)
	p.SetRun(1)
	r.st.RunLevel = 1
	r.st.Deadman = false
	if p.RulesCheck() {
		t.Fatal("RulesCheck passed with deadman released")
	}
	if len(r.fatals) != 1 || r.fatals[0] != FatalDeadman {
		t.Errorf("fatals = %v, want [deadman-released]", r.fatals)
	}
}
