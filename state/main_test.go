package state

import (
	"testing"
	"time"
)

func TestDingLog(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var l DingLog
	if l.Len() != 0 {
		t.Fatalf("empty log has Len %d", l.Len())
	}
	l.Add(base, 0.10)
	l.Add(base.Add(1*time.Second), 0.13)
	l.Add(base.Add(2*time.Second), 0.41)

	if l.Len() != 3 {
		t.Errorf("Len = %d, want 3", l.Len())
	}
	if got := l.Last(1); got.Position != 0.41 {
		t.Errorf("Last(1).Position = %v, want 0.41", got.Position)
	}
	if got := l.Last(3); got.Position != 0.10 {
		t.Errorf("Last(3).Position = %v, want 0.10", got.Position)
	}

	tests := []struct {
		start, end float64
		want       int
	}{
		{0, 1, 3},
		{0.12, 0.15, 1},
		{0.10, 0.13, 2},
		{0.5, 0.6, 0},
	}
	for _, test := range tests {
		if got := l.CountBetween(test.start, test.end); got != test.want {
			t.Errorf("CountBetween(%v, %v) = %d, want %d", test.start, test.end, got, test.want)
		}
	}

	l.Reset()
	if l.Len() != 0 {
		t.Errorf("Len after Reset = %d", l.Len())
	}
}

func TestTrolleyReset(t *testing.T) {
	tr := &Trolley{
		RunLevel:          2,
		Direction:         Forward,
		Valve:             Release,
		Deadman:           true,
		Speed:             1.5,
		Acceleration:      0.1,
		BrakeAcceleration: -0.1,
	}
	tr.Reset()
	want := Trolley{Direction: Neutral, Valve: Apply}
	if *tr != want {
		t.Errorf("Reset = %+v, want %+v", *tr, want)
	}
}
