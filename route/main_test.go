package route

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default route invalid: %s", err)
	}
}

func TestLoadOverridesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "route.yaml")
	data := `
stops:
  - name: Depot
    start: 0.1
    end: 0.2
store: 0.9
crossing_dings: 2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %s", err)
	}
	wantStops := []Window{{Name: "Depot", Start: 0.1, End: 0.2}}
	if !cmp.Equal(r.Stops, wantStops) {
		t.Errorf("stops diff: %s", cmp.Diff(wantStops, r.Stops))
	}
	if r.Store != 0.9 {
		t.Errorf("store = %v, want 0.9", r.Store)
	}
	if r.CrossingDings != 2 {
		t.Errorf("crossing dings = %d, want 2", r.CrossingDings)
	}
	// Fields absent from the file keep the built-in geometry.
	if !cmp.Equal(r.Crossings, Default().Crossings) {
		t.Errorf("crossings diff: %s", cmp.Diff(Default().Crossings, r.Crossings))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Route)
	}{
		{"unnamed stop", func(r *Route) { r.Stops[0].Name = "" }},
		{"inverted window", func(r *Route) { r.Crossings[0].Start, r.Crossings[0].End = r.Crossings[0].End, r.Crossings[0].Start }},
		{"window past end", func(r *Route) { r.Dead[0].End = 1.5 }},
		{"store at zero", func(r *Route) { r.Store = 0 }},
		{"end before store", func(r *Route) { r.EndOfRun = r.Store - 0.01 }},
		{"no crossing dings", func(r *Route) { r.CrossingDings = 0 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := Default()
			test.mutate(r)
			if err := r.Validate(); err == nil {
				t.Errorf("Validate accepted %s", test.name)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Name: "x", Start: 0.2, End: 0.4}
	for _, test := range []struct {
		pos  float64
		want bool
	}{
		{0.1, false}, {0.2, true}, {0.3, true}, {0.4, true}, {0.41, false},
	} {
		if got := w.Contains(test.pos); got != test.want {
			t.Errorf("Contains(%v) = %v, want %v", test.pos, got, test.want)
		}
	}
}
