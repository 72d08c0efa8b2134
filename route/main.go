// Package route describes the recorded run: where the scheduled stops,
// grade crossings, dead (no-power) sections, and the automatic crossing
// bell sit along the route, as fractions 0..1 of the recording.
//
// Routes load from YAML so a new recording only needs a new route file;
// Default is the museum loop the simulator ships with.
package route

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Window is a position interval along the route.
type Window struct {
	Name  string  `yaml:"name"`
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// Contains reports whether pos lies inside the window.
func (w Window) Contains(pos float64) bool {
	return pos >= w.Start && pos <= w.End
}

// Route is the full rule geometry for one recording.
type Route struct {
	// Stops are the scheduled stops; the car must come to rest inside
	// each window.
	Stops []Window `yaml:"stops"`
	// Crossings are grade crossings; the bell must sound at least
	// CrossingDings times inside each window.
	Crossings []Window `yaml:"crossings"`
	// Dead are the no-power sections; drawing power inside one is a
	// "zorch" violation.
	Dead []Window `yaml:"dead"`
	// CentralBell is where the automatic crossing bell sounds.
	CentralBell Window `yaml:"central_bell"`

	// Store is where the run ends: past this position, standing still
	// completes the run.
	Store float64 `yaml:"store"`
	// EndOfRun is where the recording runs out; passing it moving is a
	// failure to stop.
	EndOfRun float64 `yaml:"end_of_run"`

	// CrossingDings is the bell count required per crossing.
	CrossingDings int `yaml:"crossing_dings"`
}

// Default returns the museum loop geometry.
func Default() *Route {
	return &Route{
		Stops: []Window{
			{Name: "Broadway", Start: 0.09, End: 0.12},
			{Name: "Carbarn 2", Start: 0.58, End: 0.61},
			{Name: "Thomas", Start: 0.87, End: 0.93},
		},
		Crossings: []Window{
			{Name: "Broadway north", Start: 0.12, End: 0.15},
			{Name: "Central", Start: 0.39, End: 0.42},
			{Name: "Broadway South", Start: 0.70, End: 0.75},
		},
		Dead: []Window{
			{Name: "Carbarn1 lead", Start: 0.70, End: 0.73},
			{Name: "Main line spur", Start: 0.77, End: 0.79},
		},
		CentralBell:   Window{Name: "Central", Start: 0.36, End: 0.45},
		Store:         0.95,
		EndOfRun:      0.98,
		CrossingDings: 3,
	}
}

// Load reads a route file and validates it.
func Load(path string) (*Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route: %w", err)
	}
	r := Default()
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parse route: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("route %s: %w", path, err)
	}
	return r, nil
}

// Validate checks every window sits inside the recording and is well
// formed.
func (r *Route) Validate() error {
	check := func(class string, ws []Window) error {
		for _, w := range ws {
			if w.Name == "" {
				return fmt.Errorf("%s window without a name", class)
			}
			if w.Start < 0 || w.End > 1 || w.Start > w.End {
				return fmt.Errorf("%s %q: bad window [%v, %v]", class, w.Name, w.Start, w.End)
			}
		}
		return nil
	}
	if err := check("stop", r.Stops); err != nil {
		return err
	}
	if err := check("crossing", r.Crossings); err != nil {
		return err
	}
	if err := check("dead", r.Dead); err != nil {
		return err
	}
	if err := check("central bell", []Window{r.CentralBell}); err != nil {
		return err
	}
	if r.Store <= 0 || r.Store >= 1 {
		return fmt.Errorf("store position %v outside (0, 1)", r.Store)
	}
	if r.EndOfRun <= r.Store || r.EndOfRun > 1 {
		return fmt.Errorf("end of run %v must lie past the store, within the recording", r.EndOfRun)
	}
	if r.CrossingDings < 1 {
		return fmt.Errorf("crossing ding count %d", r.CrossingDings)
	}
	return nil
}
