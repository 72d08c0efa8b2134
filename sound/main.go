// Package sound is the effect sink for the simulator. The core fires
// effects by kind and never waits on them; the beep-backed player is one
// implementation, Null is for headless runs, Recorder is for tests.
package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
)

// Kind enumerates the simulator's sound effects.
type Kind int

const (
	Bell1 Kind = iota
	Bell2
	Bell3
	Apply
	Emergency
	PumpUp
	Release
	ClickClack
	CentralBell
	Zorch
)

func (k Kind) String() string {
	names := [...]string{"bell1", "bell2", "bell3", "apply", "emergency",
		"pump-up", "release", "click-clack", "central-bell", "zorch"}
	if int(k) < 0 || int(k) >= len(names) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return names[k]
}

// files maps each kind to its sample in the sound directory. The three
// bells share one sample so overlapping rings can layer.
var files = map[Kind]string{
	Bell1:       "trolley-bell.mp3",
	Bell2:       "trolley-bell.mp3",
	Bell3:       "trolley-bell.mp3",
	Apply:       "apply.mp3",
	Emergency:   "emergency.mp3",
	PumpUp:      "pump-up-sound.mp3",
	Release:     "release.mp3",
	ClickClack:  "click-clack.mp3",
	CentralBell: "central-bell.mp3",
	Zorch:       "electric-155027.mp3",
}

// Player is the fire-and-forget sound contract. Play is idempotent while
// the kind is already sounding; repeat loops until Stop.
type Player interface {
	Play(k Kind, repeat bool)
	Stop(k Kind)
	// Running reports whether the kind is currently sounding. The bell
	// round-robin uses it to pick a free bell voice.
	Running(k Kind) bool
}

// Null discards all effects.
type Null struct{}

func (Null) Play(Kind, bool)   {}
func (Null) Stop(Kind)         {}
func (Null) Running(Kind) bool { return false }

// Beep plays mp3 samples through the speaker. One streamer runs per kind at
// a time; Play while running is a no-op, matching the Player contract.
type Beep struct {
	mu      sync.Mutex
	buffers map[Kind]*beep.Buffer
	active  map[Kind]*beep.Ctrl
}

// LoadBeep decodes every sample in dir and initialises the speaker from the
// first sample's format. All samples are expected at the same rate.
func LoadBeep(dir string) (*Beep, error) {
	b := &Beep{
		buffers: make(map[Kind]*beep.Buffer, len(files)),
		active:  make(map[Kind]*beep.Ctrl),
	}
	inited := false
	for kind, name := range files {
		if _, ok := b.buffers[kind]; ok {
			continue
		}
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("sound %s: %w", kind, err)
		}
		streamer, format, err := mp3.Decode(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sound %s: decode: %w", kind, err)
		}
		if !inited {
			err = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
			if err != nil {
				streamer.Close()
				return nil, fmt.Errorf("speaker init: %w", err)
			}
			inited = true
		}
		buf := beep.NewBuffer(format)
		buf.Append(streamer)
		streamer.Close()
		b.buffers[kind] = buf
		// Share the decoded bell sample across the three bell voices.
		if name == files[Bell1] {
			for _, bell := range []Kind{Bell1, Bell2, Bell3} {
				b.buffers[bell] = buf
			}
		}
	}
	return b, nil
}

func (b *Beep) Play(k Kind, repeat bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.active[k]; ok {
		return
	}
	buf, ok := b.buffers[k]
	if !ok {
		return
	}
	var s beep.Streamer
	if repeat {
		s = beep.Loop(-1, buf.Streamer(0, buf.Len()))
	} else {
		s = beep.Seq(buf.Streamer(0, buf.Len()), beep.Callback(func() {
			b.mu.Lock()
			delete(b.active, k)
			b.mu.Unlock()
		}))
	}
	ctrl := &beep.Ctrl{Streamer: s}
	b.active[k] = ctrl
	speaker.Play(ctrl)
}

func (b *Beep) Stop(k Kind) {
	b.mu.Lock()
	ctrl, ok := b.active[k]
	if ok {
		delete(b.active, k)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	speaker.Lock()
	ctrl.Streamer = nil
	speaker.Unlock()
}

func (b *Beep) Running(k Kind) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.active[k]
	return ok
}

// Call is one recorded Play or Stop.
type Call struct {
	Kind   Kind
	Repeat bool
	Stop   bool
}

// Recorder is a Player for tests: it logs every call (including Plays the
// real player would coalesce) and tracks running state the way the real
// player does (Play marks running, Stop clears it).
type Recorder struct {
	mu    sync.Mutex
	Calls []Call
	state map[Kind]bool
}

func (r *Recorder) Play(k Kind, repeat bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		r.state = make(map[Kind]bool)
	}
	r.state[k] = true
	r.Calls = append(r.Calls, Call{Kind: k, Repeat: repeat})
}

func (r *Recorder) Stop(k Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		r.state = make(map[Kind]bool)
	}
	r.state[k] = false
	r.Calls = append(r.Calls, Call{Kind: k, Stop: true})
}

func (r *Recorder) Running(k Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state[k]
}

// Played reports whether a Play of kind k was recorded.
func (r *Recorder) Played(k Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Calls {
		if !c.Stop && c.Kind == k {
			return true
		}
	}
	return false
}

// PlayCount returns the number of recorded Play calls for kind k.
func (r *Recorder) PlayCount(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if !c.Stop && c.Kind == k {
			n++
		}
	}
	return n
}
