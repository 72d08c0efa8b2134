// Package notify fans events out to subscribers (console, web, logger).
// Delivery is in publish order per subscriber; a subscriber that stalls
// past the timeout has that event dropped rather than stalling the tick.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const sendTimeout = 200 * time.Millisecond

type subscriber[E any] struct {
	ch   chan E
	name string
}

// Mux is a named event fan-out. The zero value is not usable; use New.
type Mux[E any] struct {
	name string

	mu   sync.Mutex
	subs []subscriber[E]
}

func New[E any](name string) *Mux[E] {
	return &Mux[E]{name: name}
}

// Subscribe registers ch under a name used in drop diagnostics. The caller
// owns ch and must keep draining it until Unsubscribe returns.
func (m *Mux[E]) Subscribe(name string, ch chan E) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, subscriber[E]{ch: ch, name: name})
}

// Unsubscribe removes ch. It panics if ch was never subscribed, which is
// always a caller bug.
func (m *Mux[E]) Unsubscribe(ch chan E) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.subs, func(s subscriber[E]) bool { return s.ch == ch })
	if i == -1 {
		panic("notify: unsubscribe of channel that is not subscribed")
	}
	m.subs = slices.Delete(m.subs, i, i+1)
}

// Send delivers e to every subscriber in subscription order. A full
// subscriber gets sendTimeout to catch up, then the event is dropped for
// that subscriber only.
func (m *Mux[E]) Send(e E) {
	m.mu.Lock()
	subs := slices.Clone(m.subs)
	m.mu.Unlock()
	for _, sub := range subs {
		select {
		case sub.ch <- e:
		default:
			select {
			case sub.ch <- e:
			case <-time.After(sendTimeout):
				zap.S().Warnf("notify %s: dropped event for slow subscriber %s", m.name, sub.name)
			}
		}
	}
}
