// Package progress is an in-process pub/sub for export progress events.
// Exports run inside this process, so there is no external broker; WebSocket
// clients subscribe per plan and receive every percentage the compiler emits.
package progress

import "sync"

// Event is one progress frame for an export.
type Event struct {
	PlanID  string  `json:"plan_id"`
	Percent float64 `json:"percent"`
	State   string  `json:"state"` // "rendering" | "done" | "failed"
	Error   string  `json:"error,omitempty"`
}

// Broker fans events out to subscribers keyed by plan ID. Slow subscribers
// drop frames rather than block the compiler.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers for events on a plan. The returned cancel function must
// be called to release the channel.
func (b *Broker) Subscribe(planID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	if b.subs[planID] == nil {
		b.subs[planID] = make(map[chan Event]struct{})
	}
	b.subs[planID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		set, ok := b.subs[planID]
		if !ok {
			return
		}
		if _, ok := set[ch]; !ok {
			return
		}
		delete(set, ch)
		if len(set) == 0 {
			delete(b.subs, planID)
		}
		// Publish sends only under the read lock, so closing here cannot
		// race a concurrent send.
		close(ch)
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its plan, dropping the
// frame for any subscriber whose buffer is full.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[ev.PlanID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
