package notify

import (
	"sync"
	"time"
)

// Event describes one delivery outcome, pushed to websocket subscribers.
type Event struct {
	ContractID int64     `json:"contract_id,omitempty"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail"`
	Timestamp  time.Time `json:"timestamp"`
}

// Broadcaster fans delivery outcomes out to any number of subscribers.
// Slow subscribers drop events rather than block the gateway.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel function must be
// called when the subscriber goes away.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers without blocking.
func (b *Broadcaster) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
