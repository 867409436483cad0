package events

import "sync"

// RunEvent is published when a run reaches a terminal status.
type RunEvent struct {
	RunID      string `json:"run_id"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	OutputName string `json:"output_name,omitempty"`
	Deleted    int    `json:"deleted,omitempty"`
}

// Bus provides in-process pub/sub for run events. Slow subscribers drop
// events rather than blocking the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[chan RunEvent]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan RunEvent]struct{})}
}

func (b *Bus) Subscribe() chan RunEvent {
	ch := make(chan RunEvent, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	return ch
}

func (b *Bus) Unsubscribe(ch chan RunEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, ch)
}

func (b *Bus) Publish(ev RunEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
