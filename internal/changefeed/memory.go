package changefeed

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Publisher+Feed for single-node deployments and
// tests. Semantics match RedisBus: fan-out to all matching subscribers,
// drop-on-slow rather than block the write path.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[int]*memorySub
	next int
}

type memorySub struct {
	table  string
	filter string
	ch     chan Event
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]*memorySub)}
}

func (b *MemoryBus) Publish(_ context.Context, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if !ev.Matches(sub.table, sub.filter) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Subscriber is not keeping up; it will catch up on the next event.
		}
	}
}

func (b *MemoryBus) Subscribe(_ context.Context, table, filter string) (<-chan Event, func(), error) {
	sub := &memorySub{table: table, filter: filter, ch: make(chan Event, 16)}

	b.mu.Lock()
	key := b.next
	b.next++
	b.subs[key] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[key]; ok {
			delete(b.subs, key)
			close(sub.ch)
		}
	}
	return sub.ch, cancel, nil
}
