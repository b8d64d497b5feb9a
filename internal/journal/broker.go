package journal

import (
	"sync"
	"sync/atomic"
)

const subscriberBufSize = 256

// Event is one published decision, already encoded.
type Event struct {
	Kind    string
	Payload string
}

type subscriber struct {
	ch    chan Event
	kinds map[string]bool // nil accepts every kind
}

func (s subscriber) wants(kind string) bool {
	return s.kinds == nil || s.kinds[kind]
}

// Broker fans decisions out to feed subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event and the drop is counted.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int64]subscriber
	nextID atomic.Int64
	drops  atomic.Uint64
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int64]subscriber)}
}

// Subscribe registers a feed client for the given kinds, or all kinds when
// none are given.
func (b *Broker) Subscribe(kinds ...string) (int64, <-chan Event) {
	sub := subscriber{ch: make(chan Event, subscriberBufSize)}
	if len(kinds) > 0 {
		sub.kinds = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}
	id := b.nextID.Add(1)
	b.mu.Lock()
	b.subs[id] = sub
	b.mu.Unlock()
	return id, sub.ch
}

// Unsubscribe closes the client's channel. Unknown IDs are ignored.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

func (b *Broker) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.wants(evt.Kind) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			b.drops.Add(1)
		}
	}
}

// ClientCount returns the number of connected feed clients.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped for full buffers.
func (b *Broker) Dropped() uint64 {
	return b.drops.Load()
}
