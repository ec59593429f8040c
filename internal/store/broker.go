package store

import (
	"context"
	"sync"
)

// DefaultEventBuffer is the per-subscriber channel capacity.
const DefaultEventBuffer = 256

// Broker fans events out to subscribers. Publish blocks on a full
// subscriber until that subscriber drains or goes away, so events are never
// dropped or reordered.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	buffer int
}

type subscriber struct {
	ch   chan Event
	done <-chan struct{}
}

// NewBroker creates a broker with the given per-subscriber buffer.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Broker{
		subs:   make(map[int]*subscriber),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber until ctx is done.
func (b *Broker) Subscribe(ctx context.Context) <-chan Event {
	sub := &subscriber{
		ch:   make(chan Event, b.buffer),
		done: ctx.Done(),
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(sub.ch)
		b.mu.Unlock()
	}()

	return sub.ch
}

// Publish delivers ev to every current subscriber.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
		case <-sub.done:
		}
	}
}

// Len returns the number of active subscribers.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
