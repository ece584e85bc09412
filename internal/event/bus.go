package event

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Bus is an in-process publish/subscribe channel for one stream of events.
// Every subscriber receives every event published while it is subscribed,
// in publish order. Delivery is asynchronous: Publish never waits for a
// subscriber to read, and slow subscribers are queued, not dropped.
type Bus[T any] struct {
	name string

	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscription[T]
	closed bool

	published atomic.Int64
}

// Subscription is a handle on a Bus. Read events from C; release it with
// Close. C is closed once the subscription is released.
type Subscription[T any] struct {
	ID uuid.UUID
	C  <-chan T

	bus  *Bus[T]
	in   chan T
	out  chan T
	quit chan struct{}
	once sync.Once
}

// Stats is a snapshot of bus activity.
type Stats struct {
	Name        string
	Subscribers int
	Published   int64
}

const subscriptionInbox = 16

// NewBus creates a bus. name is used in logs only.
func NewBus[T any](name string) *Bus[T] {
	return &Bus[T]{
		name: name,
		subs: make(map[uuid.UUID]*Subscription[T]),
	}
}

// Subscribe registers a new subscriber. Subscribing to a closed bus returns
// a subscription whose channel is already closed.
func (b *Bus[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		ID:   uuid.New(),
		bus:  b,
		in:   make(chan T, subscriptionInbox),
		out:  make(chan T),
		quit: make(chan struct{}),
	}
	sub.C = sub.out

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.stop()
		close(sub.out)
		return sub
	}
	b.subs[sub.ID] = sub
	count := len(b.subs)
	b.mu.Unlock()

	go sub.pump()

	slog.Debug("Bus: new subscription",
		slog.String("bus", b.name),
		slog.Int("total_subs", count))
	return sub
}

// Unsubscribe releases sub. Safe to call more than once.
func (b *Bus[T]) Unsubscribe(sub *Subscription[T]) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	delete(b.subs, sub.ID)
	b.mu.Unlock()
	sub.stop()
}

// Publish fans v out to every current subscriber.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	b.published.Add(1)

	for _, sub := range b.subs {
		select {
		case sub.in <- v:
		case <-sub.quit:
		}
	}
}

// Subscribers returns the current fan-out size.
func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Stats returns bus statistics.
func (b *Bus[T]) Stats() Stats {
	return Stats{
		Name:        b.name,
		Subscribers: b.Subscribers(),
		Published:   b.published.Load(),
	}
}

// Close releases every subscription. Later publishes are ignored.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[uuid.UUID]*Subscription[T])
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

// Close releases the subscription.
func (s *Subscription[T]) Close() {
	s.bus.Unsubscribe(s)
}

func (s *Subscription[T]) stop() {
	s.once.Do(func() { close(s.quit) })
}

// pump moves events from the bounded inbox into an unbounded queue so a
// slow reader never blocks Publish for long and never loses an event.
func (s *Subscription[T]) pump() {
	defer close(s.out)

	var queue []T
	for {
		var (
			out  chan T
			next T
		)
		if len(queue) > 0 {
			out = s.out
			next = queue[0]
		}

		select {
		case <-s.quit:
			return
		case v := <-s.in:
			queue = append(queue, v)
		case out <- next:
			var zero T
			queue[0] = zero
			queue = queue[1:]
		}
	}
}
