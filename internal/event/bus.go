// Package event routes matching notifications from order books to their
// subscribers. Delivery is synchronous inside the publishing call, so the
// events for one submission reach every subscriber in matching order.
package event

import (
	"sync"

	"go.uber.org/zap"

	"order-matching/internal/book"
)

// Subscriber consumes order events. Handlers run on the publisher's
// goroutine and must not call back into the publishing book.
type Subscriber interface {
	HandleOrderEvent(ev book.Event)
}

// Bus is an in-process publish/subscribe channel with a fixed subscriber
// set registered at startup. It implements book.Publisher.
type Bus struct {
	mu   sync.RWMutex
	subs []Subscriber
	log  *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{log: log.Named("bus")}
}

// Subscribe registers a subscriber. Call before any book starts matching.
func (b *Bus) Subscribe(s Subscriber) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Publish delivers ev to every subscriber in registration order.
func (b *Bus) Publish(ev book.Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		s.HandleOrderEvent(ev)
	}
}
