package events

import (
	"context"
	"sync"
)

// Publisher sends map events to subscribers
type Publisher interface {
	Publish(ctx context.Context, event *MapEvent) error
}

// Subscriber delivers map events to handler until ctx is done
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(*MapEvent)) error
}

// LocalBus delivers events in process. Used when no NATS server is configured.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[int]func(*MapEvent)
	nextID   int
}

// NewLocalBus creates an empty in-process bus
func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]func(*MapEvent))}
}

// Publish calls every registered handler synchronously
func (b *LocalBus) Publish(_ context.Context, event *MapEvent) error {
	b.mu.RLock()
	hs := make([]func(*MapEvent), 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(event)
	}
	return nil
}

// Subscribe registers handler and blocks until ctx is done
func (b *LocalBus) Subscribe(ctx context.Context, handler func(*MapEvent)) error {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.handlers, id)
	b.mu.Unlock()
	return nil
}

// Subscribers returns the number of registered handlers
func (b *LocalBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
