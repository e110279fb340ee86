package bus

import (
	"strings"
	"sync"
)

// Bus is an in-process publish/subscribe bus with prefix filtering on event
// kinds. Publishing never blocks: a subscriber that cannot keep up loses
// events rather than stalling the producer.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]subscriber
}

type subscriber struct {
	prefix string
	ch     chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[uint64]subscriber)}
}

// Publish delivers evt to every subscriber whose prefix matches evt.Kind.
// Each subscriber sees the events it receives in publish order; a full
// subscriber channel drops the event for that subscriber only.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if strings.HasPrefix(evt.Kind, s.prefix) {
			select {
			case s.ch <- evt:
			default:
			}
		}
	}
}

// Subscribe registers a subscriber for kinds starting with prefix (the empty
// prefix matches everything). bufSize is the channel buffer; size it for the
// subscriber's burst tolerance. The returned function unsubscribes; the
// channel is never closed, so range loops should select on a done signal.
func (b *Bus) Subscribe(prefix string, bufSize int) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscriber{prefix: prefix, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
