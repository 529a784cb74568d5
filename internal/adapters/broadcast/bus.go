// Package broadcast delivers identity lifecycle events to in-process
// consumers. After a role switch or logout every subscriber is told to
// re-read session state.
package broadcast

import (
	"sync"

	"github.com/prepflow/prepflow-go/internal/ports"
)

// subscriberBuffer bounds how many undelivered events a slow subscriber may
// queue before further events are dropped for it.
const subscriberBuffer = 8

// Bus is the default IdentityNotifier implementation.
type Bus struct {
	mu   sync.Mutex
	subs map[chan ports.IdentityEvent]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[chan ports.IdentityEvent]struct{}),
	}
}

// Subscribe registers a consumer. The returned function removes the
// subscription and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan ports.IdentityEvent, func()) {
	ch := make(chan ports.IdentityEvent, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast delivers the event to every subscriber without blocking. A
// subscriber whose buffer is full misses the event; consumers that care must
// drain promptly or re-read state on the next event.
func (b *Bus) Broadcast(ev ports.IdentityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
