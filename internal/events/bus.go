package events

import (
	"sync"
	"time"

	"mcphub/pkg/logging"
)

// Handler receives published events. Handlers run on the publishing goroutine
// and must not block.
type Handler func(Event)

// Bus is an explicit observer list. Components publish state transitions onto
// it and consumers subscribe, either with a callback or a buffered channel.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]Handler
	now      func() time.Time
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[uint64]Handler),
		now:      time.Now,
	}
}

// Subscribe registers h and returns a function that removes it. Calling the
// returned function more than once is safe.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Channel subscribes a buffered channel. Events that do not fit the buffer are
// dropped and logged. cancel unsubscribes and closes the channel.
func (b *Bus) Channel(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	var (
		mu     sync.Mutex
		closed bool
	)
	unsubscribe := b.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
			logging.Warn("Events", "Dropping %s event for %s: subscriber channel full", e.Reason, e.Server)
		}
	})

	cancel := func() {
		unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers e to every current subscriber. A panicking handler is
// logged and does not affect the others.
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = b.now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		deliver(h, e)
	}
}

func deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("Events", "Subscriber panicked on %s event for %s: %v", e.Reason, e.Server, r)
		}
	}()
	h(e)
}
