package messaging

import (
	"sync"

	"github.com/google/uuid"
)

// observerSet is the shared observer registry used by every driver.
type observerSet struct {
	mu       sync.RWMutex
	handlers map[string]func([]byte)
}

func newObserverSet() *observerSet {
	return &observerSet{handlers: make(map[string]func([]byte))}
}

func (o *observerSet) add(handler func([]byte)) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := uuid.New().String()
	o.handlers[id] = handler
	return id
}

func (o *observerSet) remove(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.handlers, id)
}

// dispatch invokes every observer with frame. Handlers run on the caller's
// goroutine; drivers call this from their receive loop.
func (o *observerSet) dispatch(frame []byte) {
	o.mu.RLock()
	handlers := make([]func([]byte), 0, len(o.handlers))
	for _, h := range o.handlers {
		handlers = append(handlers, h)
	}
	o.mu.RUnlock()

	for _, h := range handlers {
		h(frame)
	}
}
