package realtime

import (
	"encoding/json"
	"sync"
)

// registry maps frame types to subscriber callbacks. Callbacks run on
// the receive goroutine, so handlers must not block; unsubscribe removes
// the entry and is safe to call more than once.
type registry struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]func(json.RawMessage)
}

func newRegistry() *registry {
	return &registry{
		handlers: make(map[string]map[int]func(json.RawMessage)),
	}
}

func (r *registry) add(frame string, fn func(json.RawMessage)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	if r.handlers[frame] == nil {
		r.handlers[frame] = make(map[int]func(json.RawMessage))
	}
	r.handlers[frame][id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.handlers[frame], id)
		if len(r.handlers[frame]) == 0 {
			delete(r.handlers, frame)
		}
	}
}

func (r *registry) dispatch(frame string, data json.RawMessage) {
	r.mu.RLock()
	callbacks := make([]func(json.RawMessage), 0, len(r.handlers[frame]))
	for _, fn := range r.handlers[frame] {
		callbacks = append(callbacks, fn)
	}
	r.mu.RUnlock()

	for _, fn := range callbacks {
		fn(data)
	}
}
