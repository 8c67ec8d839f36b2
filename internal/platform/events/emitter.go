// Package events provides a typed fan-out emitter whose listeners cannot
// break each other or the code that emits.
package events

import (
	"sync"

	hclog "github.com/hashicorp/go-hclog"
)

type Listener[T any] func(T)

type entry[T any] struct {
	id int
	fn Listener[T]
}

type Emitter[T any] struct {
	mu        sync.RWMutex
	nextID    int
	listeners []entry[T]
	logger    hclog.Logger
}

func NewEmitter[T any](logger hclog.Logger) *Emitter[T] {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Emitter[T]{logger: logger}
}

// Subscribe registers fn and returns a function that removes it again.
// A nil fn is ignored.
func (e *Emitter[T]) Subscribe(fn Listener[T]) func() {
	if fn == nil {
		return func() {}
	}
	e.mu.Lock()
	e.nextID++
	listenerID := e.nextID
	e.listeners = append(e.listeners, entry[T]{id: listenerID, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(listenerID) })
	}
}

func (e *Emitter[T]) remove(listenerID int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, item := range e.listeners {
		if item.id == listenerID {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return
		}
	}
}

// Emit calls every listener in subscription order. A panicking listener is
// logged and skipped.
func (e *Emitter[T]) Emit(event T) {
	e.mu.RLock()
	snapshot := make([]entry[T], len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.RUnlock()

	for _, item := range snapshot {
		e.deliver(item, event)
	}
}

func (e *Emitter[T]) deliver(item entry[T], event T) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("subscriber error", "listener", item.id, "panic", r)
		}
	}()
	item.fn(event)
}

// Len reports the number of registered listeners.
func (e *Emitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
