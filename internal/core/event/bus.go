package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Systems Emit during the tick; one
// Dispatch call per tick (at the start of replication) swaps the buffers and
// delivers every event emitted since the previous Dispatch, in emission
// order. Events emitted by handlers during Dispatch land in the next batch.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []any
	back     []any
	handlers map[reflect.Type][]reflect.Value
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]any, 0, 32),
		back:     make([]any, 0, 32),
		handlers: make(map[reflect.Type][]reflect.Value),
	}
}

// Emit queues an event for the next Dispatch.
func Emit[T any](b *Bus, event T) {
	b.back = append(b.back, event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], reflect.ValueOf(fn))
}

// Pending reports how many events wait for the next Dispatch.
func (b *Bus) Pending() int { return len(b.back) }

// Dispatch swaps buffers and delivers the batch to subscribed handlers.
func (b *Bus) Dispatch() {
	b.front, b.back = b.back, b.front[:0]
	for _, ev := range b.front {
		v := reflect.ValueOf(ev)
		for _, h := range b.handlers[v.Type()] {
			h.Call([]reflect.Value{v})
		}
	}
	clear(b.front)
	b.front = b.front[:0]
}
