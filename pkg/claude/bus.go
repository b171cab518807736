package claude

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// bus dispatches events to listeners registered per event type.
// Listeners run in registration order on the emitting goroutine; a
// panicking listener is logged and does not stop dispatch.
type bus struct {
	mu        sync.RWMutex
	listeners map[EventType]map[uint64]func(Event)
	nextID    uint64
	log       *zerolog.Logger
}

func newBus(log *zerolog.Logger) *bus {
	return &bus{
		listeners: make(map[EventType]map[uint64]func(Event)),
		log:       log,
	}
}

func (b *bus) on(t EventType, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.listeners[t] == nil {
		b.listeners[t] = make(map[uint64]func(Event))
	}
	b.listeners[t][id] = fn

	var once sync.Once

	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners[t], id)
			b.mu.Unlock()
		})
	}
}

func (b *bus) emit(e Event) {
	b.mu.RLock()
	set := b.listeners[e.Type()]
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(Event), len(ids))
	for i, id := range ids {
		fns[i] = set[id]
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		b.dispatch(e, fn)
	}
}

func (b *bus) dispatch(e Event, fn func(Event)) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event", string(e.Type())).
				Str("session", e.Session()).
				Err(fmt.Errorf("%v", r)).
				Msg("event handler panicked")
		}
	}()

	fn(e)
}
