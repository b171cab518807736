// Package throttle batches streaming tool output per key so consumers see
// at most one emission per interval for each key.
package throttle

import (
	"sync"
	"time"

	"github.com/yuri-xyz/claudebot/pkg/claude/clock"
)

// DefaultInterval is the default minimum gap between emissions for a key.
const DefaultInterval = time.Second

// Stream identifies the kind of output held in a buffer.
type Stream string

const (
	// StreamStdout is standard output.
	StreamStdout Stream = "stdout"
	// StreamStderr is standard error.
	StreamStderr Stream = "stderr"
	// StreamStart marks the start of a tool execution.
	StreamStart Stream = "start"
)

// FlushFunc receives accumulated output for key.
type FlushFunc[K comparable] func(key K, content string, stream Stream)

type entry struct {
	content  []byte
	stream   Stream
	timer    clock.Timer
	lastEmit time.Time
	// timerID identifies the live timer; stale callbacks see a mismatch.
	timerID uint64
}

// Buffer accumulates output per key and flushes it through a callback.
// A key's interval starts when its buffer is created, so the first chunk
// is batched like any other. At most one timer is pending per key.
// The flush callback runs without the buffer's lock held.
type Buffer[K comparable] struct {
	mu       sync.Mutex
	entries  map[K]*entry
	seq      uint64
	interval time.Duration
	clock    clock.Clock
	onFlush  FlushFunc[K]
}

// New creates a Buffer. A nil clk uses the real clock.
func New[K comparable](interval time.Duration, clk clock.Clock, onFlush FlushFunc[K]) *Buffer[K] {
	if clk == nil {
		clk = clock.Real()
	}

	return &Buffer[K]{
		entries:  make(map[K]*entry),
		interval: interval,
		clock:    clk,
		onFlush:  onFlush,
	}
}

// Buffer appends chunk for key. It flushes immediately when the interval
// since the key's last emission has elapsed, otherwise schedules a flush
// for the remaining time unless one is already pending.
func (b *Buffer[K]) Buffer(key K, chunk string, stream Stream) {
	b.mu.Lock()

	now := b.clock.Now()
	e, ok := b.entries[key]
	if !ok {
		e = &entry{lastEmit: now}
		b.entries[key] = e
	}
	e.content = append(e.content, chunk...)
	e.stream = stream

	elapsed := now.Sub(e.lastEmit)
	if elapsed >= b.interval {
		content, s, emit := b.take(e, now)
		b.mu.Unlock()
		if emit {
			b.onFlush(key, content, s)
		}

		return
	}

	if e.timer == nil {
		b.seq++
		id := b.seq
		e.timerID = id
		e.timer = b.clock.AfterFunc(b.interval-elapsed, func() {
			b.fire(key, id)
		})
	}
	b.mu.Unlock()
}

// Flush emits key's accumulated output now. Empty buffers are left alone.
func (b *Buffer[K]) Flush(key K) {
	b.mu.Lock()
	e, ok := b.entries[key]
	if !ok {
		b.mu.Unlock()

		return
	}
	content, s, emit := b.take(e, b.clock.Now())
	b.mu.Unlock()

	if emit {
		b.onFlush(key, content, s)
	}
}

// Cleanup cancels key's pending timer and discards its output.
func (b *Buffer[K]) Cleanup(key K) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.entries[key]; ok {
		stopTimer(e)
		delete(b.entries, key)
	}
}

// CleanupWhere discards every key matching pred without emitting.
func (b *Buffer[K]) CleanupWhere(pred func(K) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, e := range b.entries {
		if pred(key) {
			stopTimer(e)
			delete(b.entries, key)
		}
	}
}

// CleanupAll flushes every key and then removes it.
func (b *Buffer[K]) CleanupAll() {
	b.mu.Lock()
	keys := make([]K, 0, len(b.entries))
	for key := range b.entries {
		keys = append(keys, key)
	}
	b.mu.Unlock()

	for _, key := range keys {
		b.Flush(key)
		b.Cleanup(key)
	}
}

// Has reports whether key has a buffer.
func (b *Buffer[K]) Has(key K) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.entries[key]

	return ok
}

// Len returns the number of live buffers.
func (b *Buffer[K]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.entries)
}

func (b *Buffer[K]) fire(key K, id uint64) {
	b.mu.Lock()
	e, ok := b.entries[key]
	if !ok || e.timerID != id {
		b.mu.Unlock()

		return
	}
	e.timer = nil
	e.timerID = 0
	content, s, emit := b.take(e, b.clock.Now())
	b.mu.Unlock()

	if emit {
		b.onFlush(key, content, s)
	}
}

// take drains e. Callers hold b.mu.
func (b *Buffer[K]) take(e *entry, now time.Time) (string, Stream, bool) {
	if len(e.content) == 0 {
		return "", "", false
	}
	content := string(e.content)
	e.content = e.content[:0]
	e.lastEmit = now
	stopTimer(e)

	return content, e.stream, true
}

func stopTimer(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerID = 0
}
