package mcp

import (
	"sync"

	"github.com/yuri-xyz/claudebot/pkg/claude"
)

// DefaultEventCapacity is how many events the control server retains.
const DefaultEventCapacity = 1000

// LoggedEvent is an adapter event as returned by poll_events.
type LoggedEvent struct {
	Seq       uint64           `json:"seq"`
	Type      claude.EventType `json:"type"`
	SessionID string           `json:"session_id"`
	Data      any              `json:"data"`
}

// eventLog keeps the most recent events in sequence order.
type eventLog struct {
	mu       sync.Mutex
	events   []LoggedEvent
	seq      uint64
	capacity int
}

func newEventLog(capacity int) *eventLog {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}

	return &eventLog{capacity: capacity}
}

func (l *eventLog) append(e claude.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	l.events = append(l.events, LoggedEvent{
		Seq:       l.seq,
		Type:      e.Type(),
		SessionID: e.Session(),
		Data:      eventData(e),
	})
	if over := len(l.events) - l.capacity; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
}

// since returns events with Seq > after, optionally limited to one session.
func (l *eventLog) since(after uint64, sessionID string) []LoggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []LoggedEvent{}
	for _, e := range l.events {
		if e.Seq <= after || (sessionID != "" && e.SessionID != sessionID) {
			continue
		}
		out = append(out, e)
	}

	return out
}

func eventData(e claude.Event) any {
	switch ev := e.(type) {
	case claude.MessageEvent:
		return map[string]any{"message": ev.Message}
	case claude.ErrorEvent:
		return map[string]any{"error": ev.Message()}
	case claude.ExitEvent:
		return map[string]any{"code": ev.Code, "signal": ev.Signal}
	case claude.ExecCompleteEvent:
		return map[string]any{"tool_use_id": ev.ToolUseID, "exit_code": ev.ExitCode}
	case claude.ExecOutputEvent:
		return map[string]any{"tool_use_id": ev.ToolUseID, "chunk": ev.Chunk, "stream": ev.Stream}
	default:
		return e
	}
}
