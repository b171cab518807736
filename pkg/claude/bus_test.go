package claude_test

import (
	"testing"

	"github.com/yuri-xyz/claudebot/pkg/claude"
	"github.com/yuri-xyz/claudebot/pkg/claude/internal/testutil"
)

func TestHandlerPanicDoesNotStopDispatch(t *testing.T) {
	f := newFixture(t)

	var calls []string
	f.adapter.On(claude.EventExit, func(claude.Event) {
		calls = append(calls, "first")
		panic("boom")
	})
	f.adapter.On(claude.EventExit, func(claude.Event) {
		calls = append(calls, "second")
	})

	_, h := f.start(t)
	h.Exit(testutil.IntPtr(0), "")

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v", calls)
	}
	if len(f.events.ofType(claude.EventExit)) != 1 {
		t.Error("recorder missed the exit event")
	}
}

func TestUnsubscribe(t *testing.T) {
	f := newFixture(t)

	count := 0
	unsubscribe := f.adapter.On(claude.EventMessage, func(claude.Event) { count++ })

	_, h := f.start(t)
	h.EmitStdout(testutil.AssistantTextLine("one"))
	unsubscribe()
	unsubscribe()
	h.EmitStdout(testutil.AssistantTextLine("two"))

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSubscribeTyped(t *testing.T) {
	f := newFixture(t)

	var exits []claude.ExitEvent
	claude.Subscribe(f.adapter, func(e claude.ExitEvent) { exits = append(exits, e) })

	var messages int
	unsubscribe := claude.Subscribe(f.adapter, func(claude.MessageEvent) { messages++ })

	id, h := f.start(t)
	h.EmitStdout(testutil.AssistantTextLine("hello"))
	unsubscribe()
	h.EmitStdout(testutil.AssistantTextLine("ignored"))
	h.Exit(nil, "SIGTERM")

	if messages != 1 {
		t.Errorf("messages = %d", messages)
	}
	if len(exits) != 1 || exits[0].SessionID != id || exits[0].Signal != "SIGTERM" || exits[0].Code != nil {
		t.Errorf("exits = %+v", exits)
	}
}

// subscribeZero subscribes with E and checks its zero value names a type.
func subscribeZero[E claude.EventPayload](t *testing.T, f *fixture) {
	t.Helper()

	unsubscribe := claude.Subscribe(f.adapter, func(E) {})
	defer unsubscribe()

	var zero E
	if zero.Type() == "" {
		t.Errorf("%T has no event type", zero)
	}
}

func TestSubscribeEveryEventPayload(t *testing.T) {
	f := newFixture(t)

	subscribeZero[claude.MessageEvent](t, f)
	subscribeZero[claude.PermissionRequestEvent](t, f)
	subscribeZero[claude.UserQuestionEvent](t, f)
	subscribeZero[claude.PlanRequestEvent](t, f)
	subscribeZero[claude.EnterPlanModeEvent](t, f)
	subscribeZero[claude.ExecOutputEvent](t, f)
	subscribeZero[claude.ExecCompleteEvent](t, f)
	subscribeZero[claude.ErrorEvent](t, f)
	subscribeZero[claude.ExitEvent](t, f)

	var errs []claude.ErrorEvent
	claude.Subscribe(f.adapter, func(e claude.ErrorEvent) { errs = append(errs, e) })

	_, h := f.start(t)
	h.EmitStderr("fatal: no credentials\n")
	h.EmitStdout(testutil.AssistantTextLine("not an error"))

	if len(errs) != 1 || errs[0].Message() != "fatal: no credentials" {
		t.Errorf("errors = %+v", errs)
	}
}

func TestHandlerMayRespondDuringDispatch(t *testing.T) {
	f := newFixture(t)

	claude.Subscribe(f.adapter, func(e claude.PermissionRequestEvent) {
		if !f.adapter.RespondToPermission(e.SessionID, e.RequestID, true) {
			t.Error("RespondToPermission() from handler = false")
		}
	})

	id, h := f.start(t)
	req := testutil.NewControlRequest("Edit", nil)
	h.EmitStdout(req.Line())

	if _, ok := f.adapter.PendingRequest(id, req.RequestID); ok {
		t.Error("request still pending")
	}
	if got := lastResponse(t, h).Response.Response.Behavior; got != "allow" {
		t.Errorf("behavior = %q", got)
	}
}
