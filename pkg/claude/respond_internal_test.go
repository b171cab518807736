package claude

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/yuri-xyz/claudebot/pkg/claude/clock"
	"github.com/yuri-xyz/claudebot/pkg/claude/internal/testutil"
	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
	"github.com/yuri-xyz/claudebot/pkg/claude/options"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

func startInternal(t *testing.T) (*Adapter, string, *testutil.FakeHandle, *[]ErrorEvent) {
	t.Helper()

	spawner := testutil.NewFakeSpawner()
	a, err := NewAdapter(options.AdapterOptions{Spawner: spawner, Clock: clock.NewFake(time.Unix(0, 0))})
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}

	var errs []ErrorEvent
	Subscribe(a, func(e ErrorEvent) { errs = append(errs, e) })

	id, err := a.Start(context.Background(), options.RunnerConfig{Prompt: "hello"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	return a, id, spawner.LastHandle(), &errs
}

func assertEncodeError(t *testing.T, err error, sessionID, requestID, tool string) {
	t.Helper()

	var pe *clauderrs.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}
	if pe.Code() != clauderrs.ErrCodeEncodeFailed {
		t.Errorf("Code() = %q", pe.Code())
	}
	if pe.SessionID() != sessionID || pe.RequestID() != requestID || pe.ToolName() != tool {
		t.Errorf("metadata = %v", pe.Metadata())
	}
}

func TestRespondEncodeFailureKeepsRequestPending(t *testing.T) {
	a, id, h, errs := startInternal(t)

	req := testutil.NewControlRequest("Edit", map[string]any{"file_path": "/a.go"})
	h.EmitStdout(req.Line())
	writes := len(h.Writes())

	ok := a.respond(id, req.RequestID,
		func(messages.ControlRequest) (string, error) {
			return messages.BuildAllowResponse(req.RequestID, json.RawMessage(`{bad`))
		},
		func(*session, messages.ControlRequest) { t.Error("after ran for an unwritten response") },
	)
	if ok {
		t.Fatal("respond() = true for an unencodable response")
	}
	if len(h.Writes()) != writes {
		t.Errorf("writes = %q", h.Writes())
	}
	if _, pending := a.PendingRequest(id, req.RequestID); !pending {
		t.Fatal("request dropped after encode failure")
	}
	if len(*errs) != 1 || (*errs)[0].SessionID != id {
		t.Fatalf("error events = %+v", *errs)
	}
	assertEncodeError(t, (*errs)[0].Err, id, req.RequestID, "Edit")

	if !a.RespondToPermission(id, req.RequestID, false) {
		t.Error("deny after encode failure failed")
	}
}

func TestAutoAllowEncodeFailure(t *testing.T) {
	a, id, h, _ := startInternal(t)
	s := a.session(id)
	writes := len(h.Writes())

	req := messages.ControlRequest{
		RequestID: "req_auto",
		ToolName:  "TodoWrite",
		Input:     json.RawMessage(`{"todos":`),
	}

	s.mu.Lock()
	err := s.autoAllow(req)
	s.mu.Unlock()

	assertEncodeError(t, err, id, "req_auto", "TodoWrite")
	if len(h.Writes()) != writes {
		t.Errorf("writes = %q", h.Writes())
	}
}
