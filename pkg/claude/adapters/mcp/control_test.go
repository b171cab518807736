package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/yuri-xyz/claudebot/pkg/claude"
	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
	"github.com/yuri-xyz/claudebot/pkg/claude/options"
)

// fakeController records calls and lets tests emit events.
type fakeController struct {
	started   []options.RunnerConfig
	startErr  error
	sent      []string
	aborted   []string
	perms     map[string]bool
	answers   map[string]messages.UserQuestionAnswers
	plans     map[string]*messages.PlanResponse
	known     map[string]bool
	sessions  []claude.SessionInfo
	listeners map[claude.EventType][]func(claude.Event)
}

func newFakeController() *fakeController {
	return &fakeController{
		perms:     make(map[string]bool),
		answers:   make(map[string]messages.UserQuestionAnswers),
		plans:     make(map[string]*messages.PlanResponse),
		known:     map[string]bool{"claude-code-1": true},
		listeners: make(map[claude.EventType][]func(claude.Event)),
	}
}

func (f *fakeController) Start(_ context.Context, cfg options.RunnerConfig) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, cfg)

	return "claude-code-1", nil
}

func (f *fakeController) SendMessage(id, text string) bool {
	f.sent = append(f.sent, text)

	return f.known[id]
}

func (f *fakeController) Abort(id string) bool {
	f.aborted = append(f.aborted, id)

	return f.known[id]
}

func (f *fakeController) RespondToPermission(id, req string, allowed bool) bool {
	f.perms[req] = allowed

	return f.known[id]
}

func (f *fakeController) RespondToUserQuestion(id, req string, answers messages.UserQuestionAnswers) bool {
	f.answers[req] = answers

	return f.known[id]
}

func (f *fakeController) RespondToPlan(id, req string, resp *messages.PlanResponse) bool {
	f.plans[req] = resp

	return f.known[id]
}

func (f *fakeController) Sessions() []claude.SessionInfo { return f.sessions }

func (f *fakeController) On(t claude.EventType, fn func(claude.Event)) func() {
	f.listeners[t] = append(f.listeners[t], fn)

	return func() { f.listeners[t] = nil }
}

func (f *fakeController) emit(e claude.Event) {
	for _, fn := range f.listeners[e.Type()] {
		fn(e)
	}
}

func call(args map[string]any) mcpgo.CallToolRequest {
	var req mcpgo.CallToolRequest
	req.Params.Arguments = args

	return req
}

func resultText(t *testing.T, res *mcpgo.CallToolResult) string {
	t.Helper()

	if res == nil || len(res.Content) != 1 {
		t.Fatalf("result = %+v", res)
	}
	text, ok := res.Content[0].(mcpgo.TextContent)
	if !ok {
		t.Fatalf("content = %T", res.Content[0])
	}

	return text.Text
}

func TestStartSession(t *testing.T) {
	ctrl := newFakeController()
	srv := NewControlServer(ctrl, "test", WithDefaults(options.RunnerConfig{
		Model:        "opus",
		AllowedTools: []string{"Read"},
	}))

	res, err := srv.startSession(context.Background(), call(map[string]any{
		"prompt":          "fix the build",
		"cwd":             "/src",
		"permission_mode": "plan",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("error result: %s", resultText(t, res))
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil || out["session_id"] != "claude-code-1" {
		t.Errorf("result = %s", resultText(t, res))
	}

	cfg := ctrl.started[0]
	if cfg.Prompt != "fix the build" || cfg.Cwd != "/src" || cfg.Model != "opus" ||
		cfg.PermissionMode != options.PermissionModePlan || len(cfg.AllowedTools) != 1 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestStartSessionErrors(t *testing.T) {
	ctrl := newFakeController()
	srv := NewControlServer(ctrl, "test")

	res, _ := srv.startSession(context.Background(), call(map[string]any{}))
	if !res.IsError {
		t.Error("missing prompt accepted")
	}

	ctrl.startErr = errors.New("claude not found")
	res, _ = srv.startSession(context.Background(), call(map[string]any{"prompt": "x"}))
	if !res.IsError || resultText(t, res) != "claude not found" {
		t.Errorf("result = %+v", res)
	}
}

func TestRespondTools(t *testing.T) {
	ctrl := newFakeController()
	srv := NewControlServer(ctrl, "test")
	ctx := context.Background()

	res, _ := srv.respondPermission(ctx, call(map[string]any{
		"session_id": "claude-code-1", "request_id": "r1", "allowed": true,
	}))
	if res.IsError || !ctrl.perms["r1"] {
		t.Errorf("permission result = %+v", res)
	}

	res, _ = srv.respondQuestion(ctx, call(map[string]any{
		"session_id": "claude-code-1", "request_id": "r2",
		"answers": map[string]any{"Which?": "A"},
	}))
	if res.IsError || ctrl.answers["r2"]["Which?"] != "A" {
		t.Errorf("question result = %+v", res)
	}

	_, _ = srv.respondQuestion(ctx, call(map[string]any{"session_id": "claude-code-1", "request_id": "r3"}))
	if ctrl.answers["r3"] != nil {
		t.Error("missing answers should decline")
	}

	res, _ = srv.respondPlan(ctx, call(map[string]any{
		"session_id": "claude-code-1", "request_id": "r4",
		"action": "changes_requested", "user_note": "smaller steps",
	}))
	if res.IsError || ctrl.plans["r4"].UserNote != "smaller steps" {
		t.Errorf("plan result = %+v", res)
	}

	res, _ = srv.respondPlan(ctx, call(map[string]any{
		"session_id": "claude-code-1", "request_id": "r5", "action": "maybe",
	}))
	if !res.IsError {
		t.Error("unknown plan action accepted")
	}

	res, _ = srv.respondPermission(ctx, call(map[string]any{
		"session_id": "claude-code-9", "request_id": "r6", "allowed": false,
	}))
	if !res.IsError {
		t.Error("unknown session reported success")
	}
}

func TestSessionTools(t *testing.T) {
	ctrl := newFakeController()
	ctrl.sessions = []claude.SessionInfo{{ID: "claude-code-1", PID: 42, PendingRequests: []string{"r1"}}}
	srv := NewControlServer(ctrl, "test")
	ctx := context.Background()

	res, _ := srv.sendMessage(ctx, call(map[string]any{"session_id": "claude-code-1", "text": "more"}))
	if res.IsError || ctrl.sent[0] != "more" {
		t.Errorf("send result = %+v", res)
	}

	res, _ = srv.abortSession(ctx, call(map[string]any{"session_id": "claude-code-2"}))
	if !res.IsError {
		t.Error("abort of unknown session reported success")
	}

	res, _ = srv.listSessions(ctx, call(nil))
	var views []sessionView
	if err := json.Unmarshal([]byte(resultText(t, res)), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].PID != 42 || views[0].PendingRequests[0] != "r1" {
		t.Errorf("sessions = %+v", views)
	}
}

func TestPollEvents(t *testing.T) {
	ctrl := newFakeController()
	srv := NewControlServer(ctrl, "test", WithEventCapacity(2))
	ctx := context.Background()

	ctrl.emit(claude.EnterPlanModeEvent{SessionID: "claude-code-1"})
	ctrl.emit(claude.ErrorEvent{SessionID: "claude-code-2", Err: errors.New("boom")})
	ctrl.emit(claude.ExitEvent{SessionID: "claude-code-1", Signal: "SIGTERM"})

	poll := func(args map[string]any) []LoggedEvent {
		res, err := srv.pollEvents(ctx, call(args))
		if err != nil {
			t.Fatal(err)
		}
		var out []LoggedEvent
		if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
			t.Fatal(err)
		}

		return out
	}

	all := poll(nil)
	if len(all) != 2 || all[0].Seq != 2 || all[1].Type != claude.EventExit {
		t.Fatalf("events = %+v", all)
	}
	if data, _ := all[0].Data.(map[string]any); data["error"] != "boom" {
		t.Errorf("error data = %v", all[0].Data)
	}

	if got := poll(map[string]any{"after": 2.0}); len(got) != 1 || got[0].Seq != 3 {
		t.Errorf("after 2 = %+v", got)
	}
	if got := poll(map[string]any{"session_id": "claude-code-2"}); len(got) != 1 {
		t.Errorf("filtered = %+v", got)
	}

	srv.Close()
	ctrl.emit(claude.ExitEvent{SessionID: "claude-code-3"})
	if got := poll(map[string]any{"after": 3.0}); len(got) != 0 {
		t.Errorf("events recorded after Close: %+v", got)
	}
}
