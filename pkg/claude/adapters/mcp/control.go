package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/yuri-xyz/claudebot/pkg/claude"
	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
	"github.com/yuri-xyz/claudebot/pkg/claude/options"
)

// ServerName is the MCP implementation name of the control server.
const ServerName = "claudebot"

// Controller is the adapter surface exposed over MCP.
type Controller interface {
	Start(ctx context.Context, cfg options.RunnerConfig) (string, error)
	SendMessage(sessionID, text string) bool
	Abort(sessionID string) bool
	RespondToPermission(sessionID, requestID string, allowed bool) bool
	RespondToUserQuestion(sessionID, requestID string, answers messages.UserQuestionAnswers) bool
	RespondToPlan(sessionID, requestID string, resp *messages.PlanResponse) bool
	Sessions() []claude.SessionInfo
	On(t claude.EventType, fn func(claude.Event)) func()
}

// ControlServer serves a Controller's operations as MCP tools and keeps
// a log of its events for polling.
type ControlServer struct {
	ctrl     Controller
	defaults options.RunnerConfig
	server   *mcpserver.MCPServer
	events   *eventLog
	unsubs   []func()
}

// ControlOption configures a ControlServer.
type ControlOption func(*ControlServer)

// WithDefaults sets the runner configuration start_session builds on.
func WithDefaults(cfg options.RunnerConfig) ControlOption {
	return func(c *ControlServer) { c.defaults = cfg }
}

// WithEventCapacity bounds the retained event log.
func WithEventCapacity(n int) ControlOption {
	return func(c *ControlServer) { c.events = newEventLog(n) }
}

// NewControlServer registers the control tools and subscribes to every
// event type of ctrl.
func NewControlServer(ctrl Controller, version string, opts ...ControlOption) *ControlServer {
	c := &ControlServer{
		ctrl:   ctrl,
		events: newEventLog(DefaultEventCapacity),
		server: mcpserver.NewMCPServer(
			ServerName,
			version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, t := range []claude.EventType{
		claude.EventMessage,
		claude.EventPermissionRequest,
		claude.EventUserQuestion,
		claude.EventPlanRequest,
		claude.EventEnterPlanMode,
		claude.EventExecOutput,
		claude.EventExecComplete,
		claude.EventError,
		claude.EventExit,
	} {
		c.unsubs = append(c.unsubs, ctrl.On(t, c.events.append))
	}

	c.registerTools()

	return c
}

// Server returns the underlying MCP server.
func (c *ControlServer) Server() *mcpserver.MCPServer {
	return c.server
}

// ServeStdio serves MCP over stdin/stdout until the input closes.
func (c *ControlServer) ServeStdio() error {
	return mcpserver.ServeStdio(c.server)
}

// Close stops recording events.
func (c *ControlServer) Close() {
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
}

func (c *ControlServer) registerTools() {
	c.server.AddTool(mcpgo.NewTool("start_session",
		mcpgo.WithDescription("Start a Claude CLI session and send its first prompt"),
		mcpgo.WithString("prompt", mcpgo.Required(), mcpgo.Description("First user turn")),
		mcpgo.WithString("cwd", mcpgo.Description("Working directory")),
		mcpgo.WithString("model", mcpgo.Description("Model override")),
		mcpgo.WithString("permission_mode",
			mcpgo.Description("CLI permission mode"),
			mcpgo.Enum(
				string(options.PermissionModeDefault),
				string(options.PermissionModeAcceptEdits),
				string(options.PermissionModePlan),
				string(options.PermissionModeBypassPermissions),
			),
		),
		mcpgo.WithString("resume_session_id", mcpgo.Description("CLI session to resume")),
	), c.startSession)

	c.server.AddTool(mcpgo.NewTool("send_message",
		mcpgo.WithDescription("Send a follow-up user turn to a running session"),
		mcpgo.WithString("session_id", mcpgo.Required()),
		mcpgo.WithString("text", mcpgo.Required()),
	), c.sendMessage)

	c.server.AddTool(mcpgo.NewTool("abort_session",
		mcpgo.WithDescription("Terminate a session"),
		mcpgo.WithString("session_id", mcpgo.Required()),
	), c.abortSession)

	c.server.AddTool(mcpgo.NewTool("respond_permission",
		mcpgo.WithDescription("Allow or deny a pending tool permission request"),
		mcpgo.WithString("session_id", mcpgo.Required()),
		mcpgo.WithString("request_id", mcpgo.Required()),
		mcpgo.WithBoolean("allowed", mcpgo.Required()),
	), c.respondPermission)

	c.server.AddTool(mcpgo.NewTool("respond_question",
		mcpgo.WithDescription("Answer a pending AskUserQuestion request; omit answers to decline"),
		mcpgo.WithString("session_id", mcpgo.Required()),
		mcpgo.WithString("request_id", mcpgo.Required()),
		mcpgo.WithObject("answers", mcpgo.Description("Question text to chosen label or list of labels")),
	), c.respondQuestion)

	c.server.AddTool(mcpgo.NewTool("respond_plan",
		mcpgo.WithDescription("Review a pending plan; denying ends the session"),
		mcpgo.WithString("session_id", mcpgo.Required()),
		mcpgo.WithString("request_id", mcpgo.Required()),
		mcpgo.WithString("action",
			mcpgo.Required(),
			mcpgo.Enum(
				string(messages.PlanApproved),
				string(messages.PlanDenied),
				string(messages.PlanChangesRequested),
			),
		),
		mcpgo.WithString("user_note", mcpgo.Description("Requested changes")),
	), c.respondPlan)

	c.server.AddTool(mcpgo.NewTool("list_sessions",
		mcpgo.WithDescription("List running sessions with their pending requests"),
	), c.listSessions)

	c.server.AddTool(mcpgo.NewTool("poll_events",
		mcpgo.WithDescription("Return events recorded after a sequence number"),
		mcpgo.WithNumber("after", mcpgo.Description("Last sequence number seen")),
		mcpgo.WithString("session_id", mcpgo.Description("Only events of this session")),
	), c.pollEvents)
}

func (c *ControlServer) startSession(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	cfg := c.defaults
	cfg.Prompt = prompt
	cfg.PromptBlocks = nil
	if v := req.GetString("cwd", ""); v != "" {
		cfg.Cwd = v
	}
	if v := req.GetString("model", ""); v != "" {
		cfg.Model = v
	}
	if v := req.GetString("permission_mode", ""); v != "" {
		cfg.PermissionMode = options.PermissionMode(v)
	}
	if v := req.GetString("resume_session_id", ""); v != "" {
		cfg.ResumeSessionID = v
	}

	id, err := c.ctrl.Start(ctx, cfg)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]string{"session_id": id})
}

func (c *ControlServer) sendMessage(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	return okResult(c.ctrl.SendMessage(sessionID, text), "session %s is not running", sessionID)
}

func (c *ControlServer) abortSession(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	return okResult(c.ctrl.Abort(sessionID), "session %s is not running", sessionID)
}

func (c *ControlServer) respondPermission(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	sessionID, requestID, err := requestIDs(req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	allowed, err := req.RequireBool("allowed")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	ok := c.ctrl.RespondToPermission(sessionID, requestID, allowed)

	return okResult(ok, "no pending request %s in session %s", requestID, sessionID)
}

func (c *ControlServer) respondQuestion(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	sessionID, requestID, err := requestIDs(req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	var answers messages.UserQuestionAnswers
	if raw, ok := req.GetArguments()["answers"].(map[string]any); ok {
		answers = messages.UserQuestionAnswers(raw)
	}

	ok := c.ctrl.RespondToUserQuestion(sessionID, requestID, answers)

	return okResult(ok, "no pending question %s in session %s", requestID, sessionID)
}

func (c *ControlServer) respondPlan(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	sessionID, requestID, err := requestIDs(req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	action, err := req.RequireString("action")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	resp := &messages.PlanResponse{Action: messages.PlanAction(action)}
	switch resp.Action {
	case messages.PlanApproved, messages.PlanDenied:
	case messages.PlanChangesRequested:
		resp.UserNote = req.GetString("user_note", "")
	default:
		return mcpgo.NewToolResultError(fmt.Sprintf("unknown plan action %q", action)), nil
	}

	ok := c.ctrl.RespondToPlan(sessionID, requestID, resp)

	return okResult(ok, "no pending plan %s in session %s", requestID, sessionID)
}

// sessionView is the list_sessions wire shape.
type sessionView struct {
	ID               string   `json:"id"`
	PID              int      `json:"pid"`
	PendingRequests  []string `json:"pending_requests"`
	ActiveExecTools  []string `json:"active_exec_tools"`
	LastPlanFilePath string   `json:"last_plan_file_path,omitempty"`
	Aborting         bool     `json:"aborting"`
}

func (c *ControlServer) listSessions(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	infos := c.ctrl.Sessions()
	views := make([]sessionView, len(infos))
	for i, info := range infos {
		views[i] = sessionView(info)
	}

	return jsonResult(views)
}

func (c *ControlServer) pollEvents(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	after := req.GetFloat("after", 0)
	if after < 0 {
		after = 0
	}

	return jsonResult(c.events.since(uint64(after), req.GetString("session_id", "")))
}

func requestIDs(req mcpgo.CallToolRequest) (string, string, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return "", "", err
	}
	requestID, err := req.RequireString("request_id")
	if err != nil {
		return "", "", err
	}

	return sessionID, requestID, nil
}

func okResult(ok bool, format string, args ...any) (*mcpgo.CallToolResult, error) {
	if !ok {
		return mcpgo.NewToolResultError(fmt.Sprintf(format, args...)), nil
	}

	return mcpgo.NewToolResultText("ok"), nil
}

func jsonResult(v any) (*mcpgo.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	return mcpgo.NewToolResultText(string(data)), nil
}
