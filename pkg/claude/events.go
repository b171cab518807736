package claude

import (
	"encoding/json"

	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
	"github.com/yuri-xyz/claudebot/pkg/claude/throttle"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// EventType names an event variant.
type EventType string

// Event types.
const (
	EventMessage           EventType = "message"
	EventPermissionRequest EventType = "permission_request"
	EventUserQuestion      EventType = "user_question"
	EventPlanRequest       EventType = "plan_request"
	EventEnterPlanMode     EventType = "enter_plan_mode"
	EventExecOutput        EventType = "exec_output"
	EventExecComplete      EventType = "exec_complete"
	EventError             EventType = "error"
	EventExit              EventType = "exit"
)

// Event is implemented by every event payload.
type Event interface {
	Type() EventType
	Session() string
}

// EventPayload is the set of concrete event structs. Events are always
// delivered by value, so pointer types are not members.
type EventPayload interface {
	MessageEvent | PermissionRequestEvent | UserQuestionEvent | PlanRequestEvent |
		EnterPlanModeEvent | ExecOutputEvent | ExecCompleteEvent | ErrorEvent | ExitEvent
	Event
}

// MessageEvent carries one decoded stdout value that was not a control
// request.
type MessageEvent struct {
	SessionID string
	Message   json.RawMessage
	// Kind is the classified form of Message.
	Kind messages.Inbound
}

// PermissionRequestEvent asks the caller to allow or deny a tool call.
type PermissionRequestEvent struct {
	SessionID      string
	RequestID      string
	ToolName       string
	ToolInput      json.RawMessage
	ToolUseID      string
	DecisionReason string
	Suggestions    []messages.PermissionSuggestion
}

// UserQuestionEvent asks the caller to answer AskUserQuestion questions.
type UserQuestionEvent struct {
	SessionID string
	RequestID string
	ToolUseID string
	Questions []messages.UserQuestion
}

// PlanRequestEvent asks the caller to review a plan. PlanFilePath falls
// back to the last plan file the session wrote.
type PlanRequestEvent struct {
	SessionID          string
	RequestID          string
	ToolUseID          string
	PlanFilePath       string
	PlanContent        string
	LaunchSwarm        *bool
	TeammateCount      *float64
	AllowedPrompts     []messages.AllowedPrompt
	PushToRemote       *bool
	RemoteSessionID    string
	RemoteSessionURL   string
	RemoteSessionTitle string
}

// EnterPlanModeEvent reports that the agent switched to plan mode.
type EnterPlanModeEvent struct {
	SessionID string
}

// ExecOutputEvent carries batched output of a streaming tool. A "start"
// event with an empty chunk opens each execution.
type ExecOutputEvent struct {
	SessionID string
	ToolUseID string
	Chunk     string
	Stream    throttle.Stream
}

// ExecCompleteEvent closes a streaming tool execution. ExitCode is nil
// when the call was denied and never ran.
type ExecCompleteEvent struct {
	SessionID string
	ToolUseID string
	ExitCode  *int
}

// ErrorEvent reports a process failure or error output.
type ErrorEvent struct {
	SessionID string
	Err       error
}

// ExitEvent reports process termination. Code is nil when the process
// was killed by Signal.
type ExitEvent struct {
	SessionID string
	Code      *int
	Signal    string
}

func (MessageEvent) Type() EventType           { return EventMessage }
func (PermissionRequestEvent) Type() EventType { return EventPermissionRequest }
func (UserQuestionEvent) Type() EventType      { return EventUserQuestion }
func (PlanRequestEvent) Type() EventType       { return EventPlanRequest }
func (EnterPlanModeEvent) Type() EventType     { return EventEnterPlanMode }
func (ExecOutputEvent) Type() EventType        { return EventExecOutput }
func (ExecCompleteEvent) Type() EventType      { return EventExecComplete }
func (ErrorEvent) Type() EventType             { return EventError }
func (ExitEvent) Type() EventType              { return EventExit }

func (e MessageEvent) Session() string           { return e.SessionID }
func (e PermissionRequestEvent) Session() string { return e.SessionID }
func (e UserQuestionEvent) Session() string      { return e.SessionID }
func (e PlanRequestEvent) Session() string       { return e.SessionID }
func (e EnterPlanModeEvent) Session() string     { return e.SessionID }
func (e ExecOutputEvent) Session() string        { return e.SessionID }
func (e ExecCompleteEvent) Session() string      { return e.SessionID }
func (e ErrorEvent) Session() string             { return e.SessionID }
func (e ExitEvent) Session() string              { return e.SessionID }

// Message returns the error text without its category prefix, or ""
// when Err is nil.
func (e ErrorEvent) Message() string {
	if e.Err == nil {
		return ""
	}
	if sdkErr, ok := clauderrs.AsSDKError(e.Err); ok {
		return sdkErr.Message()
	}

	return e.Err.Error()
}
