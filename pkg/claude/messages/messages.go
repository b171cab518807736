// Package messages is the wire codec for the Claude CLI stream-json
// protocol. It builds outbound user turns and control responses, parses
// inbound control requests, and classifies every inbound line into one
// closed set of variants before the orchestrator dispatches on it.
package messages

import "encoding/json"

// Wire message types.
const (
	TypeUser              = "user"
	TypeAssistant         = "assistant"
	TypeResult            = "result"
	TypeToolResult        = "tool_result"
	TypeControlRequest    = "control_request"
	TypeControlResponse   = "control_response"
	TypeContentBlockStart = "content_block_start"
)

// Inbound is a classified stdout value. Exactly one of the concrete types
// in this package implements it for any decoded line.
type Inbound interface {
	inbound()
}

// ToolUseStart marks the start of a tool_use content block.
type ToolUseStart struct {
	ID   string
	Name string
}

func (ToolUseStart) inbound() {}

// ToolResult reports a finished tool call. Content is the text content, or
// the compact JSON encoding when the wire carried a block list.
type ToolResult struct {
	ToolUseID string
	Content   string
	IsError   bool
}

func (ToolResult) inbound() {}

// ResultMarker is a terminal result tied to a tool call.
type ResultMarker struct {
	ToolUseID string
	SessionID string
	Subtype   string
	Result    json.RawMessage
}

func (ResultMarker) inbound() {}

// Unclassified is any value that matched no known shape. Type is the value
// of its "type" field when it had a string one.
type Unclassified struct {
	Type string
}

func (Unclassified) inbound() {}

func (*ControlRequest) inbound() {}

// Classify decodes raw into one Inbound variant, trying control requests
// first, then tool-use start, tool result and result markers.
func Classify(raw json.RawMessage) Inbound {
	if req, ok := ParseControlRequest(raw); ok {
		return &req
	}

	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return Unclassified{}
	}

	switch env.Type {
	case TypeContentBlockStart:
		if v, ok := parseToolUseStart(raw); ok {
			return v
		}
	case TypeToolResult:
		if v, ok := parseToolResult(raw); ok {
			return v
		}
	case TypeResult:
		if v, ok := parseResultMarker(raw); ok {
			return v
		}
	}

	return Unclassified{Type: env.Type}
}

// MessageType returns the "type" field of raw, or "unknown".
func MessageType(raw json.RawMessage) string {
	var env struct {
		Type any `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == nil {
		return "unknown"
	}
	if s, ok := env.Type.(string); ok {
		return s
	}

	b, _ := json.Marshal(env.Type)

	return string(b)
}

func parseToolUseStart(raw json.RawMessage) (ToolUseStart, bool) {
	var w struct {
		ContentBlock *struct {
			Type *string `json:"type"`
			ID   *string `json:"id"`
			Name *string `json:"name"`
		} `json:"content_block"`
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.ContentBlock == nil {
		return ToolUseStart{}, false
	}
	cb := w.ContentBlock
	if cb.Type == nil || *cb.Type != "tool_use" || cb.ID == nil || cb.Name == nil {
		return ToolUseStart{}, false
	}

	return ToolUseStart{ID: *cb.ID, Name: *cb.Name}, true
}

func parseToolResult(raw json.RawMessage) (ToolResult, bool) {
	var w struct {
		ToolUseID *string         `json:"tool_use_id"`
		Content   json.RawMessage `json:"content"`
		IsError   *bool           `json:"is_error"`
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.ToolUseID == nil {
		return ToolResult{}, false
	}

	res := ToolResult{ToolUseID: *w.ToolUseID, IsError: w.IsError != nil && *w.IsError}

	content, ok := contentText(w.Content)
	if !ok {
		return ToolResult{}, false
	}
	res.Content = content

	return res, true
}

// contentText accepts an absent value, a string, or an array.
func contentText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", true
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}

		return s, true
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return "", false
		}
		b, err := json.Marshal(items)
		if err != nil {
			return "", false
		}

		return string(b), true
	default:
		return "", false
	}
}

func parseResultMarker(raw json.RawMessage) (ResultMarker, bool) {
	var w struct {
		ToolUseID *string         `json:"tool_use_id"`
		SessionID *string         `json:"session_id"`
		Subtype   *string         `json:"subtype"`
		Result    json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.ToolUseID == nil {
		return ResultMarker{}, false
	}

	m := ResultMarker{ToolUseID: *w.ToolUseID, Result: w.Result}
	if w.SessionID != nil {
		m.SessionID = *w.SessionID
	}
	if w.Subtype != nil {
		m.Subtype = *w.Subtype
	}

	return m, true
}
