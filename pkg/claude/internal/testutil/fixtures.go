package testutil

import (
	"encoding/json"

	"github.com/google/uuid"
)

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// NewRequestID returns a unique control request id.
func NewRequestID() string {
	return "req_" + uuid.NewString()
}

// NewToolUseID returns a unique tool-use id.
func NewToolUseID() string {
	return "toolu_" + uuid.NewString()
}

// ControlRequest is a control request fixture.
type ControlRequest struct {
	RequestID      string
	ToolUseID      string
	ToolName       string
	Input          map[string]any
	DecisionReason string
	Suggestions    []map[string]any
}

// NewControlRequest builds a can_use_tool fixture with fresh ids.
func NewControlRequest(toolName string, input map[string]any) ControlRequest {
	if input == nil {
		input = map[string]any{}
	}

	return ControlRequest{
		RequestID: NewRequestID(),
		ToolUseID: NewToolUseID(),
		ToolName:  toolName,
		Input:     input,
	}
}

// Line renders the fixture as one NDJSON line.
func (c ControlRequest) Line() string {
	req := map[string]any{
		"subtype":     "can_use_tool",
		"tool_name":   c.ToolName,
		"input":       c.Input,
		"tool_use_id": c.ToolUseID,
	}
	if c.DecisionReason != "" {
		req["decision_reason"] = c.DecisionReason
	}
	if c.Suggestions != nil {
		req["permission_suggestions"] = c.Suggestions
	}

	return Line(map[string]any{
		"type":       "control_request",
		"request_id": c.RequestID,
		"request":    req,
	})
}

// ToolUseStartLine renders a content_block_start tool_use marker.
func ToolUseStartLine(toolUseID, name string) string {
	return Line(map[string]any{
		"type": "content_block_start",
		"content_block": map[string]any{
			"type": "tool_use",
			"id":   toolUseID,
			"name": name,
		},
	})
}

// ToolResultLine renders a tool_result marker.
func ToolResultLine(toolUseID string, content any, isError bool) string {
	m := map[string]any{
		"type":        "tool_result",
		"tool_use_id": toolUseID,
		"is_error":    isError,
	}
	if content != nil {
		m["content"] = content
	}

	return Line(m)
}

// ResultLine renders a terminal result marker.
func ResultLine(toolUseID, result string) string {
	return Line(map[string]any{
		"type":        "result",
		"subtype":     "success",
		"tool_use_id": toolUseID,
		"session_id":  "sess_" + uuid.NewString(),
		"result":      result,
	})
}

// AssistantTextLine renders an assistant message with one text block.
func AssistantTextLine(text string) string {
	return Line(map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"role": "assistant",
			"content": []any{
				map[string]any{"type": "text", "text": text},
			},
		},
	})
}

// Line marshals v and appends a newline. It panics on marshal failure.
func Line(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return string(b) + "\n"
}
