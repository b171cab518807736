package messages

import (
	"encoding/json"
	"strings"
)

// AssistantText returns the concatenated text blocks of an assistant
// message. It reports false for any other message.
//
// Example input:
//
//	{"type":"assistant","message":{"content":[{"type":"text","text":"Hi"}]}}
func AssistantText(raw json.RawMessage) (string, bool) {
	var w struct {
		Type    string `json:"type"`
		Message struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.Type != TypeAssistant {
		return "", false
	}

	var b strings.Builder
	for _, block := range w.Message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	return b.String(), true
}

// AssistantToolUses returns the tool_use blocks of an assistant message.
func AssistantToolUses(raw json.RawMessage) []ToolUseStart {
	var w struct {
		Type    string `json:"type"`
		Message struct {
			Content []struct {
				Type string `json:"type"`
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.Type != TypeAssistant {
		return nil
	}

	var out []ToolUseStart
	for _, block := range w.Message.Content {
		if block.Type == "tool_use" {
			out = append(out, ToolUseStart{ID: block.ID, Name: block.Name})
		}
	}

	return out
}

// Result is the terminal summary the CLI prints when a turn ends.
type Result struct {
	Subtype      string  `json:"subtype"`
	IsError      bool    `json:"is_error"`
	Result       string  `json:"result"`
	SessionID    string  `json:"session_id"`
	NumTurns     int     `json:"num_turns"`
	DurationMS   int64   `json:"duration_ms"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// ParseResult decodes a turn-ending result message.
func ParseResult(raw json.RawMessage) (Result, bool) {
	var w struct {
		Type string `json:"type"`
		Result
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.Type != TypeResult {
		return Result{}, false
	}

	return w.Result, true
}

// SystemInit is the first message of a session.
type SystemInit struct {
	SessionID string   `json:"session_id"`
	Model     string   `json:"model"`
	Cwd       string   `json:"cwd"`
	Tools     []string `json:"tools"`
}

// ParseSystemInit decodes a system init message.
func ParseSystemInit(raw json.RawMessage) (SystemInit, bool) {
	var w struct {
		Type    string `json:"type"`
		Subtype string `json:"subtype"`
		SystemInit
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.Type != "system" || w.Subtype != "init" {
		return SystemInit{}, false
	}

	return w.SystemInit, true
}
