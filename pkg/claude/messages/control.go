package messages

import (
	"encoding/json"

	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// SubtypeCanUseTool is the only inbound control request subtype handled.
const SubtypeCanUseTool = "can_use_tool"

// Permission behaviors written in control responses.
const (
	BehaviorAllow = "allow"
	BehaviorDeny  = "deny"
)

// ControlRequest asks whether the agent may use a tool.
//
// Wire shape:
//
//	{"type":"control_request","request_id":"...","request":{
//	    "subtype":"can_use_tool","tool_name":"Bash","input":{...},
//	    "tool_use_id":"...","permission_suggestions":[...],
//	    "decision_reason":"..."}}
type ControlRequest struct {
	RequestID      string                 `json:"requestId"`
	ToolName       string                 `json:"toolName"`
	ToolUseID      string                 `json:"toolUseId"`
	Input          json.RawMessage        `json:"input,omitempty"`
	DecisionReason string                 `json:"decisionReason,omitempty"`
	Suggestions    []PermissionSuggestion `json:"permissionSuggestions,omitempty"`
}

// SuggestionType discriminates PermissionSuggestion variants.
type SuggestionType string

const (
	SuggestionSetMode        SuggestionType = "setMode"
	SuggestionAddDirectories SuggestionType = "addDirectories"
	SuggestionAddRules       SuggestionType = "addRules"
)

// PermissionSuggestion is a permission change the CLI proposes alongside a
// request. Which fields are set depends on Type:
//
//	setMode:        Mode, Destination
//	addDirectories: Directories, Destination
//	addRules:       Rules, Behavior, Destination
type PermissionSuggestion struct {
	Type        SuggestionType   `json:"type"`
	Mode        string           `json:"mode,omitempty"`
	Directories []string         `json:"directories,omitempty"`
	Rules       []PermissionRule `json:"rules,omitempty"`
	Behavior    string           `json:"behavior,omitempty"`
	Destination string           `json:"destination"`
}

// PermissionRule is a single rule inside an addRules suggestion.
type PermissionRule struct {
	ToolName    string `json:"toolName"`
	RuleContent string `json:"ruleContent"`
}

type controlRequestWire struct {
	Type      *string `json:"type"`
	RequestID *string `json:"request_id"`
	Request   *struct {
		Subtype               *string           `json:"subtype"`
		ToolName              *string           `json:"tool_name"`
		Input                 json.RawMessage   `json:"input"`
		ToolUseID             *string           `json:"tool_use_id"`
		PermissionSuggestions []json.RawMessage `json:"permission_suggestions"`
		DecisionReason        *string           `json:"decision_reason"`
	} `json:"request"`
}

// ParseControlRequest decodes a can_use_tool control request. It reports
// false for anything else, including requests with missing or mistyped
// required fields. Suggestions that match no known variant are dropped.
func ParseControlRequest(raw json.RawMessage) (ControlRequest, bool) {
	var w controlRequestWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return ControlRequest{}, false
	}
	if w.Type == nil || *w.Type != TypeControlRequest || w.RequestID == nil || w.Request == nil {
		return ControlRequest{}, false
	}

	r := w.Request
	if r.Subtype == nil || *r.Subtype != SubtypeCanUseTool || r.ToolName == nil || r.ToolUseID == nil {
		return ControlRequest{}, false
	}

	req := ControlRequest{
		RequestID: *w.RequestID,
		ToolName:  *r.ToolName,
		ToolUseID: *r.ToolUseID,
	}
	if len(r.Input) > 0 && string(r.Input) != "null" {
		req.Input = r.Input
	}
	if r.DecisionReason != nil {
		req.DecisionReason = *r.DecisionReason
	}
	for _, s := range r.PermissionSuggestions {
		if sug, ok := parseSuggestion(s); ok {
			req.Suggestions = append(req.Suggestions, sug)
		}
	}

	return req, true
}

// InputMap decodes the request input as an object. Non-object inputs
// yield an empty map.
func (r ControlRequest) InputMap() map[string]any {
	return objectOrEmpty(r.Input)
}

// InputString returns the string field key of an object input.
func (r ControlRequest) InputString(key string) (string, bool) {
	v, ok := r.InputMap()[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)

	return s, ok
}

func parseSuggestion(raw json.RawMessage) (PermissionSuggestion, bool) {
	var w struct {
		Type        *string  `json:"type"`
		Mode        *string  `json:"mode"`
		Directories []string `json:"directories"`
		Rules       []struct {
			ToolName    *string `json:"toolName"`
			RuleContent *string `json:"ruleContent"`
		} `json:"rules"`
		Behavior    *string `json:"behavior"`
		Destination *string `json:"destination"`
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.Type == nil || w.Destination == nil {
		return PermissionSuggestion{}, false
	}

	s := PermissionSuggestion{Type: SuggestionType(*w.Type), Destination: *w.Destination}
	switch s.Type {
	case SuggestionSetMode:
		if w.Mode == nil {
			return PermissionSuggestion{}, false
		}
		s.Mode = *w.Mode
	case SuggestionAddDirectories:
		if w.Directories == nil {
			return PermissionSuggestion{}, false
		}
		s.Directories = w.Directories
	case SuggestionAddRules:
		if w.Rules == nil || w.Behavior == nil {
			return PermissionSuggestion{}, false
		}
		s.Behavior = *w.Behavior
		s.Rules = make([]PermissionRule, 0, len(w.Rules))
		for _, rule := range w.Rules {
			if rule.ToolName == nil || rule.RuleContent == nil {
				return PermissionSuggestion{}, false
			}
			s.Rules = append(s.Rules, PermissionRule{ToolName: *rule.ToolName, RuleContent: *rule.RuleContent})
		}
	default:
		return PermissionSuggestion{}, false
	}

	return s, true
}

type controlResponse struct {
	Type     string              `json:"type"`
	Response controlResponseBody `json:"response"`
}

type controlResponseBody struct {
	Subtype   string         `json:"subtype"`
	RequestID string         `json:"request_id"`
	Response  permissionBody `json:"response"`
}

type permissionBody struct {
	Behavior     string `json:"behavior"`
	UpdatedInput any    `json:"updatedInput,omitempty"`
}

// BuildAllowResponse allows a request, echoing input back unchanged as
// updatedInput. An empty input is echoed as null. Input that is not valid
// JSON fails with an encode error.
func BuildAllowResponse(requestID string, input json.RawMessage) (string, error) {
	updated := json.RawMessage("null")
	if len(input) > 0 {
		updated = input
	}

	return encodeResponse(requestID, permissionBody{Behavior: BehaviorAllow, UpdatedInput: updated})
}

// BuildDenyResponse denies a request.
func BuildDenyResponse(requestID string) (string, error) {
	return encodeResponse(requestID, permissionBody{Behavior: BehaviorDeny})
}

// BuildUserQuestionResponse allows an AskUserQuestion request with answers
// merged into the original input object.
func BuildUserQuestionResponse(requestID string, input json.RawMessage, answers UserQuestionAnswers) (string, error) {
	updated := objectOrEmpty(input)
	updated["answers"] = answers.normalize()

	return encodeResponse(requestID, permissionBody{Behavior: BehaviorAllow, UpdatedInput: updated})
}

// BuildPlanResponse answers an ExitPlanMode request. A denied plan is a
// deny response. Requested changes merge UserNote into the input object.
func BuildPlanResponse(requestID string, input json.RawMessage, resp PlanResponse) (string, error) {
	if resp.Action == PlanDenied {
		return BuildDenyResponse(requestID)
	}

	updated := objectOrEmpty(input)
	if resp.Action == PlanChangesRequested {
		updated["userNote"] = resp.UserNote
	}

	return encodeResponse(requestID, permissionBody{Behavior: BehaviorAllow, UpdatedInput: updated})
}

func encodeResponse(requestID string, body permissionBody) (string, error) {
	msg := controlResponse{
		Type: TypeControlResponse,
		Response: controlResponseBody{
			Subtype:   "success",
			RequestID: requestID,
			Response:  body,
		},
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return "", encodeError(TypeControlResponse, err).WithRequest("", requestID, "")
	}

	return string(b), nil
}

// encode marshals one outbound line of the given wire type.
func encode(messageType string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", encodeError(messageType, err)
	}

	return string(b), nil
}

func encodeError(messageType string, cause error) *clauderrs.ProtocolError {
	return clauderrs.NewProtocolError(
		clauderrs.ErrCodeEncodeFailed,
		"encode "+messageType,
		cause,
	).WithMessageType(messageType)
}

func objectOrEmpty(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}

	return out
}
