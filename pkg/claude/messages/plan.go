package messages

import "encoding/json"

// PlanAction is the caller's verdict on a proposed plan.
type PlanAction string

const (
	PlanApproved         PlanAction = "approved"
	PlanDenied           PlanAction = "denied"
	PlanChangesRequested PlanAction = "changes_requested"
)

// PlanResponse answers an ExitPlanMode request. UserNote is only sent for
// PlanChangesRequested.
type PlanResponse struct {
	Action   PlanAction `json:"action"`
	UserNote string     `json:"userNote,omitempty"`
}

// AllowedPrompt is a shell permission the plan asks for up front.
type AllowedPrompt struct {
	Tool   string `json:"tool"`
	Prompt string `json:"prompt"`
}

// PlanModeInput is the normalized ExitPlanMode input.
type PlanModeInput struct {
	PlanFilePath       string          `json:"planFilePath,omitempty"`
	Plan               string          `json:"plan,omitempty"`
	LaunchSwarm        *bool           `json:"launchSwarm,omitempty"`
	TeammateCount      *float64        `json:"teammateCount,omitempty"`
	AllowedPrompts     []AllowedPrompt `json:"allowedPrompts,omitempty"`
	PushToRemote       *bool           `json:"pushToRemote,omitempty"`
	RemoteSessionID    string          `json:"remoteSessionId,omitempty"`
	RemoteSessionURL   string          `json:"remoteSessionUrl,omitempty"`
	RemoteSessionTitle string          `json:"remoteSessionTitle,omitempty"`
}

type allowedPromptWire struct {
	Tool   *string `json:"tool"`
	Prompt *string `json:"prompt"`
}

type planModeWire struct {
	PlanFilePath       *string             `json:"planFilePath"`
	PlanFilePathSnake  *string             `json:"plan_file_path"`
	Plan               *string             `json:"plan"`
	LaunchSwarm        *bool               `json:"launchSwarm"`
	LaunchSwarmSnake   *bool               `json:"launch_swarm"`
	TeammateCount      *float64            `json:"teammateCount"`
	TeammateCountSnake *float64            `json:"teammate_count"`
	AllowedPrompts     []allowedPromptWire `json:"allowedPrompts"`
	AllowedSnake       []allowedPromptWire `json:"allowed_prompts"`
	PushToRemote       *bool               `json:"pushToRemote"`
	PushToRemoteSnake  *bool               `json:"push_to_remote"`
	RemoteID           *string             `json:"remoteSessionId"`
	RemoteIDSnake      *string             `json:"remote_session_id"`
	RemoteURL          *string             `json:"remoteSessionUrl"`
	RemoteURLSnake     *string             `json:"remote_session_url"`
	RemoteTitle        *string             `json:"remoteSessionTitle"`
	RemoteTitleSnake   *string             `json:"remote_session_title"`
}

// ExtractPlanModeInput decodes an ExitPlanMode input, accepting camelCase
// and snake_case spellings. camelCase wins when both are present. Unknown
// fields are ignored; a mistyped known field yields an empty result. The
// teammate count is any JSON number and is passed through unrounded.
func ExtractPlanModeInput(input json.RawMessage) PlanModeInput {
	var w planModeWire
	if len(input) == 0 || json.Unmarshal(input, &w) != nil {
		return PlanModeInput{}
	}

	prompts, ok := normalizePrompts(w.AllowedPrompts)
	if !ok {
		return PlanModeInput{}
	}
	snakePrompts, ok := normalizePrompts(w.AllowedSnake)
	if !ok {
		return PlanModeInput{}
	}
	if prompts == nil {
		prompts = snakePrompts
	}

	return PlanModeInput{
		PlanFilePath:       firstString(w.PlanFilePath, w.PlanFilePathSnake),
		Plan:               firstString(w.Plan, nil),
		LaunchSwarm:        firstOf(w.LaunchSwarm, w.LaunchSwarmSnake),
		TeammateCount:      firstOf(w.TeammateCount, w.TeammateCountSnake),
		AllowedPrompts:     prompts,
		PushToRemote:       firstOf(w.PushToRemote, w.PushToRemoteSnake),
		RemoteSessionID:    firstString(w.RemoteID, w.RemoteIDSnake),
		RemoteSessionURL:   firstString(w.RemoteURL, w.RemoteURLSnake),
		RemoteSessionTitle: firstString(w.RemoteTitle, w.RemoteTitleSnake),
	}
}

func normalizePrompts(in []allowedPromptWire) ([]AllowedPrompt, bool) {
	if in == nil {
		return nil, true
	}

	out := make([]AllowedPrompt, 0, len(in))
	for _, p := range in {
		if p.Tool == nil || *p.Tool != "Bash" || p.Prompt == nil {
			return nil, false
		}
		out = append(out, AllowedPrompt{Tool: *p.Tool, Prompt: *p.Prompt})
	}

	return out, true
}

func firstOf[T any](a, b *T) *T {
	if a != nil {
		return a
	}

	return b
}

func firstString(a, b *string) string {
	if v := firstOf(a, b); v != nil {
		return *v
	}

	return ""
}
