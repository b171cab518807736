package permissions

import (
	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
)

// Route is how a control request must be handled.
type Route int

const (
	// RoutePrompt holds the request until the caller allows or denies it.
	RoutePrompt Route = iota
	// RouteUserQuestion holds the request until the caller answers.
	RouteUserQuestion
	// RouteEnterPlanMode is announced and allowed immediately.
	RouteEnterPlanMode
	// RouteAutoApprove is allowed immediately.
	RouteAutoApprove
	// RouteExitPlanMode holds the request until the caller reviews the plan.
	RouteExitPlanMode
)

// String returns the route name.
func (r Route) String() string {
	switch r {
	case RoutePrompt:
		return "prompt"
	case RouteUserQuestion:
		return "user_question"
	case RouteEnterPlanMode:
		return "enter_plan_mode"
	case RouteAutoApprove:
		return "auto_approve"
	case RouteExitPlanMode:
		return "exit_plan_mode"
	default:
		return "unknown"
	}
}

// Pending reports whether the route waits for a caller response.
func (r Route) Pending() bool {
	return r == RoutePrompt || r == RouteUserQuestion || r == RouteExitPlanMode
}

// Decision is the full routing outcome for one request.
type Decision struct {
	Route Route
	// StreamingExec is set for shell-like tools whose output is tracked,
	// independent of Route.
	StreamingExec bool
	// PlanFilePath is set when the request writes a plan file.
	PlanFilePath string
}

// Config holds permission service configuration.
type Config struct {
	// AdditionalAutoApproved extends the default auto-approved tools.
	AdditionalAutoApproved []string
}

// Service routes control requests.
type Service struct {
	autoApproved ToolSet
}

// NewService creates a new permissions service.
func NewService(config *Config) *Service {
	if config == nil {
		config = &Config{}
	}

	return &Service{autoApproved: NewAutoApprovedSet(config.AdditionalAutoApproved...)}
}

// AutoApproved returns the effective auto-approved tool set.
func (s *Service) AutoApproved() ToolSet {
	return s.autoApproved
}

// ShouldAutoApprove reports whether req's tool is in the auto-approved set.
func (s *Service) ShouldAutoApprove(req messages.ControlRequest) bool {
	return ShouldAutoApprove(req, s.autoApproved)
}

// Decide routes req. Precedence: AskUserQuestion, EnterPlanMode,
// auto-approved tools, ExitPlanMode, then a plain prompt.
func (s *Service) Decide(req messages.ControlRequest) Decision {
	d := Decision{
		Route:         s.route(req),
		StreamingExec: IsStreamingExecTool(req.ToolName),
	}

	if req.ToolName == ToolWrite {
		if path, ok := req.InputString("file_path"); ok && IsPlanFilePath(path) {
			d.PlanFilePath = path
		}
	}

	return d
}

func (s *Service) route(req messages.ControlRequest) Route {
	switch {
	case IsAskUserQuestion(req):
		return RouteUserQuestion
	case IsEnterPlanMode(req):
		return RouteEnterPlanMode
	case s.ShouldAutoApprove(req):
		return RouteAutoApprove
	case IsExitPlanMode(req):
		return RouteExitPlanMode
	default:
		return RoutePrompt
	}
}

// ShouldAutoApprove reports whether req's tool name is in set.
func ShouldAutoApprove(req messages.ControlRequest, set ToolSet) bool {
	return set.Has(req.ToolName)
}

// IsAskUserQuestion reports whether req is an AskUserQuestion call.
func IsAskUserQuestion(req messages.ControlRequest) bool {
	return req.ToolName == ToolAskUserQuestion
}

// IsEnterPlanMode reports whether req is an EnterPlanMode call.
func IsEnterPlanMode(req messages.ControlRequest) bool {
	return req.ToolName == ToolEnterPlanMode
}

// IsExitPlanMode reports whether req is an ExitPlanMode call.
func IsExitPlanMode(req messages.ControlRequest) bool {
	return req.ToolName == ToolExitPlanMode
}
