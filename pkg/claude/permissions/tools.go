// Package permissions decides how a tool permission request is routed:
// answered automatically, turned into a question or plan review for the
// user, or surfaced as a plain permission prompt.
package permissions

import (
	"slices"
	"strings"
)

// Tool names with dedicated handling.
const (
	ToolAskUserQuestion = "AskUserQuestion"
	ToolEnterPlanMode   = "EnterPlanMode"
	ToolExitPlanMode    = "ExitPlanMode"
	ToolWrite           = "Write"
)

// planDirMarker identifies files written into the agent's plan directory.
const planDirMarker = ".claude/plans/"

var defaultAutoApproved = []string{
	"Config",
	"Skill",
	"TodoWrite",
	"TodoRead",
	"TaskCreate",
	"TaskUpdate",
	"TaskGet",
	"TaskList",
	"TaskOutput",
	"TaskStop",
	"KillShell",
	"Task",
	"Agent",
	"ListMcpResources",
	"ReadMcpResource",
	"WebFetch",
	"WebSearch",
}

var streamingExecTools = []string{"Bash", "EXEC"}

// DefaultAutoApprovedTools returns the built-in low-risk tool names.
func DefaultAutoApprovedTools() []string {
	return slices.Clone(defaultAutoApproved)
}

// ToolSet is a set of tool names.
type ToolSet map[string]struct{}

// NewAutoApprovedSet returns the default set extended with additional.
func NewAutoApprovedSet(additional ...string) ToolSet {
	set := make(ToolSet, len(defaultAutoApproved)+len(additional))
	for _, name := range defaultAutoApproved {
		set[name] = struct{}{}
	}
	for _, name := range additional {
		if name != "" {
			set[name] = struct{}{}
		}
	}

	return set
}

// Has reports whether name is in the set.
func (s ToolSet) Has(name string) bool {
	_, ok := s[name]

	return ok
}

// Names returns the set members in sorted order.
func (s ToolSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// IsStreamingExecTool reports whether name produces incremental shell output.
func IsStreamingExecTool(name string) bool {
	return slices.Contains(streamingExecTools, name)
}

// IsPlanFilePath reports whether path lies inside a .claude/plans directory.
func IsPlanFilePath(path string) bool {
	return strings.Contains(path, planDirMarker)
}
