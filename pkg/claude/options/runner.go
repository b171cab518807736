package options

import (
	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// RunnerConfig configures one CLI session.
type RunnerConfig struct {
	// Prompt is the first user turn.
	Prompt string
	// PromptBlocks replaces Prompt with explicit content blocks.
	PromptBlocks []messages.ContentBlock

	// Cwd is the session's working directory.
	Cwd string
	// ExecutablePath overrides the adapter's executable.
	ExecutablePath string
	// ResumeSessionID resumes an earlier CLI session.
	ResumeSessionID string

	PermissionMode  PermissionMode
	MaxTurns        *int
	MaxBudgetUSD    *float64
	AllowedTools    []string
	DisallowedTools []string
	MCPConfigPath   string
	SystemPrompt    string
	// Model overrides the adapter's model.
	Model string

	// Env is overlaid on the spawn environment.
	Env map[string]string
	// ExtraArgs passes additional flags; nil values are boolean flags.
	ExtraArgs map[string]*string
}

// Validate checks the configuration before spawning.
func (c RunnerConfig) Validate() error {
	if c.Prompt == "" && len(c.PromptBlocks) == 0 {
		return clauderrs.NewValidationError(
			clauderrs.ErrCodeMissingField,
			"prompt is required",
			nil,
			"prompt",
			c.Prompt,
		)
	}
	if !c.PermissionMode.Valid() {
		return clauderrs.NewValidationError(
			clauderrs.ErrCodeInvalidFormat,
			"unknown permission mode",
			nil,
			"permission_mode",
			string(c.PermissionMode),
		)
	}
	if c.MaxTurns != nil && *c.MaxTurns <= 0 {
		return clauderrs.NewValidationError(
			clauderrs.ErrCodeInvalidFormat,
			"max turns must be positive",
			nil,
			"max_turns",
			*c.MaxTurns,
		)
	}
	if c.MaxBudgetUSD != nil && *c.MaxBudgetUSD < 0 {
		return clauderrs.NewValidationError(
			clauderrs.ErrCodeInvalidFormat,
			"max budget must not be negative",
			nil,
			"max_budget_usd",
			*c.MaxBudgetUSD,
		)
	}

	return nil
}

// UserMessage returns the wire encoding of the first user turn.
func (c RunnerConfig) UserMessage() (string, error) {
	if len(c.PromptBlocks) > 0 {
		return messages.BuildUserContentMessage(c.PromptBlocks)
	}

	return messages.BuildUserMessage(c.Prompt)
}
