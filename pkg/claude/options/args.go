package options

import (
	"maps"
	"slices"
	"strconv"
)

// BuildArgs constructs the CLI arguments for cfg. model is used unless
// cfg.Model is set.
//
//nolint:revive // modifies-parameter: builder chain appends to args
func BuildArgs(cfg RunnerConfig, model string) []string {
	if cfg.Model != "" {
		model = cfg.Model
	}
	if model == "" {
		model = DefaultModel
	}

	args := []string{
		"--input-format", "stream-json",
		"--output-format", "stream-json",
		"--verbose",
		"--permission-prompt-tool", "stdio",
		"--model", model,
	}

	args = addSession(args, cfg)
	args = addLimits(args, cfg)
	args = addTools(args, cfg)
	args = addMCP(args, cfg)
	args = addSystemPrompt(args, cfg)

	return addExtraArgs(args, cfg)
}

// SpawnEnv returns the environment overlay for a session.
func SpawnEnv(cfg RunnerConfig) map[string]string {
	env := map[string]string{
		"NO_COLOR":               "1",
		"TERM":                   "dumb",
		"CLAUDE_CODE_ENTRYPOINT": "sdk-go",
	}
	maps.Copy(env, cfg.Env)

	return env
}

func addSession(args []string, cfg RunnerConfig) []string {
	if cfg.ResumeSessionID != "" {
		args = append(args, "--resume", cfg.ResumeSessionID)
	}
	if cfg.PermissionMode != "" {
		args = append(args, "--permission-mode", string(cfg.PermissionMode))
	}

	return args
}

func addLimits(args []string, cfg RunnerConfig) []string {
	if cfg.MaxTurns != nil {
		args = append(args, "--max-turns", strconv.Itoa(*cfg.MaxTurns))
	}
	if cfg.MaxBudgetUSD != nil {
		args = append(args, "--max-cost-usd", strconv.FormatFloat(*cfg.MaxBudgetUSD, 'f', -1, 64))
	}

	return args
}

func addTools(args []string, cfg RunnerConfig) []string {
	if len(cfg.AllowedTools) > 0 {
		args = append(args, "--allowedTools")
		args = append(args, cfg.AllowedTools...)
	}
	if len(cfg.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools")
		args = append(args, cfg.DisallowedTools...)
	}

	return args
}

func addMCP(args []string, cfg RunnerConfig) []string {
	if cfg.MCPConfigPath != "" {
		args = append(args, "--mcp-config", cfg.MCPConfigPath)
	}

	return args
}

func addSystemPrompt(args []string, cfg RunnerConfig) []string {
	if cfg.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", cfg.SystemPrompt)
	}

	return args
}

// addExtraArgs appends user flags in flag-name order.
func addExtraArgs(args []string, cfg RunnerConfig) []string {
	for _, flag := range slices.Sorted(maps.Keys(cfg.ExtraArgs)) {
		if value := cfg.ExtraArgs[flag]; value == nil {
			args = append(args, "--"+flag)
		} else {
			args = append(args, "--"+flag, *value)
		}
	}

	return args
}
