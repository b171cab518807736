// Package config loads claudebot.toml or claudebot.yaml and turns it into
// adapter options and runner configurations.
package config

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/sandbox"
	"github.com/yuri-xyz/claudebot/pkg/claude/options"
	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// DefaultPaths are searched in order when no config path is given.
var DefaultPaths = []string{"claudebot.toml", "claudebot.yaml", "claudebot.yml"}

// Config is the resolved claudebot configuration.
type Config struct {
	Agent   AgentConfig
	Adapter AdapterConfig
	Sandbox SandboxConfig
	MCP     MCPConfig
}

// AgentConfig holds per-session CLI settings.
type AgentConfig struct {
	Executable      string
	Model           string
	MaxTurns        int
	MaxBudgetUSD    float64
	SystemPrompt    string
	PermissionMode  options.PermissionMode
	AllowedTools    []string
	DisallowedTools []string
}

// AdapterConfig holds orchestrator settings.
type AdapterConfig struct {
	ExecOutputThrottle  time.Duration
	ForceKillTimeout    time.Duration
	AvailabilityTimeout time.Duration
	AutoApprove         []string
}

// SandboxConfig selects container execution.
type SandboxConfig struct {
	Runtime   sandbox.Runtime
	Container string
}

// MCPConfig points at an --mcp-config file.
type MCPConfig struct {
	ConfigPath string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Agent: AgentConfig{
			Executable: options.DefaultExecutable,
			Model:      options.DefaultModel,
		},
		Adapter: AdapterConfig{
			ExecOutputThrottle:  options.DefaultExecOutputThrottle,
			ForceKillTimeout:    options.DefaultForceKillTimeout,
			AvailabilityTimeout: options.DefaultAvailabilityTimeout,
		},
		Sandbox: SandboxConfig{Runtime: sandbox.RuntimeAuto},
	}
}

// Validate checks value ranges and enumerations.
func (c Config) Validate(path string) error {
	invalid := func(msg string) error {
		return clauderrs.NewConfigError(clauderrs.ErrCodeConfigInvalid, msg, nil, path)
	}

	if c.Agent.Executable == "" {
		return invalid("agent.executable must not be empty")
	}
	if !c.Agent.PermissionMode.Valid() {
		return invalid("agent.permission_mode must be default, acceptEdits, plan or bypassPermissions")
	}
	if c.Agent.MaxTurns < 0 {
		return invalid("agent.max_turns must not be negative")
	}
	if c.Agent.MaxBudgetUSD < 0 {
		return invalid("agent.max_budget_usd must not be negative")
	}
	if c.Adapter.ExecOutputThrottle <= 0 || c.Adapter.ForceKillTimeout <= 0 || c.Adapter.AvailabilityTimeout <= 0 {
		return invalid("adapter durations must be positive")
	}

	switch c.Sandbox.Runtime {
	case sandbox.RuntimeAuto, sandbox.RuntimeDocker, sandbox.RuntimePodman:
	default:
		return invalid("sandbox.runtime must be docker, podman or auto")
	}

	return nil
}

// AdapterOptions builds adapter options around spawner.
func (c Config) AdapterOptions(spawner ports.ProcessSpawner, log *zerolog.Logger) options.AdapterOptions {
	return options.AdapterOptions{
		Spawner:                     spawner,
		ExecOutputThrottle:          c.Adapter.ExecOutputThrottle,
		AdditionalAutoApprovedTools: c.Adapter.AutoApprove,
		Executable:                  c.Agent.Executable,
		Model:                       c.Agent.Model,
		Logger:                      log,
		ForceKillTimeout:            c.Adapter.ForceKillTimeout,
		AvailabilityTimeout:         c.Adapter.AvailabilityTimeout,
	}
}

// RunnerConfig builds the per-session configuration for prompt in cwd.
func (c Config) RunnerConfig(prompt, cwd string) options.RunnerConfig {
	cfg := options.RunnerConfig{
		Prompt:          prompt,
		Cwd:             cwd,
		PermissionMode:  c.Agent.PermissionMode,
		AllowedTools:    c.Agent.AllowedTools,
		DisallowedTools: c.Agent.DisallowedTools,
		MCPConfigPath:   c.MCP.ConfigPath,
		SystemPrompt:    c.Agent.SystemPrompt,
	}
	if c.Agent.MaxTurns > 0 {
		turns := c.Agent.MaxTurns
		cfg.MaxTurns = &turns
	}
	if c.Agent.MaxBudgetUSD > 0 {
		budget := c.Agent.MaxBudgetUSD
		cfg.MaxBudgetUSD = &budget
	}

	return cfg
}
