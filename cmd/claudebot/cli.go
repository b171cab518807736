package main

import (
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/mcp"
)

// CLI defines the command-line interface.
type CLI struct {
	Config     string           `short:"c" type:"path" env:"CLAUDEBOT_CONFIG" help:"Config file (claudebot.toml or claudebot.yaml)"`
	Executable string           `help:"Claude CLI executable (overrides agent.executable)"`
	Container  string           `help:"Run the CLI inside this container (overrides sandbox.container)"`
	Version    kong.VersionFlag `help:"Show version information"`

	Check CheckCmd `cmd:"" help:"Check the Claude CLI and configured MCP servers"`
	Run   RunCmd   `cmd:"" help:"Run one prompt and stream the session"`
	MCP   MCPCmd   `cmd:"" name:"mcp" help:"Expose claudebot over MCP"`
}

// CheckCmd probes the CLI version and, optionally, MCP servers.
type CheckCmd struct {
	MCPConfig string        `name:"mcp-config" type:"path" help:"Probe the servers in this file (defaults to mcp.config_path)"`
	Timeout   time.Duration `default:"10s" help:"Per-server probe timeout"`
}

// RunCmd starts a session for a prompt.
type RunCmd struct {
	Prompt         []string `arg:"" help:"Prompt text"`
	Cwd            string   `type:"existingdir" help:"Working directory for the session"`
	Model          string   `short:"m" help:"Model override"`
	Resume         string   `help:"Resume this CLI session id"`
	PermissionMode string   `help:"Permission mode (default, acceptEdits, plan, bypassPermissions)"`
	MaxTurns       int      `help:"Maximum agentic turns"`
	AllowAll       bool     `help:"Allow every permission request and approve plans without prompting"`
	Quiet          bool     `short:"q" help:"Do not print streamed tool output"`
}

// MCPCmd groups the MCP subcommands.
type MCPCmd struct {
	Serve  MCPServeCmd  `cmd:"" help:"Serve session control tools over stdio"`
	Config MCPConfigCmd `cmd:"" help:"Write an --mcp-config file pointing at this binary"`
}

// MCPServeCmd serves the control surface.
type MCPServeCmd struct {
	Events int `default:"${events}" help:"Events retained for poll_events"`
}

// MCPConfigCmd writes an mcp-config entry for claudebot.
type MCPConfigCmd struct {
	Output string   `short:"o" type:"path" default:".mcp.json" help:"Config file to write or update"`
	Name   string   `default:"${server}" help:"Server name in the config"`
	Args   []string `help:"Extra arguments placed before 'mcp serve'"`
}

func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
		"events":  strconv.Itoa(mcp.DefaultEventCapacity),
		"server":  mcp.ServerName,
	}
}
