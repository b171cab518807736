package main

import (
	"strings"

	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/mcp"
)

// Run reports CLI availability, version compatibility and, when an
// mcp-config is known, whether each server lists its tools.
func (c *CheckCmd) Run(e *env) error {
	a, err := e.adapter()
	if err != nil {
		return err
	}

	failed := false

	res := a.CheckAvailability(e.ctx)
	switch {
	case !res.Available:
		printf(e.stdout, "claude: unavailable: %v\n", res.Err)
		failed = true
	case res.Compatibility != nil && !res.Compatibility.IsCompatible:
		printf(e.stdout, "claude: %s\n  warning: %s\n", res.Version, res.Compatibility.Warning)
	default:
		printf(e.stdout, "claude: %s (supported %s)\n", res.Version, res.Compatibility.Supported.Raw)
	}

	path := c.MCPConfig
	if path == "" {
		path = e.cfg.MCP.ConfigPath
	}
	if path != "" {
		servers, err := mcp.LoadConfig(path)
		if err != nil {
			return err
		}

		for _, r := range mcp.Probe(e.ctx, servers, c.Timeout) {
			if !r.OK() {
				printf(e.stdout, "mcp %s (%s): %v\n", r.Name, r.Type, r.Err)
				failed = true

				continue
			}
			printf(e.stdout, "mcp %s (%s): %d tools %s\n", r.Name, r.Type, len(r.Tools), strings.Join(r.Tools, ", "))
		}
	}

	if failed {
		return exitCode(1)
	}

	return nil
}
