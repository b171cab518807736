package main

import (
	"errors"
	"os"
	"slices"

	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/mcp"
	"github.com/yuri-xyz/claudebot/pkg/claude/options"
)

// Run serves the control tools on stdin/stdout until the client hangs up.
func (c *MCPServeCmd) Run(e *env) error {
	a, err := e.adapter()
	if err != nil {
		return err
	}
	defer a.CleanupAll()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	srv := mcp.NewControlServer(a, version,
		mcp.WithDefaults(e.cfg.RunnerConfig("", wd)),
		mcp.WithEventCapacity(c.Events),
	)
	defer srv.Close()

	e.log.Info().Str("version", version).Msg("serving MCP control tools on stdio")

	return srv.ServeStdio()
}

// Run writes or updates the output file with an entry launching
// "claudebot mcp serve". Other servers in the file are kept.
func (c *MCPConfigCmd) Run(e *env) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	servers, err := mcp.LoadConfig(c.Output)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	entry := serveEntry(c.Name, exe, c.Args)
	servers = slices.DeleteFunc(servers, func(s options.MCPServerConfig) bool {
		return s.GetName() == c.Name
	})
	servers = append(servers, entry)

	if err := mcp.WriteConfig(c.Output, servers); err != nil {
		return err
	}
	printf(e.stdout, "wrote %s (%d servers)\n", c.Output, len(servers))

	return nil
}

func serveEntry(name, exe string, extra []string) *options.StdioServerConfig {
	args := append(slices.Clone(extra), "mcp", "serve")

	return &options.StdioServerConfig{Name: name, Command: exe, Args: args}
}
