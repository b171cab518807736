// Package mcp connects claudebot to the Model Context Protocol: it writes
// and reads --mcp-config files, probes the servers they list, and exposes
// an adapter's session operations as MCP tools.
package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/yuri-xyz/claudebot/pkg/claude/options"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// configFile is the --mcp-config document.
type configFile struct {
	MCPServers map[string]serverEntry `json:"mcpServers"`
}

type serverEntry struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// WriteConfig writes servers to path as an --mcp-config document,
// creating parent directories as needed.
func WriteConfig(path string, servers []options.MCPServerConfig) error {
	doc := configFile{MCPServers: make(map[string]serverEntry, len(servers))}

	for _, srv := range servers {
		entry, err := toEntry(srv)
		if err != nil {
			return err
		}
		doc.MCPServers[srv.GetName()] = entry
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return clauderrs.NewConfigError(clauderrs.ErrCodeConfigInvalid, "encode mcp config", err, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return clauderrs.NewConfigError(clauderrs.ErrCodeConfigRead, "create mcp config directory", err, path)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return clauderrs.NewConfigError(clauderrs.ErrCodeConfigRead, "write mcp config", err, path)
	}

	return nil
}

// LoadConfig reads an --mcp-config document. Servers are returned sorted
// by name. An entry without a type is stdio when it has a command.
func LoadConfig(path string) ([]options.MCPServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clauderrs.NewConfigError(clauderrs.ErrCodeConfigRead, "read mcp config", err, path)
	}

	var doc configFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, clauderrs.NewConfigError(clauderrs.ErrCodeConfigInvalid, "parse mcp config", err, path)
	}

	names := make([]string, 0, len(doc.MCPServers))
	for name := range doc.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)

	servers := make([]options.MCPServerConfig, 0, len(names))
	for _, name := range names {
		srv, err := fromEntry(name, doc.MCPServers[name])
		if err != nil {
			return nil, clauderrs.NewConfigError(clauderrs.ErrCodeConfigInvalid, err.Error(), nil, path)
		}
		servers = append(servers, srv)
	}

	return servers, nil
}

func toEntry(srv options.MCPServerConfig) (serverEntry, error) {
	switch s := srv.(type) {
	case *options.StdioServerConfig:
		return serverEntry{Type: s.GetType(), Command: s.Command, Args: s.Args, Env: s.Env}, nil
	case *options.SSEServerConfig:
		return serverEntry{Type: s.GetType(), URL: s.URL, Headers: s.Headers}, nil
	case *options.HTTPServerConfig:
		return serverEntry{Type: s.GetType(), URL: s.URL, Headers: s.Headers}, nil
	default:
		return serverEntry{}, clauderrs.NewValidationError(
			clauderrs.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported mcp server config %T", srv),
			nil,
			"mcpServers",
			srv.GetName(),
		)
	}
}

func fromEntry(name string, e serverEntry) (options.MCPServerConfig, error) {
	typ := e.Type
	if typ == "" && e.Command != "" {
		typ = "stdio"
	}

	switch typ {
	case "stdio":
		if e.Command == "" {
			return nil, fmt.Errorf("server %q: command is required", name)
		}

		return &options.StdioServerConfig{Name: name, Command: e.Command, Args: e.Args, Env: e.Env}, nil
	case "sse":
		if e.URL == "" {
			return nil, fmt.Errorf("server %q: url is required", name)
		}

		return &options.SSEServerConfig{Name: name, URL: e.URL, Headers: e.Headers}, nil
	case "http":
		if e.URL == "" {
			return nil, fmt.Errorf("server %q: url is required", name)
		}

		return &options.HTTPServerConfig{Name: name, URL: e.URL, Headers: e.Headers}, nil
	default:
		return nil, fmt.Errorf("server %q: unknown type %q", name, e.Type)
	}
}
