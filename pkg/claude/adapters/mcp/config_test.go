package mcp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yuri-xyz/claudebot/pkg/claude/options"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

func TestWriteAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mcp.json")

	servers := []options.MCPServerConfig{
		&options.StdioServerConfig{Name: "claudebot", Command: "/usr/bin/claudebot", Args: []string{"mcp", "serve"}},
		&options.HTTPServerConfig{Name: "api", URL: "https://mcp.example.com", Headers: map[string]string{"Authorization": "Bearer x"}},
	}
	if err := WriteConfig(path, servers); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(loaded) != 2 || loaded[0].GetName() != "api" || loaded[1].GetName() != "claudebot" {
		t.Fatalf("loaded = %+v", loaded)
	}
	stdio, ok := loaded[1].(*options.StdioServerConfig)
	if !ok || stdio.Command != "/usr/bin/claudebot" || len(stdio.Args) != 2 {
		t.Errorf("stdio = %+v", loaded[1])
	}
	if httpCfg := loaded[0].(*options.HTTPServerConfig); httpCfg.Headers["Authorization"] != "Bearer x" {
		t.Errorf("http = %+v", httpCfg)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"untyped command is stdio", `{"mcpServers":{"fs":{"command":"mcp-fs"}}}`, "stdio", false},
		{"sse", `{"mcpServers":{"s":{"type":"sse","url":"http://x/sse"}}}`, "sse", false},
		{"unknown type", `{"mcpServers":{"s":{"type":"ws","url":"ws://x"}}}`, "", true},
		{"missing url", `{"mcpServers":{"s":{"type":"http"}}}`, "", true},
		{"malformed", `{"mcpServers":`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mcp.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o600); err != nil {
				t.Fatal(err)
			}

			got, err := LoadConfig(path)
			if tt.wantErr {
				if !clauderrs.IsConfigError(err) {
					t.Fatalf("expected config error, got %v", err)
				}

				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || got[0].GetType() != tt.want {
				t.Errorf("got = %+v", got)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); !clauderrs.IsConfigError(err) {
		t.Errorf("missing file error = %v", err)
	}
}
