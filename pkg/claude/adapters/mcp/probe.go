package mcp

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/exec"
	"slices"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yuri-xyz/claudebot/pkg/claude/options"
)

// DefaultProbeTimeout bounds each server probe.
const DefaultProbeTimeout = 10 * time.Second

// ProbeResult is the outcome of connecting to one MCP server.
type ProbeResult struct {
	Name  string
	Type  string
	Tools []string
	Err   error
}

// OK reports whether the server answered tools/list.
func (r ProbeResult) OK() bool {
	return r.Err == nil
}

// Probe connects to every server and lists its tools. Each probe is
// bounded by timeout; a zero timeout uses DefaultProbeTimeout.
func Probe(ctx context.Context, servers []options.MCPServerConfig, timeout time.Duration) []ProbeResult {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	results := make([]ProbeResult, len(servers))
	for i, srv := range servers {
		res := ProbeResult{Name: srv.GetName(), Type: srv.GetType()}

		transport, err := transportFor(srv)
		if err != nil {
			res.Err = err
		} else {
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			res.Tools, res.Err = listTools(probeCtx, transport)
			cancel()
		}
		results[i] = res
	}

	return results
}

// listTools connects through transport and returns the sorted tool names.
func listTools(ctx context.Context, transport sdk.Transport) ([]string, error) {
	client := sdk.NewClient(&sdk.Implementation{Name: "claudebot-probe", Version: "1.0.0"}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = session.Close() }()

	res, err := session.ListTools(ctx, &sdk.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	slices.Sort(names)

	return names, nil
}

func transportFor(srv options.MCPServerConfig) (sdk.Transport, error) {
	switch s := srv.(type) {
	case *options.StdioServerConfig:
		cmd := exec.Command(s.Command, s.Args...)
		cmd.Env = os.Environ()
		for _, k := range slices.Sorted(maps.Keys(s.Env)) {
			cmd.Env = append(cmd.Env, k+"="+s.Env[k])
		}

		return &sdk.CommandTransport{Command: cmd}, nil
	case *options.HTTPServerConfig:
		return &sdk.StreamableClientTransport{Endpoint: s.URL, HTTPClient: httpClient(s.Headers)}, nil
	case *options.SSEServerConfig:
		return &sdk.SSEClientTransport{Endpoint: s.URL, HTTPClient: httpClient(s.Headers)}, nil
	default:
		return nil, fmt.Errorf("unsupported mcp server config %T", srv)
	}
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	return t.base.RoundTrip(req)
}

func httpClient(headers map[string]string) *http.Client {
	if len(headers) == 0 {
		return http.DefaultClient
	}

	return &http.Client{Transport: &headerTransport{headers: headers, base: http.DefaultTransport}}
}
