package options

// MCPServerConfig is the interface for all MCP server configurations
// written to an --mcp-config file.
type MCPServerConfig interface {
	mcpServerConfig()
	// GetName returns the server identifier.
	GetName() string
	// GetType returns the transport type: stdio, sse or http.
	GetType() string
}

// StdioServerConfig configures an external MCP server via subprocess.
// The server communicates over stdin/stdout using the stdio transport.
type StdioServerConfig struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
}

func (*StdioServerConfig) mcpServerConfig()  {}
func (c *StdioServerConfig) GetName() string { return c.Name }
func (*StdioServerConfig) GetType() string   { return "stdio" }

// SSEServerConfig configures an external MCP server via Server-Sent Events.
type SSEServerConfig struct {
	Name    string
	URL     string
	Headers map[string]string
}

func (*SSEServerConfig) mcpServerConfig()  {}
func (c *SSEServerConfig) GetName() string { return c.Name }
func (*SSEServerConfig) GetType() string   { return "sse" }

// HTTPServerConfig configures an external MCP server via streamable HTTP.
type HTTPServerConfig struct {
	Name    string
	URL     string
	Headers map[string]string
}

func (*HTTPServerConfig) mcpServerConfig()  {}
func (c *HTTPServerConfig) GetName() string { return c.Name }
func (*HTTPServerConfig) GetType() string   { return "http" }
