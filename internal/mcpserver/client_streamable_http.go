package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/pkg/logging"
)

// StreamableHTTPClient implements the MCPClient interface using StreamableHTTP transport.
// It connects to remote MCP servers using HTTP with streaming support.
type StreamableHTTPClient struct {
	baseMCPClient
	name    string
	url     string
	headers map[string]string
}

// NewStreamableHTTPClient creates a streamable HTTP client for the named server.
func NewStreamableHTTPClient(name, url string, headers map[string]string) *StreamableHTTPClient {
	if headers == nil {
		headers = make(map[string]string)
	}
	return &StreamableHTTPClient{
		name:    name,
		url:     url,
		headers: headers,
	}
}

// Initialize performs the protocol handshake over HTTP.
func (c *StreamableHTTPClient) Initialize(ctx context.Context) error {
	if c.isConnected() {
		return nil
	}

	logging.Debug("StreamableHTTPClient", "Creating StreamableHTTP client for %s at %s", c.name, c.url)

	var opts []transport.StreamableHTTPCOption
	if len(c.headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(c.headers))
		logging.Debug("StreamableHTTPClient", "Configured %d custom headers", len(c.headers))
	}

	mcpClient, err := client.NewStreamableHttpClient(c.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to create StreamableHTTP client: %w", err)
	}
	if err := c.attach(mcpClient); err != nil {
		_ = mcpClient.Close()
		return err
	}

	return c.handshake(ctx, "StreamableHTTPClient", c.name)
}

// Close ends the HTTP session.
func (c *StreamableHTTPClient) Close() error {
	return c.closeClient()
}

func (c *StreamableHTTPClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

func (c *StreamableHTTPClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *StreamableHTTPClient) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	return c.listResources(ctx)
}

func (c *StreamableHTTPClient) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	return c.readResource(ctx, uri)
}

func (c *StreamableHTTPClient) ListPrompts(ctx context.Context) ([]mcp.Prompt, error) {
	return c.listPrompts(ctx)
}

func (c *StreamableHTTPClient) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	return c.getPrompt(ctx, name, args)
}

func (c *StreamableHTTPClient) Ping(ctx context.Context) error {
	return c.ping(ctx)
}
