package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/pkg/logging"
)

// SSEClient implements the MCPClient interface using SSE transport.
// It connects to remote MCP servers using Server-Sent Events for communication.
type SSEClient struct {
	baseMCPClient
	name    string
	url     string
	headers map[string]string

	// stopStream ends the event stream, which outlives the connect context.
	stopStream context.CancelFunc
}

// NewSSEClient creates an SSE client for the named server. Headers are sent on
// every request.
func NewSSEClient(name, url string, headers map[string]string) *SSEClient {
	if headers == nil {
		headers = make(map[string]string)
	}
	return &SSEClient{
		name:    name,
		url:     url,
		headers: headers,
	}
}

// Initialize opens the event stream and performs the protocol handshake.
func (c *SSEClient) Initialize(ctx context.Context) error {
	if c.isConnected() {
		return nil
	}

	logging.Debug("SSEClient", "Creating SSE client for %s at %s", c.name, c.url)

	var opts []transport.ClientOption
	if len(c.headers) > 0 {
		opts = append(opts, transport.WithHeaders(c.headers))
		logging.Debug("SSEClient", "Configured %d custom headers", len(c.headers))
	}

	mcpClient, err := client.NewSSEMCPClient(c.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SSE client: %w", err)
	}
	if err := c.attach(mcpClient); err != nil {
		_ = mcpClient.Close()
		return err
	}

	// The stream lives until Close, not until the connect deadline.
	streamCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.stopStream = stop
	c.mu.Unlock()

	if err := startWithContext(ctx, streamCtx, mcpClient); err != nil {
		return fmt.Errorf("failed to start SSE transport: %w", err)
	}

	return c.handshake(ctx, "SSEClient", c.name)
}

// startWithContext starts the transport on streamCtx but gives up when ctx ends.
func startWithContext(ctx, streamCtx context.Context, c *client.Client) error {
	done := make(chan error, 1)
	go func() { done <- c.Start(streamCtx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the event stream and the session.
func (c *SSEClient) Close() error {
	c.mu.Lock()
	stop := c.stopStream
	c.stopStream = nil
	c.mu.Unlock()

	err := c.closeClient()
	if stop != nil {
		stop()
	}
	return err
}

func (c *SSEClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

func (c *SSEClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *SSEClient) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	return c.listResources(ctx)
}

func (c *SSEClient) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	return c.readResource(ctx, uri)
}

func (c *SSEClient) ListPrompts(ctx context.Context) ([]mcp.Prompt, error) {
	return c.listPrompts(ctx)
}

func (c *SSEClient) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	return c.getPrompt(ctx, name, args)
}

func (c *SSEClient) Ping(ctx context.Context) error {
	return c.ping(ctx)
}
