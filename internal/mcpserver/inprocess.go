package mcpserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mcphub/internal/api"
	"mcphub/pkg/logging"
)

// InProcessAdapter serves an api.InProcessServer to the hub. Calls go straight
// to the server with no transport, timeout race, or reconnect. A panic inside
// the server is turned into an error.
type InProcessAdapter struct {
	name   string
	server api.InProcessServer

	mu      sync.Mutex
	started bool
}

// NewInProcessAdapter builds a fresh server from factory.
func NewInProcessAdapter(name string, factory api.InProcessFactory) (*InProcessAdapter, error) {
	if factory == nil {
		return nil, api.NewConfigError(name, "serverFactory", "is required for in-process servers")
	}

	srv, err := guard(name, "create", func() (api.InProcessServer, error) { return factory() })
	if err != nil {
		return nil, err
	}
	if srv == nil {
		return nil, fmt.Errorf("in-process server %s: factory returned nil", name)
	}
	return &InProcessAdapter{name: name, server: srv}, nil
}

// Name returns the server name the adapter was registered under.
func (a *InProcessAdapter) Name() string { return a.name }

// Start runs the server's start hook once.
func (a *InProcessAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return nil
	}
	if _, err := guard(a.name, "start", func() (struct{}, error) { return struct{}{}, a.server.Start(ctx) }); err != nil {
		return err
	}
	a.started = true
	logging.Debug("InProcess", "Started in-process server %s", a.name)
	return nil
}

// Stop runs the server's stop hook if Start succeeded.
func (a *InProcessAdapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}
	a.started = false
	_, err := guard(a.name, "stop", func() (struct{}, error) { return struct{}{}, a.server.Stop(ctx) })
	return err
}

func (a *InProcessAdapter) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return guard(a.name, "list tools", func() ([]mcp.Tool, error) { return a.server.ListTools(ctx) })
}

func (a *InProcessAdapter) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return guard(a.name, "call tool "+name, func() (*mcp.CallToolResult, error) { return a.server.CallTool(ctx, name, args) })
}

func (a *InProcessAdapter) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	return guard(a.name, "list resources", func() ([]mcp.Resource, error) { return a.server.ListResources(ctx) })
}

func (a *InProcessAdapter) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	return guard(a.name, "read resource", func() (*mcp.ReadResourceResult, error) { return a.server.ReadResource(ctx, uri) })
}

func (a *InProcessAdapter) ListPrompts(ctx context.Context) ([]mcp.Prompt, error) {
	return guard(a.name, "list prompts", func() ([]mcp.Prompt, error) { return a.server.ListPrompts(ctx) })
}

func (a *InProcessAdapter) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	return guard(a.name, "get prompt", func() (*mcp.GetPromptResult, error) { return a.server.GetPrompt(ctx, name, args) })
}

// guard runs fn and converts a panic into an error.
func guard[T any](server, op string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("InProcess", "In-process server %s panicked during %s: %v", server, op, r)
			err = fmt.Errorf("in-process server %s panicked during %s: %v", server, op, r)
		}
	}()
	return fn()
}

// SDKClient is an MCPClient bound to an mcp-go server living in the same
// process, using the SDK's in-process transport.
type SDKClient struct {
	baseMCPClient
	name   string
	server *server.MCPServer
}

// NewSDKClient creates a client for srv.
func NewSDKClient(name string, srv *server.MCPServer) *SDKClient {
	return &SDKClient{name: name, server: srv}
}

// Initialize starts the in-process transport and performs the handshake.
func (c *SDKClient) Initialize(ctx context.Context) error {
	if c.isConnected() {
		return nil
	}

	mcpClient, err := client.NewInProcessClient(c.server)
	if err != nil {
		return fmt.Errorf("failed to create in-process client: %w", err)
	}
	if err := c.attach(mcpClient); err != nil {
		_ = mcpClient.Close()
		return err
	}
	if err := mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start in-process transport: %w", err)
	}
	return c.handshake(ctx, "InProcess", c.name)
}

func (c *SDKClient) Close() error {
	return c.closeClient()
}

func (c *SDKClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

func (c *SDKClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *SDKClient) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	return c.listResources(ctx)
}

func (c *SDKClient) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	return c.readResource(ctx, uri)
}

func (c *SDKClient) ListPrompts(ctx context.Context) ([]mcp.Prompt, error) {
	return c.listPrompts(ctx)
}

func (c *SDKClient) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	return c.getPrompt(ctx, name, args)
}

func (c *SDKClient) Ping(ctx context.Context) error {
	return c.ping(ctx)
}

// SDKServer exposes an mcp-go server as an api.InProcessServer, so servers
// written against the SDK can be registered in-process.
type SDKServer struct {
	client *SDKClient
}

var _ api.InProcessServer = (*SDKServer)(nil)

// NewSDKServer wraps srv. The handshake happens in Start.
func NewSDKServer(name string, srv *server.MCPServer) *SDKServer {
	return &SDKServer{client: NewSDKClient(name, srv)}
}

func (s *SDKServer) Start(ctx context.Context) error { return s.client.Initialize(ctx) }
func (s *SDKServer) Stop(context.Context) error      { return s.client.Close() }

func (s *SDKServer) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return s.client.ListTools(ctx)
}

func (s *SDKServer) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return s.client.CallTool(ctx, name, args)
}

func (s *SDKServer) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	return s.client.ListResources(ctx)
}

func (s *SDKServer) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	return s.client.ReadResource(ctx, uri)
}

func (s *SDKServer) ListPrompts(ctx context.Context) ([]mcp.Prompt, error) {
	return s.client.ListPrompts(ctx)
}

func (s *SDKServer) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	return s.client.GetPrompt(ctx, name, args)
}
