package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/internal/api"
	"mcphub/pkg/logging"
)

// ClientName is reported to servers in the initialize handshake.
const ClientName = "mcphub"

// ClientVersion is reported to servers in the initialize handshake. It is set
// from the build version at startup.
var ClientVersion = "dev"

// errClientClosed is returned when Initialize runs on a client that was
// already closed, for example by a connect timeout.
var errClientClosed = errors.New("client closed")

// MCPClient defines the interface for MCP client implementations.
// All transport types (stdio, SSE, streamable-http) implement this interface,
// enabling polymorphic usage and easier testing with fakes.
type MCPClient interface {
	// Initialize establishes the connection and performs protocol handshake
	Initialize(ctx context.Context) error
	// Close shuts down the connection. It must be safe to call while
	// Initialize is still running and more than once.
	Close() error
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
	ListResources(ctx context.Context) ([]mcp.Resource, error)
	ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error)
	ListPrompts(ctx context.Context) ([]mcp.Prompt, error)
	GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error)
	Ping(ctx context.Context) error
}

// Compile-time interface compliance checks
var (
	_ MCPClient = (*StdioClient)(nil)
	_ MCPClient = (*SSEClient)(nil)
	_ MCPClient = (*StreamableHTTPClient)(nil)
	_ MCPClient = (*SDKClient)(nil)
)

// baseMCPClient provides the protocol operations shared by every transport.
//
// The SDK client is attached as soon as it exists, before the handshake, so
// that Close can reach the transport while Initialize is still blocked. No
// lock is held across network I/O.
type baseMCPClient struct {
	mu        sync.RWMutex
	client    client.MCPClient
	connected bool
	closed    bool
}

// attach records a freshly built SDK client. It fails if Close already ran,
// in which case the caller owns c and must close it.
func (b *baseMCPClient) attach(c client.MCPClient) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errClientClosed
	}
	b.client = c
	return nil
}

// isConnected reports whether the handshake completed and Close has not run.
func (b *baseMCPClient) isConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// handshake sends the initialize request on the attached client.
func (b *baseMCPClient) handshake(ctx context.Context, subsystem, target string) error {
	b.mu.RLock()
	c := b.client
	b.mu.RUnlock()
	if c == nil {
		return errClientClosed
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: ClientName, Version: ClientVersion}
	req.Params.Capabilities = mcp.ClientCapabilities{}

	initResult, err := c.Initialize(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to initialize MCP protocol: %w", err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errClientClosed
	}
	b.connected = true
	b.mu.Unlock()

	logging.Debug(subsystem, "MCP protocol initialized for %s (server %s %s)",
		target, initResult.ServerInfo.Name, initResult.ServerInfo.Version)
	if initResult.Capabilities.Tools != nil {
		logging.Debug(subsystem, "Server %s supports tools", target)
	}
	if initResult.Capabilities.Resources != nil {
		logging.Debug(subsystem, "Server %s supports resources", target)
	}
	if initResult.Capabilities.Prompts != nil {
		logging.Debug(subsystem, "Server %s supports prompts", target)
	}
	return nil
}

// active returns the SDK client if the handshake completed.
func (b *baseMCPClient) active() (client.MCPClient, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.connected || b.client == nil {
		return nil, api.ErrNotConnected
	}
	return b.client, nil
}

// closeClient closes whatever SDK client is attached, connected or not.
// Subsequent calls are no-ops.
func (b *baseMCPClient) closeClient() error {
	b.mu.Lock()
	c := b.client
	b.client = nil
	b.connected = false
	b.closed = true
	b.mu.Unlock()

	if c == nil {
		return nil
	}
	return c.Close()
}

func (b *baseMCPClient) listTools(ctx context.Context) ([]mcp.Tool, error) {
	c, err := b.active()
	if err != nil {
		return nil, err
	}

	result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return result.Tools, nil
}

func (b *baseMCPClient) callTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	c, err := b.active()
	if err != nil {
		return nil, err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call tool: %w", err)
	}
	return result, nil
}

func (b *baseMCPClient) listResources(ctx context.Context) ([]mcp.Resource, error) {
	c, err := b.active()
	if err != nil {
		return nil, err
	}

	result, err := c.ListResources(ctx, mcp.ListResourcesRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return result.Resources, nil
}

func (b *baseMCPClient) readResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	c, err := b.active()
	if err != nil {
		return nil, err
	}

	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri

	result, err := c.ReadResource(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource: %w", err)
	}
	return result, nil
}

func (b *baseMCPClient) listPrompts(ctx context.Context) ([]mcp.Prompt, error) {
	c, err := b.active()
	if err != nil {
		return nil, err
	}

	result, err := c.ListPrompts(ctx, mcp.ListPromptsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	return result.Prompts, nil
}

func (b *baseMCPClient) getPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	c, err := b.active()
	if err != nil {
		return nil, err
	}

	req := mcp.GetPromptRequest{}
	req.Params.Name = name
	req.Params.Arguments = PromptArguments(args)

	result, err := c.GetPrompt(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return result, nil
}

func (b *baseMCPClient) ping(ctx context.Context) error {
	c, err := b.active()
	if err != nil {
		return err
	}
	return c.Ping(ctx)
}

// PromptArguments converts loosely typed arguments to the string map prompts
// take on the wire.
func PromptArguments(args map[string]interface{}) map[string]string {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]string, len(args))
	for k, v := range args {
		if str, ok := v.(string); ok {
			out[k] = str
		} else {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
