package mcpserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/pkg/logging"
)

// StdioClient implements the MCPClient interface using stdio transport.
// It manages a local subprocess that communicates via stdin/stdout.
type StdioClient struct {
	baseMCPClient
	name    string
	command string
	args    []string
	env     map[string]string
}

// NewStdioClient creates a stdio client for the named server. The subprocess
// is not started until Initialize.
func NewStdioClient(name, command string, args []string, env map[string]string) *StdioClient {
	return &StdioClient{
		name:    name,
		command: command,
		args:    args,
		env:     env,
	}
}

// Initialize spawns the subprocess and performs the protocol handshake.
func (c *StdioClient) Initialize(ctx context.Context) error {
	if c.isConnected() {
		return nil
	}

	logging.Debug("StdioClient", "Starting %s: %s %v", c.name, c.command, c.args)

	mcpClient, err := client.NewStdioMCPClient(c.command, envSlice(c.env), c.args...)
	if err != nil {
		return fmt.Errorf("failed to start stdio server %s: %w", c.name, err)
	}
	if err := c.attach(mcpClient); err != nil {
		_ = mcpClient.Close()
		return err
	}

	if stderr, ok := client.GetStderr(mcpClient); ok {
		go forwardStderr(c.name, stderr)
	}

	if err := c.handshake(ctx, "StdioClient", c.name); err != nil {
		logging.Debug("StdioClient", "Handshake with %s failed: %v", c.name, err)
		return err
	}
	return nil
}

// Close terminates the subprocess.
func (c *StdioClient) Close() error {
	return c.closeClient()
}

func (c *StdioClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

func (c *StdioClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *StdioClient) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	return c.listResources(ctx)
}

func (c *StdioClient) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	return c.readResource(ctx, uri)
}

func (c *StdioClient) ListPrompts(ctx context.Context) ([]mcp.Prompt, error) {
	return c.listPrompts(ctx)
}

func (c *StdioClient) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	return c.getPrompt(ctx, name, args)
}

func (c *StdioClient) Ping(ctx context.Context) error {
	return c.ping(ctx)
}

// envSlice renders env overrides as KEY=VALUE pairs in a stable order.
func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return out
}

// forwardStderr copies subprocess stderr into debug logs until the pipe closes.
func forwardStderr(name string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		logging.Debug("StdioServer", "[%s] %s", name, scanner.Text())
	}
}
