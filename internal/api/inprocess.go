package api

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// InProcessServer is a logical MCP server implemented by plain Go code in the
// same process. It exposes the same operations as a remote server without any
// transport.
type InProcessServer interface {
	// Start runs once when the server is registered or re-enabled.
	Start(ctx context.Context) error
	// Stop runs once when the server is removed or disabled.
	Stop(ctx context.Context) error

	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
	ListResources(ctx context.Context) ([]mcp.Resource, error)
	ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error)
	ListPrompts(ctx context.Context) ([]mcp.Prompt, error)
	GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error)
}
