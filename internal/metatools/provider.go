package metatools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
	"mcphub/internal/mcpserver"
)

// ServerName is the name the meta-tools server is registered under by default.
const ServerName = "hub"

// Hub is the part of the hub the meta-tools need. *hub.Hub satisfies it.
type Hub interface {
	GetStatus() api.HubStatus
	GetServerStates() []api.ServerState
	GetServerState(name string) (api.ServerState, bool)
	AgentTools() []catalog.AgentTool
	GetResources() []catalog.Resource
	GetPrompts() []catalog.Prompt
	CallAgentTool(ctx context.Context, callID, qualifiedName string, args map[string]any, timeout time.Duration) api.ToolResult
	ReadResource(ctx context.Context, server, uri string) (*mcp.ReadResourceResult, error)
	Reconnect(ctx context.Context, name string) api.ReconnectResult
}

// Provider implements the meta-tools on top of a Hub.
//
// The Provider is stateless apart from its Hub and can be used concurrently.
type Provider struct {
	hub        Hub
	formatters *Formatters
}

// NewProvider creates a new meta-tools provider instance.
func NewProvider(h Hub) *Provider {
	return &Provider{
		hub:        h,
		formatters: NewFormatters(),
	}
}

// NewServer builds an MCP server exposing the provider's tools, the status
// resource and the diagnose prompt.
func (p *Provider) NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
	)

	s.AddTool(mcp.NewTool(ToolListTools,
		mcp.WithDescription("List all tools of the connected MCP servers under their mcp__<server>__<tool> names"),
		mcp.WithString("pattern", mcp.Description("Glob pattern matched against tool names, e.g. mcp__github__*")),
		mcp.WithBoolean("include_schema", mcp.Description("Include each tool's input schema")),
	), p.handleListTools)

	s.AddTool(mcp.NewTool(ToolDescribeTool,
		mcp.WithDescription("Get detailed information about a specific tool including its input schema"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Agent-facing tool name, mcp__<server>__<tool>")),
	), p.handleDescribeTool)

	s.AddTool(mcp.NewTool(ToolCallTool,
		mcp.WithDescription("Execute any tool by its mcp__<server>__<tool> name"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Agent-facing tool name, mcp__<server>__<tool>")),
		mcp.WithObject("arguments", mcp.Description("Arguments passed to the tool")),
	), p.handleCallTool)

	s.AddTool(mcp.NewTool(ToolListServers,
		mcp.WithDescription("List registered MCP servers with their connection status"),
	), p.handleListServers)

	s.AddTool(mcp.NewTool(ToolHubStatus,
		mcp.WithDescription("Report connected servers and capability totals"),
	), p.handleHubStatus)

	s.AddTool(mcp.NewTool(ToolReconnectServer,
		mcp.WithDescription("Disconnect and reconnect an MCP server"),
		mcp.WithString("server", mcp.Required(), mcp.Description("Server name")),
	), p.handleReconnectServer)

	s.AddTool(mcp.NewTool(ToolListResources,
		mcp.WithDescription("List resources of the connected MCP servers"),
	), p.handleListResources)

	s.AddTool(mcp.NewTool(ToolGetResource,
		mcp.WithDescription("Read a resource from the server that exposes it"),
		mcp.WithString("server", mcp.Required(), mcp.Description("Server name")),
		mcp.WithString("uri", mcp.Required(), mcp.Description("Resource URI")),
	), p.handleGetResource)

	s.AddTool(mcp.NewTool(ToolListPrompts,
		mcp.WithDescription("List prompts of the connected MCP servers"),
	), p.handleListPrompts)

	s.AddResource(mcp.NewResource(StatusResourceURI, "Hub status",
		mcp.WithResourceDescription("Connected servers and capability totals as JSON"),
		mcp.WithMIMEType("application/json"),
	), p.readStatusResource)

	s.AddPrompt(mcp.NewPrompt(PromptDiagnose,
		mcp.WithPromptDescription("Explain why an MCP server is not working and suggest a fix"),
		mcp.WithArgument("server", mcp.ArgumentDescription("Server name"), mcp.RequiredArgument()),
	), p.handleDiagnosePrompt)

	return s
}

// Factory returns an in-process factory serving the meta-tools of h. Each
// call builds a fresh server.
func Factory(h Hub, version string) api.InProcessFactory {
	return func() (api.InProcessServer, error) {
		return mcpserver.NewSDKServer(ServerName, NewProvider(h).NewServer(version)), nil
	}
}
