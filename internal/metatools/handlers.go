package metatools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/pkg/logging"
)

// handleListTools handles the list_tools meta-tool.
func (p *Provider) handleListTools(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern := req.GetString("pattern", "")
	includeSchema := req.GetBool("include_schema", false)

	all := p.hub.AgentTools()
	filtered, err := p.formatters.FilterTools(all, pattern)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	jsonData, err := p.formatters.FormatToolsListJSON(all, filtered, pattern, includeSchema)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(jsonData), nil
}

// handleDescribeTool handles the describe_tool meta-tool.
func (p *Provider) handleDescribeTool(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil || name == "" {
		return errorResult("name argument is required"), nil
	}

	tool := p.formatters.FindTool(p.hub.AgentTools(), name)
	if tool == nil {
		return errorResult(fmt.Sprintf("Tool not found: %s", name)), nil
	}

	jsonData, err := p.formatters.FormatToolDetailJSON(*tool)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(jsonData), nil
}

// handleCallTool handles the call_tool meta-tool. The hub's ToolResult is
// returned as JSON; a failed call is flagged isError.
func (p *Provider) handleCallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil || name == "" {
		return errorResult("name argument is required"), nil
	}

	var toolArgs map[string]any
	if raw := req.GetArguments()["arguments"]; raw != nil {
		var ok bool
		toolArgs, ok = raw.(map[string]any)
		if !ok {
			return errorResult("arguments must be a JSON object"), nil
		}
	}

	logging.Debug("MetaTools", "Calling %s", name)
	result := p.hub.CallAgentTool(ctx, "", name, toolArgs, 0)

	jsonData, err := json.Marshal(result)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize result: %v", err)), nil
	}
	if !result.Success {
		return errorResult(string(jsonData)), nil
	}
	return textResult(string(jsonData)), nil
}

// handleListServers handles the list_servers meta-tool.
func (p *Provider) handleListServers(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, err := p.formatters.FormatServersJSON(p.hub.GetServerStates())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(jsonData), nil
}

// handleHubStatus handles the hub_status meta-tool.
func (p *Provider) handleHubStatus(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, err := marshal(p.hub.GetStatus(), "status")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(jsonData), nil
}

// handleReconnectServer handles the reconnect_server meta-tool.
func (p *Provider) handleReconnectServer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("server")
	if err != nil || name == "" {
		return errorResult("server argument is required"), nil
	}
	if name == ServerName {
		return errorResult("the hub server cannot reconnect itself"), nil
	}

	res := p.hub.Reconnect(ctx, name)
	if !res.Success {
		return errorResult(fmt.Sprintf("Failed to reconnect %s: %s", name, res.Error)), nil
	}
	return textResult(fmt.Sprintf("Reconnected %s", name)), nil
}

// handleListResources handles the list_resources meta-tool.
func (p *Provider) handleListResources(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, err := p.formatters.FormatResourcesListJSON(p.hub.GetResources())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(jsonData), nil
}

// handleGetResource handles the get_resource meta-tool.
func (p *Provider) handleGetResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	server, err := req.RequireString("server")
	if err != nil || server == "" {
		return errorResult("server argument is required"), nil
	}
	uri, err := req.RequireString("uri")
	if err != nil || uri == "" {
		return errorResult("uri argument is required"), nil
	}

	res, err := p.hub.ReadResource(ctx, server, uri)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to read %s from %s: %v", uri, server, err)), nil
	}
	return textResult(ResourceText(res.Contents)), nil
}

// handleListPrompts handles the list_prompts meta-tool.
func (p *Provider) handleListPrompts(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, err := p.formatters.FormatPromptsListJSON(p.hub.GetPrompts())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(jsonData), nil
}

// readStatusResource serves hub://status.
func (p *Provider) readStatusResource(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonData, err := marshal(p.hub.GetStatus(), "status")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     jsonData,
		},
	}, nil
}

// handleDiagnosePrompt renders a prompt describing one server's state.
func (p *Provider) handleDiagnosePrompt(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := req.Params.Arguments["server"]
	if name == "" {
		return nil, fmt.Errorf("server argument is required")
	}

	state, ok := p.hub.GetServerState(name)
	if !ok {
		return nil, fmt.Errorf("mcp server %s not found", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The MCP server %q (%s transport) is %s.\n", state.Name, state.Kind, state.Status)
	if !state.Enabled {
		b.WriteString("It is disabled in the configuration.\n")
	}
	if state.LastError != "" {
		fmt.Fprintf(&b, "Its last error was: %s\n", state.LastError)
	}
	fmt.Fprintf(&b, "It currently exposes %d tools, %d resources and %d prompts.\n",
		state.ToolCount, state.ResourceCount, state.PromptCount)
	b.WriteString("Explain the most likely cause of this state and suggest how to fix it.")

	return mcp.NewGetPromptResult(
		fmt.Sprintf("Diagnose %s", name),
		[]mcp.PromptMessage{mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(b.String()))},
	), nil
}

// textResult creates a successful text result.
func textResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

// errorResult creates an error result.
func errorResult(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}
