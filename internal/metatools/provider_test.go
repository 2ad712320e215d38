package metatools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
	"mcphub/internal/hub"
	"mcphub/internal/mcpserver"
)

type fakeHub struct {
	states      []api.ServerState
	tools       []catalog.AgentTool
	resources   []catalog.Resource
	prompts     []catalog.Prompt
	lastCall    string
	lastArgs    map[string]any
	callResult  api.ToolResult
	reconnected []string
}

func (f *fakeHub) GetStatus() api.HubStatus {
	return api.HubStatus{ConnectedServers: []string{"github"}, InProcessServers: []string{"hub"}, ToolCount: len(f.tools)}
}

func (f *fakeHub) GetServerStates() []api.ServerState { return f.states }

func (f *fakeHub) GetServerState(name string) (api.ServerState, bool) {
	for _, s := range f.states {
		if s.Name == name {
			return s, true
		}
	}
	return api.ServerState{}, false
}

func (f *fakeHub) AgentTools() []catalog.AgentTool  { return f.tools }
func (f *fakeHub) GetResources() []catalog.Resource { return f.resources }
func (f *fakeHub) GetPrompts() []catalog.Prompt     { return f.prompts }

func (f *fakeHub) CallAgentTool(_ context.Context, _ string, name string, args map[string]any, _ time.Duration) api.ToolResult {
	f.lastCall, f.lastArgs = name, args
	return f.callResult
}

func (f *fakeHub) ReadResource(_ context.Context, server, uri string) (*mcp.ReadResourceResult, error) {
	if server != "github" {
		return nil, api.NewServerNotFoundError(server)
	}
	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{mcp.TextResourceContents{URI: uri, Text: "readme"}},
	}, nil
}

func (f *fakeHub) Reconnect(_ context.Context, name string) api.ReconnectResult {
	if name == "broken" {
		return api.ReconnectResult{Success: false, Error: "spawn failed"}
	}
	f.reconnected = append(f.reconnected, name)
	return api.ReconnectResult{Success: true}
}

func newFakeHub() *fakeHub {
	return &fakeHub{
		states: []api.ServerState{
			{Name: "github", Kind: api.TransportStdio, Enabled: true, Status: api.StatusConnected, ToolCount: 2},
			{Name: "remote", Kind: api.TransportHTTPStreamable, Enabled: true, Status: api.StatusError, LastError: "connection to remote timed out after 30s"},
		},
		tools: []catalog.AgentTool{
			{Name: "mcp__github__create_issue", Description: "[MCP:github] Create an issue", ServerName: "github", ToolName: "create_issue", InputSchema: json.RawMessage(`{"type":"object"}`)},
			{Name: "mcp__github__list_issues", Description: "[MCP:github] List issues", ServerName: "github", ToolName: "list_issues"},
		},
		resources:  []catalog.Resource{{URI: "repo://readme", Name: "readme", ServerName: "github"}},
		callResult: api.ToolResult{CallID: "c1", Success: true, Output: "created #1"},
	}
}

// startServer runs the meta-tools server in process and returns a started
// client-side handle.
func startServer(t *testing.T, h Hub) *mcpserver.SDKServer {
	t.Helper()
	srv := mcpserver.NewSDKServer(ServerName, NewProvider(h).NewServer("test"))
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return srv
}

func callText(t *testing.T, srv *mcpserver.SDKServer, tool string, args map[string]interface{}) (string, bool) {
	t.Helper()
	res, err := srv.CallTool(context.Background(), tool, args)
	require.NoError(t, err)
	return hub.ContentToText(res.Content), res.IsError
}

func TestServer_ListsItsCapabilities(t *testing.T) {
	srv := startServer(t, newFakeHub())

	tools, err := srv.ListTools(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		ToolListTools, ToolDescribeTool, ToolCallTool, ToolListServers, ToolHubStatus,
		ToolReconnectServer, ToolListResources, ToolGetResource, ToolListPrompts,
	}, names)

	resources, err := srv.ListResources(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, StatusResourceURI, resources[0].URI)

	prompts, err := srv.ListPrompts(context.Background())
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, PromptDiagnose, prompts[0].Name)
}

func TestListTools(t *testing.T) {
	srv := startServer(t, newFakeHub())

	text, isErr := callText(t, srv, ToolListTools, map[string]interface{}{"pattern": "*create*", "include_schema": true})
	require.False(t, isErr, text)

	var resp ListToolsResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, 2, resp.TotalTools)
	assert.Equal(t, 1, resp.FilteredCount)
	require.Len(t, resp.Tools, 1)
	assert.Equal(t, "mcp__github__create_issue", resp.Tools[0].Name)
	assert.Equal(t, "github", resp.Tools[0].Server)
	assert.NotNil(t, resp.Tools[0].InputSchema)

	text, isErr = callText(t, srv, ToolListTools, map[string]interface{}{"pattern": "[bad"})
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid pattern")
}

func TestDescribeTool(t *testing.T) {
	srv := startServer(t, newFakeHub())

	text, isErr := callText(t, srv, ToolDescribeTool, map[string]interface{}{"name": "mcp__github__create_issue"})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"inputSchema"`)

	text, isErr = callText(t, srv, ToolDescribeTool, map[string]interface{}{"name": "mcp__github__nope"})
	assert.True(t, isErr)
	assert.Contains(t, text, "Tool not found")
}

func TestCallTool(t *testing.T) {
	h := newFakeHub()
	srv := startServer(t, h)

	text, isErr := callText(t, srv, ToolCallTool, map[string]interface{}{
		"name":      "mcp__github__create_issue",
		"arguments": map[string]interface{}{"title": "bug"},
	})
	require.False(t, isErr, text)
	assert.Equal(t, "mcp__github__create_issue", h.lastCall)
	assert.Equal(t, "bug", h.lastArgs["title"])

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "created #1", result["output"])

	h.callResult = api.ToolResult{CallID: "c2", Success: false, Error: "MCP server github is disabled"}
	text, isErr = callText(t, srv, ToolCallTool, map[string]interface{}{"name": "mcp__github__create_issue"})
	assert.True(t, isErr)
	assert.Contains(t, text, "disabled")

	text, isErr = callText(t, srv, ToolCallTool, map[string]interface{}{"name": "mcp__github__create_issue", "arguments": "nope"})
	assert.True(t, isErr)
	assert.Equal(t, "arguments must be a JSON object", text)
}

func TestListServersAndStatus(t *testing.T) {
	srv := startServer(t, newFakeHub())

	text, isErr := callText(t, srv, ToolListServers, nil)
	require.False(t, isErr, text)

	var servers []ServerInfo
	require.NoError(t, json.Unmarshal([]byte(text), &servers))
	require.Len(t, servers, 2)
	assert.Equal(t, "error", servers[1].Status)
	assert.Contains(t, servers[1].LastError, "timed out")

	text, isErr = callText(t, srv, ToolHubStatus, nil)
	require.False(t, isErr, text)
	var status api.HubStatus
	require.NoError(t, json.Unmarshal([]byte(text), &status))
	assert.Equal(t, []string{"github"}, status.ConnectedServers)
}

func TestReconnectServer(t *testing.T) {
	h := newFakeHub()
	srv := startServer(t, h)

	text, isErr := callText(t, srv, ToolReconnectServer, map[string]interface{}{"server": "github"})
	require.False(t, isErr, text)
	assert.Equal(t, []string{"github"}, h.reconnected)

	text, isErr = callText(t, srv, ToolReconnectServer, map[string]interface{}{"server": "broken"})
	assert.True(t, isErr)
	assert.Contains(t, text, "spawn failed")

	_, isErr = callText(t, srv, ToolReconnectServer, map[string]interface{}{"server": ServerName})
	assert.True(t, isErr)
}

func TestResources(t *testing.T) {
	srv := startServer(t, newFakeHub())

	text, isErr := callText(t, srv, ToolGetResource, map[string]interface{}{"server": "github", "uri": "repo://readme"})
	require.False(t, isErr, text)
	assert.Equal(t, "readme", text)

	text, isErr = callText(t, srv, ToolGetResource, map[string]interface{}{"server": "gitlab", "uri": "repo://readme"})
	assert.True(t, isErr)
	assert.Contains(t, text, "not found")

	text, _ = callText(t, srv, ToolListPrompts, nil)
	assert.Equal(t, "No prompts available", text)

	res, err := srv.ReadResource(context.Background(), StatusResourceURI)
	require.NoError(t, err)
	assert.Contains(t, ResourceText(res.Contents), `"connectedServers"`)
}

func TestDiagnosePrompt(t *testing.T) {
	srv := startServer(t, newFakeHub())

	res, err := srv.GetPrompt(context.Background(), PromptDiagnose, map[string]interface{}{"server": "remote"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)

	text := hub.ContentToText([]mcp.Content{res.Messages[0].Content})
	assert.Contains(t, text, `"remote"`)
	assert.Contains(t, text, "timed out after 30s")

	_, err = srv.GetPrompt(context.Background(), PromptDiagnose, map[string]interface{}{"server": "nope"})
	assert.Error(t, err)
}

func TestFactory_WithRealHub(t *testing.T) {
	h := hub.New(hub.Options{
		ClientFactory: func(api.ServerConfig) (mcpserver.MCPClient, error) {
			return nil, errors.New("no transports in this test")
		},
	})
	ctx := context.Background()
	defer func() { _ = h.Close(ctx) }()

	require.NoError(t, h.AddServer(ctx, &api.InProcessConfig{
		Name:    ServerName,
		Enabled: true,
		Factory: Factory(h, "test"),
	}))

	state, ok := h.GetServerState(ServerName)
	require.True(t, ok)
	require.Equal(t, api.StatusConnected, state.Status, state.LastError)
	assert.Equal(t, 9, state.ToolCount)
	assert.Equal(t, 1, state.ResourceCount)
	assert.Equal(t, 1, state.PromptCount)

	result := h.CallAgentTool(ctx, "", "mcp__hub__list_servers", nil, 0)
	require.True(t, result.Success, result.Error)
	assert.Contains(t, result.Output, `"name": "hub"`)

	result = h.CallAgentTool(ctx, "", "mcp__hub__call_tool", map[string]any{"name": "mcp__hub__hub_status"}, 0)
	require.True(t, result.Success, result.Error)
	assert.Contains(t, result.Output, `inProcessServers`)
}
