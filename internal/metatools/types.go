package metatools

// Meta-tool name constants.
const (
	// ToolListTools lists every tool under its agent-facing name.
	ToolListTools = "list_tools"

	// ToolDescribeTool gets the input schema of one tool.
	ToolDescribeTool = "describe_tool"

	// ToolCallTool executes any tool by its agent-facing name.
	ToolCallTool = "call_tool"

	// ToolListServers lists registered servers and their status.
	ToolListServers = "list_servers"

	// ToolHubStatus reports connected servers and capability totals.
	ToolHubStatus = "hub_status"

	// ToolReconnectServer reconnects one server.
	ToolReconnectServer = "reconnect_server"

	// ToolListResources lists discovered resources.
	ToolListResources = "list_resources"

	// ToolGetResource reads a resource from its server.
	ToolGetResource = "get_resource"

	// ToolListPrompts lists discovered prompts.
	ToolListPrompts = "list_prompts"
)

// StatusResourceURI is the URI of the hub status resource.
const StatusResourceURI = "hub://status"

// PromptDiagnose is the name of the server diagnosis prompt.
const PromptDiagnose = "diagnose"

// ToolInfo represents basic tool information returned by list_tools.
type ToolInfo struct {
	Name        string      `json:"name"`
	Server      string      `json:"server"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema,omitempty"`
}

// ListToolsResponse is the response structure from the list_tools meta-tool.
type ListToolsResponse struct {
	Pattern       string     `json:"pattern,omitempty"`
	TotalTools    int        `json:"total_tools"`
	FilteredCount int        `json:"filtered_count"`
	Tools         []ToolInfo `json:"tools"`
}

// ServerInfo is one entry of the list_servers response.
type ServerInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Enabled   bool   `json:"enabled"`
	Status    string `json:"status"`
	LastError string `json:"lastError,omitempty"`
	Tools     int    `json:"tools"`
	Resources int    `json:"resources"`
	Prompts   int    `json:"prompts"`
}
