package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	toolNamePrefix = "mcp"
	nameSeparator  = "__"
)

// QualifiedToolName returns the agent-facing identity of a tool:
// mcp__<serverName>__<toolName>.
func QualifiedToolName(serverName, toolName string) string {
	return toolNamePrefix + nameSeparator + serverName + nameSeparator + toolName
}

// ParseQualifiedToolName reverses QualifiedToolName. Server names never
// contain "__" (the config validator rejects them), so the server name ends at
// the second separator and the tool name may contain "__".
func ParseQualifiedToolName(qualified string) (serverName, toolName string, ok bool) {
	rest, found := strings.CutPrefix(qualified, toolNamePrefix+nameSeparator)
	if !found {
		return "", "", false
	}
	serverName, toolName, found = strings.Cut(rest, nameSeparator)
	if !found || serverName == "" || toolName == "" {
		return "", "", false
	}
	return serverName, toolName, true
}

// AgentDescription prefixes a tool description with its owning server.
func AgentDescription(serverName, description string) string {
	return fmt.Sprintf("[MCP:%s] %s", serverName, description)
}

// AgentTool is a tool as presented to the calling agent.
type AgentTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
	ServerName  string          `json:"serverName"`
	ToolName    string          `json:"toolName"`
}

// AgentTools renders every tool in the catalog with its qualified name and
// prefixed description.
func (c *Catalog) AgentTools() []AgentTool {
	tools := c.Tools()
	out := make([]AgentTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, AgentTool{
			Name:        QualifiedToolName(t.ServerName, t.Name),
			Description: AgentDescription(t.ServerName, t.Description),
			InputSchema: t.InputSchema,
			ServerName:  t.ServerName,
			ToolName:    t.Name,
		})
	}
	return out
}
