package metatools

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
	pkgstrings "mcphub/pkg/strings"
)

// Formatters renders hub data as the JSON the meta-tools return.
type Formatters struct{}

// descriptionMaxLen bounds descriptions in list output.
const descriptionMaxLen = 120

// NewFormatters creates a new formatters instance.
func NewFormatters() *Formatters {
	return &Formatters{}
}

// FilterTools returns the tools whose name matches the glob pattern. An
// empty pattern matches everything. Matching is case-insensitive.
func (f *Formatters) FilterTools(tools []catalog.AgentTool, pattern string) ([]catalog.AgentTool, error) {
	if pattern == "" {
		return tools, nil
	}
	pattern = strings.ToLower(pattern)
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var out []catalog.AgentTool
	for _, tool := range tools {
		if ok, _ := filepath.Match(pattern, strings.ToLower(tool.Name)); ok {
			out = append(out, tool)
		}
	}
	return out, nil
}

// FormatToolsListJSON formats tools as a ListToolsResponse.
func (f *Formatters) FormatToolsListJSON(all, filtered []catalog.AgentTool, pattern string, includeSchema bool) (string, error) {
	resp := ListToolsResponse{
		Pattern:       pattern,
		TotalTools:    len(all),
		FilteredCount: len(filtered),
		Tools:         make([]ToolInfo, 0, len(filtered)),
	}
	for _, tool := range filtered {
		info := ToolInfo{
			Name:        tool.Name,
			Server:      tool.ServerName,
			Description: pkgstrings.TruncateDescription(tool.Description, descriptionMaxLen),
		}
		if includeSchema && len(tool.InputSchema) > 0 {
			info.InputSchema = tool.InputSchema
		}
		resp.Tools = append(resp.Tools, info)
	}
	return marshal(resp, "tools")
}

// FormatToolDetailJSON formats one tool with its full description and schema.
func (f *Formatters) FormatToolDetailJSON(tool catalog.AgentTool) (string, error) {
	return marshal(ToolInfo{
		Name:        tool.Name,
		Server:      tool.ServerName,
		Description: tool.Description,
		InputSchema: tool.InputSchema,
	}, "tool")
}

// FormatServersJSON formats server states.
func (f *Formatters) FormatServersJSON(states []api.ServerState) (string, error) {
	servers := make([]ServerInfo, 0, len(states))
	for _, s := range states {
		servers = append(servers, ServerInfo{
			Name:      s.Name,
			Type:      string(s.Kind),
			Enabled:   s.Enabled,
			Status:    string(s.Status),
			LastError: s.LastError,
			Tools:     s.ToolCount,
			Resources: s.ResourceCount,
			Prompts:   s.PromptCount,
		})
	}
	return marshal(servers, "servers")
}

// FormatResourcesListJSON formats resources. An empty list yields a plain
// message.
func (f *Formatters) FormatResourcesListJSON(resources []catalog.Resource) (string, error) {
	if len(resources) == 0 {
		return "No resources available", nil
	}
	return marshal(resources, "resources")
}

// FormatPromptsListJSON formats prompts. An empty list yields a plain message.
func (f *Formatters) FormatPromptsListJSON(prompts []catalog.Prompt) (string, error) {
	if len(prompts) == 0 {
		return "No prompts available", nil
	}
	return marshal(prompts, "prompts")
}

// FindTool returns the tool with the exact agent-facing name, or nil.
func (f *Formatters) FindTool(tools []catalog.AgentTool, name string) *catalog.AgentTool {
	for i := range tools {
		if tools[i].Name == name {
			return &tools[i]
		}
	}
	return nil
}

// ResourceText flattens resource contents. Blob contents are summarized.
func ResourceText(contents []mcp.ResourceContents) string {
	parts := make([]string, 0, len(contents))
	for _, c := range contents {
		switch v := c.(type) {
		case mcp.TextResourceContents:
			parts = append(parts, v.Text)
		case *mcp.TextResourceContents:
			parts = append(parts, v.Text)
		case mcp.BlobResourceContents:
			parts = append(parts, blobSummary(v))
		case *mcp.BlobResourceContents:
			parts = append(parts, blobSummary(*v))
		}
	}
	return strings.Join(parts, "\n")
}

func blobSummary(b mcp.BlobResourceContents) string {
	return fmt.Sprintf("[blob: %s, %d bytes base64]", b.MIMEType, len(b.Blob))
}

func marshal(v interface{}, what string) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format %s: %w", what, err)
	}
	return string(data), nil
}
