package catalog

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is a discovered tool stamped with the server that owns it.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
	ServerName  string          `json:"serverName"`
}

// Resource is a discovered resource stamped with the server that owns it.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
	ServerName  string `json:"serverName"`
}

// PromptArgument describes one prompt argument.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Prompt is a discovered prompt stamped with the server that owns it.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
	ServerName  string           `json:"serverName"`
}

// entry holds everything one server contributed.
type entry struct {
	tools     []Tool
	resources []Resource
	prompts   []Prompt
}

// Catalog is the passive store of discovered capabilities. Descriptors are
// owned by a server and replaced or removed as a unit, so the catalog never
// holds entries for a server it was told to forget.
type Catalog struct {
	mu      sync.RWMutex
	servers map[string]*entry
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{servers: make(map[string]*entry)}
}

// Replace stores the capabilities discovered for serverName, dropping whatever
// was recorded for it before. Descriptors are stamped with serverName.
func (c *Catalog) Replace(serverName string, tools []mcp.Tool, resources []mcp.Resource, prompts []mcp.Prompt) {
	e := &entry{
		tools:     make([]Tool, 0, len(tools)),
		resources: make([]Resource, 0, len(resources)),
		prompts:   make([]Prompt, 0, len(prompts)),
	}
	for _, t := range tools {
		e.tools = append(e.tools, FromMCPTool(serverName, t))
	}
	for _, r := range resources {
		e.resources = append(e.resources, Resource{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
			ServerName:  serverName,
		})
	}
	for _, p := range prompts {
		args := make([]PromptArgument, 0, len(p.Arguments))
		for _, a := range p.Arguments {
			args = append(args, PromptArgument{Name: a.Name, Description: a.Description, Required: a.Required})
		}
		e.prompts = append(e.prompts, Prompt{
			Name:        p.Name,
			Description: p.Description,
			Arguments:   args,
			ServerName:  serverName,
		})
	}

	c.mu.Lock()
	c.servers[serverName] = e
	c.mu.Unlock()
}

// RemoveServer drops every descriptor owned by serverName.
func (c *Catalog) RemoveServer(serverName string) {
	c.mu.Lock()
	delete(c.servers, serverName)
	c.mu.Unlock()
}

// Counts returns the number of tools, resources and prompts owned by serverName.
func (c *Catalog) Counts(serverName string) (tools, resources, prompts int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.servers[serverName]
	if !ok {
		return 0, 0, 0
	}
	return len(e.tools), len(e.resources), len(e.prompts)
}

// Tools returns all tools ordered by server then tool name.
func (c *Catalog) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Tool
	for _, name := range c.sortedServersLocked() {
		out = append(out, c.servers[name].tools...)
	}
	sortTools(out)
	return out
}

// ToolsFor returns the tools owned by serverName.
func (c *Catalog) ToolsFor(serverName string) []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.servers[serverName]
	if !ok {
		return nil
	}
	out := append([]Tool(nil), e.tools...)
	sortTools(out)
	return out
}

// Lookup finds a tool by owning server and original tool name.
func (c *Catalog) Lookup(serverName, toolName string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.servers[serverName]
	if !ok {
		return Tool{}, false
	}
	for _, t := range e.tools {
		if t.Name == toolName {
			return t, true
		}
	}
	return Tool{}, false
}

// Resources returns all resources ordered by server then URI.
func (c *Catalog) Resources() []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Resource
	for _, name := range c.sortedServersLocked() {
		out = append(out, c.servers[name].resources...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ServerName != out[j].ServerName {
			return out[i].ServerName < out[j].ServerName
		}
		return out[i].URI < out[j].URI
	})
	return out
}

// Prompts returns all prompts ordered by server then name.
func (c *Catalog) Prompts() []Prompt {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Prompt
	for _, name := range c.sortedServersLocked() {
		out = append(out, c.servers[name].prompts...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ServerName != out[j].ServerName {
			return out[i].ServerName < out[j].ServerName
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Totals returns aggregate counts across all servers.
func (c *Catalog) Totals() (tools, resources, prompts int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.servers {
		tools += len(e.tools)
		resources += len(e.resources)
		prompts += len(e.prompts)
	}
	return tools, resources, prompts
}

func (c *Catalog) sortedServersLocked() []string {
	names := make([]string, 0, len(c.servers))
	for name := range c.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortTools(tools []Tool) {
	sort.SliceStable(tools, func(i, j int) bool {
		if tools[i].ServerName != tools[j].ServerName {
			return tools[i].ServerName < tools[j].ServerName
		}
		return tools[i].Name < tools[j].Name
	})
}

// FromMCPTool converts an mcp-go tool into a catalog descriptor. The input
// schema is taken from the tool's JSON form so raw schemas survive unchanged.
func FromMCPTool(serverName string, t mcp.Tool) Tool {
	tool := Tool{Name: t.Name, Description: t.Description, ServerName: serverName}

	data, err := json.Marshal(t)
	if err != nil {
		return tool
	}
	var wire struct {
		InputSchema json.RawMessage `json:"inputSchema"`
	}
	if err := json.Unmarshal(data, &wire); err == nil && len(wire.InputSchema) > 0 {
		tool.InputSchema = wire.InputSchema
	}
	return tool
}
