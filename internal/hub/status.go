package hub

import (
	"sort"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
)

// GetStatus returns the aggregate view used by health panels.
func (h *Hub) GetStatus() api.HubStatus {
	h.mu.Lock()
	status := api.HubStatus{
		ConnectedServers: []string{},
		InProcessServers: []string{},
	}
	for name, e := range h.servers {
		switch {
		case e.inproc != nil:
			status.InProcessServers = append(status.InProcessServers, name)
		case e.client != nil:
			status.ConnectedServers = append(status.ConnectedServers, name)
		}
	}
	h.mu.Unlock()

	sort.Strings(status.ConnectedServers)
	sort.Strings(status.InProcessServers)
	status.ToolCount, status.ResourceCount, status.PromptCount = h.catalog.Totals()
	return status
}

// GetTools returns every discovered tool, ordered by server and name.
func (h *Hub) GetTools() []catalog.Tool {
	return h.catalog.Tools()
}

// GetResources returns every discovered resource.
func (h *Hub) GetResources() []catalog.Resource {
	return h.catalog.Resources()
}

// GetPrompts returns every discovered prompt.
func (h *Hub) GetPrompts() []catalog.Prompt {
	return h.catalog.Prompts()
}

// AgentTools returns the tools under their agent-facing names.
func (h *Hub) AgentTools() []catalog.AgentTool {
	return h.catalog.AgentTools()
}
