package formatting

import (
	"encoding/json"
	"fmt"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) *JSONFormatter {
	return &JSONFormatter{
		options: options,
	}
}

func (f *JSONFormatter) FormatServers(states []api.ServerState) (string, error) {
	return f.marshal(nonNil(states))
}

func (f *JSONFormatter) FormatStatus(status api.HubStatus) (string, error) {
	status.ConnectedServers = nonNil(status.ConnectedServers)
	status.InProcessServers = nonNil(status.InProcessServers)
	return f.marshal(status)
}

func (f *JSONFormatter) FormatTools(tools []catalog.AgentTool) (string, error) {
	return f.marshal(nonNil(tools))
}

func (f *JSONFormatter) FormatResources(resources []catalog.Resource) (string, error) {
	return f.marshal(nonNil(resources))
}

func (f *JSONFormatter) FormatPrompts(prompts []catalog.Prompt) (string, error) {
	return f.marshal(nonNil(prompts))
}

func (f *JSONFormatter) FormatToolResult(result api.ToolResult) (string, error) {
	return f.marshal(result)
}

// marshal converts data to JSON, compact in quiet mode.
func (f *JSONFormatter) marshal(data interface{}) (string, error) {
	var (
		b   []byte
		err error
	)
	if f.options.Quiet {
		b, err = json.Marshal(data)
	} else {
		b, err = json.MarshalIndent(data, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("failed to format JSON: %w", err)
	}
	return string(b) + "\n", nil
}
