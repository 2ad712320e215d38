package formatting

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
)

// YAMLFormatter provides YAML output formatting. Field names follow the
// JSON tags of the rendered types.
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) *YAMLFormatter {
	return &YAMLFormatter{
		options: options,
	}
}

func (f *YAMLFormatter) FormatServers(states []api.ServerState) (string, error) {
	return toYAML(nonNil(states))
}

func (f *YAMLFormatter) FormatStatus(status api.HubStatus) (string, error) {
	status.ConnectedServers = nonNil(status.ConnectedServers)
	status.InProcessServers = nonNil(status.InProcessServers)
	return toYAML(status)
}

func (f *YAMLFormatter) FormatTools(tools []catalog.AgentTool) (string, error) {
	return toYAML(nonNil(tools))
}

func (f *YAMLFormatter) FormatResources(resources []catalog.Resource) (string, error) {
	return toYAML(nonNil(resources))
}

func (f *YAMLFormatter) FormatPrompts(prompts []catalog.Prompt) (string, error) {
	return toYAML(nonNil(prompts))
}

func (f *YAMLFormatter) FormatToolResult(result api.ToolResult) (string, error) {
	return toYAML(result)
}

// toYAML goes through JSON so json tags and MarshalJSON methods apply, then
// re-emits the node tree in block style.
func toYAML(data interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to format YAML: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return "", fmt.Errorf("failed to format YAML: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return "", fmt.Errorf("failed to format YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to format YAML: %w", err)
	}
	return buf.String(), nil
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		blockStyle(c)
	}
}
