// Package formatting renders hub data for the command line.
//
// The same data can be printed as a table, JSON, YAML or through a
// user-supplied Go template with the sprig function library.
package formatting

import (
	"fmt"
	"strings"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// Formats lists the accepted --output values.
var Formats = []OutputFormat{FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates an --output value. Empty selects the table.
func ParseFormat(s string) (OutputFormat, error) {
	if s == "" {
		return FormatTable, nil
	}
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (use table, json or yaml)", s)
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat

	// Template is a Go template evaluated against the data. It takes
	// precedence over Format.
	Template string

	Quiet bool // Compact JSON, no decorative messages
	Wide  bool // Do not truncate table cells
}

// Formatter renders hub data. Every method returns the complete output.
type Formatter interface {
	FormatServers(states []api.ServerState) (string, error)
	FormatStatus(status api.HubStatus) (string, error)
	FormatTools(tools []catalog.AgentTool) (string, error)
	FormatResources(resources []catalog.Resource) (string, error)
	FormatPrompts(prompts []catalog.Prompt) (string, error)
	FormatToolResult(result api.ToolResult) (string, error)
}

// New creates the formatter selected by options.
func New(options Options) (Formatter, error) {
	if options.Template != "" {
		return NewTemplateFormatter(options)
	}
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options), nil
	case FormatYAML:
		return NewYAMLFormatter(options), nil
	case FormatTable, "":
		return NewTableFormatter(options), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", options.Format)
	}
}

// nonNil keeps empty lists from rendering as null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
