package formatting

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
	pkgstrings "mcphub/pkg/strings"
)

// lastErrorMaxLen bounds the LAST ERROR column unless the table is wide.
const lastErrorMaxLen = 50

var (
	headerColor  = color.New(color.FgHiCyan)
	emptyColor   = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	mutedColor   = color.New(color.FgHiBlack)
)

// TableFormatter provides rich table output formatting. Colors follow
// fatih/color, which disables them for non-terminals and NO_COLOR.
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) *TableFormatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatServers renders one row per registered server.
func (f *TableFormatter) FormatServers(states []api.ServerState) (string, error) {
	if len(states) == 0 {
		return f.formatEmptyMessage("No servers configured"), nil
	}

	t := f.createTable("Name", "Type", "Enabled", "Status", "Tools", "Resources", "Prompts", "Last Error")
	for _, s := range states {
		t.AppendRow(table.Row{
			s.Name,
			string(s.Kind),
			enabledCell(s.Enabled),
			StatusColor(s.Status).Sprint(string(s.Status)),
			s.ToolCount,
			s.ResourceCount,
			s.PromptCount,
			f.cell(s.LastError, lastErrorMaxLen),
		})
	}
	return t.Render() + "\n", nil
}

// FormatStatus renders the aggregate status as key/value rows.
func (f *TableFormatter) FormatStatus(status api.HubStatus) (string, error) {
	t := f.createTable("Key", "Value")
	t.AppendRows([]table.Row{
		{headerColor.Sprint("Connected servers"), listCell(status.ConnectedServers)},
		{headerColor.Sprint("In-process servers"), listCell(status.InProcessServers)},
		{headerColor.Sprint("Tools"), status.ToolCount},
		{headerColor.Sprint("Resources"), status.ResourceCount},
		{headerColor.Sprint("Prompts"), status.PromptCount},
	})
	return t.Render() + "\n", nil
}

// FormatTools renders tools under their agent-facing names.
func (f *TableFormatter) FormatTools(tools []catalog.AgentTool) (string, error) {
	if len(tools) == 0 {
		return f.formatEmptyMessage("No tools found"), nil
	}

	t := f.createTable("Name", "Server", "Description")
	for _, tool := range tools {
		desc := strings.TrimPrefix(tool.Description, catalog.AgentDescription(tool.ServerName, ""))
		t.AppendRow(table.Row{tool.Name, tool.ServerName, f.description(desc)})
	}
	return t.Render() + f.total(len(tools), "tools"), nil
}

func (f *TableFormatter) FormatResources(resources []catalog.Resource) (string, error) {
	if len(resources) == 0 {
		return f.formatEmptyMessage("No resources found"), nil
	}

	t := f.createTable("URI", "Name", "Server", "MIME Type")
	for _, r := range resources {
		t.AppendRow(table.Row{r.URI, r.Name, r.ServerName, r.MIMEType})
	}
	return t.Render() + f.total(len(resources), "resources"), nil
}

func (f *TableFormatter) FormatPrompts(prompts []catalog.Prompt) (string, error) {
	if len(prompts) == 0 {
		return f.formatEmptyMessage("No prompts found"), nil
	}

	t := f.createTable("Name", "Server", "Arguments", "Description")
	for _, p := range prompts {
		t.AppendRow(table.Row{p.Name, p.ServerName, argumentsCell(p.Arguments), f.description(p.Description)})
	}
	return t.Render() + f.total(len(prompts), "prompts"), nil
}

// FormatToolResult prints the output of a successful call as is and the
// error of a failed one in red.
func (f *TableFormatter) FormatToolResult(result api.ToolResult) (string, error) {
	if !result.Success {
		return errorColor.Sprintf("Error: %s", result.Error) + "\n", nil
	}
	out := result.Output
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

// StatusColor picks the color a status is printed in.
func StatusColor(status api.Status) *color.Color {
	switch status {
	case api.StatusConnected:
		return successColor
	case api.StatusError:
		return errorColor
	case api.StatusConnecting:
		return emptyColor
	default:
		return mutedColor
	}
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable(headers ...string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	// Headers are upper-cased before coloring.
	t.Style().Format.Header = text.FormatDefault

	row := make(table.Row, len(headers))
	for i, h := range headers {
		row[i] = headerColor.Sprint(strings.ToUpper(h))
	}
	t.AppendHeader(row)
	return t
}

func (f *TableFormatter) cell(s string, maxLen int) string {
	if f.options.Wide {
		return pkgstrings.SingleLine(s)
	}
	return pkgstrings.Truncate(s, maxLen)
}

func (f *TableFormatter) description(s string) string {
	if f.options.Wide {
		return pkgstrings.SingleLine(s)
	}
	return pkgstrings.TruncateDescription(s, pkgstrings.DefaultDescriptionMaxLen)
}

func (f *TableFormatter) total(n int, what string) string {
	if f.options.Quiet {
		return "\n"
	}
	return fmt.Sprintf("\nTotal: %d %s\n", n, what)
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(message string) string {
	return emptyColor.Sprint(message) + "\n"
}

func enabledCell(enabled bool) string {
	if enabled {
		return "yes"
	}
	return mutedColor.Sprint("no")
}

func listCell(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// argumentsCell lists argument names, marking required ones with '*'.
func argumentsCell(args []catalog.PromptArgument) string {
	if len(args) == 0 {
		return "-"
	}
	names := make([]string, 0, len(args))
	for _, a := range args {
		name := a.Name
		if a.Required {
			name += "*"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
