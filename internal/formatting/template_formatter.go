package formatting

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
)

// TemplateFormatter renders data through a user template. The template sees
// the Go values, so fields use their Go names: {{ range . }}{{ .Name }}{{ end }}.
type TemplateFormatter struct {
	tmpl *template.Template
}

// NewTemplateFormatter parses options.Template with the sprig functions.
func NewTemplateFormatter(options Options) (*TemplateFormatter, error) {
	tmpl, err := template.New("output").Funcs(sprig.TxtFuncMap()).Parse(options.Template)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	return &TemplateFormatter{tmpl: tmpl}, nil
}

func (f *TemplateFormatter) FormatServers(states []api.ServerState) (string, error) {
	return f.execute(states)
}

func (f *TemplateFormatter) FormatStatus(status api.HubStatus) (string, error) {
	return f.execute(status)
}

func (f *TemplateFormatter) FormatTools(tools []catalog.AgentTool) (string, error) {
	return f.execute(tools)
}

func (f *TemplateFormatter) FormatResources(resources []catalog.Resource) (string, error) {
	return f.execute(resources)
}

func (f *TemplateFormatter) FormatPrompts(prompts []catalog.Prompt) (string, error) {
	return f.execute(prompts)
}

func (f *TemplateFormatter) FormatToolResult(result api.ToolResult) (string, error) {
	return f.execute(result)
}

func (f *TemplateFormatter) execute(data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := f.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
