package events

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

var defaultTemplates = NewMessageTemplateEngine()

// MessageTemplateEngine renders human-readable messages for events.
type MessageTemplateEngine struct {
	mu        sync.RWMutex
	templates map[EventReason]*template.Template
}

// NewMessageTemplateEngine creates a new message template engine with default templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	engine := &MessageTemplateEngine{
		templates: make(map[EventReason]*template.Template),
	}
	engine.loadDefaultTemplates()
	return engine
}

func (e *MessageTemplateEngine) loadDefaultTemplates() {
	defaults := map[EventReason]string{
		ReasonServerAdded:         "MCP server {{.Server}} registered",
		ReasonServerRemoved:       "MCP server {{.Server}} removed",
		ReasonServerUpdated:       "MCP server {{.Server}} configuration updated",
		ReasonStatusChanged:       "MCP server {{.Server}} {{.From | default \"new\"}} -> {{.To}}{{if .Error}}: {{.Error | trunc 200}}{{end}}",
		ReasonCapabilitiesChanged: "MCP server {{.Server}} now provides {{.ToolCount}} {{if eq .ToolCount 1}}tool{{else}}tools{{end}}, {{.ResourceCount}} resources, {{.PromptCount}} prompts",
		ReasonToolCallRetried:     "Tool call on {{.Server}} retried after reconnect{{if .Error}}: {{.Error}}{{end}}",
	}
	for reason, text := range defaults {
		// The defaults are constants; a parse failure is a programming error.
		if err := e.SetTemplate(reason, text); err != nil {
			panic(err)
		}
	}
}

// Render generates a message for the given event.
func (e *MessageTemplateEngine) Render(ev Event) string {
	e.mu.RLock()
	tmpl, exists := e.templates[ev.Reason]
	e.mu.RUnlock()

	if !exists {
		return fmt.Sprintf("Event: %s for %s", ev.Reason, ev.Server)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ev); err != nil {
		return fmt.Sprintf("Event: %s for %s", ev.Reason, ev.Server)
	}
	return buf.String()
}

// SetTemplate customizes the message template for a specific event reason.
// Templates use text/template syntax with the sprig function set.
func (e *MessageTemplateEngine) SetTemplate(reason EventReason, text string) error {
	tmpl, err := template.New(string(reason)).Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template for %s: %w", reason, err)
	}

	e.mu.Lock()
	e.templates[reason] = tmpl
	e.mu.Unlock()
	return nil
}
