package repl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/internal/formatting"
	"mcphub/internal/hub"
	"mcphub/internal/metatools"
)

func (r *REPL) registerCommands() {
	for _, cmd := range []*command{
		{name: "help", usage: "help [command]", description: "Show available commands", aliases: []string{"?"}, run: r.cmdHelp},
		{name: "servers", usage: "servers", description: "List servers with their status", aliases: []string{"status", "ls"}, run: r.cmdServers},
		{name: "tools", usage: "tools [pattern]", description: "List tools, optionally filtered by a glob", run: r.cmdTools},
		{name: "describe", usage: "describe <tool>", description: "Show a tool's description and input schema", run: r.cmdDescribe},
		{name: "call", usage: "call <tool> [{json}]", description: "Call a tool with JSON arguments", run: r.cmdCall},
		{name: "resources", usage: "resources", description: "List resources", run: r.cmdResources},
		{name: "read", usage: "read <server> <uri>", description: "Read a resource", aliases: []string{"get"}, run: r.cmdRead},
		{name: "prompts", usage: "prompts", description: "List prompts", run: r.cmdPrompts},
		{name: "prompt", usage: "prompt <server> <name> [{json}]", description: "Render a prompt with JSON arguments", run: r.cmdPrompt},
		{name: "connect", usage: "connect <server>", description: "Connect a server now", run: r.cmdConnect},
		{name: "reconnect", usage: "reconnect <server>", description: "Disconnect and reconnect a server", run: r.cmdReconnect},
		{name: "enable", usage: "enable <server>", description: "Enable a server", run: r.enabler(true)},
		{name: "disable", usage: "disable <server>", description: "Disable and disconnect a server", run: r.enabler(false)},
		{name: "events", usage: "events <on|off>", description: "Show or hide hub events", run: r.cmdEvents},
		{name: "exit", usage: "exit", description: "Exit the REPL", aliases: []string{"quit"}, run: r.cmdExit},
	} {
		r.registry.register(cmd)
	}
}

func (r *REPL) cmdHelp(_ context.Context, args []string) error {
	if len(args) > 0 {
		cmd, ok := r.registry.get(strings.ToLower(args[0]))
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		r.printf("%s\n  %s\n", cmd.usage, cmd.description)
		if len(cmd.aliases) > 0 {
			r.printf("  Aliases: %s\n", strings.Join(cmd.aliases, ", "))
		}
		return nil
	}

	r.printf("Available commands:\n")
	for _, cmd := range r.registry.sorted() {
		r.printf("  %-34s - %s\n", cmd.usage, cmd.description)
	}
	r.printf("\nExamples:\n")
	r.printf("  call mcp__github__create_issue {\"title\": \"bug\"}\n")
	r.printf("  read github repo://readme\n")
	return nil
}

func (r *REPL) cmdServers(context.Context, []string) error {
	return r.render(r.formatter.FormatServers(r.hub.GetServerStates()))
}

func (r *REPL) cmdTools(_ context.Context, args []string) error {
	tools := r.hub.AgentTools()
	if len(args) > 0 {
		filtered, err := metatools.NewFormatters().FilterTools(tools, args[0])
		if err != nil {
			return err
		}
		tools = filtered
	}
	return r.render(r.formatter.FormatTools(tools))
}

func (r *REPL) cmdDescribe(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("describe <tool>")
	}
	tool := metatools.NewFormatters().FindTool(r.hub.AgentTools(), args[0])
	if tool == nil {
		return fmt.Errorf("tool not found: %s", args[0])
	}

	r.printf("%s %s\n", color.New(color.Bold).Sprint(tool.Name), color.HiBlackString("(%s)", tool.ServerName))
	r.printf("%s\n", tool.Description)
	if len(tool.InputSchema) > 0 {
		var schema interface{}
		if err := json.Unmarshal(tool.InputSchema, &schema); err == nil {
			r.printf("\nInput schema:\n%s\n", formatting.PrettyJSON(schema))
		}
	}
	return nil
}

func (r *REPL) cmdCall(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("call <tool> [{json}]")
	}
	toolArgs, err := parseJSONArgs(args[1:])
	if err != nil {
		return err
	}

	result := r.hub.CallAgentTool(ctx, "", args[0], toolArgs, 0)
	return r.render(r.formatter.FormatToolResult(result))
}

func (r *REPL) cmdResources(context.Context, []string) error {
	return r.render(r.formatter.FormatResources(r.hub.GetResources()))
}

func (r *REPL) cmdRead(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("read <server> <uri>")
	}
	res, err := r.hub.ReadResource(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	r.printf("%s\n", metatools.ResourceText(res.Contents))
	return nil
}

func (r *REPL) cmdPrompts(context.Context, []string) error {
	return r.render(r.formatter.FormatPrompts(r.hub.GetPrompts()))
}

func (r *REPL) cmdPrompt(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("prompt <server> <name> [{json}]")
	}
	promptArgs, err := parseJSONArgs(args[2:])
	if err != nil {
		return err
	}

	res, err := r.hub.GetPrompt(ctx, args[0], args[1], promptArgs)
	if err != nil {
		return err
	}
	if res.Description != "" {
		r.printf("%s\n\n", color.HiBlackString("%s", res.Description))
	}
	for _, msg := range res.Messages {
		r.printf("%s: %s\n", color.New(color.Bold).Sprint(string(msg.Role)), hub.ContentToText([]mcp.Content{msg.Content}))
	}
	return nil
}

func (r *REPL) cmdConnect(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("connect <server>")
	}
	if err := r.hub.Connect(ctx, args[0]); err != nil {
		return err
	}
	r.success("Connected %s", args[0])
	return nil
}

func (r *REPL) cmdReconnect(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("reconnect <server>")
	}
	res := r.hub.Reconnect(ctx, args[0])
	if !res.Success {
		return fmt.Errorf("failed to reconnect %s: %s", args[0], res.Error)
	}
	r.success("Reconnected %s", args[0])
	return nil
}

func (r *REPL) enabler(enabled bool) func(context.Context, []string) error {
	verb := "disable"
	if enabled {
		verb = "enable"
	}
	return func(ctx context.Context, args []string) error {
		if len(args) != 1 {
			return usageError(verb + " <server>")
		}
		if err := r.hub.SetServerEnabled(ctx, args[0], enabled); err != nil {
			return err
		}
		r.success("%sd %s", strings.ToUpper(verb[:1])+verb[1:], args[0])
		return nil
	}
}

func (r *REPL) cmdEvents(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("events <on|off>")
	}
	switch strings.ToLower(args[0]) {
	case "on":
		r.showEvents.Store(true)
	case "off":
		r.showEvents.Store(false)
	default:
		return usageError("events <on|off>")
	}
	return nil
}

func (r *REPL) cmdExit(context.Context, []string) error {
	return errExit
}

func (r *REPL) render(out string, err error) error {
	if err != nil {
		return err
	}
	r.print(out)
	return nil
}

func (r *REPL) success(format string, args ...interface{}) {
	r.printf("%s\n", color.GreenString("✓ "+format, args...))
}

// parseJSONArgs joins the remaining words and decodes them as one JSON
// object. No words means no arguments.
func parseJSONArgs(words []string) (map[string]any, error) {
	if len(words) == 0 {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(strings.Join(words, " ")), &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return args, nil
}

func usageError(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}

// toolNames feeds tool completion.
func (r *REPL) toolNames(string) []string {
	tools := r.hub.AgentTools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}

func (r *REPL) serverNames(string) []string {
	states := r.hub.GetServerStates()
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, s.Name)
	}
	return names
}

func (r *REPL) resourceURIs(string) []string {
	resources := r.hub.GetResources()
	uris := make([]string, 0, len(resources))
	for _, res := range resources {
		uris = append(uris, res.URI)
	}
	return uris
}
