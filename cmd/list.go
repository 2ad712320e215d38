package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
	"mcphub/internal/hub"
	"mcphub/internal/metatools"
	"mcphub/pkg/logging"
)

var (
	listFlags  outputFlags
	listServer string
	listFilter string
	listAll    bool
)

// listKinds maps accepted arguments, singular and plural, to what is listed.
var listKinds = map[string]string{
	"server":    "servers",
	"servers":   "servers",
	"tool":      "tools",
	"tools":     "tools",
	"resource":  "resources",
	"resources": "resources",
	"prompt":    "prompts",
	"prompts":   "prompts",
}

// listCmd lists servers or the capabilities they expose.
var listCmd = &cobra.Command{
	Use:     "list <servers|tools|resources|prompts>",
	Aliases: []string{"ls"},
	Short:   "List servers, tools, resources or prompts",
	Long: `Lists the configured servers or the capabilities of the connected ones.

Capabilities are discovered by connecting the enabled remote servers first.
Lazy local servers are skipped unless --all is given or --server names them.

Examples:
  mcphub list tools
  mcphub list tools --filter 'mcp__github__*'
  mcphub list resources --server docs -o json
  mcphub list servers --template '{{ range . }}{{ .Name }} {{ .Status }}{{ "\n" }}{{ end }}'`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"servers", "tools", "resources", "prompts"},
	RunE:      runList,
}

func runList(cmd *cobra.Command, args []string) error {
	kind, ok := listKinds[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown type %q (use servers, tools, resources or prompts)", args[0])
	}

	formatter, err := listFlags.formatter()
	if err != nil {
		return err
	}

	application, err := newApplication(true)
	if err != nil {
		return err
	}
	defer closeApplication(application)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	h := application.Hub()
	if kind != "servers" {
		if err := withSpinner(listFlags.Quiet, "Discovering capabilities...", func() error {
			return discover(ctx, h)
		}); err != nil {
			return err
		}
	}

	var out string
	switch kind {
	case "servers":
		out, err = formatter.FormatServers(filterByServer(h.GetServerStates(), func(s api.ServerState) string { return s.Name }))
	case "tools":
		tools := filterByServer(h.AgentTools(), func(t catalog.AgentTool) string { return t.ServerName })
		if tools, err = metatools.NewFormatters().FilterTools(tools, listFilter); err != nil {
			return err
		}
		out, err = formatter.FormatTools(tools)
	case "resources":
		out, err = formatter.FormatResources(filterByServer(h.GetResources(), func(r catalog.Resource) string { return r.ServerName }))
	case "prompts":
		out, err = formatter.FormatPrompts(filterByServer(h.GetPrompts(), func(p catalog.Prompt) string { return p.ServerName }))
	}
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// discover connects the servers whose capabilities are listed. A named
// server must connect; otherwise failures are logged and skipped.
func discover(ctx context.Context, h *hub.Hub) error {
	if listServer != "" {
		return h.Connect(ctx, listServer)
	}
	if err := connectServers(ctx, h, listAll); err != nil {
		logging.Debug("List", "Connect errors: %v", err)
	}
	return nil
}

// filterByServer keeps the items owned by --server, or all of them.
func filterByServer[T any](items []T, server func(T) string) []T {
	if listServer == "" {
		return items
	}
	var out []T
	for _, item := range items {
		if server(item) == listServer {
			out = append(out, item)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags.register(listCmd)
	listCmd.Flags().StringVarP(&listServer, "server", "s", "", "Only list this server or its capabilities")
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Glob pattern matched against tool names")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Also connect lazy servers")
}
