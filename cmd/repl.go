package cmd

import (
	"github.com/spf13/cobra"

	"mcphub/internal/repl"
	"mcphub/pkg/logging"
)

var (
	replFlags outputFlags
	replAll   bool
)

// replCmd starts an interactive shell over the hub.
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive shell over the hub",
	Long: `Starts an interactive shell for exploring the configured servers.

Inside the shell, list servers and tools, call tools with JSON arguments,
read resources, render prompts and enable, disable or reconnect servers.
Type 'help' for the command list. TAB completes commands, tool names and
server names.`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func runREPL(cmd *cobra.Command, args []string) error {
	formatter, err := replFlags.formatter()
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
	if err := withSpinner(replFlags.Quiet, "Connecting to servers...", func() error {
		return connectServers(ctx, h, replAll)
	}); err != nil {
		logging.Warn("REPL", "Some servers failed to connect: %v", err)
	}

	return repl.New(h, formatter, cmd.OutOrStdout()).Run(ctx)
}

func init() {
	rootCmd.AddCommand(replCmd)

	replFlags.register(replCmd)
	replCmd.Flags().BoolVar(&replAll, "all", false, "Also connect lazy servers at startup")
}
