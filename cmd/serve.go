package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mcphub/internal/app"
)

// serveWatch reloads the configuration file when it changes.
var serveWatch bool

// serveCmd runs the hub in the foreground.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hub until interrupted",
	Long: `Starts the hub, connects the configured remote servers and keeps running
until interrupted with Ctrl+C or SIGTERM.

Local (stdio) servers connect lazily on their first use unless their entry
sets lazyLoad: false. State changes of every server are logged as events.

With --watch (the default) the configuration file is reloaded when it
changes: removed servers are disconnected, new ones registered and changed
ones reconnected. An invalid file is reported and ignored.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := newApplication(false, func(cfg *app.Config) {
		cfg.Watch = serveWatch
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload the configuration file when it changes")
}
