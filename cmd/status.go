package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mcphub/pkg/logging"
)

var (
	statusFlags   outputFlags
	statusAll     bool
	statusSummary bool
)

// statusCmd connects to the configured servers and reports their state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Connect to the configured servers and report their state",
	Long: `Connects every enabled remote server (and with --all the lazy local ones
as well), then prints one row per server with its status, capability counts
and last error.

Use --summary for the aggregate view: connected servers and capability totals.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatter, err := statusFlags.formatter()
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
	err = withSpinner(statusFlags.Quiet, "Connecting to servers...", func() error {
		return connectServers(ctx, h, statusAll)
	})
	if err != nil {
		// Failures are part of the report.
		logging.Debug("Status", "Connect errors: %v", err)
	}

	var out string
	if statusSummary {
		out, err = formatter.FormatStatus(h.GetStatus())
	} else {
		out, err = formatter.FormatServers(h.GetServerStates())
	}
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusFlags.register(statusCmd)
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "Also connect lazy servers")
	statusCmd.Flags().BoolVar(&statusSummary, "summary", false, "Print capability totals instead of the server list")
}
