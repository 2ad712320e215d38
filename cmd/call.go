package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mcphub/internal/api"
	"mcphub/internal/formatting"
)

var (
	callFlags    outputFlags
	callArgs     string
	callArgsFile string
	callServer   string
	callTimeout  time.Duration
)

// toolFailedError reports a call whose result carries an error.
type toolFailedError struct {
	tool string
	msg  string
}

func (e *toolFailedError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.tool, e.msg)
}

// callCmd calls one tool.
var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Call a tool",
	Long: `Calls a tool and prints its result.

The tool is named as mcp__<server>__<tool>, or by its plain name together
with --server. Arguments are passed as a JSON object. The server is
connected on demand; a call that fails because the connection dropped is
retried once after reconnecting.

Exits with code 3 when the tool reports an error.

Examples:
  mcphub call mcp__github__create_issue --args '{"title": "bug"}'
  mcphub call create_issue --server github --args-file issue.json -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func runCall(cmd *cobra.Command, args []string) error {
	formatter, err := callFlags.formatter()
	if err != nil {
		return err
	}
	toolArgs, err := parseCallArgs()
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
	var result api.ToolResult
	_ = withSpinner(callFlags.Quiet, "Calling "+args[0]+"...", func() error {
		if callServer != "" {
			result = h.CallTool(ctx, api.ToolCall{Server: callServer, Tool: args[0], Arguments: toolArgs, Timeout: callTimeout})
		} else {
			result = h.CallAgentTool(ctx, "", args[0], toolArgs, callTimeout)
		}
		return nil
	})

	if !result.Success && isTableOutput() {
		return &toolFailedError{tool: args[0], msg: result.Error}
	}

	out, err := formatter.FormatToolResult(result)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)

	if !result.Success {
		return &toolFailedError{tool: args[0], msg: result.Error}
	}
	return nil
}

// isTableOutput reports whether the result is printed as plain text, in
// which case a failure is only reported through the returned error.
func isTableOutput() bool {
	format, _ := formatting.ParseFormat(callFlags.Output)
	return callFlags.Template == "" && format == formatting.FormatTable
}

func parseCallArgs() (map[string]any, error) {
	raw := callArgs
	if callArgsFile != "" {
		if callArgs != "" {
			return nil, fmt.Errorf("--args and --args-file are mutually exclusive")
		}
		data, err := os.ReadFile(callArgsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read arguments: %w", err)
		}
		raw = string(data)
	}
	if raw == "" {
		return nil, nil
	}

	var toolArgs map[string]any
	if err := json.Unmarshal([]byte(raw), &toolArgs); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return toolArgs, nil
}

func init() {
	rootCmd.AddCommand(callCmd)

	callFlags.register(callCmd)
	callCmd.Flags().StringVarP(&callArgs, "args", "a", "", "Tool arguments as a JSON object")
	callCmd.Flags().StringVar(&callArgsFile, "args-file", "", "Read the tool arguments from a JSON file")
	callCmd.Flags().StringVarP(&callServer, "server", "s", "", "Server owning the tool; the tool name is then unqualified")
	callCmd.Flags().DurationVar(&callTimeout, "timeout", 0, "Call timeout (default from settings.toolTimeout, 60s)")
}
