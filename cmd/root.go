package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"mcphub/internal/config"
	"mcphub/internal/mcpserver"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates the configuration file could not be loaded or is invalid.
	ExitCodeConfig = 2
	// ExitCodeToolFailed indicates a tool call completed with an error result.
	ExitCodeToolFailed = 3
)

// Flags shared by every command.
var (
	configPath string
	logLevel   string
	logFormat  string
	debug      bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcphub",
	Short: "Connect to many MCP servers through one hub",
	Long: `mcphub connects to the MCP servers listed in a configuration file and
exposes their tools, resources and prompts under one roof.

Servers are reached over stdio, SSE or streamable HTTP. Local servers connect
lazily on first use; remote ones connect when the hub starts. Tools are
addressed as mcp__<server>__<tool>.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
	mcpserver.ClientVersion = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcphub version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return ExitCodeConfig
	}

	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		return ExitCodeConfig
	}

	var toolErr *toolFailedError
	if errors.As(err, &toolErr) {
		return ExitCodeToolFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Server configuration file (default $HOME/.config/mcphub/servers.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
}
