package app

import (
	"mcphub/internal/config"
	"mcphub/internal/mcpserver"
)

// Config holds the application runtime settings gathered from the command
// line. It is separate from config.File, which describes the servers.
type Config struct {
	// Debug enables debug logging. LogLevel takes precedence when set.
	Debug bool

	// LogLevel is one of debug, info, warn or error.
	LogLevel string

	// LogFormat selects text or json log output.
	LogFormat string

	// Silent discards all log output. Used by one-shot commands that print
	// their own results.
	Silent bool

	// ConfigPath is the server configuration file. Empty selects
	// config.DefaultPath().
	ConfigPath string

	// Watch reloads the configuration file when it changes.
	Watch bool

	// Version is reported by the builtin hub server.
	Version string

	// File is the loaded configuration. When set before NewApplication the
	// file is not read from disk.
	File *config.File

	// ClientFactory overrides how transport clients are built.
	ClientFactory mcpserver.ClientFactory
}

// NewConfig creates a new application configuration.
func NewConfig(debug, silent bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Silent:     silent,
		ConfigPath: configPath,
	}
}
