// Package logging provides the structured, subsystem-tagged logger used across mcphub.
//
// It is a thin layer over Go's log/slog: every entry carries a "subsystem"
// attribute and, for errors, an "error" attribute. Messages are printf-style.
//
// # Usage
//
//	logging.Init(logging.Options{Level: logging.LevelInfo, Format: logging.FormatText, Output: os.Stderr})
//
//	logging.Info("Hub", "Connected to %s", name)
//	logging.Debug("StdioServer", "[%s] %s", name, line)
//	logging.Warn("Config", "Environment variable %s is not set", key)
//	logging.Error("Connector", err, "Failed to connect to %s", name)
//
// # Subsystems
//
//   - Bootstrap: application composition
//   - Config: configuration loading, validation and watching
//   - Hub: registry, lazy connection and tool invocation
//   - Connector: transport setup and timeouts
//   - StdioClient / SSEClient / StreamableHTTPClient: transport specifics
//   - StdioServer: stderr forwarded from local server processes
//   - Events: subscriber delivery problems
//
// # Uninitialized use
//
// When Init has not been called (for example when the hub is embedded as a
// library), Debug and Info are dropped and Warn/Error are written to stderr.
//
// # Thread Safety
//
// All functions are safe for concurrent use. Init may be called again to
// replace the active configuration.
package logging
