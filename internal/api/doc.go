// Package api holds the data model shared by the mcphub packages: server
// configurations, connection status, tool call results, the in-process server
// contract, and the error types callers can match on.
//
// ServerConfig is a closed sum type. Code that must handle every transport
// kind implements ConfigVisitor so that a new kind is a compile error until it
// is handled everywhere:
//
//	type timeoutFor struct{ d *time.Duration }
//
//	func (t timeoutFor) VisitStdio(c *api.StdioConfig) error           { ... }
//	func (t timeoutFor) VisitSSE(c *api.SSEConfig) error               { ... }
//	func (t timeoutFor) VisitStreamable(c *api.StreamableConfig) error { ... }
//	func (t timeoutFor) VisitInProcess(c *api.InProcessConfig) error   { ... }
//
// Errors follow the taxonomy callers rely on: NotFoundError and ConfigError
// for caller mistakes, AlreadyExistsError for duplicate names,
// ConnectTimeoutError for handshakes that exceed their budget, and
// ErrNotConnected for operations that need a live connection.
package api
