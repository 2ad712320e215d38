// Package hub orchestrates connections to a set of MCP servers and presents
// their tools, resources and prompts as one catalog.
//
// # Registry
//
// Servers are registered with AddServer and identified by name. A name can be
// registered once; adding it again fails with *api.AlreadyExistsError. Each
// server has a status:
//
//	lazy          stdio server waiting for its first use
//	disconnected  no connection, connects on Connect or first use
//	connecting    a connect attempt is in flight
//	connected     live connection, capabilities in the catalog
//	error         last attempt failed, LastError says why
//
// In-process servers are started when registered and are never lazy.
//
// # Connecting
//
// Connect builds a transport client, races its handshake against the timeout
// chosen by mcpserver.TimeoutPolicy and, on success, discovers capabilities.
// A handshake that loses the race is closed and reported as an
// *api.ConnectTimeoutError. A failed listing of one capability class leaves
// that class empty and does not fail the connection.
//
// At most one connect attempt per server is in flight. EnsureConnected and
// Connect share attempts through a singleflight group, so ten concurrent
// calls against a cold server spawn one subprocess.
//
// # Tool calls
//
// CallTool connects on demand and bounds the call with a timeout. A
// connection-class failure (timeout, closed connection, not connected) leads
// to exactly one Reconnect and one retry with a shorter timeout. A result
// flagged isError is returned as is.
//
// # Events
//
// State transitions are published on an events.Bus. Use Subscribe for a
// callback or Events for a channel.
package hub
