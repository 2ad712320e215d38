// Package mcpserver provides the transport side of talking to MCP servers.
//
// # Clients
//
// Every transport implements MCPClient:
//
//   - StdioClient spawns a local subprocess and speaks MCP over stdin/stdout.
//     Its stderr is forwarded line by line to debug logs under the
//     "StdioServer" subsystem.
//   - SSEClient connects to a remote server over Server-Sent Events. The event
//     stream is started on a context detached from the connect deadline and
//     is stopped by Close.
//   - StreamableHTTPClient connects to a remote server over streamable HTTP.
//   - SDKClient talks to an mcp-go server in the same process.
//
// NewClient picks the implementation from an api.ServerConfig. Clients attach
// the underlying SDK client before the handshake, so Close can interrupt an
// Initialize that never returns. CloseOnce makes repeated Close calls safe.
//
// # Timeouts
//
// TimeoutPolicy chooses a connect budget per server:
//
//	remote (sse, http-streamable)    30s
//	stdio                            60s
//	stdio through a package runner   3m   (npx, uvx, pipx, npm exec, ...)
//
// Package runners may download on first use, so their timeout error carries a
// hint to pre-fetch the package by hand.
//
// # In-process servers
//
// InProcessAdapter wraps an api.InProcessServer and recovers panics. SDKServer
// turns an mcp-go server.MCPServer into an api.InProcessServer.
package mcpserver
