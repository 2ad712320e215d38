// Package metatools implements the hub's own MCP server.
//
// The server is registered with the hub as an in-process server (by default
// under the name "hub") and lets an agent inspect and drive the hub through
// ordinary MCP calls. It is built with the mcp-go server package and wrapped
// by mcpserver.NewSDKServer, so it goes through the same client code paths as
// every other server.
//
// # Available Meta-Tools
//
// Discovery tools:
//   - list_tools: List all tools under their mcp__<server>__<tool> names, optionally filtered by a glob
//   - describe_tool: Get the description and input schema of one tool
//   - list_resources: List discovered resources
//   - list_prompts: List discovered prompts
//
// Execution tools:
//   - call_tool: Execute any tool by its agent-facing name
//   - get_resource: Read a resource from its server
//
// Hub tools:
//   - list_servers: Registered servers with status and capability counts
//   - hub_status: Connected servers and capability totals
//   - reconnect_server: Disconnect and reconnect one server
//
// The server also exposes the resource hub://status and the prompt
// "diagnose", which turns a server's state into a troubleshooting request.
//
// # Usage
//
//	factories := config.Factories{metatools.ServerName: metatools.Factory(h, version)}
package metatools
