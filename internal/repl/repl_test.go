package repl

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphub/internal/api"
	"mcphub/internal/formatting"
	"mcphub/internal/hub"
	"mcphub/internal/mcpserver"
	"mcphub/internal/metatools"
)

func init() {
	color.NoColor = true
}

// newTestREPL runs the REPL against a hub holding only the builtin server.
func newTestREPL(t *testing.T) (*REPL, *hub.Hub, *bytes.Buffer) {
	t.Helper()
	h := hub.New(hub.Options{
		ClientFactory: func(api.ServerConfig) (mcpserver.MCPClient, error) {
			return nil, errors.New("no transports in this test")
		},
	})
	t.Cleanup(func() { _ = h.Close(context.Background()) })

	require.NoError(t, h.AddServer(context.Background(), &api.InProcessConfig{
		Name:    metatools.ServerName,
		Enabled: true,
		Factory: metatools.Factory(h, "test"),
	}))

	var out bytes.Buffer
	return New(h, formatting.NewTableFormatter(formatting.Options{}), &out), h, &out
}

func run(t *testing.T, r *REPL, out *bytes.Buffer, input string) string {
	t.Helper()
	out.Reset()
	require.NoError(t, r.executeCommand(context.Background(), input))
	return out.String()
}

func TestHelp(t *testing.T) {
	r, _, out := newTestREPL(t)

	text := run(t, r, out, "help")
	assert.Contains(t, text, "call <tool> [{json}]")
	assert.Contains(t, text, "reconnect <server>")

	text = run(t, r, out, "? quit")
	assert.Contains(t, text, "exit")

	err := r.executeCommand(context.Background(), "frobnicate")
	assert.ErrorContains(t, err, "unknown command: frobnicate")

	assert.NoError(t, r.executeCommand(context.Background(), "   "))
}

func TestServersAndTools(t *testing.T) {
	r, _, out := newTestREPL(t)

	text := run(t, r, out, "ls")
	assert.Contains(t, text, metatools.ServerName)
	assert.Contains(t, text, "connected")

	text = run(t, r, out, "tools mcp__hub__list_*")
	assert.Contains(t, text, "mcp__hub__list_servers")
	assert.NotContains(t, text, "mcp__hub__call_tool")
	assert.Contains(t, text, "Total: 4 tools")

	text = run(t, r, out, "describe mcp__hub__describe_tool")
	assert.Contains(t, text, "Input schema")
	assert.Contains(t, text, `"name"`)

	err := r.executeCommand(context.Background(), "describe mcp__hub__nope")
	assert.ErrorContains(t, err, "tool not found")
}

func TestCall(t *testing.T) {
	r, _, out := newTestREPL(t)

	text := run(t, r, out, "call mcp__hub__hub_status")
	assert.Contains(t, text, "inProcessServers")

	text = run(t, r, out, `call mcp__hub__describe_tool {"name": "mcp__hub__hub_status"}`)
	assert.Contains(t, text, "mcp__hub__hub_status")

	text = run(t, r, out, "call mcp__nope__tool")
	assert.Contains(t, text, "Error:")

	err := r.executeCommand(context.Background(), "call mcp__hub__hub_status {broken")
	assert.ErrorContains(t, err, "arguments must be a JSON object")
}

func TestResourcesAndPrompts(t *testing.T) {
	r, _, out := newTestREPL(t)

	text := run(t, r, out, "resources")
	assert.Contains(t, text, metatools.StatusResourceURI)

	text = run(t, r, out, "read hub "+metatools.StatusResourceURI)
	assert.Contains(t, text, "connectedServers")

	text = run(t, r, out, `prompt hub diagnose {"server": "hub"}`)
	assert.Contains(t, text, `"hub"`)
	assert.Contains(t, text, "user:")

	err := r.executeCommand(context.Background(), "read hub")
	assert.ErrorContains(t, err, "usage: read <server> <uri>")
}

func TestEnableDisable(t *testing.T) {
	r, h, out := newTestREPL(t)

	text := run(t, r, out, "disable hub")
	assert.Contains(t, text, "Disabled hub")
	state, ok := h.GetServerState(metatools.ServerName)
	require.True(t, ok)
	assert.False(t, state.Enabled)
	assert.Empty(t, h.AgentTools())

	text = run(t, r, out, "enable hub")
	assert.Contains(t, text, "Enabled hub")
	state, _ = h.GetServerState(metatools.ServerName)
	assert.True(t, state.Enabled)
	assert.Equal(t, api.StatusConnected, state.Status)

	err := r.executeCommand(context.Background(), "enable nope")
	assert.True(t, api.IsNotFound(err))
}

func TestEventsAndExit(t *testing.T) {
	r, _, out := newTestREPL(t)

	run(t, r, out, "events off")
	assert.False(t, r.showEvents.Load())
	run(t, r, out, "events on")
	assert.True(t, r.showEvents.Load())

	err := r.executeCommand(context.Background(), "events maybe")
	assert.ErrorContains(t, err, "usage")

	assert.ErrorIs(t, r.executeCommand(context.Background(), "quit"), errExit)
}

func TestParseJSONArgs(t *testing.T) {
	args, err := parseJSONArgs(nil)
	require.NoError(t, err)
	assert.Nil(t, args)

	args, err = parseJSONArgs([]string{`{"a":`, `1}`})
	require.NoError(t, err)
	assert.EqualValues(t, 1, args["a"])

	_, err = parseJSONArgs([]string{"[1]"})
	assert.Error(t, err)
}
