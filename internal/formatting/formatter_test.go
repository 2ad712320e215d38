package formatting

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
)

func init() {
	color.NoColor = true
}

var (
	testStates = []api.ServerState{
		{Name: "github", Kind: api.TransportStdio, Enabled: true, Status: api.StatusConnected, ToolCount: 2},
		{Name: "remote", Kind: api.TransportHTTPStreamable, Enabled: true, Status: api.StatusError,
			LastError: "connection to remote timed out after 30s. The server may be unreachable or slow to respond"},
		{Name: "off", Kind: api.TransportSSE, Enabled: false, Status: api.StatusDisconnected},
	}
	testTools = []catalog.AgentTool{
		{Name: "mcp__github__create_issue", Description: "[MCP:github] Create an issue", ServerName: "github", ToolName: "create_issue"},
	}
)

func newFormatter(t *testing.T, opts Options) Formatter {
	t.Helper()
	f, err := New(opts)
	require.NoError(t, err)
	return f
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestTableFormatter_Servers(t *testing.T) {
	out, err := newFormatter(t, Options{}).FormatServers(testStates)
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "LAST ERROR")
	assert.Contains(t, out, "github")
	assert.Contains(t, out, "http-streamable")
	assert.Contains(t, out, "connected")
	assert.NotContains(t, out, "slow to respond")

	wide, err := newFormatter(t, Options{Wide: true}).FormatServers(testStates)
	require.NoError(t, err)
	assert.Contains(t, wide, "slow to respond")
}

func TestTableFormatter_Empty(t *testing.T) {
	f := newFormatter(t, Options{})

	out, err := f.FormatServers(nil)
	require.NoError(t, err)
	assert.Equal(t, "No servers configured\n", out)

	out, err = f.FormatTools(nil)
	require.NoError(t, err)
	assert.Equal(t, "No tools found\n", out)
}

func TestTableFormatter_ToolsStripServerPrefix(t *testing.T) {
	out, err := newFormatter(t, Options{}).FormatTools(testTools)
	require.NoError(t, err)

	assert.Contains(t, out, "mcp__github__create_issue")
	assert.Contains(t, out, "Create an issue")
	assert.NotContains(t, out, "[MCP:github]")
	assert.Contains(t, out, "Total: 1 tools")
}

func TestTableFormatter_Prompts(t *testing.T) {
	out, err := newFormatter(t, Options{Quiet: true}).FormatPrompts([]catalog.Prompt{{
		Name:       "review",
		ServerName: "github",
		Arguments:  []catalog.PromptArgument{{Name: "pr", Required: true}, {Name: "style"}},
	}})
	require.NoError(t, err)
	assert.Contains(t, out, "pr*, style")
	assert.NotContains(t, out, "Total:")
}

func TestTableFormatter_ToolResult(t *testing.T) {
	f := newFormatter(t, Options{})

	out, err := f.FormatToolResult(api.ToolResult{Success: true, Output: "created #1"})
	require.NoError(t, err)
	assert.Equal(t, "created #1\n", out)

	out, err = f.FormatToolResult(api.ToolResult{Success: false, Error: "MCP server github is disabled"})
	require.NoError(t, err)
	assert.Equal(t, "Error: MCP server github is disabled\n", out)
}

func TestJSONFormatter(t *testing.T) {
	f := newFormatter(t, Options{Format: FormatJSON})

	out, err := f.FormatTools(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	out, err = f.FormatStatus(api.HubStatus{ToolCount: 3})
	require.NoError(t, err)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, []interface{}{}, status["connectedServers"])
	assert.EqualValues(t, 3, status["toolCount"])

	quiet := newFormatter(t, Options{Format: FormatJSON, Quiet: true})
	out, err = quiet.FormatToolResult(api.ToolResult{CallID: "c1", Success: true, Output: "ok", Duration: 1500 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, `{"callId":"c1","success":true,"output":"ok","durationMs":1500}`+"\n", out)
}

func TestYAMLFormatter(t *testing.T) {
	out, err := newFormatter(t, Options{Format: FormatYAML}).FormatServers(testStates[:1])
	require.NoError(t, err)

	assert.Contains(t, out, "- name: github\n")
	assert.Contains(t, out, "  type: stdio\n")
	assert.Contains(t, out, "  toolCount: 2\n")
	assert.NotContains(t, out, "{")
}

func TestTemplateFormatter(t *testing.T) {
	f := newFormatter(t, Options{
		Format:   FormatJSON,
		Template: `{{ range . }}{{ .Name | upper }}={{ .Status }}{{ "\n" }}{{ end }}`,
	})

	out, err := f.FormatServers(testStates[:2])
	require.NoError(t, err)
	assert.Equal(t, "GITHUB=connected\nREMOTE=error\n", out)

	_, err = New(Options{Template: "{{ .Name "})
	assert.ErrorContains(t, err, "invalid template")

	bad := newFormatter(t, Options{Template: "{{ .Missing }}"})
	_, err = bad.FormatStatus(api.HubStatus{})
	assert.ErrorContains(t, err, "failed to render template")
}
