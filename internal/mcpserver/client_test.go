package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphub/internal/api"
)

func TestNewClient(t *testing.T) {
	factory := func() (api.InProcessServer, error) { return nil, nil }

	tests := []struct {
		name        string
		cfg         api.ServerConfig
		wantType    interface{}
		errContains string
	}{
		{
			name:     "stdio",
			cfg:      &api.StdioConfig{Name: "fs", Command: "echo", Args: []string{"hello"}},
			wantType: &StdioClient{},
		},
		{
			name:     "sse",
			cfg:      &api.SSEConfig{Name: "remote", URL: "http://localhost:8080/sse"},
			wantType: &SSEClient{},
		},
		{
			name:     "streamable",
			cfg:      &api.StreamableConfig{Name: "remote", URL: "http://localhost:8080/mcp"},
			wantType: &StreamableHTTPClient{},
		},
		{
			name:        "stdio missing command",
			cfg:         &api.StdioConfig{Name: "fs"},
			errContains: "command",
		},
		{
			name:        "in-process has no transport",
			cfg:         &api.InProcessConfig{Name: "hub", Factory: factory},
			errContains: "in-process",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, c)
		})
	}
}

func TestClientsNotConnected(t *testing.T) {
	ctx := context.Background()
	clients := map[string]MCPClient{
		"stdio":      NewStdioClient("fs", "echo", nil, nil),
		"sse":        NewSSEClient("r", "http://localhost:1/sse", nil),
		"streamable": NewStreamableHTTPClient("r", "http://localhost:1/mcp", nil),
	}

	for name, c := range clients {
		t.Run(name, func(t *testing.T) {
			_, err := c.ListTools(ctx)
			assert.ErrorIs(t, err, api.ErrNotConnected)

			_, err = c.CallTool(ctx, "x", nil)
			assert.ErrorIs(t, err, api.ErrNotConnected)

			_, err = c.ReadResource(ctx, "file:///x")
			assert.ErrorIs(t, err, api.ErrNotConnected)

			_, err = c.GetPrompt(ctx, "p", nil)
			assert.ErrorIs(t, err, api.ErrNotConnected)

			assert.ErrorIs(t, c.Ping(ctx), api.ErrNotConnected)

			assert.NoError(t, c.Close())
			assert.NoError(t, c.Close())
		})
	}
}

func TestInitializeAfterClose(t *testing.T) {
	c := NewStreamableHTTPClient("r", "http://localhost:1/mcp", nil)
	require.NoError(t, c.Close())

	err := c.Initialize(context.Background())
	assert.ErrorIs(t, err, errClientClosed)
}

type countingClient struct {
	MCPClient
	closes int
	err    error
}

func (c *countingClient) Close() error {
	c.closes++
	return c.err
}

func TestCloseOnce(t *testing.T) {
	inner := &countingClient{err: errors.New("already gone")}
	c := CloseOnce(inner)

	assert.EqualError(t, c.Close(), "already gone")
	assert.EqualError(t, c.Close(), "already gone")
	assert.Equal(t, 1, inner.closes)

	assert.Same(t, c, CloseOnce(c), "wrapping twice should not stack")
}

func TestEnvSlice(t *testing.T) {
	assert.Nil(t, envSlice(nil))
	assert.Equal(t, []string{"A=1", "B=two"}, envSlice(map[string]string{"B": "two", "A": "1"}))
}

func TestPromptArguments(t *testing.T) {
	assert.Nil(t, PromptArguments(nil))
	assert.Equal(t,
		map[string]string{"path": "/tmp", "depth": "2", "force": "true"},
		PromptArguments(map[string]interface{}{"path": "/tmp", "depth": 2, "force": true}),
	)
}
