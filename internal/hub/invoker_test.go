package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphub/internal/api"
	"mcphub/internal/events"
)

func connectedHub(t *testing.T, srv *fakeServer, mutate ...func(*Options)) *Hub {
	t.Helper()
	h := newTestHub(srv, mutate...)
	require.NoError(t, h.AddServer(context.Background(), eagerStdio("fs")))
	require.NoError(t, h.Connect(context.Background(), "fs"))
	return h
}

func TestCallTool_Success(t *testing.T) {
	srv := newFakeServer()
	h := connectedHub(t, srv)

	result := h.CallTool(context.Background(), api.ToolCall{
		CallID:    "call-1",
		Server:    "fs",
		Tool:      "read_file",
		Arguments: map[string]any{"path": "/tmp/a"},
	})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "call-1", result.CallID)
	assert.Equal(t, "ok:read_file", result.Output)
	assert.Positive(t, result.Duration)
}

func TestCallTool_GeneratesCallID(t *testing.T) {
	h := connectedHub(t, newFakeServer())

	first := h.CallTool(context.Background(), api.ToolCall{Server: "fs", Tool: "read_file"})
	second := h.CallTool(context.Background(), api.ToolCall{Server: "fs", Tool: "read_file"})

	assert.NotEmpty(t, first.CallID)
	assert.NotEqual(t, first.CallID, second.CallID)
}

func TestCallTool_ReconnectsOnceOnConnectionError(t *testing.T) {
	srv := newFakeServer()
	srv.onCall = func(n int, _ context.Context, name string, _ map[string]interface{}) (*mcp.CallToolResult, error) {
		if n == 1 {
			return nil, errors.New("Connection closed")
		}
		return mcp.NewToolResultText("ok:" + name), nil
	}
	h := connectedHub(t, srv)
	rec := &recorder{}
	h.Subscribe(rec.handle)

	result := h.CallTool(context.Background(), api.ToolCall{Server: "fs", Tool: "read_file"})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "ok:read_file", result.Output)
	assert.Equal(t, int32(2), srv.calls.Load())
	assert.Equal(t, int32(2), srv.connects.Load(), "one initial connect and one reconnect")
	assert.Equal(t, int32(1), srv.closes.Load())
	assert.Contains(t, rec.reasons("fs"), events.ReasonToolCallRetried)
}

func TestCallTool_ConcurrentCallersShareOneReconnect(t *testing.T) {
	const callers = 10

	srv := newFakeServer()
	release := make(chan struct{})
	srv.onCall = func(n int, _ context.Context, name string, _ map[string]interface{}) (*mcp.CallToolResult, error) {
		if n <= callers {
			// The first wave fails together once every caller is in flight.
			if n == callers {
				close(release)
			}
			<-release
			return nil, errors.New("Connection closed")
		}
		return mcp.NewToolResultText("ok:" + name), nil
	}
	h := connectedHub(t, srv)

	var wg sync.WaitGroup
	results := make([]api.ToolResult, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = h.CallTool(context.Background(), api.ToolCall{Server: "fs", Tool: "read_file"})
		}()
	}
	wg.Wait()

	for i, result := range results {
		assert.True(t, result.Success, "caller %d: %s", i, result.Error)
	}
	assert.Equal(t, int32(2), srv.connects.Load(), "one initial connect and one shared reconnect")
	assert.Equal(t, int32(1), srv.closes.Load())
	assert.Equal(t, int32(2*callers), srv.calls.Load())

	state, _ := h.GetServerState("fs")
	assert.Equal(t, api.StatusConnected, state.Status)
	assert.Len(t, h.GetTools(), 2)
}

func TestCallTool_CallerDeadlineKeepsConnection(t *testing.T) {
	srv := newFakeServer()
	srv.onCall = func(_ int, _ context.Context, name string, _ map[string]interface{}) (*mcp.CallToolResult, error) {
		time.Sleep(200 * time.Millisecond)
		return mcp.NewToolResultText("ok:" + name), nil
	}
	h := connectedHub(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	result := h.CallTool(ctx, api.ToolCall{Server: "fs", Tool: "read_file", Timeout: 5 * time.Second})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "deadline exceeded")
	assert.Equal(t, int32(1), srv.calls.Load())
	assert.Equal(t, int32(1), srv.connects.Load())
	assert.Equal(t, int32(0), srv.closes.Load())

	state, _ := h.GetServerState("fs")
	assert.Equal(t, api.StatusConnected, state.Status)
}

func TestCallTool_StaleFailureReusesNewConnection(t *testing.T) {
	srv := newFakeServer()
	h := connectedHub(t, srv)

	stale := h.client("fs")
	require.NoError(t, h.recoverConnection(context.Background(), "fs", stale))
	current := h.client("fs")
	require.NotNil(t, current)
	assert.NotSame(t, stale, current)

	// A second report about the replaced client leaves the new one alone.
	require.NoError(t, h.recoverConnection(context.Background(), "fs", stale))
	assert.Same(t, current, h.client("fs"))
	assert.Equal(t, int32(2), srv.connects.Load())
	assert.Equal(t, int32(1), srv.closes.Load())
}

func TestCallTool_RetryOutcomeIsFinal(t *testing.T) {
	srv := newFakeServer()
	srv.onCall = func(int, context.Context, string, map[string]interface{}) (*mcp.CallToolResult, error) {
		return nil, io.EOF
	}
	h := connectedHub(t, srv)

	result := h.CallTool(context.Background(), api.ToolCall{Server: "fs", Tool: "read_file"})

	assert.False(t, result.Success)
	assert.Equal(t, "EOF", result.Error)
	assert.Equal(t, int32(2), srv.calls.Load(), "never more than one retry")
	assert.Equal(t, int32(2), srv.connects.Load())
}

func TestCallTool_TimeoutIsRetried(t *testing.T) {
	srv := newFakeServer()
	srv.onCall = func(n int, ctx context.Context, name string, _ map[string]interface{}) (*mcp.CallToolResult, error) {
		if n == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return mcp.NewToolResultText("ok:" + name), nil
	}
	h := connectedHub(t, srv)

	start := time.Now()
	result := h.CallTool(context.Background(), api.ToolCall{Server: "fs", Tool: "read_file", Timeout: 30 * time.Millisecond})

	require.True(t, result.Success, result.Error)
	assert.GreaterOrEqual(t, result.Duration, 30*time.Millisecond, "duration covers the retry")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(2), srv.connects.Load())
}

func TestCallTool_ReconnectFailureReturnsOriginalError(t *testing.T) {
	srv := newFakeServer()
	srv.onCall = func(int, context.Context, string, map[string]interface{}) (*mcp.CallToolResult, error) {
		srv.set(func(s *fakeServer) { s.initErr = errors.New("spawn failed") })
		return nil, errors.New("broken pipe")
	}
	h := connectedHub(t, srv)

	result := h.CallTool(context.Background(), api.ToolCall{Server: "fs", Tool: "read_file"})

	assert.False(t, result.Success)
	assert.Equal(t, "broken pipe", result.Error)
	assert.Equal(t, int32(1), srv.calls.Load())

	state, _ := h.GetServerState("fs")
	assert.Equal(t, api.StatusError, state.Status)
}

func TestCallTool_ToolErrorIsNotRetried(t *testing.T) {
	srv := newFakeServer()
	srv.onCall = func(int, context.Context, string, map[string]interface{}) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("file not found"), nil
	}
	h := connectedHub(t, srv)

	result := h.CallTool(context.Background(), api.ToolCall{Server: "fs", Tool: "read_file"})

	assert.False(t, result.Success)
	assert.Equal(t, "file not found", result.Error)
	assert.Equal(t, int32(1), srv.calls.Load())
	assert.Equal(t, int32(1), srv.connects.Load(), "no reconnect for tool errors")
}

func TestCallTool_ApplicationErrorIsNotRetried(t *testing.T) {
	srv := newFakeServer()
	srv.onCall = func(int, context.Context, string, map[string]interface{}) (*mcp.CallToolResult, error) {
		return nil, errors.New("invalid params: path is required")
	}
	h := connectedHub(t, srv)

	result := h.CallTool(context.Background(), api.ToolCall{Server: "fs", Tool: "read_file"})

	assert.False(t, result.Success)
	assert.Equal(t, "invalid params: path is required", result.Error)
	assert.Equal(t, int32(1), srv.connects.Load())
}

func TestCallTool_UnavailableServer(t *testing.T) {
	srv := newFakeServer()
	srv.initErr = errors.New("executable not found")
	h := newTestHub(srv)
	require.NoError(t, h.AddServer(context.Background(), lazyStdio("fs")))

	result := h.CallTool(context.Background(), api.ToolCall{Server: "fs", Tool: "read_file"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "MCP server fs is not available")
	assert.Contains(t, result.Error, "executable not found")

	result = h.CallTool(context.Background(), api.ToolCall{Server: "nope", Tool: "read_file"})
	assert.Equal(t, "MCP server nope not found", result.Error)
}

func TestCallAgentTool(t *testing.T) {
	h := connectedHub(t, newFakeServer())

	result := h.CallAgentTool(context.Background(), "c1", "mcp__fs__write_file", nil, 0)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "c1", result.CallID)
	assert.Equal(t, "ok:write_file", result.Output)

	result = h.CallAgentTool(context.Background(), "c2", "write_file", nil, 0)
	assert.False(t, result.Success)
	assert.Equal(t, "c2", result.CallID)
	assert.Contains(t, result.Error, "invalid tool name")
}

func TestReadResourceAndGetPrompt(t *testing.T) {
	srv := newFakeServer()
	h := newTestHub(srv)
	ctx := context.Background()
	require.NoError(t, h.AddServer(ctx, lazyStdio("fs")))

	res, err := h.ReadResource(ctx, "fs", "file:///tmp/a")
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, int32(1), srv.factoryCalls.Load(), "connects on demand")

	prompt, err := h.GetPrompt(ctx, "fs", "summarize", nil)
	require.NoError(t, err)
	assert.Equal(t, "summarize", prompt.Description)

	_, err = h.ReadResource(ctx, "missing", "file:///tmp/a")
	assert.True(t, api.IsNotFound(err))
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "call timeout", err: &api.CallTimeoutError{Operation: "tool call", Timeout: time.Second}, want: true},
		{name: "not connected", err: fmt.Errorf("call: %w", api.ErrNotConnected), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "eof", err: io.EOF, want: true},
		{name: "unexpected eof", err: io.ErrUnexpectedEOF, want: true},
		{name: "net closed", err: net.ErrClosed, want: true},
		{name: "epipe", err: fmt.Errorf("write: %w", syscall.EPIPE), want: true},
		{name: "econnreset", err: syscall.ECONNRESET, want: true},
		{name: "message closed", err: errors.New("transport error: Connection Closed"), want: true},
		{name: "message refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "invalid params", err: errors.New("invalid params"), want: false},
		{name: "tool not found", err: errors.New("tool read_files not found"), want: false},
		{name: "wrapped eof message", err: errors.New("read stdout: EOF"), want: true},
		{name: "unexpected eof message", err: errors.New("decode response: unexpected EOF"), want: true},
		{name: "eof inside a word", err: errors.New("the whereof clause is invalid"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectionError(tt.err))
		})
	}
}

func TestContentToText(t *testing.T) {
	tests := []struct {
		name    string
		content []mcp.Content
		want    string
	}{
		{name: "empty", content: nil, want: ""},
		{
			name:    "text blocks joined",
			content: []mcp.Content{mcp.NewTextContent("first"), mcp.NewTextContent("second")},
			want:    "first\nsecond",
		},
		{
			name:    "image placeholder",
			content: []mcp.Content{mcp.NewImageContent("aGVsbG8=", "image/png")},
			want:    "[image: image/png]",
		},
		{
			name:    "audio placeholder",
			content: []mcp.Content{mcp.NewAudioContent("aGVsbG8=", "audio/wav")},
			want:    "[audio: audio/wav]",
		},
		{
			name: "embedded resource",
			content: []mcp.Content{mcp.NewEmbeddedResource(mcp.TextResourceContents{
				URI:      "file:///tmp/a.txt",
				MIMEType: "text/plain",
				Text:     "hello",
			})},
			want: "[resource: file:///tmp/a.txt (text/plain)]",
		},
		{
			name:    "mixed",
			content: []mcp.Content{mcp.NewTextContent("see image"), mcp.NewImageContent("aGVsbG8=", "image/jpeg")},
			want:    "see image\n[image: image/jpeg]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentToText(tt.content))
		})
	}
}

func TestToToolResult(t *testing.T) {
	r := toToolResult(nil, nil)
	assert.False(t, r.Success)

	r = toToolResult(&mcp.CallToolResult{IsError: true}, nil)
	assert.False(t, r.Success)
	assert.Equal(t, "tool reported an error", r.Error)

	r = toToolResult(mcp.NewToolResultText("done"), nil)
	assert.True(t, r.Success)
	assert.Equal(t, "done", r.Output)
	assert.Empty(t, r.Error)
}
