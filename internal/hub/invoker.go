package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
	"mcphub/internal/events"
	"mcphub/internal/mcpserver"
	"mcphub/pkg/logging"
)

// connectionErrorPatterns are lowercase message fragments that mark an error
// as a broken or unusable connection rather than a tool failure.
var connectionErrorPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection closed",
	"not connected",
	"client closed",
	"transport closed",
	"broken pipe",
	"connection reset",
	"connection refused",
	"unexpected eof",
	": eof",
}

// CallTool executes one tool call.
//
// In-process servers are called directly. Other servers are connected on
// demand, and the call races call.Timeout (default 60s). If the call fails
// with a connection-class error the server is reconnected once and the call
// retried once with the retry timeout; the retry's outcome is final. Tool
// errors reported by the server are never retried.
//
// Failures are reported in the result, never as a Go error.
func (h *Hub) CallTool(ctx context.Context, call api.ToolCall) api.ToolResult {
	if call.CallID == "" {
		call.CallID = uuid.NewString()
	}
	start := time.Now()
	finish := func(r api.ToolResult) api.ToolResult {
		r.CallID = call.CallID
		r.Duration = time.Since(start)
		return r
	}

	if h.isDisabled(call.Server) {
		return finish(failure(fmt.Sprintf("MCP server %s is disabled", call.Server)))
	}

	if inproc := h.inProcess(call.Server); inproc != nil {
		res, err := inproc.CallTool(ctx, call.Tool, call.Arguments)
		return finish(toToolResult(res, err))
	}

	if !h.EnsureConnected(ctx, call.Server) {
		return finish(failure(h.unavailableMessage(call.Server)))
	}
	if inproc := h.inProcess(call.Server); inproc != nil {
		res, err := inproc.CallTool(ctx, call.Tool, call.Arguments)
		return finish(toToolResult(res, err))
	}

	timeout := call.Timeout
	if timeout <= 0 {
		timeout = h.opts.ToolTimeout
	}

	client := h.client(call.Server)
	res, err := callWithTimeout(ctx, client, call.Tool, call.Arguments, timeout)
	if err == nil || ctx.Err() != nil || !isConnectionError(err) {
		return finish(toToolResult(res, err))
	}

	logging.Warn("Hub", "Tool %s on %s failed with a connection error, reconnecting: %v", call.Tool, call.Server, err)
	if rerr := h.recoverConnection(ctx, call.Server, client); rerr != nil {
		logging.Warn("Hub", "Reconnect of %s failed: %v", call.Server, rerr)
		return finish(toToolResult(nil, err))
	}
	h.publish(events.Event{Reason: events.ReasonToolCallRetried, Server: call.Server, Error: err.Error()})

	res, err = callWithTimeout(ctx, h.client(call.Server), call.Tool, call.Arguments, h.opts.RetryTimeout)
	return finish(toToolResult(res, err))
}

// CallAgentTool calls a tool by its agent-facing name, mcp__<server>__<tool>.
func (h *Hub) CallAgentTool(ctx context.Context, callID, qualifiedName string, args map[string]any, timeout time.Duration) api.ToolResult {
	server, tool, ok := catalog.ParseQualifiedToolName(qualifiedName)
	if !ok {
		if callID == "" {
			callID = uuid.NewString()
		}
		r := failure(fmt.Sprintf("invalid tool name %q, expected mcp__<server>__<tool>", qualifiedName))
		r.CallID = callID
		return r
	}
	return h.CallTool(ctx, api.ToolCall{
		CallID:    callID,
		Server:    server,
		Tool:      tool,
		Arguments: args,
		Timeout:   timeout,
	})
}

// ReadResource reads uri from server, connecting on demand. No retry applies.
func (h *Hub) ReadResource(ctx context.Context, server, uri string) (*mcp.ReadResourceResult, error) {
	if err := h.requireKnown(server); err != nil {
		return nil, err
	}
	if inproc := h.inProcess(server); inproc != nil {
		return inproc.ReadResource(ctx, uri)
	}
	if !h.EnsureConnected(ctx, server) {
		return nil, errors.New(h.unavailableMessage(server))
	}
	if inproc := h.inProcess(server); inproc != nil {
		return inproc.ReadResource(ctx, uri)
	}

	client := h.client(server)
	if client == nil {
		return nil, api.ErrNotConnected
	}
	return withTimeout(ctx, h.opts.ToolTimeout, "read resource", func(ctx context.Context) (*mcp.ReadResourceResult, error) {
		return client.ReadResource(ctx, uri)
	})
}

// GetPrompt renders prompt name from server, connecting on demand. No retry
// applies.
func (h *Hub) GetPrompt(ctx context.Context, server, name string, args map[string]any) (*mcp.GetPromptResult, error) {
	if err := h.requireKnown(server); err != nil {
		return nil, err
	}
	if inproc := h.inProcess(server); inproc != nil {
		return inproc.GetPrompt(ctx, name, args)
	}
	if !h.EnsureConnected(ctx, server) {
		return nil, errors.New(h.unavailableMessage(server))
	}
	if inproc := h.inProcess(server); inproc != nil {
		return inproc.GetPrompt(ctx, name, args)
	}

	client := h.client(server)
	if client == nil {
		return nil, api.ErrNotConnected
	}
	return withTimeout(ctx, h.opts.ToolTimeout, "get prompt", func(ctx context.Context) (*mcp.GetPromptResult, error) {
		return client.GetPrompt(ctx, name, args)
	})
}

func (h *Hub) requireKnown(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.servers[name]; !ok {
		return api.NewServerNotFoundError(name)
	}
	return nil
}

func (h *Hub) isDisabled(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.servers[name]
	return ok && !e.config.IsEnabled()
}

func (h *Hub) client(name string) mcpserver.MCPClient {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.servers[name]; ok {
		return e.client
	}
	return nil
}

func (h *Hub) inProcess(name string) *mcpserver.InProcessAdapter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.servers[name]; ok {
		return e.inproc
	}
	return nil
}

// unavailableMessage explains why name could not be used, including the last
// recorded error.
func (h *Hub) unavailableMessage(name string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.servers[name]
	switch {
	case !ok:
		return fmt.Sprintf("MCP server %s not found", name)
	case !e.config.IsEnabled():
		return fmt.Sprintf("MCP server %s is disabled", name)
	case e.lastError != "":
		return fmt.Sprintf("MCP server %s is not available: %s", name, e.lastError)
	default:
		return fmt.Sprintf("MCP server %s is not available", name)
	}
}

// callWithTimeout races one tool call against timeout. The call keeps running
// in the background if it loses; the SDK decides whether ctx cancellation
// aborts the request.
func callWithTimeout(ctx context.Context, client mcpserver.MCPClient, tool string, args map[string]any, timeout time.Duration) (*mcp.CallToolResult, error) {
	if client == nil {
		return nil, api.ErrNotConnected
	}
	return withTimeout(ctx, timeout, "tool call", func(ctx context.Context) (*mcp.CallToolResult, error) {
		return client.CallTool(ctx, tool, args)
	})
}

func withTimeout[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(callCtx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return o.value, &api.CallTimeoutError{Operation: op, Timeout: timeout}
		}
		return o.value, o.err
	case <-callCtx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, &api.CallTimeoutError{Operation: op, Timeout: timeout}
	}
}

// isConnectionError reports whether err means the connection itself is broken
// or unresponsive, which warrants one reconnect and retry.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var timeoutErr *api.CallTimeoutError
	if errors.As(err, &timeoutErr) ||
		errors.Is(err, api.ErrNotConnected) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range connectionErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func failure(msg string) api.ToolResult {
	return api.ToolResult{Success: false, Error: msg}
}

// toToolResult converts an SDK outcome into a ToolResult.
func toToolResult(res *mcp.CallToolResult, err error) api.ToolResult {
	if err != nil {
		return failure(err.Error())
	}
	if res == nil {
		return failure("tool returned no result")
	}

	output := ContentToText(res.Content)
	if res.IsError {
		msg := output
		if msg == "" {
			msg = "tool reported an error"
		}
		return api.ToolResult{Success: false, Output: output, Error: msg}
	}
	return api.ToolResult{Success: true, Output: output}
}

// ContentToText flattens content blocks into one string. Text blocks are
// joined with newlines; other blocks become a bracketed placeholder naming
// their kind and MIME type.
func ContentToText(content []mcp.Content) string {
	parts := make([]string, 0, len(content))
	for _, c := range content {
		parts = append(parts, contentPart(c))
	}
	return strings.Join(parts, "\n")
}

func contentPart(c mcp.Content) string {
	switch v := c.(type) {
	case mcp.TextContent:
		return v.Text
	case *mcp.TextContent:
		return v.Text
	case mcp.ImageContent:
		return fmt.Sprintf("[image: %s]", v.MIMEType)
	case *mcp.ImageContent:
		return fmt.Sprintf("[image: %s]", v.MIMEType)
	case mcp.AudioContent:
		return fmt.Sprintf("[audio: %s]", v.MIMEType)
	case *mcp.AudioContent:
		return fmt.Sprintf("[audio: %s]", v.MIMEType)
	case mcp.EmbeddedResource:
		return embeddedPlaceholder(v.Resource)
	case *mcp.EmbeddedResource:
		return embeddedPlaceholder(v.Resource)
	default:
		return fmt.Sprintf("[%s]", contentKind(c))
	}
}

func embeddedPlaceholder(r mcp.ResourceContents) string {
	switch v := r.(type) {
	case mcp.TextResourceContents:
		return fmt.Sprintf("[resource: %s]", placeholderDetail(v.URI, v.MIMEType))
	case *mcp.TextResourceContents:
		return fmt.Sprintf("[resource: %s]", placeholderDetail(v.URI, v.MIMEType))
	case mcp.BlobResourceContents:
		return fmt.Sprintf("[resource: %s]", placeholderDetail(v.URI, v.MIMEType))
	case *mcp.BlobResourceContents:
		return fmt.Sprintf("[resource: %s]", placeholderDetail(v.URI, v.MIMEType))
	default:
		return "[resource]"
	}
}

func placeholderDetail(uri, mimeType string) string {
	if mimeType == "" {
		return uri
	}
	return fmt.Sprintf("%s (%s)", uri, mimeType)
}

// contentKind reads the "type" discriminator of a content block the switch
// above does not know.
func contentKind(c mcp.Content) string {
	data, err := json.Marshal(c)
	if err != nil {
		return "content"
	}
	var probe struct {
		Type     string `json:"type"`
		MIMEType string `json:"mimeType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.Type == "" {
		return "content"
	}
	if probe.MIMEType != "" {
		return probe.Type + ": " + probe.MIMEType
	}
	return probe.Type
}
