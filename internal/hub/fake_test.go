package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/internal/api"
	"mcphub/internal/mcpserver"
)

// fakeServer scripts the behaviour of every client the fake factory builds
// and counts what the hub does with them.
type fakeServer struct {
	factoryCalls atomic.Int32
	connects     atomic.Int32
	closes       atomic.Int32
	calls        atomic.Int32

	mu               sync.Mutex
	initDelay        time.Duration
	initBlock        bool
	initErr          error
	tools            []mcp.Tool
	resources        []mcp.Resource
	prompts          []mcp.Prompt
	listResourcesErr error
	onCall           func(n int, ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		tools: []mcp.Tool{
			mcp.NewTool("read_file", mcp.WithDescription("Read a file")),
			mcp.NewTool("write_file", mcp.WithDescription("Write a file")),
		},
		resources: []mcp.Resource{{URI: "file:///tmp/a", Name: "a"}},
		prompts:   []mcp.Prompt{{Name: "summarize"}},
	}
}

func (s *fakeServer) set(fn func(s *fakeServer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *fakeServer) factory(api.ServerConfig) (mcpserver.MCPClient, error) {
	s.factoryCalls.Add(1)
	return &fakeClient{srv: s, closed: make(chan struct{})}, nil
}

type fakeClient struct {
	srv       *fakeServer
	closed    chan struct{}
	closeOnce sync.Once
}

func (c *fakeClient) Initialize(ctx context.Context) error {
	c.srv.connects.Add(1)

	c.srv.mu.Lock()
	delay, block, err := c.srv.initDelay, c.srv.initBlock, c.srv.initErr
	c.srv.mu.Unlock()

	if block {
		// Ignores ctx on purpose: only Close unblocks it.
		<-c.closed
		return errors.New("transport closed")
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (c *fakeClient) Close() error {
	c.srv.closes.Add(1)
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeClient) ListTools(context.Context) ([]mcp.Tool, error) {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	return c.srv.tools, nil
}

func (c *fakeClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	n := int(c.srv.calls.Add(1))

	c.srv.mu.Lock()
	onCall := c.srv.onCall
	c.srv.mu.Unlock()

	if onCall != nil {
		return onCall(n, ctx, name, args)
	}
	return mcp.NewToolResultText("ok:" + name), nil
}

func (c *fakeClient) ListResources(context.Context) ([]mcp.Resource, error) {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	if c.srv.listResourcesErr != nil {
		return nil, c.srv.listResourcesErr
	}
	return c.srv.resources, nil
}

func (c *fakeClient) ReadResource(_ context.Context, uri string) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{mcp.TextResourceContents{URI: uri, Text: "contents"}},
	}, nil
}

func (c *fakeClient) ListPrompts(context.Context) ([]mcp.Prompt, error) {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	return c.srv.prompts, nil
}

func (c *fakeClient) GetPrompt(_ context.Context, name string, _ map[string]interface{}) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{Description: name}, nil
}

func (c *fakeClient) Ping(context.Context) error { return nil }

// fakeInProcess is a minimal in-process server.
type fakeInProcess struct {
	started atomic.Int32
	stopped atomic.Int32
}

func (f *fakeInProcess) Start(context.Context) error { f.started.Add(1); return nil }
func (f *fakeInProcess) Stop(context.Context) error  { f.stopped.Add(1); return nil }

func (f *fakeInProcess) ListTools(context.Context) ([]mcp.Tool, error) {
	return []mcp.Tool{mcp.NewTool("hub_status")}, nil
}

func (f *fakeInProcess) CallTool(_ context.Context, name string, _ map[string]interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("in-process:" + name), nil
}

func (f *fakeInProcess) ListResources(context.Context) ([]mcp.Resource, error) {
	return nil, errors.New("method not found")
}

func (f *fakeInProcess) ReadResource(context.Context, string) (*mcp.ReadResourceResult, error) {
	return nil, errors.New("method not found")
}

func (f *fakeInProcess) ListPrompts(context.Context) ([]mcp.Prompt, error) {
	return nil, errors.New("method not found")
}

func (f *fakeInProcess) GetPrompt(context.Context, string, map[string]interface{}) (*mcp.GetPromptResult, error) {
	return nil, errors.New("method not found")
}

func boolPtr(b bool) *bool { return &b }

func eagerStdio(name string) *api.StdioConfig {
	return &api.StdioConfig{Name: name, Command: "node", Args: []string{"server.js"}, Enabled: true, LazyLoad: boolPtr(false)}
}

func lazyStdio(name string) *api.StdioConfig {
	return &api.StdioConfig{Name: name, Command: "node", Args: []string{"server.js"}, Enabled: true}
}

func newTestHub(srv *fakeServer, mutate ...func(*Options)) *Hub {
	opts := Options{
		ClientFactory: srv.factory,
		LookupEnv:     func(string) (string, bool) { return "", false },
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	return New(opts)
}
