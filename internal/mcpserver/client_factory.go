package mcpserver

import (
	"fmt"
	"sync"

	"mcphub/internal/api"
)

// ClientFactory builds a transport client for a server configuration. The hub
// takes one so tests can inject fakes.
type ClientFactory func(cfg api.ServerConfig) (MCPClient, error)

// NewClient creates the MCP client matching the configuration's transport.
// In-process configurations have no transport and are rejected; they are
// served through an InProcessAdapter instead.
func NewClient(cfg api.ServerConfig) (MCPClient, error) {
	if err := api.Validate(cfg); err != nil {
		return nil, err
	}

	b := &clientBuilder{}
	if err := cfg.Accept(b); err != nil {
		return nil, err
	}
	return b.client, nil
}

type clientBuilder struct {
	client MCPClient
}

func (b *clientBuilder) VisitStdio(cfg *api.StdioConfig) error {
	b.client = NewStdioClient(cfg.Name, cfg.Command, cfg.Args, cfg.Env)
	return nil
}

func (b *clientBuilder) VisitSSE(cfg *api.SSEConfig) error {
	b.client = NewSSEClient(cfg.Name, cfg.URL, cfg.Headers)
	return nil
}

func (b *clientBuilder) VisitStreamable(cfg *api.StreamableConfig) error {
	b.client = NewStreamableHTTPClient(cfg.Name, cfg.URL, cfg.Headers)
	return nil
}

func (b *clientBuilder) VisitInProcess(cfg *api.InProcessConfig) error {
	return fmt.Errorf("server %s is in-process and has no transport client", cfg.Name)
}

// CloseOnce wraps c so that only the first Close reaches the transport. Later
// calls return the first call's result.
func CloseOnce(c MCPClient) MCPClient {
	if _, ok := c.(*onceCloser); ok {
		return c
	}
	return &onceCloser{MCPClient: c}
}

type onceCloser struct {
	MCPClient
	once sync.Once
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() {
		o.err = o.MCPClient.Close()
	})
	return o.err
}
