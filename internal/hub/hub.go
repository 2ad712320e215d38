package hub

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
	"mcphub/internal/events"
	"mcphub/internal/mcpserver"
	"mcphub/pkg/logging"
)

const (
	// DefaultToolTimeout bounds a tool call when the caller gives no timeout.
	DefaultToolTimeout = 60 * time.Second

	// DefaultRetryTimeout bounds the single retry after a reconnect.
	DefaultRetryTimeout = 30 * time.Second

	// DefaultDiscoveryTimeout bounds each capability listing after connect.
	DefaultDiscoveryTimeout = 30 * time.Second
)

// errHubClosed is returned by registry operations after Close.
var errHubClosed = errors.New("hub is closed")

// Options configures a Hub. Zero values select defaults.
type Options struct {
	// ClientFactory builds transport clients. Defaults to mcpserver.NewClient.
	ClientFactory mcpserver.ClientFactory

	// TimeoutPolicy picks the connect budget per server.
	TimeoutPolicy mcpserver.TimeoutPolicy

	ToolTimeout      time.Duration
	RetryTimeout     time.Duration
	DiscoveryTimeout time.Duration

	// LookupEnv resolves required environment variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

func (o Options) withDefaults() Options {
	if o.ClientFactory == nil {
		o.ClientFactory = mcpserver.NewClient
	}
	o.TimeoutPolicy = o.TimeoutPolicy.WithDefaults()
	if o.ToolTimeout <= 0 {
		o.ToolTimeout = DefaultToolTimeout
	}
	if o.RetryTimeout <= 0 {
		o.RetryTimeout = DefaultRetryTimeout
	}
	if o.DiscoveryTimeout <= 0 {
		o.DiscoveryTimeout = DefaultDiscoveryTimeout
	}
	if o.LookupEnv == nil {
		o.LookupEnv = os.LookupEnv
	}
	return o
}

// entry is the registry record for one server name.
type entry struct {
	// requested is the configuration as the caller supplied it; config is
	// what the hub acts on after force-disabling for missing env vars.
	requested api.ServerConfig
	config    api.ServerConfig

	status        api.Status
	lastError     string
	lastConnected time.Time

	// At most one of client and inproc is set, and only while connected.
	client mcpserver.MCPClient
	inproc *mcpserver.InProcessAdapter

	// generation changes whenever the live connection is torn down or the
	// config replaced, so a connect that finishes late can tell it is stale.
	generation uint64
}

func (e *entry) connected() bool {
	return e.client != nil || e.inproc != nil
}

// Hub is the connection orchestration layer: a registry of MCP servers, their
// connection state, and the capabilities they expose.
//
// Hub is safe for concurrent use. One mutex guards the registry map and is
// never held across I/O.
type Hub struct {
	opts Options

	mu      sync.Mutex
	servers map[string]*entry
	closed  bool

	inflight singleflight.Group
	catalog  *catalog.Catalog
	bus      *events.Bus
}

// New creates an empty hub.
func New(opts Options) *Hub {
	return &Hub{
		opts:    opts.withDefaults(),
		servers: make(map[string]*entry),
		catalog: catalog.New(),
		bus:     events.NewBus(),
	}
}

// Subscribe registers a callback for state-transition events.
func (h *Hub) Subscribe(handler events.Handler) (unsubscribe func()) {
	return h.bus.Subscribe(handler)
}

// Events returns a buffered channel of state-transition events and a cancel
// function that closes it.
func (h *Hub) Events(buffer int) (<-chan events.Event, func()) {
	return h.bus.Channel(buffer)
}

// Close disconnects every server and rejects further registrations.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	names := make([]string, 0, len(h.servers))
	for name := range h.servers {
		names = append(names, name)
	}
	h.mu.Unlock()

	sort.Strings(names)
	var errs []error
	for _, name := range names {
		if err := h.RemoveServer(ctx, name); err != nil && !api.IsNotFound(err) {
			errs = append(errs, err)
		}
	}
	logging.Info("Hub", "Shut down %d servers", len(names))
	return errors.Join(errs...)
}

// transitionLocked moves e to status and returns the event describing it.
// Caller must hold h.mu.
func (h *Hub) transitionLocked(name string, e *entry, status api.Status, lastError string) []events.Event {
	from := e.status
	e.status = status
	e.lastError = lastError
	if from == status && lastError == "" {
		return nil
	}
	return []events.Event{{
		Reason: events.ReasonStatusChanged,
		Server: name,
		From:   from,
		To:     status,
		Error:  lastError,
	}}
}

func (h *Hub) capabilitiesEvent(name string) events.Event {
	tools, resources, prompts := h.catalog.Counts(name)
	return events.Event{
		Reason:        events.ReasonCapabilitiesChanged,
		Server:        name,
		ToolCount:     tools,
		ResourceCount: resources,
		PromptCount:   prompts,
	}
}

func (h *Hub) publish(evs ...events.Event) {
	for _, e := range evs {
		if e.Reason == events.ReasonStatusChanged {
			logging.Debug("Hub", "%s", e.Message())
		}
		h.bus.Publish(e)
	}
}

// initialStatus is the resting status of a server with no live connection.
func initialStatus(cfg api.ServerConfig) api.Status {
	if stdio, ok := cfg.(*api.StdioConfig); ok && stdio.ShouldLazyLoad() {
		return api.StatusLazy
	}
	return api.StatusDisconnected
}

// applyRequiredEnv force-disables a config whose required environment
// variables are missing.
func (h *Hub) applyRequiredEnv(cfg api.ServerConfig) api.ServerConfig {
	streamable, ok := cfg.(*api.StreamableConfig)
	if !ok || !cfg.IsEnabled() {
		return cfg
	}
	missing := streamable.MissingEnvVars(h.opts.LookupEnv)
	if len(missing) == 0 {
		return cfg
	}
	logging.Warn("Hub", "Disabling %s: required environment variables not set: %v", cfg.ServerName(), missing)
	return cfg.WithEnabled(false)
}
