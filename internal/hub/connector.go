package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"mcphub/internal/api"
	"mcphub/internal/events"
	"mcphub/internal/mcpserver"
	"mcphub/pkg/logging"
)

var (
	// errConnectTimeout marks a handshake that lost the race against its timer.
	errConnectTimeout = errors.New("connect timeout")

	// errDisabled is returned when connecting a disabled server.
	errDisabled = errors.New("server is disabled")
)

// Connect establishes a connection to name and discovers its capabilities. It
// is a no-op if the server is already connected, and joins an attempt already
// in flight instead of starting a second one.
func (h *Hub) Connect(ctx context.Context, name string) error {
	h.mu.Lock()
	e, ok := h.servers[name]
	if !ok {
		h.mu.Unlock()
		return api.NewServerNotFoundError(name)
	}
	if e.connected() {
		h.mu.Unlock()
		return nil
	}
	if !e.config.IsEnabled() {
		h.mu.Unlock()
		return fmt.Errorf("cannot connect %s: %w", name, errDisabled)
	}
	h.mu.Unlock()

	return h.connectShared(ctx, name)
}

// connectShared runs at most one connect attempt per server name. Every caller
// waits for the shared attempt or its own ctx, whichever ends first. The
// attempt itself is not cancelled when a caller gives up.
func (h *Hub) connectShared(ctx context.Context, name string) error {
	ch := h.inflight.DoChan(name, func() (interface{}, error) {
		return nil, h.connect(context.WithoutCancel(ctx), name)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// connect performs one attempt. It must only run inside connectShared.
func (h *Hub) connect(ctx context.Context, name string) error {
	h.mu.Lock()
	e, ok := h.servers[name]
	if !ok {
		h.mu.Unlock()
		return api.NewServerNotFoundError(name)
	}
	if e.connected() {
		h.mu.Unlock()
		return nil
	}
	if !e.config.IsEnabled() {
		h.mu.Unlock()
		return fmt.Errorf("cannot connect %s: %w", name, errDisabled)
	}
	cfg, gen := e.config, e.generation
	evs := h.transitionLocked(name, e, api.StatusConnecting, "")
	h.mu.Unlock()
	h.publish(evs...)

	if ipc, ok := cfg.(*api.InProcessConfig); ok {
		return h.startInProcess(ctx, name, e, gen, ipc)
	}

	logging.Debug("Connector", "Connecting to %s (%s)", name, api.Describe(cfg))

	client, err := h.opts.ClientFactory(cfg)
	if err != nil {
		err = fmt.Errorf("failed to create client for %s: %w", name, err)
		h.fail(name, e, gen, err)
		return err
	}
	client = mcpserver.CloseOnce(client)

	timeout, hint := h.opts.TimeoutPolicy.For(cfg)
	started := time.Now()
	if err := initializeWithTimeout(ctx, client, timeout); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logging.Debug("Connector", "Closing failed client for %s: %v", name, closeErr)
		}
		if errors.Is(err, errConnectTimeout) {
			err = &api.ConnectTimeoutError{Server: name, Timeout: timeout, Hint: hint}
		} else {
			err = fmt.Errorf("failed to connect to %s: %w", name, err)
		}
		h.fail(name, e, gen, err)
		return err
	}
	logging.Debug("Connector", "Handshake with %s completed in %s", name, time.Since(started).Round(time.Millisecond))

	tools, resources, prompts := h.discover(ctx, name, client)

	h.mu.Lock()
	if h.servers[name] != e || e.generation != gen {
		h.mu.Unlock()
		_ = client.Close()
		logging.Debug("Connector", "Discarding connection to %s: server changed while connecting", name)
		return fmt.Errorf("mcp server %s changed while connecting", name)
	}
	e.client = client
	e.lastConnected = time.Now()
	h.catalog.Replace(name, tools, resources, prompts)
	evs = h.transitionLocked(name, e, api.StatusConnected, "")
	evs = append(evs, h.capabilitiesEvent(name))
	h.mu.Unlock()
	h.publish(evs...)

	logging.Info("Connector", "Connected to %s (%d tools, %d resources, %d prompts)",
		name, len(tools), len(resources), len(prompts))
	return nil
}

// startInProcess builds and starts an in-process server. No timeout race
// applies.
func (h *Hub) startInProcess(ctx context.Context, name string, e *entry, gen uint64, cfg *api.InProcessConfig) error {
	adapter, err := mcpserver.NewInProcessAdapter(name, cfg.Factory)
	if err == nil {
		err = adapter.Start(ctx)
	}
	if err != nil {
		err = fmt.Errorf("failed to start in-process server %s: %w", name, err)
		h.fail(name, e, gen, err)
		return err
	}

	tools, resources, prompts := h.discover(ctx, name, adapter)

	h.mu.Lock()
	if h.servers[name] != e || e.generation != gen {
		h.mu.Unlock()
		_ = adapter.Stop(ctx)
		return fmt.Errorf("mcp server %s changed while starting", name)
	}
	e.inproc = adapter
	e.lastConnected = time.Now()
	h.catalog.Replace(name, tools, resources, prompts)
	evs := h.transitionLocked(name, e, api.StatusConnected, "")
	evs = append(evs, h.capabilitiesEvent(name))
	h.mu.Unlock()
	h.publish(evs...)

	logging.Info("Connector", "Started in-process server %s (%d tools)", name, len(tools))
	return nil
}

// fail records err on e unless the entry was replaced in the meantime.
func (h *Hub) fail(name string, e *entry, gen uint64, err error) {
	logging.Error("Connector", err, "Connection to %s failed", name)

	h.mu.Lock()
	if h.servers[name] != e || e.generation != gen {
		h.mu.Unlock()
		return
	}
	evs := h.transitionLocked(name, e, api.StatusError, err.Error())
	h.mu.Unlock()
	h.publish(evs...)
}

// initializeWithTimeout races the handshake against timeout. The handshake
// runs on its own goroutine so a transport that ignores ctx still loses the
// race on time; the caller then closes it.
func initializeWithTimeout(ctx context.Context, client mcpserver.MCPClient, timeout time.Duration) error {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- client.Initialize(connectCtx)
	}()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil && errors.Is(connectCtx.Err(), context.DeadlineExceeded) {
			return errConnectTimeout
		}
		return err
	case <-connectCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errConnectTimeout
	}
}

// Disconnect closes the connection to name, drops its capabilities and sets
// its status to disconnected. Close errors are logged, not returned.
func (h *Hub) Disconnect(ctx context.Context, name string) error {
	return h.teardown(ctx, name, func(api.ServerConfig) api.Status { return api.StatusDisconnected })
}

// reset tears down any connection and returns name to its initial status.
func (h *Hub) reset(ctx context.Context, name string) error {
	return h.teardown(ctx, name, initialStatus)
}

func (h *Hub) teardown(ctx context.Context, name string, next func(api.ServerConfig) api.Status) error {
	h.mu.Lock()
	e, ok := h.servers[name]
	if !ok {
		h.mu.Unlock()
		return api.NewServerNotFoundError(name)
	}
	client, inproc := e.client, e.inproc
	wasConnected := e.connected()
	e.client, e.inproc = nil, nil
	e.generation++
	gen := e.generation
	h.inflight.Forget(name)
	h.mu.Unlock()

	// The handle is closed before the status leaves connected.
	h.closeHandle(ctx, name, client, inproc)

	h.mu.Lock()
	if h.servers[name] != e || e.generation != gen {
		h.mu.Unlock()
		return nil
	}
	h.catalog.RemoveServer(name)
	evs := h.transitionLocked(name, e, next(e.config), "")
	if wasConnected {
		evs = append(evs, events.Event{Reason: events.ReasonCapabilitiesChanged, Server: name})
	}
	h.mu.Unlock()
	h.publish(evs...)

	if wasConnected {
		logging.Info("Connector", "Disconnected from %s", name)
	}
	return nil
}

func (h *Hub) closeHandle(ctx context.Context, name string, client mcpserver.MCPClient, inproc *mcpserver.InProcessAdapter) {
	if client != nil {
		if err := client.Close(); err != nil {
			logging.Warn("Connector", "Error closing connection to %s: %v", name, err)
		}
	}
	if inproc != nil {
		if err := inproc.Stop(ctx); err != nil {
			logging.Warn("Connector", "Error stopping in-process server %s: %v", name, err)
		}
	}
}

// Reconnect disconnects name and connects it again with its current config.
func (h *Hub) Reconnect(ctx context.Context, name string) api.ReconnectResult {
	if err := h.Disconnect(ctx, name); err != nil {
		return api.ReconnectResult{Success: false, Error: err.Error()}
	}
	if err := h.Connect(ctx, name); err != nil {
		return api.ReconnectResult{Success: false, Error: err.Error()}
	}
	return api.ReconnectResult{Success: true}
}

// recoverConnection replaces the connection to name after failed broke. The
// teardown and the new connect run as one shared attempt, so concurrent
// callers that saw the same client fail cause a single reconnect. A caller
// whose failed client was already replaced only waits for, or reuses, the
// current connection.
func (h *Hub) recoverConnection(ctx context.Context, name string, failed mcpserver.MCPClient) error {
	ch := h.inflight.DoChan(name, func() (interface{}, error) {
		attemptCtx := context.WithoutCancel(ctx)
		h.dropClient(attemptCtx, name, failed)
		return nil, h.connect(attemptCtx, name)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dropClient disconnects name if its live client is still failed. It runs
// inside a shared attempt and so leaves the in-flight record alone.
func (h *Hub) dropClient(ctx context.Context, name string, failed mcpserver.MCPClient) {
	h.mu.Lock()
	e, ok := h.servers[name]
	if !ok || failed == nil || e.client != failed {
		h.mu.Unlock()
		return
	}
	e.client = nil
	e.generation++
	gen := e.generation
	h.mu.Unlock()

	h.closeHandle(ctx, name, failed, nil)

	h.mu.Lock()
	if h.servers[name] != e || e.generation != gen {
		h.mu.Unlock()
		return
	}
	h.catalog.RemoveServer(name)
	evs := h.transitionLocked(name, e, api.StatusDisconnected, "")
	evs = append(evs, events.Event{Reason: events.ReasonCapabilitiesChanged, Server: name})
	h.mu.Unlock()
	h.publish(evs...)

	logging.Info("Connector", "Dropped broken connection to %s", name)
}

// capabilityLister is the listing subset shared by transport clients and
// in-process adapters.
type capabilityLister interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	ListResources(ctx context.Context) ([]mcp.Resource, error)
	ListPrompts(ctx context.Context) ([]mcp.Prompt, error)
}

// discover lists the three capability classes concurrently. A class that
// fails to list contributes nothing; it never affects the other two.
func (h *Hub) discover(ctx context.Context, name string, lister capabilityLister) ([]mcp.Tool, []mcp.Resource, []mcp.Prompt) {
	var (
		tools     []mcp.Tool
		resources []mcp.Resource
		prompts   []mcp.Prompt
		g         errgroup.Group
	)

	g.Go(func() error {
		tools = listWithTimeout(ctx, h.opts.DiscoveryTimeout, name, "tools", lister.ListTools)
		return nil
	})
	g.Go(func() error {
		resources = listWithTimeout(ctx, h.opts.DiscoveryTimeout, name, "resources", lister.ListResources)
		return nil
	})
	g.Go(func() error {
		prompts = listWithTimeout(ctx, h.opts.DiscoveryTimeout, name, "prompts", lister.ListPrompts)
		return nil
	})
	_ = g.Wait()

	return tools, resources, prompts
}

func listWithTimeout[T any](ctx context.Context, timeout time.Duration, server, class string, list func(context.Context) ([]T, error)) []T {
	listCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	items, err := list(listCtx)
	if err != nil {
		logging.Debug("Connector", "Server %s did not list %s: %v", server, class, err)
		return nil
	}
	return items
}
