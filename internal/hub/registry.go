package hub

import (
	"context"
	"fmt"
	"sort"

	"mcphub/internal/api"
	"mcphub/internal/events"
	"mcphub/pkg/logging"
)

// AddServer registers cfg. A name that is already registered is rejected with
// an *api.AlreadyExistsError; the existing entry is left untouched.
//
// The initial status is lazy for stdio servers that load lazily and
// disconnected otherwise. Enabled in-process servers are started right away.
func (h *Hub) AddServer(ctx context.Context, cfg api.ServerConfig) error {
	if err := api.Validate(cfg); err != nil {
		return err
	}
	name := cfg.ServerName()
	effective := h.applyRequiredEnv(cfg)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errHubClosed
	}
	if _, exists := h.servers[name]; exists {
		h.mu.Unlock()
		return &api.AlreadyExistsError{Name: name}
	}
	e := &entry{requested: cfg, config: effective}
	h.servers[name] = e
	evs := append([]events.Event{{Reason: events.ReasonServerAdded, Server: name}},
		h.transitionLocked(name, e, initialStatus(effective), "")...)
	h.mu.Unlock()

	h.publish(evs...)
	logging.Info("Hub", "Registered %s server %s (%s)", effective.Kind(), name, api.Describe(effective))

	if effective.Kind() == api.TransportInProcess && effective.IsEnabled() {
		if err := h.Connect(ctx, name); err != nil {
			logging.Warn("Hub", "In-process server %s failed to start: %v", name, err)
		}
	}
	return nil
}

// RemoveServer disconnects the server if needed and forgets it entirely.
func (h *Hub) RemoveServer(ctx context.Context, name string) error {
	h.mu.Lock()
	e, ok := h.servers[name]
	if !ok {
		h.mu.Unlock()
		return api.NewServerNotFoundError(name)
	}
	delete(h.servers, name)
	h.inflight.Forget(name)
	client, inproc := e.client, e.inproc
	e.client, e.inproc = nil, nil
	e.generation++
	h.catalog.RemoveServer(name)
	h.mu.Unlock()

	h.closeHandle(ctx, name, client, inproc)
	h.publish(events.Event{Reason: events.ReasonServerRemoved, Server: name})
	logging.Info("Hub", "Removed server %s", name)
	return nil
}

// UpdateServerConfig replaces the configuration of name.
//
// Enabling connects (a lazy stdio server goes back to lazy instead), disabling
// disconnects. Changing an enabled server reconnects it if it was connected,
// connecting or in error, and otherwise resets it to its initial status. An
// identical configuration is a no-op.
func (h *Hub) UpdateServerConfig(ctx context.Context, name string, cfg api.ServerConfig) error {
	if err := api.Validate(cfg); err != nil {
		return err
	}
	if cfg.ServerName() != name {
		return api.NewConfigError(name, "name", fmt.Sprintf("cannot be changed to %q", cfg.ServerName()))
	}
	effective := h.applyRequiredEnv(cfg)

	h.mu.Lock()
	e, ok := h.servers[name]
	if !ok {
		h.mu.Unlock()
		return api.NewServerNotFoundError(name)
	}
	if api.EqualConfigs(e.requested, cfg) {
		h.mu.Unlock()
		return nil
	}
	wasEnabled := e.config.IsEnabled()
	prevStatus := e.status
	e.requested, e.config = cfg, effective
	h.mu.Unlock()

	h.publish(events.Event{Reason: events.ReasonServerUpdated, Server: name})
	logging.Info("Hub", "Updated configuration of %s", name)

	nowEnabled := effective.IsEnabled()
	switch {
	case !wasEnabled && nowEnabled:
		if initialStatus(effective) == api.StatusLazy {
			return h.reset(ctx, name)
		}
		return h.Connect(ctx, name)

	case wasEnabled && !nowEnabled:
		return h.Disconnect(ctx, name)

	case nowEnabled && (prevStatus == api.StatusConnected || prevStatus == api.StatusConnecting || prevStatus == api.StatusError):
		if res := h.Reconnect(ctx, name); !res.Success {
			return fmt.Errorf("failed to reconnect %s: %s", name, res.Error)
		}
		return nil

	default:
		return h.reset(ctx, name)
	}
}

// SetServerEnabled toggles the enabled flag of name and connects or
// disconnects accordingly.
func (h *Hub) SetServerEnabled(ctx context.Context, name string, enabled bool) error {
	h.mu.Lock()
	e, ok := h.servers[name]
	if !ok {
		h.mu.Unlock()
		return api.NewServerNotFoundError(name)
	}
	requested := e.requested
	h.mu.Unlock()

	if err := h.UpdateServerConfig(ctx, name, requested.WithEnabled(enabled)); err != nil {
		return err
	}

	if enabled {
		if state, ok := h.GetServerState(name); ok && !state.Enabled {
			return api.NewConfigError(name, "requiredEnvVars", "are not all set, server stays disabled")
		}
	}
	return nil
}

// GetServerState returns a snapshot of one server.
func (h *Hub) GetServerState(name string) (api.ServerState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.servers[name]
	if !ok {
		return api.ServerState{}, false
	}
	return h.snapshotLocked(name, e), true
}

// GetServerStates returns snapshots of every server, sorted by name.
func (h *Hub) GetServerStates() []api.ServerState {
	h.mu.Lock()
	defer h.mu.Unlock()

	states := make([]api.ServerState, 0, len(h.servers))
	for name, e := range h.servers {
		states = append(states, h.snapshotLocked(name, e))
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}

func (h *Hub) snapshotLocked(name string, e *entry) api.ServerState {
	tools, resources, prompts := h.catalog.Counts(name)
	return api.ServerState{
		Config:        e.config,
		Name:          name,
		Kind:          e.config.Kind(),
		Enabled:       e.config.IsEnabled(),
		Status:        e.status,
		LastError:     e.lastError,
		ToolCount:     tools,
		ResourceCount: resources,
		PromptCount:   prompts,
		LastConnected: e.lastConnected,
	}
}

// ReconcileResult summarizes a Reconcile pass.
type ReconcileResult struct {
	Added   []string
	Removed []string
	Updated []string
	// Errors maps server names to the error their operation returned.
	Errors map[string]error
}

// Reconcile brings the registry in line with desired: servers not in desired
// are removed, new ones added and changed ones updated.
func (h *Hub) Reconcile(ctx context.Context, desired []api.ServerConfig) ReconcileResult {
	result := ReconcileResult{Errors: make(map[string]error)}

	want := make(map[string]api.ServerConfig, len(desired))
	for i, cfg := range desired {
		if err := api.Validate(cfg); err != nil {
			result.Errors[fmt.Sprintf("servers[%d]", i)] = err
			continue
		}
		want[cfg.ServerName()] = cfg
	}

	h.mu.Lock()
	current := make(map[string]api.ServerConfig, len(h.servers))
	for name, e := range h.servers {
		current[name] = e.requested
	}
	h.mu.Unlock()

	for _, name := range sortedKeys(current) {
		if _, keep := want[name]; keep {
			continue
		}
		if err := h.RemoveServer(ctx, name); err != nil {
			result.Errors[name] = err
			continue
		}
		result.Removed = append(result.Removed, name)
	}

	for _, name := range sortedKeys(want) {
		cfg := want[name]
		existing, ok := current[name]
		switch {
		case !ok:
			if err := h.AddServer(ctx, cfg); err != nil {
				result.Errors[name] = err
				continue
			}
			result.Added = append(result.Added, name)
		case !api.EqualConfigs(existing, cfg):
			if err := h.UpdateServerConfig(ctx, name, cfg); err != nil {
				result.Errors[name] = err
			}
			result.Updated = append(result.Updated, name)
		}
	}

	if len(result.Added)+len(result.Removed)+len(result.Updated) > 0 {
		logging.Info("Hub", "Reconciled servers: %d added, %d removed, %d updated, %d errors",
			len(result.Added), len(result.Removed), len(result.Updated), len(result.Errors))
	}
	return result
}

func sortedKeys(m map[string]api.ServerConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
