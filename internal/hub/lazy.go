package hub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"mcphub/internal/api"
	"mcphub/pkg/logging"
)

// maxParallelConnects bounds ConnectAll's fan-out.
const maxParallelConnects = 8

// EnsureConnected makes sure name has a live connection, connecting on demand.
//
// It returns false for unknown or disabled servers without attempting a
// connection. Concurrent callers for the same server share one attempt and
// all observe its outcome. A caller whose ctx ends stops waiting and gets
// false; the shared attempt carries on for the others.
func (h *Hub) EnsureConnected(ctx context.Context, name string) bool {
	h.mu.Lock()
	e, ok := h.servers[name]
	if !ok || !e.config.IsEnabled() {
		h.mu.Unlock()
		return false
	}
	if e.connected() {
		h.mu.Unlock()
		return true
	}
	h.mu.Unlock()

	if err := h.connectShared(ctx, name); err != nil {
		logging.Debug("Hub", "Lazy connect of %s failed: %v", name, err)
		return false
	}
	return h.isConnected(name)
}

func (h *Hub) isConnected(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.servers[name]
	return ok && e.connected()
}

// ConnectAll eagerly connects every enabled server that does not load lazily
// and is not connected yet. Lazy servers are skipped. Failures are collected
// and returned together; they do not stop the other connections.
func (h *Hub) ConnectAll(ctx context.Context) error {
	h.mu.Lock()
	var names []string
	for name, e := range h.servers {
		if !e.config.IsEnabled() || e.connected() || initialStatus(e.config) == api.StatusLazy {
			continue
		}
		names = append(names, name)
	}
	h.mu.Unlock()
	sort.Strings(names)

	if len(names) == 0 {
		return nil
	}
	logging.Info("Hub", "Connecting %d servers", len(names))

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(maxParallelConnects)
	for _, name := range names {
		g.Go(func() error {
			if err := h.Connect(ctx, name); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
