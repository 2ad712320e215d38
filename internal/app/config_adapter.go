package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"mcphub/internal/api"
	"mcphub/internal/config"
	"mcphub/internal/hub"
	"mcphub/internal/metatools"
	"mcphub/pkg/logging"
)

// configAdapter turns configuration files into registry changes on the hub.
// Applies are serialized so overlapping reloads cannot interleave.
type configAdapter struct {
	mu sync.Mutex

	hub       *hub.Hub
	factories config.Factories
	settings  config.Settings

	// lookup resolves ${VAR} placeholders; nil means os.LookupEnv.
	lookup func(string) (string, bool)
}

func newConfigAdapter(h *hub.Hub, factories config.Factories, settings config.Settings) *configAdapter {
	return &configAdapter{
		hub:       h,
		factories: factories,
		settings:  settings,
	}
}

// serverConfigs converts f and adds the builtin hub server unless f already
// defines a server with that name.
func (a *configAdapter) serverConfigs(f *config.File) ([]api.ServerConfig, error) {
	configs, err := f.ServerConfigs(a.factories, a.lookup)
	if err != nil {
		return nil, err
	}

	for _, cfg := range configs {
		if cfg.ServerName() == metatools.ServerName {
			return configs, nil
		}
	}
	return append(configs, &api.InProcessConfig{
		Name:    metatools.ServerName,
		Enabled: true,
		Factory: a.factories[metatools.ServerName],
	}), nil
}

// Apply reconciles the hub against f. A file whose entries cannot all be
// converted is rejected as a whole and the registry is left untouched.
func (a *configAdapter) Apply(ctx context.Context, f *config.File) (hub.ReconcileResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	configs, err := a.serverConfigs(f)
	if err != nil {
		return hub.ReconcileResult{}, err
	}

	if f.Settings != a.settings {
		logging.Warn("ConfigAdapter", "Changed settings take effect after a restart")
	}

	result := a.hub.Reconcile(ctx, configs)
	return result, reconcileError(result)
}

func reconcileError(result hub.ReconcileResult) error {
	if len(result.Errors) == 0 {
		return nil
	}
	names := make([]string, 0, len(result.Errors))
	for name := range result.Errors {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, fmt.Errorf("%s: %w", name, result.Errors[name]))
	}
	return errors.Join(errs...)
}
