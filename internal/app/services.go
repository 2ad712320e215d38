package app

import (
	"context"
	"fmt"

	"mcphub/internal/config"
	"mcphub/internal/hub"
	"mcphub/internal/metatools"
	"mcphub/pkg/logging"
)

// Services holds the long-lived components built during bootstrap.
type Services struct {
	Hub *hub.Hub

	// Factories are the in-process servers a configuration file can name.
	Factories config.Factories

	adapter *configAdapter
}

// InitializeServices builds the hub, registers the in-process factories and
// applies cfg.File. Servers are registered but not connected.
func InitializeServices(ctx context.Context, cfg *Config) (*Services, error) {
	opts := cfg.File.Settings.HubOptions()
	if cfg.ClientFactory != nil {
		opts.ClientFactory = cfg.ClientFactory
	}
	h := hub.New(opts)

	factories := config.Factories{
		metatools.ServerName: metatools.Factory(h, cfg.Version),
	}
	adapter := newConfigAdapter(h, factories, cfg.File.Settings)

	if _, err := adapter.Apply(ctx, cfg.File); err != nil {
		_ = h.Close(ctx)
		return nil, err
	}

	logging.Debug("Services", "Registered %d servers", len(h.GetServerStates()))
	return &Services{
		Hub:       h,
		Factories: factories,
		adapter:   adapter,
	}, nil
}

// watchConfig starts a watcher that re-applies path on every change.
func (s *Services) watchConfig(ctx context.Context, path string) (*config.Watcher, error) {
	w, err := config.NewWatcher(path, config.DefaultWatchDebounce, func(f *config.File) {
		if _, err := s.adapter.Apply(ctx, f); err != nil {
			logging.Error("Services", err, "Failed to apply reloaded configuration")
		}
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	logging.Info("Services", "Watching %s for changes", path)
	return w, nil
}
