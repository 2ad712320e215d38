package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"mcphub/internal/config"
	"mcphub/internal/events"
	"mcphub/pkg/logging"
)

// shutdownTimeout bounds how long closing the hub may take.
const shutdownTimeout = 10 * time.Second

// runServe runs the hub until ctx is cancelled or a SIGINT or SIGTERM
// arrives. Eager servers are connected first; failures are logged and do
// not stop the hub, since every server can still be reconnected later.
func runServe(ctx context.Context, cfg *Config, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	unsubscribe := services.Hub.Subscribe(logEvent)
	defer unsubscribe()

	if err := services.Hub.ConnectAll(ctx); err != nil {
		logging.Warn("Serve", "Some servers failed to connect: %v", err)
	}

	var watcher *config.Watcher
	if cfg.Watch && cfg.ConfigPath != "" {
		w, err := services.watchConfig(ctx, cfg.ConfigPath)
		if err != nil {
			logging.Error("Serve", err, "Configuration reload disabled")
		} else {
			watcher = w
		}
	}

	status := services.Hub.GetStatus()
	logging.Info("Serve", "Hub ready: %d servers connected, %d tools. Press Ctrl+C to stop.",
		len(status.ConnectedServers)+len(status.InProcessServers), status.ToolCount)

	<-ctx.Done()

	logging.Info("Serve", "Shutting down")
	if watcher != nil {
		_ = watcher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return services.Hub.Close(shutdownCtx)
}

// logEvent writes hub events to the log, warnings at warn level.
func logEvent(ev events.Event) {
	if ev.Type() == events.EventTypeWarning {
		logging.Warn("Events", "%s", ev.Message())
		return
	}
	logging.Info("Events", "%s", ev.Message())
}
