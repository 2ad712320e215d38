package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"mcphub/internal/config"
	"mcphub/internal/hub"
	"mcphub/pkg/logging"
)

// Application bootstraps and runs the hub.
//
// Initialization happens in two phases:
//  1. Bootstrap: configure logging, load the server configuration, build the hub
//  2. Execution: connect the eager servers and serve until shutdown
//
// One-shot commands stop after the first phase and drive the hub directly
// through Hub().
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance.
//
// If cfg.File is nil the configuration is loaded from cfg.ConfigPath, or
// from config.DefaultPath() when that is empty. Servers are registered but
// not connected; Run or Hub().ConnectAll does that.
func NewApplication(cfg *Config) (*Application, error) {
	if err := configureLogging(cfg); err != nil {
		return nil, err
	}

	if cfg.File == nil {
		if cfg.ConfigPath == "" {
			path, err := config.DefaultPath()
			if err != nil {
				return nil, fmt.Errorf("failed to resolve default config path: %w", err)
			}
			cfg.ConfigPath = path
		}

		file, err := config.Load(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from %s", cfg.ConfigPath)
			return nil, err
		}
		cfg.File = file
	}

	services, err := InitializeServices(context.Background(), cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

func configureLogging(cfg *Config) error {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	if cfg.LogLevel != "" {
		parsed, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		level = parsed
	}

	var out io.Writer = os.Stderr
	if cfg.Silent {
		out = io.Discard
	}

	format := logging.FormatText
	switch cfg.LogFormat {
	case "", string(logging.FormatText):
	case string(logging.FormatJSON):
		format = logging.FormatJSON
	default:
		return fmt.Errorf("unknown log format %q (use text or json)", cfg.LogFormat)
	}

	logging.Init(logging.Options{Level: level, Format: format, Output: out})
	return nil
}

// Hub returns the application's hub.
func (a *Application) Hub() *hub.Hub {
	return a.services.Hub
}

// Run connects the eager servers and blocks until ctx is cancelled or the
// process receives SIGINT or SIGTERM. The hub is closed before returning.
func (a *Application) Run(ctx context.Context) error {
	return runServe(ctx, a.config, a.services)
}

// Close shuts the hub down.
func (a *Application) Close(ctx context.Context) error {
	return a.services.Hub.Close(ctx)
}
