package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mcphub/internal/api"
	"mcphub/internal/app"
	"mcphub/internal/formatting"
	"mcphub/internal/hub"
)

// outputFlags holds the output flags of commands that print hub data.
type outputFlags struct {
	// Output is table, json or yaml.
	Output string
	// Template is a Go template with sprig functions; it overrides Output.
	Template string
	// Wide disables truncation in tables.
	Wide bool
	// Quiet suppresses spinners and totals.
	Quiet bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Output, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.Flags().StringVar(&f.Template, "template", "", "Go template applied to the output data, with sprig functions")
	cmd.Flags().BoolVar(&f.Wide, "wide", false, "Do not truncate table cells")
	cmd.Flags().BoolVarP(&f.Quiet, "quiet", "q", false, "Suppress progress indicators and totals")
}

func (f *outputFlags) formatter() (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(f.Output)
	if err != nil {
		return nil, err
	}
	return formatting.New(formatting.Options{
		Format:   format,
		Template: f.Template,
		Wide:     f.Wide,
		Quiet:    f.Quiet,
	})
}

// newApplication bootstraps the hub from the --config file. One-shot
// commands log only warnings and errors unless --debug or --log-level asks
// for more.
func newApplication(oneShot bool, opts ...func(*app.Config)) (*app.Application, error) {
	cfg := app.NewConfig(debug, false, configPath)
	cfg.LogLevel = logLevel
	cfg.LogFormat = logFormat
	cfg.Version = GetVersion()
	if oneShot && logLevel == "" && !debug {
		cfg.LogLevel = "warn"
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return app.NewApplication(cfg)
}

// commandContext returns the command's context, cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// closeApplication shuts the hub down with a bounded timeout.
func closeApplication(application *app.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = application.Close(ctx)
}

// withSpinner runs fn behind a spinner on stderr. The spinner is skipped in
// quiet mode and when the terminal does not support colors.
func withSpinner(quiet bool, suffix string, fn func() error) error {
	if quiet || color.NoColor {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()
	defer s.Stop()

	return fn()
}

// connectServers connects every eager server and, with all set, the lazy
// ones too. Failures are returned together; the servers that did connect
// stay connected.
func connectServers(ctx context.Context, h *hub.Hub, all bool) error {
	err := h.ConnectAll(ctx)
	if !all {
		return err
	}

	states := h.GetServerStates()
	errCh := make(chan error, len(states))
	var g errgroup.Group
	for _, s := range states {
		if s.Status != api.StatusLazy {
			continue
		}
		g.Go(func() error {
			if err := h.Connect(ctx, s.Name); err != nil {
				errCh <- err
			}
			return nil
		})
	}
	_ = g.Wait()
	close(errCh)

	errs := []error{err}
	for e := range errCh {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}
