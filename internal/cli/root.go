// Package cli implements airctl, the AirAlert operator command line.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/airalert/airalert/internal/app"
	"github.com/airalert/airalert/internal/config"
	"github.com/airalert/airalert/internal/resilience"
)

// Options controls where commands read from and write to.
type Options struct {
	Out    io.Writer
	ErrOut io.Writer

	// Now returns the current time. Default: time.Now
	Now func() time.Time

	// OpenBackend opens the configured store.
	// Default: config.Load followed by app.OpenStore.
	OpenBackend func(ctx context.Context, logger zerolog.Logger) (*app.Backend, *config.Config, error)
}

type root struct {
	opts    Options
	verbose bool
}

// Execute runs airctl with the process arguments.
func Execute() error {
	return NewRootCommand(Options{}).Execute()
}

// NewRootCommand builds the airctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OpenBackend == nil {
		opts.OpenBackend = openConfiguredBackend
	}
	rt := &root{opts: opts}

	cmd := &cobra.Command{
		Use:   "airctl",
		Short: "AirAlert operator tool",
		Long: `Inspect synthetic readings, dry-run alert decisions and manage
feature flags and refreshes against the configured AirAlert store.

The store is selected the same way as for the API server: .env, then
CONFIG_FILE or config.yaml, then environment variables.`,
		SilenceUsage: true,
	}
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.ErrOut)
	cmd.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable verbose (debug) logging")

	cmd.AddCommand(
		rt.regionsCommand(),
		rt.generateCommand(),
		rt.evaluateCommand(),
		rt.flagsCommand(),
		rt.refreshCommand(),
	)
	return cmd
}

func (rt *root) logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if rt.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: rt.opts.ErrOut, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func (rt *root) printJSON(v any) error {
	enc := json.NewEncoder(rt.opts.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openConfiguredBackend(ctx context.Context, logger zerolog.Logger) (*app.Backend, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	backend, err := app.OpenStore(ctx, *cfg, logger, resilience.NewRegistry())
	if err != nil {
		return nil, nil, err
	}
	return backend, cfg, nil
}

// services opens the backend and wires the domain services over it.
func (rt *root) services(ctx context.Context) (*app.Services, *app.Backend, *config.Config, error) {
	log := rt.logger()
	backend, cfg, err := rt.opts.OpenBackend(ctx, log)
	if err != nil {
		return nil, nil, nil, err
	}
	services := app.New(app.Config{
		Store:          backend.Store,
		Logger:         log,
		BcryptCost:     cfg.Auth.BcryptCost,
		FlagRepository: backend.Flags,
		Now:            rt.opts.Now,
	})
	return services, backend, cfg, nil
}
