package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dustforge/relay/internal/archive"
	"github.com/dustforge/relay/internal/bus"
	"github.com/dustforge/relay/internal/config"
	"github.com/dustforge/relay/internal/engine"
	"github.com/dustforge/relay/internal/events"
	"github.com/dustforge/relay/internal/stats"
	"github.com/dustforge/relay/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Step time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the runtime tick loop",
		Long: `Start the runtime: the message bus, the stats registry and the
session archive, driven by a fixed-timestep tick loop.

Stats are restored from the configured document on start and persisted
again on shutdown.

Example:
  relay run
  relay run --step 16ms --verbose`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Step, "step", 100*time.Millisecond, "tick interval")
	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}

	logLevel := slogLevel(cfg.LogLevel)
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	tracer := trace.NewSlog(slog.New(handler))

	statsOpts := []stats.Option{stats.WithStatsPath(cfg.StatsPath)}
	if cfg.ArchivePath != "" {
		arch, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := arch.Close(); closeErr != nil {
				tracer.Error("closing archive: %v", closeErr)
			}
		}()
		statsOpts = append(statsOpts, stats.WithArchive(arch))
	}

	b := bus.New(tracer)
	events.RegisterCreators(b)
	reg := stats.New(b, tracer, statsOpts...)

	eng := engine.New(tracer)
	eng.AddSystem(reg)
	eng.LoadAll()
	eng.Init()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			tracer.Log("received signal %v, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintln(cmd.OutOrStdout(), "Runtime started. Press Ctrl-C to stop.")

	if err := eng.Run(ctx, opts.Step); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	b.Close()
	return nil
}

func slogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
