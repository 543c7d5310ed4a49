// Package commands implements CLI command handlers for goldbach.
package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/goldbach/internal/config"
	"github.com/Sumatoshi-tech/goldbach/internal/engine"
	"github.com/Sumatoshi-tech/goldbach/internal/observability"
	"github.com/Sumatoshi-tech/goldbach/internal/report"
)

// eventBufferSize absorbs progress bursts so the collector never waits on
// terminal rendering.
const eventBufferSize = 64

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	configPath string

	nInitial  uint64
	nFinal    uint64
	workers   int
	batchSize uint64

	countRepresentations bool
	continueAfterRefuted bool

	checkpointDir   string
	noResume        bool
	clearCheckpoint bool

	listenAddr string

	verbose bool
	silent  bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Verify the configured range of even numbers",
		Long:  "Verify that every even number in the configured range decomposes into two primes.",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	cmd.Flags().StringVarP(&rc.configPath, "config", "c", "", "Config file path (default: .goldbach.yaml in CWD or $HOME)")
	cmd.Flags().Uint64Var(&rc.nInitial, "n-initial", 0, "First even number to verify (overrides config)")
	cmd.Flags().Uint64Var(&rc.nFinal, "n-final", 0, "Last even number to verify (overrides config)")
	cmd.Flags().IntVar(&rc.workers, "workers", 0, "Number of parallel workers (overrides config)")
	cmd.Flags().Uint64Var(&rc.batchSize, "batch-size", 0, "Width of each verification batch (overrides config)")
	cmd.Flags().BoolVar(&rc.countRepresentations, "count-representations", false, "Count all prime decompositions per number")
	cmd.Flags().BoolVar(&rc.continueAfterRefuted, "continue-after-counterexample", false, "Keep verifying after a counterexample")
	cmd.Flags().StringVar(&rc.checkpointDir, "checkpoint-dir", "", "Checkpoint directory (default: ~/.goldbach)")
	cmd.Flags().BoolVar(&rc.noResume, "no-resume", false, "Ignore any existing checkpoint")
	cmd.Flags().BoolVar(&rc.clearCheckpoint, "clear-checkpoint", false, "Clear existing checkpoint before the run")
	cmd.Flags().StringVar(&rc.listenAddr, "listen", "", "Prometheus scrape address, e.g. :9090 (empty = disabled)")
	cmd.Flags().BoolVarP(&rc.verbose, "verbose", "v", false, "Verbose logging")
	cmd.Flags().BoolVar(&rc.silent, "silent", false, "Disable progress output")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := rc.loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := rc.newLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if rc.clearCheckpoint {
		clearErr := clearState(cfg.Checkpoint.Dir)
		if clearErr != nil {
			return clearErr
		}

		logger.Info("checkpoint cleared", slog.String("dir", cfg.Checkpoint.Dir))
	}

	metrics, err := rc.setupMetrics(ctx, cfg, logger)
	if err != nil {
		return err
	}

	events := make(chan engine.Event, eventBufferSize)
	reporter := report.New(cmd.OutOrStdout())

	var consumers sync.WaitGroup

	if !rc.silent {
		consumers.Add(1)

		go func() {
			defer consumers.Done()
			reporter.Consume(events)
		}()
	} else {
		consumers.Add(1)

		go func() {
			defer consumers.Done()

			for range events {
			}
		}()
	}

	eng, err := engine.New(engine.Options{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Events:  events,
	})
	if err != nil {
		return err
	}

	snap, runErr := eng.Run(ctx)

	close(events)
	consumers.Wait()

	if !rc.silent {
		reporter.WriteSummary(snap)
	}

	// A signal-driven shutdown is a clean exit; the checkpoint holds the
	// resumable state.
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	return nil
}

// loadConfig loads the file config and applies explicit flag overrides.
func (rc *RunCommand) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("n-initial") {
		cfg.Range.NInitial = rc.nInitial
	}

	if flags.Changed("n-final") {
		cfg.Range.NFinal = rc.nFinal
	}

	if flags.Changed("workers") {
		cfg.Pipeline.Workers = rc.workers
	}

	if flags.Changed("batch-size") {
		cfg.Pipeline.BatchSize = rc.batchSize
	}

	if flags.Changed("count-representations") {
		cfg.Pipeline.CountRepresentations = rc.countRepresentations
	}

	if flags.Changed("continue-after-counterexample") {
		cfg.Pipeline.ContinueAfterCounterexample = rc.continueAfterRefuted
	}

	if flags.Changed("checkpoint-dir") {
		cfg.Checkpoint.Dir = rc.checkpointDir
	}

	if rc.noResume {
		cfg.Checkpoint.Resume = false
	}

	if flags.Changed("listen") {
		cfg.Observability.ListenAddr = rc.listenAddr
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return cfg, nil
}

func (rc *RunCommand) newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if rc.verbose {
		level = slog.LevelDebug
	}

	if rc.silent {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// setupMetrics starts the Prometheus endpoint when a listen address is
// configured.
func (rc *RunCommand) setupMetrics(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*observability.VerificationMetrics, error) {
	if cfg.Observability.ListenAddr == "" {
		return nil, nil
	}

	exporter, err := observability.NewExporter()
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewVerificationMetrics(exporter.Meter())
	if err != nil {
		return nil, err
	}

	go func() {
		serveErr := exporter.Serve(ctx, cfg.Observability.ListenAddr)
		if serveErr != nil {
			logger.Error("metrics endpoint failed", slog.String("error", serveErr.Error()))
		}
	}()

	logger.Info("metrics endpoint listening", slog.String("addr", cfg.Observability.ListenAddr))

	return metrics, nil
}
