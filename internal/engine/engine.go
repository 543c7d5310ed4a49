// Package engine orchestrates the verification run: it restores progress
// from the checkpoint store, builds the prime oracle, fans batches out to a
// worker pool, and folds results back into the tracker while checkpointing
// on an interval. Completion of batches is out of order; durability follows
// the contiguous prefix only.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/goldbach/internal/batch"
	"github.com/Sumatoshi-tech/goldbach/internal/checkpoint"
	"github.com/Sumatoshi-tech/goldbach/internal/config"
	"github.com/Sumatoshi-tech/goldbach/internal/goldbach"
	"github.com/Sumatoshi-tech/goldbach/internal/observability"
	"github.com/Sumatoshi-tech/goldbach/internal/progress"
	"github.com/Sumatoshi-tech/goldbach/internal/resultlog"
	"github.com/Sumatoshi-tech/goldbach/internal/sieve"
)

const evenStride = 2

// ErrCounterexampleFound is returned by Run when at least one even number in
// the range has no prime decomposition. The counterexamples are durably
// checkpointed before Run returns.
var ErrCounterexampleFound = errors.New("goldbach counterexample found")

// ErrBatchStalled indicates a batch did not finish within the worker timeout.
var ErrBatchStalled = errors.New("batch worker stalled")

// Options configures an Engine.
type Options struct {
	Config *config.Config

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Metrics instruments are optional; nil disables recording.
	Metrics *observability.VerificationMetrics

	// Events receives run events. Progress events are dropped when the
	// channel is full; counterexample and completion events block until
	// consumed.
	Events chan<- Event

	// Oracle overrides the sieve-backed primality oracle. Nil means the
	// engine builds one sized to the configured range.
	Oracle goldbach.Oracle
}

// Engine runs the verification pipeline for one configured range.
type Engine struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.VerificationMetrics
	events  chan<- Event
	oracle  goldbach.Oracle

	store   *checkpoint.Store
	log     *resultlog.Log
	tracker *progress.Tracker

	workerTimeout    time.Duration
	saveInterval     time.Duration
	progressInterval time.Duration

	// saveMu serializes checkpoint writes from the collector and the final
	// save in Run.
	saveMu sync.Mutex
}

// New creates an engine from validated options.
func New(opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, errors.New("engine: config is required")
	}

	validateErr := opts.Config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("engine: %w", validateErr)
	}

	lg := opts.Logger
	if lg == nil {
		lg = slog.Default()
	}

	e := &Engine{
		cfg:     opts.Config,
		logger:  lg,
		metrics: opts.Metrics,
		events:  opts.Events,
		oracle:  opts.Oracle,
	}

	// Durations were validated above; the errors are unreachable here.
	e.workerTimeout, _ = opts.Config.WorkerTimeoutDuration()
	e.saveInterval, _ = opts.Config.SaveIntervalDuration()
	e.progressInterval, _ = opts.Config.ProgressIntervalDuration()

	return e, nil
}

// Run executes the verification until the range is exhausted, a
// counterexample stops the run, or ctx is canceled. Cancellation lets
// in-flight batches finish and fold into the tracker first. The returned
// snapshot reflects the final durable state; on cancellation the run can
// be resumed from it.
func (e *Engine) Run(ctx context.Context) (progress.Snapshot, error) {
	fingerprint := checkpoint.Fingerprint(e.cfg.Range.NInitial, e.cfg.Range.NFinal)
	e.tracker = progress.NewTracker(e.cfg.Range.NInitial, e.cfg.Range.NFinal, e.cfg.Pipeline.BatchSize, fingerprint)

	restoreErr := e.restore(fingerprint)
	if restoreErr != nil {
		return progress.Snapshot{}, restoreErr
	}

	snap := e.tracker.Snapshot()
	if done, err := e.alreadyFinished(snap); done {
		return snap, err
	}

	oracleErr := e.ensureOracle()
	if oracleErr != nil {
		return snap, oracleErr
	}

	batches := batch.Partition(e.cfg.Range.NInitial, e.cfg.Range.NFinal, e.cfg.Pipeline.BatchSize)
	pending := batches[min(e.tracker.NextBatchID(), len(batches)):]

	e.logger.Info("verification starting",
		slog.Uint64("n_initial", e.cfg.Range.NInitial),
		slog.Uint64("n_final", e.cfg.Range.NFinal),
		slog.Int("batches_pending", len(pending)),
		slog.String("fingerprint", fingerprint),
	)

	waitErr := e.runPipeline(ctx, pending)

	final := e.tracker.Snapshot()
	e.saveCheckpoint(final)

	switch {
	case final.HasCounterexamples():
		return final, ErrCounterexampleFound
	case waitErr != nil && !errors.Is(waitErr, context.Canceled):
		return final, waitErr
	case ctx.Err() != nil:
		e.logger.Info("verification interrupted", slog.Uint64("last_contiguous_verified", final.LastContiguousVerified))

		return final, ctx.Err()
	default:
		e.emitBlocking(ctx, Event{Kind: EventCompleted, Snapshot: final})

		return final, nil
	}
}

// restore loads prior progress when checkpointing and resume are enabled.
// A corrupt or mismatched checkpoint aborts the run rather than silently
// restarting from scratch.
func (e *Engine) restore(fingerprint string) error {
	if !e.cfg.Checkpoint.Enabled {
		return nil
	}

	store, storeErr := checkpoint.NewStore(e.cfg.Checkpoint.Dir)
	if storeErr != nil {
		return storeErr
	}

	e.store = store
	e.log = resultlog.New(store.Dir())

	if !e.cfg.Checkpoint.Resume {
		return nil
	}

	state, loadErr := store.Load(fingerprint)
	if loadErr != nil {
		if errors.Is(loadErr, checkpoint.ErrNoCheckpoint) {
			return nil
		}

		return loadErr
	}

	e.tracker.Restore(state.ToSnapshot())
	e.logger.Info("resuming from checkpoint",
		slog.Uint64("last_contiguous_verified", state.LastContiguousVerified),
		slog.Uint64("total_verified", state.TotalVerified),
	)

	return nil
}

// alreadyFinished handles runs whose restored state needs no further work.
func (e *Engine) alreadyFinished(snap progress.Snapshot) (bool, error) {
	if snap.HasCounterexamples() && !e.cfg.Pipeline.ContinueAfterCounterexample {
		return true, ErrCounterexampleFound
	}

	if snap.Done {
		if snap.HasCounterexamples() {
			return true, ErrCounterexampleFound
		}

		return true, nil
	}

	return false, nil
}

func (e *Engine) ensureOracle() error {
	if e.oracle != nil {
		return nil
	}

	budget, budgetErr := e.cfg.MemoryBudgetBytes()
	if budgetErr != nil {
		return budgetErr
	}

	started := time.Now()

	oracle, buildErr := sieve.Build(e.cfg.Range.NFinal, sieve.Options{
		SegmentSize:  e.cfg.Pipeline.SegmentSize,
		MemoryBudget: budget,
	})
	if buildErr != nil {
		return buildErr
	}

	e.logger.Info("prime oracle built",
		slog.Uint64("bound", e.cfg.Range.NFinal),
		slog.Duration("took", time.Since(started)),
	)

	e.oracle = oracle

	return nil
}

// runPipeline fans pending batches out to workers and collects results until
// the work is exhausted or the run is stopped.
func (e *Engine) runPipeline(ctx context.Context, pending []batch.Batch) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)

	jobs := make(chan batch.Batch)
	results := make(chan batch.Result)

	group.Go(func() error {
		defer close(jobs)

		for _, b := range pending {
			select {
			case jobs <- b:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}

		return nil
	})

	workers, workersCtx := errgroup.WithContext(groupCtx)
	for range max(1, e.cfg.Pipeline.Workers) {
		workers.Go(func() error {
			return e.workerLoop(workersCtx, jobs, results)
		})
	}

	group.Go(func() error {
		defer close(results)

		return workers.Wait()
	})

	group.Go(func() error {
		return e.collect(groupCtx, results, stop)
	})

	return group.Wait()
}

func (e *Engine) workerLoop(ctx context.Context, jobs <-chan batch.Batch, results chan<- batch.Result) error {
	for b := range jobs {
		res, err := e.verifyTracked(ctx, b)
		if err != nil {
			return err
		}

		// The collector consumes until every worker has returned, so a
		// completed batch is always ingested, shutdown included.
		results <- res
	}

	return nil
}

func (e *Engine) verifyTracked(ctx context.Context, b batch.Batch) (batch.Result, error) {
	if e.metrics != nil {
		done := e.metrics.TrackInflight(ctx)
		defer done()
	}

	return e.verifyWithRetry(ctx, b)
}

// collect is the single consumer of results: it owns tracker ingestion, the
// result log, periodic checkpoints, and progress events. stop cancels the
// producer and workers when a counterexample ends the run.
func (e *Engine) collect(ctx context.Context, results <-chan batch.Result, stop context.CancelFunc) error {
	saveTick, stopSave := ticker(e.saveInterval)
	defer stopSave()

	progressTick, stopProgress := ticker(e.progressInterval)
	defer stopProgress()

	for {
		select {
		case res, ok := <-results:
			if !ok {
				return nil
			}

			e.ingest(ctx, res, stop)
		case <-saveTick:
			e.saveCheckpoint(e.tracker.Snapshot())
		case <-progressTick:
			e.emit(Event{Kind: EventProgress, Snapshot: e.tracker.Snapshot()})
		}
	}
}

func (e *Engine) ingest(ctx context.Context, res batch.Result, stop context.CancelFunc) {
	snap := e.tracker.Ingest(res)

	if e.log != nil {
		e.log.Append(res)
	}

	if e.metrics != nil {
		e.metrics.RecordBatch(ctx, res.Satisfied, uint64(len(res.Counterexamples)), res.Duration)
	}

	if len(res.Counterexamples) == 0 {
		return
	}

	// Durability before announcement: the checkpoint must hold the
	// counterexample before anyone can observe the event.
	e.saveCheckpoint(snap)

	for _, n := range res.Counterexamples {
		e.logger.Error("counterexample found", slog.Uint64("n", n), slog.Int("batch", res.Batch.ID))
		e.emitBlocking(ctx, Event{Kind: EventCounterexample, Snapshot: snap, Counterexample: n})
	}

	if !e.cfg.Pipeline.ContinueAfterCounterexample {
		stop()
	}
}

// ticker returns a ticking channel, or nil (blocks forever in select) when
// the interval is zero.
func ticker(interval time.Duration) (<-chan time.Time, func()) {
	if interval <= 0 {
		return nil, func() {}
	}

	t := time.NewTicker(interval)

	return t.C, t.Stop
}

// saveCheckpoint durably persists the snapshot and the result log.
// Save failures are logged and counted, never fatal: the run keeps its
// in-memory progress and retries on the next interval.
func (e *Engine) saveCheckpoint(snap progress.Snapshot) {
	if e.store == nil {
		return
	}

	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	err := e.store.Save(checkpoint.FromSnapshot(snap))
	if err == nil && e.log != nil {
		err = e.log.Save()
	}

	if e.metrics != nil {
		e.metrics.RecordCheckpoint(context.Background(), err)
	}

	if err != nil {
		e.logger.Error("checkpoint save failed", slog.String("error", err.Error()))
	}
}
