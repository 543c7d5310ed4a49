package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/goldbach/internal/batch"
	"github.com/Sumatoshi-tech/goldbach/internal/goldbach"
)

// verifyWithRetry runs a batch with bounded retries. Panics and stalls count
// as failed attempts; exhausting the retry budget is fatal to the run.
func (e *Engine) verifyWithRetry(ctx context.Context, b batch.Batch) (batch.Result, error) {
	var lastErr error

	for attempt := 1; attempt <= e.cfg.Pipeline.MaxBatchRetries; attempt++ {
		// Cancellation stops new attempts only; an attempt already running
		// finishes so its batch can still be ingested before shutdown.
		if ctx.Err() != nil {
			return batch.Result{}, ctx.Err()
		}

		res, err := e.verifyOnce(b)
		if err == nil {
			res.Attempts = attempt

			return res, nil
		}

		lastErr = err

		if e.metrics != nil {
			e.metrics.RecordRetry(ctx)
		}

		e.logger.Warn("batch attempt failed",
			slog.Int("batch", b.ID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}

	return batch.Result{}, fmt.Errorf("batch %d failed after %d attempts: %w",
		b.ID, e.cfg.Pipeline.MaxBatchRetries, lastErr)
}

// verifyOnce runs one attempt, bounded by the worker timeout when one is
// configured. Cancellation does not interrupt the attempt; the timeout is
// the only bound, so an in-flight batch always runs to completion or stall.
// A timed-out attempt abandons its goroutine; the sieve oracle is read-only
// so the stray goroutine cannot corrupt shared state.
func (e *Engine) verifyOnce(b batch.Batch) (batch.Result, error) {
	if e.workerTimeout <= 0 {
		return e.verify(b)
	}

	type outcome struct {
		res batch.Result
		err error
	}

	ch := make(chan outcome, 1)

	go func() {
		res, err := e.verify(b)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case out := <-ch:
		return out.res, out.err
	case <-time.After(e.workerTimeout):
		return batch.Result{}, fmt.Errorf("%w: batch %d exceeded %s", ErrBatchStalled, b.ID, e.workerTimeout)
	}
}

// verify checks every even number in the batch against the oracle.
func (e *Engine) verify(b batch.Batch) (res batch.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch %d panicked: %v", b.ID, r)
		}
	}()

	started := time.Now()
	res.Batch = b

	for n := b.Start; n < b.End; n += evenStride {
		check := goldbach.Check(n, e.oracle)
		res.Checked++

		if !check.Satisfied {
			res.Counterexamples = append(res.Counterexamples, n)

			continue
		}

		res.Satisfied++

		if e.cfg.Pipeline.CountRepresentations {
			count := goldbach.CountRepresentations(n, e.oracle)
			if res.MinRepresentations == 0 || count < res.MinRepresentations {
				res.MinRepresentations = count
			}

			if count > res.MaxRepresentations {
				res.MaxRepresentations = count
			}
		}
	}

	res.Duration = time.Since(started)
	res.CompletedAt = time.Now()

	return res, nil
}
