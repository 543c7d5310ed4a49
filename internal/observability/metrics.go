// Package observability provides OTel metric instruments for the
// verification pipeline and a Prometheus scrape endpoint to export them.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricNumbersVerified  = "goldbach.numbers.verified.total"
	metricBatchDuration    = "goldbach.batch.duration.seconds"
	metricBatchRetries     = "goldbach.batch.retries.total"
	metricInflightBatches  = "goldbach.inflight.batches"
	metricCounterexamples  = "goldbach.counterexamples.total"
	metricCheckpointSaves  = "goldbach.checkpoint.saves.total"
	metricCheckpointErrors = "goldbach.checkpoint.errors.total"

	attrOutcome = "outcome"

	outcomeSatisfied = "satisfied"
	outcomeRefuted   = "refuted"
)

// batchDurationBoundaries covers 1ms to 300s: tiny test batches finish in
// microseconds, large production batches with representation counting can
// take minutes.
var batchDurationBoundaries = []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 120, 300}

// VerificationMetrics holds the OTel instruments for the pipeline.
type VerificationMetrics struct {
	numbersVerified  metric.Int64Counter
	batchDuration    metric.Float64Histogram
	batchRetries     metric.Int64Counter
	inflightBatches  metric.Int64UpDownCounter
	counterexamples  metric.Int64Counter
	checkpointSaves  metric.Int64Counter
	checkpointErrors metric.Int64Counter
}

// NewVerificationMetrics creates the pipeline instruments from the given meter.
func NewVerificationMetrics(mt metric.Meter) (*VerificationMetrics, error) {
	b := newMetricBuilder(mt)

	vm := &VerificationMetrics{
		numbersVerified:  b.counter(metricNumbersVerified, "Total even numbers verified", "{number}"),
		batchDuration:    b.histogram(metricBatchDuration, "Batch verification duration in seconds", "s", batchDurationBoundaries...),
		batchRetries:     b.counter(metricBatchRetries, "Total batch retry attempts", "{retry}"),
		inflightBatches:  b.upDownCounter(metricInflightBatches, "Number of batches being verified", "{batch}"),
		counterexamples:  b.counter(metricCounterexamples, "Total counterexamples found", "{number}"),
		checkpointSaves:  b.counter(metricCheckpointSaves, "Total checkpoint saves", "{save}"),
		checkpointErrors: b.counter(metricCheckpointErrors, "Total checkpoint save failures", "{error}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return vm, nil
}

// RecordBatch records a completed batch with its duration and outcome counts.
func (vm *VerificationMetrics) RecordBatch(ctx context.Context, satisfied, refuted uint64, duration time.Duration) {
	vm.batchDuration.Record(ctx, duration.Seconds())
	vm.numbersVerified.Add(ctx, int64(satisfied), metric.WithAttributes(
		attribute.String(attrOutcome, outcomeSatisfied),
	))

	if refuted > 0 {
		vm.numbersVerified.Add(ctx, int64(refuted), metric.WithAttributes(
			attribute.String(attrOutcome, outcomeRefuted),
		))
		vm.counterexamples.Add(ctx, int64(refuted))
	}
}

// RecordRetry records one batch retry attempt.
func (vm *VerificationMetrics) RecordRetry(ctx context.Context) {
	vm.batchRetries.Add(ctx, 1)
}

// RecordCheckpoint records a checkpoint save and whether it failed.
func (vm *VerificationMetrics) RecordCheckpoint(ctx context.Context, err error) {
	vm.checkpointSaves.Add(ctx, 1)

	if err != nil {
		vm.checkpointErrors.Add(ctx, 1)
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (vm *VerificationMetrics) TrackInflight(ctx context.Context) func() {
	vm.inflightBatches.Add(ctx, 1)

	return func() {
		vm.inflightBatches.Add(ctx, -1)
	}
}
