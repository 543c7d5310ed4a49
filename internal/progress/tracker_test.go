package progress_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/goldbach/internal/batch"
	"github.com/Sumatoshi-tech/goldbach/internal/progress"
)

const testFingerprint = "deadbeefdeadbeef"

func resultFor(b batch.Batch) batch.Result {
	return batch.Result{
		Batch:       b,
		Checked:     b.NumEvens(),
		Satisfied:   b.NumEvens(),
		Attempts:    1,
		CompletedAt: time.Now(),
	}
}

func TestTracker_InOrderCompletion(t *testing.T) {
	t.Parallel()

	batches := batch.Partition(6, 20, 4)
	tracker := progress.NewTracker(6, 20, 4, testFingerprint)

	for _, b := range batches {
		tracker.Ingest(resultFor(b))
	}

	snap := tracker.Snapshot()
	assert.Equal(t, uint64(20), snap.LastContiguousVerified)
	assert.Equal(t, uint64(8), snap.TotalVerified)
	assert.Equal(t, uint64(8), snap.TotalSatisfied)
	assert.Empty(t, snap.Counterexamples)
	assert.True(t, snap.Done)
}

func TestTracker_OutOfOrder_NeverAdvancesPastGap(t *testing.T) {
	t.Parallel()

	batches := batch.Partition(6, 20, 4)
	tracker := progress.NewTracker(6, 20, 4, testFingerprint)

	// Batch 2 completes first: boundary must not move.
	snap := tracker.Ingest(resultFor(batches[2]))
	assert.Equal(t, uint64(4), snap.LastContiguousVerified)
	assert.Equal(t, uint64(0), snap.TotalVerified)
	assert.Equal(t, 1, snap.PendingBatches)

	// Batch 0 completes: prefix reaches the end of batch 0 only.
	snap = tracker.Ingest(resultFor(batches[0]))
	assert.Equal(t, uint64(8), snap.LastContiguousVerified)
	assert.Equal(t, uint64(2), snap.TotalVerified)

	// Batch 1 fills the gap: prefix jumps across the already-pending batch 2.
	snap = tracker.Ingest(resultFor(batches[1]))
	assert.Equal(t, uint64(16), snap.LastContiguousVerified)
	assert.Equal(t, uint64(6), snap.TotalVerified)
	assert.Equal(t, 0, snap.PendingBatches)

	snap = tracker.Ingest(resultFor(batches[3]))
	assert.Equal(t, uint64(20), snap.LastContiguousVerified)
	assert.True(t, snap.Done)
}

func TestTracker_Ingest_Idempotent(t *testing.T) {
	t.Parallel()

	batches := batch.Partition(6, 20, 4)
	tracker := progress.NewTracker(6, 20, 4, testFingerprint)

	tracker.Ingest(resultFor(batches[0]))
	snap := tracker.Ingest(resultFor(batches[0]))

	assert.Equal(t, uint64(2), snap.TotalVerified)

	// Re-ingesting a pending (out-of-prefix) batch is also a no-op.
	tracker.Ingest(resultFor(batches[2]))
	snap = tracker.Ingest(resultFor(batches[2]))
	assert.Equal(t, 1, snap.PendingBatches)
}

func TestTracker_CounterexampleRecordedImmediately(t *testing.T) {
	t.Parallel()

	batches := batch.Partition(6, 20, 4)
	tracker := progress.NewTracker(6, 20, 4, testFingerprint)

	res := resultFor(batches[3])
	res.Satisfied = res.Checked - 1
	res.Counterexamples = []uint64{20}

	// Batch 3 is far past the prefix; the counterexample must still land now.
	snap := tracker.Ingest(res)
	assert.Equal(t, []uint64{20}, snap.Counterexamples)
	assert.Equal(t, uint64(4), snap.LastContiguousVerified)
	assert.True(t, snap.HasCounterexamples())

	// Duplicate delivery does not duplicate the counterexample.
	snap = tracker.Ingest(res)
	assert.Equal(t, []uint64{20}, snap.Counterexamples)
}

func TestTracker_RestoreSkipsCompletedPrefix(t *testing.T) {
	t.Parallel()

	tracker := progress.NewTracker(6, 20, 4, testFingerprint)
	tracker.Restore(progress.Snapshot{
		LastContiguousVerified: 12,
		TotalVerified:          4,
		TotalSatisfied:         4,
		ElapsedSeconds:         90,
	})

	assert.Equal(t, 2, tracker.NextBatchID())

	batches := batch.Partition(6, 20, 4)
	tracker.Ingest(resultFor(batches[2]))
	snap := tracker.Ingest(resultFor(batches[3]))

	assert.Equal(t, uint64(20), snap.LastContiguousVerified)
	assert.Equal(t, uint64(8), snap.TotalVerified)
	assert.True(t, snap.Done)
	assert.Greater(t, snap.ElapsedSeconds, 90.0)
}

func TestTracker_RestoreCompletedRun(t *testing.T) {
	t.Parallel()

	tracker := progress.NewTracker(6, 20, 4, testFingerprint)
	tracker.Restore(progress.Snapshot{
		LastContiguousVerified: 20,
		TotalVerified:          8,
		TotalSatisfied:         8,
	})

	assert.Equal(t, 4, tracker.NextBatchID())
	assert.True(t, tracker.Snapshot().Done)
}

func TestTracker_RepresentationBounds(t *testing.T) {
	t.Parallel()

	batches := batch.Partition(6, 20, 4)
	tracker := progress.NewTracker(6, 20, 4, testFingerprint)

	first := resultFor(batches[0])
	first.MinRepresentations = 1
	first.MaxRepresentations = 2

	second := resultFor(batches[1])
	second.MinRepresentations = 2
	second.MaxRepresentations = 5

	tracker.Ingest(first)
	snap := tracker.Ingest(second)

	assert.Equal(t, 1, snap.MinRepresentations)
	assert.Equal(t, 5, snap.MaxRepresentations)
}

func TestTracker_VerifiedEqualsSatisfiedPlusCounterexamples(t *testing.T) {
	t.Parallel()

	batches := batch.Partition(6, 20, 4)
	tracker := progress.NewTracker(6, 20, 4, testFingerprint)

	var snap progress.Snapshot

	for _, b := range batches {
		res := resultFor(b)
		if b.ID == 1 {
			res.Satisfied--
			res.Counterexamples = []uint64{b.Start}
		}

		snap = tracker.Ingest(res)
		assert.Equal(t, snap.TotalVerified, snap.TotalSatisfied+uint64(len(snap.Counterexamples)))
	}

	assert.Equal(t, []uint64{10}, snap.Counterexamples)
}
