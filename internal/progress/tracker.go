// Package progress merges per-batch results into a global, order-safe
// progress state. Batches complete in any order; the tracker only ever
// reports the end of the longest unbroken prefix of completed batches as
// verified, which is what makes checkpointing safe under parallelism.
package progress

import (
	"slices"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/goldbach/internal/batch"
)

// evenStride is the distance between consecutive even numbers.
const evenStride = 2

// Snapshot is an immutable view of the tracker state at one observation point.
type Snapshot struct {
	NInitial uint64
	NFinal   uint64

	// LastContiguousVerified is the highest even number below which every
	// batch has completed. It never decreases and never skips a gap.
	LastContiguousVerified uint64

	TotalVerified   uint64
	TotalSatisfied  uint64
	Counterexamples []uint64

	// PendingBatches counts completed batches still waiting for the prefix
	// to reach them.
	PendingBatches int

	MinRepresentations int
	MaxRepresentations int

	ElapsedSeconds float64
	Fingerprint    string
	Done           bool
}

// HasCounterexamples reports whether any counterexample has been recorded.
func (s Snapshot) HasCounterexamples() bool {
	return len(s.Counterexamples) > 0
}

// Tracker is the single merge authority for batch results. Workers never
// touch it directly; the collector goroutine calls Ingest serially, but the
// tracker carries its own lock so checkpoint and reporting reads are safe.
type Tracker struct {
	mu sync.Mutex

	nInitial    uint64
	nFinal      uint64
	batchSize   uint64
	fingerprint string

	totalBatches int
	nextID       int

	lastContiguous uint64
	totalVerified  uint64
	totalSatisfied uint64

	counterexamples []uint64
	ceSeen          map[uint64]struct{}

	minReps int
	maxReps int

	// pending holds completed batches beyond the contiguous prefix,
	// keyed by batch ID.
	pending map[int]batch.Result

	startedAt   time.Time
	baseElapsed time.Duration
}

// NewTracker creates a tracker for the given range and batch size.
// fingerprint identifies the run configuration and travels with every
// snapshot so checkpoints can be validated on resume.
func NewTracker(nInitial, nFinal, batchSize uint64, fingerprint string) *Tracker {
	covered := nFinal + evenStride - nInitial

	return &Tracker{
		nInitial:       nInitial,
		nFinal:         nFinal,
		batchSize:      batchSize,
		fingerprint:    fingerprint,
		totalBatches:   int((covered + batchSize - 1) / batchSize),
		lastContiguous: nInitial - evenStride,
		ceSeen:         make(map[uint64]struct{}),
		pending:        make(map[int]batch.Result),
		startedAt:      time.Now(),
	}
}

// Restore seeds the tracker from a previously checkpointed snapshot.
// Only contiguous-prefix state was ever persisted, so batches past the
// restored boundary simply run again.
func (t *Tracker) Restore(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastContiguous = snap.LastContiguousVerified
	t.totalVerified = snap.TotalVerified
	t.totalSatisfied = snap.TotalSatisfied
	t.minReps = snap.MinRepresentations
	t.maxReps = snap.MaxRepresentations
	t.baseElapsed = time.Duration(snap.ElapsedSeconds * float64(time.Second))

	for _, n := range snap.Counterexamples {
		if _, seen := t.ceSeen[n]; !seen {
			t.ceSeen[n] = struct{}{}
			t.counterexamples = append(t.counterexamples, n)
		}
	}

	covered := t.lastContiguous + evenStride - t.nInitial
	t.nextID = int((covered + t.batchSize - 1) / t.batchSize)
}

// NextBatchID returns the ID of the first batch not yet inside the
// contiguous prefix. Batches below it are already durable and are skipped
// on resume.
func (t *Tracker) NextBatchID() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.nextID
}

// Ingest merges one batch result and returns the resulting snapshot.
// It is idempotent per batch ID: re-ingesting a completed batch changes
// nothing. Counterexamples are recorded immediately, independently of the
// contiguous-prefix rule; the running totals only advance when a batch
// joins the prefix, so persisted state is always resume-consistent.
func (t *Tracker) Ingest(res batch.Result) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := res.Batch.ID
	if id < t.nextID {
		return t.snapshotLocked()
	}

	if _, dup := t.pending[id]; dup {
		return t.snapshotLocked()
	}

	for _, n := range res.Counterexamples {
		if _, seen := t.ceSeen[n]; !seen {
			t.ceSeen[n] = struct{}{}
			t.counterexamples = append(t.counterexamples, n)
		}
	}

	t.pending[id] = res

	for {
		next, ok := t.pending[t.nextID]
		if !ok {
			break
		}

		t.totalVerified += next.Checked
		t.totalSatisfied += next.Satisfied
		t.lastContiguous = next.Batch.LastEven()
		t.mergeRepresentations(next)

		delete(t.pending, t.nextID)
		t.nextID++
	}

	return t.snapshotLocked()
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snapshotLocked()
}

func (t *Tracker) mergeRepresentations(res batch.Result) {
	if res.MaxRepresentations == 0 {
		return
	}

	if t.minReps == 0 || res.MinRepresentations < t.minReps {
		t.minReps = res.MinRepresentations
	}

	if res.MaxRepresentations > t.maxReps {
		t.maxReps = res.MaxRepresentations
	}
}

func (t *Tracker) snapshotLocked() Snapshot {
	// Always non-nil so the serialized form is an array, never null.
	ces := make([]uint64, len(t.counterexamples))
	copy(ces, t.counterexamples)
	slices.Sort(ces)

	elapsed := t.baseElapsed + time.Since(t.startedAt)

	return Snapshot{
		NInitial:               t.nInitial,
		NFinal:                 t.nFinal,
		LastContiguousVerified: t.lastContiguous,
		TotalVerified:          t.totalVerified,
		TotalSatisfied:         t.totalSatisfied,
		Counterexamples:        ces,
		PendingBatches:         len(t.pending),
		MinRepresentations:     t.minReps,
		MaxRepresentations:     t.maxReps,
		ElapsedSeconds:         elapsed.Seconds(),
		Fingerprint:            t.fingerprint,
		Done:                   t.nextID >= t.totalBatches,
	}
}
