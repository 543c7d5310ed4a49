// Package batch partitions the verification range into contiguous,
// non-overlapping work units and defines the per-batch result record.
package batch

import "time"

// evenStride is the distance between consecutive even numbers.
const evenStride = 2

// Batch is a half-open sub-range [Start, End) of the verification range.
// Start is even and End-Start equals the configured batch size except for the
// final clipped batch. Batches are identified by their position in range order.
type Batch struct {
	ID    int
	Start uint64
	End   uint64
}

// NumEvens returns how many even numbers the batch covers.
func (b Batch) NumEvens() uint64 {
	if b.End <= b.Start {
		return 0
	}

	return (b.End - b.Start + 1) / evenStride
}

// LastEven returns the highest even number inside the batch.
func (b Batch) LastEven() uint64 {
	return b.End - evenStride
}

// Partition splits [nInitial, nFinal] into batches of batchSize integers.
// The batches cover every even number in the range exactly once, in order,
// with no gaps and no overlaps; the final batch is clipped at nFinal.
// nInitial and nFinal must be even with nInitial <= nFinal, and batchSize
// must be a positive even number (validated by the config layer).
func Partition(nInitial, nFinal, batchSize uint64) []Batch {
	if nFinal < nInitial || batchSize == 0 {
		return nil
	}

	// Exclusive upper boundary just past the last even number.
	upper := nFinal + evenStride
	batches := make([]Batch, 0, (upper-nInitial+batchSize-1)/batchSize)

	for start := nInitial; start < upper; start += batchSize {
		batches = append(batches, Batch{
			ID:    len(batches),
			Start: start,
			End:   min(start+batchSize, upper),
		})
	}

	return batches
}

// Result summarizes a completed batch. Workers reduce the per-number check
// results to this record before handing it to the progress tracker, so memory
// held for out-of-order batches stays bounded regardless of batch size.
type Result struct {
	Batch Batch

	// Checked and Satisfied count even numbers in the batch.
	Checked   uint64
	Satisfied uint64

	// Counterexamples lists every n in the batch with no decomposition.
	// Expected empty for all time.
	Counterexamples []uint64

	// MinRepresentations / MaxRepresentations bound the per-number
	// decomposition counts observed in the batch. Zero when representation
	// counting is disabled.
	MinRepresentations int
	MaxRepresentations int

	// Attempts is the number of executions it took to complete the batch
	// (1 unless the worker failed and the batch was retried).
	Attempts int

	Duration    time.Duration
	CompletedAt time.Time
}
