// Package sieve builds a read-only primality oracle over [2, bound] using a
// segmented sieve of Eratosthenes. The oracle is backed by a single compact
// bitset shared by all workers; after construction it is never mutated.
package sieve

import (
	"errors"
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/goldbach/pkg/safeconv"
)

// DefaultSegmentSize is the number of integers sieved per segment. Chosen so
// the scratch buffer stays well inside L2 cache.
const DefaultSegmentSize = 1 << 20

// minBound is the smallest bound the oracle supports.
const minBound = 2

// bitsPerWord is the word width of the underlying bitset.
const bitsPerWord = 64

// bytesPerWord is the byte width of the underlying bitset word.
const bytesPerWord = 8

// ErrMemoryBudgetExceeded indicates the sieve arena would not fit in the
// configured memory budget. The bound must be lowered or the budget raised;
// the sieve never silently truncates.
var ErrMemoryBudgetExceeded = errors.New(
	"sieve memory budget exceeded: lower range.n_final or raise pipeline.memory_budget",
)

// ErrBoundTooSmall indicates the requested bound is below 2.
var ErrBoundTooSmall = errors.New("sieve bound must be at least 2")

// Options controls sieve construction.
type Options struct {
	// SegmentSize is the number of integers per sieve segment.
	// Zero selects DefaultSegmentSize.
	SegmentSize uint64

	// MemoryBudget is the maximum number of bytes the oracle may allocate.
	// Zero means unlimited.
	MemoryBudget uint64
}

// Oracle answers primality queries for any x in [2, bound].
// It is safe for concurrent use by multiple goroutines once built.
type Oracle struct {
	bound     uint64
	composite *bitset.BitSet
}

// EstimateBytes returns the approximate peak memory required to build an
// oracle for the given bound and segment size: the shared bitset plus the
// per-segment scratch buffer and the base prime list.
func EstimateBytes(bound, segmentSize uint64) uint64 {
	if segmentSize == 0 {
		segmentSize = DefaultSegmentSize
	}

	bits := bound + 1
	arena := (bits + bitsPerWord - 1) / bitsPerWord * bytesPerWord

	// Base primes up to sqrt(bound): pi(sqrt) < sqrt, stored as uint64.
	basePrimes := (isqrt(bound) + 1) * bytesPerWord

	return arena + segmentSize + basePrimes
}

// Build constructs the oracle by sieving [2, bound] in fixed-size segments.
// The base primes up to sqrt(bound) are found with a plain sieve first; each
// segment is then initialized all-prime and marked composite by every base
// prime whose multiples fall inside it, with results written into the shared
// bitset at the corresponding global offset.
func Build(bound uint64, opts Options) (*Oracle, error) {
	if bound < minBound {
		return nil, fmt.Errorf("%w: got %d", ErrBoundTooSmall, bound)
	}

	segmentSize := opts.SegmentSize
	if segmentSize == 0 {
		segmentSize = DefaultSegmentSize
	}

	need := EstimateBytes(bound, segmentSize)
	if opts.MemoryBudget > 0 && need > opts.MemoryBudget {
		return nil, fmt.Errorf("%w: need %s for bound %d, budget %s",
			ErrMemoryBudgetExceeded, humanize.IBytes(need), bound, humanize.IBytes(opts.MemoryBudget))
	}

	composite := bitset.New(safeconv.MustUint64ToUint(bound + 1))
	composite.Set(0)
	composite.Set(1)

	base := basePrimes(isqrt(bound))
	scratch := make([]bool, segmentSize)

	for lo := uint64(minBound); lo <= bound; lo += segmentSize {
		hi := min(lo+segmentSize-1, bound)
		span := scratch[:hi-lo+1]
		clear(span)

		for _, p := range base {
			first := p * p
			if first > hi {
				// Base primes are sorted; no later prime can mark this segment.
				break
			}

			if first < lo {
				first = (lo + p - 1) / p * p
			}

			for m := first; m <= hi; m += p {
				span[m-lo] = true
			}
		}

		for i, isComposite := range span {
			if isComposite {
				composite.Set(safeconv.MustUint64ToUint(lo + uint64(i)))
			}
		}
	}

	return &Oracle{bound: bound, composite: composite}, nil
}

// IsPrime reports whether x is prime. Queries outside [2, bound] return false.
func (o *Oracle) IsPrime(x uint64) bool {
	if x < minBound || x > o.bound {
		return false
	}

	return !o.composite.Test(safeconv.MustUint64ToUint(x))
}

// Bound returns the inclusive upper limit of the sieved range.
func (o *Oracle) Bound() uint64 {
	return o.bound
}

// basePrimes returns all primes up to limit via a plain sieve.
func basePrimes(limit uint64) []uint64 {
	if limit < minBound {
		return nil
	}

	isComposite := make([]bool, limit+1)
	primes := make([]uint64, 0)

	for i := uint64(minBound); i <= limit; i++ {
		if isComposite[i] {
			continue
		}

		primes = append(primes, i)

		for m := i * i; m <= limit; m += i {
			isComposite[m] = true
		}
	}

	return primes
}

// isqrt returns the integer square root of n. The correction loops compare
// by division because squaring the candidate wraps for n within 2^32 of the
// top of the uint64 range.
func isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}

	r := uint64(math.Sqrt(float64(n)))

	for r > n/r {
		r--
	}

	for r+1 <= n/(r+1) {
		r++
	}

	return r
}
