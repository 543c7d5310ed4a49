package sieve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/goldbach/internal/sieve"
)

// naiveSieve is the reference non-segmented sieve the oracle must agree with.
func naiveSieve(bound uint64) []bool {
	isPrime := make([]bool, bound+1)
	for i := range isPrime {
		isPrime[i] = i >= 2
	}

	for i := uint64(2); i*i <= bound; i++ {
		if !isPrime[i] {
			continue
		}

		for m := i * i; m <= bound; m += i {
			isPrime[m] = false
		}
	}

	return isPrime
}

func TestBuild_AgreesWithNaiveSieve(t *testing.T) {
	t.Parallel()

	const bound = 100000

	// Small segments force many segment boundaries inside the range.
	oracle, err := sieve.Build(bound, sieve.Options{SegmentSize: 1000})
	require.NoError(t, err)

	reference := naiveSieve(bound)
	for x := uint64(0); x <= bound; x++ {
		if oracle.IsPrime(x) != reference[x] {
			t.Fatalf("disagreement at %d: oracle=%v naive=%v", x, oracle.IsPrime(x), reference[x])
		}
	}
}

func TestBuild_KnownPrimes(t *testing.T) {
	t.Parallel()

	oracle, err := sieve.Build(10000, sieve.Options{})
	require.NoError(t, err)

	for _, p := range []uint64{2, 3, 5, 7, 11, 97, 7919, 9973} {
		assert.True(t, oracle.IsPrime(p), "expected %d prime", p)
	}

	for _, c := range []uint64{0, 1, 4, 9, 100, 7917, 9999} {
		assert.False(t, oracle.IsPrime(c), "expected %d composite", c)
	}
}

func TestBuild_SegmentBoundaryIsExact(t *testing.T) {
	t.Parallel()

	// Bound lands exactly on a segment boundary; the last segment is a single cell.
	oracle, err := sieve.Build(1009, sieve.Options{SegmentSize: 1008})
	require.NoError(t, err)

	assert.True(t, oracle.IsPrime(1009))
	assert.False(t, oracle.IsPrime(1008))
}

func TestBuild_TinyBounds(t *testing.T) {
	t.Parallel()

	oracle, err := sieve.Build(2, sieve.Options{})
	require.NoError(t, err)
	assert.True(t, oracle.IsPrime(2))

	_, err = sieve.Build(1, sieve.Options{})
	require.ErrorIs(t, err, sieve.ErrBoundTooSmall)
}

func TestBuild_QueriesOutsideBoundAreFalse(t *testing.T) {
	t.Parallel()

	oracle, err := sieve.Build(100, sieve.Options{})
	require.NoError(t, err)

	assert.False(t, oracle.IsPrime(101))
	assert.False(t, oracle.IsPrime(103))
	assert.Equal(t, uint64(100), oracle.Bound())
}

func TestBuild_MemoryBudgetExceeded(t *testing.T) {
	t.Parallel()

	_, err := sieve.Build(1_000_000, sieve.Options{MemoryBudget: 1024})
	require.ErrorIs(t, err, sieve.ErrMemoryBudgetExceeded)
}

func TestEstimateBytes_GrowsWithBound(t *testing.T) {
	t.Parallel()

	small := sieve.EstimateBytes(1_000_000, 0)
	large := sieve.EstimateBytes(100_000_000, 0)

	assert.Greater(t, large, small)
	// The arena dominates: one bit per integer.
	assert.GreaterOrEqual(t, large, uint64(100_000_000/8))
}
