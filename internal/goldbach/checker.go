// Package goldbach implements the per-number decomposition check: given an
// even n and a primality oracle, find a prime pair (p, q) with p+q = n or
// establish that none exists within the oracle's range.
package goldbach

// MinEven is the smallest even number in the verification domain.
const MinEven = 6

// firstOddPrime is the starting candidate for decomposition search.
// p = 2 never contributes for n >= 6 because n-2 is even and > 2.
const firstOddPrime = 3

// Oracle answers primality queries for x in [2, bound].
// Implementations must be safe for concurrent readers.
type Oracle interface {
	IsPrime(x uint64) bool
}

// Result is the outcome of checking a single even number.
// When Satisfied, (P, Q) is the canonical decomposition with the smallest P
// (deterministic tie-break, so results are reproducible across runs).
// Representations is zero unless counting was requested.
type Result struct {
	N               uint64
	P               uint64
	Q               uint64
	Representations int
	Satisfied       bool
}

// Check finds the canonical (smallest-p) decomposition of n.
// It is a pure function of (n, oracle), allocates nothing, and never fails:
// an even n with no decomposition yields Satisfied == false, which is a
// counterexample to the conjecture.
func Check(n uint64, oracle Oracle) Result {
	if n < MinEven || n%2 != 0 {
		return Result{N: n}
	}

	half := n / 2
	for p := uint64(firstOddPrime); p <= half; p += 2 {
		if oracle.IsPrime(p) && oracle.IsPrime(n-p) {
			return Result{N: n, Satisfied: true, P: p, Q: n - p}
		}
	}

	return Result{N: n}
}

// CountRepresentations counts every decomposition of n with p <= q.
// Unlike Check it always scans the full candidate range, so it is only run
// when representation statistics are enabled.
func CountRepresentations(n uint64, oracle Oracle) int {
	if n < MinEven || n%2 != 0 {
		return 0
	}

	count := 0
	half := n / 2

	for p := uint64(firstOddPrime); p <= half; p += 2 {
		if oracle.IsPrime(p) && oracle.IsPrime(n-p) {
			count++
		}
	}

	return count
}
