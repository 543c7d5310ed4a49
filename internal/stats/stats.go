// Package stats derives run statistics from progress snapshots: completion
// percentage, verification rate, and an ETA, plus the Hardy-Littlewood
// estimate of Goldbach representation counts used as a sanity reference for
// observed minima.
package stats

import (
	"math"
	"time"

	"github.com/Sumatoshi-tech/goldbach/internal/progress"
)

// TwinPrimeConstant is C2 in the Hardy-Littlewood conjectures.
const TwinPrimeConstant = 0.6601618158468696

const (
	percentScale = 100.0
	evenStride   = 2
)

// Summary holds the derived statistics for one snapshot.
type Summary struct {
	PercentComplete float64
	EvensPerSecond  float64
	Remaining       uint64
	ETA             time.Duration
}

// Summarize derives statistics from a progress snapshot. Rate and ETA are
// based on total verified numbers over total elapsed time, so resumed runs
// report a lifetime average rather than a burst rate.
func Summarize(snap progress.Snapshot) Summary {
	total := totalEvens(snap.NInitial, snap.NFinal)
	if total == 0 {
		return Summary{PercentComplete: percentScale}
	}

	var s Summary

	s.PercentComplete = percentScale * float64(snap.TotalVerified) / float64(total)
	s.Remaining = total - min(snap.TotalVerified, total)

	if snap.ElapsedSeconds > 0 {
		s.EvensPerSecond = float64(snap.TotalVerified) / snap.ElapsedSeconds
	}

	if s.EvensPerSecond > 0 {
		s.ETA = time.Duration(float64(s.Remaining) / s.EvensPerSecond * float64(time.Second))
	}

	return s
}

func totalEvens(nInitial, nFinal uint64) uint64 {
	if nFinal < nInitial {
		return 0
	}

	return (nFinal-nInitial)/evenStride + 1
}

// SingularSeries computes the singular series S(n) for an even n: the product
// 2*C2 * prod over odd primes p dividing n of (p-1)/(p-2).
func SingularSeries(n uint64) float64 {
	if n < 4 || n%2 != 0 {
		return 0
	}

	series := 2 * TwinPrimeConstant

	// Strip factors of two, then walk odd prime divisors.
	for n%2 == 0 {
		n /= 2
	}

	for p := uint64(3); p*p <= n; p += 2 {
		if n%p != 0 {
			continue
		}

		series *= float64(p-1) / float64(p-2)
		for n%p == 0 {
			n /= p
		}
	}

	if n > 1 {
		series *= float64(n-1) / float64(n-2)
	}

	return series
}

// PredictedRepresentations estimates the number of Goldbach representations
// of n as S(n) * n / ln(n)^2. The estimate counts ordered pairs; halve it to
// compare with unordered pair counts.
func PredictedRepresentations(n uint64) float64 {
	if n < 6 || n%2 != 0 {
		return 0
	}

	logN := math.Log(float64(n))

	return SingularSeries(n) * float64(n) / (logN * logN)
}
