// Package checkpoint provides durable, atomic persistence of verification
// progress. The on-disk record is versioned and carries a fingerprint of the
// run configuration; loads that fail schema or fingerprint validation are
// rejected rather than silently resumed against the wrong range.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/goldbach/internal/progress"
)

// FormatVersion is the current checkpoint record format version.
const FormatVersion = 1

// AlgorithmVersion identifies the verification semantics (sieve + canonical
// pair selection). It is folded into the fingerprint so a checkpoint written
// by an incompatible engine revision cannot be resumed.
const AlgorithmVersion = 1

// fingerprintBytes is the number of hash bytes kept in the fingerprint
// (16 hex chars).
const fingerprintBytes = 8

// State is the serialized form of a progress snapshot.
type State struct {
	FormatVersion          int      `json:"format_version"`
	ConfigFingerprint      string   `json:"config_fingerprint"`
	NInitial               uint64   `json:"n_initial"`
	NFinal                 uint64   `json:"n_final"`
	LastContiguousVerified uint64   `json:"last_contiguous_verified"`
	TotalVerified          uint64   `json:"total_verified"`
	TotalSatisfied         uint64   `json:"total_satisfied"`
	Counterexamples        []uint64 `json:"counterexamples"`
	MinRepresentations     int      `json:"min_representations,omitempty"`
	MaxRepresentations     int      `json:"max_representations,omitempty"`
	ElapsedSeconds         float64  `json:"elapsed_seconds"`
	SavedAt                string   `json:"saved_at"`
}

// Fingerprint derives the run configuration fingerprint from the range
// boundaries and the algorithm version.
func Fingerprint(nInitial, nFinal uint64) string {
	h := sha256.Sum256(fmt.Appendf(nil, "goldbach:v%d:%d:%d", AlgorithmVersion, nInitial, nFinal))

	return hex.EncodeToString(h[:fingerprintBytes])
}

// FromSnapshot converts a tracker snapshot into its durable form.
func FromSnapshot(snap progress.Snapshot) *State {
	return &State{
		FormatVersion:          FormatVersion,
		ConfigFingerprint:      snap.Fingerprint,
		NInitial:               snap.NInitial,
		NFinal:                 snap.NFinal,
		LastContiguousVerified: snap.LastContiguousVerified,
		TotalVerified:          snap.TotalVerified,
		TotalSatisfied:         snap.TotalSatisfied,
		Counterexamples:        snap.Counterexamples,
		MinRepresentations:     snap.MinRepresentations,
		MaxRepresentations:     snap.MaxRepresentations,
		ElapsedSeconds:         snap.ElapsedSeconds,
		SavedAt:                time.Now().UTC().Format(time.RFC3339),
	}
}

// ToSnapshot converts a loaded state back into a tracker snapshot.
func (s *State) ToSnapshot() progress.Snapshot {
	return progress.Snapshot{
		NInitial:               s.NInitial,
		NFinal:                 s.NFinal,
		LastContiguousVerified: s.LastContiguousVerified,
		TotalVerified:          s.TotalVerified,
		TotalSatisfied:         s.TotalSatisfied,
		Counterexamples:        s.Counterexamples,
		MinRepresentations:     s.MinRepresentations,
		MaxRepresentations:     s.MaxRepresentations,
		ElapsedSeconds:         s.ElapsedSeconds,
		Fingerprint:            s.ConfigFingerprint,
	}
}
