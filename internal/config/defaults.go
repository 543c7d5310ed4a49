package config

import "runtime"

// minEvenNumber is the smallest even number the conjecture applies to.
const minEvenNumber = 6

// Default configuration values.
const (
	DefaultNInitial = uint64(6)
	DefaultNFinal   = uint64(1_000_000)

	DefaultBatchSize       = uint64(10_000)
	DefaultMemoryBudget    = "1GB"
	DefaultSegmentSize     = uint64(1 << 20)
	DefaultWorkerTimeout   = "5m"
	DefaultMaxBatchRetries = 3

	DefaultCheckpointEnabled = true
	DefaultCheckpointResume  = true
	DefaultSaveInterval      = "1h"

	DefaultProgressInterval = "10s"
)

// DefaultWorkers leaves one CPU free for the collector and checkpoint writer.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()-1)
}
