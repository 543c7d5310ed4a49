// Package config defines the run configuration, its defaults, and the
// viper-based loader that merges file, environment, and default values.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

const evenStride = 2

// Config is the top-level configuration struct.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Range         RangeConfig         `mapstructure:"range"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Checkpoint    CheckpointConfig    `mapstructure:"checkpoint"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// RangeConfig holds the verification range boundaries. Both bounds are
// inclusive even numbers.
type RangeConfig struct {
	NInitial uint64 `mapstructure:"n_initial"`
	NFinal   uint64 `mapstructure:"n_final"`
}

// PipelineConfig holds worker and resource knobs.
type PipelineConfig struct {
	Workers                     int    `mapstructure:"workers"`
	BatchSize                   uint64 `mapstructure:"batch_size"`
	MemoryBudget                string `mapstructure:"memory_budget"`
	SegmentSize                 uint64 `mapstructure:"segment_size"`
	WorkerTimeout               string `mapstructure:"worker_timeout"`
	MaxBatchRetries             int    `mapstructure:"max_batch_retries"`
	CountRepresentations        bool   `mapstructure:"count_representations"`
	ContinueAfterCounterexample bool   `mapstructure:"continue_after_counterexample"`
}

// CheckpointConfig holds checkpoint settings.
type CheckpointConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Dir          string `mapstructure:"dir"`
	Resume       bool   `mapstructure:"resume"`
	SaveInterval string `mapstructure:"save_interval"`
}

// ObservabilityConfig holds metrics and progress reporting settings.
type ObservabilityConfig struct {
	ListenAddr       string `mapstructure:"listen_addr"`
	ProgressInterval string `mapstructure:"progress_interval"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidNInitial indicates the lower bound is not an even number >= 6.
	ErrInvalidNInitial = errors.New("range.n_initial must be an even number >= 6")
	// ErrInvalidNFinal indicates the upper bound is not an even number above the lower bound.
	ErrInvalidNFinal = errors.New("range.n_final must be an even number >= range.n_initial")
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("pipeline.workers must be non-negative")
	// ErrInvalidBatchSize indicates the batch size is not a positive even number.
	ErrInvalidBatchSize = errors.New("pipeline.batch_size must be a positive even number")
	// ErrInvalidSegmentSize indicates the sieve segment size is zero.
	ErrInvalidSegmentSize = errors.New("pipeline.segment_size must be positive")
	// ErrInvalidMaxBatchRetries indicates the retry limit is not positive.
	ErrInvalidMaxBatchRetries = errors.New("pipeline.max_batch_retries must be positive")
	// ErrInvalidMemoryBudget indicates the memory budget could not be parsed.
	ErrInvalidMemoryBudget = errors.New("pipeline.memory_budget is not a valid byte size")
	// ErrInvalidDuration indicates a duration field could not be parsed.
	ErrInvalidDuration = errors.New("invalid duration")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Range.NInitial < minEvenNumber || c.Range.NInitial%evenStride != 0 {
		return ErrInvalidNInitial
	}

	if c.Range.NFinal < c.Range.NInitial || c.Range.NFinal%evenStride != 0 {
		return ErrInvalidNFinal
	}

	if c.Pipeline.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Pipeline.BatchSize == 0 || c.Pipeline.BatchSize%evenStride != 0 {
		return ErrInvalidBatchSize
	}

	if c.Pipeline.SegmentSize == 0 {
		return ErrInvalidSegmentSize
	}

	if c.Pipeline.MaxBatchRetries <= 0 {
		return ErrInvalidMaxBatchRetries
	}

	if _, err := c.MemoryBudgetBytes(); err != nil {
		return err
	}

	for field, value := range map[string]string{
		"pipeline.worker_timeout":         c.Pipeline.WorkerTimeout,
		"checkpoint.save_interval":        c.Checkpoint.SaveInterval,
		"observability.progress_interval": c.Observability.ProgressInterval,
	} {
		if _, err := parseDuration(field, value); err != nil {
			return err
		}
	}

	return nil
}

// MemoryBudgetBytes parses the configured memory budget into bytes.
// A blank budget means unlimited and parses to zero.
func (c *Config) MemoryBudgetBytes() (uint64, error) {
	if c.Pipeline.MemoryBudget == "" {
		return 0, nil
	}

	bytes, err := humanize.ParseBytes(c.Pipeline.MemoryBudget)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMemoryBudget, c.Pipeline.MemoryBudget)
	}

	return bytes, nil
}

// WorkerTimeoutDuration parses the per-batch worker timeout.
// A blank value disables the timeout.
func (c *Config) WorkerTimeoutDuration() (time.Duration, error) {
	return parseDuration("pipeline.worker_timeout", c.Pipeline.WorkerTimeout)
}

// SaveIntervalDuration parses the checkpoint save interval.
func (c *Config) SaveIntervalDuration() (time.Duration, error) {
	return parseDuration("checkpoint.save_interval", c.Checkpoint.SaveInterval)
}

// ProgressIntervalDuration parses the progress reporting interval.
func (c *Config) ProgressIntervalDuration() (time.Duration, error) {
	return parseDuration("observability.progress_interval", c.Observability.ProgressInterval)
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q", ErrInvalidDuration, field, value)
	}

	return d, nil
}
