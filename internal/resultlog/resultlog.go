// Package resultlog accumulates per-batch summaries and persists them next
// to the checkpoint as an lz4-compressed gob file. The log feeds the render
// command and the representation statistics; losing it costs charts, never
// verification progress.
package resultlog

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/Sumatoshi-tech/goldbach/internal/batch"
	"github.com/Sumatoshi-tech/goldbach/pkg/persist"
)

// basename of the result log inside the store directory.
const basename = "results"

// formatVersion tags the serialized log for future migrations.
const formatVersion = 1

// dirPerm is the permission mode for the log directory.
const dirPerm = 0o750

// Entry is one batch summary row.
type Entry struct {
	BatchID            int
	Start              uint64
	End                uint64
	Checked            uint64
	Satisfied          uint64
	MinRepresentations int
	MaxRepresentations int
	DurationMS         int64
}

// logState is the serialized form of the log.
type logState struct {
	FormatVersion int
	Entries       []Entry
}

func newPersister() *persist.Persister[logState] {
	return persist.NewPersister[logState](basename, persist.NewLZ4Codec(persist.NewGobCodec()))
}

// Log is an in-memory accumulation of batch summaries with periodic saves.
// Safe for concurrent Append and Save.
type Log struct {
	mu        sync.Mutex
	dir       string
	entries   map[int]Entry
	persister *persist.Persister[logState]
}

// New creates a result log rooted at dir. If a previous log exists it is
// loaded so resumed runs keep appending to it.
func New(dir string) *Log {
	l := &Log{
		dir:       dir,
		entries:   make(map[int]Entry),
		persister: newPersister(),
	}

	// A missing or unreadable prior log only means we start fresh.
	_ = l.persister.Load(dir, func(state *logState) {
		for _, e := range state.Entries {
			l.entries[e.BatchID] = e
		}
	})

	return l
}

// Append records the summary for a completed batch. Idempotent per batch ID.
func (l *Log) Append(res batch.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.entries[res.Batch.ID]; dup {
		return
	}

	l.entries[res.Batch.ID] = Entry{
		BatchID:            res.Batch.ID,
		Start:              res.Batch.Start,
		End:                res.Batch.End,
		Checked:            res.Checked,
		Satisfied:          res.Satisfied,
		MinRepresentations: res.MinRepresentations,
		MaxRepresentations: res.MaxRepresentations,
		DurationMS:         res.Duration.Milliseconds(),
	}
}

// Len returns the number of recorded batches.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// Save atomically persists the log, sorted by batch ID.
func (l *Log) Save() error {
	l.mu.Lock()
	state := logState{
		FormatVersion: formatVersion,
		Entries:       make([]Entry, 0, len(l.entries)),
	}

	for _, e := range l.entries {
		state.Entries = append(state.Entries, e)
	}
	l.mu.Unlock()

	sort.Slice(state.Entries, func(i, j int) bool {
		return state.Entries[i].BatchID < state.Entries[j].BatchID
	})

	mkdirErr := os.MkdirAll(l.dir, dirPerm)
	if mkdirErr != nil {
		return fmt.Errorf("create result log dir: %w", mkdirErr)
	}

	saveErr := l.persister.Save(l.dir, func() *logState { return &state })
	if saveErr != nil {
		return fmt.Errorf("save result log: %w", saveErr)
	}

	return nil
}

// Clear removes the persisted log. Missing files are not an error.
func Clear(dir string) error {
	removeErr := os.Remove(newPersister().Path(dir))
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return fmt.Errorf("remove result log: %w", removeErr)
	}

	return nil
}

// Load reads the persisted log entries, sorted by batch ID.
func Load(dir string) ([]Entry, error) {
	var entries []Entry

	loadErr := newPersister().Load(dir, func(state *logState) {
		entries = state.Entries
	})
	if loadErr != nil {
		return nil, loadErr
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].BatchID < entries[j].BatchID
	})

	return entries, nil
}
