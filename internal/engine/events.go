package engine

import (
	"context"

	"github.com/Sumatoshi-tech/goldbach/internal/progress"
)

// EventKind discriminates run events.
type EventKind int

const (
	// EventProgress is a periodic progress update. Delivery is best-effort.
	EventProgress EventKind = iota

	// EventCounterexample announces a refuted even number. Emitted only
	// after the counterexample is durably checkpointed.
	EventCounterexample

	// EventCompleted announces that the full range verified cleanly.
	EventCompleted
)

// Event is one observable occurrence during a run.
type Event struct {
	Kind           EventKind
	Snapshot       progress.Snapshot
	Counterexample uint64
}

// emit sends a best-effort event, dropping it when the consumer lags.
func (e *Engine) emit(ev Event) {
	if e.events == nil {
		return
	}

	select {
	case e.events <- ev:
	default:
	}
}

// emitBlocking sends an event that must not be lost, giving up only when the
// run context ends.
func (e *Engine) emitBlocking(ctx context.Context, ev Event) {
	if e.events == nil {
		return
	}

	select {
	case e.events <- ev:
	case <-ctx.Done():
	}
}
