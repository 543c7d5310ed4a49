// Package report renders run events and the final summary for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/goldbach/internal/engine"
	"github.com/Sumatoshi-tech/goldbach/internal/progress"
	"github.com/Sumatoshi-tech/goldbach/internal/stats"
	"github.com/Sumatoshi-tech/goldbach/pkg/safeconv"
)

// Reporter writes human-readable run output.
type Reporter struct {
	out io.Writer

	okColor   *color.Color
	failColor *color.Color
}

// New creates a reporter writing to out.
func New(out io.Writer) *Reporter {
	return &Reporter{
		out:       out,
		okColor:   color.New(color.FgGreen, color.Bold),
		failColor: color.New(color.FgRed, color.Bold),
	}
}

// Consume renders events until the channel closes.
func (r *Reporter) Consume(events <-chan engine.Event) {
	for ev := range events {
		r.Render(ev)
	}
}

// Render writes one event.
func (r *Reporter) Render(ev engine.Event) {
	switch ev.Kind {
	case engine.EventProgress:
		fmt.Fprintln(r.out, r.progressLine(ev.Snapshot))
	case engine.EventCounterexample:
		r.failColor.Fprintf(r.out, "COUNTEREXAMPLE: %s has no prime decomposition\n",
			humanize.Comma(safeconv.MustUint64ToInt64(ev.Counterexample)))
	case engine.EventCompleted:
		r.okColor.Fprintf(r.out, "range verified: every even number in [%d, %d] satisfies the conjecture\n",
			ev.Snapshot.NInitial, ev.Snapshot.NFinal)
	}
}

func (r *Reporter) progressLine(snap progress.Snapshot) string {
	summary := stats.Summarize(snap)

	line := fmt.Sprintf("verified %s of %s evens (%.2f%%) up to %s, %.0f/s",
		humanize.Comma(safeconv.MustUint64ToInt64(snap.TotalVerified)),
		humanize.Comma(safeconv.MustUint64ToInt64(snap.TotalVerified+summary.Remaining)),
		summary.PercentComplete,
		humanize.Comma(safeconv.MustUint64ToInt64(snap.LastContiguousVerified)),
		summary.EvensPerSecond,
	)

	if summary.ETA > 0 {
		line += fmt.Sprintf(", eta %s", summary.ETA.Round(time.Second))
	}

	return line
}

// Summary renders the final run summary as a table.
func (r *Reporter) Summary(snap progress.Snapshot) string {
	summary := stats.Summarize(snap)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})

	tbl.AppendRows([]table.Row{
		{"Range", fmt.Sprintf("[%d, %d]", snap.NInitial, snap.NFinal)},
		{"Verified", humanize.Comma(safeconv.MustUint64ToInt64(snap.TotalVerified))},
		{"Satisfied", humanize.Comma(safeconv.MustUint64ToInt64(snap.TotalSatisfied))},
		{"Counterexamples", len(snap.Counterexamples)},
		{"Contiguous up to", humanize.Comma(safeconv.MustUint64ToInt64(snap.LastContiguousVerified))},
		{"Complete", fmt.Sprintf("%.2f%%", summary.PercentComplete)},
		{"Elapsed", (time.Duration(snap.ElapsedSeconds * float64(time.Second))).Round(time.Second).String()},
	})

	if snap.MaxRepresentations > 0 {
		tbl.AppendRows([]table.Row{
			{"Min representations", snap.MinRepresentations},
			{"Max representations", snap.MaxRepresentations},
		})
	}

	if snap.HasCounterexamples() {
		refuted := make([]string, 0, len(snap.Counterexamples))
		for _, n := range snap.Counterexamples {
			refuted = append(refuted, humanize.Comma(safeconv.MustUint64ToInt64(n)))
		}

		tbl.AppendFooter(table.Row{"Refuted", strings.Join(refuted, ", ")})
	}

	return tbl.Render()
}

// WriteSummary renders the summary table to the reporter's writer.
func (r *Reporter) WriteSummary(snap progress.Snapshot) {
	fmt.Fprintln(r.out, r.Summary(snap))
}
