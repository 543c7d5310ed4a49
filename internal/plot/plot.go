// Package plot renders the persisted batch summaries as an HTML chart of
// representation counts across the verified range.
package plot

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/goldbach/internal/resultlog"
)

const lineWidth = 2

// filePerm is the permission mode for rendered chart files.
const filePerm = 0o600

// ErrNoEntries indicates there is nothing to plot yet.
var ErrNoEntries = errors.New("result log holds no batches to plot")

func buildChartData(entries []resultlog.Entry) (labels []string, minData, maxData []opts.LineData) {
	labels = make([]string, len(entries))
	minData = make([]opts.LineData, len(entries))
	maxData = make([]opts.LineData, len(entries))

	for i, e := range entries {
		labels[i] = fmt.Sprintf("%d", e.Start)
		minData[i] = opts.LineData{Value: e.MinRepresentations}
		maxData[i] = opts.LineData{Value: e.MaxRepresentations}
	}

	return labels, minData, maxData
}

func createRepresentationsChart(labels []string, minData, maxData []opts.LineData) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Goldbach representation counts per batch",
			Subtitle: "Minimum and maximum decompositions among evens in each batch",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Batch start"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Representations"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("Min representations", minData,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("Max representations", maxData,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)

	return line
}

// RenderRepresentations writes the representation-count chart as a
// standalone HTML document.
func RenderRepresentations(w io.Writer, entries []resultlog.Entry) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}

	labels, minData, maxData := buildChartData(entries)

	renderErr := createRepresentationsChart(labels, minData, maxData).Render(w)
	if renderErr != nil {
		return fmt.Errorf("render chart: %w", renderErr)
	}

	return nil
}

// WriteFile renders the chart for the result log in dir into path.
func WriteFile(dir, path string) error {
	entries, loadErr := resultlog.Load(dir)
	if loadErr != nil {
		return fmt.Errorf("load result log: %w", loadErr)
	}

	f, createErr := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if createErr != nil {
		return fmt.Errorf("create chart file: %w", createErr)
	}

	renderErr := RenderRepresentations(f, entries)

	closeErr := f.Close()
	if renderErr != nil {
		return renderErr
	}

	if closeErr != nil {
		return fmt.Errorf("close chart file: %w", closeErr)
	}

	return nil
}
