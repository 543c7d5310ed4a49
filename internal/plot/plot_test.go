package plot_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/goldbach/internal/batch"
	"github.com/Sumatoshi-tech/goldbach/internal/plot"
	"github.com/Sumatoshi-tech/goldbach/internal/resultlog"
)

func entries() []resultlog.Entry {
	return []resultlog.Entry{
		{BatchID: 0, Start: 6, End: 10, MinRepresentations: 1, MaxRepresentations: 1},
		{BatchID: 1, Start: 10, End: 14, MinRepresentations: 1, MaxRepresentations: 2},
	}
}

func TestRenderRepresentations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, plot.RenderRepresentations(&buf, entries()))

	out := buf.String()
	assert.Contains(t, out, "echarts")
	assert.Contains(t, out, "Min representations")
	assert.Contains(t, out, "Max representations")
}

func TestRenderRepresentations_Empty(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, plot.RenderRepresentations(&bytes.Buffer{}, nil), plot.ErrNoEntries)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	log := resultlog.New(dir)
	log.Append(batch.Result{
		Batch:              batch.Batch{ID: 0, Start: 6, End: 10},
		Checked:            2,
		Satisfied:          2,
		MinRepresentations: 1,
		MaxRepresentations: 1,
		Duration:           time.Millisecond,
	})
	require.NoError(t, log.Save())

	path := filepath.Join(dir, "representations.html")
	require.NoError(t, plot.WriteFile(dir, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "echarts")
}
