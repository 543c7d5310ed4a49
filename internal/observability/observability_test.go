package observability_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/goldbach/internal/observability"
)

func newExporter(t *testing.T) *observability.Exporter {
	t.Helper()

	exporter, err := observability.NewExporter()
	require.NoError(t, err)

	return exporter
}

func scrape(t *testing.T, exporter *observability.Exporter) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()

	exporter.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	return rec.Body.String()
}

func TestExporter_ServesMetrics(t *testing.T) {
	t.Parallel()

	exporter := newExporter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()

	exporter.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	// Prometheus exposition format uses text/plain with version parameter.
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestVerificationMetrics_RecordBatch(t *testing.T) {
	t.Parallel()

	exporter := newExporter(t)

	vm, err := observability.NewVerificationMetrics(exporter.Meter())
	require.NoError(t, err)

	ctx := context.Background()

	done := vm.TrackInflight(ctx)
	vm.RecordBatch(ctx, 100, 0, 50*time.Millisecond)
	done()

	vm.RecordBatch(ctx, 99, 1, 75*time.Millisecond)
	vm.RecordRetry(ctx)
	vm.RecordCheckpoint(ctx, nil)
	vm.RecordCheckpoint(ctx, errors.New("disk full"))

	body := scrape(t, exporter)
	assert.Contains(t, body, "goldbach_numbers_verified_total")
	assert.Contains(t, body, "goldbach_batch_duration_seconds")
	assert.Contains(t, body, "goldbach_counterexamples_total")
	assert.Contains(t, body, "goldbach_checkpoint_saves_total")
}

func TestExporter_Serve_DisabledAddr(t *testing.T) {
	t.Parallel()

	exporter := newExporter(t)

	// A blank listen address disables the endpoint without error.
	require.NoError(t, exporter.Serve(context.Background(), ""))
}

func TestExporter_Serve_StopsOnCancel(t *testing.T) {
	t.Parallel()

	exporter := newExporter(t)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)

	go func() {
		errCh <- exporter.Serve(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
