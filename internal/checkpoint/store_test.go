package checkpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/goldbach/internal/checkpoint"
	"github.com/Sumatoshi-tech/goldbach/internal/progress"
)

func newStore(t *testing.T) *checkpoint.Store {
	t.Helper()

	store, err := checkpoint.NewStore(t.TempDir())
	require.NoError(t, err)

	return store
}

func sampleSnapshot() progress.Snapshot {
	return progress.Snapshot{
		NInitial:               6,
		NFinal:                 1000,
		LastContiguousVerified: 512,
		TotalVerified:          254,
		TotalSatisfied:         254,
		Counterexamples:        []uint64{},
		MinRepresentations:     1,
		MaxRepresentations:     28,
		ElapsedSeconds:         12.5,
		Fingerprint:            checkpoint.Fingerprint(6, 1000),
	}
}

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	snap := sampleSnapshot()

	require.NoError(t, store.Save(checkpoint.FromSnapshot(snap)))
	require.True(t, store.Exists())

	loaded, err := store.Load(snap.Fingerprint)
	require.NoError(t, err)

	restored := loaded.ToSnapshot()
	assert.Equal(t, snap.LastContiguousVerified, restored.LastContiguousVerified)
	assert.Equal(t, snap.TotalVerified, restored.TotalVerified)
	assert.Equal(t, snap.TotalSatisfied, restored.TotalSatisfied)
	assert.Equal(t, snap.MinRepresentations, restored.MinRepresentations)
	assert.Equal(t, snap.MaxRepresentations, restored.MaxRepresentations)
	assert.InDelta(t, snap.ElapsedSeconds, restored.ElapsedSeconds, 1e-9)
}

func TestStore_Load_Missing(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	_, err := store.Load(checkpoint.Fingerprint(6, 1000))
	require.ErrorIs(t, err, checkpoint.ErrNoCheckpoint)
	assert.False(t, store.Exists())
}

func TestStore_Load_FingerprintMismatch(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	snap := sampleSnapshot()

	require.NoError(t, store.Save(checkpoint.FromSnapshot(snap)))

	_, err := store.Load(checkpoint.Fingerprint(6, 2000))
	require.ErrorIs(t, err, checkpoint.ErrConfigMismatch)
}

func TestStore_Load_RejectsGarbage(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	require.NoError(t, os.MkdirAll(store.Dir(), 0o750))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"format_version": 1}`), 0o600))

	_, err := store.Load(checkpoint.Fingerprint(6, 1000))
	require.ErrorIs(t, err, checkpoint.ErrCheckpointCorrupt)

	require.NoError(t, os.WriteFile(store.Path(), []byte(`not json at all`), 0o600))

	_, err = store.Load(checkpoint.Fingerprint(6, 1000))
	require.ErrorIs(t, err, checkpoint.ErrCheckpointCorrupt)
}

func TestStore_CrashMidWrite_KeepsPreviousRecord(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	snap := sampleSnapshot()

	require.NoError(t, store.Save(checkpoint.FromSnapshot(snap)))

	// Simulate a crash between writing the temp file and the atomic rename:
	// a stale partial temp file must not affect the durable record.
	tmpPath := store.Path() + ".tmp"
	require.NoError(t, os.WriteFile(tmpPath, []byte(`{"partial":`), 0o600))

	loaded, err := store.Load(snap.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, snap.LastContiguousVerified, loaded.LastContiguousVerified)
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	require.NoError(t, store.Save(checkpoint.FromSnapshot(sampleSnapshot())))
	require.NoError(t, store.Clear())
	assert.False(t, store.Exists())

	// Clearing an empty store is not an error.
	require.NoError(t, store.Clear())
}

func TestFingerprint_Properties(t *testing.T) {
	t.Parallel()

	fp := checkpoint.Fingerprint(6, 1000)
	assert.Len(t, fp, 16)
	assert.Equal(t, fp, checkpoint.Fingerprint(6, 1000))
	assert.NotEqual(t, fp, checkpoint.Fingerprint(6, 1002))
	assert.NotEqual(t, fp, checkpoint.Fingerprint(8, 1000))
}

func TestStore_Path_InsideDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := checkpoint.NewStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "checkpoint.json"), store.Path())
}
