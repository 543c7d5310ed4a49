package batch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/goldbach/internal/batch"
)

func TestPartition_ReferenceScenario(t *testing.T) {
	t.Parallel()

	// n_initial=6, n_final=20, batch_size=4 -> [6,10) [10,14) [14,18) [18,22).
	batches := batch.Partition(6, 20, 4)
	require.Len(t, batches, 4)

	want := []batch.Batch{
		{ID: 0, Start: 6, End: 10},
		{ID: 1, Start: 10, End: 14},
		{ID: 2, Start: 14, End: 18},
		{ID: 3, Start: 18, End: 22},
	}
	assert.Equal(t, want, batches)

	total := uint64(0)
	for _, b := range batches {
		total += b.NumEvens()
	}

	assert.Equal(t, uint64(8), total)
	assert.Equal(t, uint64(20), batches[3].LastEven())
}

func TestPartition_NoGapsNoOverlaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                        string
		nInitial, nFinal, batchSize uint64
	}{
		{name: "exact multiple", nInitial: 6, nFinal: 104, batchSize: 10},
		{name: "clipped tail", nInitial: 6, nFinal: 100, batchSize: 16},
		{name: "single batch", nInitial: 6, nFinal: 8, batchSize: 1000},
		{name: "batch per number", nInitial: 10, nFinal: 30, batchSize: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			batches := batch.Partition(tc.nInitial, tc.nFinal, tc.batchSize)
			require.NotEmpty(t, batches)

			assert.Equal(t, tc.nInitial, batches[0].Start)
			assert.Equal(t, tc.nFinal+2, batches[len(batches)-1].End)

			covered := make(map[uint64]int)

			for i, b := range batches {
				assert.Equal(t, i, b.ID)

				if i > 0 {
					assert.Equal(t, batches[i-1].End, b.Start, "gap or overlap before batch %d", i)
				}

				for n := b.Start; n < b.End; n += 2 {
					covered[n]++
				}
			}

			for n := tc.nInitial; n <= tc.nFinal; n += 2 {
				assert.Equal(t, 1, covered[n], "n=%d", n)
			}
		})
	}
}

func TestPartition_DegenerateInputs(t *testing.T) {
	t.Parallel()

	assert.Nil(t, batch.Partition(20, 6, 4))
	assert.Nil(t, batch.Partition(6, 20, 0))
}

func TestBatch_NumEvens(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(2), batch.Batch{Start: 6, End: 10}.NumEvens())
	assert.Equal(t, uint64(1), batch.Batch{Start: 6, End: 8}.NumEvens())
	assert.Equal(t, uint64(0), batch.Batch{Start: 6, End: 6}.NumEvens())
}
