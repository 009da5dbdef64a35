package index_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bravo1goingdark/ucfp/pkg/index"
)

func TestUpsertThenGetRoundTrips(t *testing.T) {
	idx, err := index.Open(index.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(index.Entry{
		CanonicalHash: "hash-1",
		Perceptual:    []uint64{1, 2, 3},
		Embedding:     []int8{1, 2, 3},
		Metadata:      []byte(`{"tenant":"acme"}`),
	}))

	record, ok, err := idx.Get("hash-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hash-1", record.CanonicalHash)
	require.Equal(t, []uint64{1, 2, 3}, record.Perceptual)
}

func TestDeleteLeavesStaleInvertedPointer(t *testing.T) {
	idx, err := index.Open(index.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(index.Entry{CanonicalHash: "hash-1", Perceptual: []uint64{42}}))
	require.NoError(t, idx.Delete("hash-1"))

	bucket := idx.InvertedBucket(42)
	require.Contains(t, bucket, "hash-1")

	_, ok, err := idx.Get("hash-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBatchInsertSingleLockAcquisition(t *testing.T) {
	idx, err := index.Open(index.DefaultConfig())
	require.NoError(t, err)

	entries := make([]index.Entry, 15)
	for i := range entries {
		entries[i] = index.Entry{
			CanonicalHash: string(rune('a' + i)),
			Perceptual:    []uint64{uint64(i)},
			Embedding:     []int8{int8(i)},
		}
	}
	require.NoError(t, idx.BatchInsert(entries))
	require.Equal(t, 15, len(idx.VectorSnapshot()))
}

func TestUpdateConfigInvalidatesANN(t *testing.T) {
	idx, err := index.Open(index.DefaultConfig())
	require.NoError(t, err)

	entries := make([]index.Entry, 12)
	for i := range entries {
		vec := make([]float32, 4)
		vec[i%4] = float32(i + 1)
		entries[i] = index.Entry{
			CanonicalHash: string(rune('a' + i)),
			Embedding:     index.Quantize(vec, 127.0),
		}
	}
	require.NoError(t, idx.BatchInsert(entries))
	require.NotNil(t, idx.ANN())

	require.NoError(t, idx.UpdateConfig(32, 128))
	graph := idx.ANN()
	require.NotNil(t, graph)
	require.Equal(t, 32, graph.M)
	require.Equal(t, 128, graph.EfConstruction)
}

func TestUpdateConfigRejectsNonPositiveParams(t *testing.T) {
	idx, err := index.Open(index.DefaultConfig())
	require.NoError(t, err)

	require.Error(t, idx.UpdateConfig(0, 64))
	require.Error(t, idx.UpdateConfig(16, 0))
}

func TestUpsertRejectsMismatchedEmbeddingDimension(t *testing.T) {
	idx, err := index.Open(index.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(index.Entry{CanonicalHash: "a", Embedding: []int8{1, 2, 3}}))
	err = idx.Upsert(index.Entry{CanonicalHash: "b", Embedding: []int8{1, 2}})
	require.Error(t, err)
}

func TestBatchInsertRejectsMismatchedEmbeddingDimension(t *testing.T) {
	idx, err := index.Open(index.DefaultConfig())
	require.NoError(t, err)

	err = idx.BatchInsert([]index.Entry{
		{CanonicalHash: "a", Embedding: []int8{1, 2, 3}},
		{CanonicalHash: "b", Embedding: []int8{1, 2}},
	})
	require.Error(t, err)
}

func TestUpsertAllowsEmptyEmbeddingRegardlessOfDimension(t *testing.T) {
	idx, err := index.Open(index.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(index.Entry{CanonicalHash: "a", Embedding: []int8{1, 2, 3}}))
	require.NoError(t, idx.Upsert(index.Entry{CanonicalHash: "b", Perceptual: []uint64{7}}))
}

func TestANNRebuildsAfterInvalidation(t *testing.T) {
	idx, err := index.Open(index.DefaultConfig())
	require.NoError(t, err)

	entries := make([]index.Entry, 12)
	for i := range entries {
		vec := make([]float32, 4)
		vec[i%4] = float32(i + 1)
		entries[i] = index.Entry{
			CanonicalHash: string(rune('a' + i)),
			Embedding:     index.Quantize(vec, 127.0),
		}
	}
	require.NoError(t, idx.BatchInsert(entries))
	require.NotNil(t, idx.ANN())

	require.NoError(t, idx.Upsert(index.Entry{CanonicalHash: "new", Embedding: index.Quantize([]float32{9, 0, 0, 0}, 127.0)}))
	require.NotNil(t, idx.ANN())
}
