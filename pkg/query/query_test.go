package query_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bravo1goingdark/ucfp/internal/codec"
	"github.com/bravo1goingdark/ucfp/pkg/index"
	"github.com/bravo1goingdark/ucfp/pkg/query"
)

func newTestIndex(t *testing.T) *index.Index {
	t.Helper()
	cfg := index.DefaultConfig()
	idx, err := index.Open(cfg)
	require.NoError(t, err)
	return idx
}

func TestPerceptualSearchJaccardScore(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(index.Entry{
		CanonicalHash: "candidate",
		Perceptual:    []uint64{4, 2, 8, 9},
	}))

	hits, err := query.PerceptualSearch(idx, []uint64{1, 2, 3, 4}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "candidate", hits[0].CanonicalHash)
	require.InDelta(t, 2.0/6.0, hits[0].Score, 1e-9)
}

func TestPerceptualSearchTopKZeroShortCircuits(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Upsert(index.Entry{CanonicalHash: "a", Perceptual: []uint64{1}}))

	hits, err := query.PerceptualSearch(idx, []uint64{1}, 0)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestPerceptualSearchSkipsStaleInvertedPointers(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Upsert(index.Entry{CanonicalHash: "a", Perceptual: []uint64{1, 2}}))
	require.NoError(t, idx.Delete("a"))

	hits, err := query.PerceptualSearch(idx, []uint64{1, 2}, 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSemanticSearchLinearScanTieBreak(t *testing.T) {
	idx := newTestIndex(t)

	entries := []index.Entry{
		{CanonicalHash: "doc-a", Embedding: []int8{5, 0, 0, 0}},
		{CanonicalHash: "doc-b", Embedding: []int8{5, 0, 0, 0}},
		{CanonicalHash: "doc-c", Embedding: []int8{1, 1, 1, 1}},
	}
	for _, e := range entries {
		require.NoError(t, idx.Upsert(e))
	}

	hits, err := query.SemanticSearch(idx, []int8{5, 0, 0, 0}, 3, query.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, hits, 3)
	require.Equal(t, []string{"doc-a", "doc-b", "doc-c"}, []string{hits[0].CanonicalHash, hits[1].CanonicalHash, hits[2].CanonicalHash})
	require.InDelta(t, hits[0].Score, hits[1].Score, 1e-9)
	require.Greater(t, hits[1].Score, hits[2].Score)
}

func TestSemanticSearchSelfSimilarityIsMaximal(t *testing.T) {
	idx := newTestIndex(t)
	embedding := index.Quantize([]float32{0.1, 0.2, 0.3, 0.4}, 127.0)
	require.NoError(t, idx.Upsert(index.Entry{CanonicalHash: "self", Embedding: embedding}))

	hits, err := query.SemanticSearch(idx, embedding, 1, query.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestSemanticSearchUsesANNAboveThreshold(t *testing.T) {
	idx := newTestIndex(t)
	for i := 0; i < 20; i++ {
		vec := make([]float32, 8)
		vec[i%8] = float32(i + 1)
		require.NoError(t, idx.Upsert(index.Entry{
			CanonicalHash: string(rune('a' + i)),
			Embedding:     index.Quantize(vec, 127.0),
		}))
	}

	hits, err := query.SemanticSearch(idx, index.Quantize([]float32{10, 0, 0, 0, 0, 0, 0, 0}, 127.0), 5, query.DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.LessOrEqual(t, len(hits), 5)
}

func TestSemanticSearchEmptyIndex(t *testing.T) {
	idx := newTestIndex(t)
	hits, err := query.SemanticSearch(idx, []int8{1, 2, 3}, 5, query.DefaultConfig())
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestPerceptualSearchRecordRoundTripsMetadata(t *testing.T) {
	idx := newTestIndex(t)
	meta := []byte(`{"tenant":"acme"}`)
	require.NoError(t, idx.Upsert(index.Entry{
		CanonicalHash: "a",
		Perceptual:    []uint64{1, 2, 3},
		Metadata:      meta,
	}))

	record, ok, err := idx.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, codec.SchemaVersion, record.SchemaVersion)
	require.JSONEq(t, string(meta), string(record.Metadata))
}
