package index_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bravo1goingdark/ucfp/pkg/index"
)

func TestInvertedIndexAppendAndBucket(t *testing.T) {
	idx := index.NewInvertedIndex()
	idx.Append(1, "a")
	idx.Append(1, "b")
	idx.Append(2, "c")

	require.ElementsMatch(t, []string{"a", "b"}, idx.Bucket(1))
	require.Equal(t, []string{"c"}, idx.Bucket(2))
	require.Empty(t, idx.Bucket(99))
}

func TestInvertedIndexAppendAllSingleLock(t *testing.T) {
	idx := index.NewInvertedIndex()
	idx.AppendAll([]index.InvertedEntry{
		{Hash: 1, CanonicalHash: "a"},
		{Hash: 1, CanonicalHash: "b"},
		{Hash: 2, CanonicalHash: "c"},
	})

	require.ElementsMatch(t, []string{"a", "b"}, idx.Bucket(1))
}

func TestInvertedIndexAllowsDuplicateEntries(t *testing.T) {
	idx := index.NewInvertedIndex()
	idx.Append(1, "a")
	idx.Append(1, "a")

	require.Equal(t, []string{"a", "a"}, idx.Bucket(1))
}

func TestVectorListAppendSnapshotLen(t *testing.T) {
	vl := index.NewVectorList()
	vl.Append(index.VectorEntry{CanonicalHash: "a", Embedding: []int8{1}})
	vl.Append(index.VectorEntry{CanonicalHash: "b", Embedding: []int8{2}})

	require.Equal(t, 2, vl.Len())
	snap := vl.Snapshot()
	require.Len(t, snap, 2)

	snap[0].CanonicalHash = "mutated"
	require.Equal(t, "a", vl.Snapshot()[0].CanonicalHash)
}

func TestQuantizeClampsToInt8Range(t *testing.T) {
	q := index.Quantize([]float32{2.0, -2.0, 0.5}, 127.0)
	require.Equal(t, int8(127), q[0])
	require.Equal(t, int8(-128), q[1])
}

func TestQuantizeDequantizeRoundTripIsApproximate(t *testing.T) {
	original := []float32{0.5, -0.25, 0.1}
	q := index.Quantize(original, 127.0)
	deq := index.Dequantize(q, 127.0)
	for i := range original {
		require.InDelta(t, original[i], deq[i], 0.01)
	}
}
