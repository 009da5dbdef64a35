package perceptual

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShingleHashesCountAndDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 3
	tokens := []string{"a", "b", "c", "d", "e"}

	a, err := shingleHashes(tokens, cfg)
	require.NoError(t, err)
	require.Len(t, a, 5-3+1)

	// Every rolling value equals the direct polynomial evaluation of its window.
	base := uint64(1_000_003) ^ splitmix64(cfg.Seed)
	for i := range a {
		var direct uint64
		for j := 0; j < cfg.K; j++ {
			direct += tokenHash64(tokens[i+j], cfg.Seed) * pow64(base, cfg.K-1-j)
		}
		require.Equal(t, direct, a[i])
	}

	b, err := shingleHashes(tokens, cfg)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestShingleHashesChangeWithSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 3
	tokens := []string{"a", "b", "c", "d", "e"}

	a, err := shingleHashes(tokens, cfg)
	require.NoError(t, err)

	cfg.Seed = cfg.Seed + 1
	b, err := shingleHashes(tokens, cfg)
	require.NoError(t, err)

	for i := range a {
		require.NotEqual(t, a[i], b[i])
	}
}

func TestShingleHashesNotEnoughTokens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 10
	_, err := shingleHashes([]string{"a", "b"}, cfg)
	require.Error(t, err)
}

func TestWinnowPicksMinimumAndRightmostTie(t *testing.T) {
	hashes := []uint64{5, 1, 1, 3, 1, 9}
	result := winnow(hashes, 3)
	require.NotEmpty(t, result)

	// No two consecutive emissions repeat the same winning index.
	for i := 1; i < len(result); i++ {
		require.NotEqual(t, result[i-1].StartIdx, result[i].StartIdx)
	}

	// Ties resolve to the rightmost index holding the window minimum: the
	// windows [0..2] and [1..3] pick index 2, the windows [2..4] and [3..5]
	// pick index 4.
	require.Equal(t, []WinnowedShingle{{Hash: 1, StartIdx: 2}, {Hash: 1, StartIdx: 4}}, result)

	// Every emitted hash is no greater than any hash in the size-3 window
	// ending at its index.
	for _, w := range result {
		start := w.StartIdx - 2
		if start < 0 {
			start = 0
		}
		end := w.StartIdx
		if end >= len(hashes) {
			end = len(hashes) - 1
		}
		for i := start; i <= end; i++ {
			require.True(t, hashes[i] >= w.Hash || i == w.StartIdx)
		}
	}
}

func TestWinnowShortStreamFallsBackToGlobalMin(t *testing.T) {
	hashes := []uint64{7, 2, 9}
	result := winnow(hashes, 10)
	require.Len(t, result, 1)
	require.Equal(t, uint64(2), result[0].Hash)
	require.Equal(t, 1, result[0].StartIdx)
}

func TestPerceptualizePipelineSucceeds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 3
	tokens := []string{"the", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog"}

	fp, err := Perceptualize(tokens, cfg)
	require.NoError(t, err)
	require.Equal(t, 3, fp.Meta.K)
	require.Len(t, fp.MinHash, cfg.Bands*cfg.RowsPerBand)

	fp2, err := Perceptualize(tokens, cfg)
	require.NoError(t, err)
	require.Equal(t, fp.MinHash, fp2.MinHash)
}

func TestMinHashParallelMatchesSequential(t *testing.T) {
	universe := uniqueSorted([]uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	seq := minHashSignature(universe, 42, 128, false)
	par := minHashSignature(universe, 42, 128, true)
	require.Equal(t, seq, par)
}

func TestMinHashEmptyUniverseIsAllMax(t *testing.T) {
	sig := minHashSignature(nil, 42, 8, false)
	for _, v := range sig {
		require.Equal(t, ^uint64(0), v)
	}
}

func TestUniqueSortedDedupesAndSorts(t *testing.T) {
	got := uniqueSorted([]uint64{5, 1, 1, 3, 5, 2})
	require.Equal(t, []uint64{1, 2, 3, 5}, got)
}
