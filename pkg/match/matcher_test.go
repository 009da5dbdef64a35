package match_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bravo1goingdark/ucfp/pkg/canonical"
	"github.com/bravo1goingdark/ucfp/pkg/index"
	"github.com/bravo1goingdark/ucfp/pkg/match"
	"github.com/bravo1goingdark/ucfp/pkg/perceptual"
	"github.com/bravo1goingdark/ucfp/pkg/query"
	"github.com/bravo1goingdark/ucfp/pkg/semantic"
)

func newMatcher(t *testing.T) (*match.Matcher, *index.Index) {
	t.Helper()
	idx, err := index.Open(index.DefaultConfig())
	require.NoError(t, err)

	// The test texts have 3-5 tokens, fewer than the default shingle length.
	perceptualCfg := perceptual.DefaultConfig()
	perceptualCfg.K = 3

	m := &match.Matcher{
		Canonical:  canonical.DefaultConfig(),
		Perceptual: perceptualCfg,
		Embedder:   semantic.New(semantic.DefaultConfig()),
		Index:      idx,
		Query:      query.DefaultConfig(),
	}
	return m, idx
}

func upsertDoc(t *testing.T, idx *index.Index, m *match.Matcher, canonicalHash, text, tenant string) {
	t.Helper()
	doc, err := canonical.Canonicalize(canonicalHash, text, m.Canonical)
	require.NoError(t, err)

	tokenTexts := make([]string, len(doc.Tokens))
	for i, tok := range doc.Tokens {
		tokenTexts[i] = tok.Text
	}
	fp, err := perceptual.Perceptualize(tokenTexts, m.Perceptual)
	require.NoError(t, err)

	emb, err := m.Embedder.Embed(context.Background(), canonicalHash, doc.CanonicalText)
	require.NoError(t, err)

	meta, err := json.Marshal(map[string]string{"tenant": tenant})
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(index.Entry{
		CanonicalHash: doc.SHA256Hex,
		Perceptual:    fp.MinHash,
		Embedding:     index.Quantize(emb.Vector, idx.QuantScale()),
		Metadata:      meta,
	}))
}

func TestMatchDocumentSemanticSelfMatch(t *testing.T) {
	m, idx := newMatcher(t)
	upsertDoc(t, idx, m, "a", "the quick brown fox", "acme")

	hits, err := m.MatchDocument(context.Background(), match.Request{
		TenantID:  "acme",
		QueryText: "the quick brown fox",
		Config: match.Config{
			Mode:             match.ModeSemantic,
			Strategy:         match.Semantic{MinScore: 0},
			MaxResults:       5,
			OversampleFactor: 2.0,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.InDelta(t, 1.0, hits[0].Score, 1e-3)
}

func TestMatchDocumentTenantEnforceFiltersOtherTenants(t *testing.T) {
	m, idx := newMatcher(t)
	upsertDoc(t, idx, m, "a", "the quick brown fox", "other-tenant")

	hits, err := m.MatchDocument(context.Background(), match.Request{
		TenantID:  "acme",
		QueryText: "the quick brown fox",
		Config: match.Config{
			Mode:             match.ModeSemantic,
			Strategy:         match.Semantic{MinScore: 0},
			MaxResults:       5,
			OversampleFactor: 2.0,
			TenantEnforce:    true,
		},
	})
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestMatchDocumentWeightedStrategy(t *testing.T) {
	m, idx := newMatcher(t)
	upsertDoc(t, idx, m, "a", "alpha beta gamma delta", "acme")

	hits, err := m.MatchDocument(context.Background(), match.Request{
		TenantID:  "acme",
		QueryText: "alpha beta gamma delta",
		Config: match.Config{
			Mode:             match.ModeHybrid,
			Strategy:         match.Weighted{SemanticWeight: 0.5, MinOverall: 0.1},
			MaxResults:       5,
			OversampleFactor: 2.0,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
}

func TestMatchDocumentRejectsEmptyTenant(t *testing.T) {
	m, _ := newMatcher(t)
	_, err := m.MatchDocument(context.Background(), match.Request{
		QueryText: "x",
		Config: match.Config{
			Strategy:         match.Semantic{MinScore: 0},
			MaxResults:       1,
			OversampleFactor: 1.0,
		},
	})
	require.Error(t, err)
}

func TestMatchDocumentRejectsSubThresholdOversample(t *testing.T) {
	m, _ := newMatcher(t)
	_, err := m.MatchDocument(context.Background(), match.Request{
		TenantID:  "acme",
		QueryText: "x",
		Config: match.Config{
			Strategy:         match.Semantic{MinScore: 0},
			MaxResults:       1,
			OversampleFactor: 0.5,
		},
	})
	require.Error(t, err)
}

func TestMatchDocumentMaxResultsTruncates(t *testing.T) {
	m, idx := newMatcher(t)
	for i := 0; i < 5; i++ {
		// Distinct texts give distinct canonical hashes, hence five records.
		upsertDoc(t, idx, m, string(rune('a'+i)), "shared text content here "+string(rune('a'+i)), "acme")
	}

	hits, err := m.MatchDocument(context.Background(), match.Request{
		TenantID:  "acme",
		QueryText: "shared text content here",
		Config: match.Config{
			Mode:             match.ModeSemantic,
			Strategy:         match.Semantic{MinScore: 0},
			MaxResults:       2,
			OversampleFactor: 3.0,
		},
	})
	require.NoError(t, err)
	require.LessOrEqual(t, len(hits), 2)
}

func TestMatchDocumentExactStrategyMatchesQueryCanonicalHash(t *testing.T) {
	m, idx := newMatcher(t)
	upsertDoc(t, idx, m, "a", "exact match text", "acme")

	doc, err := canonical.Canonicalize("query", "exact match text", m.Canonical)
	require.NoError(t, err)

	hits, err := m.MatchDocument(context.Background(), match.Request{
		TenantID:           "acme",
		QueryText:          "exact match text",
		QueryCanonicalHash: doc.SHA256Hex,
		Config: match.Config{
			Mode:             match.ModeSemantic,
			Strategy:         match.Exact{},
			MaxResults:       5,
			OversampleFactor: 2.0,
		},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, doc.SHA256Hex, hits[0].CanonicalHash)
	require.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestMatchDocumentAndExprRequiresBothChildren(t *testing.T) {
	m, idx := newMatcher(t)
	upsertDoc(t, idx, m, "a", "alpha beta gamma delta", "acme")

	strategy := match.And{
		L: match.Semantic{MinScore: 0},
		R: match.Perceptual{MinScore: 1.1}, // unreachable threshold
	}
	hits, err := m.MatchDocument(context.Background(), match.Request{
		TenantID:  "acme",
		QueryText: "alpha beta gamma delta",
		Config: match.Config{
			Mode:             match.ModeHybrid,
			Strategy:         strategy,
			MaxResults:       5,
			OversampleFactor: 2.0,
		},
	})
	require.NoError(t, err)
	require.Empty(t, hits)
}
