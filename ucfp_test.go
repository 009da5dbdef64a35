package ucfp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bravo1goingdark/ucfp"
	"github.com/bravo1goingdark/ucfp/pkg/canonical"
	"github.com/bravo1goingdark/ucfp/pkg/ingest"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, ucfp.DefaultConfig().Validate())
}

func TestIngestCanonicalizePerceptualizePipeline(t *testing.T) {
	cfg := ucfp.DefaultConfig()
	cfg.Perceptual.K = 2 // the text below has two tokens, fewer than the default k

	record, err := ucfp.Ingest(ingest.RawIngestRecord{
		ID:     "rec-1",
		Source: ingest.Source{Kind: ingest.SourceRawText},
		Metadata: ingest.Metadata{
			TenantID: "acme",
			DocID:    "doc-1",
		},
		Payload: &ingest.Payload{Kind: ingest.PayloadText, Text: "  Hello   World  "},
	}, cfg.Ingest)
	require.NoError(t, err)
	require.Equal(t, "hello world", canonicalizeText(t, record.NormalizedPayload.Text))

	doc, err := ucfp.Canonicalize(record.DocID, record.NormalizedPayload.Text, cfg.Canonical)
	require.NoError(t, err)
	require.NotEmpty(t, doc.SHA256Hex)

	tokenTexts := make([]string, len(doc.Tokens))
	for i, tok := range doc.Tokens {
		tokenTexts[i] = tok.Text
	}
	fp, err := ucfp.PerceptualizeTokens(tokenTexts, cfg.Perceptual)
	require.NoError(t, err)
	require.Len(t, fp.MinHash, cfg.Perceptual.SignatureLen())
}

func canonicalizeText(t *testing.T, text string) string {
	t.Helper()
	doc, err := canonical.Canonicalize("x", text, canonical.DefaultConfig())
	require.NoError(t, err)
	return doc.CanonicalText
}

func TestOpenIndexAndNewMatcher(t *testing.T) {
	cfg := ucfp.DefaultConfig()
	idx, err := ucfp.OpenIndex(cfg.Index)
	require.NoError(t, err)

	embedder := ucfp.Embedder(cfg.Semantic)
	m := ucfp.NewMatcher(idx, cfg.Canonical, cfg.Perceptual, embedder, cfg.Query)
	require.NotNil(t, m)
}
