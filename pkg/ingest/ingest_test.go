package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

func TestIngestNormalizesTextAndDerivesDocID(t *testing.T) {
	cfg := DefaultConfig()
	raw := RawIngestRecord{
		ID:     "rec-1",
		Source: Source{Kind: SourceRawText},
		Metadata: Metadata{
			TenantID: "tenant-a",
		},
		Payload: &Payload{Kind: PayloadText, Text: "  a  b  "},
	}

	out, err := Ingest(raw, cfg)
	require.NoError(t, err)
	require.Equal(t, "a b", out.NormalizedPayload.Text)
	require.Equal(t, "tenant-a", out.TenantID)
	require.NotEmpty(t, out.DocID)

	out2, err := Ingest(raw, cfg)
	require.NoError(t, err)
	require.Equal(t, out.DocID, out2.DocID, "doc_id derivation must be deterministic")
}

func TestIngestMissingTextPayloadFails(t *testing.T) {
	cfg := DefaultConfig()
	raw := RawIngestRecord{ID: "rec-2", Source: Source{Kind: SourceURL}}

	_, err := Ingest(raw, cfg)
	require.Error(t, err)
	require.True(t, ucfperr.Is(err, ucfperr.KindMissingPayload))
}

func TestIngestAPISourceAllowsNoPayload(t *testing.T) {
	cfg := DefaultConfig()
	raw := RawIngestRecord{ID: "rec-3", Source: Source{Kind: SourceAPI}}

	out, err := Ingest(raw, cfg)
	require.NoError(t, err)
	require.Nil(t, out.NormalizedPayload)
}

func TestIngestRejectsInvalidUTF8TextBytes(t *testing.T) {
	cfg := DefaultConfig()
	raw := RawIngestRecord{
		ID:      "rec-4",
		Source:  Source{Kind: SourceFile, Filename: "x.txt"},
		Payload: &Payload{Kind: PayloadTextBytes, Bytes: []byte{0xff, 0xfe, 0x00, 0x01}},
	}
	_, err := Ingest(raw, cfg)
	require.Error(t, err)
}

func TestIngestEmptyBinaryPayloadFails(t *testing.T) {
	cfg := DefaultConfig()
	raw := RawIngestRecord{
		ID:      "rec-5",
		Source:  Source{Kind: SourceFile},
		Payload: &Payload{Kind: PayloadBinary, Bytes: []byte{}},
	}
	_, err := Ingest(raw, cfg)
	require.Error(t, err)
}

func TestIngestPayloadTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPayloadBytes = 4
	cfg.MaxNormalizedBytes = 4 // keep the config valid so the size check is reached
	raw := RawIngestRecord{
		ID:      "rec-6",
		Source:  Source{Kind: SourceRawText},
		Payload: &Payload{Kind: PayloadText, Text: "this is way too long"},
	}
	_, err := Ingest(raw, cfg)
	require.Error(t, err)
	require.True(t, ucfperr.Is(err, ucfperr.KindPayloadTooLarge))
}

func TestIngestRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNormalizedBytes = cfg.MaxPayloadBytes + 1
	_, err := Ingest(RawIngestRecord{ID: "x", Source: Source{Kind: SourceAPI}}, cfg)
	require.Error(t, err)
}
