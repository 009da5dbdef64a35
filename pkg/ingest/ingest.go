package ingest

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// Ingest validates and normalizes a RawIngestRecord into a
// CanonicalIngestRecord, failing on the first violation encountered, in the
// order laid out by §4.1.
func Ingest(raw RawIngestRecord, cfg Config) (*CanonicalIngestRecord, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	// 1. Sanitize id.
	id := sanitizeField(raw.ID, true)
	if id == "" {
		return nil, ucfperr.New("ingest.Ingest", ucfperr.KindInvalidMetadata, "id is empty after sanitization")
	}

	// 2. Payload-requirement check by source.
	if err := checkPayloadRequirement(raw.Source, raw.Payload); err != nil {
		return nil, err
	}

	// 3. Raw-size check.
	if size := rawPayloadSize(raw.Payload); size > cfg.MaxPayloadBytes {
		return nil, ucfperr.New("ingest.Ingest", ucfperr.KindPayloadTooLarge, "raw payload exceeds max_payload_bytes")
	}

	// 4. Metadata sanitization & defaulting checks.
	tenantID := sanitizeField(raw.Metadata.TenantID, cfg.StripControlChars)
	docID := sanitizeField(raw.Metadata.DocID, cfg.StripControlChars)
	originalSource := sanitizeField(raw.Metadata.OriginalSource, cfg.StripControlChars)

	if cfg.requires("tenant_id") && tenantID == "" {
		return nil, ucfperr.New("ingest.Ingest", ucfperr.KindInvalidMetadata, "tenant_id is required")
	}
	if cfg.requires("doc_id") && docID == "" {
		return nil, ucfperr.New("ingest.Ingest", ucfperr.KindInvalidMetadata, "doc_id is required")
	}
	if cfg.requires("original_source") && originalSource == "" {
		return nil, ucfperr.New("ingest.Ingest", ucfperr.KindInvalidMetadata, "original_source is required")
	}

	attrs := raw.Metadata.Attributes
	if attrs != nil {
		if !json.Valid(attrs) {
			return nil, ucfperr.New("ingest.Ingest", ucfperr.KindInvalidMetadata, "attributes is not valid JSON")
		}
		if len(attrs) > cfg.MaxAttributeBytes {
			return nil, ucfperr.New("ingest.Ingest", ucfperr.KindInvalidMetadata, "attributes exceeds max_attribute_bytes")
		}
	}

	if cfg.RejectFutureTimestamps && !raw.Metadata.ReceivedAt.IsZero() && raw.Metadata.ReceivedAt.After(time.Now()) {
		return nil, ucfperr.New("ingest.Ingest", ucfperr.KindInvalidMetadata, "received_at is in the future")
	}

	// 5. Apply defaults.
	if tenantID == "" {
		tenantID = cfg.DefaultTenantID
	}
	if docID == "" {
		docID = deriveDocID(cfg.UUIDNamespace, tenantID, id)
	}
	receivedAt := raw.Metadata.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	// 6. Payload normalization.
	var normalized *NormalizedPayload
	if raw.Payload != nil {
		var err error
		switch raw.Payload.Kind {
		case PayloadText:
			normalized, err = normalizeTextPayload(PayloadText, raw.Payload.Text, nil, cfg)
		case PayloadTextBytes:
			normalized, err = normalizeTextPayload(PayloadTextBytes, "", raw.Payload.Bytes, cfg)
		case PayloadBinary:
			normalized, err = normalizeBinaryPayload(raw.Payload.Bytes)
		}
		if err != nil {
			return nil, err
		}
	}

	// 7. RawText/Url sources must end up with a text canonical payload.
	if sourceRequiresTextPayload(raw.Source.Kind) {
		if normalized == nil || normalized.Kind != PayloadText {
			return nil, ucfperr.New("ingest.Ingest", ucfperr.KindMissingPayload, "source requires a normalized text payload")
		}
	}

	log.Debug("ingested record", "id", id, "tenant_id", tenantID, "doc_id", docID, "source", raw.Source.Kind.String())

	return &CanonicalIngestRecord{
		ID:                id,
		TenantID:          tenantID,
		DocID:             docID,
		ReceivedAt:        receivedAt,
		OriginalSource:    originalSource,
		Attributes:        attrs,
		NormalizedPayload: normalized,
	}, nil
}

// deriveDocID computes UUIDv5(namespace, tenant_id || 0x00 || record_id).
// The null separator is required for determinism: without it, tenant "ab" +
// id "c" and tenant "a" + id "bc" would collide.
func deriveDocID(namespace uuid.UUID, tenantID, recordID string) string {
	data := make([]byte, 0, len(tenantID)+1+len(recordID))
	data = append(data, tenantID...)
	data = append(data, 0x00)
	data = append(data, recordID...)
	return uuid.NewSHA1(namespace, data).String()
}
