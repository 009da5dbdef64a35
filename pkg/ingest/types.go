// Package ingest validates and normalizes raw documents before they enter
// the canonicalization pipeline: payload shape by source, metadata
// sanitization, and document-ID derivation.
package ingest

import (
	"encoding/json"
	"time"
)

// SourceKind tags the variant of RawIngestRecord.Source.
type SourceKind int

const (
	SourceRawText SourceKind = iota
	SourceURL
	SourceFile
	SourceAPI
)

func (k SourceKind) String() string {
	switch k {
	case SourceRawText:
		return "raw_text"
	case SourceURL:
		return "url"
	case SourceFile:
		return "file"
	case SourceAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Source is the tagged-variant source descriptor: RawText | Url | File | Api.
type Source struct {
	Kind SourceKind

	URL string // set when Kind == SourceURL

	Filename    string // set when Kind == SourceFile
	ContentType string // optional, set when Kind == SourceFile
}

// PayloadKind tags the variant of Payload / NormalizedPayload.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadText
	PayloadTextBytes
	PayloadBinary
)

// Payload is the raw, not-yet-normalized input payload: Text | TextBytes |
// Binary.
type Payload struct {
	Kind  PayloadKind
	Text  string // set when Kind == PayloadText
	Bytes []byte // set when Kind == PayloadTextBytes or PayloadBinary
}

// Metadata carries the caller-supplied, pre-sanitization metadata fields.
type Metadata struct {
	TenantID       string
	DocID          string
	ReceivedAt     time.Time // zero value means "not supplied"
	OriginalSource string
	Attributes     json.RawMessage // opaque JSON, nil means absent
}

// RawIngestRecord is the input to Ingest.
type RawIngestRecord struct {
	ID       string
	Source   Source
	Metadata Metadata
	Payload  *Payload // nil means absent
}

// NormalizedPayload is the ingest-normalized payload: only Text or Binary
// variants are possible once normalization succeeds.
type NormalizedPayload struct {
	Kind  PayloadKind
	Text  string
	Bytes []byte
}

// CanonicalIngestRecord is the output of Ingest. TenantID, DocID and
// ReceivedAt are always populated.
type CanonicalIngestRecord struct {
	ID                string
	TenantID          string
	DocID             string
	ReceivedAt        time.Time
	OriginalSource    string
	Attributes        json.RawMessage
	NormalizedPayload *NormalizedPayload // nil when the source carried none (Api with no payload)
}
