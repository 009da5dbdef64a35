// Package codec implements the record codec component (§4.5): a
// deterministic compact binary encoding of an IndexRecord, with optional
// Zstd compression layered on top, and schema-version-checked decoding.
package codec

import "encoding/json"

// SchemaVersion is the current persisted wire-format version. Changing the
// compact encoding or reordering its fields requires bumping this and
// providing a read-compat decode path.
const SchemaVersion uint16 = 1

// IndexRecord is the stored unit (§3). Perceptual is the MinHash signature,
// never the winnowed shingles; Embedding is the i8-quantized vector.
type IndexRecord struct {
	SchemaVersion uint16
	CanonicalHash string
	Perceptual    []uint64
	Embedding     []int8
	Metadata      json.RawMessage
}
