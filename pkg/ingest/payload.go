package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// sourceRequiresPayload reports whether the given source kind requires any
// payload at all (text or binary).
func sourceRequiresPayload(k SourceKind) bool {
	switch k {
	case SourceRawText, SourceURL, SourceFile:
		return true
	default: // SourceAPI
		return false
	}
}

// sourceRequiresTextPayload reports whether the given source kind requires
// specifically a text-shaped payload (Text or TextBytes).
func sourceRequiresTextPayload(k SourceKind) bool {
	switch k {
	case SourceRawText, SourceURL:
		return true
	default:
		return false
	}
}

// checkPayloadRequirement validates payload presence/shape against the
// source kind, per §3 invariant (i).
func checkPayloadRequirement(src Source, payload *Payload) error {
	const op = "ingest.checkPayloadRequirement"

	hasPayload := payload != nil && payload.Kind != PayloadNone
	if sourceRequiresTextPayload(src.Kind) {
		if !hasPayload || (payload.Kind != PayloadText && payload.Kind != PayloadTextBytes) {
			return ucfperr.New(op, ucfperr.KindMissingPayload, "source requires a text payload")
		}
		return nil
	}
	if sourceRequiresPayload(src.Kind) {
		if !hasPayload {
			return ucfperr.New(op, ucfperr.KindMissingPayload, "source requires a payload")
		}
		return nil
	}
	return nil
}

// rawPayloadSize returns the byte length ingest charges against
// max_payload_bytes, before any normalization.
func rawPayloadSize(payload *Payload) int {
	if payload == nil {
		return 0
	}
	switch payload.Kind {
	case PayloadText:
		return len(payload.Text)
	case PayloadTextBytes, PayloadBinary:
		return len(payload.Bytes)
	default:
		return 0
	}
}

// normalizeTextPayload implements §4.1 step 6's text branch: UTF-8 decode,
// NUL/control-character rejection, whitespace collapsing, emptiness and
// size checks.
func normalizeTextPayload(kind PayloadKind, text string, raw []byte, cfg Config) (*NormalizedPayload, error) {
	const op = "ingest.normalizeTextPayload"

	var s string
	switch kind {
	case PayloadText:
		s = text
	case PayloadTextBytes:
		if !utf8.Valid(raw) {
			return nil, ucfperr.New(op, ucfperr.KindInvalidUTF8, "text_bytes payload is not valid utf-8")
		}
		s = string(raw)
	default:
		return nil, ucfperr.New(op, ucfperr.KindInvalidUTF8, "not a text payload kind")
	}

	if err := validateTextContent(op, s); err != nil {
		return nil, err
	}

	collapsed := collapseWhitespace(s)
	if collapsed == "" {
		return nil, ucfperr.New(op, ucfperr.KindEmptyNormalizedText, "normalized text is empty")
	}
	if len(collapsed) > cfg.MaxNormalizedBytes {
		return nil, ucfperr.New(op, ucfperr.KindPayloadTooLarge, "normalized text exceeds max_normalized_bytes")
	}

	return &NormalizedPayload{Kind: PayloadText, Text: collapsed}, nil
}

// validateTextContent rejects NUL bytes and text whose control-character
// ratio (excluding \t\n\r) exceeds 10%.
func validateTextContent(op, s string) error {
	if strings.IndexByte(s, 0x00) >= 0 {
		return ucfperr.New(op, ucfperr.KindInvalidUTF8, "text payload contains a NUL byte")
	}

	total := 0
	control := 0
	for _, r := range s {
		total++
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			control++
		}
	}
	if total > 0 && control*10 > total {
		return ucfperr.New(op, ucfperr.KindInvalidUTF8, "text payload has too high a control-character ratio")
	}
	return nil
}

// collapseWhitespace splits on any run of Unicode whitespace and rejoins
// with a single ASCII space, trimming leading/trailing runs.
func collapseWhitespace(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// normalizeBinaryPayload implements §4.1 step 6's binary branch: reject
// empty payloads, and apply the bad-binary heuristic for payloads over
// 1024 bytes (more than len/4 bytes in {0x00, 0xFE, 0xFF}).
func normalizeBinaryPayload(raw []byte) (*NormalizedPayload, error) {
	const op = "ingest.normalizeBinaryPayload"

	if len(raw) == 0 {
		return nil, ucfperr.New(op, ucfperr.KindEmptyBinaryPayload, "binary payload is empty")
	}
	if len(raw) > 1024 {
		bad := 0
		for _, b := range raw {
			if b == 0x00 || b == 0xFE || b == 0xFF {
				bad++
			}
		}
		if bad > len(raw)/4 {
			return nil, ucfperr.New(op, ucfperr.KindInvalidMetadata, "binary payload fails the bad-binary heuristic")
		}
	}
	return &NormalizedPayload{Kind: PayloadBinary, Bytes: raw}, nil
}
