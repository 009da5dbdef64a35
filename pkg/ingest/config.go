package ingest

import (
	"github.com/google/uuid"

	"github.com/bravo1goingdark/ucfp/internal/logging"
	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// DefaultNamespace is the fixed UUID namespace this implementation uses for
// UUIDv5 doc_id derivation. It must stay stable across versions of this
// module: changing it changes every derived doc_id.
var DefaultNamespace = uuid.MustParse("c9c30da1-9f1a-5e1e-8c3e-b6a7b6d1f111")

// Config bounds and bundles every ingest-time limit and default.
type Config struct {
	MaxPayloadBytes    int
	MaxNormalizedBytes int
	MaxAttributeBytes  int

	// RequiredFields lists metadata field names ("tenant_id", "doc_id",
	// "original_source") that must be non-empty after sanitization, before
	// defaulting is applied.
	RequiredFields []string

	RejectFutureTimestamps bool
	StripControlChars      bool

	DefaultTenantID string
	UUIDNamespace   uuid.UUID

	Logger logging.Logger
}

// DefaultConfig returns sane ingest limits: 10MiB raw payload, 1MiB
// normalized text, 16KiB of attribute JSON, control-char stripping on, a
// "default" tenant fallback.
func DefaultConfig() Config {
	return Config{
		MaxPayloadBytes:        10 << 20,
		MaxNormalizedBytes:     1 << 20,
		MaxAttributeBytes:      16 << 10,
		RejectFutureTimestamps: false,
		StripControlChars:      true,
		DefaultTenantID:        "default",
		UUIDNamespace:          DefaultNamespace,
		Logger:                 logging.Nop(),
	}
}

// Validate enforces the one cross-field config invariant §4.1 names:
// MaxNormalizedBytes must not exceed MaxPayloadBytes.
func (c Config) Validate() error {
	if c.MaxNormalizedBytes > c.MaxPayloadBytes {
		return ucfperr.New("ingest.Validate", ucfperr.KindInvalidConfig,
			"max_normalized_bytes must be <= max_payload_bytes")
	}
	if c.UUIDNamespace == uuid.Nil {
		return ucfperr.New("ingest.Validate", ucfperr.KindInvalidConfig, "uuid namespace must be set")
	}
	return nil
}

func (c Config) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}

func (c Config) requires(field string) bool {
	for _, f := range c.RequiredFields {
		if f == field {
			return true
		}
	}
	return false
}
