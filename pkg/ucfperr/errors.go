// Package ucfperr defines the single error taxonomy shared by every ucfp
// component: a typed, wrapped error carrying an operation name and a kind,
// plus sentinel Kind values for errors.Is matching. Every component wraps
// its failures with Wrap(op, kind, cause) instead of returning bare errors.
package ucfperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into one of the taxonomy's variants. Kind values
// are comparable and safe to use with errors.Is via Error.Is.
type Kind int

const (
	// Validation errors: fail fast, no recovery.
	KindMissingPayload Kind = iota
	KindEmptyBinaryPayload
	KindEmptyNormalizedText
	KindInvalidUTF8
	KindPayloadTooLarge
	KindInvalidMetadata
	KindInvalidConfig

	// Algorithmic errors.
	KindNotEnoughTokens
	KindDimensionMismatch

	// Storage errors.
	KindBackend
	KindEncode
	KindDecode
	KindCompression

	// Pipeline-stage attribution, used by the Matcher to report which stage
	// of ingest -> canonical -> perceptual -> semantic -> index failed.
	KindIngest
	KindCanonical
	KindPerceptual
	KindSemantic
	KindIndex
)

func (k Kind) String() string {
	switch k {
	case KindMissingPayload:
		return "missing_payload"
	case KindEmptyBinaryPayload:
		return "empty_binary_payload"
	case KindEmptyNormalizedText:
		return "empty_normalized_text"
	case KindInvalidUTF8:
		return "invalid_utf8"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindInvalidMetadata:
		return "invalid_metadata"
	case KindInvalidConfig:
		return "invalid_config"
	case KindNotEnoughTokens:
		return "not_enough_tokens"
	case KindDimensionMismatch:
		return "dimension_mismatch"
	case KindBackend:
		return "backend"
	case KindEncode:
		return "encode"
	case KindDecode:
		return "decode"
	case KindCompression:
		return "compression"
	case KindIngest:
		return "ingest"
	case KindCanonical:
		return "canonical"
	case KindPerceptual:
		return "perceptual"
	case KindSemantic:
		return "semantic"
	case KindIndex:
		return "index"
	default:
		return "unknown"
	}
}

// Error is the taxonomy's single error type: an operation name, a Kind, and
// the wrapped cause. It satisfies errors.Is/errors.As/errors.Unwrap.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("ucfp: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("ucfp: %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is matches both against sentinel Kind-tagged errors and the wrapped cause.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return errors.Is(e.Err, target)
}

// Wrap builds a taxonomy Error. A nil cause yields a nil error, mirroring
// the teacher's wrapError helper.
func Wrap(op string, kind Kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: cause}
}

// New builds a taxonomy Error from a plain message, for validation failures
// that have no underlying cause to wrap.
func New(op string, kind Kind, msg string) error {
	return &Error{Op: op, Kind: kind, Err: errors.New(msg)}
}

// Newf is New with formatting.
func Newf(op string, kind Kind, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Stage wraps an already-produced error under one of the pipeline-stage
// kinds (Ingest/Canonical/Perceptual/Semantic/Index), preserving the
// original error as the cause so its own Kind is still reachable via
// errors.As, while the outer Kind records which pipeline stage failed.
func Stage(op string, kind Kind, cause error) error {
	return Wrap(op, kind, cause)
}

// KindOf extracts the Kind of err, if err (or something it wraps) is an
// *Error; ok is false otherwise.
func KindOf(err error) (k Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err's Kind equals k, looking through wrapped errors.
func Is(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// Sentinel errors for conditions that are not produced by a specific
// component operation but are useful for errors.Is comparisons elsewhere
// in the module (e.g. the storage backend and index engine).
var (
	ErrNotFound     = errors.New("ucfp: key not found")
	ErrClosed       = errors.New("ucfp: backend is closed")
	ErrStalePointer = errors.New("ucfp: stale secondary-index pointer")
)
