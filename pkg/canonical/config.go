package canonical

import (
	"github.com/bravo1goingdark/ucfp/internal/logging"
	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// Config controls one version of the canonicalization pipeline. Any change
// to its semantics that alters canonical_text or sha256_hex for existing
// inputs must bump Version, since that hash is persisted.
type Config struct {
	// Version is embedded as the big-endian u32 domain-separation prefix of
	// both the identity hash and the per-token hash.
	Version uint32

	// Lowercase applies Unicode case folding before delimiter
	// classification; a single code point may expand to several.
	Lowercase bool

	// StripPunctuation additionally classifies Unicode punctuation
	// categories as delimiters, alongside whitespace.
	StripPunctuation bool

	Logger logging.Logger
}

// DefaultConfig returns the canonicalizer defaults: version 1, lowercase on,
// punctuation kept (not stripped).
func DefaultConfig() Config {
	return Config{
		Version:          1,
		Lowercase:        true,
		StripPunctuation: false,
		Logger:           logging.Nop(),
	}
}

// Validate reports whether the config is internally consistent.
func (c Config) Validate() error {
	if c.Version == 0 {
		return ucfperr.New("canonical.Validate", ucfperr.KindInvalidConfig, "version must be >= 1")
	}
	return nil
}

func (c Config) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}
