// Package perceptual computes near-duplicate-detection fingerprints: a
// rolling-hash shingle stream, winnowed down via a monotonic deque, then
// folded into a fixed-length MinHash signature.
package perceptual

import (
	"github.com/bravo1goingdark/ucfp/internal/logging"
	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// Config controls one version of the perceptual pipeline. Any change to the
// rolling-hash base, the slot-key schedule, or the finalizer constants is a
// breaking change and must bump Version.
type Config struct {
	K             int // shingle length, >= 1
	W             int // winnow window, >= 1
	Bands         int // >= 1
	RowsPerBand   int // >= 1
	Seed          uint64
	Version       uint32
	UseParallel   bool
	IncludeIntermediates bool

	Logger logging.Logger
}

// DefaultConfig returns k=5, w=4, 16 bands of 8 rows (a 128-value
// signature), sequential execution, intermediates discarded.
func DefaultConfig() Config {
	return Config{
		K:                    5,
		W:                    4,
		Bands:                16,
		RowsPerBand:          8,
		Seed:                 0x5bd1e995,
		Version:              1,
		UseParallel:          false,
		IncludeIntermediates: false,
		Logger:               logging.Nop(),
	}
}

// SignatureLen is bands * rows_per_band, the fixed MinHash signature
// length.
func (c Config) SignatureLen() int { return c.Bands * c.RowsPerBand }

// Validate enforces the config bounds named in §4.3.
func (c Config) Validate() error {
	const op = "perceptual.Validate"
	if c.K < 1 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "k must be >= 1")
	}
	if c.W < 1 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "w must be >= 1")
	}
	if c.Bands < 1 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "bands must be >= 1")
	}
	if c.RowsPerBand < 1 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "rows_per_band must be >= 1")
	}
	if c.Version < 1 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "version must be >= 1")
	}
	return nil
}

func (c Config) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}
