// Package semantic produces dense vector embeddings behind an opaque
// embed(text) -> R^d boundary, with a deterministic fast-stub mode as the
// one mandatory implementation and optional onnx/api modes that fall back
// to the stub on failure.
package semantic

import (
	"github.com/bravo1goingdark/ucfp/internal/logging"
	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// Tier selects the declared embedding dimension.
type Tier int

const (
	TierFast Tier = iota
	TierBalanced
	TierAccurate
)

func (t Tier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierBalanced:
		return "balanced"
	case TierAccurate:
		return "accurate"
	default:
		return "unknown"
	}
}

// Dimension returns the declared vector dimension for the tier: fast=384,
// balanced=768, accurate=1024.
func (t Tier) Dimension() int {
	switch t {
	case TierFast:
		return 384
	case TierBalanced:
		return 768
	case TierAccurate:
		return 1024
	default:
		return 384
	}
}

// Mode selects which embedder backend produces the vector.
type Mode int

const (
	ModeFast Mode = iota
	ModeONNX
	ModeAPI
)

func (m Mode) String() string {
	switch m {
	case ModeFast:
		return "fast"
	case ModeONNX:
		return "onnx"
	case ModeAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Config bundles the embedder selection and its resilience policy.
type Config struct {
	Mode      Mode
	Tier      Tier
	ModelName string
	Normalize bool

	Resilience ResilienceConfig

	Logger logging.Logger
}

// DefaultConfig returns fast mode, fast tier, L2-normalized output.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeFast,
		Tier:       TierFast,
		ModelName:  "ucfp-fast-stub",
		Normalize:  true,
		Resilience: DefaultResilienceConfig(),
		Logger:     logging.Nop(),
	}
}

func (c Config) Validate() error {
	if c.Tier.Dimension() <= 0 {
		return ucfperr.New("semantic.Validate", ucfperr.KindInvalidConfig, "tier must have a positive dimension")
	}
	return c.Resilience.Validate()
}

func (c Config) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}
