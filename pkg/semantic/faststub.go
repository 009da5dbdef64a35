package semantic

import (
	"context"
	"math"

	"github.com/cespare/xxhash/v2"
)

// FastEmbedder is the one mandatory embedder mode: a deterministic stub
// derived purely from the canonical text's hash, with no model dependency.
type FastEmbedder struct {
	cfg Config
}

// Embed computes v_i = sin((h >> (i mod 32)) * 1e-4) where h is the
// xxhash64 of the canonical text, for i in [0, dim).
func (f *FastEmbedder) Embed(_ context.Context, docID, canonicalText string) (*Embedding, error) {
	dim := f.cfg.Tier.Dimension()
	h := xxhash.Sum64String(canonicalText)

	vec := make([]float32, dim)
	for i := 0; i < dim; i++ {
		shift := uint(i % 32)
		vec[i] = float32(math.Sin(float64(h>>shift) * 1e-4))
	}
	if f.cfg.Normalize {
		l2Normalize(vec)
	}

	return &Embedding{
		DocID:      docID,
		Vector:     vec,
		ModelName:  f.cfg.ModelName,
		Tier:       f.cfg.Tier.String(),
		Dim:        dim,
		Normalized: f.cfg.Normalize,
	}, nil
}
