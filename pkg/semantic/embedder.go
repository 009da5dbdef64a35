package semantic

import (
	"context"
	"math"
)

// Embedding is the output of an Embedder: a dense vector for a canonical
// text plus the provenance needed to judge compatibility with other
// embeddings.
type Embedding struct {
	DocID      string    `json:"doc_id"`
	Vector     []float32 `json:"vector"`
	ModelName  string    `json:"model_name"`
	Tier       string    `json:"tier"`
	Dim        int       `json:"dim"`
	Normalized bool      `json:"normalized"`
}

// Embedder is the opaque text -> vector boundary. Every implementation must
// return a finite vector of the declared dimension.
type Embedder interface {
	Embed(ctx context.Context, docID, canonicalText string) (*Embedding, error)
}

// New builds the Embedder selected by cfg.Mode, wrapping onnx/api modes so
// that a failure transparently falls back to the fast stub rather than
// propagating, per §4.4.
func New(cfg Config) Embedder {
	fast := &FastEmbedder{cfg: cfg}
	switch cfg.Mode {
	case ModeONNX:
		return &ONNXEmbedder{cfg: cfg, fallback: fast}
	case ModeAPI:
		return &APIEmbedder{cfg: cfg, fallback: fast, breaker: breakerFor(cfg.ModelName), limiter: limiterFor(cfg.ModelName, cfg.Resilience)}
	default:
		return fast
	}
}

func l2Normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(sumSq))
	for i := range v {
		v[i] *= norm
	}
}
