package semantic

import (
	"context"
	"math"
)

// LocalModel is the opaque local-inference boundary an ONNXEmbedder
// delegates to. Model file lifecycle and ONNX-runtime internals are out of
// scope for this module; callers supply this function however they load
// and run their model.
type LocalModel func(ctx context.Context, canonicalText string, dim int) ([]float32, error)

// ONNXEmbedder runs a local model and falls back to the fast stub when no
// model is configured or the model call fails, keeping the upstream
// pipeline total.
type ONNXEmbedder struct {
	cfg      Config
	Model    LocalModel
	fallback Embedder
}

func (o *ONNXEmbedder) Embed(ctx context.Context, docID, canonicalText string) (*Embedding, error) {
	dim := o.cfg.Tier.Dimension()
	if o.Model == nil {
		o.cfg.logger().Warn("onnx model unavailable, falling back to fast stub", "doc_id", docID)
		return o.fallback.Embed(ctx, docID, canonicalText)
	}

	vec, err := o.Model(ctx, canonicalText, dim)
	if err != nil || !allFinite(vec) || len(vec) != dim {
		o.cfg.logger().Warn("onnx inference failed, falling back to fast stub", "doc_id", docID, "err", err)
		return o.fallback.Embed(ctx, docID, canonicalText)
	}

	if o.cfg.Normalize {
		l2Normalize(vec)
	}
	return &Embedding{
		DocID:      docID,
		Vector:     vec,
		ModelName:  o.cfg.ModelName,
		Tier:       o.cfg.Tier.String(),
		Dim:        dim,
		Normalized: o.cfg.Normalize,
	}, nil
}

func allFinite(v []float32) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}
