package semantic

import (
	"context"
	"errors"
)

// RemoteCall is the opaque remote-embedding boundary an APIEmbedder
// delegates to. HTTP client wiring is an external collaborator's concern;
// callers supply this function however they talk to their provider.
type RemoteCall func(ctx context.Context, canonicalText string, dim int) ([]float32, error)

var errRateLimited = errors.New("semantic: api embedder rate limited")
var errBreakerOpen = errors.New("semantic: api embedder circuit open")

// APIEmbedder calls a remote embedding provider behind a circuit breaker,
// rate limiter and retry-with-backoff, falling back to the fast stub on
// any failure so the upstream pipeline stays total (§4.4, §9).
type APIEmbedder struct {
	cfg      Config
	Call     RemoteCall
	fallback Embedder
	breaker  *CircuitBreaker
	limiter  *RateLimiter
}

func (a *APIEmbedder) Embed(ctx context.Context, docID, canonicalText string) (*Embedding, error) {
	dim := a.cfg.Tier.Dimension()
	vec, err := a.callRemote(ctx, canonicalText, dim)
	if err != nil {
		a.cfg.logger().Warn("api embedding failed, falling back to fast stub", "doc_id", docID, "err", err)
		return a.fallback.Embed(ctx, docID, canonicalText)
	}

	if a.cfg.Normalize {
		l2Normalize(vec)
	}
	return &Embedding{
		DocID:      docID,
		Vector:     vec,
		ModelName:  a.cfg.ModelName,
		Tier:       a.cfg.Tier.String(),
		Dim:        dim,
		Normalized: a.cfg.Normalize,
	}, nil
}

func (a *APIEmbedder) callRemote(ctx context.Context, canonicalText string, dim int) ([]float32, error) {
	if a.Call == nil {
		return nil, errBreakerOpen
	}
	if !a.breaker.Allow(a.cfg.Resilience.Breaker) {
		return nil, errBreakerOpen
	}
	if !a.limiter.Allow() {
		return nil, errRateLimited
	}

	var vec []float32
	err := retryWithBackoff(a.cfg.Resilience.Retry, func() error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		v, callErr := a.Call(ctx, canonicalText, dim)
		if callErr != nil {
			return callErr
		}
		if len(v) != dim || !allFinite(v) {
			return errors.New("semantic: api embedder returned a malformed vector")
		}
		vec = v
		return nil
	})
	if err != nil {
		a.breaker.RecordFailure()
		return nil, err
	}
	a.breaker.RecordSuccess()
	return vec, nil
}
