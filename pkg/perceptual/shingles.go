package perceptual

import "github.com/bravo1goingdark/ucfp/pkg/ucfperr"

// shingleHashes computes the k-shingle rolling polynomial hashes over the
// per-token pre-hashes, per §4.3 stage 1. All arithmetic wraps modulo 2^64,
// which Go's uint64 does natively.
func shingleHashes(tokens []string, cfg Config) ([]uint64, error) {
	const op = "perceptual.shingleHashes"
	n := len(tokens)
	k := cfg.K
	if n < k {
		return nil, ucfperr.Newf(op, ucfperr.KindNotEnoughTokens, "need at least %d tokens, got %d", k, n)
	}

	prehash := make([]uint64, n)
	for i, tok := range tokens {
		prehash[i] = tokenHash64(tok, cfg.Seed)
	}

	base := uint64(1_000_003) ^ splitmix64(cfg.Seed)
	baseKMinus1 := pow64(base, k-1)

	out := make([]uint64, n-k+1)

	var h uint64
	for j := 0; j < k; j++ {
		h += prehash[j] * pow64(base, k-1-j)
	}
	out[0] = h

	for i := 1; i < len(out); i++ {
		h = (h-prehash[i-1]*baseKMinus1)*base + prehash[i+k-1]
		out[i] = h
	}

	return out, nil
}
