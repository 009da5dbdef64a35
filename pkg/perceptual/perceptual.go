package perceptual

// Perceptualize runs the full stage 1-3 pipeline over token texts: rolling
// shingle hashes, winnowing, and MinHash signature construction.
func Perceptualize(tokens []string, cfg Config) (*Fingerprint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	shingles, err := shingleHashes(tokens, cfg)
	if err != nil {
		return nil, err
	}

	winnowed := winnow(shingles, cfg.W)

	universe := uniqueSorted(winnowedHashes(winnowed))
	if len(universe) == 0 {
		universe = uniqueSorted(shingles)
	}

	signature := minHashSignature(universe, cfg.Seed, cfg.SignatureLen(), cfg.UseParallel)

	log.Debug("perceptualized tokens", "tokens", len(tokens), "shingles", len(shingles),
		"winnowed", len(winnowed), "signature_len", len(signature))

	fp := &Fingerprint{
		MinHash: signature,
		Meta: Meta{
			AlgorithmID: "ucfp-minhash-winnow-v1",
			Version:     cfg.Version,
			K:           cfg.K,
			W:           cfg.W,
			Bands:       cfg.Bands,
			RowsPerBand: cfg.RowsPerBand,
			Seed:        cfg.Seed,
			Parallel:    cfg.UseParallel,
		},
	}
	if cfg.IncludeIntermediates {
		fp.Shingles = shingles
		fp.Winnowed = winnowed
	}
	return fp, nil
}

func winnowedHashes(w []WinnowedShingle) []uint64 {
	out := make([]uint64, len(w))
	for i, e := range w {
		out[i] = e.Hash
	}
	return out
}
