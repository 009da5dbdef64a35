// Package ucfp is the library facade over the full content-fingerprinting
// pipeline: ingest, canonicalize, perceptualize, embed, index and match.
// It exposes the four top-level entry points external callers need without
// requiring them to import every internal package directly.
package ucfp

import (
	"github.com/bravo1goingdark/ucfp/pkg/canonical"
	"github.com/bravo1goingdark/ucfp/pkg/index"
	"github.com/bravo1goingdark/ucfp/pkg/ingest"
	"github.com/bravo1goingdark/ucfp/pkg/match"
	"github.com/bravo1goingdark/ucfp/pkg/perceptual"
	"github.com/bravo1goingdark/ucfp/pkg/query"
	"github.com/bravo1goingdark/ucfp/pkg/semantic"
)

// Config is the single validated configuration bundle a pipeline invocation
// needs, aggregating every component's own config per §6.
type Config struct {
	Ingest     ingest.Config
	Canonical  canonical.Config
	Perceptual perceptual.Config
	Semantic   semantic.Config
	Index      index.Config
	Query      query.Config
}

// DefaultConfig returns every component's own default, wired together.
func DefaultConfig() Config {
	return Config{
		Ingest:     ingest.DefaultConfig(),
		Canonical:  canonical.DefaultConfig(),
		Perceptual: perceptual.DefaultConfig(),
		Semantic:   semantic.DefaultConfig(),
		Index:      index.DefaultConfig(),
		Query:      query.DefaultConfig(),
	}
}

// Validate checks every embedded component config.
func (c Config) Validate() error {
	if err := c.Ingest.Validate(); err != nil {
		return err
	}
	if err := c.Canonical.Validate(); err != nil {
		return err
	}
	if err := c.Perceptual.Validate(); err != nil {
		return err
	}
	if err := c.Semantic.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	return nil
}

// Ingest validates and normalizes a raw document. This is entry point 1 of 4.
func Ingest(raw ingest.RawIngestRecord, cfg ingest.Config) (*ingest.CanonicalIngestRecord, error) {
	return ingest.Ingest(raw, cfg)
}

// Canonicalize runs the NFKC/case-fold/delimiter pipeline and computes the
// identity hash. This is entry point 2 of 4.
func Canonicalize(docID, text string, cfg canonical.Config) (*canonical.CanonicalizedDocument, error) {
	return canonical.Canonicalize(docID, text, cfg)
}

// PerceptualizeTokens runs shingling, winnowing and MinHash over token
// texts. This is entry point 3 of 4.
func PerceptualizeTokens(tokens []string, cfg perceptual.Config) (*perceptual.Fingerprint, error) {
	return perceptual.Perceptualize(tokens, cfg)
}

// Embedder constructs the semantic embedder selected by cfg.Mode.
func Embedder(cfg semantic.Config) semantic.Embedder {
	return semantic.New(cfg)
}

// OpenIndex opens the Index engine (the 4th entry point's home: upsert,
// batch_insert, get, delete, scan, search all live on the returned value,
// with Matcher.MatchDocument layered on top).
func OpenIndex(cfg index.Config) (*index.Index, error) {
	return index.Open(cfg)
}

// NewMatcher builds a Matcher wired to idx and the given pipeline configs.
func NewMatcher(idx *index.Index, canonicalCfg canonical.Config, perceptualCfg perceptual.Config, embedder semantic.Embedder, queryCfg query.Config) *match.Matcher {
	return &match.Matcher{
		Canonical:  canonicalCfg,
		Perceptual: perceptualCfg,
		Embedder:   embedder,
		Index:      idx,
		Query:      queryCfg,
	}
}
