// Package match implements the Matcher: declarative scoring expressions
// combining exact, semantic and perceptual signals behind a single
// match_document entry point, with tenant isolation and oversample-then-
// rerank ordering.
package match

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/bravo1goingdark/ucfp/pkg/canonical"
	"github.com/bravo1goingdark/ucfp/pkg/index"
	"github.com/bravo1goingdark/ucfp/pkg/perceptual"
	"github.com/bravo1goingdark/ucfp/pkg/query"
	"github.com/bravo1goingdark/ucfp/pkg/semantic"
	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// Matcher ties the canonicalizer, perceptual/semantic pipelines, and the
// query engine together behind match_document.
type Matcher struct {
	Canonical  canonical.Config
	Perceptual perceptual.Config
	Embedder   semantic.Embedder
	Index      *index.Index
	Query      query.Config
	Metrics    Metrics
}

// MatchDocument implements the full §4.8 procedure: validate, oversample,
// run the needed pipeline prefix on query_text, merge per-signal query-engine
// results by canonical_hash, score and filter via the declarative strategy,
// then sort and truncate.
func (m *Matcher) MatchDocument(ctx context.Context, req Request) ([]Hit, error) {
	const op = "match.Matcher.MatchDocument"
	start := time.Now()

	if err := m.validate(req); err != nil {
		return nil, err
	}

	kPrime := int(math.Ceil(float64(req.Config.MaxResults) * req.Config.OversampleFactor))

	doc, err := canonical.Canonicalize("query", req.QueryText, m.Canonical)
	if err != nil {
		return nil, ucfperr.Stage(op, ucfperr.KindCanonical, err)
	}

	merged := make(map[string]*Scores)

	if req.Config.Mode.needsPerceptual() {
		tokenTexts := make([]string, len(doc.Tokens))
		for i, t := range doc.Tokens {
			tokenTexts[i] = t.Text
		}
		fp, err := perceptual.Perceptualize(tokenTexts, m.Perceptual)
		if err != nil {
			return nil, ucfperr.Stage(op, ucfperr.KindPerceptual, err)
		}
		hits, err := query.PerceptualSearch(m.Index, fp.MinHash, kPrime)
		if err != nil {
			return nil, ucfperr.Stage(op, ucfperr.KindIndex, err)
		}
		for _, h := range hits {
			entry(merged, h.CanonicalHash).Perceptual = h.Score
		}
	}

	if req.Config.Mode.needsSemantic() {
		emb, err := m.Embedder.Embed(ctx, "query", doc.CanonicalText)
		if err != nil {
			return nil, ucfperr.Stage(op, ucfperr.KindSemantic, err)
		}
		quantized := index.Quantize(emb.Vector, m.Index.QuantScale())
		hits, err := query.SemanticSearch(m.Index, quantized, kPrime, m.Query)
		if err != nil {
			return nil, ucfperr.Stage(op, ucfperr.KindIndex, err)
		}
		for _, h := range hits {
			entry(merged, h.CanonicalHash).Semantic = h.Score
		}
	}

	hasExact := req.QueryCanonicalHash != ""

	hits := make([]Hit, 0, len(merged))
	for hash, scores := range merged {
		if req.Config.TenantEnforce {
			ok, err := m.tenantMatches(hash, req.TenantID)
			if err != nil {
				return nil, ucfperr.Stage(op, ucfperr.KindIndex, err)
			}
			if !ok {
				continue
			}
		}

		scores.HasExact = hasExact
		if hasExact && hash == req.QueryCanonicalHash {
			scores.Exact = 1.0
		}

		score, included := req.Config.Strategy.Evaluate(*scores)
		if !included {
			continue
		}
		hits = append(hits, Hit{
			CanonicalHash: hash,
			Score:         score,
			Semantic:      scores.Semantic,
			Perceptual:    scores.Perceptual,
			Exact:         scores.Exact,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].CanonicalHash < hits[j].CanonicalHash
	})
	if req.Config.MaxResults < len(hits) {
		hits = hits[:req.Config.MaxResults]
	}

	if m.Metrics != nil {
		m.Metrics.RecordMatch(req.TenantID, req.Config.Mode, time.Since(start).Seconds(), len(hits))
	}

	return hits, nil
}

func entry(m map[string]*Scores, hash string) *Scores {
	s, ok := m[hash]
	if !ok {
		s = &Scores{}
		m[hash] = s
	}
	return s
}

type tenantMetadata struct {
	Tenant string `json:"tenant"`
}

// tenantMatches fetches the stored record for hash and compares its
// metadata's tenant field to tenantID. A record with no parseable tenant
// field, or no record at all (stale pointer), fails the check.
func (m *Matcher) tenantMatches(hash, tenantID string) (bool, error) {
	record, ok, err := m.Index.Get(hash)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	var meta tenantMetadata
	if len(record.Metadata) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(record.Metadata, &meta); err != nil {
		return false, nil
	}
	return meta.Tenant == tenantID, nil
}

func (m *Matcher) validate(req Request) error {
	const op = "match.Matcher.validate"
	if req.TenantID == "" {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "tenant_id must not be empty")
	}
	if req.QueryText == "" {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "query_text must not be empty")
	}
	if req.Config.MaxResults < 0 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "max_results must be >= 0")
	}
	if req.Config.OversampleFactor < 1.0 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "oversample_factor must be >= 1.0")
	}
	if req.Config.Strategy == nil {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "strategy must not be nil")
	}
	if m.Index == nil {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "matcher has no index configured")
	}
	if req.Config.Mode.needsSemantic() && m.Embedder == nil {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "mode requires an embedder")
	}
	return validateExpr(op, req.Config.Strategy)
}

func validateExpr(op string, e Expr) error {
	switch v := e.(type) {
	case Weighted:
		if v.SemanticWeight < 0 || v.SemanticWeight > 1 {
			return ucfperr.New(op, ucfperr.KindInvalidConfig, "weighted.semantic_weight must be in [0,1]")
		}
		if v.MinOverall < 0 {
			return ucfperr.New(op, ucfperr.KindInvalidConfig, "weighted.min_overall must be >= 0")
		}
	case Semantic:
		if v.MinScore < 0 {
			return ucfperr.New(op, ucfperr.KindInvalidConfig, "semantic.min_score must be >= 0")
		}
	case Perceptual:
		if v.MinScore < 0 {
			return ucfperr.New(op, ucfperr.KindInvalidConfig, "perceptual.min_score must be >= 0")
		}
	case And:
		if err := validateExpr(op, v.L); err != nil {
			return err
		}
		return validateExpr(op, v.R)
	case Or:
		if err := validateExpr(op, v.L); err != nil {
			return err
		}
		return validateExpr(op, v.R)
	}
	return nil
}
