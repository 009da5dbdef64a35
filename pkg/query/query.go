// Package query implements the two similarity search algorithms the index
// engine exposes: Jaccard search over MinHash inverted-index candidates, and
// cosine search over quantized embeddings, with HNSW acceleration once the
// corpus is large enough to justify it.
package query

import (
	"math"
	"sort"

	"github.com/bravo1goingdark/ucfp/pkg/index"
	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// Hit is one scored search result.
type Hit struct {
	CanonicalHash string
	Score         float64
}

// Config tunes the semantic search path. EfSearch controls HNSW's
// candidate-list size; MinVectorsForANN and ANNEnabled gate whether the ANN
// graph is consulted at all, falling back to a linear scan otherwise.
type Config struct {
	EfSearch         int
	MinVectorsForANN int
	ANNEnabled       bool
}

// DefaultConfig mirrors the index engine's own ANN build threshold so the
// query engine's fallback decision and the engine's build decision agree.
func DefaultConfig() Config {
	return Config{EfSearch: 64, MinVectorsForANN: 10, ANNEnabled: true}
}

// PerceptualSearch returns up to topK hits ranked by Jaccard similarity
// between queryMinHash and each candidate's stored MinHash signature.
func PerceptualSearch(idx *index.Index, queryMinHash []uint64, topK int) ([]Hit, error) {
	const op = "query.PerceptualSearch"
	if topK == 0 {
		return []Hit{}, nil
	}

	querySet := uniqueSet(queryMinHash)

	counts := make(map[string]int)
	for q := range querySet {
		for _, canonicalHash := range idx.InvertedBucket(q) {
			counts[canonicalHash]++
		}
	}

	var hits []Hit
	for canonicalHash := range counts {
		record, ok, err := idx.Get(canonicalHash)
		if err != nil {
			return nil, ucfperr.Wrap(op, ucfperr.KindIndex, err)
		}
		if !ok {
			continue
		}
		candidateSet := uniqueSet(record.Perceptual)
		score := jaccard(querySet, candidateSet)
		hits = append(hits, Hit{CanonicalHash: canonicalHash, Score: score})
	}

	return sortAndTruncate(hits, topK), nil
}

// jaccard computes intersection/union between two sets of MinHash values,
// returning 0 when the union is empty.
func jaccard(query, candidate map[uint64]struct{}) float64 {
	intersection := 0
	for q := range query {
		if _, ok := candidate[q]; ok {
			intersection++
		}
	}
	union := len(query)
	for c := range candidate {
		if _, ok := query[c]; !ok {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func uniqueSet(values []uint64) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// SemanticSearch returns up to topK hits ranked by cosine similarity between
// queryEmbedding and each candidate's quantized embedding, using the ANN
// graph when available and large enough, else a linear scan.
func SemanticSearch(idx *index.Index, queryEmbedding []int8, topK int, cfg Config) ([]Hit, error) {
	const op = "query.SemanticSearch"
	if topK == 0 {
		return []Hit{}, nil
	}

	vectors := idx.VectorSnapshot()
	if cfg.ANNEnabled && len(vectors) >= cfg.MinVectorsForANN {
		if graph := idx.ANN(); graph != nil {
			return semanticSearchANN(idx, graph, queryEmbedding, topK, cfg, op)
		}
	}
	return semanticSearchLinear(idx, vectors, queryEmbedding, topK, op)
}

func semanticSearchANN(idx *index.Index, graph *index.HNSW, queryEmbedding []int8, topK int, cfg Config, op string) ([]Hit, error) {
	queryVec := index.Dequantize(queryEmbedding, idx.QuantScale())
	ef := cfg.EfSearch
	if ef < 2*topK {
		ef = 2 * topK
	}
	hashes, dists := graph.Search(queryVec, 2*topK, ef)

	var hits []Hit
	for i, canonicalHash := range hashes {
		_, ok, err := idx.Get(canonicalHash)
		if err != nil {
			return nil, ucfperr.Wrap(op, ucfperr.KindIndex, err)
		}
		if !ok {
			continue
		}
		d := float64(dists[i])
		if d < 0 {
			d = 0
		}
		if d > 1 {
			d = 1
		}
		similarity := math.Max(0, 1-d)
		hits = append(hits, Hit{CanonicalHash: canonicalHash, Score: similarity})
	}
	return sortAndTruncate(hits, topK), nil
}

func semanticSearchLinear(idx *index.Index, vectors []index.VectorEntry, queryEmbedding []int8, topK int, op string) ([]Hit, error) {
	hits := make([]Hit, 0, len(vectors))
	for _, entry := range vectors {
		if _, ok, err := idx.Get(entry.CanonicalHash); err != nil {
			return nil, ucfperr.Wrap(op, ucfperr.KindIndex, err)
		} else if !ok {
			continue
		}
		score := cosineInt8(queryEmbedding, entry.Embedding)
		hits = append(hits, Hit{CanonicalHash: entry.CanonicalHash, Score: score})
	}
	return sortAndTruncate(hits, topK), nil
}

// cosineInt8 computes cosine similarity between two i8 vectors, accumulating
// in chunks of 32 elements. The chunking only affects iteration order, not
// the accumulated value, so it produces bit-identical results to a plain
// scalar loop.
func cosineInt8(a, b []int8) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	const chunk = 32
	var dot, normA, normB int64
	for start := 0; start < len(a); start += chunk {
		end := start + chunk
		if end > len(a) {
			end = len(a)
		}
		for i := start; i < end; i++ {
			ai, bi := int64(a[i]), int64(b[i])
			dot += ai * bi
			normA += ai * ai
			normB += bi * bi
		}
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float64(dot) / (math.Sqrt(float64(normA)) * math.Sqrt(float64(normB)))
}

// sortAndTruncate applies the documented stable order (score desc,
// canonical_hash asc) and truncates to topK.
func sortAndTruncate(hits []Hit, topK int) []Hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].CanonicalHash < hits[j].CanonicalHash
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}
