package index

import (
	"container/heap"
	"math"
	"math/rand"
)

// HNSWNode is one vector in the approximate nearest-neighbor graph, keyed by
// canonical hash rather than an opaque ID.
type HNSWNode struct {
	CanonicalHash string
	Vector        []float32
	Level         int
	Neighbors     [][]string
}

// HNSW is a layered graph over cosine distance, built from scratch on every
// rebuild (§4.7's ANN build policy: no incremental repair, no persistence
// across rebuilds). Building it is not safe for concurrent use; once built it
// is never mutated (a rebuild produces a new graph), so Search may run
// concurrently on the graph the Index engine hands out.
type HNSW struct {
	M              int
	EfConstruction int
	MaxLevel       int

	nodes      map[string]*HNSWNode
	entryPoint string
	rng        *rand.Rand
}

// BuildHNSW constructs a fresh graph over entries. It returns nil if there
// are fewer than minHNSWVectors entries: below that size the query engine
// falls back to a linear scan, so no graph is built at all.
func BuildHNSW(entries []VectorEntry, scale float64, m, efConstruction int, seed int64) *HNSW {
	const minHNSWVectors = 10
	if len(entries) < minHNSWVectors {
		return nil
	}

	maxLevel := hnswMaxLevel(len(entries))
	h := &HNSW{
		M:              m,
		EfConstruction: efConstruction,
		MaxLevel:       maxLevel,
		nodes:          make(map[string]*HNSWNode, len(entries)),
		rng:            rand.New(rand.NewSource(seed)),
	}

	for _, e := range entries {
		h.insert(e.CanonicalHash, Dequantize(e.Embedding, scale))
	}
	return h
}

// hnswMaxLevel implements the layer-count policy: min(16, floor(ln(n))).
func hnswMaxLevel(n int) int {
	level := int(math.Log(float64(n)))
	if level > 16 {
		level = 16
	}
	if level < 1 {
		level = 1
	}
	return level
}

func (h *HNSW) selectLevel() int {
	level := 0
	for h.rng.Float64() < 0.5 && level < h.MaxLevel {
		level++
	}
	return level
}

func (h *HNSW) insert(hash string, vector []float32) {
	level := h.selectLevel()
	node := &HNSWNode{
		CanonicalHash: hash,
		Vector:        vector,
		Level:         level,
		Neighbors:     make([][]string, level+1),
	}
	for i := range node.Neighbors {
		node.Neighbors[i] = make([]string, 0, h.M)
	}
	h.nodes[hash] = node

	if h.entryPoint == "" {
		h.entryPoint = hash
		return
	}

	entry := h.nodes[h.entryPoint]
	curr := []string{h.entryPoint}
	for lc := entry.Level; lc > level; lc-- {
		curr = h.searchLayer(vector, curr, 1, lc)
	}

	for lc := level; lc >= 0; lc-- {
		maxConn := h.M
		if lc == 0 {
			maxConn = h.M * 2
		}
		candidates := h.searchLayer(vector, curr, h.EfConstruction, lc)
		neighbors := h.selectNeighbors(vector, candidates, maxConn)
		node.Neighbors[lc] = neighbors

		for _, n := range neighbors {
			h.connect(n, hash, lc, maxConn)
		}
		if len(neighbors) > 0 {
			curr = neighbors
		}
	}

	if level > entry.Level {
		h.entryPoint = hash
	}
}

func (h *HNSW) connect(from, to string, layer, maxConn int) {
	fn, ok := h.nodes[from]
	if !ok || layer >= len(fn.Neighbors) {
		return
	}
	for _, n := range fn.Neighbors[layer] {
		if n == to {
			return
		}
	}
	fn.Neighbors[layer] = append(fn.Neighbors[layer], to)
	if len(fn.Neighbors[layer]) > maxConn {
		fn.Neighbors[layer] = h.selectNeighbors(fn.Vector, fn.Neighbors[layer], maxConn)
	}
}

func (h *HNSW) selectNeighbors(query []float32, candidates []string, m int) []string {
	if len(candidates) <= m {
		out := make([]string, len(candidates))
		copy(out, candidates)
		return out
	}
	type pair struct {
		hash string
		dist float32
	}
	pairs := make([]pair, len(candidates))
	for i, c := range candidates {
		pairs[i] = pair{c, CosineDistance(query, h.nodes[c].Vector)}
	}
	for i := 0; i < len(pairs)-1; i++ {
		minIdx := i
		for j := i + 1; j < len(pairs); j++ {
			if pairs[j].dist < pairs[minIdx].dist {
				minIdx = j
			}
		}
		pairs[i], pairs[minIdx] = pairs[minIdx], pairs[i]
	}
	out := make([]string, m)
	for i := 0; i < m; i++ {
		out[i] = pairs[i].hash
	}
	return out
}

// searchLayer performs the standard two-heap greedy search: candidates is a
// min-heap of unexplored frontier nodes, result is a bounded max-heap of the
// best ef nodes seen so far.
func (h *HNSW) searchLayer(query []float32, entryPoints []string, ef, layer int) []string {
	visited := make(map[string]bool, ef*4)
	candidates := &hnswMinHeap{}
	result := &hnswMaxHeap{}

	for _, p := range entryPoints {
		if visited[p] {
			continue
		}
		visited[p] = true
		d := CosineDistance(query, h.nodes[p].Vector)
		heap.Push(candidates, hnswItem{p, d})
		heap.Push(result, hnswItem{p, d})
	}

	for candidates.Len() > 0 {
		nearest := (*candidates)[0]
		if result.Len() >= ef && nearest.dist > (*result)[0].dist {
			break
		}
		heap.Pop(candidates)

		node, ok := h.nodes[nearest.hash]
		if !ok || layer >= len(node.Neighbors) {
			continue
		}
		for _, nb := range node.Neighbors[layer] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			d := CosineDistance(query, h.nodes[nb].Vector)
			if result.Len() < ef || d < (*result)[0].dist {
				heap.Push(candidates, hnswItem{nb, d})
				heap.Push(result, hnswItem{nb, d})
				if result.Len() > ef {
					heap.Pop(result)
				}
			}
		}
	}

	out := make([]string, result.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(result).(hnswItem).hash
	}
	return out
}

// Search returns up to k canonical hashes nearest query, nearest first, with
// their cosine distances.
func (h *HNSW) Search(query []float32, k, ef int) ([]string, []float32) {
	if h.entryPoint == "" {
		return nil, nil
	}
	entry := h.nodes[h.entryPoint]
	curr := []string{h.entryPoint}
	for lc := entry.Level; lc > 0; lc-- {
		curr = h.searchLayer(query, curr, 1, lc)
	}
	if ef < k {
		ef = k
	}
	candidates := h.searchLayer(query, curr, ef, 0)

	if k > len(candidates) {
		k = len(candidates)
	}
	hashes := make([]string, k)
	dists := make([]float32, k)
	for i := 0; i < k; i++ {
		hashes[i] = candidates[i]
		dists[i] = CosineDistance(query, h.nodes[candidates[i]].Vector)
	}
	return hashes, dists
}

// CosineDistance is 1 minus cosine similarity; zero vectors are maximally
// distant from everything, including each other. Mismatched dimensions are
// also treated as maximally distant rather than panicking.
func CosineDistance(a, b []float32) float32 {
	if len(a) != len(b) {
		return 1.0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	sim := dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
	return 1.0 - sim
}

type hnswItem struct {
	hash string
	dist float32
}

// hnswMinHeap pops the smallest distance first; used for the search frontier.
type hnswMinHeap []hnswItem

func (h hnswMinHeap) Len() int            { return len(h) }
func (h hnswMinHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h hnswMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *hnswMinHeap) Push(x interface{}) { *h = append(*h, x.(hnswItem)) }
func (h *hnswMinHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// hnswMaxHeap pops the largest distance first, so the top of the heap is
// always the worst member of the current best-ef set.
type hnswMaxHeap []hnswItem

func (h hnswMaxHeap) Len() int            { return len(h) }
func (h hnswMaxHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h hnswMaxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *hnswMaxHeap) Push(x interface{}) { *h = append(*h, x.(hnswItem)) }
func (h *hnswMaxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
