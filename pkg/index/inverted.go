package index

import "sync"

// InvertedIndex maps a MinHash value to the (possibly duplicated) set of
// canonical hashes whose signature contains it. It is append-only within a
// single upsert and does not self-compact on delete (§3, §4.6): stale
// entries are tolerated and filtered out at query time.
type InvertedIndex struct {
	mu      sync.RWMutex
	buckets map[uint64][]string
}

func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{buckets: make(map[uint64][]string)}
}

// Append adds canonicalHash to the bucket for hash. Duplicate entries are
// allowed; deduplication happens at query time.
func (idx *InvertedIndex) Append(hash uint64, canonicalHash string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.buckets[hash] = append(idx.buckets[hash], canonicalHash)
}

// AppendAll appends every (hash, canonicalHash) pair under a single lock
// acquisition, the batch-insert amortization §4.6 calls for.
func (idx *InvertedIndex) AppendAll(pairs []InvertedEntry) {
	if len(pairs) == 0 {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, p := range pairs {
		idx.buckets[p.Hash] = append(idx.buckets[p.Hash], p.CanonicalHash)
	}
}

// Bucket returns a copy of the canonical hashes stored under hash.
func (idx *InvertedIndex) Bucket(hash uint64) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b := idx.buckets[hash]
	out := make([]string, len(b))
	copy(out, b)
	return out
}

// InvertedEntry is one (MinHash value, canonical hash) pair queued for a
// batch AppendAll.
type InvertedEntry struct {
	Hash          uint64
	CanonicalHash string
}
