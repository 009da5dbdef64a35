package index

import "sync"

// VectorEntry is one entry of the semantic vector list: a canonical hash
// paired with its quantized embedding.
type VectorEntry struct {
	CanonicalHash string
	Embedding     []int8
}

// VectorList is the ordered, append-only (within one upsert) sequence of
// embeddings backing linear and ANN semantic search.
type VectorList struct {
	mu      sync.RWMutex
	entries []VectorEntry
}

func NewVectorList() *VectorList {
	return &VectorList{}
}

// Append adds one entry. It does not touch any cached ANN graph; the Index
// engine marks its graph dirty after appending.
func (v *VectorList) Append(entry VectorEntry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, entry)
}

// AppendAll adds every entry under a single lock acquisition.
func (v *VectorList) AppendAll(entries []VectorEntry) {
	if len(entries) == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, entries...)
}

// Snapshot returns a copy of the current vector list, safe to hand to an
// ANN builder or a linear scan without holding the lock.
func (v *VectorList) Snapshot() []VectorEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]VectorEntry, len(v.entries))
	copy(out, v.entries)
	return out
}

// Len returns the current vector count.
func (v *VectorList) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}
