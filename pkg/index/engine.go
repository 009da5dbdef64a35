package index

import (
	"sync"

	"github.com/bravo1goingdark/ucfp/internal/codec"
	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// Index is the orchestration layer tying a Backend, an InvertedIndex over
// perceptual MinHash values, and a VectorList/HNSW pair over semantic
// embeddings into the single engine the query and match layers talk to.
// Each component keeps its own lock; Index adds two more: one guarding the
// ANN graph's build-on-demand lifecycle and one guarding the fixed embedding
// dimension.
type Index struct {
	cfg     Config
	backend Backend
	inv     *InvertedIndex
	vecs    *VectorList

	annMu   sync.Mutex
	ann     *HNSW
	annDirty bool

	dimMu        sync.Mutex
	embeddingDim int
}

// Open constructs an Index from cfg, opening the SQLite backend if selected.
func Open(cfg Config) (*Index, error) {
	const op = "index.Open"
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var backend Backend
	switch cfg.Backend {
	case BackendMemory:
		backend = NewMemoryBackend()
	case BackendSQLite:
		b, err := OpenSQLiteBackend(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		return nil, ucfperr.New(op, ucfperr.KindInvalidConfig, "unknown backend kind")
	}

	return &Index{
		cfg:      cfg,
		backend:  backend,
		inv:      NewInvertedIndex(),
		vecs:     NewVectorList(),
		annDirty: true,
	}, nil
}

// Entry is one fully-formed record ready for Upsert: the canonical hash it
// is keyed by, its perceptual MinHash signature, its quantized embedding,
// and the raw metadata bytes to preserve byte-for-byte.
type Entry struct {
	CanonicalHash string
	Perceptual    []uint64
	Embedding     []int8
	Metadata      []byte
}

// Upsert encodes and stores one record, appending its MinHash values to the
// inverted index and its embedding to the vector list. Re-upserting the same
// canonical hash overwrites the Backend entry but appends a second,
// stale-tolerant pointer into the inverted index and vector list, per the
// append-only semantics those structures document.
func (idx *Index) Upsert(e Entry) error {
	const op = "index.Index.Upsert"

	if err := idx.checkDimension(op, e.Embedding); err != nil {
		return err
	}

	record := &codec.IndexRecord{
		SchemaVersion: codec.SchemaVersion,
		CanonicalHash: e.CanonicalHash,
		Perceptual:    e.Perceptual,
		Embedding:     e.Embedding,
		Metadata:      e.Metadata,
	}
	encoded, err := codec.Encode(record, idx.cfg.Codec)
	if err != nil {
		return err
	}
	if err := idx.backend.Put(e.CanonicalHash, encoded); err != nil {
		return ucfperr.Wrap(op, ucfperr.KindIndex, err)
	}

	pairs := make([]InvertedEntry, len(e.Perceptual))
	for i, h := range e.Perceptual {
		pairs[i] = InvertedEntry{Hash: h, CanonicalHash: e.CanonicalHash}
	}
	idx.inv.AppendAll(pairs)
	idx.vecs.Append(VectorEntry{CanonicalHash: e.CanonicalHash, Embedding: e.Embedding})
	idx.markDirty()
	return nil
}

// BatchInsert upserts many entries, batching the Backend write and the
// inverted-index append into single lock acquisitions each.
func (idx *Index) BatchInsert(entries []Entry) error {
	const op = "index.Index.BatchInsert"
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if err := idx.checkDimension(op, e.Embedding); err != nil {
			return err
		}
	}

	puts := make(map[string][]byte, len(entries))
	var pairs []InvertedEntry
	var vecEntries []VectorEntry

	for _, e := range entries {
		record := &codec.IndexRecord{
			SchemaVersion: codec.SchemaVersion,
			CanonicalHash: e.CanonicalHash,
			Perceptual:    e.Perceptual,
			Embedding:     e.Embedding,
			Metadata:      e.Metadata,
		}
		encoded, err := codec.Encode(record, idx.cfg.Codec)
		if err != nil {
			return err
		}
		puts[e.CanonicalHash] = encoded
		for _, h := range e.Perceptual {
			pairs = append(pairs, InvertedEntry{Hash: h, CanonicalHash: e.CanonicalHash})
		}
		vecEntries = append(vecEntries, VectorEntry{CanonicalHash: e.CanonicalHash, Embedding: e.Embedding})
	}

	if err := idx.backend.BatchPut(puts); err != nil {
		return ucfperr.Wrap(op, ucfperr.KindIndex, err)
	}
	idx.inv.AppendAll(pairs)
	idx.vecs.AppendAll(vecEntries)
	idx.markDirty()
	return nil
}

// Get fetches and decodes the record stored under hash.
func (idx *Index) Get(hash string) (*codec.IndexRecord, bool, error) {
	const op = "index.Index.Get"
	raw, ok, err := idx.backend.Get(hash)
	if err != nil {
		return nil, false, ucfperr.Wrap(op, ucfperr.KindIndex, err)
	}
	if !ok {
		return nil, false, nil
	}
	record, err := codec.Decode(raw)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// Delete removes hash from the Backend. The inverted index and vector list
// retain their stale pointers; every reader of those structures filters
// dead entries against a live Get, per §4.6.
func (idx *Index) Delete(hash string) error {
	const op = "index.Index.Delete"
	if err := idx.backend.Delete(hash); err != nil {
		return ucfperr.Wrap(op, ucfperr.KindIndex, err)
	}
	idx.markDirty()
	return nil
}

// Scan visits every live record in the Backend.
func (idx *Index) Scan(visit func(hash string, record *codec.IndexRecord) error) error {
	return idx.backend.Scan(func(key string, value []byte) error {
		record, err := codec.Decode(value)
		if err != nil {
			return err
		}
		return visit(key, record)
	})
}

// InvertedBucket returns the (possibly stale) canonical hashes whose
// perceptual signature contains hash.
func (idx *Index) InvertedBucket(hash uint64) []string {
	return idx.inv.Bucket(hash)
}

// VectorSnapshot returns a copy of the current embedding list, for linear
// cosine scans below the ANN build threshold.
func (idx *Index) VectorSnapshot() []VectorEntry {
	return idx.vecs.Snapshot()
}

// QuantScale exposes the configured quantization scale so the query engine
// can dequantize consistently.
func (idx *Index) QuantScale() float64 {
	return idx.cfg.QuantScale
}

// checkDimension enforces a single consistent embedding dimension across the
// Index's lifetime. An empty embedding (perceptual-only entries) is exempt.
// The first non-empty embedding Upsert/BatchInsert ever sees fixes the
// expected dimension; every later one must match it, or callers get a clean
// KindDimensionMismatch instead of a panic on the ANN/cosine path.
func (idx *Index) checkDimension(op string, embedding []int8) error {
	if len(embedding) == 0 {
		return nil
	}
	idx.dimMu.Lock()
	defer idx.dimMu.Unlock()
	if idx.embeddingDim == 0 {
		idx.embeddingDim = len(embedding)
		return nil
	}
	if len(embedding) != idx.embeddingDim {
		return ucfperr.Newf(op, ucfperr.KindDimensionMismatch,
			"embedding dimension mismatch: expected %d, got %d", idx.embeddingDim, len(embedding))
	}
	return nil
}

// UpdateConfig replaces the HNSW build parameters and invalidates the
// current graph, so the next ANN() call rebuilds with the new m/ef_construction
// instead of serving a graph built under the old ones.
func (idx *Index) UpdateConfig(m, efConstruction int) error {
	const op = "index.Index.UpdateConfig"
	if m <= 0 || efConstruction <= 0 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "HNSWM and HNSWEf must be positive")
	}

	idx.annMu.Lock()
	idx.cfg.HNSWM = m
	idx.cfg.HNSWEf = efConstruction
	idx.annDirty = true
	idx.annMu.Unlock()
	return nil
}

func (idx *Index) markDirty() {
	idx.annMu.Lock()
	idx.annDirty = true
	idx.annMu.Unlock()
}

// ANN returns the current HNSW graph, rebuilding it from the vector list if
// stale or never built. It returns nil when the corpus is below the minimum
// size BuildHNSW requires, or when a rebuild is already in flight on another
// goroutine, signalling the caller to fall back to a linear scan rather than
// block on it.
func (idx *Index) ANN() *HNSW {
	if !idx.annMu.TryLock() {
		return nil
	}
	defer idx.annMu.Unlock()
	if !idx.annDirty && idx.ann != nil {
		return idx.ann
	}
	snapshot := idx.vecs.Snapshot()
	idx.ann = BuildHNSW(snapshot, idx.cfg.QuantScale, idx.cfg.HNSWM, idx.cfg.HNSWEf, idx.cfg.HNSWSeed)
	idx.annDirty = false
	return idx.ann
}

// Close releases any resources the Backend holds (e.g. SQLite connections).
func (idx *Index) Close() error {
	if closer, ok := idx.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
