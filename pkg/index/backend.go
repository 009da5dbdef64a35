// Package index implements the index engine (§4.6): a pluggable storage
// backend behind a small capability interface, a primary KV store, a
// perceptual inverted index, a semantic vector list, and an optional HNSW
// graph, all composed by Index.
package index

// Backend is the storage capability interface the index engine consumes
// through dynamic dispatch -- the only such boundary in the core (§9).
type Backend interface {
	Put(key string, value []byte) error
	Get(key string) ([]byte, bool, error)
	Delete(key string) error
	BatchPut(entries map[string][]byte) error
	Scan(visit func(key string, value []byte) error) error
	Flush() error
}
