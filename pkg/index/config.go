package index

import (
	"github.com/bravo1goingdark/ucfp/internal/codec"
	"github.com/bravo1goingdark/ucfp/internal/logging"
	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// BackendKind selects which Backend implementation an Index engine uses.
type BackendKind int

const (
	BackendMemory BackendKind = iota
	BackendSQLite
)

// Config aggregates everything the Index engine needs to wire together its
// Backend, codec, quantization scale and ANN graph.
type Config struct {
	Backend     BackendKind
	SQLitePath  string
	Codec       codec.Config
	QuantScale  float64
	HNSWM       int
	HNSWEf      int
	HNSWSeed    int64
	Logger      logging.Logger
}

// DefaultConfig returns the settings used when nothing else is specified:
// an in-memory backend, default codec, a quantization scale tuned for
// embeddings in roughly [-1, 1], and conservative HNSW parameters.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendMemory,
		Codec:      codec.DefaultConfig(),
		QuantScale: 127.0,
		HNSWM:      16,
		HNSWEf:     64,
		HNSWSeed:   1,
		Logger:     logging.Nop(),
	}
}

// Validate checks internal consistency before an Index engine is built.
func (c Config) Validate() error {
	const op = "index.Config.Validate"
	if c.Backend == BackendSQLite && c.SQLitePath == "" {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "sqlite backend requires SQLitePath")
	}
	if c.QuantScale <= 0 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "QuantScale must be positive")
	}
	if c.HNSWM <= 0 || c.HNSWEf <= 0 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "HNSWM and HNSWEf must be positive")
	}
	if err := c.Codec.Validate(); err != nil {
		return err
	}
	return nil
}

func (c Config) logger() logging.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.Nop()
}
