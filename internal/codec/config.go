package codec

import "github.com/bravo1goingdark/ucfp/pkg/ucfperr"

// CompressionCodec selects the optional compression layer over the compact
// encoding.
type CompressionCodec int

const (
	CompressionNone CompressionCodec = iota
	CompressionZstd
)

// Config bundles codec-level choices.
type Config struct {
	Compression CompressionCodec
	// Level is a 1-22 style compression-level knob; it is translated to
	// one of klauspost/compress/zstd's coarser EncoderLevel buckets
	// (SpeedFastest/SpeedDefault/SpeedBetterCompression/
	// SpeedBestCompression) since zstd's Go binding does not expose a
	// 22-level knob the way the reference zstd CLI does.
	Level int
}

// DefaultConfig returns Zstd compression at level 3, the documented
// default.
func DefaultConfig() Config {
	return Config{Compression: CompressionZstd, Level: 3}
}

func (c Config) Validate() error {
	if c.Compression != CompressionNone && c.Compression != CompressionZstd {
		return ucfperr.New("codec.Validate", ucfperr.KindInvalidConfig, "unknown compression codec")
	}
	return nil
}
