package codec

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zstd"

	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// wireTag prefixes the persisted value and tells Decode whether the
// remainder is Zstd-compressed.
type wireTag byte

const (
	tagNone wireTag = 0
	tagZstd wireTag = 1
)

// Encode produces the persisted byte layout: a one-byte compression tag,
// followed by schema_version(u16 BE) ++ compact_encoding(record), the
// latter optionally Zstd-compressed as a unit.
func Encode(record *IndexRecord, cfg Config) ([]byte, error) {
	const op = "codec.Encode"
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	body, err := encodeBody(record)
	if err != nil {
		return nil, ucfperr.Wrap(op, ucfperr.KindEncode, err)
	}

	if cfg.Compression == CompressionNone {
		out := make([]byte, 0, 1+len(body))
		out = append(out, byte(tagNone))
		out = append(out, body...)
		return out, nil
	}

	compressed, err := zstdCompress(body, cfg.Level)
	if err != nil {
		return nil, ucfperr.Wrap(op, ucfperr.KindCompression, err)
	}
	out := make([]byte, 0, 1+len(compressed))
	out = append(out, byte(tagZstd))
	out = append(out, compressed...)
	return out, nil
}

// Decode is the strict inverse of Encode: it dispatches on the compression
// tag, then verifies the schema version byte before decoding the body.
func Decode(data []byte) (*IndexRecord, error) {
	const op = "codec.Decode"
	if len(data) < 1 {
		return nil, ucfperr.New(op, ucfperr.KindDecode, "empty input")
	}

	tag := wireTag(data[0])
	rest := data[1:]

	var body []byte
	switch tag {
	case tagNone:
		body = rest
	case tagZstd:
		decompressed, err := zstdDecompress(rest)
		if err != nil {
			return nil, ucfperr.Wrap(op, ucfperr.KindCompression, err)
		}
		body = decompressed
	default:
		return nil, ucfperr.Newf(op, ucfperr.KindDecode, "unknown compression tag %d", tag)
	}

	record, err := decodeBody(body)
	if err != nil {
		return nil, ucfperr.Wrap(op, ucfperr.KindDecode, err)
	}
	return record, nil
}

func encodeBody(record *IndexRecord) ([]byte, error) {
	var buf bytes.Buffer

	version := record.SchemaVersion
	if version == 0 {
		version = SchemaVersion
	}
	if err := binary.Write(&buf, binary.BigEndian, version); err != nil {
		return nil, err
	}

	if err := writeString(&buf, record.CanonicalHash); err != nil {
		return nil, err
	}
	if err := writeU64Slice(&buf, record.Perceptual); err != nil {
		return nil, err
	}
	if err := writeI8Slice(&buf, record.Embedding); err != nil {
		return nil, err
	}
	if err := writeBytes(&buf, record.Metadata); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBody(body []byte) (*IndexRecord, error) {
	const op = "codec.decodeBody"
	r := bytes.NewReader(body)

	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version != SchemaVersion {
		return nil, ucfperr.Newf(op, ucfperr.KindDecode, "unsupported schema version %d", version)
	}

	hash, err := readString(r)
	if err != nil {
		return nil, err
	}
	perceptual, err := readU64Slice(r)
	if err != nil {
		return nil, err
	}
	embedding, err := readI8Slice(r)
	if err != nil {
		return nil, err
	}
	metadata, err := readBytes(r)
	if err != nil {
		return nil, err
	}

	return &IndexRecord{
		SchemaVersion: version,
		CanonicalHash: hash,
		Perceptual:    perceptual,
		Embedding:     embedding,
		Metadata:      metadata,
	}, nil
}

func zstdCompress(data []byte, level int) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(levelFor(level)))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func zstdDecompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

func levelFor(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 12:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}
