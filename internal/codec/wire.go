package codec

import (
	"bytes"
	"encoding/binary"
	"io"
)

func writeBytes(buf *bytes.Buffer, b []byte) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	return writeBytes(buf, []byte(s))
}

func readString(r *bytes.Reader) (string, error) {
	b, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeU64Slice(buf *bytes.Buffer, values []uint64) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(values))); err != nil {
		return err
	}
	for _, v := range values {
		if err := binary.Write(buf, binary.BigEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readU64Slice(r *bytes.Reader) ([]uint64, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]uint64, n)
	for i := range out {
		if err := binary.Read(r, binary.BigEndian, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeI8Slice(buf *bytes.Buffer, values []int8) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(values))); err != nil {
		return err
	}
	for _, v := range values {
		if err := buf.WriteByte(byte(v)); err != nil {
			return err
		}
	}
	return nil
}

func readI8Slice(r *bytes.Reader) ([]int8, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]int8, n)
	for i := range out {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		out[i] = int8(b)
	}
	return out, nil
}
