package perceptual

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// splitmix64GoldenGamma is the golden-ratio increment splitmix64 advances its
// state by; the MinHash slot-key schedule also spaces its inputs by it.
const splitmix64GoldenGamma uint64 = 0x9E3779B97F4A7C15

// splitmix64 is the canonical splitmix64 output function: it advances the
// state by the golden gamma, then mixes. Calling it with seed, seed+gamma,
// seed+2*gamma, ... produces an independent-looking stream of outputs, the
// scheme the slot-key schedule (§4.3 stage 3) relies on.
func splitmix64(x uint64) uint64 {
	x += splitmix64GoldenGamma
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}

// fmix64 is the fixed 3-step 64-bit finalizer named in §4.3: the
// well-known split-mix finalizer with constants 0xff51afd7ed558ccd and
// 0xc4ceb9fe1a85ec53.
func fmix64(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

// mix combines a MinHash universe element x with a slot key: xxh3_64 over
// x's little-endian bytes keyed by key, then the fmix64 finalizer.
func mix(x, key uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	return fmix64(xxh3.HashSeed(buf[:], key))
}

// tokenHash64 is the per-token pre-hash stage 1 feeds into the rolling
// hash: xxh3_64(token bytes, seed).
func tokenHash64(token string, seed uint64) uint64 {
	return xxh3.HashStringSeed(token, seed)
}

// pow64 computes base^exp with wrapping uint64 arithmetic.
func pow64(base uint64, exp int) uint64 {
	result := uint64(1)
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
