package perceptual

import (
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
)

// uniqueSorted returns the sorted, deduplicated set of values.
func uniqueSorted(values []uint64) []uint64 {
	if len(values) == 0 {
		return nil
	}
	cp := make([]uint64, len(values))
	copy(cp, values)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })

	out := cp[:1]
	for _, v := range cp[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// minHashSignature computes the fixed-length MinHash signature of §4.3
// stage 3 over universe U. When use_parallel is set, slots are computed
// concurrently; the result is required to be bit-identical to the
// sequential path since each slot is an independent reduction over U.
func minHashSignature(universe []uint64, seed uint64, m int, parallel bool) []uint64 {
	slots := make([]uint64, m)

	compute := func(j int) uint64 {
		key := splitmix64(seed + uint64(j)*splitmix64GoldenGamma)
		if len(universe) == 0 {
			return math.MaxUint64
		}
		best := uint64(math.MaxUint64)
		for _, u := range universe {
			if v := mix(u, key); v < best {
				best = v
			}
		}
		return best
	}

	if !parallel || m <= 1 {
		for j := 0; j < m; j++ {
			slots[j] = compute(j)
		}
		return slots
	}

	var g errgroup.Group
	for j := 0; j < m; j++ {
		j := j
		g.Go(func() error {
			slots[j] = compute(j)
			return nil
		})
	}
	_ = g.Wait() // compute never returns an error
	return slots
}
