package perceptual

// winnow implements the monotonic-deque winnowing algorithm of §4.3 stage
// 2: for every window of size w, select the minimum hash, breaking ties
// toward the rightmost index, deduplicating consecutive repeats of the
// same winning index. When the stream is shorter than w, a single global
// minimum (also rightmost on ties) is emitted instead.
func winnow(hashes []uint64, w int) []WinnowedShingle {
	n := len(hashes)
	if n == 0 {
		return nil
	}
	if n < w {
		best := 0
		for i := 1; i < n; i++ {
			if hashes[i] <= hashes[best] {
				best = i
			}
		}
		return []WinnowedShingle{{Hash: hashes[best], StartIdx: best}}
	}

	deque := make([]int, 0, w)
	result := make([]WinnowedShingle, 0, n-w+1)
	lastPicked := -1

	for i := 0; i < n; i++ {
		// Evict from the back anything not smaller than the incoming
		// value; using <= (not <) makes the newer, rightmost index win
		// ties since it displaces any equal-valued earlier index.
		for len(deque) > 0 && hashes[deque[len(deque)-1]] >= hashes[i] {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)

		windowStart := i - w + 1
		if windowStart < 0 {
			continue
		}
		for len(deque) > 0 && deque[0] < windowStart {
			deque = deque[1:]
		}

		minIdx := deque[0]
		if minIdx != lastPicked {
			result = append(result, WinnowedShingle{Hash: hashes[minIdx], StartIdx: minIdx})
			lastPicked = minIdx
		}
	}
	return result
}
