package clustering

import "iter"

// chunksPerWorker over-splits the work so that uneven chunks still balance.
const chunksPerWorker = 4

// chunks splits [0, n) into contiguous half-open ranges sized for the given
// number of workers and yields their bounds.
func chunks(n, workers int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		if n <= 0 {
			return
		}
		size := n / (workers * chunksPerWorker)
		if size < 1 {
			size = 1
		}
		for lo := 0; lo < n; lo += size {
			if !yield(lo, min(lo+size, n)) {
				return
			}
		}
	}
}
