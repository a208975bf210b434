package container

// strides returns row-major element strides for a box of the given counts.
func strides(count []uint64) []uint64 {
	out := make([]uint64, len(count))
	step := uint64(1)
	for i := len(count) - 1; i >= 0; i-- {
		out[i] = step
		step *= count[i]
	}
	return out
}

// intersect returns the overlap of two boxes in global coordinates.
func intersect(aStart, aCount, bStart, bCount []uint64) (lo, hi []uint64, ok bool) {
	lo = make([]uint64, len(aStart))
	hi = make([]uint64, len(aStart))
	for i := range aStart {
		lo[i] = max(aStart[i], bStart[i])
		hi[i] = min(aStart[i]+aCount[i], bStart[i]+bCount[i])
		if lo[i] >= hi[i] {
			return nil, nil, false
		}
	}
	return lo, hi, true
}

// copyBox copies the global region [lo, hi) from src (laid out over
// srcStart/srcCount) into dst (laid out over dstStart/dstCount).
func copyBox(dst []byte, dstStart, dstCount []uint64, src []byte, srcStart, srcCount []uint64, lo, hi []uint64) {
	dims := len(lo)
	dstStride := strides(dstCount)
	srcStride := strides(srcCount)
	last := dims - 1
	run := hi[last] - lo[last]

	idx := append([]uint64(nil), lo...)
	for {
		var dOff, sOff uint64
		for i := 0; i < dims; i++ {
			dOff += (idx[i] - dstStart[i]) * dstStride[i]
			sOff += (idx[i] - srcStart[i]) * srcStride[i]
		}
		copy(dst[dOff:dOff+run], src[sOff:sOff+run])

		// Advance over every dimension except the contiguous last one.
		d := last - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < hi[d] {
				break
			}
			idx[d] = lo[d]
		}
		if d < 0 {
			return
		}
	}
}
