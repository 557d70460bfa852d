package fits

import "math"

// AutoStretch returns a display window [lo, hi] clipping the lowPct and
// highPct percentiles (0-100) of the finite pixels. Percentiles are
// linearly interpolated between neighbouring ranks.
//
// The result always has lo < hi: if the percentiles coincide it widens to
// the statistics' min and max, and if those coincide too it returns
// [lo, lo+1], or the next float above lo when lo+1 rounds back to lo.
// With no finite pixels it returns [0, 1].
func AutoStretch(pixels []float32, stats Statistics, lowPct, highPct float64) (lo, hi float32) {
	if stats.Count == 0 {
		return 0, 1
	}
	lowPct, highPct = clampPct(lowPct), clampPct(highPct)
	if lowPct > highPct {
		lowPct, highPct = highPct, lowPct
	}

	sorted := sortedFinite(pixels, stats.Count)
	if len(sorted) == 0 {
		return 0, 1
	}
	lo, hi = percentile(sorted, lowPct), percentile(sorted, highPct)
	if lo < hi {
		return lo, hi
	}
	if stats.Min < stats.Max {
		return stats.Min, stats.Max
	}
	hi = lo + 1
	if hi <= lo {
		hi = math.Nextafter32(lo, float32(math.Inf(1)))
	}
	return lo, hi
}

func clampPct(p float64) float64 {
	if p != p { // NaN
		return 0
	}
	return min(max(p, 0), 100)
}

// percentile interpolates the p-th percentile of an ascending slice.
func percentile(sorted []float32, p float64) float32 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(len(sorted)-1)
	i := int(pos)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return float32(float64(sorted[i]) + frac*(float64(sorted[i+1])-float64(sorted[i])))
}
