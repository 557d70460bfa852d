package fits

import (
	"math"
	"runtime"
	"slices"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"
)

// HistogramBins is the number of histogram bins spanning [Min, Max].
const HistogramBins = 256

// Statistics summarises the finite pixels of an image. NaN and ±Inf are
// excluded from every field.
type Statistics struct {
	// Count is the number of finite pixels.
	Count int

	Min    float32
	Max    float32
	Mean   float64
	StdDev float64
	Median float32

	// Histogram counts finite pixels in HistogramBins equal bins over
	// [Min, Max]. Max falls in the last bin. When Min == Max every pixel
	// is in bin 0.
	Histogram [HistogramBins]uint64
}

// chunkSize is the number of pixels each worker scans.
const chunkSize = 1 << 16

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

// chunks splits [0, n) into chunkSize ranges.
func chunks(n int) [][2]int {
	var out [][2]int
	for lo := 0; lo < n; lo += chunkSize {
		out = append(out, [2]int{lo, min(lo+chunkSize, n)})
	}
	return out
}

// forChunks runs fn over every chunk of pixels in parallel.
func forChunks(n int, fn func(i, lo, hi int)) {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range chunks(n) {
		g.Go(func() error {
			fn(i, c[0], c[1])
			return nil
		})
	}
	_ = g.Wait()
}

// ComputeStatistics scans pixels and returns their statistics. An image
// with no finite pixels yields the zero Statistics.
func ComputeStatistics(pixels []float32) Statistics {
	parts := chunks(len(pixels))

	type moments struct {
		count    int
		min, max float32
		sum      float64
	}
	m := make([]moments, len(parts))
	forChunks(len(pixels), func(i, lo, hi int) {
		p := moments{min: math32.Inf(1), max: math32.Inf(-1)}
		for _, v := range pixels[lo:hi] {
			if !finite(v) {
				continue
			}
			p.count++
			p.min = min(p.min, v)
			p.max = max(p.max, v)
			p.sum += float64(v)
		}
		m[i] = p
	})

	var s Statistics
	total := moments{min: math32.Inf(1), max: math32.Inf(-1)}
	for _, p := range m {
		total.count += p.count
		total.min = min(total.min, p.min)
		total.max = max(total.max, p.max)
		total.sum += p.sum
	}
	if total.count == 0 {
		return s
	}
	s.Count = total.count
	s.Min, s.Max = total.min, total.max
	s.Mean = total.sum / float64(total.count)

	type spread struct {
		sq   float64
		hist [HistogramBins]uint64
	}
	sp := make([]spread, len(parts))
	span := float64(s.Max) - float64(s.Min)
	forChunks(len(pixels), func(i, lo, hi int) {
		var p spread
		for _, v := range pixels[lo:hi] {
			if !finite(v) {
				continue
			}
			d := float64(v) - s.Mean
			p.sq += d * d
			p.hist[bin(v, s.Min, span)]++
		}
		sp[i] = p
	})
	var sq float64
	for _, p := range sp {
		sq += p.sq
		for b, c := range p.hist {
			s.Histogram[b] += c
		}
	}
	s.StdDev = math.Sqrt(sq / float64(s.Count))

	sorted := sortedFinite(pixels, s.Count)
	n := len(sorted)
	if n%2 == 1 {
		s.Median = sorted[n/2]
	} else {
		s.Median = float32((float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2)
	}
	return s
}

func bin(v, lo float32, span float64) int {
	if span <= 0 {
		return 0
	}
	b := int((float64(v) - float64(lo)) / span * HistogramBins)
	return min(max(b, 0), HistogramBins-1)
}

// sortedFinite returns the finite pixels in ascending order. count is a
// capacity hint.
func sortedFinite(pixels []float32, count int) []float32 {
	out := make([]float32, 0, count)
	for _, v := range pixels {
		if finite(v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}
