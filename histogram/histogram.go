// Package histogram implements a bin-merging streaming quantile sketch
// (Ben-Haim & Tom-Tov) used to calibrate the grid's per-axis cell scales.
package histogram

import "sort"

type bin struct {
	value float64
	count int64
}

// Histogram is a set of at most maxBins (value, count) centroids.
type Histogram struct {
	maxBins int
	bins    []bin
	min     float64
	max     float64
	seen    bool
}

// New allocates an empty histogram with room for maxBins centroids.
func New(maxBins int) *Histogram {
	if maxBins < 1 {
		maxBins = 1
	}
	return &Histogram{maxBins: maxBins}
}

// Update inserts a new unit centroid at x and, if that pushes the bin
// count past maxBins, merges the two closest centroids by
// count-weighted averaging.
func (h *Histogram) Update(x float64) {
	if !h.seen {
		h.min, h.max, h.seen = x, x, true
	} else {
		if x < h.min {
			h.min = x
		}
		if x > h.max {
			h.max = x
		}
	}

	i := sort.Search(len(h.bins), func(i int) bool { return h.bins[i].value >= x })
	h.bins = append(h.bins, bin{})
	copy(h.bins[i+1:], h.bins[i:])
	h.bins[i] = bin{value: x, count: 1}

	for len(h.bins) > h.maxBins {
		h.mergeClosestPair()
	}
}

func (h *Histogram) mergeClosestPair() {
	best := 0
	bestGap := h.bins[1].value - h.bins[0].value
	for i := 1; i < len(h.bins)-1; i++ {
		gap := h.bins[i+1].value - h.bins[i].value
		if gap < bestGap {
			bestGap = gap
			best = i
		}
	}
	a, b := h.bins[best], h.bins[best+1]
	total := a.count + b.count
	merged := bin{
		value: (a.value*float64(a.count) + b.value*float64(b.count)) / float64(total),
		count: total,
	}
	h.bins[best] = merged
	h.bins = append(h.bins[:best+1], h.bins[best+2:]...)
}

// Merge folds another histogram of the same budget into this one,
// supporting parallel calibration passes over point shards before a
// single grid build.
func (h *Histogram) Merge(other *Histogram) {
	if other == nil || !other.seen {
		return
	}
	if !h.seen {
		h.min, h.max = other.min, other.max
	} else {
		if other.min < h.min {
			h.min = other.min
		}
		if other.max > h.max {
			h.max = other.max
		}
	}
	h.seen = true
	merged := make([]bin, 0, len(h.bins)+len(other.bins))
	merged = append(merged, h.bins...)
	merged = append(merged, other.bins...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].value < merged[j].value })
	h.bins = merged
	for len(h.bins) > h.maxBins {
		h.mergeClosestPair()
	}
}

// Min and Max return the observed extrema.
func (h *Histogram) Min() float64 { return h.min }
func (h *Histogram) Max() float64 { return h.max }

func (h *Histogram) total() int64 {
	var n int64
	for _, b := range h.bins {
		n += b.count
	}
	return n
}

// Uniform returns n approximately equi-count quantiles synthesized from
// the centroid trapezoid: strictly non-decreasing by construction.
func (h *Histogram) Uniform(n int) []float64 {
	out := make([]float64, n)
	if n <= 0 {
		return nil
	}
	if len(h.bins) == 0 {
		return out
	}
	total := float64(h.total())
	mids := make([]float64, len(h.bins))
	running := 0.0
	for i, b := range h.bins {
		mids[i] = running + float64(b.count)/2
		running += float64(b.count)
	}
	for j := 0; j < n; j++ {
		target := float64(j+1) / float64(n) * total
		out[j] = h.interpolate(mids, target, total)
	}
	return out
}

func (h *Histogram) interpolate(mids []float64, target, total float64) float64 {
	last := len(mids) - 1
	switch {
	case target <= mids[0]:
		return lerp(0, h.min, mids[0], h.bins[0].value, target)
	case target >= mids[last]:
		return lerp(mids[last], h.bins[last].value, total, h.max, target)
	default:
		i := sort.Search(len(mids), func(i int) bool { return mids[i] >= target })
		return lerp(mids[i-1], h.bins[i-1].value, mids[i], h.bins[i].value, target)
	}
}

func lerp(x0, y0, x1, y1, x float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}
