package grid

import (
	"context"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/sync/errgroup"

	"github.com/vinceanalytics/coredb/internal/coreerrors"
)

// segment is one contiguous, already-narrowed run of rows within a
// single non-empty cell, produced by RangeSearch's Cartesian enumeration.
type segment struct {
	cellIdx    int
	start, end int
	mask       int
}

// RangeSearch computes the lazy sequence of global point indices whose
// decoded k-tuple falls within [minRange, maxRange]. A disjoint axis
// yields an Iterator that immediately reports no more elements: an empty
// result, not an error.
func (g *SimpleGrid) RangeSearch(minRange, maxRange []int64) (*Iterator, error) {
	if len(minRange) != g.k || len(maxRange) != g.k {
		return nil, &coreerrors.ShapeMismatch{Column: "grid.range", Want: g.k, Got: len(minRange)}
	}

	axisMask := 0
	for d := 0; d < g.k; d++ {
		if minRange[d] > g.mins[d] || maxRange[d] < g.maxs[d] {
			axisMask |= 1 << d
		}
	}

	loIdx := make([]int, g.k-1)
	hiIdx := make([]int, g.k-1)
	for d := 0; d < g.k-1; d++ {
		if maxRange[d] < g.mins[d] || minRange[d] > g.maxs[d] {
			return &Iterator{g: g}, nil
		}
		lo := sort.SearchFloat64s(g.scales[d], float64(minRange[d]))
		hi := sort.SearchFloat64s(g.scales[d], float64(maxRange[d]))
		if lo >= g.cellsPerDimension {
			lo = g.cellsPerDimension - 1
		}
		if hi >= g.cellsPerDimension {
			hi = g.cellsPerDimension - 1
		}
		loIdx[d], hiIdx[d] = lo, hi
	}

	segs := g.enumerateSegments(axisMask, loIdx, hiIdx, minRange, maxRange)
	return &Iterator{g: g, segs: segs, minRange: minRange, maxRange: maxRange}, nil
}

func (g *SimpleGrid) enumerateSegments(axisMask int, loIdx, hiIdx []int, minRange, maxRange []int64) []segment {
	var segs []segment
	combo := make([]int, g.k-1)
	var walk func(d int)
	walk = func(d int) {
		if d < 0 {
			cellIdx := 0
			for dd := g.k - 2; dd >= 0; dd-- {
				cellIdx = cellIdx<<g.axisShift | combo[dd]
			}
			c := g.cells[cellIdx]
			if c == nil {
				return
			}
			mask := 0
			for dd := 0; dd < g.k-1; dd++ {
				if axisMask&(1<<dd) != 0 && (combo[dd] == loIdx[dd] || combo[dd] == hiIdx[dd]) {
					mask |= 1 << dd
				}
			}
			start, end := 0, c.valueCount-1
			if axisMask&(1<<(g.k-1)) != 0 {
				start = binarySearchLeftmost(c, g.k, minRange[g.k-1])
				end = binarySearchRightmost(c, g.k, maxRange[g.k-1])
				mask |= 1 << (g.k - 1)
			}
			if start < 0 || start > end || end >= c.valueCount {
				return
			}
			segs = append(segs, segment{cellIdx: cellIdx, start: start, end: end, mask: mask})
			return
		}
		for ai := loIdx[d]; ai <= hiIdx[d]; ai++ {
			combo[d] = ai
			walk(d - 1)
		}
	}
	walk(g.k - 2)
	return segs
}

// binarySearchLeftmost finds the first row with axis k-1's value >=
// target, probing outward from the cell's interpolation hint before
// narrowing conventionally.
func binarySearchLeftmost(c *cellData, k int, target int64) int {
	n := c.valueCount
	lo, hi := clampHint(c, n, target)
	for lo > 0 && c.axisValue(lo-1, k-1, k) >= target {
		lo--
	}
	for hi < n && c.axisValue(hi, k-1, k) < target {
		hi++
	}
	idx := sort.Search(hi-lo, func(i int) bool {
		return c.axisValue(lo+i, k-1, k) >= target
	})
	return lo + idx
}

// binarySearchRightmost finds the last row with axis k-1's value <=
// target.
func binarySearchRightmost(c *cellData, k int, target int64) int {
	n := c.valueCount
	lo, hi := clampHint(c, n, target)
	for lo > 0 && c.axisValue(lo-1, k-1, k) > target {
		lo--
	}
	for hi < n && c.axisValue(hi, k-1, k) <= target {
		hi++
	}
	idx := sort.Search(hi-lo, func(i int) bool {
		return c.axisValue(lo+i, k-1, k) > target
	})
	return lo + idx - 1
}

func clampHint(c *cellData, n int, target int64) (int, int) {
	hint := int(c.slope*float64(target) + c.base)
	if hint < 0 {
		hint = 0
	}
	if hint > n {
		hint = n
	}
	return hint, hint
}

// Iterator is the explicit, restartable stepper over
// (cell_index_iter, intra_cell_cursor): O(1) per element after per-cell
// setup, no allocation on the hot path.
type Iterator struct {
	g                  *SimpleGrid
	segs               []segment
	minRange, maxRange []int64
	segIdx             int
	row                int
	started            bool
}

// Next returns the next global index in ascending Cartesian-enumeration
// order, or ok=false once the sequence is exhausted.
func (it *Iterator) Next() (int64, bool) {
	for {
		if it.segIdx >= len(it.segs) {
			return 0, false
		}
		seg := it.segs[it.segIdx]
		if !it.started {
			it.row = seg.start
			it.started = true
		}
		if it.row > seg.end {
			it.segIdx++
			it.started = false
			continue
		}
		row := it.row
		it.row++
		if seg.mask != 0 && !it.matches(seg, row) {
			continue
		}
		return it.g.globalIndex(seg.cellIdx, row), true
	}
}

func (it *Iterator) matches(seg segment, row int) bool {
	c := it.g.cells[seg.cellIdx]
	for d := 0; d < it.g.k; d++ {
		if seg.mask&(1<<d) == 0 {
			continue
		}
		v := c.axisValue(row, d, it.g.k)
		if v < it.minRange[d] || v > it.maxRange[d] {
			return false
		}
	}
	return true
}

// Reset rewinds the iterator to its first element.
func (it *Iterator) Reset() {
	it.segIdx = 0
	it.row = 0
	it.started = false
}

// CollectBitmap eagerly drains the iterator into a roaring bitmap of
// global indices, useful when a caller wants a settable/queryable result
// rather than a one-shot stream. Global indices are assumed to fit
// uint32, true for the cell sizes this index targets.
func (it *Iterator) CollectBitmap() *roaring.Bitmap {
	bm := roaring.New()
	for {
		gi, ok := it.Next()
		if !ok {
			return bm
		}
		bm.Add(uint32(gi))
	}
}

// RangeSearchParallel fans the per-cell segments produced by RangeSearch
// out across an errgroup, each goroutine filling its own contiguous
// slice, then concatenates them back in Cartesian order.
func (g *SimpleGrid) RangeSearchParallel(ctx context.Context, minRange, maxRange []int64) ([]int64, error) {
	it, err := g.RangeSearch(minRange, maxRange)
	if err != nil {
		return nil, err
	}
	segs := it.segs
	results := make([][]int64, len(segs))
	grp, ctx := errgroup.WithContext(ctx)
	for i, seg := range segs {
		i, seg := i, seg
		grp.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			c := g.cells[seg.cellIdx]
			out := make([]int64, 0, seg.end-seg.start+1)
			for row := seg.start; row <= seg.end; row++ {
				if seg.mask != 0 {
					ok := true
					for d := 0; d < g.k; d++ {
						if seg.mask&(1<<d) == 0 {
							continue
						}
						v := c.axisValue(row, d, g.k)
						if v < minRange[d] || v > maxRange[d] {
							ok = false
							break
						}
					}
					if !ok {
						continue
					}
				}
				out = append(out, g.globalIndex(seg.cellIdx, row))
			}
			results[i] = out
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]int64, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
