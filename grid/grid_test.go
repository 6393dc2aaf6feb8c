package grid

import (
	"context"
	"testing"

	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/stretchr/testify/require"
)

func decodePoints(t *testing.T, g *SimpleGrid, it *Iterator) [][]int64 {
	t.Helper()
	var out [][]int64
	for {
		gi, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, g.Point(gi))
	}
	return out
}

func TestGridPointLookup(t *testing.T) {
	mem := memory.NewGoAllocator()
	pts := Points{
		{0, 0, 0, 0},
		{0, 0, 0, 1},
		{10, 10, 10, 10},
		{10, 10, 10, 11},
	}
	g, err := Build(mem, 4, pts, Options{CellSize: 16, MaxHistogramBins: 32})
	require.NoError(t, err)
	defer g.Close()

	it, err := g.RangeSearch([]int64{10, 10, 10, 10}, []int64{10, 10, 10, 11})
	require.NoError(t, err)

	got := decodePoints(t, g, it)
	require.Equal(t, [][]int64{{10, 10, 10, 10}, {10, 10, 10, 11}}, got)
}

func TestGridCoveringYieldsAllPointsExactlyOnce(t *testing.T) {
	mem := memory.NewGoAllocator()
	pts := Points{
		{0, 0, 0, 0}, {1, 2, 3, 4}, {5, 5, 5, 5}, {9, 1, 2, 3},
		{2, 2, 2, 2}, {7, 7, 7, 7}, {3, 4, 5, 6}, {8, 8, 8, 8},
	}
	g, err := Build(mem, 4, pts, Options{CellSize: 2, MaxHistogramBins: 16})
	require.NoError(t, err)
	defer g.Close()

	it, err := g.RangeSearch([]int64{0, 0, 0, 0}, []int64{9, 9, 9, 9})
	require.NoError(t, err)

	seen := map[int64]bool{}
	count := 0
	for {
		gi, ok := it.Next()
		if !ok {
			break
		}
		require.False(t, seen[gi], "duplicate global index %d", gi)
		seen[gi] = true
		count++
	}
	require.Equal(t, len(pts), count)
}

func TestGridIntraCellMonotone(t *testing.T) {
	mem := memory.NewGoAllocator()
	pts := Points{
		{0, 0, 0, 9}, {0, 0, 0, 1}, {0, 0, 0, 5},
		{9, 9, 9, 3}, {9, 9, 9, 0}, {9, 9, 9, 8},
	}
	g, err := Build(mem, 4, pts, Options{CellSize: 4, MaxHistogramBins: 16})
	require.NoError(t, err)
	defer g.Close()

	it, err := g.RangeSearch([]int64{0, 0, 0, 0}, []int64{9, 9, 9, 9})
	require.NoError(t, err)

	lastCell := int64(-1)
	var lastAxis int64
	for {
		gi, ok := it.Next()
		if !ok {
			break
		}
		cellIdx := gi >> g.CellShift()
		p := g.Point(gi)
		if cellIdx == lastCell {
			require.GreaterOrEqual(t, p[3], lastAxis)
		}
		lastCell = cellIdx
		lastAxis = p[3]
	}
}

func TestGridPartialAxisRangeNarrowsToBoundaryCells(t *testing.T) {
	mem := memory.NewGoAllocator()
	pts := Points{}
	for a := int64(0); a < 8; a++ {
		for b := int64(0); b < 4; b++ {
			pts = append(pts, []int64{a, b, 0, b})
		}
	}
	g, err := Build(mem, 4, pts, Options{CellSize: 4, MaxHistogramBins: 16})
	require.NoError(t, err)
	defer g.Close()

	it, err := g.RangeSearch([]int64{0, 0, 0, 0}, []int64{0, 3, 0, 3})
	require.NoError(t, err)

	got := decodePoints(t, g, it)
	for _, p := range got {
		require.Equal(t, int64(0), p[0])
	}
}

func TestGridRangeDisjointYieldsEmptyIterator(t *testing.T) {
	mem := memory.NewGoAllocator()
	pts := Points{{0, 0, 0, 0}, {1, 1, 1, 1}}
	g, err := Build(mem, 4, pts, Options{CellSize: 2, MaxHistogramBins: 8})
	require.NoError(t, err)
	defer g.Close()

	it, err := g.RangeSearch([]int64{100, 100, 100, 100}, []int64{200, 200, 200, 200})
	require.NoError(t, err)

	_, ok := it.Next()
	require.False(t, ok)
}

func TestGridInsertDeleteUnsupported(t *testing.T) {
	mem := memory.NewGoAllocator()
	g, err := Build(mem, 3, Points{{0, 0, 0}}, Options{CellSize: 1})
	require.NoError(t, err)
	defer g.Close()

	require.Error(t, g.Insert([]int64{1, 1, 1}))
	require.Error(t, g.Delete(0))
}

func TestGridCloseIsIdempotent(t *testing.T) {
	mem := memory.NewGoAllocator()
	g, err := Build(mem, 2, Points{{0, 0}, {1, 1}}, Options{CellSize: 1})
	require.NoError(t, err)
	g.Close()
	require.NotPanics(t, g.Close)
}

func TestRangeSearchParallelMatchesSequential(t *testing.T) {
	mem := memory.NewGoAllocator()
	pts := Points{}
	for a := int64(0); a < 6; a++ {
		for b := int64(0); b < 6; b++ {
			pts = append(pts, []int64{a, b, a + b})
		}
	}
	g, err := Build(mem, 3, pts, Options{CellSize: 4, MaxHistogramBins: 16})
	require.NoError(t, err)
	defer g.Close()

	seqIt, err := g.RangeSearch([]int64{1, 1, 0}, []int64{4, 4, 20})
	require.NoError(t, err)
	var seq []int64
	for {
		gi, ok := seqIt.Next()
		if !ok {
			break
		}
		seq = append(seq, gi)
	}

	par, err := g.RangeSearchParallel(context.Background(), []int64{1, 1, 0}, []int64{4, 4, 20})
	require.NoError(t, err)
	require.ElementsMatch(t, seq, par)
}

func TestGridStatsSummarizesPopulation(t *testing.T) {
	mem := memory.NewGoAllocator()
	pts := Points{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	g, err := Build(mem, 2, pts, Options{CellSize: 2, MaxHistogramBins: 8})
	require.NoError(t, err)
	defer g.Close()

	s := g.Stats()
	require.Greater(t, s.NonEmptyCells, 0)
	require.GreaterOrEqual(t, s.MaxPerCell, s.MinPerCell)
	require.Greater(t, s.MeanPerCell, 0.0)
}
