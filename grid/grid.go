// Package grid implements a multi-dimensional learned grid index: a
// static, histogram-calibrated spatial index over fixed-arity integer
// points, with equi-partitioned cell routing and sorted intra-cell
// interpolation search on the last axis.
//
// Points route into cells by the first k-1 axes, quantile-bucketed
// against a histogram fit per axis at build time; within a cell, rows are
// sorted on the last axis and searched with an interpolation-seeded
// binary search. Cell storage wraps Arrow fixed-size-list arrays rather
// than holding plain Go slices, once a cell is sealed.
package grid

import (
	"math"
	"sort"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/google/uuid"

	"github.com/vinceanalytics/coredb/histogram"
	"github.com/vinceanalytics/coredb/internal/coreerrors"
	"github.com/vinceanalytics/coredb/internal/vlog"
)

// PointSource is a finite source of k-dimensional integer points.
type PointSource interface {
	Len() int
	Point(i int, out []int64)
}

// Points is the slice-backed PointSource for callers holding every point
// in memory already.
type Points [][]int64

func (p Points) Len() int                 { return len(p) }
func (p Points) Point(i int, out []int64) { copy(out, p[i]) }

// Options carries the build-time knobs the core takes as explicit
// arguments rather than process-wide defaults.
type Options struct {
	MaxHistogramBins int
	CellSize         int
}

func (o Options) normalize() Options {
	if o.MaxHistogramBins <= 0 {
		o.MaxHistogramBins = 64
	}
	if o.CellSize <= 0 {
		o.CellSize = 1
	}
	return o
}

type cellData struct {
	arr        *array.FixedSizeList
	values     *array.Int64
	slope      float64
	base       float64
	valueCount int
}

func (c *cellData) point(row, k int) []int64 {
	out := make([]int64, k)
	off := row * k
	for d := 0; d < k; d++ {
		out[d] = c.values.Value(off + d)
	}
	return out
}

func (c *cellData) axisValue(row, axis, k int) int64 {
	return c.values.Value(row*k + axis)
}

// SimpleGrid is the sealed, immutable spatial index built by Build.
type SimpleGrid struct {
	mem   memory.Allocator
	id    uuid.UUID
	k     int
	total int

	cellsPerDimension int
	axisShift         uint
	cellSize          int
	cellShift         uint
	numberOfCells     int

	scales [][]float64
	mins   []int64
	maxs   []int64

	cells  []*cellData
	closed bool
}

// Build fits a histogram per axis, derives the cell geometry, routes and
// sorts every point into its cell, and returns the sealed grid.
func Build(mem memory.Allocator, k int, points PointSource, opts Options) (*SimpleGrid, error) {
	if k < 2 {
		return nil, &coreerrors.ShapeMismatch{Column: "grid.k", Want: 2, Got: k}
	}
	opts = opts.normalize()
	id := uuid.New()
	total := points.Len()
	log := vlog.Component("grid").With().Str("build_id", id.String()).Logger()
	log.Debug().Int("k", k).Int("total", total).Msg("fitting histograms")

	hists := make([]*histogram.Histogram, k)
	for d := range hists {
		hists[d] = histogram.New(opts.MaxHistogramBins)
	}
	p := make([]int64, k)
	for i := 0; i < total; i++ {
		points.Point(i, p)
		for d := 0; d < k; d++ {
			hists[d].Update(float64(p[d]))
		}
	}

	cellSize := opts.CellSize
	numberOfCellsTarget := ceilDiv(total, cellSize)
	if numberOfCellsTarget < 1 {
		numberOfCellsTarget = 1
	}
	cellsPerDimension := nextPow2(int(math.Ceil(math.Pow(float64(numberOfCellsTarget), 1/float64(k-1)))))
	if cellsPerDimension < 1 {
		cellsPerDimension = 1
	}
	numberOfCells := intPow(cellsPerDimension, k-1)
	axisShift := log2(cellsPerDimension)
	cellShift := log2(cellSize << 12)

	scales := make([][]float64, k-1)
	for d := 0; d < k-1; d++ {
		scales[d] = hists[d].Uniform(cellsPerDimension)
	}
	mins := make([]int64, k)
	maxs := make([]int64, k)
	for d := 0; d < k; d++ {
		mins[d] = int64(math.Floor(hists[d].Min()))
		maxs[d] = int64(math.Ceil(hists[d].Max()))
	}
	log.Debug().
		Int("cells_per_dimension", cellsPerDimension).
		Int("number_of_cells", numberOfCells).
		Msg("geometry computed")

	buckets := make([][][]int64, numberOfCells)
	for i := 0; i < total; i++ {
		points.Point(i, p)
		idx := routeCell(p, scales, axisShift, k, cellsPerDimension)
		row := make([]int64, k)
		copy(row, p)
		buckets[idx] = append(buckets[idx], row)
	}

	cells := make([]*cellData, numberOfCells)
	span := float64(maxs[k-1] - mins[k-1])
	for idx, rows := range buckets {
		if len(rows) == 0 {
			continue
		}
		threeWayQuicksort(rows, k-1)
		var slope, base float64
		if span > 0 {
			slope = float64(len(rows)) / span
			base = -slope * float64(mins[k-1])
		}
		arr, values, err := buildFixedSizeList(mem, k, rows)
		if err != nil {
			return nil, &coreerrors.AllocationFailed{Bytes: len(rows) * k * 8, Cause: err}
		}
		cells[idx] = &cellData{arr: arr, values: values, slope: slope, base: base, valueCount: len(rows)}
	}
	log.Debug().Msg("cells populated and sorted")

	return &SimpleGrid{
		mem: mem, id: id, k: k, total: total,
		cellsPerDimension: cellsPerDimension, axisShift: axisShift,
		cellSize: cellSize, cellShift: cellShift, numberOfCells: numberOfCells,
		scales: scales, mins: mins, maxs: maxs, cells: cells,
	}, nil
}

func buildFixedSizeList(mem memory.Allocator, k int, rows [][]int64) (arr *array.FixedSizeList, values *array.Int64, err error) {
	b := array.NewFixedSizeListBuilder(mem, int32(k), arrow.PrimitiveTypes.Int64)
	defer b.Release()
	vb := b.ValueBuilder().(*array.Int64Builder)
	for _, row := range rows {
		b.Append(true)
		for _, v := range row {
			vb.Append(v)
		}
	}
	built := b.NewArray().(*array.FixedSizeList)
	return built, built.ListValues().(*array.Int64), nil
}

// routeCell packs the first k-1 axis indices as a base-cellsPerDimension
// little-endian composition, axis 0 in the low bits and axis k-2 in the
// high bits.
func routeCell(p []int64, scales [][]float64, axisShift uint, k, cellsPerDimension int) int {
	axisIdx := make([]int, k-1)
	for d := 0; d < k-1; d++ {
		ai := sort.SearchFloat64s(scales[d], float64(p[d]))
		if ai >= cellsPerDimension {
			ai = cellsPerDimension - 1
		}
		axisIdx[d] = ai
	}
	idx := 0
	for d := k - 2; d >= 0; d-- {
		idx = (idx << axisShift) | axisIdx[d]
	}
	return idx
}

// Insert and Delete are unsupported: a SimpleGrid is immutable once
// built.
func (g *SimpleGrid) Insert([]int64) error {
	return &coreerrors.OperationNotSupported{Op: "grid.insert"}
}

func (g *SimpleGrid) Delete(int64) error {
	return &coreerrors.OperationNotSupported{Op: "grid.delete"}
}

func (g *SimpleGrid) K() int          { return g.k }
func (g *SimpleGrid) Total() int      { return g.total }
func (g *SimpleGrid) CellShift() uint { return g.cellShift }

// Point decodes the k-tuple stored at global index gi.
func (g *SimpleGrid) Point(gi int64) []int64 {
	cellIdx := int(gi >> g.cellShift)
	row := int(gi & (1<<g.cellShift - 1))
	return g.cells[cellIdx].point(row, g.k)
}

func (g *SimpleGrid) globalIndex(cellIdx, row int) int64 {
	return int64(cellIdx)<<g.cellShift | int64(row)
}

// Stats is a read-only snapshot of cell population, computed on demand
// from the sealed cell set.
type Stats struct {
	NonEmptyCells int
	MinPerCell    int
	MaxPerCell    int
	MeanPerCell   float64
}

func (g *SimpleGrid) Stats() Stats {
	var s Stats
	var sum int
	first := true
	for _, c := range g.cells {
		if c == nil {
			continue
		}
		s.NonEmptyCells++
		sum += c.valueCount
		if first {
			s.MinPerCell, s.MaxPerCell = c.valueCount, c.valueCount
			first = false
			continue
		}
		if c.valueCount < s.MinPerCell {
			s.MinPerCell = c.valueCount
		}
		if c.valueCount > s.MaxPerCell {
			s.MaxPerCell = c.valueCount
		}
	}
	if s.NonEmptyCells > 0 {
		s.MeanPerCell = float64(sum) / float64(s.NonEmptyCells)
	}
	return s
}

// Close releases every cell's backing Arrow array exactly once. Safe to
// call more than once.
func (g *SimpleGrid) Close() {
	if g.closed {
		return
	}
	g.closed = true
	for _, c := range g.cells {
		if c != nil {
			c.arr.Release()
		}
	}
}
