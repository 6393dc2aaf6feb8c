// Package relation implements an insertion-ordered named collection of
// columns: a read-only view backed by column.ReadColumn, and an
// append-only builder backed by column.AppendColumn.
package relation

import (
	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/memory"

	"github.com/vinceanalytics/coredb/column"
	"github.com/vinceanalytics/coredb/internal/coreerrors"
	"github.com/vinceanalytics/coredb/types"
)

// ReadRelation is an insertion-ordered, read-only mapping from column
// name to ReadColumn, plus the row count all its columns share.
type ReadRelation struct {
	order    []string
	cols     map[string]column.ReadColumn
	rowCount int
	closed   bool
}

// FromRoot wraps each field-vector of an Arrow record batch, preserving
// field order, as a Direct read column.
func FromRoot(rec arrow.Record) *ReadRelation {
	schema := rec.Schema()
	order := make([]string, 0, len(schema.Fields()))
	cols := make(map[string]column.ReadColumn, len(schema.Fields()))
	for i, f := range schema.Fields() {
		col := column.FromVector(f.Name, rec.Column(i))
		order = append(order, f.Name)
		cols[f.Name] = col
	}
	return &ReadRelation{order: order, cols: cols, rowCount: int(rec.NumRows())}
}

func newReadRelation(order []string, cols map[string]column.ReadColumn, rowCount int) *ReadRelation {
	return &ReadRelation{order: order, cols: cols, rowCount: rowCount}
}

// Columns returns column names in insertion order.
func (r *ReadRelation) Columns() []string { return r.order }

// Column looks up a column by name.
func (r *ReadRelation) Column(name string) (column.ReadColumn, bool) {
	c, ok := r.cols[name]
	return c, ok
}

func (r *ReadRelation) mustColumn(name string) column.ReadColumn {
	c, ok := r.cols[name]
	if !ok {
		panic("coredb: relation: no such column " + name)
	}
	return c
}

// RowCount is the relation's row count.
func (r *ReadRelation) RowCount() int { return r.rowCount }

// Close closes every column exactly once; safe to call more than once.
func (r *ReadRelation) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, name := range r.order {
		r.cols[name].Close()
	}
}

// ColumnFactory produces the AppendColumn for a name an AppendRelation
// has not seen yet.
type ColumnFactory func(name string) column.AppendColumn

// HeterogeneousFactory is the "fresh"/indirect-builder factory: it does
// not need to know a column's minor type ahead of time, which is the
// shape select and CopyRelFrom need since they discover types row by row
// via AppendFrom.
func HeterogeneousFactory(mem memory.Allocator) ColumnFactory {
	return func(name string) column.AppendColumn {
		return column.NewHeterogeneous(mem, name)
	}
}

// HomogeneousFactory is the allocator-backed fresh-builder factory for a
// caller that already knows every column's minor type up front.
func HomogeneousFactory(mem memory.Allocator, kinds map[string]types.MinorType) ColumnFactory {
	return func(name string) column.AppendColumn {
		kind, ok := kinds[name]
		if !ok {
			panic("coredb: relation: no declared minor type for column " + name)
		}
		return column.NewHomogeneous(mem, name, kind)
	}
}

// AppendRelation is an insertion-ordered mapping from column name to
// append column. The only way to extend its schema is AppendColumn.
type AppendRelation struct {
	mem     memory.Allocator
	factory ColumnFactory
	order   []string
	cols    map[string]column.AppendColumn
	closed  bool
}

func NewAppendRelation(mem memory.Allocator, factory ColumnFactory) *AppendRelation {
	return &AppendRelation{mem: mem, factory: factory, cols: make(map[string]column.AppendColumn)}
}

// AppendColumn returns the existing append column for name, or creates
// one via the relation's column factory.
func (r *AppendRelation) AppendColumn(name string) column.AppendColumn {
	if c, ok := r.cols[name]; ok {
		return c
	}
	c := r.factory(name)
	r.cols[name] = c
	r.order = append(r.order, name)
	return c
}

// Read snapshots each append column's Read() into a new ReadRelation. All
// columns must share the same value count; violating that is fatal.
func (r *AppendRelation) Read() (*ReadRelation, error) {
	cols := make(map[string]column.ReadColumn, len(r.order))
	rowCount := -1
	for _, name := range r.order {
		rc := r.cols[name].Read()
		n := rc.ValueCount()
		if rowCount == -1 {
			rowCount = n
		} else if n != rowCount {
			return nil, &coreerrors.ShapeMismatch{Column: name, Want: rowCount, Got: n}
		}
		cols[name] = rc
	}
	if rowCount == -1 {
		rowCount = 0
	}
	order := make([]string, len(r.order))
	copy(order, r.order)
	return newReadRelation(order, cols, rowCount), nil
}

// Close closes each column this relation owns, exactly once.
func (r *AppendRelation) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, name := range r.order {
		r.cols[name].Close()
	}
}
