package column

import (
	"time"

	"github.com/apache/arrow/go/v15/arrow/memory"

	"github.com/vinceanalytics/coredb/internal/coreerrors"
	"github.com/vinceanalytics/coredb/types"
	"github.com/vinceanalytics/coredb/vector"
)

// AppendColumn is the write-only builder contract for one logical column,
// implemented by HomogeneousAppendColumn and HeterogeneousAppendColumn.
type AppendColumn interface {
	Name() string
	ValueCount() int

	AppendNull()
	AppendBool(v bool)
	AppendLong(v int64)
	AppendDouble(v float64)
	AppendString(v string)
	AppendBytes(v []byte)
	AppendDate(t time.Time)
	AppendDuration(d time.Duration)
	// AppendObject dispatches on the runtime type-id of v. It fails with
	// UnsupportedValueType for any value whose type-id is not in the
	// dispatch table.
	AppendObject(v any) error
	// AppendFrom is copy_from_safe applied at the column level: it reads
	// src's leaf (vector, index) pair for row i and appends that value.
	AppendFrom(src ReadColumn, i int)
	// Read snapshots everything appended so far into a read column.
	Read() ReadColumn
	Close()
}

// valueTypeID resolves the runtime type-id of a host value. ok is false
// for any Go type outside the dispatch table.
func valueTypeID(v any) (types.TypeID, bool) {
	switch v.(type) {
	case nil:
		return types.TypeIDNull, true
	case int64:
		return types.TypeIDBigInt, true
	case int:
		return types.TypeIDBigInt, true
	case float64:
		return types.TypeIDFloat8, true
	case []byte:
		return types.TypeIDVarbinary, true
	case string:
		return types.TypeIDVarchar, true
	case bool:
		return types.TypeIDBit, true
	case time.Time:
		return types.TypeIDTimestampMilli, true
	case time.Duration:
		return types.TypeIDDuration, true
	default:
		return 0, false
	}
}

func appendDispatch(c AppendColumn, v any) error {
	id, ok := valueTypeID(v)
	if !ok {
		return &coreerrors.UnsupportedValueType{TypeID: -1, Value: v}
	}
	switch id {
	case types.TypeIDNull:
		c.AppendNull()
	case types.TypeIDBigInt:
		if n, ok := v.(int); ok {
			c.AppendLong(int64(n))
		} else {
			c.AppendLong(v.(int64))
		}
	case types.TypeIDFloat8:
		c.AppendDouble(v.(float64))
	case types.TypeIDVarbinary:
		c.AppendBytes(v.([]byte))
	case types.TypeIDVarchar:
		c.AppendString(v.(string))
	case types.TypeIDBit:
		c.AppendBool(v.(bool))
	case types.TypeIDTimestampMilli:
		c.AppendDate(v.(time.Time))
	case types.TypeIDDuration:
		c.AppendDuration(v.(time.Duration))
	default:
		return &coreerrors.UnsupportedValueType{TypeID: int(id), Value: v}
	}
	return nil
}

// ---- Homogeneous ----

// HomogeneousAppendColumn is bound at construction to one minor type with
// its own freshly-allocated value vector.
type HomogeneousAppendColumn struct {
	name string
	kind types.MinorType
	b    *vector.Builder
}

func NewHomogeneous(mem memory.Allocator, name string, kind types.MinorType) *HomogeneousAppendColumn {
	return &HomogeneousAppendColumn{name: name, kind: kind, b: vector.NewBuilder(mem, kind)}
}

var _ AppendColumn = (*HomogeneousAppendColumn)(nil)

func (c *HomogeneousAppendColumn) Name() string  { return c.name }
func (c *HomogeneousAppendColumn) ValueCount() int { return c.b.Len() }

func (c *HomogeneousAppendColumn) AppendNull()               { c.b.AppendNull() }
func (c *HomogeneousAppendColumn) AppendBool(v bool)          { c.b.AppendBool(v) }
func (c *HomogeneousAppendColumn) AppendLong(v int64)         { c.b.AppendLong(v) }
func (c *HomogeneousAppendColumn) AppendDouble(v float64)     { c.b.AppendDouble(v) }
func (c *HomogeneousAppendColumn) AppendString(v string)      { c.b.AppendString(v) }
func (c *HomogeneousAppendColumn) AppendBytes(v []byte)       { c.b.AppendBytes(v) }
func (c *HomogeneousAppendColumn) AppendDate(t time.Time)     { c.b.AppendDate(t) }
func (c *HomogeneousAppendColumn) AppendDuration(d time.Duration) { c.b.AppendDuration(d) }

func (c *HomogeneousAppendColumn) AppendObject(v any) error { return appendDispatch(c, v) }

// AppendFrom reads src.InternalVector(i)/InternalIndex(i) and copies that
// value into the next appended row.
func (c *HomogeneousAppendColumn) AppendFrom(src ReadColumn, i int) {
	v := src.InternalVector(i)
	idx := src.InternalIndex(i)
	c.b.AppendFrom(v, idx)
}

func (c *HomogeneousAppendColumn) Read() ReadColumn {
	v := c.b.Finish()
	return &directColumn{name: c.name, v: v, owns: true}
}

func (c *HomogeneousAppendColumn) Close() { c.b.Release() }

// ---- Heterogeneous ----

type pendingAppend struct {
	kind types.MinorType
	row  int
}

// HeterogeneousAppendColumn lazily allocates one value vector per minor
// type encountered and tracks, for every appended logical row, the pair
// (vector, row-in-that-vector) so Read() yields a materialized read
// column of length equal to appends so far.
//
// Every append, even of a minor type already seen, records a new trail
// entry, because Read relies on the trail being parallel to the logical
// row sequence.
type HeterogeneousAppendColumn struct {
	mem      memory.Allocator
	name     string
	builders map[types.MinorType]*vector.Builder
	order    []types.MinorType
	trail    []pendingAppend
}

func NewHeterogeneous(mem memory.Allocator, name string) *HeterogeneousAppendColumn {
	return &HeterogeneousAppendColumn{
		mem:      mem,
		name:     name,
		builders: make(map[types.MinorType]*vector.Builder),
	}
}

var _ AppendColumn = (*HeterogeneousAppendColumn)(nil)

func (c *HeterogeneousAppendColumn) Name() string   { return c.name }
func (c *HeterogeneousAppendColumn) ValueCount() int { return len(c.trail) }

func (c *HeterogeneousAppendColumn) builderFor(kind types.MinorType) *vector.Builder {
	b, ok := c.builders[kind]
	if !ok {
		b = vector.NewBuilder(c.mem, kind)
		c.builders[kind] = b
		c.order = append(c.order, kind)
	}
	return b
}

func (c *HeterogeneousAppendColumn) record(kind types.MinorType, row int) {
	c.trail = append(c.trail, pendingAppend{kind: kind, row: row})
}

func (c *HeterogeneousAppendColumn) AppendNull() {
	b := c.builderFor(types.Null)
	row := b.Len()
	b.AppendNull()
	c.record(types.Null, row)
}

func (c *HeterogeneousAppendColumn) AppendBool(v bool) {
	b := c.builderFor(types.Bit)
	row := b.Len()
	b.AppendBool(v)
	c.record(types.Bit, row)
}

func (c *HeterogeneousAppendColumn) AppendLong(v int64) {
	b := c.builderFor(types.BigInt)
	row := b.Len()
	b.AppendLong(v)
	c.record(types.BigInt, row)
}

func (c *HeterogeneousAppendColumn) AppendDouble(v float64) {
	b := c.builderFor(types.Float8)
	row := b.Len()
	b.AppendDouble(v)
	c.record(types.Float8, row)
}

func (c *HeterogeneousAppendColumn) AppendString(v string) {
	b := c.builderFor(types.Varchar)
	row := b.Len()
	b.AppendString(v)
	c.record(types.Varchar, row)
}

func (c *HeterogeneousAppendColumn) AppendBytes(v []byte) {
	b := c.builderFor(types.Varbinary)
	row := b.Len()
	b.AppendBytes(v)
	c.record(types.Varbinary, row)
}

func (c *HeterogeneousAppendColumn) AppendDate(t time.Time) {
	b := c.builderFor(types.TimestampMilli)
	row := b.Len()
	b.AppendDate(t)
	c.record(types.TimestampMilli, row)
}

func (c *HeterogeneousAppendColumn) AppendDuration(d time.Duration) {
	b := c.builderFor(types.Duration)
	row := b.Len()
	b.AppendDuration(d)
	c.record(types.Duration, row)
}

func (c *HeterogeneousAppendColumn) AppendObject(v any) error { return appendDispatch(c, v) }

func (c *HeterogeneousAppendColumn) AppendFrom(src ReadColumn, i int) {
	v := src.InternalVector(i)
	idx := src.InternalIndex(i)
	kind := v.MinorType()
	b := c.builderFor(kind)
	row := b.Len()
	b.AppendFrom(v, idx)
	c.record(kind, row)
}

// Read returns a Materialized read column referencing every minor-type
// vector this column has ever allocated; the returned view keeps them
// alive until closed.
func (c *HeterogeneousAppendColumn) Read() ReadColumn {
	finished := make(map[types.MinorType]*vector.Vector, len(c.builders))
	for kind, b := range c.builders {
		finished[kind] = b.Finish()
	}
	vecs := make([]*vector.Vector, len(c.trail))
	idxs := make([]int, len(c.trail))
	for i, pa := range c.trail {
		vecs[i] = finished[pa.kind]
		idxs[i] = pa.row
	}
	kinds := make([]types.MinorType, len(c.order))
	copy(kinds, c.order)
	col := Materialize(c.name, kinds, vecs, idxs)
	// Materialize retained its own reference; drop the one Finish handed us.
	for _, v := range finished {
		v.Release()
	}
	return col
}

func (c *HeterogeneousAppendColumn) Close() {
	for _, b := range c.builders {
		b.Release()
	}
}
