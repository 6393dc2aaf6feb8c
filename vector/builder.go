package vector

import (
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"

	"github.com/vinceanalytics/coredb/types"
)

// Builder accumulates values for one minor type and can be snapshotted
// into a Vector at any point via Finish, without losing rows appended
// before the snapshot.
//
// Arrow's own array.Builder is drain-on-build, so Builder keeps every
// already-sealed chunk around and concatenates them with the open chunk
// on Finish.
type Builder struct {
	mem    memory.Allocator
	kind   types.MinorType
	cur    array.Builder
	chunks []arrow.Array
	count  int
}

// NewBuilder allocates a fresh, empty value vector builder bound to one
// minor type at construction.
func NewBuilder(mem memory.Allocator, kind types.MinorType) *Builder {
	return &Builder{mem: mem, kind: kind, cur: newArrowBuilder(mem, kind)}
}

func newArrowBuilder(mem memory.Allocator, kind types.MinorType) array.Builder {
	switch kind {
	case types.Null:
		return array.NewNullBuilder(mem)
	case types.Bit:
		return array.NewBooleanBuilder(mem)
	case types.TinyInt:
		return array.NewInt8Builder(mem)
	case types.BigInt:
		return array.NewInt64Builder(mem)
	case types.Float8:
		return array.NewFloat64Builder(mem)
	case types.Varchar:
		return array.NewStringBuilder(mem)
	case types.Varbinary:
		return array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	case types.TimestampMilli:
		return array.NewTimestampBuilder(mem, arrow.FixedWidthTypes.Timestamp_ms.(*arrow.TimestampType))
	case types.Duration:
		return array.NewDurationBuilder(mem, arrow.FixedWidthTypes.Duration_ms.(*arrow.DurationType))
	default:
		panic("coredb: vector: cannot build " + kind.String())
	}
}

func (b *Builder) MinorType() types.MinorType { return b.kind }
func (b *Builder) Len() int                   { return b.count }

func (b *Builder) AppendNull() {
	b.cur.AppendNull()
	b.count++
}

func (b *Builder) AppendBool(v bool) {
	b.cur.(*array.BooleanBuilder).Append(v)
	b.count++
}

func (b *Builder) AppendLong(v int64) {
	switch e := b.cur.(type) {
	case *array.Int64Builder:
		e.Append(v)
	case *array.Int8Builder:
		e.Append(int8(v))
	}
	b.count++
}

func (b *Builder) AppendDouble(v float64) {
	b.cur.(*array.Float64Builder).Append(v)
	b.count++
}

func (b *Builder) AppendString(v string) {
	b.cur.(*array.StringBuilder).Append(v)
	b.count++
}

func (b *Builder) AppendBytes(v []byte) {
	b.cur.(*array.BinaryBuilder).Append(v)
	b.count++
}

func (b *Builder) AppendDate(t time.Time) {
	b.cur.(*array.TimestampBuilder).Append(arrow.Timestamp(t.UnixMilli()))
	b.count++
}

func (b *Builder) AppendDuration(d time.Duration) {
	b.cur.(*array.DurationBuilder).Append(arrow.Duration(d.Milliseconds()))
	b.count++
}

// AppendFrom reads the value at src[i] through its typed leaf accessor
// and appends it to this builder, preserving nullness. src's minor type
// must match this builder's; callers resolve the leaf vector via
// ReadColumn.InternalVector first.
func (b *Builder) AppendFrom(src *Vector, i int) {
	if src.IsNull(i) {
		b.AppendNull()
		return
	}
	switch b.kind {
	case types.Bit:
		b.AppendBool(src.GetBool(i))
	case types.TinyInt, types.BigInt:
		b.AppendLong(src.GetLong(i))
	case types.Float8:
		b.AppendDouble(src.GetDouble(i))
	case types.Varchar:
		b.AppendString(src.GetString(i))
	case types.Varbinary:
		b.AppendBytes(src.GetBytes(i))
	case types.TimestampMilli:
		b.AppendDate(src.GetDate(i))
	case types.Duration:
		b.AppendDuration(src.GetDuration(i))
	default:
		b.AppendNull()
	}
}

// Finish seals the currently open chunk and returns a Vector over every
// value appended since the builder was created, then reopens a fresh
// chunk so appends may continue. The returned Vector owns its own backing
// array and must be released independently of future Finish calls.
func (b *Builder) Finish() *Vector {
	if b.cur.Len() > 0 {
		b.chunks = append(b.chunks, b.cur.NewArray())
		b.cur = newArrowBuilder(b.mem, b.kind)
	}
	var arr arrow.Array
	switch len(b.chunks) {
	case 0:
		arr = b.cur.NewArray()
		b.cur = newArrowBuilder(b.mem, b.kind)
	case 1:
		arr = b.chunks[0]
		arr.Retain()
	default:
		merged, err := array.Concatenate(b.chunks, b.mem)
		if err != nil {
			panic("coredb: vector: concatenate chunks: " + err.Error())
		}
		arr = merged
	}
	return &Vector{arr: arr, kind: b.kind}
}

// Release drops every sealed chunk this builder is holding on to.
func (b *Builder) Release() {
	for _, c := range b.chunks {
		c.Release()
	}
	b.chunks = nil
	b.cur.Release()
}
