// Package vector wraps Apache Arrow arrays as the "value vector" from spec
// section 3: an opaque, reference-counted buffer sequence with a validity
// bitmap, an optional offset buffer, and a data buffer, all supplied by
// apache/arrow/go/v15/arrow/array. On top of Arrow this package adds the
// minor-type-keyed typed accessors the column layer needs, a Builder that
// can be finished repeatedly, and a dense-union accessor.
package vector

import (
	"fmt"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"

	"github.com/vinceanalytics/coredb/types"
)

// Vector is a read-only view over one Arrow array, tagged with the minor
// type the column layer should treat it as.
type Vector struct {
	arr  arrow.Array
	kind types.MinorType
}

// Wrap adopts an externally produced arrow.Array (e.g. a field vector from
// a record batch handed to read_relation.from_root) as a Vector. Wrap does
// not retain arr; a read column built over it retains its own reference and
// releases only that one on Close, leaving the caller's reference intact.
func Wrap(arr arrow.Array) *Vector {
	kind, ok := types.MinorTypeOf(arr.DataType())
	if !ok {
		panic(fmt.Sprintf("coredb: vector: unsupported arrow type %s", arr.DataType()))
	}
	return &Vector{arr: arr, kind: kind}
}

// Retain/Release forward to the underlying Arrow array's refcount.
func (v *Vector) Retain()  { v.arr.Retain() }
func (v *Vector) Release() { v.arr.Release() }

func (v *Vector) Arrow() arrow.Array        { return v.arr }
func (v *Vector) MinorType() types.MinorType { return v.kind }
func (v *Vector) ValueCount() int           { return v.arr.Len() }
func (v *Vector) IsNull(i int) bool         { return v.arr.IsNull(i) }
func (v *Vector) IsValid(i int) bool        { return v.arr.IsValid(i) }

func (v *Vector) GetBool(i int) bool {
	return v.arr.(*array.Boolean).Value(i)
}

func (v *Vector) GetLong(i int) int64 {
	switch a := v.arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	default:
		panic(fmt.Sprintf("coredb: vector: GetLong on %T", v.arr))
	}
}

func (v *Vector) GetDouble(i int) float64 {
	return v.arr.(*array.Float64).Value(i)
}

func (v *Vector) GetString(i int) string {
	return v.arr.(*array.String).Value(i)
}

func (v *Vector) GetBytes(i int) []byte {
	switch a := v.arr.(type) {
	case *array.Binary:
		return a.Value(i)
	case *array.String:
		return []byte(a.Value(i))
	default:
		panic(fmt.Sprintf("coredb: vector: GetBytes on %T", v.arr))
	}
}

func (v *Vector) GetDate(i int) time.Time {
	a := v.arr.(*array.Timestamp)
	unit := a.DataType().(*arrow.TimestampType).Unit
	return a.Value(i).ToTime(unit)
}

func (v *Vector) GetDuration(i int) time.Duration {
	a := v.arr.(*array.Duration)
	unit := a.DataType().(*arrow.DurationType).Unit
	return time.Duration(a.Value(i)) * unit.Multiplier()
}

// GetObject dispatches on the vector's minor type and returns the
// canonical host value, including null as a distinguished nil.
func (v *Vector) GetObject(i int) any {
	if v.arr.IsNull(i) {
		return nil
	}
	switch v.kind {
	case types.Null:
		return nil
	case types.Bit:
		return v.GetBool(i)
	case types.TinyInt, types.BigInt:
		return v.GetLong(i)
	case types.Float8:
		return v.GetDouble(i)
	case types.Varchar:
		return v.GetString(i)
	case types.Varbinary:
		return v.GetBytes(i)
	case types.TimestampMilli:
		return v.GetDate(i)
	case types.Duration:
		return v.GetDuration(i)
	default:
		panic(fmt.Sprintf("coredb: vector: GetObject unknown minor type %s", v.kind))
	}
}
