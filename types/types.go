// Package types is the arrow-type <-> minor-type <-> type-id <-> host-value
// bijection used across vector, column and relation.
package types

import (
	"fmt"

	"github.com/apache/arrow/go/v15/arrow"
)

// MinorType is the closed enumeration of physical value representations
// the engine understands.
type MinorType uint8

const (
	Null MinorType = iota
	Bit
	TinyInt
	BigInt
	Float8
	Varchar
	Varbinary
	TimestampMilli
	Duration
)

func (m MinorType) String() string {
	switch m {
	case Null:
		return "NULL"
	case Bit:
		return "BIT"
	case TinyInt:
		return "TINYINT"
	case BigInt:
		return "BIGINT"
	case Float8:
		return "FLOAT8"
	case Varchar:
		return "VARCHAR"
	case Varbinary:
		return "VARBINARY"
	case TimestampMilli:
		return "TIMESTAMP_MILLI"
	case Duration:
		return "DURATION"
	default:
		return fmt.Sprintf("MinorType(%d)", uint8(m))
	}
}

// TypeID is the small stable integer identifying a minor type inside a
// tagged union's per-row type-id byte. The values below are load-bearing:
// they are the wire discriminants the append-object dispatch table is
// keyed on.
type TypeID = arrow.UnionTypeCode

const (
	TypeIDNull           TypeID = 1
	TypeIDBigInt         TypeID = 2
	TypeIDFloat8         TypeID = 3
	TypeIDVarbinary      TypeID = 4
	TypeIDVarchar        TypeID = 5
	TypeIDBit            TypeID = 6
	TypeIDTimestampMilli TypeID = 10
	TypeIDDuration       TypeID = 18
)

// minorByTypeID and typeIDByMinor are the two halves of the bijection
// between MinorType and TypeID.
var minorByTypeID = map[TypeID]MinorType{
	TypeIDNull:           Null,
	TypeIDBigInt:         BigInt,
	TypeIDFloat8:         Float8,
	TypeIDVarbinary:      Varbinary,
	TypeIDVarchar:        Varchar,
	TypeIDBit:            Bit,
	TypeIDTimestampMilli: TimestampMilli,
	TypeIDDuration:       Duration,
}

var typeIDByMinor = func() map[MinorType]TypeID {
	m := make(map[MinorType]TypeID, len(minorByTypeID))
	for id, minor := range minorByTypeID {
		m[minor] = id
	}
	return m
}()

// MinorTypeForID resolves a tagged-union discriminant to a MinorType. ok
// is false for any type-id outside the dispatch table.
func MinorTypeForID(id TypeID) (MinorType, bool) {
	m, ok := minorByTypeID[id]
	return m, ok
}

// TypeIDFor resolves a MinorType to its tagged-union discriminant.
func TypeIDFor(m MinorType) (TypeID, bool) {
	id, ok := typeIDByMinor[m]
	return id, ok
}

// ArrowType returns the arrow.DataType backing a MinorType's value vector.
func ArrowType(m MinorType) arrow.DataType {
	switch m {
	case Null:
		return arrow.Null
	case Bit:
		return arrow.FixedWidthTypes.Boolean
	case TinyInt:
		return arrow.PrimitiveTypes.Int8
	case BigInt:
		return arrow.PrimitiveTypes.Int64
	case Float8:
		return arrow.PrimitiveTypes.Float64
	case Varchar:
		return arrow.BinaryTypes.String
	case Varbinary:
		return arrow.BinaryTypes.Binary
	case TimestampMilli:
		return arrow.FixedWidthTypes.Timestamp_ms
	case Duration:
		return arrow.FixedWidthTypes.Duration_ms
	default:
		panic("coredb: unknown minor type " + m.String())
	}
}

// MinorTypeOf resolves an arrow.DataType back to a MinorType. Used when a
// read column wraps an externally supplied Arrow record batch (from_root)
// whose schema was not produced by this package.
func MinorTypeOf(t arrow.DataType) (MinorType, bool) {
	switch t.ID() {
	case arrow.NULL:
		return Null, true
	case arrow.BOOL:
		return Bit, true
	case arrow.INT8:
		return TinyInt, true
	case arrow.INT64:
		return BigInt, true
	case arrow.FLOAT64:
		return Float8, true
	case arrow.STRING, arrow.LARGE_STRING:
		return Varchar, true
	case arrow.BINARY, arrow.LARGE_BINARY:
		return Varbinary, true
	case arrow.TIMESTAMP:
		return TimestampMilli, true
	case arrow.DURATION:
		return Duration, true
	default:
		return 0, false
	}
}

// KTuple is the arrow.DataType for a fixed-size list of k BIGINT values,
// used to back one grid cell.
func KTuple(k int) arrow.DataType {
	return arrow.FixedSizeListOf(int32(k), arrow.PrimitiveTypes.Int64)
}
