package column

import (
	"testing"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/vinceanalytics/coredb/types"
)

func buildDenseUnion(mem memory.Allocator) *array.DenseUnion {
	codes := []arrow.UnionTypeCode{types.TypeIDBigInt, types.TypeIDVarchar}
	fields := []arrow.Field{
		{Name: "bigint", Type: arrow.PrimitiveTypes.Int64},
		{Name: "varchar", Type: arrow.BinaryTypes.String},
	}
	ut := arrow.DenseUnionOf(fields, codes)
	b := array.NewDenseUnionBuilder(mem, ut)
	defer b.Release()

	b.Append(types.TypeIDBigInt)
	b.Child(0).(*array.Int64Builder).Append(42)
	b.Append(types.TypeIDVarchar)
	b.Child(1).(*array.StringBuilder).Append("hi")
	b.Append(types.TypeIDBigInt)
	b.Child(0).(*array.Int64Builder).Append(7)

	return b.NewArray().(*array.DenseUnion)
}

func buildInt64Array(mem memory.Allocator, vals []int64) *array.Int64 {
	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray().(*array.Int64)
}

func TestDirectColumnFromVector(t *testing.T) {
	mem := memory.NewGoAllocator()
	arr := buildInt64Array(mem, []int64{10, 20, 30})
	defer arr.Release()

	col := FromVector("n", arr)
	defer col.Close()

	require.Equal(t, 3, col.ValueCount())
	require.Equal(t, int64(20), col.GetLong(1))
	require.Equal(t, []types.MinorType{types.BigInt}, col.MinorTypes())
}

func TestIndirectColumnAppliesIndices(t *testing.T) {
	mem := memory.NewGoAllocator()
	arr := buildInt64Array(mem, []int64{10, 20, 30, 40})
	defer arr.Release()

	col := FromVectorWithIndices("n", arr, []int32{3, 1})
	defer col.Close()

	require.Equal(t, 2, col.ValueCount())
	require.Equal(t, int64(40), col.GetLong(0))
	require.Equal(t, int64(20), col.GetLong(1))
}

func TestHomogeneousAppendColumnRoundTrips(t *testing.T) {
	mem := memory.NewGoAllocator()
	c := NewHomogeneous(mem, "x", types.BigInt)
	c.AppendLong(1)
	c.AppendLong(2)
	c.AppendNull()

	rc := c.Read()
	defer rc.Close()
	defer c.Close()

	require.Equal(t, 3, rc.ValueCount())
	require.Equal(t, int64(1), rc.GetLong(0))
}

func TestHeterogeneousAppendColumnPreservesRowOrder(t *testing.T) {
	mem := memory.NewGoAllocator()
	c := NewHeterogeneous(mem, "mixed")
	c.AppendLong(7)
	c.AppendString("hello")
	c.AppendDouble(3.5)
	c.AppendLong(9)

	rc := c.Read()
	defer rc.Close()
	defer c.Close()

	require.Equal(t, 4, rc.ValueCount())
	require.Equal(t, int64(7), rc.GetLong(0))
	require.Equal(t, "hello", rc.GetString(1))
	require.Equal(t, 3.5, rc.GetDouble(2))
	require.Equal(t, int64(9), rc.GetLong(3))
	require.ElementsMatch(t, []types.MinorType{types.BigInt, types.Varchar, types.Float8}, rc.MinorTypes())
}

func TestAppendObjectDispatchesOnRuntimeType(t *testing.T) {
	mem := memory.NewGoAllocator()
	c := NewHeterogeneous(mem, "obj")
	require.NoError(t, c.AppendObject(int64(5)))
	require.NoError(t, c.AppendObject("s"))
	err := c.AppendObject(struct{}{})
	require.Error(t, err)

	rc := c.Read()
	defer rc.Close()
	defer c.Close()
	require.Equal(t, 2, rc.ValueCount())
}

func TestMaterializeDedupesVectorsByIdentity(t *testing.T) {
	mem := memory.NewGoAllocator()
	src := NewHeterogeneous(mem, "src")
	src.AppendLong(1)
	src.AppendLong(2)
	src.AppendString("a")
	srcRead := src.Read()
	defer srcRead.Close()
	defer src.Close()

	dst := NewHeterogeneous(mem, "dst")
	dst.AppendFrom(srcRead, 0)
	dst.AppendFrom(srcRead, 2)
	dst.AppendFrom(srcRead, 1)
	dstRead := dst.Read()
	defer dstRead.Close()
	defer dst.Close()

	require.Equal(t, 3, dstRead.ValueCount())
	require.Equal(t, int64(1), dstRead.GetLong(0))
	require.Equal(t, "a", dstRead.GetString(1))
	require.Equal(t, int64(2), dstRead.GetLong(2))

	mc, ok := dstRead.(*materializedColumn)
	require.True(t, ok)
	require.Len(t, mc.owns, 2)
}

func TestDenseUnionColumnDispatchesPerRowChild(t *testing.T) {
	mem := memory.NewGoAllocator()
	du := buildDenseUnion(mem)
	defer du.Release()

	col := FromVector("u", du)
	defer col.Close()

	require.Equal(t, 3, col.ValueCount())
	require.ElementsMatch(t, []types.MinorType{types.BigInt, types.Varchar}, col.MinorTypes())

	require.Equal(t, int64(42), col.GetLong(0))
	require.Equal(t, "hi", col.GetString(1))
	require.Equal(t, int64(7), col.GetLong(2))

	require.Equal(t, int64(42), col.GetObject(0))
	require.Equal(t, "hi", col.GetObject(1))

	v0 := col.InternalVector(0)
	require.Equal(t, types.BigInt, v0.MinorType())
	require.Equal(t, 0, col.InternalIndex(0))
	v1 := col.InternalVector(1)
	require.Equal(t, types.Varchar, v1.MinorType())
	require.Equal(t, 0, col.InternalIndex(1))
	v2 := col.InternalVector(2)
	require.Equal(t, types.BigInt, v2.MinorType())
	require.Equal(t, 1, col.InternalIndex(2))
}

func TestIndirectDenseUnionColumnAppliesIndices(t *testing.T) {
	mem := memory.NewGoAllocator()
	du := buildDenseUnion(mem)
	defer du.Release()

	col := FromVectorWithIndices("u", du, []int32{2, 0, 1})
	defer col.Close()

	require.Equal(t, 3, col.ValueCount())
	require.ElementsMatch(t, []types.MinorType{types.BigInt, types.Varchar}, col.MinorTypes())

	require.Equal(t, int64(7), col.GetLong(0))
	require.Equal(t, int64(42), col.GetLong(1))
	require.Equal(t, "hi", col.GetString(2))

	v0 := col.InternalVector(0)
	require.Equal(t, types.BigInt, v0.MinorType())
	require.Equal(t, 1, col.InternalIndex(0))
}

func TestCloseIsIdempotent(t *testing.T) {
	mem := memory.NewGoAllocator()
	arr := buildInt64Array(mem, []int64{1})
	defer arr.Release()
	col := FromVector("n", arr)
	col.Close()
	require.NotPanics(t, col.Close)
}
