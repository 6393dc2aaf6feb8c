package vector

import (
	"testing"

	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/vinceanalytics/coredb/types"
)

func TestWrapInt64AndGetObject(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.AppendValues([]int64{1, 2, 3}, nil)
	arr := b.NewArray()
	defer arr.Release()

	v := Wrap(arr)
	require.Equal(t, types.BigInt, v.MinorType())
	require.Equal(t, 3, v.ValueCount())
	require.Equal(t, int64(2), v.GetLong(1))
	require.Equal(t, int64(2), v.GetObject(1))
}

func TestWrapNullIsDistinguishedNil(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.Append(1)
	b.AppendNull()
	arr := b.NewArray()
	defer arr.Release()

	v := Wrap(arr)
	require.True(t, v.IsNull(1))
	require.Nil(t, v.GetObject(1))
}

func TestBuilderFinishIsCumulative(t *testing.T) {
	mem := memory.NewGoAllocator()
	bld := NewBuilder(mem, types.BigInt)
	bld.AppendLong(1)
	bld.AppendLong(2)

	first := bld.Finish()
	require.Equal(t, 2, first.ValueCount())
	first.Release()

	bld.AppendLong(3)
	second := bld.Finish()
	defer second.Release()
	require.Equal(t, 3, second.ValueCount())
	require.Equal(t, int64(1), second.GetLong(0))
	require.Equal(t, int64(3), second.GetLong(2))

	bld.Release()
}

func TestBuilderAppendFromCopiesValueAndNullness(t *testing.T) {
	mem := memory.NewGoAllocator()
	src := NewBuilder(mem, types.Varchar)
	src.AppendString("a")
	src.AppendNull()
	srcVec := src.Finish()
	defer srcVec.Release()
	defer src.Release()

	dst := NewBuilder(mem, types.Varchar)
	defer dst.Release()
	dst.AppendFrom(srcVec, 0)
	dst.AppendFrom(srcVec, 1)
	out := dst.Finish()
	defer out.Release()

	require.Equal(t, "a", out.GetString(0))
	require.True(t, out.IsNull(1))
}
