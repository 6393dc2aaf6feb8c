package vector

import (
	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"

	"github.com/vinceanalytics/coredb/types"
)

// DenseUnion wraps an Arrow dense-union array: a per-row type-id byte and
// a per-row offset into the child vector of that type-id.
type DenseUnion struct {
	arr *array.DenseUnion
}

func WrapDenseUnion(arr *array.DenseUnion) *DenseUnion {
	return &DenseUnion{arr: arr}
}

func (u *DenseUnion) Retain()          { u.arr.Retain() }
func (u *DenseUnion) Release()         { u.arr.Release() }
func (u *DenseUnion) ValueCount() int  { return u.arr.Len() }
func (u *DenseUnion) Arrow() *array.DenseUnion { return u.arr }

// TypeID returns the tagged-union discriminant for row i.
func (u *DenseUnion) TypeID(row int) types.TypeID {
	return u.arr.TypeCode(row)
}

// Offset returns the offset of row i into the child of TypeID(i).
func (u *DenseUnion) Offset(row int) int {
	return int(u.arr.ValueOffset(row))
}

// Child returns the leaf value vector for a type-id, or nil if the union
// carries no child for that discriminant.
func (u *DenseUnion) Child(id types.TypeID) *Vector {
	ut := u.arr.DataType().(*arrow.DenseUnionType)
	idx := ut.ChildIDs()[id]
	if idx == arrow.InvalidUnionChildID {
		return nil
	}
	child := u.arr.Field(idx)
	if child == nil || child.Len() == 0 {
		return nil
	}
	return Wrap(child)
}

// MinorTypes is the set of minor types of children whose value-count is
// positive: a cache of observed content, not the union's declared schema.
func (u *DenseUnion) MinorTypes() []types.MinorType {
	ut := u.arr.DataType().(*arrow.DenseUnionType)
	var out []types.MinorType
	for i, f := range ut.Fields() {
		child := u.arr.Field(i)
		if child == nil || child.Len() == 0 {
			continue
		}
		mt, ok := types.MinorTypeOf(f.Type)
		if !ok {
			continue
		}
		out = append(out, mt)
	}
	return out
}
