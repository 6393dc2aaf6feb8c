// Package column implements the read and append column variants: a
// polymorphic, zero-copy read view over one logical column, and the two
// append-column builders that produce it.
package column

import (
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"

	"github.com/vinceanalytics/coredb/types"
	"github.com/vinceanalytics/coredb/vector"
)

// ReadColumn is the common capability interface every physical variant
// implements.
type ReadColumn interface {
	Name() string
	Rename(name string) ReadColumn
	ValueCount() int
	MinorTypes() []types.MinorType

	GetBool(i int) bool
	GetLong(i int) int64
	GetDouble(i int) float64
	GetString(i int) string
	GetBytes(i int) []byte
	GetDate(i int) time.Time
	GetDuration(i int) time.Duration
	GetObject(i int) any

	// InternalVector and InternalIndex locate the leaf (vector, index)
	// pair backing row i, unwrapping any indirection or union dispatch.
	InternalVector(i int) *vector.Vector
	InternalIndex(i int) int

	// Close releases the vectors this column owns, exactly once.
	Close()
}

// FromVector wraps a single physical array as a Direct read column, or as
// a DenseUnion read column if the array is Arrow's dense-union
// representation.
func FromVector(name string, arr arrow.Array) ReadColumn {
	if du, ok := arr.(*array.DenseUnion); ok {
		du.Retain()
		return &denseUnionColumn{name: name, du: vector.WrapDenseUnion(du), owns: true}
	}
	v := vector.Wrap(arr)
	v.Retain()
	return &directColumn{name: name, v: v, owns: true}
}

// FromVectorWithIndices wraps one physical array plus an i32 index array
// as an Indirect (or IndirectDenseUnion) read column, recording (vector,
// index) pairs without copying.
func FromVectorWithIndices(name string, arr arrow.Array, idxs []int32) ReadColumn {
	if du, ok := arr.(*array.DenseUnion); ok {
		du.Retain()
		return &indirectDenseUnionColumn{name: name, du: vector.WrapDenseUnion(du), idxs: idxs, owns: true}
	}
	v := vector.Wrap(arr)
	v.Retain()
	return &indirectColumn{name: name, v: v, idxs: idxs, owns: true}
}

// Materialize builds a Materialized read column: one (vector, index) pair
// per logical row, owning the de-duplicated set of vectors it was handed.
func Materialize(name string, kinds []types.MinorType, vecs []*vector.Vector, idxs []int) ReadColumn {
	owned := dedupeByIdentity(vecs)
	for _, v := range owned {
		v.Retain()
	}
	return &materializedColumn{
		name:  name,
		kinds: kinds,
		vecs:  vecs,
		idxs:  idxs,
		owns:  owned,
	}
}

func dedupeByIdentity(vecs []*vector.Vector) []*vector.Vector {
	seen := make(map[*vector.Vector]struct{}, len(vecs))
	out := make([]*vector.Vector, 0, len(vecs))
	for _, v := range vecs {
		if v == nil {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ---- Direct ----

type directColumn struct {
	name   string
	v      *vector.Vector
	owns   bool
	closed bool
}

func (c *directColumn) Name() string { return c.name }
func (c *directColumn) Rename(name string) ReadColumn {
	return &directColumn{name: name, v: c.v, owns: false}
}
func (c *directColumn) ValueCount() int { return c.v.ValueCount() }
func (c *directColumn) MinorTypes() []types.MinorType {
	return []types.MinorType{c.v.MinorType()}
}
func (c *directColumn) GetBool(i int) bool             { return c.v.GetBool(i) }
func (c *directColumn) GetLong(i int) int64             { return c.v.GetLong(i) }
func (c *directColumn) GetDouble(i int) float64         { return c.v.GetDouble(i) }
func (c *directColumn) GetString(i int) string          { return c.v.GetString(i) }
func (c *directColumn) GetBytes(i int) []byte           { return c.v.GetBytes(i) }
func (c *directColumn) GetDate(i int) time.Time         { return c.v.GetDate(i) }
func (c *directColumn) GetDuration(i int) time.Duration { return c.v.GetDuration(i) }
func (c *directColumn) GetObject(i int) any             { return c.v.GetObject(i) }
func (c *directColumn) InternalVector(int) *vector.Vector { return c.v }
func (c *directColumn) InternalIndex(i int) int         { return i }
func (c *directColumn) Close() {
	if c.closed || !c.owns {
		return
	}
	c.closed = true
	c.v.Release()
}

// ---- Indirect ----

type indirectColumn struct {
	name   string
	v      *vector.Vector
	idxs   []int32
	owns   bool
	closed bool
}

func (c *indirectColumn) Name() string { return c.name }
func (c *indirectColumn) Rename(name string) ReadColumn {
	return &indirectColumn{name: name, v: c.v, idxs: c.idxs, owns: false}
}
func (c *indirectColumn) ValueCount() int { return len(c.idxs) }
func (c *indirectColumn) MinorTypes() []types.MinorType {
	return []types.MinorType{c.v.MinorType()}
}
func (c *indirectColumn) at(i int) int                     { return int(c.idxs[i]) }
func (c *indirectColumn) GetBool(i int) bool                { return c.v.GetBool(c.at(i)) }
func (c *indirectColumn) GetLong(i int) int64                { return c.v.GetLong(c.at(i)) }
func (c *indirectColumn) GetDouble(i int) float64            { return c.v.GetDouble(c.at(i)) }
func (c *indirectColumn) GetString(i int) string             { return c.v.GetString(c.at(i)) }
func (c *indirectColumn) GetBytes(i int) []byte              { return c.v.GetBytes(c.at(i)) }
func (c *indirectColumn) GetDate(i int) time.Time            { return c.v.GetDate(c.at(i)) }
func (c *indirectColumn) GetDuration(i int) time.Duration    { return c.v.GetDuration(c.at(i)) }
func (c *indirectColumn) GetObject(i int) any                { return c.v.GetObject(c.at(i)) }
func (c *indirectColumn) InternalVector(int) *vector.Vector  { return c.v }
func (c *indirectColumn) InternalIndex(i int) int            { return c.at(i) }
func (c *indirectColumn) Close() {
	if c.closed || !c.owns {
		return
	}
	c.closed = true
	c.v.Release()
}

// ---- DenseUnion ----

type denseUnionColumn struct {
	name   string
	du     *vector.DenseUnion
	owns   bool
	closed bool
}

func (c *denseUnionColumn) Name() string { return c.name }
func (c *denseUnionColumn) Rename(name string) ReadColumn {
	return &denseUnionColumn{name: name, du: c.du, owns: false}
}
func (c *denseUnionColumn) ValueCount() int              { return c.du.ValueCount() }
func (c *denseUnionColumn) MinorTypes() []types.MinorType { return c.du.MinorTypes() }

func (c *denseUnionColumn) leaf(i int) (*vector.Vector, int) {
	child := c.du.Child(c.du.TypeID(i))
	return child, c.du.Offset(i)
}
func (c *denseUnionColumn) GetBool(i int) bool     { v, off := c.leaf(i); return v.GetBool(off) }
func (c *denseUnionColumn) GetLong(i int) int64     { v, off := c.leaf(i); return v.GetLong(off) }
func (c *denseUnionColumn) GetDouble(i int) float64 { v, off := c.leaf(i); return v.GetDouble(off) }
func (c *denseUnionColumn) GetString(i int) string  { v, off := c.leaf(i); return v.GetString(off) }
func (c *denseUnionColumn) GetBytes(i int) []byte   { v, off := c.leaf(i); return v.GetBytes(off) }
func (c *denseUnionColumn) GetDate(i int) time.Time { v, off := c.leaf(i); return v.GetDate(off) }
func (c *denseUnionColumn) GetDuration(i int) time.Duration {
	v, off := c.leaf(i)
	return v.GetDuration(off)
}
func (c *denseUnionColumn) GetObject(i int) any {
	v, off := c.leaf(i)
	if v == nil {
		return nil
	}
	return v.GetObject(off)
}
func (c *denseUnionColumn) InternalVector(i int) *vector.Vector {
	v, _ := c.leaf(i)
	return v
}
func (c *denseUnionColumn) InternalIndex(i int) int {
	_, off := c.leaf(i)
	return off
}
func (c *denseUnionColumn) Close() {
	if c.closed || !c.owns {
		return
	}
	c.closed = true
	c.du.Release()
}

// ---- IndirectDenseUnion ----

type indirectDenseUnionColumn struct {
	name   string
	du     *vector.DenseUnion
	idxs   []int32
	owns   bool
	closed bool
}

func (c *indirectDenseUnionColumn) Name() string { return c.name }
func (c *indirectDenseUnionColumn) Rename(name string) ReadColumn {
	return &indirectDenseUnionColumn{name: name, du: c.du, idxs: c.idxs, owns: false}
}
func (c *indirectDenseUnionColumn) ValueCount() int { return len(c.idxs) }
func (c *indirectDenseUnionColumn) MinorTypes() []types.MinorType { return c.du.MinorTypes() }

func (c *indirectDenseUnionColumn) leaf(i int) (*vector.Vector, int) {
	row := int(c.idxs[i])
	child := c.du.Child(c.du.TypeID(row))
	return child, c.du.Offset(row)
}
func (c *indirectDenseUnionColumn) GetBool(i int) bool { v, off := c.leaf(i); return v.GetBool(off) }
func (c *indirectDenseUnionColumn) GetLong(i int) int64 { v, off := c.leaf(i); return v.GetLong(off) }
func (c *indirectDenseUnionColumn) GetDouble(i int) float64 {
	v, off := c.leaf(i)
	return v.GetDouble(off)
}
func (c *indirectDenseUnionColumn) GetString(i int) string { v, off := c.leaf(i); return v.GetString(off) }
func (c *indirectDenseUnionColumn) GetBytes(i int) []byte  { v, off := c.leaf(i); return v.GetBytes(off) }
func (c *indirectDenseUnionColumn) GetDate(i int) time.Time { v, off := c.leaf(i); return v.GetDate(off) }
func (c *indirectDenseUnionColumn) GetDuration(i int) time.Duration {
	v, off := c.leaf(i)
	return v.GetDuration(off)
}
func (c *indirectDenseUnionColumn) GetObject(i int) any {
	v, off := c.leaf(i)
	if v == nil {
		return nil
	}
	return v.GetObject(off)
}
func (c *indirectDenseUnionColumn) InternalVector(i int) *vector.Vector {
	v, _ := c.leaf(i)
	return v
}
func (c *indirectDenseUnionColumn) InternalIndex(i int) int {
	_, off := c.leaf(i)
	return off
}
func (c *indirectDenseUnionColumn) Close() {
	if c.closed || !c.owns {
		return
	}
	c.closed = true
	c.du.Release()
}

// ---- Materialized ----

type materializedColumn struct {
	name   string
	kinds  []types.MinorType
	vecs   []*vector.Vector
	idxs   []int
	owns   []*vector.Vector
	closed bool
}

func (c *materializedColumn) Name() string { return c.name }
func (c *materializedColumn) Rename(name string) ReadColumn {
	return &materializedColumn{name: name, kinds: c.kinds, vecs: c.vecs, idxs: c.idxs}
}
func (c *materializedColumn) ValueCount() int              { return len(c.idxs) }
func (c *materializedColumn) MinorTypes() []types.MinorType { return c.kinds }
func (c *materializedColumn) GetBool(i int) bool            { return c.vecs[i].GetBool(c.idxs[i]) }
func (c *materializedColumn) GetLong(i int) int64            { return c.vecs[i].GetLong(c.idxs[i]) }
func (c *materializedColumn) GetDouble(i int) float64        { return c.vecs[i].GetDouble(c.idxs[i]) }
func (c *materializedColumn) GetString(i int) string         { return c.vecs[i].GetString(c.idxs[i]) }
func (c *materializedColumn) GetBytes(i int) []byte          { return c.vecs[i].GetBytes(c.idxs[i]) }
func (c *materializedColumn) GetDate(i int) time.Time        { return c.vecs[i].GetDate(c.idxs[i]) }
func (c *materializedColumn) GetDuration(i int) time.Duration {
	return c.vecs[i].GetDuration(c.idxs[i])
}
func (c *materializedColumn) GetObject(i int) any { return c.vecs[i].GetObject(c.idxs[i]) }
func (c *materializedColumn) InternalVector(i int) *vector.Vector { return c.vecs[i] }
func (c *materializedColumn) InternalIndex(i int) int             { return c.idxs[i] }
func (c *materializedColumn) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for _, v := range c.owns {
		v.Release()
	}
}
