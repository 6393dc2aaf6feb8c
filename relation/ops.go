package relation

import (
	"github.com/apache/arrow/go/v15/arrow/memory"

	"github.com/vinceanalytics/coredb/column"
)

// Select materializes a new read-relation over the chosen rows: for each
// column, a fresh append column is fed with AppendFrom(col, idxs[i]) in
// order. Result row count is len(idxs).
func Select(mem memory.Allocator, rel *ReadRelation, idxs []int) (*ReadRelation, error) {
	dst := NewAppendRelation(mem, HeterogeneousFactory(mem))
	for _, name := range rel.Columns() {
		src := rel.mustColumn(name)
		dstCol := dst.AppendColumn(name)
		for _, i := range idxs {
			dstCol.AppendFrom(src, i)
		}
	}
	out, err := dst.Read()
	if err != nil {
		dst.Close()
		return nil, err
	}
	return out, nil
}

// CopyRelFrom appends length rows, starting at offset, from each source
// column into the matching destination column.
func CopyRelFrom(dst *AppendRelation, src *ReadRelation, offset, length int) {
	for _, name := range src.Columns() {
		srcCol := src.mustColumn(name)
		dstCol := dst.AppendColumn(name)
		for i := offset; i < offset+length; i++ {
			dstCol.AppendFrom(srcCol, i)
		}
	}
}

// RowCopier appends one row at a time across every column paired between
// a destination append relation and a source read relation, used by
// row-driven operators.
type RowCopier struct {
	pairs []rowCopyPair
}

type rowCopyPair struct {
	dst column.AppendColumn
	src column.ReadColumn
}

// NewRowCopier pairs every column of src with the (possibly newly
// created) matching column of dst.
func NewRowCopier(dst *AppendRelation, src *ReadRelation) *RowCopier {
	pairs := make([]rowCopyPair, 0, len(src.Columns()))
	for _, name := range src.Columns() {
		pairs = append(pairs, rowCopyPair{
			dst: dst.AppendColumn(name),
			src: src.mustColumn(name),
		})
	}
	return &RowCopier{pairs: pairs}
}

// Copy appends row i of every paired source column to its destination.
func (rc *RowCopier) Copy(i int) {
	for _, p := range rc.pairs {
		p.dst.AppendFrom(p.src, i)
	}
}
