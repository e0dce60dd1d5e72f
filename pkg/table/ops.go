// pkg/table/ops.go
package table

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Select projects the table onto the named columns, in the given order. The
// projection shares column data with the source table.
func (t *Table) Select(cols ...string) (*Table, error) {
	fields := make([]arrow.Field, 0, len(cols))
	arrays := make([]arrow.Array, 0, len(cols))

	for _, name := range cols {
		idx, err := t.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, t.Schema().Field(idx))
		arrays = append(arrays, t.rec.Column(idx))
	}

	schema := arrow.NewSchema(fields, nil)
	return New(array.NewRecord(schema, arrays, t.rec.NumRows())), nil
}

// Filter produces a new table holding only the rows for which keep returns
// true. Rows are rebuilt column by column through arrow builders.
func (t *Table) Filter(mem memory.Allocator, keep func(i int) bool) (*Table, error) {
	builder := array.NewRecordBuilder(mem, t.Schema())
	defer builder.Release()

	cols := int(t.rec.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		if !keep(i) {
			continue
		}
		for c := 0; c < cols; c++ {
			if err := appendValue(builder.Field(c), t.rec.Column(c), i); err != nil {
				return nil, err
			}
		}
	}

	return New(builder.NewRecord()), nil
}

// AppendColumns returns a new table with the given columns appended after the
// existing ones. Existing column data is shared, not copied.
func (t *Table) AppendColumns(fields []arrow.Field, arrays []arrow.Array) (*Table, error) {
	if len(fields) != len(arrays) {
		return nil, fmt.Errorf("got %d fields but %d arrays", len(fields), len(arrays))
	}
	for i, arr := range arrays {
		if arr.Len() != t.NumRows() {
			return nil, fmt.Errorf("column %q has %d rows, table has %d", fields[i].Name, arr.Len(), t.NumRows())
		}
	}

	newFields := append(append([]arrow.Field{}, t.Schema().Fields()...), fields...)
	newArrays := append(append([]arrow.Array{}, t.rec.Columns()...), arrays...)

	schema := arrow.NewSchema(newFields, nil)
	return New(array.NewRecord(schema, newArrays, t.rec.NumRows())), nil
}

// InnerJoin hash-joins left and right on the named key column, keeping only
// rows with a match on both sides. The output carries every left column
// followed by every right column except the key. Null keys never match, and a
// key matching several right rows fans out once per match. Keys are compared
// by exact int32 value; a non-int32 key column on either side yields an empty
// result rather than an error.
func InnerJoin(mem memory.Allocator, left, right *Table, key string) (*Table, error) {
	leftIdx, err := left.ColumnIndex(key)
	if err != nil {
		return nil, fmt.Errorf("left table: %w", err)
	}
	rightIdx, err := right.ColumnIndex(key)
	if err != nil {
		return nil, fmt.Errorf("right table: %w", err)
	}

	rightCols := make([]int, 0, int(right.rec.NumCols())-1)
	fields := append([]arrow.Field{}, left.Schema().Fields()...)
	for c := 0; c < int(right.rec.NumCols()); c++ {
		if c == rightIdx {
			continue
		}
		rightCols = append(rightCols, c)
		fields = append(fields, right.Schema().Field(c))
	}

	builder := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer builder.Release()

	leftKey, leftOK := left.rec.Column(leftIdx).(*array.Int32)
	rightKey, rightOK := right.rec.Column(rightIdx).(*array.Int32)

	if leftOK && rightOK {
		index := make(map[int32][]int)
		for j := 0; j < right.NumRows(); j++ {
			if rightKey.IsNull(j) {
				continue
			}
			index[rightKey.Value(j)] = append(index[rightKey.Value(j)], j)
		}

		leftWidth := int(left.rec.NumCols())
		for i := 0; i < left.NumRows(); i++ {
			if leftKey.IsNull(i) {
				continue
			}
			for _, j := range index[leftKey.Value(i)] {
				for c := 0; c < leftWidth; c++ {
					if err := appendValue(builder.Field(c), left.rec.Column(c), i); err != nil {
						return nil, err
					}
				}
				for n, c := range rightCols {
					if err := appendValue(builder.Field(leftWidth+n), right.rec.Column(c), j); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	return New(builder.NewRecord()), nil
}
