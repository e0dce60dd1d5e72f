// pkg/table/table.go
package table

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Table is an immutable, schema-typed collection of rows backed by an arrow
// record. Every transformation produces a new Table; inputs are never
// mutated.
type Table struct {
	rec arrow.Record
}

// New wraps an arrow record. The table takes over the caller's reference.
func New(rec arrow.Record) *Table {
	return &Table{rec: rec}
}

// Record returns the underlying arrow record.
func (t *Table) Record() arrow.Record {
	return t.rec
}

// Schema returns the table schema.
func (t *Table) Schema() *arrow.Schema {
	return t.rec.Schema()
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return int(t.rec.NumRows())
}

// Release releases the underlying record.
func (t *Table) Release() {
	t.rec.Release()
}

// ColumnIndex resolves a column name to its index.
func (t *Table) ColumnIndex(name string) (int, error) {
	indices := t.rec.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return 0, fmt.Errorf("column %q not found", name)
	}
	return indices[0], nil
}

// Column returns the named column.
func (t *Table) Column(name string) (arrow.Array, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	return t.rec.Column(idx), nil
}

// appendValue copies the value at row i of src into the builder, preserving
// nulls. Only the column types used by the pipeline schemas are supported.
func appendValue(b array.Builder, src arrow.Array, i int) error {
	if src.IsNull(i) {
		b.AppendNull()
		return nil
	}

	switch builder := b.(type) {
	case *array.StringBuilder:
		builder.Append(src.(*array.String).Value(i))
	case *array.Int32Builder:
		builder.Append(src.(*array.Int32).Value(i))
	case *array.Float32Builder:
		builder.Append(src.(*array.Float32).Value(i))
	case *array.Float64Builder:
		builder.Append(src.(*array.Float64).Value(i))
	case *array.BooleanBuilder:
		builder.Append(src.(*array.Boolean).Value(i))
	case *array.TimestampBuilder:
		builder.Append(src.(*array.Timestamp).Value(i))
	default:
		return fmt.Errorf("unsupported column type %s", b.Type())
	}
	return nil
}
