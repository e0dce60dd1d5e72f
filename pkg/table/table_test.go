package table

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

// buildKV builds a two-column test table of nullable int32 keys and string
// payloads. A nil key means null.
func buildKV(t *testing.T, keyName, valName string, keys []*int32, vals []string) *Table {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: keyName, Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: valName, Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	kb := builder.Field(0).(*array.Int32Builder)
	vb := builder.Field(1).(*array.StringBuilder)
	for i, k := range keys {
		if k == nil {
			kb.AppendNull()
		} else {
			kb.Append(*k)
		}
		vb.Append(vals[i])
	}

	return New(builder.NewRecord())
}

func i32(v int32) *int32 { return &v }

func stringAt(t *testing.T, tab *Table, col string, i int) string {
	t.Helper()
	arr, err := tab.Column(col)
	require.NoError(t, err)
	return arr.(*array.String).Value(i)
}

func TestSelectReordersColumns(t *testing.T) {
	tab := buildKV(t, "id", "name", []*int32{i32(1), i32(2)}, []string{"a", "b"})
	defer tab.Release()

	projected, err := tab.Select("name", "id")
	require.NoError(t, err)
	defer projected.Release()

	require.Equal(t, "name", projected.Schema().Field(0).Name)
	require.Equal(t, "id", projected.Schema().Field(1).Name)
	require.Equal(t, 2, projected.NumRows())
	require.Equal(t, "a", stringAt(t, projected, "name", 0))
}

func TestSelectUnknownColumn(t *testing.T) {
	tab := buildKV(t, "id", "name", []*int32{i32(1)}, []string{"a"})
	defer tab.Release()

	_, err := tab.Select("missing")
	require.Error(t, err)
}

func TestFilterKeepsNulls(t *testing.T) {
	tab := buildKV(t, "id", "name", []*int32{i32(1), nil, i32(3)}, []string{"a", "b", "c"})
	defer tab.Release()

	filtered, err := tab.Filter(memory.NewGoAllocator(), func(i int) bool { return i != 0 })
	require.NoError(t, err)
	defer filtered.Release()

	require.Equal(t, 2, filtered.NumRows())
	ids, err := filtered.Column("id")
	require.NoError(t, err)
	require.True(t, ids.IsNull(0))
	require.Equal(t, int32(3), ids.(*array.Int32).Value(1))
	require.Equal(t, "b", stringAt(t, filtered, "name", 0))
}

func TestInnerJoinDropsNonMatching(t *testing.T) {
	left := buildKV(t, "expId", "logId", []*int32{i32(1), i32(2), i32(9)}, []string{"a", "b", "c"})
	defer left.Release()
	right := buildKV(t, "expId", "expName", []*int32{i32(1), i32(2)}, []string{"Exp1", "Exp2"})
	defer right.Release()

	joined, err := InnerJoin(memory.NewGoAllocator(), left, right, "expId")
	require.NoError(t, err)
	defer joined.Release()

	require.Equal(t, 2, joined.NumRows())
	require.Equal(t, "a", stringAt(t, joined, "logId", 0))
	require.Equal(t, "Exp1", stringAt(t, joined, "expName", 0))
	require.Equal(t, "Exp2", stringAt(t, joined, "expName", 1))
}

func TestInnerJoinFansOutDuplicateKeys(t *testing.T) {
	left := buildKV(t, "expId", "logId", []*int32{i32(1)}, []string{"a"})
	defer left.Release()
	right := buildKV(t, "expId", "expName", []*int32{i32(1), i32(1)}, []string{"First", "Second"})
	defer right.Release()

	joined, err := InnerJoin(memory.NewGoAllocator(), left, right, "expId")
	require.NoError(t, err)
	defer joined.Release()

	require.Equal(t, 2, joined.NumRows())
	require.Equal(t, "First", stringAt(t, joined, "expName", 0))
	require.Equal(t, "Second", stringAt(t, joined, "expName", 1))
}

func TestInnerJoinNullKeysNeverMatch(t *testing.T) {
	left := buildKV(t, "expId", "logId", []*int32{nil, i32(1)}, []string{"a", "b"})
	defer left.Release()
	right := buildKV(t, "expId", "expName", []*int32{nil, i32(1)}, []string{"Null", "Exp1"})
	defer right.Release()

	joined, err := InnerJoin(memory.NewGoAllocator(), left, right, "expId")
	require.NoError(t, err)
	defer joined.Release()

	require.Equal(t, 1, joined.NumRows())
	require.Equal(t, "b", stringAt(t, joined, "logId", 0))
}

func TestInnerJoinKeyTypeMismatchYieldsEmpty(t *testing.T) {
	// Keys compared across types must produce no matches, not an error.
	left := buildKV(t, "expId", "logId", []*int32{i32(1)}, []string{"a"})
	defer left.Release()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "expId", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "expName", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()
	builder.Field(0).(*array.StringBuilder).Append("1")
	builder.Field(1).(*array.StringBuilder).Append("Exp1")
	right := New(builder.NewRecord())
	defer right.Release()

	joined, err := InnerJoin(memory.NewGoAllocator(), left, right, "expId")
	require.NoError(t, err)
	defer joined.Release()

	require.Equal(t, 0, joined.NumRows())
}

func TestAppendColumns(t *testing.T) {
	tab := buildKV(t, "id", "name", []*int32{i32(1), i32(2)}, []string{"a", "b"})
	defer tab.Release()

	mem := memory.NewGoAllocator()
	fb := array.NewFloat64Builder(mem)
	defer fb.Release()
	fb.Append(1.5)
	fb.AppendNull()

	extended, err := tab.AppendColumns(
		[]arrow.Field{{Name: "lag", Type: arrow.PrimitiveTypes.Float64, Nullable: true}},
		[]arrow.Array{fb.NewArray()},
	)
	require.NoError(t, err)
	defer extended.Release()

	require.Equal(t, int64(3), extended.Record().NumCols())
	lag, err := extended.Column("lag")
	require.NoError(t, err)
	require.Equal(t, 1.5, lag.(*array.Float64).Value(0))
	require.True(t, lag.IsNull(1))
}

func TestAppendColumnsLengthMismatch(t *testing.T) {
	tab := buildKV(t, "id", "name", []*int32{i32(1), i32(2)}, []string{"a", "b"})
	defer tab.Release()

	fb := array.NewFloat64Builder(memory.NewGoAllocator())
	defer fb.Release()
	fb.Append(1.5)

	_, err := tab.AppendColumns(
		[]arrow.Field{{Name: "lag", Type: arrow.PrimitiveTypes.Float64, Nullable: true}},
		[]arrow.Array{fb.NewArray()},
	)
	require.Error(t, err)
}
