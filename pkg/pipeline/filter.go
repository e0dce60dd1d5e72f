// pkg/pipeline/filter.go
package pipeline

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"go.uber.org/zap"

	"github.com/David-Botos/ml-logs-transformer/pkg/engine"
	"github.com/David-Botos/ml-logs-transformer/pkg/model"
	"github.com/David-Botos/ml-logs-transformer/pkg/table"
)

// FilterLate derives parsed-timestamp columns and the ingestion lag in hours
// for every joined row, then keeps only rows whose lag strictly exceeds the
// threshold. Timestamps that do not match the fixed layout parse to null; a
// null lag never exceeds any threshold, so those rows are always excluded.
// The threshold is not validated: negative and fractional values are legal.
func FilterLate(eng *engine.Engine, joined *table.Table, hours float64) (*table.Table, error) {
	logger := zap.L().Named("late-log-filter")

	createdCol, err := joined.Column(model.ColCreatedAt)
	if err != nil {
		return nil, err
	}
	ingestedCol, err := joined.Column(model.ColIngestedAt)
	if err != nil {
		return nil, err
	}

	created, ok := createdCol.(*array.String)
	if !ok {
		return nil, fmt.Errorf("column %q is not a string column", model.ColCreatedAt)
	}
	ingested, ok := ingestedCol.(*array.String)
	if !ok {
		return nil, fmt.Errorf("column %q is not a string column", model.ColIngestedAt)
	}

	mem := eng.Allocator()
	createdTs := array.NewTimestampBuilder(mem, model.TimestampType)
	defer createdTs.Release()
	ingestedTs := array.NewTimestampBuilder(mem, model.TimestampType)
	defer ingestedTs.Release()
	timeDiff := array.NewFloat64Builder(mem)
	defer timeDiff.Release()

	rows := joined.NumRows()
	for i := 0; i < rows; i++ {
		createdAt, createdOK := parseTimestamp(created, i)
		if createdOK {
			createdTs.Append(arrow.Timestamp(createdAt.Unix()))
		} else {
			createdTs.AppendNull()
		}

		ingestedAt, ingestedOK := parseTimestamp(ingested, i)
		if ingestedOK {
			ingestedTs.Append(arrow.Timestamp(ingestedAt.Unix()))
		} else {
			ingestedTs.AppendNull()
		}

		if createdOK && ingestedOK {
			timeDiff.Append(ingestedAt.Sub(createdAt).Seconds() / 3600)
		} else {
			timeDiff.AppendNull()
		}
	}

	fields := []arrow.Field{
		{Name: model.ColCreatedAtTs, Type: model.TimestampType, Nullable: true},
		{Name: model.ColIngestedAtTs, Type: model.TimestampType, Nullable: true},
		{Name: model.ColTimeDiffHours, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}
	arrays := []arrow.Array{createdTs.NewArray(), ingestedTs.NewArray(), timeDiff.NewArray()}
	for _, arr := range arrays {
		defer arr.Release()
	}

	withLag, err := joined.AppendColumns(fields, arrays)
	if err != nil {
		return nil, err
	}
	defer withLag.Release()

	lag := arrays[2].(*array.Float64)
	filtered, err := withLag.Filter(mem, func(i int) bool {
		return lag.IsValid(i) && lag.Value(i) > hours
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Filtered late logs",
		zap.Float64("hours", hours),
		zap.Int("inputRows", rows),
		zap.Int("lateRows", filtered.NumRows()))

	return filtered, nil
}

// parseTimestamp parses the string cell at row i against the fixed layout,
// as a UTC-naive instant. Nulls and mismatched values report ok=false.
func parseTimestamp(col *array.String, i int) (time.Time, bool) {
	if col.IsNull(i) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(model.TimestampLayout, col.Value(i), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
