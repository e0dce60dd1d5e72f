// pkg/model/schema.go
package model

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// TimestampLayout is the only accepted layout for createdAt/ingestedAt values.
// Values that do not match it parse to null, never to an error.
const TimestampLayout = "2006-01-02T15:04:05"

// Column names shared across the pipeline stages.
const (
	ColLogID         = "logId"
	ColExpID         = "expId"
	ColExpName       = "expName"
	ColMetricID      = "metricId"
	ColMetricName    = "metricName"
	ColValid         = "valid"
	ColCreatedAt     = "createdAt"
	ColIngestedAt    = "ingestedAt"
	ColStep          = "step"
	ColValue         = "value"
	ColCreatedAtTs   = "createdAtTs"
	ColIngestedAtTs  = "ingestedAtTs"
	ColTimeDiffHours = "timeDiffHours"
	ColMaxValue      = "maxValue"
	ColMinValue      = "minValue"
)

// TimestampType is the parsed-timestamp column type: second precision, UTC-naive
// values stored as UTC.
var TimestampType = &arrow.TimestampType{Unit: arrow.Second, TimeZone: "UTC"}

// LogsSchema returns the fixed schema applied to raw log files. The schema is
// declared, never inferred; every column is nullable so that malformed fields
// degrade to null instead of failing the load.
func LogsSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: ColLogID, Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: ColExpID, Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: ColMetricID, Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: ColValid, Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
		{Name: ColCreatedAt, Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: ColIngestedAt, Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: ColStep, Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: ColValue, Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	}, nil)
}

// ExperimentsSchema returns the schema for experiment metadata.
func ExperimentsSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: ColExpID, Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: ColExpName, Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
}

// MetricsSchema returns the schema for the static metric lookup table.
func MetricsSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: ColMetricID, Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: ColMetricName, Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
}

// JoinedColumns is the exact projection, in order, produced by the joiner.
var JoinedColumns = []string{
	ColLogID,
	ColExpID,
	ColExpName,
	ColMetricID,
	ColMetricName,
	ColValid,
	ColCreatedAt,
	ColIngestedAt,
	ColStep,
	ColValue,
}

// ScoresSchema returns the schema of the aggregated per-experiment, per-metric
// extrema table.
func ScoresSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: ColExpID, Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: ColMetricID, Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: ColMaxValue, Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		{Name: ColMinValue, Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	}, nil)
}
