// pkg/loader/loader.go
package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/array"
	"go.uber.org/zap"

	"github.com/David-Botos/ml-logs-transformer/pkg/engine"
	"github.com/David-Botos/ml-logs-transformer/pkg/model"
	"github.com/David-Botos/ml-logs-transformer/pkg/table"
)

// maxLineBytes bounds a single NDJSON record.
const maxLineBytes = 1 << 20

// LoadLogs reads newline-delimited JSON log records at path into a table with
// the fixed log schema. The schema is applied strictly: absent or mismatched
// fields become null, and a line that is not valid JSON becomes an all-null
// row. Only an unreadable file fails, with *DataSourceError.
func LoadLogs(ctx context.Context, eng *engine.Engine, path string) (*table.Table, error) {
	logger := zap.L().Named("log-loader")

	f, err := os.Open(path)
	if err != nil {
		return nil, &DataSourceError{Source: path, Err: err}
	}
	defer f.Close()

	builder := array.NewRecordBuilder(eng.Allocator(), model.LogsSchema())
	defer builder.Release()

	logID := builder.Field(0).(*array.StringBuilder)
	expID := builder.Field(1).(*array.Int32Builder)
	metricID := builder.Field(2).(*array.Int32Builder)
	valid := builder.Field(3).(*array.BooleanBuilder)
	createdAt := builder.Field(4).(*array.StringBuilder)
	ingestedAt := builder.Field(5).(*array.StringBuilder)
	step := builder.Field(6).(*array.Int32Builder)
	value := builder.Field(7).(*array.Float32Builder)

	rows := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw map[string]interface{}
		// Unparseable lines still produce a row, with every column null.
		_ = json.Unmarshal(line, &raw)

		appendString(logID, raw[model.ColLogID])
		appendInt32(expID, raw[model.ColExpID])
		appendInt32(metricID, raw[model.ColMetricID])
		appendBool(valid, raw[model.ColValid])
		appendString(createdAt, raw[model.ColCreatedAt])
		appendString(ingestedAt, raw[model.ColIngestedAt])
		appendInt32(step, raw[model.ColStep])
		appendFloat32(value, raw[model.ColValue])
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, &DataSourceError{Source: path, Err: err}
	}

	logger.Info("Loaded logs", zap.String("path", path), zap.Int("rows", rows))
	return table.New(builder.NewRecord()), nil
}

// LoadExperiments reads a comma-delimited file with a header row at path into
// a table mapping experiment identifiers to names. The header row is consumed
// and never treated as data; a non-numeric expId coerces to null. Missing
// files and malformed CSV containers fail with *DataSourceError.
func LoadExperiments(ctx context.Context, eng *engine.Engine, path string) (*table.Table, error) {
	logger := zap.L().Named("experiment-loader")

	f, err := os.Open(path)
	if err != nil {
		return nil, &DataSourceError{Source: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	// Header row.
	if _, err := reader.Read(); err != nil && err != io.EOF {
		return nil, &DataSourceError{Source: path, Err: fmt.Errorf("reading header: %w", err)}
	}

	builder := array.NewRecordBuilder(eng.Allocator(), model.ExperimentsSchema())
	defer builder.Release()

	expID := builder.Field(0).(*array.Int32Builder)
	expName := builder.Field(1).(*array.StringBuilder)

	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataSourceError{Source: path, Err: err}
		}

		if id, ok := parseInt32(record[0]); ok {
			expID.Append(id)
		} else {
			expID.AppendNull()
		}
		expName.Append(record[1])
		rows++
	}

	logger.Info("Loaded experiments", zap.String("path", path), zap.Int("rows", rows))
	return table.New(builder.NewRecord()), nil
}

// LoadMetrics returns the static metric lookup table. It takes no external
// input and always succeeds.
func LoadMetrics(eng *engine.Engine) *table.Table {
	builder := array.NewRecordBuilder(eng.Allocator(), model.MetricsSchema())
	defer builder.Release()

	metricID := builder.Field(0).(*array.Int32Builder)
	metricName := builder.Field(1).(*array.StringBuilder)

	metricID.Append(0)
	metricName.Append("Loss")
	metricID.Append(1)
	metricName.Append("Accuracy")

	return table.New(builder.NewRecord())
}

func appendString(b *array.StringBuilder, v interface{}) {
	if s, ok := coerceString(v); ok {
		b.Append(s)
		return
	}
	b.AppendNull()
}

func appendInt32(b *array.Int32Builder, v interface{}) {
	if n, ok := coerceInt32(v); ok {
		b.Append(n)
		return
	}
	b.AppendNull()
}

func appendFloat32(b *array.Float32Builder, v interface{}) {
	if f, ok := coerceFloat32(v); ok {
		b.Append(f)
		return
	}
	b.AppendNull()
}

func appendBool(b *array.BooleanBuilder, v interface{}) {
	if bv, ok := coerceBool(v); ok {
		b.Append(bv)
		return
	}
	b.AppendNull()
}
