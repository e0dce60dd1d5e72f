package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/ml-logs-transformer/pkg/engine"
	"github.com/David-Botos/ml-logs-transformer/pkg/model"
	"github.com/David-Botos/ml-logs-transformer/pkg/table"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	engine.Reset()
	t.Cleanup(engine.Reset)

	eng, err := engine.Get("local[1]", "loader-test")
	require.NoError(t, err)
	return eng
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func column(t *testing.T, tab *table.Table, name string) interface{ IsNull(int) bool } {
	t.Helper()
	arr, err := tab.Column(name)
	require.NoError(t, err)
	return arr
}

func TestLoadLogs(t *testing.T) {
	eng := testEngine(t)

	path := writeFile(t, "logs.jsonl", `{"logId":"a","expId":1,"metricId":0,"valid":true,"createdAt":"2024-01-01T00:00:00","ingestedAt":"2024-01-01T05:00:00","step":1,"value":2.5}
{"logId":"b","expId":2,"metricId":1,"valid":false,"createdAt":"2024-01-02T00:00:00","ingestedAt":"2024-01-02T00:30:00","step":2,"value":0.75,"extra":"ignored"}
`)

	logs, err := LoadLogs(context.Background(), eng, path)
	require.NoError(t, err)
	defer logs.Release()

	require.Equal(t, 2, logs.NumRows())
	require.True(t, logs.Schema().Equal(model.LogsSchema()))

	logID := column(t, logs, model.ColLogID).(*array.String)
	require.Equal(t, "a", logID.Value(0))
	require.Equal(t, "b", logID.Value(1))

	value := column(t, logs, model.ColValue).(*array.Float32)
	require.Equal(t, float32(2.5), value.Value(0))
	require.Equal(t, float32(0.75), value.Value(1))
}

func TestLoadLogsMalformedFieldsBecomeNull(t *testing.T) {
	eng := testEngine(t)

	// expId is a string, value is a bool, step is fractional, valid is a
	// number; every mismatched field must coerce to null, not fail.
	path := writeFile(t, "logs.jsonl", `{"logId":"a","expId":"one","metricId":0,"valid":1,"createdAt":"2024-01-01T00:00:00","step":1.5,"value":true}
`)

	logs, err := LoadLogs(context.Background(), eng, path)
	require.NoError(t, err)
	defer logs.Release()

	require.Equal(t, 1, logs.NumRows())
	require.True(t, column(t, logs, model.ColExpID).IsNull(0))
	require.True(t, column(t, logs, model.ColValid).IsNull(0))
	require.True(t, column(t, logs, model.ColStep).IsNull(0))
	require.True(t, column(t, logs, model.ColValue).IsNull(0))
	require.True(t, column(t, logs, model.ColIngestedAt).IsNull(0))
	require.False(t, column(t, logs, model.ColLogID).IsNull(0))
	require.False(t, column(t, logs, model.ColMetricID).IsNull(0))
}

func TestLoadLogsBadLineBecomesAllNullRow(t *testing.T) {
	eng := testEngine(t)

	path := writeFile(t, "logs.jsonl", `not json at all
{"logId":"b","expId":1,"metricId":0,"valid":true,"createdAt":"2024-01-01T00:00:00","ingestedAt":"2024-01-01T01:00:00","step":1,"value":1}
`)

	logs, err := LoadLogs(context.Background(), eng, path)
	require.NoError(t, err)
	defer logs.Release()

	require.Equal(t, 2, logs.NumRows())
	for _, name := range []string{
		model.ColLogID, model.ColExpID, model.ColMetricID, model.ColValid,
		model.ColCreatedAt, model.ColIngestedAt, model.ColStep, model.ColValue,
	} {
		require.True(t, column(t, logs, name).IsNull(0), "column %s", name)
	}
	require.False(t, column(t, logs, model.ColLogID).IsNull(1))
}

func TestLoadLogsMissingFile(t *testing.T) {
	eng := testEngine(t)

	_, err := LoadLogs(context.Background(), eng, filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)

	var srcErr *DataSourceError
	require.True(t, errors.As(err, &srcErr))
}

func TestLoadExperiments(t *testing.T) {
	eng := testEngine(t)

	path := writeFile(t, "experiments.csv", "expId,expName\n1,Exp1\n2,Exp2\n")

	experiments, err := LoadExperiments(context.Background(), eng, path)
	require.NoError(t, err)
	defer experiments.Release()

	// Header row is consumed, not data.
	require.Equal(t, 2, experiments.NumRows())

	expID := column(t, experiments, model.ColExpID).(*array.Int32)
	require.Equal(t, int32(1), expID.Value(0))
	require.Equal(t, int32(2), expID.Value(1))

	expName := column(t, experiments, model.ColExpName).(*array.String)
	require.Equal(t, "Exp1", expName.Value(0))
}

func TestLoadExperimentsNonNumericIDBecomesNull(t *testing.T) {
	eng := testEngine(t)

	path := writeFile(t, "experiments.csv", "expId,expName\nnope,Exp1\n")

	experiments, err := LoadExperiments(context.Background(), eng, path)
	require.NoError(t, err)
	defer experiments.Release()

	require.Equal(t, 1, experiments.NumRows())
	require.True(t, column(t, experiments, model.ColExpID).IsNull(0))
	require.False(t, column(t, experiments, model.ColExpName).IsNull(0))
}

func TestLoadExperimentsMissingFile(t *testing.T) {
	eng := testEngine(t)

	_, err := LoadExperiments(context.Background(), eng, filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)

	var srcErr *DataSourceError
	require.True(t, errors.As(err, &srcErr))
}

func TestLoadExperimentsMalformedRow(t *testing.T) {
	eng := testEngine(t)

	// A row with the wrong number of fields is a container-level failure.
	path := writeFile(t, "experiments.csv", "expId,expName\n1,Exp1,surplus\n")

	_, err := LoadExperiments(context.Background(), eng, path)
	require.Error(t, err)

	var srcErr *DataSourceError
	require.True(t, errors.As(err, &srcErr))
}

func TestLoadMetrics(t *testing.T) {
	eng := testEngine(t)

	metrics := LoadMetrics(eng)
	defer metrics.Release()

	require.Equal(t, 2, metrics.NumRows())

	metricID := column(t, metrics, model.ColMetricID).(*array.Int32)
	metricName := column(t, metrics, model.ColMetricName).(*array.String)
	require.Equal(t, int32(0), metricID.Value(0))
	require.Equal(t, "Loss", metricName.Value(0))
	require.Equal(t, int32(1), metricID.Value(1))
	require.Equal(t, "Accuracy", metricName.Value(1))
}
