// pkg/writer/writer.go
package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/David-Botos/ml-logs-transformer/pkg/engine"
	"github.com/David-Botos/ml-logs-transformer/pkg/model"
	"github.com/David-Botos/ml-logs-transformer/pkg/table"
)

// WriteError reports an unusable output destination or a failed write. No
// partial-write cleanup is attempted; callers must not assume atomicity
// across partitions.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %q failed: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ScoreRow is the on-disk shape of one aggregated score. The partition
// column metricId is carried by the directory name, not the file, matching
// the conventional partitioned-parquet layout.
type ScoreRow struct {
	ExpID    int32   `parquet:"expId"`
	MaxValue float32 `parquet:"maxValue"`
	MinValue float32 `parquet:"minValue"`
}

// Save serializes the aggregated score table as snappy-compressed parquet
// under outputPath, one metricId=<value> subdirectory per distinct metricId.
// Partitions are written concurrently on the engine's worker slots. An
// existing non-empty outputPath fails with *WriteError before anything is
// written. Returns the number of partitions written.
func Save(ctx context.Context, eng *engine.Engine, scores *table.Table, outputPath string) (int, error) {
	logger := zap.L().Named("writer")

	if err := ensureOutputDir(outputPath); err != nil {
		return 0, err
	}

	expCol, err := scores.Column(model.ColExpID)
	if err != nil {
		return 0, &WriteError{Path: outputPath, Err: err}
	}
	metricCol, err := scores.Column(model.ColMetricID)
	if err != nil {
		return 0, &WriteError{Path: outputPath, Err: err}
	}
	maxCol, err := scores.Column(model.ColMaxValue)
	if err != nil {
		return 0, &WriteError{Path: outputPath, Err: err}
	}
	minCol, err := scores.Column(model.ColMinValue)
	if err != nil {
		return 0, &WriteError{Path: outputPath, Err: err}
	}

	expID := expCol.(*array.Int32)
	metricID := metricCol.(*array.Int32)
	maxValue := maxCol.(*array.Float32)
	minValue := minCol.(*array.Float32)

	partitions := make(map[int32][]ScoreRow)
	order := make([]int32, 0)

	for i := 0; i < scores.NumRows(); i++ {
		if metricID.IsNull(i) {
			continue
		}
		key := metricID.Value(i)
		if _, seen := partitions[key]; !seen {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], ScoreRow{
			ExpID:    expID.Value(i),
			MaxValue: maxValue.Value(i),
			MinValue: minValue.Value(i),
		})
	}

	var mu sync.Mutex
	var firstErr error

	err = eng.RunParallel(ctx, len(order), func(i int) error {
		key := order[i]
		dir := filepath.Join(outputPath, fmt.Sprintf("%s=%d", model.ColMetricID, key))
		if err := writePartition(dir, partitions[key]); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			return err
		}
		logger.Debug("Wrote partition",
			zap.Int32("metricId", key),
			zap.Int("rows", len(partitions[key])))
		return nil
	})
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
		return 0, &WriteError{Path: outputPath, Err: firstErr}
	}

	logger.Info("Saved scores",
		zap.String("path", outputPath),
		zap.Int("rows", scores.NumRows()),
		zap.Int("partitions", len(order)))

	return len(order), nil
}

// ensureOutputDir accepts a missing path or an existing empty directory.
func ensureOutputDir(outputPath string) error {
	info, err := os.Stat(outputPath)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(outputPath, 0o755); err != nil {
			return &WriteError{Path: outputPath, Err: err}
		}
		return nil
	case err != nil:
		return &WriteError{Path: outputPath, Err: err}
	}

	if !info.IsDir() {
		return &WriteError{Path: outputPath, Err: fmt.Errorf("output path exists and is not a directory")}
	}

	entries, err := os.ReadDir(outputPath)
	if err != nil {
		return &WriteError{Path: outputPath, Err: err}
	}
	if len(entries) > 0 {
		return &WriteError{Path: outputPath, Err: fmt.Errorf("output directory is not empty")}
	}
	return nil
}

func writePartition(dir string, rows []ScoreRow) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	name := fmt.Sprintf("part-00000-%s.snappy.parquet", uuid.New().String())
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}

	w := parquet.NewGenericWriter[ScoreRow](f, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
