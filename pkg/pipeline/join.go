// pkg/pipeline/join.go
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/ml-logs-transformer/pkg/engine"
	"github.com/David-Botos/ml-logs-transformer/pkg/model"
	"github.com/David-Botos/ml-logs-transformer/pkg/table"
)

// Join denormalizes logs against experiment and metric metadata: an inner
// join on expId followed by an inner join on metricId, projected onto the
// fixed joined column list. Logs without a matching experiment or metric are
// dropped; duplicate metadata keys fan matching logs out once per match. The
// valid flag passes through untouched; downstream consumers own its meaning.
func Join(eng *engine.Engine, logs, experiments, metrics *table.Table) (*table.Table, error) {
	logger := zap.L().Named("joiner")

	logsExperiments, err := table.InnerJoin(eng.Allocator(), logs, experiments, model.ColExpID)
	if err != nil {
		return nil, fmt.Errorf("joining logs with experiments: %w", err)
	}
	defer logsExperiments.Release()

	joined, err := table.InnerJoin(eng.Allocator(), logsExperiments, metrics, model.ColMetricID)
	if err != nil {
		return nil, fmt.Errorf("joining with metrics: %w", err)
	}
	defer joined.Release()

	projected, err := joined.Select(model.JoinedColumns...)
	if err != nil {
		return nil, fmt.Errorf("projecting joined columns: %w", err)
	}

	logger.Info("Joined tables",
		zap.Int("logRows", logs.NumRows()),
		zap.Int("joinedRows", projected.NumRows()))

	return projected, nil
}
