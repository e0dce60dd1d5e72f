// pkg/pipeline/aggregate.go
package pipeline

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
	"go.uber.org/zap"

	"github.com/David-Botos/ml-logs-transformer/pkg/engine"
	"github.com/David-Botos/ml-logs-transformer/pkg/model"
	"github.com/David-Botos/ml-logs-transformer/pkg/table"
)

type groupKey struct {
	expID    int32
	metricID int32
}

type extrema struct {
	max float32
	min float32
}

// Aggregate groups the filtered rows by (expId, metricId) and computes the
// maximum and minimum observed value per group. Null values are skipped, and
// a group whose values are all null is dropped rather than emitted with null
// extrema. Output order follows first appearance of each group; callers must
// not rely on it.
func Aggregate(eng *engine.Engine, filtered *table.Table) (*table.Table, error) {
	logger := zap.L().Named("aggregator")

	expCol, err := filtered.Column(model.ColExpID)
	if err != nil {
		return nil, err
	}
	metricCol, err := filtered.Column(model.ColMetricID)
	if err != nil {
		return nil, err
	}
	valueCol, err := filtered.Column(model.ColValue)
	if err != nil {
		return nil, err
	}

	expID, ok := expCol.(*array.Int32)
	if !ok {
		return nil, fmt.Errorf("column %q is not an int32 column", model.ColExpID)
	}
	metricID, ok := metricCol.(*array.Int32)
	if !ok {
		return nil, fmt.Errorf("column %q is not an int32 column", model.ColMetricID)
	}
	value, ok := valueCol.(*array.Float32)
	if !ok {
		return nil, fmt.Errorf("column %q is not a float32 column", model.ColValue)
	}

	groups := make(map[groupKey]*extrema)
	order := make([]groupKey, 0)

	for i := 0; i < filtered.NumRows(); i++ {
		// Joined keys are non-null by construction; null values carry no
		// extrema and leave their group unregistered.
		if expID.IsNull(i) || metricID.IsNull(i) || value.IsNull(i) {
			continue
		}

		key := groupKey{expID: expID.Value(i), metricID: metricID.Value(i)}
		v := value.Value(i)

		group, seen := groups[key]
		if !seen {
			groups[key] = &extrema{max: v, min: v}
			order = append(order, key)
			continue
		}
		if v > group.max {
			group.max = v
		}
		if v < group.min {
			group.min = v
		}
	}

	builder := array.NewRecordBuilder(eng.Allocator(), model.ScoresSchema())
	defer builder.Release()

	expOut := builder.Field(0).(*array.Int32Builder)
	metricOut := builder.Field(1).(*array.Int32Builder)
	maxOut := builder.Field(2).(*array.Float32Builder)
	minOut := builder.Field(3).(*array.Float32Builder)

	for _, key := range order {
		group := groups[key]
		expOut.Append(key.expID)
		metricOut.Append(key.metricID)
		maxOut.Append(group.max)
		minOut.Append(group.min)
	}

	logger.Info("Aggregated scores",
		zap.Int("inputRows", filtered.NumRows()),
		zap.Int("groups", len(order)))

	return table.New(builder.NewRecord()), nil
}
