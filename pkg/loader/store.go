// pkg/loader/store.go
package loader

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/ml-logs-transformer/pkg/connector"
	"github.com/David-Botos/ml-logs-transformer/pkg/engine"
	"github.com/David-Botos/ml-logs-transformer/pkg/model"
	"github.com/David-Botos/ml-logs-transformer/pkg/table"
)

// experimentRow is the scan target for warehouse-backed experiment metadata.
// Pointer fields keep SQL NULLs as nulls in the resulting table.
type experimentRow struct {
	ExpID   *int32  `db:"exp_id"`
	ExpName *string `db:"exp_name"`
}

// LoadExperimentsFromStore reads experiment metadata out of a warehouse
// instead of a delimited file. The query must project an exp_id and an
// exp_name column. Query failures surface as *DataSourceError.
func LoadExperimentsFromStore(
	ctx context.Context,
	eng *engine.Engine,
	store connector.MetadataStore,
	query string,
) (*table.Table, error) {
	logger := zap.L().Named("experiment-loader")

	db := sqlx.NewDb(store.DB(), store.DriverName())

	var rows []experimentRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, &DataSourceError{Source: store.DriverName(), Err: err}
	}

	builder := array.NewRecordBuilder(eng.Allocator(), model.ExperimentsSchema())
	defer builder.Release()

	expID := builder.Field(0).(*array.Int32Builder)
	expName := builder.Field(1).(*array.StringBuilder)

	for _, row := range rows {
		if row.ExpID != nil {
			expID.Append(*row.ExpID)
		} else {
			expID.AppendNull()
		}
		if row.ExpName != nil {
			expName.Append(*row.ExpName)
		} else {
			expName.AppendNull()
		}
	}

	logger.Info("Loaded experiments from store",
		zap.String("driver", store.DriverName()),
		zap.Int("rows", len(rows)))

	return table.New(builder.NewRecord()), nil
}
