// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/ml-logs-transformer/pkg/config"
)

// StoreFactory creates experiment metadata stores
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateExperimentStore creates the metadata store selected by the
// experiments source configuration.
func (f *StoreFactory) CreateExperimentStore(ctx context.Context) (MetadataStore, error) {
	switch f.cfg.ExperimentsSource {
	case config.SourcePostgres:
		f.logger.Info("Creating PostgreSQL metadata store")
		store, err := NewPostgresStore(ctx, f.cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL store: %w", err)
		}
		return store, nil

	case config.SourceSnowflake:
		f.logger.Info("Creating Snowflake metadata store")
		store, err := NewSnowflakeStore(ctx, f.cfg.Snowflake)
		if err != nil {
			return nil, fmt.Errorf("failed to create Snowflake store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("experiments source %q has no metadata store", f.cfg.ExperimentsSource)
	}
}
