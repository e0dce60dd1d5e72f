// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"go.uber.org/zap"

	"github.com/David-Botos/ml-logs-transformer/pkg/config"
)

// PostgresStore implements the MetadataStore interface for PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresStore creates and initializes a new PostgreSQL metadata store
func NewPostgresStore(ctx context.Context, cfg *config.PostgresConfig) (*PostgresStore, error) {
	logger := zap.L().Named("postgres-store")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Set statement timeout if configured
	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	// Verify connection
	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	store := &PostgresStore{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return store, nil
}

// DB returns the underlying database connection
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// DriverName returns the database/sql driver name
func (s *PostgresStore) DriverName() string {
	return "pgx"
}

// Validate verifies the PostgreSQL connection and that the experiments table
// is reachable
func (s *PostgresStore) Validate() error {
	var version string
	err := s.db.QueryRow("SELECT version()").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	s.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	var exists bool
	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		)
	`
	if err := s.db.QueryRow(query, s.cfg.Table).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check experiments table: %w", err)
	}
	if !exists {
		return fmt.Errorf("experiments table %q not found", s.cfg.Table)
	}

	s.logger.Info("PostgreSQL metadata store validated",
		zap.String("database", s.cfg.Database),
		zap.String("table", s.cfg.Table))

	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	s.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(s.logger, s.cfg.Database, s.db)
	return s.db.Close()
}

// QueryWithTimeout executes a query with a timeout
func (s *PostgresStore) QueryWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (*sql.Rows, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.QueryContext(queryCtx, query, args...)
}
