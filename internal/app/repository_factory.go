package app

import (
	"context"
	"fmt"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/pulse/internal/shared/application"
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/pulse/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/pulse/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/migrations"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/felixgeelhaar/pulse/internal/telemetry/infrastructure/persistence"
	"github.com/felixgeelhaar/pulse/pkg/config"
)

// RepositoryFactory creates repositories based on the database driver.
// A nil connection selects the in-memory backend.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	driver := database.DriverMemory
	if conn != nil {
		driver = conn.Driver()
	}
	return &RepositoryFactory{
		conn:   conn,
		driver: driver,
	}
}

// TelemetryRepository creates the task/instance repository for the configured driver.
func (f *RepositoryFactory) TelemetryRepository() (telemetry.Repository, error) {
	switch f.driver {
	case database.DriverMemory:
		return persistence.NewMemoryRepository(), nil

	case database.DriverSQLite:
		return persistence.NewSQLiteRepository(f.conn), nil

	case database.DriverPostgres:
		return persistence.NewPostgresRepository(f.conn), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// UnitOfWork returns a transactional unit of work for SQL drivers and a
// no-op one for the in-memory backend.
func (f *RepositoryFactory) UnitOfWork() sharedApplication.UnitOfWork {
	if f.conn == nil {
		return sharedApplication.NoopUnitOfWork{}
	}
	return database.NewUnitOfWork(f.conn)
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection, nil for memory.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}

// OpenDatabase connects to the configured backend and applies migrations.
// The memory driver returns a nil connection.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	driver, err := database.ParseDriver(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if driver == database.DriverMemory {
		logger.Info("using in-memory telemetry store")
		return nil, nil
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     driver,
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("connected to database", "driver", driver)
	return conn, nil
}
