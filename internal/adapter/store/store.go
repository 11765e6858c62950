// Package store persists readings and daily summaries with gorm. SQLite is
// the default backend; PostgreSQL is selected with DB_DRIVER=postgres.
//
// Timestamps are written in UTC so range predicates compare correctly on
// every backend, and converted to the deployment's civil zone on read.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// Store is the gorm-backed persistent store. It is safe for concurrent use.
type Store struct {
	db     *gorm.DB
	loc    *time.Location
	logger *slog.Logger
}

// Open connects to the database, migrates the schema and returns a Store.
func Open(driver, dsn string, loc *time.Location, log *slog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access database handle: %w", err)
		}
		// SQLite allows a single writer; an in-memory database exists per connection.
		sqlDB.SetMaxOpenConns(1)
	}

	s := &Store{db: db, loc: loc, logger: log}
	if err := s.migrate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database ready", "driver", driver)
	return s, nil
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(&ReadingRow{}, &SummaryRow{})
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.StoreError{Op: op, Err: err}
}
