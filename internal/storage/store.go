// Package storage implements the §6 schema-contract persistence layer on
// gorm.io/gorm + gorm.io/driver/mysql, grounded on
// ChoSanghyuk-blackholedex/internal/db/transaction_recorder.go's
// dsn-constructor + AutoMigrate + typed-record shape. Store is the single
// concrete type satisfying risk.PortfolioStore, execution.OrderStore,
// execution.OpenOrderStore, analysis.Store and outcome.Store — every
// persistence dependency those packages declare.
package storage

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps a GORM handle. The DSN format is identical to
// transaction_recorder.go's: "user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local".
type Store struct {
	db *gorm.DB
}

// New opens a MySQL connection and migrates every table AllModels lists.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}
	return NewWithDB(db)
}

// NewWithDB wraps an existing *gorm.DB — used by tests against sqlmock,
// mirroring transaction_recorder.go's NewMySQLRecorderWithDB.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for callers that need raw queries
// (health checks, migrations tooling).
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
