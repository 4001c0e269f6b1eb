package postgresql

import (
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the gorm handle with an initialization flag. The flag flips
// to ready only after migrations have run; the notification log store polls
// it before writing audit rows.
type Database struct {
	db    *gorm.DB
	ready atomic.Bool
}

func NewDatabase(dsn string) (*Database, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) DB() *gorm.DB {
	if d == nil {
		return nil
	}
	return d.db
}

// MarkReady flips the initialization flag; called once migrations complete.
func (d *Database) MarkReady() {
	if d == nil {
		return
	}
	d.ready.Store(true)
}

// IsReady reports whether schema initialization has finished.
func (d *Database) IsReady() bool {
	if d == nil {
		return false
	}
	return d.ready.Load()
}

func (d *Database) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
