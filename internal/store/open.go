package store

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// PGOptions holds what is needed to open the ledger database
type PGOptions struct {
	DSN string
	// ReadDSN routes plain reads to a replica when set; writes and locked reads stay on DSN
	ReadDSN         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// OpenPG connects to PostgreSQL, registers the read replica if any and configures the pool
func OpenPG(opts PGOptions) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	maxOpen, maxIdle, lifetime, idleTime := NormalizeConnectionPoolSettings(
		opts.MaxOpenConns, opts.MaxIdleConns, opts.ConnMaxLifetime, opts.ConnMaxIdleTime)

	if opts.ReadDSN != "" {
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.Open(opts.ReadDSN)},
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxOpenConns(maxOpen).
			SetMaxIdleConns(maxIdle).
			SetConnMaxLifetime(lifetime).
			SetConnMaxIdleTime(idleTime)
		if err := db.Use(resolver); err != nil {
			return nil, fmt.Errorf("failed to register read replica: %w", err)
		}
	}

	if err := ConfigureConnectionPool(db, maxOpen, maxIdle, lifetime, idleTime); err != nil {
		return nil, err
	}

	return db, nil
}
