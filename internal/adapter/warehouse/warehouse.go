// Package warehouse stores climate observations in a star schema of eight
// dimension tables and two fact tables, backed by GORM.
package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
)

// Options tunes how chunks are merged into the facts.
type Options struct {
	Policy    domain.MergePolicy
	CacheSize int // committed dimension keys kept in memory
}

// Config selects and opens the backing database.
type Config struct {
	Driver string
	DSN    string
	Options
}

// Warehouse is an open handle to the star schema.
type Warehouse struct {
	db       *gorm.DB
	driver   string
	opts     Options
	resolver *resolver
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the configured database, applies migrations, and returns
// a ready warehouse.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Warehouse, error) {
	dialector, err := dialectorFor(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(logger),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s warehouse: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// One writer; a second connection would not see uncommitted chunk rows
		// and would contend for the file lock.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s warehouse: %w", cfg.Driver, err)
	}

	if err := Migrate(cfg.Driver, sqlDB, logger); err != nil {
		sqlDB.Close()
		return nil, err
	}

	w, err := New(db, cfg.Driver, cfg.Options, logger)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	logger.Info("warehouse opened", "driver", cfg.Driver, "merge_policy", w.opts.Policy)
	return w, nil
}

// New wraps an already-migrated GORM handle.
func New(db *gorm.DB, driver string, opts Options, logger *slog.Logger) (*Warehouse, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 4096
	}
	if opts.Policy == "" {
		opts.Policy = domain.MergeLegacy
	}
	r, err := newResolver(opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Warehouse{
		db:       db,
		driver:   driver,
		opts:     opts,
		resolver: r,
		logger:   logger,
	}, nil
}

// Gorm returns the GORM handle for read-only reporting.
func (w *Warehouse) Gorm() *gorm.DB { return w.db }

// Driver returns the database driver name.
func (w *Warehouse) Driver() string { return w.driver }

// CheckReadiness pings the database.
func (w *Warehouse) CheckReadiness(ctx context.Context) error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database handle. Only the first call has an effect.
func (w *Warehouse) Close() error {
	w.closeOnce.Do(func() {
		sqlDB, err := w.db.DB()
		if err != nil {
			w.closeErr = err
			return
		}
		w.closeErr = sqlDB.Close()
	})
	return w.closeErr
}
