// Package database owns the connection to the relational store backing the
// tool inventory. A Factory holds at most one handle, opens it on first use,
// reopens it when it has been closed underneath, and lends out a single
// connection per operation.
package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/va6996/toolshed/config"
	"github.com/va6996/toolshed/log"
	"gorm.io/gorm"
)

// Factory lazily establishes and tears down the database handle. The handle
// is capped at one open connection, so statements issued through it never
// run in parallel.
type Factory struct {
	cfg       config.DatabaseConfig
	dialector func() gorm.Dialector

	mu sync.Mutex
	db *gorm.DB
}

// NewFactory validates cfg and prepares a factory. No connection is made
// until Connect or WithConn is called.
func NewFactory(cfg config.DatabaseConfig) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return &Factory{cfg: cfg, dialector: dialector}, nil
}

// Connect returns the live handle, opening a new one if none is held or the
// held one no longer answers. A cancelled or expired ctx is returned as is
// and leaves the held handle in place.
func (f *Factory) Connect(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.db != nil {
		err := f.check(ctx, f.db)
		if err == nil {
			return f.db, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warnf(ctx, "Database handle to %s is no longer usable, reconnecting: %v", f.cfg.Target(), err)
		f.closeHandle(ctx, f.db)
		f.db = nil
	}

	db, err := f.open(ctx)
	if err != nil {
		return nil, err
	}
	f.db = db
	return db, nil
}

// Disconnect closes the held handle, if any. The reference is cleared even
// when closing fails.
func (f *Factory) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.db == nil {
		return nil
	}
	db := f.db
	f.db = nil

	sqlDB, err := db.DB()
	if err != nil {
		return f.connectionError("disconnect", err)
	}
	if err := sqlDB.Close(); err != nil {
		return f.connectionError("disconnect", err)
	}
	log.Infof(ctx, "Disconnected from %s database at %s", f.cfg.Driver, f.cfg.Target())
	return nil
}

// WithConn checks out one connection, runs fn with a gorm session bound to
// it, and returns the connection to the handle on every exit path, panics
// included. A failure to release is logged and never replaces fn's result.
func (f *Factory) WithConn(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := f.Connect(ctx)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return f.connectionError("acquire", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return f.connectionError("acquire", err)
	}
	defer f.release(ctx, op, conn)

	tx := db.Session(&gorm.Session{NewDB: true, Context: ctx})
	tx.Statement.ConnPool = conn
	return fn(tx)
}

func (f *Factory) release(ctx context.Context, op string, conn *sql.Conn) {
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		log.Warnf(ctx, "Failed to release connection after %s: %v", op, err)
	}
}

func (f *Factory) open(ctx context.Context) (*gorm.DB, error) {
	db, err := gorm.Open(f.dialector(), &gorm.Config{
		Logger:                 log.NewGormLogger(time.Duration(f.cfg.SlowQueryMS) * time.Millisecond),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, f.connectionError("connect", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, f.connectionError("connect", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, f.connectionError("connect", err)
	}

	log.Infof(ctx, "Connected to %s database at %s", f.cfg.Driver, f.cfg.Target())
	return db, nil
}

// check reports whether db can still serve statements. A handle whose
// connection is currently lent out is alive by definition; pinging it would
// wait for the borrower.
func (f *Factory) check(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if sqlDB.Stats().InUse > 0 {
		return nil
	}
	return sqlDB.PingContext(ctx)
}

func (f *Factory) closeHandle(ctx context.Context, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Debugf(ctx, "Closing stale handle: %v", err)
	}
}

func (f *Factory) connectionError(op string, err error) error {
	return &ConnectionError{
		Driver: f.cfg.Driver,
		Target: f.cfg.Target(),
		Op:     op,
		Err:    err,
	}
}
