// Package sqldb adapts a database/sql pool to database.DB. The MySQL,
// SQL Server, Oracle and SQLite drivers are thin wrappers around it that
// supply their own error classification.
package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
)

// ErrorMapper classifies a native driver error. It receives errors that
// MapCommon did not already handle.
type ErrorMapper func(err error, msg string) error

// Options describes the engine behind a pool.
type Options struct {
	Driver     database.Driver
	DriverName string           // name registered with database/sql
	Connector  driver.Connector // used instead of DriverName when set
	Database   string
	SearchPath []string
	MapError   ErrorMapper

	// Sequential marks pools that must not run overlapping queries, such
	// as a single-connection in-memory SQLite.
	Sequential bool
}

// DB is a database/sql-backed database.DB.
type DB struct {
	db   *sql.DB
	opts Options
}

// Open opens the pool described by cfg and opts, applies pool settings and
// pings it within cfg.ConnectTimeout.
func Open(ctx context.Context, cfg *database.Config, opts Options) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		db  *sql.DB
		err error
	)
	if opts.Connector != nil {
		db = sql.OpenDB(opts.Connector)
	} else {
		db, err = sql.Open(opts.DriverName, cfg.DSN)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
		}
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	if opts.Sequential {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}

	if opts.SearchPath == nil {
		opts.SearchPath = cfg.SearchPath
	}
	if opts.Driver == "" {
		opts.Driver = cfg.Driver
	}

	d := Wrap(db, opts)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// Wrap adapts an already open *sql.DB.
func Wrap(db *sql.DB, opts Options) *DB {
	return &DB{db: db, opts: opts}
}

// --- database.DB implementation ---

func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return d.mapError(err, "ping failed")
	}
	return nil
}

func (d *DB) Close() {
	_ = d.db.Close()
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, d.mapError(err, "query failed")
	}
	return &sqlRows{rows: rows, db: d}, nil
}

func (d *DB) QueryRow(ctx context.Context, query string, args ...any) (database.Row, error) {
	return &sqlRow{row: d.db.QueryRowContext(ctx, query, args...), db: d}, nil
}

func (d *DB) Driver() database.Driver { return d.opts.Driver }
func (d *DB) SearchPath() []string    { return d.opts.SearchPath }
func (d *DB) Concurrent() bool        { return !d.opts.Sequential }

func (d *DB) Database() string { return d.opts.Database }

// SetDatabase records the active database name, for drivers that can only
// learn it after connecting.
func (d *DB) SetDatabase(name string) { d.opts.Database = name }

// SQL exposes the underlying pool.
func (d *DB) SQL() *sql.DB { return d.db }

func (d *DB) mapError(err error, msg string) error {
	if mapped, ok := MapCommon(err, msg); ok {
		return mapped
	}
	if d.opts.MapError != nil {
		return d.opts.MapError(err, msg)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// MapCommon handles errors that look the same for every database/sql
// driver: nil, already classified, context expiry and sql.ErrNoRows.
func MapCommon(err error, msg string) (error, bool) {
	if err == nil {
		return nil, true
	}

	var e *errs.Error
	if errors.As(err, &e) {
		return err, true
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err), true
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err), true
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err), true
	}

	return nil, false
}

// --- sql type wrappers ---

type sqlRows struct {
	rows *sql.Rows
	db   *DB
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }

func (r *sqlRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return r.db.mapError(err, "scan failed")
	}
	return nil
}

func (r *sqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return r.db.mapError(err, "row iteration failed")
	}
	return nil
}

type sqlRow struct {
	row *sql.Row
	db  *DB
}

func (r *sqlRow) Scan(dest ...any) error {
	if err := r.row.Scan(dest...); err != nil {
		return r.db.mapError(err, "scan failed")
	}
	return nil
}
