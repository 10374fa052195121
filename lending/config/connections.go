package config

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/kingjon3377/ntLmsSpring-sub000/lending/postgresengine"
)

const driverNamePostgres = "postgres"

// ErrConnectingFailed is returned when a database connection cannot be established.
var ErrConnectingFailed = errors.New("connecting to database failed")

// PGXPoolConfig builds a pgxpool.Config from the database settings.
func (c DatabaseConfig) PGXPoolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	poolConfig.MaxConns = c.MaxConns
	poolConfig.MinConns = c.MinConns
	poolConfig.MaxConnLifetime = c.MaxConnLifetime
	poolConfig.MaxConnIdleTime = c.MaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = c.ConnectTimeout

	return poolConfig, nil
}

// OpenPGXPool creates and pings a pgx pool.
func (c DatabaseConfig) OpenPGXPool(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := c.PGXPoolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Join(ErrConnectingFailed, err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(ErrConnectingFailed, err)
	}

	return pool, nil
}

// OpenSQLDB opens and pings a sql.DB using the lib/pq driver.
func (c DatabaseConfig) OpenSQLDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(driverNamePostgres, c.DSN)
	if err != nil {
		return nil, errors.Join(ErrConnectingFailed, err)
	}

	c.configurePool(db)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectingFailed, err)
	}

	return db, nil
}

// OpenSQLX connects a sqlx.DB using the lib/pq driver.
func (c DatabaseConfig) OpenSQLX(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driverNamePostgres, c.DSN)
	if err != nil {
		return nil, errors.Join(ErrConnectingFailed, err)
	}

	c.configurePool(db.DB)

	return db, nil
}

// OpenBackend connects with the configured driver and creates the PostgreSQL backend on it.
// The returned close function releases the connection pool.
func (c DatabaseConfig) OpenBackend(
	ctx context.Context,
	options ...postgresengine.Option,
) (*postgresengine.Backend, func(), error) {
	options = append([]postgresengine.Option{postgresengine.WithTableNames(c.Tables)}, options...)

	switch c.Driver {
	case DriverSQL:
		db, err := c.OpenSQLDB(ctx)
		if err != nil {
			return nil, nil, err
		}

		backend, err := postgresengine.NewBackendFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return backend, func() { _ = db.Close() }, nil

	case DriverSQLX:
		db, err := c.OpenSQLX(ctx)
		if err != nil {
			return nil, nil, err
		}

		backend, err := postgresengine.NewBackendFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return backend, func() { _ = db.Close() }, nil

	default:
		pool, err := c.OpenPGXPool(ctx)
		if err != nil {
			return nil, nil, err
		}

		backend, err := postgresengine.NewBackendFromPGXPool(pool, options...)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		return backend, pool.Close, nil
	}
}

func (c DatabaseConfig) configurePool(db *sql.DB) {
	db.SetMaxOpenConns(int(c.MaxConns))
	db.SetMaxIdleConns(int(c.MinConns))
	db.SetConnMaxLifetime(c.MaxConnLifetime)
	db.SetConnMaxIdleTime(c.MaxConnIdleTime)
}
