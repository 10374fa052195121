package adapters

import (
	"context"
)

// DBAdapter defines the database operations needed outside a transaction.
type DBAdapter interface {
	BeginTx(ctx context.Context) (TxAdapter, error)
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
}

// TxAdapter defines the operations of one open transaction. It is not safe for concurrent use.
type TxAdapter interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
