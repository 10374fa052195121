package adapters

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB.
type SQLXAdapter struct {
	db *sqlx.DB
}

// NewSQLXAdapter creates a new SQLX adapter.
func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{db: db}
}

// BeginTx starts a transaction on a dedicated connection.
func (s *SQLXAdapter) BeginTx(ctx context.Context) (TxAdapter, error) {
	tx, err := s.db.BeginTxx(ctx, readCommitted)
	if err != nil {
		return nil, err
	}

	return &sqlxTx{tx: tx}, nil
}

// Query executes a query using the sqlx.DB and returns wrapped rows.
func (s *SQLXAdapter) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows.Rows}, nil
}

// Exec executes a statement using the sqlx.DB and returns the wrapped result.
func (s *SQLXAdapter) Exec(ctx context.Context, query string, args ...any) (DBResult, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

// sqlxTx wraps sqlx.Tx to implement the TxAdapter interface.
type sqlxTx struct {
	tx *sqlx.Tx
}

func (s *sqlxTx) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	rows, err := s.tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows.Rows}, nil
}

func (s *sqlxTx) Exec(ctx context.Context, query string, args ...any) (DBResult, error) {
	result, err := s.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

func (s *sqlxTx) Commit(_ context.Context) error {
	return s.tx.Commit()
}

func (s *sqlxTx) Rollback(_ context.Context) error {
	return s.tx.Rollback()
}
