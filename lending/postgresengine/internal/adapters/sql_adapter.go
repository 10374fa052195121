package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for sql.DB.
type SQLAdapter struct {
	db *sql.DB
}

// NewSQLAdapter creates a new SQL adapter.
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

// BeginTx starts a transaction on a dedicated connection.
func (s *SQLAdapter) BeginTx(ctx context.Context) (TxAdapter, error) {
	tx, err := s.db.BeginTx(ctx, readCommitted)
	if err != nil {
		return nil, err
	}

	return &sqlTx{tx: tx}, nil
}

// Query executes a query using the sql.DB and returns wrapped rows.
func (s *SQLAdapter) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

// Exec executes a statement using the sql.DB and returns the wrapped result.
func (s *SQLAdapter) Exec(ctx context.Context, query string, args ...any) (DBResult, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

// sqlTx wraps sql.Tx to implement the TxAdapter interface.
type sqlTx struct {
	tx *sql.Tx
}

func (s *sqlTx) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

func (s *sqlTx) Exec(ctx context.Context, query string, args ...any) (DBResult, error) {
	result, err := s.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

// Commit ignores ctx; database/sql binds the transaction to the context given to BeginTx.
func (s *sqlTx) Commit(_ context.Context) error {
	return s.tx.Commit()
}

// Rollback ignores ctx; database/sql binds the transaction to the context given to BeginTx.
func (s *sqlTx) Rollback(_ context.Context) error {
	return s.tx.Rollback()
}
