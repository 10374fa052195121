package postgresengine

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"sync"
	"text/template"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/postgresengine/internal/adapters"
)

const dialectPostgres = "postgres"

//go:embed schema.sql
var schemaSQL string

var schemaTemplate = template.Must(template.New("schema").Parse(schemaSQL))

// ErrCreatingSchemaFailed is returned when the schema could not be created.
var ErrCreatingSchemaFailed = errors.New("creating schema failed")

// Backend is a PostgreSQL lending.Backend. It also provides a lending.Catalog over the
// books, borrowers and branches tables.
type Backend struct {
	db      adapters.DBAdapter
	tables  TableNames
	builder goqu.DialectWrapper

	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
}

// NewBackendFromPGXPool creates a Backend using a pgx Pool.
func NewBackendFromPGXPool(db *pgxpool.Pool, options ...Option) (*Backend, error) {
	if db == nil {
		return nil, lending.ErrNilDatabaseConnection
	}

	return newBackend(adapters.NewPGXAdapter(db), options...)
}

// NewBackendFromSQLDB creates a Backend using a sql.DB, e.g., opened with the lib/pq driver.
func NewBackendFromSQLDB(db *sql.DB, options ...Option) (*Backend, error) {
	if db == nil {
		return nil, lending.ErrNilDatabaseConnection
	}

	return newBackend(adapters.NewSQLAdapter(db), options...)
}

// NewBackendFromSQLX creates a Backend using a sqlx.DB.
func NewBackendFromSQLX(db *sqlx.DB, options ...Option) (*Backend, error) {
	if db == nil {
		return nil, lending.ErrNilDatabaseConnection
	}

	return newBackend(adapters.NewSQLXAdapter(db), options...)
}

func newBackend(db adapters.DBAdapter, options ...Option) (*Backend, error) {
	b := &Backend{
		db:      db,
		tables:  DefaultTableNames(),
		builder: goqu.Dialect(dialectPostgres),
	}

	for _, option := range options {
		if err := option(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Begin starts a READ COMMITTED transaction on a dedicated connection.
func (b *Backend) Begin(ctx context.Context) (lending.Tx, error) {
	start := time.Now()

	tx, err := b.db.BeginTx(ctx)
	if err != nil {
		b.observeStatement(ctx, actionBegin, "BEGIN", time.Since(start), err)
		return nil, errors.Join(lending.ErrDataAccess, err)
	}

	b.observeStatement(ctx, actionBegin, "BEGIN", time.Since(start), nil)

	return &Tx{backend: b, tx: tx, id: uuid.NewString()}, nil
}

// Catalog returns the read-only lending.Catalog backed by this database.
func (b *Backend) Catalog() lending.Catalog {
	return catalog{backend: b}
}

// CreateSchema creates the tables and indexes if they do not exist.
func (b *Backend) CreateSchema(ctx context.Context) error {
	var ddl bytes.Buffer
	if err := schemaTemplate.Execute(&ddl, b.tables); err != nil {
		return errors.Join(ErrCreatingSchemaFailed, err)
	}

	start := time.Now()
	_, err := b.db.Exec(ctx, ddl.String())
	b.observeStatement(ctx, actionCreateSchema, ddl.String(), time.Since(start), err)

	if err != nil {
		return errors.Join(ErrCreatingSchemaFailed, lending.ErrDataAccess, err)
	}

	b.logInfo(ctx, logMsgSchemaCreated, logAttrTables, b.tables)

	return nil
}

// runner is implemented by both adapters.DBAdapter and adapters.TxAdapter.
type runner interface {
	Query(ctx context.Context, query string, args ...any) (adapters.DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (adapters.DBResult, error)
}

// query runs sqlQuery and calls each for every row.
func (b *Backend) query(
	ctx context.Context,
	r runner,
	action string,
	sqlQuery string,
	args []any,
	each func(rows adapters.DBRows) error,
) error {
	start := time.Now()

	err := func() error {
		rows, err := r.Query(ctx, sqlQuery, args...)
		if err != nil {
			return err
		}

		defer func() {
			if closeErr := rows.Close(); closeErr != nil {
				b.logError(ctx, logMsgCloseRowsFailed, closeErr, logAttrAction, action)
			}
		}()

		for rows.Next() {
			if err = each(rows); err != nil {
				return err
			}
		}

		return rows.Err()
	}()

	b.observeStatement(ctx, action, sqlQuery, time.Since(start), err)

	if err != nil {
		return errors.Join(lending.ErrDataAccess, err)
	}

	return nil
}

// exec runs sqlQuery and returns the number of affected rows.
func (b *Backend) exec(ctx context.Context, r runner, action string, sqlQuery string, args []any) (int64, error) {
	start := time.Now()

	result, err := r.Exec(ctx, sqlQuery, args...)
	b.observeStatement(ctx, action, sqlQuery, time.Since(start), err)

	if err != nil {
		if adapters.IsUniqueViolation(err) {
			return 0, errors.Join(lending.ErrAlreadyExists, err)
		}

		return 0, errors.Join(lending.ErrDataAccess, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Join(lending.ErrDataAccess, err)
	}

	return affected, nil
}

// Tx is one PostgreSQL transaction. Statements on it are serialized.
type Tx struct {
	backend *Backend
	tx      adapters.TxAdapter
	id      string

	// mu serializes statements on tx and guards done.
	mu   sync.Mutex
	done bool
}

// ID returns the transaction ID.
func (t *Tx) ID() string {
	return t.id
}

// Inventory returns the inventory store bound to this transaction.
func (t *Tx) Inventory() lending.InventoryStore {
	return inventory{tx: t}
}

// Ledger returns the loan ledger bound to this transaction.
func (t *Tx) Ledger() lending.LoanLedger {
	return ledger{tx: t}
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.finish(ctx, actionCommit, t.tx.Commit)
}

// Rollback rolls the transaction back.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.finish(ctx, actionRollback, t.tx.Rollback)
}

func (t *Tx) finish(ctx context.Context, action string, end func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return lending.ErrTxDone
	}

	t.done = true

	start := time.Now()
	err := end(ctx)
	t.backend.observeStatement(ctx, action, action, time.Since(start), err)

	if err != nil {
		return errors.Join(lending.ErrDataAccess, err)
	}

	return nil
}

// query runs a query inside the transaction. See Backend.query.
func (t *Tx) query(ctx context.Context, action, sqlQuery string, args []any, each func(rows adapters.DBRows) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return lending.ErrTxDone
	}

	return t.backend.query(ctx, t.tx, action, sqlQuery, args, each)
}

// exec runs a statement inside the transaction. See Backend.exec.
func (t *Tx) exec(ctx context.Context, action, sqlQuery string, args []any) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return 0, lending.ErrTxDone
	}

	return t.backend.exec(ctx, t.tx, action, sqlQuery, args)
}
