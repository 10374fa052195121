// Package postgresengine is the PostgreSQL implementation of the lending storage collaborator.
//
// A Backend opens READ COMMITTED transactions through one of three connection types:
//   - pgx.Pool (NewBackendFromPGXPool)
//   - sql.DB with the lib/pq driver (NewBackendFromSQLDB)
//   - sqlx.DB (NewBackendFromSQLX)
//
// Point reads of copy records and loans take row locks with SELECT ... FOR UPDATE, so two transactions
// touching the same (book, branch) or loan key are serialized until the first one ends. Copy counts
// are written with INSERT ... ON CONFLICT DO UPDATE and deleted when they drop to zero; the schema's
// CHECK (count > 0) and the loans' composite primary key back the invariants in storage. A duplicate
// loan is reported as lending.ErrAlreadyExists.
//
// All SQL is built with goqu in prepared mode. CreateSchema creates the tables from the embedded schema.
//
// Usage:
//
//	backend, err := postgresengine.NewBackendFromPGXPool(pool, postgresengine.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//
//	if err = backend.CreateSchema(ctx); err != nil {
//		return err
//	}
//
//	engine, _ := circulation.NewEngine(backend.Catalog())
package postgresengine
