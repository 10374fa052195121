// Package adapters provide database adapter implementations for the PostgreSQL lending stores.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// the DBAdapter and TxAdapter interfaces, so the stores work with any supported connection type.
//
// Transactions run at READ COMMITTED; the stores take row locks explicitly with SELECT ... FOR UPDATE.
package adapters
