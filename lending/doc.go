// Package lending provides the core types and contracts of the lending consistency engine.
//
// The engine keeps a book's per-branch copy inventory and the outstanding-loan ledger
// mutually consistent under concurrent access. This package holds what every other
// package shares:
//   - the domain model (Book, Branch, Borrower, CopyRecord, Loan) and composite keys
//   - the storage contracts (Backend, Tx, InventoryStore, LoanLedger, Catalog)
//   - the error taxonomy (sentinel errors, SuppressedError, KindOf)
//   - the dependency-free observability contracts (Logger, ContextualLogger, MetricsCollector, TracingCollector)
//
// Storage implementations live in memstore (in-memory) and postgresengine (PostgreSQL),
// the Transaction Coordinator lives in session, and the Lending Engine in circulation.
//
// Typical wiring:
//
//	backend, _ := memstore.NewStore()
//	engine, _ := circulation.NewEngine(backend.Catalog())
//
//	sess, _ := session.NewCoordinator(backend)
//	loan, err := engine.Borrow(ctx, sess, borrowerID, bookID, branchID, dateOut, dueDate)
//	if err != nil {
//		// already rolled back
//	}
//	if loan == nil {
//		// already borrowed or no copies available
//	}
//	err = sess.Commit(ctx)
package lending
