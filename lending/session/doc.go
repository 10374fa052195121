// Package session provides the Transaction Coordinator: one per logical caller session.
//
// A Coordinator owns at most one open storage transaction. It moves through the states
//
//	NoTransaction -> Open -> (Committed | RolledBack) -> NoTransaction
//
// Begin is idempotent while a transaction is open, so several engine operations can share
// one transaction. Commit is always an explicit caller step. Rollback attaches its own failure
// to the pending error as a suppressed cause and always leaves the coordinator in NoTransaction,
// so a broken transaction can never wedge the session.
//
// Usage:
//
//	sess, _ := session.NewCoordinator(backend, session.WithContextualLogger(logger))
//
//	err := sess.Within(ctx, func(ctx context.Context, tx lending.Tx) error {
//		return tx.Inventory().SetCopies(ctx, branch, book, 3)
//	})
//	if err != nil {
//		// rolled back already
//	}
//
//	err = sess.Commit(ctx)
package session
