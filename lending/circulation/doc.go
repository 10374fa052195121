// Package circulation provides the Lending Engine.
//
// The Engine composes the Inventory Store and the Loan Ledger of a session's open transaction
// into the lending operations: Borrow, ReturnBook and OverrideDueDate, plus read passthroughs
// and inventory administration. Every operation runs through Session.Within, which opens or
// reuses the session's transaction, rolls it back when the operation fails and otherwise leaves
// it open. Committing is always the caller's explicit step.
//
// Normal outcomes are result values, never errors:
//   - Borrow returns a nil loan when the borrower already holds the book from the branch,
//     when no copies are left, or when the book, borrower or branch is unknown
//   - ReturnBook returns NothingToReturn or ReturnRejectedOverdue
//   - OverrideDueDate returns false when there is no such loan
//
// Errors carry a sentinel from package lending (ErrInsertionFailed, ErrReturnFailed,
// ErrUpdateFailed, ErrNotFound, ...) joined with the cause; lending.KindOf classifies them.
//
// The Engine holds no per-request state and is safe for concurrent use by many sessions.
package circulation
