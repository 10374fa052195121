package lending

import (
	"context"
	"time"
)

// Backend is the storage collaborator that opens transactions.
// Each Tx owns its connection or transaction handle exclusively.
type Backend interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one open storage transaction with the stores bound to it.
// After Commit or Rollback every store method returns ErrTxDone (or the driver's equivalent).
type Tx interface {
	ID() string
	Inventory() InventoryStore
	Ledger() LoanLedger
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// InventoryStore holds the per (book, branch) copy counts.
//
// Implementations guarantee that reading and writing a given key inside one transaction
// excludes every other transaction from the same key until the transaction ends.
type InventoryStore interface {
	// Copies returns the count for the key, 0 when no record exists.
	Copies(ctx context.Context, branch Branch, book Book) (int, error)

	// SetCopies stores count for the key. A negative count fails with ErrInvalidArgument,
	// zero deletes the record (idempotent), a positive count inserts or updates in place.
	SetCopies(ctx context.Context, branch Branch, book Book, count int) error

	// CopiesForBranch returns all books with copies at branch. A zero-ID branch yields an empty map.
	CopiesForBranch(ctx context.Context, branch Branch) (map[Book]int, error)

	// CopiesForBook returns all branches holding copies of book. A zero-ID book yields an empty map.
	CopiesForBook(ctx context.Context, book Book) (map[Branch]int, error)

	// AllCopies returns every copy record grouped by branch.
	AllCopies(ctx context.Context) (map[Branch]map[Book]int, error)
}

// LoanLedger holds the outstanding loans keyed by (book, borrower, branch).
type LoanLedger interface {
	// Create records a new loan. A loan with the same key fails with ErrAlreadyExists.
	Create(
		ctx context.Context,
		book Book,
		borrower Borrower,
		branch Branch,
		dateOut time.Time,
		dueDate time.Time,
	) (Loan, error)

	// Get returns the loan for key and whether it exists.
	Get(ctx context.Context, key LoanKey) (Loan, bool, error)

	// Update persists DateOut and DueDate for the loan's key. Missing keys are a no-op.
	Update(ctx context.Context, loan Loan) error

	// Delete removes the loan's key. Missing keys are a no-op.
	Delete(ctx context.Context, loan Loan) error

	// All returns every outstanding loan, unordered.
	All(ctx context.Context) ([]Loan, error)

	// ForBorrower returns the outstanding loans of borrower, unordered.
	ForBorrower(ctx context.Context, borrower Borrower) ([]Loan, error)
}

// Catalog resolves identities of the entities the engine works with. It is read-only.
type Catalog interface {
	LookupBook(ctx context.Context, id int64) (Book, bool, error)
	LookupBorrower(ctx context.Context, id int64) (Borrower, bool, error)
	LookupBranch(ctx context.Context, id int64) (Branch, bool, error)
}
