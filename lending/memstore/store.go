package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

const (
	logMsgBegin       = "lending.memstore: transaction started"
	logMsgCommit      = "lending.memstore: transaction committed"
	logMsgRollback    = "lending.memstore: transaction rolled back"
	logMsgLockTimeout = "lending.memstore: lock wait timed out"

	logAttrTxID   = "tx_id"
	logAttrWrites = "writes"
	logAttrKey    = "key"
)

type copyRow struct {
	book   lending.Book
	branch lending.Branch
	count  int
}

// Store is an in-memory lending.Backend. It also serves as the lending.Catalog for the
// books, borrowers and branches added to it.
type Store struct {
	// mu guards the committed maps below.
	mu        sync.RWMutex
	copies    map[lending.CopyKey]copyRow
	loans     map[lending.LoanKey]lending.Loan
	books     map[int64]lending.Book
	borrowers map[int64]lending.Borrower
	branches  map[int64]lending.Branch

	locks       *lockTable
	lockTimeout time.Duration
	logger      lending.Logger
}

// NewStore creates an empty Store.
func NewStore(options ...Option) (*Store, error) {
	s := &Store{
		copies:      make(map[lending.CopyKey]copyRow),
		loans:       make(map[lending.LoanKey]lending.Loan),
		books:       make(map[int64]lending.Book),
		borrowers:   make(map[int64]lending.Borrower),
		branches:    make(map[int64]lending.Branch),
		locks:       newLockTable(),
		lockTimeout: DefaultLockTimeout,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (lending.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx := &Tx{
		store:      s,
		id:         uuid.NewString(),
		held:       make(map[string]struct{}),
		copyWrites: make(map[lending.CopyKey]copyRow),
		loanWrites: make(map[lending.LoanKey]*lending.Loan),
	}

	s.logDebug(logMsgBegin, logAttrTxID, tx.id)

	return tx, nil
}

// Catalog returns the Store as a read-only lending.Catalog.
func (s *Store) Catalog() lending.Catalog {
	return s
}

// AddBook adds or replaces a book in the catalog.
func (s *Store) AddBook(book lending.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.books[book.ID] = book
}

// AddBorrower adds or replaces a borrower in the catalog.
func (s *Store) AddBorrower(borrower lending.Borrower) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.borrowers[borrower.ID] = borrower
}

// AddBranch adds or replaces a branch in the catalog.
func (s *Store) AddBranch(branch lending.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.branches[branch.ID] = branch
}

// LookupBook implements lending.Catalog.
func (s *Store) LookupBook(ctx context.Context, id int64) (lending.Book, bool, error) {
	if err := ctx.Err(); err != nil {
		return lending.Book{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[id]

	return book, ok, nil
}

// LookupBorrower implements lending.Catalog.
func (s *Store) LookupBorrower(ctx context.Context, id int64) (lending.Borrower, bool, error) {
	if err := ctx.Err(); err != nil {
		return lending.Borrower{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	borrower, ok := s.borrowers[id]

	return borrower, ok, nil
}

// LookupBranch implements lending.Catalog.
func (s *Store) LookupBranch(ctx context.Context, id int64) (lending.Branch, bool, error) {
	if err := ctx.Err(); err != nil {
		return lending.Branch{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	branch, ok := s.branches[id]

	return branch, ok, nil
}

// The refresh helpers replace stored entity values with the current catalog entry, so that
// editing a title or address is reflected in every record keyed by that ID. The caller holds mu.

func (s *Store) refreshBook(book lending.Book) lending.Book {
	if current, ok := s.books[book.ID]; ok {
		return current
	}

	return book
}

func (s *Store) refreshBranch(branch lending.Branch) lending.Branch {
	if current, ok := s.branches[branch.ID]; ok {
		return current
	}

	return branch
}

func (s *Store) refreshLoan(loan lending.Loan) lending.Loan {
	loan.Book = s.refreshBook(loan.Book)
	loan.Branch = s.refreshBranch(loan.Branch)

	if current, ok := s.borrowers[loan.Borrower.ID]; ok {
		loan.Borrower = current
	}

	return loan
}

func (s *Store) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Store) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
