package lending

import (
	"fmt"
	"time"
)

// Book is a catalog title. Equality is by full field match.
type Book struct {
	ID    int64
	Title string
}

// Branch is a library branch that holds copies of books.
type Branch struct {
	ID      int64
	Name    string
	Address string
}

// Borrower is a registered library patron.
type Borrower struct {
	ID      int64
	Name    string
	Address string
	Phone   string
}

// CopyKey identifies a CopyRecord by stable identifiers only.
type CopyKey struct {
	BookID   int64
	BranchID int64
}

// String renders the key for lock tables, logs, and span attributes.
func (k CopyKey) String() string {
	return fmt.Sprintf("copies/%d/%d", k.BookID, k.BranchID)
}

// LoanKey identifies a Loan. A borrower can have at most one outstanding loan per key.
type LoanKey struct {
	BookID     int64
	BorrowerID int64
	BranchID   int64
}

// String renders the key for lock tables, logs, and span attributes.
func (k LoanKey) String() string {
	return fmt.Sprintf("loans/%d/%d/%d", k.BookID, k.BorrowerID, k.BranchID)
}

// CopyKeyOf builds the CopyKey for a branch and book.
func CopyKeyOf(branch Branch, book Book) CopyKey {
	return CopyKey{BookID: book.ID, BranchID: branch.ID}
}

// LoanKeyOf builds the LoanKey for a book, borrower and branch.
func LoanKeyOf(book Book, borrower Borrower, branch Branch) LoanKey {
	return LoanKey{BookID: book.ID, BorrowerID: borrower.ID, BranchID: branch.ID}
}

// CopyRecord is the number of copies of a book a branch can lend.
// A record with Count == 0 is never persisted.
type CopyRecord struct {
	Book   Book
	Branch Branch
	Count  int
}

// Key returns the identity of the record.
func (r CopyRecord) Key() CopyKey {
	return CopyKeyOf(r.Branch, r.Book)
}

// Loan is an outstanding loan. Its existence is the "outstanding" state, there is no status field.
//
// DateOut and DueDate are nullable; null is represented by the zero time.Time.
type Loan struct {
	Book     Book
	Borrower Borrower
	Branch   Branch
	DateOut  time.Time
	DueDate  time.Time
}

// Key returns the identity of the loan.
func (l Loan) Key() LoanKey {
	return LoanKeyOf(l.Book, l.Borrower, l.Branch)
}

// HasDueDate reports whether the due date is set.
func (l Loan) HasDueDate() bool {
	return !l.DueDate.IsZero()
}

// IsOverdueOn reports whether a return on the given date would be after the due date.
// Loans without a due date are never overdue. The comparison is by calendar date.
func (l Loan) IsOverdueOn(returnDate time.Time) bool {
	if !l.HasDueDate() {
		return false
	}

	return DateOf(returnDate).After(DateOf(l.DueDate))
}

// BookCopies pairs a book with the number of copies a branch holds.
type BookCopies struct {
	Book   Book
	Copies int
}

// DateOf truncates t to midnight UTC of its calendar day in t's own location.
// The zero time stays zero.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}

	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
