package postgresengine

import (
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

const (
	colID         = "id"
	colTitle      = "title"
	colName       = "name"
	colAddress    = "address"
	colPhone      = "phone"
	colBookID     = "book_id"
	colBranchID   = "branch_id"
	colBorrowerID = "borrower_id"
	colCount      = "count"
	colDateOut    = "date_out"
	colDueDate    = "due_date"

	conflictTargetCopies = colBookID + ", " + colBranchID
	excludedCount        = "EXCLUDED." + colCount
)

type sqlQueryString = string

// buildLockCopyKey takes a transaction-scoped advisory lock on the copy key. Unlike FOR UPDATE it
// also serializes transactions on a key whose copies row does not exist (yet).
func (b *Backend) buildLockCopyKey(key lending.CopyKey) (sqlQueryString, []any, error) {
	lockKey := fmt.Sprintf("%s/%d/%d", b.tables.Copies, key.BookID, key.BranchID)

	return b.builder.
		Select(goqu.Func("pg_advisory_xact_lock", goqu.Func("hashtextextended", lockKey, int64(0)))).
		Prepared(true).
		ToSQL()
}

func (b *Backend) buildSelectCopiesForUpdate(key lending.CopyKey) (sqlQueryString, []any, error) {
	return b.builder.
		From(b.tables.Copies).
		Prepared(true).
		Select(colCount).
		Where(goqu.Ex{colBookID: key.BookID, colBranchID: key.BranchID}).
		ForUpdate(exp.Wait).
		ToSQL()
}

func (b *Backend) buildUpsertCopies(key lending.CopyKey, count int) (sqlQueryString, []any, error) {
	return b.builder.
		Insert(b.tables.Copies).
		Prepared(true).
		Rows(goqu.Record{colBookID: key.BookID, colBranchID: key.BranchID, colCount: count}).
		OnConflict(goqu.DoUpdate(conflictTargetCopies, goqu.Record{colCount: goqu.L(excludedCount)})).
		ToSQL()
}

func (b *Backend) buildDeleteCopies(key lending.CopyKey) (sqlQueryString, []any, error) {
	return b.builder.
		Delete(b.tables.Copies).
		Prepared(true).
		Where(goqu.Ex{colBookID: key.BookID, colBranchID: key.BranchID}).
		ToSQL()
}

// buildSelectCopies selects book_id, title, branch_id, name, address, count for all copy records
// matching where (nil selects everything).
func (b *Backend) buildSelectCopies(where exp.Expression) (sqlQueryString, []any, error) {
	copies, books, branches := goqu.T(b.tables.Copies), goqu.T(b.tables.Books), goqu.T(b.tables.Branches)

	stmt := b.builder.
		From(copies).
		Prepared(true).
		Select(
			books.Col(colID), books.Col(colTitle),
			branches.Col(colID), branches.Col(colName), branches.Col(colAddress),
			copies.Col(colCount),
		).
		InnerJoin(books, goqu.On(books.Col(colID).Eq(copies.Col(colBookID)))).
		InnerJoin(branches, goqu.On(branches.Col(colID).Eq(copies.Col(colBranchID))))

	if where != nil {
		stmt = stmt.Where(where)
	}

	return stmt.ToSQL()
}

// buildSelectLoans selects the joined loan columns for all loans matching where (nil selects everything).
// With forUpdate, the selected loan rows are locked.
func (b *Backend) buildSelectLoans(where exp.Expression, forUpdate bool) (sqlQueryString, []any, error) {
	loans := goqu.T(b.tables.Loans)
	books, borrowers, branches := goqu.T(b.tables.Books), goqu.T(b.tables.Borrowers), goqu.T(b.tables.Branches)

	stmt := b.builder.
		From(loans).
		Prepared(true).
		Select(
			books.Col(colID), books.Col(colTitle),
			borrowers.Col(colID), borrowers.Col(colName), borrowers.Col(colAddress), borrowers.Col(colPhone),
			branches.Col(colID), branches.Col(colName), branches.Col(colAddress),
			loans.Col(colDateOut), loans.Col(colDueDate),
		).
		InnerJoin(books, goqu.On(books.Col(colID).Eq(loans.Col(colBookID)))).
		InnerJoin(borrowers, goqu.On(borrowers.Col(colID).Eq(loans.Col(colBorrowerID)))).
		InnerJoin(branches, goqu.On(branches.Col(colID).Eq(loans.Col(colBranchID))))

	if where != nil {
		stmt = stmt.Where(where)
	}

	if forUpdate {
		stmt = stmt.ForUpdate(exp.Wait, loans)
	}

	return stmt.ToSQL()
}

func (b *Backend) loanKeyCondition(key lending.LoanKey) exp.Expression {
	loans := goqu.T(b.tables.Loans)

	return goqu.And(
		loans.Col(colBookID).Eq(key.BookID),
		loans.Col(colBorrowerID).Eq(key.BorrowerID),
		loans.Col(colBranchID).Eq(key.BranchID),
	)
}

func (b *Backend) buildInsertLoan(loan lending.Loan) (sqlQueryString, []any, error) {
	return b.builder.
		Insert(b.tables.Loans).
		Prepared(true).
		Rows(goqu.Record{
			colBookID:     loan.Book.ID,
			colBorrowerID: loan.Borrower.ID,
			colBranchID:   loan.Branch.ID,
			colDateOut:    nullableTimestamp(loan.DateOut),
			colDueDate:    nullableDate(loan.DueDate),
		}).
		ToSQL()
}

func (b *Backend) buildUpdateLoan(loan lending.Loan) (sqlQueryString, []any, error) {
	key := loan.Key()

	return b.builder.
		Update(b.tables.Loans).
		Prepared(true).
		Set(goqu.Record{
			colDateOut: nullableTimestamp(loan.DateOut),
			colDueDate: nullableDate(loan.DueDate),
		}).
		Where(goqu.Ex{colBookID: key.BookID, colBorrowerID: key.BorrowerID, colBranchID: key.BranchID}).
		ToSQL()
}

func (b *Backend) buildDeleteLoan(key lending.LoanKey) (sqlQueryString, []any, error) {
	return b.builder.
		Delete(b.tables.Loans).
		Prepared(true).
		Where(goqu.Ex{colBookID: key.BookID, colBorrowerID: key.BorrowerID, colBranchID: key.BranchID}).
		ToSQL()
}

func (b *Backend) buildLookup(table string, id int64, cols ...any) (sqlQueryString, []any, error) {
	return b.builder.
		From(table).
		Prepared(true).
		Select(cols...).
		Where(goqu.Ex{colID: id}).
		ToSQL()
}

// nullableTimestamp maps the zero time to SQL NULL.
func nullableTimestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}

	return t
}

// nullableDate maps the zero time to SQL NULL and anything else to its calendar date,
// which both pgx and lib/pq send as text the server parses as DATE.
func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}

	return t.Format(time.DateOnly)
}
