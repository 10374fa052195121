package circulation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// AllBranchCopies lists the books a branch holds copies of, ordered by book ID.
// An unknown branch fails with lending.ErrNotFound.
func (e *Engine) AllBranchCopies(ctx context.Context, sess Session, branchID int64) ([]lending.BookCopies, error) {
	ctx, obs := e.startOperation(ctx, sess, operationAllBranchCopies, map[string]string{spanAttrBranchID: formatID(branchID)})

	branch, err := e.requireBranch(ctx, branchID)
	if err != nil {
		obs.finishError(err)
		return nil, err
	}

	var result []lending.BookCopies

	err = sess.Within(ctx, func(ctx context.Context, tx lending.Tx) error {
		copies, err := tx.Inventory().CopiesForBranch(ctx, branch)
		if err != nil {
			return err
		}

		result = make([]lending.BookCopies, 0, len(copies))
		for book, count := range copies {
			result = append(result, lending.BookCopies{Book: book, Copies: count})
		}

		return nil
	})
	if err != nil {
		obs.finishError(err)
		return nil, err
	}

	slices.SortFunc(result, func(a, b lending.BookCopies) int { return cmp.Compare(a.Book.ID, b.Book.ID) })
	obs.finishSuccess(outcomeListed)

	return result, nil
}

// LoansFor lists the outstanding loans of a borrower, ordered by branch ID and then book ID.
// An unknown borrower fails with lending.ErrNotFound.
func (e *Engine) LoansFor(ctx context.Context, sess Session, borrowerID int64) ([]lending.Loan, error) {
	ctx, obs := e.startOperation(ctx, sess, operationLoansFor, map[string]string{spanAttrBorrowerID: formatID(borrowerID)})

	loans, err := e.loansFor(ctx, sess, borrowerID)
	if err != nil {
		obs.finishError(err)
		return nil, err
	}

	slices.SortFunc(loans, compareLoans)
	obs.finishSuccess(outcomeListed)

	return loans, nil
}

// BranchesWithOutstandingLoan lists each branch the borrower owes at least one book to,
// once, ordered by branch ID. An unknown borrower fails with lending.ErrNotFound.
func (e *Engine) BranchesWithOutstandingLoan(ctx context.Context, sess Session, borrowerID int64) ([]lending.Branch, error) {
	ctx, obs := e.startOperation(
		ctx,
		sess,
		operationBranchesWithOutstandingLoan,
		map[string]string{spanAttrBorrowerID: formatID(borrowerID)},
	)

	loans, err := e.loansFor(ctx, sess, borrowerID)
	if err != nil {
		obs.finishError(err)
		return nil, err
	}

	seen := make(map[int64]struct{}, len(loans))
	branches := make([]lending.Branch, 0, len(loans))

	for _, loan := range loans {
		if _, dup := seen[loan.Branch.ID]; dup {
			continue
		}

		seen[loan.Branch.ID] = struct{}{}
		branches = append(branches, loan.Branch)
	}

	slices.SortFunc(branches, func(a, b lending.Branch) int { return cmp.Compare(a.ID, b.ID) })
	obs.finishSuccess(outcomeListed)

	return branches, nil
}

// Copies returns the number of copies of a book at a branch.
// An unknown book or branch fails with lending.ErrNotFound.
func (e *Engine) Copies(ctx context.Context, sess Session, branchID, bookID int64) (int, error) {
	ctx, obs := e.startOperation(ctx, sess, operationCopies, copyAttrs(bookID, branchID))

	book, branch, err := e.requireCopyKey(ctx, bookID, branchID)
	if err != nil {
		obs.finishError(err)
		return 0, err
	}

	var count int

	err = sess.Within(ctx, func(ctx context.Context, tx lending.Tx) error {
		var err error
		count, err = tx.Inventory().Copies(ctx, branch, book)

		return err
	})
	if err != nil {
		obs.finishError(err)
		return 0, err
	}

	obs.finishSuccess(outcomeListed)

	return count, nil
}

// SetCopies sets the number of copies of a book at a branch; 0 removes the record.
// A negative count fails with lending.ErrInvalidArgument, an unknown book or branch with
// lending.ErrNotFound; neither touches the session's transaction.
func (e *Engine) SetCopies(ctx context.Context, sess Session, branchID, bookID int64, count int) error {
	attrs := copyAttrs(bookID, branchID)
	attrs[spanAttrCount] = fmt.Sprintf("%d", count)
	ctx, obs := e.startOperation(ctx, sess, operationSetCopies, attrs)

	if count < 0 {
		err := errors.Join(lending.ErrInvalidArgument, fmt.Errorf("copy count %d is negative", count))
		obs.finishError(err)

		return err
	}

	book, branch, err := e.requireCopyKey(ctx, bookID, branchID)
	if err != nil {
		obs.finishError(err)
		return err
	}

	err = sess.Within(ctx, func(ctx context.Context, tx lending.Tx) error {
		return tx.Inventory().SetCopies(ctx, branch, book, count)
	})
	if err != nil {
		obs.finishError(err)
		return err
	}

	obs.finishSuccess(outcomeUpdated)

	return nil
}

// OverdueLoans lists the outstanding loans whose due date lies before asOf's calendar date,
// ordered by due date, then borrower, branch and book ID. Loans without a due date are never overdue.
func (e *Engine) OverdueLoans(ctx context.Context, sess Session, asOf time.Time) ([]lending.Loan, error) {
	ctx, obs := e.startOperation(ctx, sess, operationOverdueLoans, map[string]string{spanAttrAsOf: asOf.Format(time.DateOnly)})

	var overdue []lending.Loan

	err := sess.Within(ctx, func(ctx context.Context, tx lending.Tx) error {
		all, err := tx.Ledger().All(ctx)
		if err != nil {
			return err
		}

		overdue = make([]lending.Loan, 0)
		for _, loan := range all {
			if loan.IsOverdueOn(asOf) {
				overdue = append(overdue, loan)
			}
		}

		return nil
	})
	if err != nil {
		obs.finishError(err)
		return nil, err
	}

	slices.SortFunc(overdue, func(a, b lending.Loan) int {
		return cmp.Or(
			a.DueDate.Compare(b.DueDate),
			cmp.Compare(a.Borrower.ID, b.Borrower.ID),
			compareLoans(a, b),
		)
	})
	obs.finishSuccess(outcomeListed)

	return overdue, nil
}

func (e *Engine) loansFor(ctx context.Context, sess Session, borrowerID int64) ([]lending.Loan, error) {
	borrower, err := e.requireBorrower(ctx, borrowerID)
	if err != nil {
		return nil, err
	}

	var loans []lending.Loan

	err = sess.Within(ctx, func(ctx context.Context, tx lending.Tx) error {
		var err error
		loans, err = tx.Ledger().ForBorrower(ctx, borrower)

		return err
	})

	return loans, err
}

func (e *Engine) requireCopyKey(ctx context.Context, bookID, branchID int64) (lending.Book, lending.Branch, error) {
	book, err := e.requireBook(ctx, bookID)
	if err != nil {
		return lending.Book{}, lending.Branch{}, err
	}

	branch, err := e.requireBranch(ctx, branchID)
	if err != nil {
		return lending.Book{}, lending.Branch{}, err
	}

	return book, branch, nil
}

func compareLoans(a, b lending.Loan) int {
	return cmp.Or(cmp.Compare(a.Branch.ID, b.Branch.ID), cmp.Compare(a.Book.ID, b.Book.ID))
}
