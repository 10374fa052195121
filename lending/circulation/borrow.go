package circulation

import (
	"context"
	"errors"
	"time"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// Borrow lends one copy of a book from a branch to a borrower, inside sess's transaction.
//
// It returns the new loan, or nil when the borrower already holds the book from that branch,
// when the branch has no copies left, or when the book, borrower or branch is unknown.
// The due date is truncated to its calendar date; a zero dueDate leaves it unset.
//
// If decrementing the copy count or recording the loan fails, the transaction is rolled back
// and the error is joined with lending.ErrInsertionFailed.
func (e *Engine) Borrow(
	ctx context.Context,
	sess Session,
	borrowerID, bookID, branchID int64,
	dateOut, dueDate time.Time,
) (*lending.Loan, error) {
	ctx, obs := e.startOperation(ctx, sess, operationBorrow, idAttrs(bookID, borrowerID, branchID))

	var loan *lending.Loan
	outcome := outcomeUnknownParty

	err := sess.Within(ctx, func(ctx context.Context, tx lending.Tx) error {
		p, found, err := e.resolveParties(ctx, bookID, borrowerID, branchID)
		if err != nil || !found {
			return err
		}

		ledger, inventory := tx.Ledger(), tx.Inventory()

		_, exists, err := ledger.Get(ctx, p.loanKey())
		if err != nil {
			return err
		}

		if exists {
			outcome = outcomeAlreadyBorrowed
			return nil
		}

		count, err := inventory.Copies(ctx, p.branch, p.book)
		if err != nil {
			return err
		}

		if count <= 0 {
			outcome = outcomeNoCopies
			return nil
		}

		if err = inventory.SetCopies(ctx, p.branch, p.book, count-1); err != nil {
			return errors.Join(lending.ErrInsertionFailed, err)
		}

		created, err := ledger.Create(ctx, p.book, p.borrower, p.branch, dateOut, lending.DateOf(dueDate))
		if err != nil {
			return errors.Join(lending.ErrInsertionFailed, err)
		}

		loan = &created
		outcome = outcomeBorrowed

		return nil
	})
	if err != nil {
		obs.finishError(err)
		return nil, err
	}

	obs.finishSuccess(outcome)

	return loan, nil
}
