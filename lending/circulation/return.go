package circulation

import (
	"context"
	"errors"
	"time"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// ReturnBook takes back a borrowed copy, inside sess's transaction.
//
// The outcome is NothingToReturn when no such loan is outstanding (or an ID is unknown), and
// ReturnRejectedOverdue when returnDate is a later calendar day than the loan's due date; neither
// changes anything. An overdue loan can only be returned after OverrideDueDate moved its due date.
// Otherwise the copy count is incremented, the loan deleted, and the outcome is ReturnAccepted.
//
// If any of the accepting steps fails, the transaction is rolled back and the error is joined
// with lending.ErrReturnFailed.
func (e *Engine) ReturnBook(
	ctx context.Context,
	sess Session,
	borrowerID, bookID, branchID int64,
	returnDate time.Time,
) (lending.ReturnOutcome, error) {
	ctx, obs := e.startOperation(ctx, sess, operationReturn, idAttrs(bookID, borrowerID, branchID))

	result := lending.NothingToReturn

	err := sess.Within(ctx, func(ctx context.Context, tx lending.Tx) error {
		p, found, err := e.resolveParties(ctx, bookID, borrowerID, branchID)
		if err != nil || !found {
			return err
		}

		ledger, inventory := tx.Ledger(), tx.Inventory()

		loan, exists, err := ledger.Get(ctx, p.loanKey())
		if err != nil || !exists {
			return err
		}

		if loan.IsOverdueOn(returnDate) {
			result = lending.ReturnRejectedOverdue
			return nil
		}

		count, err := inventory.Copies(ctx, p.branch, p.book)
		if err != nil {
			return errors.Join(lending.ErrReturnFailed, err)
		}

		if err = inventory.SetCopies(ctx, p.branch, p.book, count+1); err != nil {
			return errors.Join(lending.ErrReturnFailed, err)
		}

		if err = ledger.Delete(ctx, loan); err != nil {
			return errors.Join(lending.ErrReturnFailed, err)
		}

		result = lending.ReturnAccepted

		return nil
	})
	if err != nil {
		obs.finishError(err)
		return lending.NothingToReturn, err
	}

	obs.finishSuccess(result.String())

	return result, nil
}
