package circulation

import (
	"context"
	"errors"
	"time"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// OverrideDueDate moves the due date of an outstanding loan, inside sess's transaction.
// It reports false when there is no such loan. Copy counts are never touched.
//
// If persisting the new due date fails, the transaction is rolled back and the error is joined
// with lending.ErrUpdateFailed.
func (e *Engine) OverrideDueDate(
	ctx context.Context,
	sess Session,
	bookID, borrowerID, branchID int64,
	newDueDate time.Time,
) (bool, error) {
	ctx, obs := e.startOperation(ctx, sess, operationOverrideDueDate, idAttrs(bookID, borrowerID, branchID))

	updated := false

	err := sess.Within(ctx, func(ctx context.Context, tx lending.Tx) error {
		p, found, err := e.resolveParties(ctx, bookID, borrowerID, branchID)
		if err != nil || !found {
			return err
		}

		ledger := tx.Ledger()

		loan, exists, err := ledger.Get(ctx, p.loanKey())
		if err != nil || !exists {
			return err
		}

		loan.DueDate = lending.DateOf(newDueDate)
		if err = ledger.Update(ctx, loan); err != nil {
			return errors.Join(lending.ErrUpdateFailed, err)
		}

		updated = true

		return nil
	})
	if err != nil {
		obs.finishError(err)
		return false, err
	}

	if updated {
		obs.finishSuccess(outcomeUpdated)
	} else {
		obs.finishSuccess(outcomeNoSuchLoan)
	}

	return updated, nil
}
