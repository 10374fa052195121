package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/postgresengine/internal/adapters"
)

type ledger struct {
	tx *Tx
}

func (l ledger) Create(
	ctx context.Context,
	book lending.Book,
	borrower lending.Borrower,
	branch lending.Branch,
	dateOut time.Time,
	dueDate time.Time,
) (lending.Loan, error) {
	loan := lending.Loan{
		Book:     book,
		Borrower: borrower,
		Branch:   branch,
		DateOut:  dateOut,
		DueDate:  lending.DateOf(dueDate),
	}

	sqlQuery, args, err := l.tx.backend.buildInsertLoan(loan)
	if err != nil {
		return lending.Loan{}, errors.Join(lending.ErrDataAccess, err)
	}

	if _, err = l.tx.exec(ctx, actionInsertLoan, sqlQuery, args); err != nil {
		return lending.Loan{}, err
	}

	return loan, nil
}

func (l ledger) Get(ctx context.Context, key lending.LoanKey) (lending.Loan, bool, error) {
	b := l.tx.backend

	sqlQuery, args, err := b.buildSelectLoans(b.loanKeyCondition(key), true)
	if err != nil {
		return lending.Loan{}, false, errors.Join(lending.ErrDataAccess, err)
	}

	loans, err := l.selectLoans(ctx, actionSelectLoanForUpdate, sqlQuery, args)
	if err != nil || len(loans) == 0 {
		return lending.Loan{}, false, err
	}

	return loans[0], true, nil
}

func (l ledger) Update(ctx context.Context, loan lending.Loan) error {
	sqlQuery, args, err := l.tx.backend.buildUpdateLoan(loan)
	if err != nil {
		return errors.Join(lending.ErrDataAccess, err)
	}

	_, err = l.tx.exec(ctx, actionUpdateLoan, sqlQuery, args)

	return err
}

func (l ledger) Delete(ctx context.Context, loan lending.Loan) error {
	sqlQuery, args, err := l.tx.backend.buildDeleteLoan(loan.Key())
	if err != nil {
		return errors.Join(lending.ErrDataAccess, err)
	}

	_, err = l.tx.exec(ctx, actionDeleteLoan, sqlQuery, args)

	return err
}

func (l ledger) All(ctx context.Context) ([]lending.Loan, error) {
	sqlQuery, args, err := l.tx.backend.buildSelectLoans(nil, false)
	if err != nil {
		return nil, errors.Join(lending.ErrDataAccess, err)
	}

	return l.selectLoans(ctx, actionSelectLoans, sqlQuery, args)
}

func (l ledger) ForBorrower(ctx context.Context, borrower lending.Borrower) ([]lending.Loan, error) {
	where := goqu.T(l.tx.backend.tables.Loans).Col(colBorrowerID).Eq(borrower.ID)

	sqlQuery, args, err := l.tx.backend.buildSelectLoans(where, false)
	if err != nil {
		return nil, errors.Join(lending.ErrDataAccess, err)
	}

	return l.selectLoans(ctx, actionSelectLoans, sqlQuery, args)
}

func (l ledger) selectLoans(ctx context.Context, action, sqlQuery string, args []any) ([]lending.Loan, error) {
	loans := make([]lending.Loan, 0)

	err := l.tx.query(ctx, action, sqlQuery, args, func(rows adapters.DBRows) error {
		var (
			loan             lending.Loan
			dateOut, dueDate sql.NullTime
		)

		err := rows.Scan(
			&loan.Book.ID, &loan.Book.Title,
			&loan.Borrower.ID, &loan.Borrower.Name, &loan.Borrower.Address, &loan.Borrower.Phone,
			&loan.Branch.ID, &loan.Branch.Name, &loan.Branch.Address,
			&dateOut, &dueDate,
		)
		if err != nil {
			return err
		}

		if dateOut.Valid {
			loan.DateOut = dateOut.Time
		}

		if dueDate.Valid {
			loan.DueDate = lending.DateOf(dueDate.Time)
		}

		loans = append(loans, loan)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return loans, nil
}
