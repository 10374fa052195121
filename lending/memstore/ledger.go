package memstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
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
	key := lending.LoanKeyOf(book, borrower, branch)
	if err := l.tx.lock(ctx, key.String()); err != nil {
		return lending.Loan{}, err
	}

	l.tx.mu.Lock()
	defer l.tx.mu.Unlock()

	if l.tx.done {
		return lending.Loan{}, lending.ErrTxDone
	}

	if _, exists := l.tx.loan(key); exists {
		return lending.Loan{}, errors.Join(lending.ErrAlreadyExists, fmt.Errorf("loan %s", key))
	}

	loan := lending.Loan{
		Book:     book,
		Borrower: borrower,
		Branch:   branch,
		DateOut:  dateOut,
		DueDate:  dueDate,
	}
	l.tx.loanWrites[key] = &loan

	return loan, nil
}

func (l ledger) Get(ctx context.Context, key lending.LoanKey) (lending.Loan, bool, error) {
	if err := l.tx.lock(ctx, key.String()); err != nil {
		return lending.Loan{}, false, err
	}

	l.tx.mu.Lock()
	defer l.tx.mu.Unlock()

	if l.tx.done {
		return lending.Loan{}, false, lending.ErrTxDone
	}

	loan, ok := l.tx.loan(key)

	return loan, ok, nil
}

func (l ledger) Update(ctx context.Context, loan lending.Loan) error {
	key := loan.Key()
	if err := l.tx.lock(ctx, key.String()); err != nil {
		return err
	}

	l.tx.mu.Lock()
	defer l.tx.mu.Unlock()

	if l.tx.done {
		return lending.ErrTxDone
	}

	current, exists := l.tx.loan(key)
	if !exists {
		return nil
	}

	current.DateOut = loan.DateOut
	current.DueDate = loan.DueDate
	l.tx.loanWrites[key] = &current

	return nil
}

func (l ledger) Delete(ctx context.Context, loan lending.Loan) error {
	key := loan.Key()
	if err := l.tx.lock(ctx, key.String()); err != nil {
		return err
	}

	l.tx.mu.Lock()
	defer l.tx.mu.Unlock()

	if l.tx.done {
		return lending.ErrTxDone
	}

	if _, exists := l.tx.loan(key); exists {
		l.tx.loanWrites[key] = nil
	}

	return nil
}

func (l ledger) All(ctx context.Context) ([]lending.Loan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.tx.mu.Lock()
	defer l.tx.mu.Unlock()

	if l.tx.done {
		return nil, lending.ErrTxDone
	}

	return l.tx.mergedLoans(), nil
}

func (l ledger) ForBorrower(ctx context.Context, borrower lending.Borrower) ([]lending.Loan, error) {
	all, err := l.All(ctx)
	if err != nil {
		return nil, err
	}

	loans := make([]lending.Loan, 0)
	for _, loan := range all {
		if loan.Borrower.ID == borrower.ID {
			loans = append(loans, loan)
		}
	}

	return loans, nil
}
