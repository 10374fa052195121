package memstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

type inventory struct {
	tx *Tx
}

func (inv inventory) Copies(ctx context.Context, branch lending.Branch, book lending.Book) (int, error) {
	key := lending.CopyKeyOf(branch, book)
	if err := inv.tx.lock(ctx, key.String()); err != nil {
		return 0, err
	}

	inv.tx.mu.Lock()
	defer inv.tx.mu.Unlock()

	if inv.tx.done {
		return 0, lending.ErrTxDone
	}

	row, _ := inv.tx.copyRow(key)

	return row.count, nil
}

func (inv inventory) SetCopies(ctx context.Context, branch lending.Branch, book lending.Book, count int) error {
	if count < 0 {
		return errors.Join(lending.ErrInvalidArgument, fmt.Errorf("copy count %d is negative", count))
	}

	key := lending.CopyKeyOf(branch, book)
	if err := inv.tx.lock(ctx, key.String()); err != nil {
		return err
	}

	inv.tx.mu.Lock()
	defer inv.tx.mu.Unlock()

	if inv.tx.done {
		return lending.ErrTxDone
	}

	inv.tx.copyWrites[key] = copyRow{book: book, branch: branch, count: count}

	return nil
}

func (inv inventory) CopiesForBranch(ctx context.Context, branch lending.Branch) (map[lending.Book]int, error) {
	result := make(map[lending.Book]int)

	rows, err := inv.rows(ctx)
	if err != nil || branch.ID == 0 {
		return result, err
	}

	for key, row := range rows {
		if key.BranchID == branch.ID {
			result[row.book] = row.count
		}
	}

	return result, nil
}

func (inv inventory) CopiesForBook(ctx context.Context, book lending.Book) (map[lending.Branch]int, error) {
	result := make(map[lending.Branch]int)

	rows, err := inv.rows(ctx)
	if err != nil || book.ID == 0 {
		return result, err
	}

	for key, row := range rows {
		if key.BookID == book.ID {
			result[row.branch] = row.count
		}
	}

	return result, nil
}

func (inv inventory) AllCopies(ctx context.Context) (map[lending.Branch]map[lending.Book]int, error) {
	result := make(map[lending.Branch]map[lending.Book]int)

	rows, err := inv.rows(ctx)
	if err != nil {
		return result, err
	}

	for _, row := range rows {
		books, ok := result[row.branch]
		if !ok {
			books = make(map[lending.Book]int)
			result[row.branch] = books
		}

		books[row.book] = row.count
	}

	return result, nil
}

func (inv inventory) rows(ctx context.Context) (map[lending.CopyKey]copyRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inv.tx.mu.Lock()
	defer inv.tx.mu.Unlock()

	if inv.tx.done {
		return nil, lending.ErrTxDone
	}

	return inv.tx.mergedCopies(), nil
}
