package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/postgresengine/internal/adapters"
)

type inventory struct {
	tx *Tx
}

func (inv inventory) Copies(ctx context.Context, branch lending.Branch, book lending.Book) (int, error) {
	key := lending.CopyKeyOf(branch, book)

	if err := inv.lockKey(ctx, key); err != nil {
		return 0, err
	}

	sqlQuery, args, err := inv.tx.backend.buildSelectCopiesForUpdate(key)
	if err != nil {
		return 0, errors.Join(lending.ErrDataAccess, err)
	}

	count := 0
	err = inv.tx.query(ctx, actionSelectCopies, sqlQuery, args, func(rows adapters.DBRows) error {
		return rows.Scan(&count)
	})

	return count, err
}

func (inv inventory) SetCopies(ctx context.Context, branch lending.Branch, book lending.Book, count int) error {
	if count < 0 {
		return errors.Join(lending.ErrInvalidArgument, fmt.Errorf("copy count %d is negative", count))
	}

	key := lending.CopyKeyOf(branch, book)

	if err := inv.lockKey(ctx, key); err != nil {
		return err
	}

	if count == 0 {
		sqlQuery, args, err := inv.tx.backend.buildDeleteCopies(key)
		if err != nil {
			return errors.Join(lending.ErrDataAccess, err)
		}

		_, err = inv.tx.exec(ctx, actionDeleteCopies, sqlQuery, args)

		return err
	}

	sqlQuery, args, err := inv.tx.backend.buildUpsertCopies(key, count)
	if err != nil {
		return errors.Join(lending.ErrDataAccess, err)
	}

	_, err = inv.tx.exec(ctx, actionUpsertCopies, sqlQuery, args)

	return err
}

// lockKey holds the copy key until the transaction ends, whether or not its row exists.
// Locks taken twice in one transaction stack and are all released at commit or rollback.
func (inv inventory) lockKey(ctx context.Context, key lending.CopyKey) error {
	sqlQuery, args, err := inv.tx.backend.buildLockCopyKey(key)
	if err != nil {
		return errors.Join(lending.ErrDataAccess, err)
	}

	_, err = inv.tx.exec(ctx, actionLockCopies, sqlQuery, args)

	return err
}

func (inv inventory) CopiesForBranch(ctx context.Context, branch lending.Branch) (map[lending.Book]int, error) {
	result := make(map[lending.Book]int)
	if branch.ID == 0 {
		return result, nil
	}

	where := goqu.T(inv.tx.backend.tables.Copies).Col(colBranchID).Eq(branch.ID)
	err := inv.selectCopies(ctx, where, func(book lending.Book, _ lending.Branch, count int) {
		result[book] = count
	})

	return result, err
}

func (inv inventory) CopiesForBook(ctx context.Context, book lending.Book) (map[lending.Branch]int, error) {
	result := make(map[lending.Branch]int)
	if book.ID == 0 {
		return result, nil
	}

	where := goqu.T(inv.tx.backend.tables.Copies).Col(colBookID).Eq(book.ID)
	err := inv.selectCopies(ctx, where, func(_ lending.Book, branch lending.Branch, count int) {
		result[branch] = count
	})

	return result, err
}

func (inv inventory) AllCopies(ctx context.Context) (map[lending.Branch]map[lending.Book]int, error) {
	result := make(map[lending.Branch]map[lending.Book]int)

	err := inv.selectCopies(ctx, nil, func(book lending.Book, branch lending.Branch, count int) {
		books, ok := result[branch]
		if !ok {
			books = make(map[lending.Book]int)
			result[branch] = books
		}

		books[book] = count
	})

	return result, err
}

func (inv inventory) selectCopies(
	ctx context.Context,
	where goqu.Expression,
	collect func(book lending.Book, branch lending.Branch, count int),
) error {
	sqlQuery, args, err := inv.tx.backend.buildSelectCopies(where)
	if err != nil {
		return errors.Join(lending.ErrDataAccess, err)
	}

	return inv.tx.query(ctx, actionSelectCopies, sqlQuery, args, func(rows adapters.DBRows) error {
		var (
			book   lending.Book
			branch lending.Branch
			count  int
		)

		if err := rows.Scan(&book.ID, &book.Title, &branch.ID, &branch.Name, &branch.Address, &count); err != nil {
			return err
		}

		collect(book, branch, count)

		return nil
	})
}
