package postgresengine

import (
	"context"
	"errors"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/postgresengine/internal/adapters"
)

// catalog resolves entities outside of any lending transaction; the rows are never mutated by the engine.
type catalog struct {
	backend *Backend
}

func (c catalog) LookupBook(ctx context.Context, id int64) (lending.Book, bool, error) {
	var book lending.Book

	found, err := c.lookup(ctx, c.backend.tables.Books, id, []any{colID, colTitle}, func(rows adapters.DBRows) error {
		return rows.Scan(&book.ID, &book.Title)
	})

	return book, found, err
}

func (c catalog) LookupBorrower(ctx context.Context, id int64) (lending.Borrower, bool, error) {
	var borrower lending.Borrower

	cols := []any{colID, colName, colAddress, colPhone}
	found, err := c.lookup(ctx, c.backend.tables.Borrowers, id, cols, func(rows adapters.DBRows) error {
		return rows.Scan(&borrower.ID, &borrower.Name, &borrower.Address, &borrower.Phone)
	})

	return borrower, found, err
}

func (c catalog) LookupBranch(ctx context.Context, id int64) (lending.Branch, bool, error) {
	var branch lending.Branch

	found, err := c.lookup(ctx, c.backend.tables.Branches, id, []any{colID, colName, colAddress}, func(rows adapters.DBRows) error {
		return rows.Scan(&branch.ID, &branch.Name, &branch.Address)
	})

	return branch, found, err
}

func (c catalog) lookup(
	ctx context.Context,
	table string,
	id int64,
	cols []any,
	scan func(rows adapters.DBRows) error,
) (bool, error) {
	sqlQuery, args, err := c.backend.buildLookup(table, id, cols...)
	if err != nil {
		return false, errors.Join(lending.ErrDataAccess, err)
	}

	found := false
	err = c.backend.query(ctx, c.backend.db, actionLookup, sqlQuery, args, func(rows adapters.DBRows) error {
		found = true
		return scan(rows)
	})

	return found, err
}
