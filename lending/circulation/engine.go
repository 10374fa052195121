package circulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// Session is the part of a Transaction Coordinator the Engine uses. *session.Coordinator implements it.
type Session interface {
	ID() string
	Within(ctx context.Context, fn func(ctx context.Context, tx lending.Tx) error) error
}

// Engine is the Lending Engine.
type Engine struct {
	catalog lending.Catalog

	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
	tracingCollector lending.TracingCollector
}

// NewEngine creates an Engine that resolves books, borrowers and branches through catalog.
func NewEngine(catalog lending.Catalog, options ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, lending.ErrNilCatalog
	}

	e := &Engine{catalog: catalog}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// parties are the resolved entities of a loan key.
type parties struct {
	book     lending.Book
	borrower lending.Borrower
	branch   lending.Branch
}

func (p parties) loanKey() lending.LoanKey {
	return lending.LoanKeyOf(p.book, p.borrower, p.branch)
}

// resolveParties looks up all three entities. found is false if any of them is unknown.
func (e *Engine) resolveParties(ctx context.Context, bookID, borrowerID, branchID int64) (parties, bool, error) {
	var p parties

	book, found, err := e.catalog.LookupBook(ctx, bookID)
	if err != nil || !found {
		return p, false, catalogFailure(err)
	}

	borrower, found, err := e.catalog.LookupBorrower(ctx, borrowerID)
	if err != nil || !found {
		return p, false, catalogFailure(err)
	}

	branch, found, err := e.catalog.LookupBranch(ctx, branchID)
	if err != nil || !found {
		return p, false, catalogFailure(err)
	}

	return parties{book: book, borrower: borrower, branch: branch}, true, nil
}

func (e *Engine) requireBook(ctx context.Context, id int64) (lending.Book, error) {
	book, found, err := e.catalog.LookupBook(ctx, id)

	switch {
	case err != nil:
		return book, catalogFailure(err)
	case !found:
		return book, errors.Join(lending.ErrNotFound, fmt.Errorf("book %d", id))
	default:
		return book, nil
	}
}

func (e *Engine) requireBorrower(ctx context.Context, id int64) (lending.Borrower, error) {
	borrower, found, err := e.catalog.LookupBorrower(ctx, id)

	switch {
	case err != nil:
		return borrower, catalogFailure(err)
	case !found:
		return borrower, errors.Join(lending.ErrNotFound, fmt.Errorf("borrower %d", id))
	default:
		return borrower, nil
	}
}

func (e *Engine) requireBranch(ctx context.Context, id int64) (lending.Branch, error) {
	branch, found, err := e.catalog.LookupBranch(ctx, id)

	switch {
	case err != nil:
		return branch, catalogFailure(err)
	case !found:
		return branch, errors.Join(lending.ErrNotFound, fmt.Errorf("branch %d", id))
	default:
		return branch, nil
	}
}

func catalogFailure(err error) error {
	if err == nil || errors.Is(err, lending.ErrDataAccess) {
		return err
	}

	return errors.Join(lending.ErrDataAccess, err)
}
