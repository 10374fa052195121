package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/memstore"
)

// Fixture entities, seeded by GivenSeededStore and pgtest.GivenBackend.
var (
	BookDune   = lending.Book{ID: 1, Title: "Dune"}
	BookEmma   = lending.Book{ID: 2, Title: "Emma"}
	BookUlysse = lending.Book{ID: 3, Title: "Ulysses"}

	BranchCentral = lending.Branch{ID: 1, Name: "Central", Address: "1 Main St"}
	BranchHarbor  = lending.Branch{ID: 2, Name: "Harbor", Address: "9 Dock Rd"}

	BorrowerAlice = lending.Borrower{ID: 1, Name: "Alice", Address: "5 Elm St", Phone: "555-0101"}
	BorrowerBob   = lending.Borrower{ID: 2, Name: "Bob", Address: "7 Oak St", Phone: "555-0102"}
)

// FixtureBooks returns all fixture books.
func FixtureBooks() []lending.Book {
	return []lending.Book{BookDune, BookEmma, BookUlysse}
}

// FixtureBranches returns all fixture branches.
func FixtureBranches() []lending.Branch {
	return []lending.Branch{BranchCentral, BranchHarbor}
}

// FixtureBorrowers returns all fixture borrowers.
func FixtureBorrowers() []lending.Borrower {
	return []lending.Borrower{BorrowerAlice, BorrowerBob}
}

// GivenSeededStore creates a memstore.Store whose catalog holds the fixture entities.
func GivenSeededStore(t testing.TB, options ...memstore.Option) *memstore.Store {
	t.Helper()

	store, err := memstore.NewStore(options...)
	require.NoError(t, err)

	for _, book := range FixtureBooks() {
		store.AddBook(book)
	}

	for _, branch := range FixtureBranches() {
		store.AddBranch(branch)
	}

	for _, borrower := range FixtureBorrowers() {
		store.AddBorrower(borrower)
	}

	return store
}

// Date parses a YYYY-MM-DD date and fails the test on malformed input.
func Date(t testing.TB, value string) time.Time {
	t.Helper()

	date, err := time.Parse(time.DateOnly, value)
	require.NoError(t, err)

	return date
}
