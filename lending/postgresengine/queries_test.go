package postgresengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

func givenQueryBuilder(t *testing.T, options ...Option) *Backend {
	t.Helper()

	b, err := newBackend(nil, options...)
	require.NoError(t, err)

	return b
}

func Test_BuildSelectCopiesForUpdate_LocksTheRow(t *testing.T) {
	// setup
	b := givenQueryBuilder(t)

	// act
	sqlQuery, args, err := b.buildSelectCopiesForUpdate(lending.CopyKey{BookID: 7, BranchID: 3})

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "copies"`)
	assert.Contains(t, sqlQuery, "FOR UPDATE")
	assert.NotContains(t, sqlQuery, "NOWAIT")
	assert.ElementsMatch(t, []any{int64(7), int64(3)}, args)
}

func Test_BuildLockCopyKey_TakesAdvisoryLockPerKey(t *testing.T) {
	// setup
	b := givenQueryBuilder(t)

	// act
	sqlQuery, args, err := b.buildLockCopyKey(lending.CopyKey{BookID: 7, BranchID: 3})
	otherQuery, otherArgs, otherErr := b.buildLockCopyKey(lending.CopyKey{BookID: 3, BranchID: 7})

	// assert
	require.NoError(t, err)
	require.NoError(t, otherErr)
	assert.Equal(t, "SELECT pg_advisory_xact_lock(hashtextextended($1, $2))", sqlQuery)
	assert.Equal(t, sqlQuery, otherQuery)
	assert.Equal(t, []any{"copies/7/3", int64(0)}, args)
	assert.Equal(t, []any{"copies/3/7", int64(0)}, otherArgs)
}

func Test_BuildUpsertCopies_UpdatesOnConflict(t *testing.T) {
	// setup
	b := givenQueryBuilder(t)

	// act
	sqlQuery, args, err := b.buildUpsertCopies(lending.CopyKey{BookID: 7, BranchID: 3}, 4)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `INSERT INTO "copies"`)
	assert.Contains(t, sqlQuery, "ON CONFLICT (book_id, branch_id) DO UPDATE SET")
	assert.Contains(t, sqlQuery, "EXCLUDED.count")
	assert.Contains(t, args, 4)
}

func Test_BuildSelectLoans_ForUpdate_LocksOnlyLoanRows(t *testing.T) {
	// setup
	b := givenQueryBuilder(t)
	key := lending.LoanKey{BookID: 1, BorrowerID: 2, BranchID: 3}

	// act
	locking, lockingArgs, lockingErr := b.buildSelectLoans(b.loanKeyCondition(key), true)
	plain, _, plainErr := b.buildSelectLoans(nil, false)

	// assert
	require.NoError(t, lockingErr)
	require.NoError(t, plainErr)
	assert.Contains(t, locking, `FOR UPDATE OF "loans"`)
	assert.Contains(t, locking, `INNER JOIN "borrowers"`)
	assert.Len(t, lockingArgs, 3)
	assert.NotContains(t, plain, "FOR UPDATE")
	assert.NotContains(t, plain, "WHERE")
}

func Test_BuildInsertLoan_MapsZeroDatesToNull(t *testing.T) {
	// setup
	b := givenQueryBuilder(t)
	loan := lending.Loan{
		Book:     lending.Book{ID: 1},
		Borrower: lending.Borrower{ID: 2},
		Branch:   lending.Branch{ID: 3},
		DueDate:  time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}

	// act
	sqlQuery, args, err := b.buildInsertLoan(loan)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `INSERT INTO "loans"`)
	assert.Contains(t, args, "2024-01-10")
	assert.Contains(t, sqlQuery, "NULL")
}

func Test_Builders_UseConfiguredTableNames(t *testing.T) {
	// setup
	names := DefaultTableNames()
	names.Copies = "branch_inventory"
	names.Loans = "outstanding_loans"
	b := givenQueryBuilder(t, WithTableNames(names))

	// act
	deleteCopies, _, copiesErr := b.buildDeleteCopies(lending.CopyKey{BookID: 1, BranchID: 1})
	deleteLoan, _, loanErr := b.buildDeleteLoan(lending.LoanKey{BookID: 1, BorrowerID: 1, BranchID: 1})

	// assert
	require.NoError(t, copiesErr)
	require.NoError(t, loanErr)
	assert.Contains(t, deleteCopies, `DELETE FROM "branch_inventory"`)
	assert.Contains(t, deleteLoan, `DELETE FROM "outstanding_loans"`)
}

func Test_WithTableNames_RejectsEmptyName(t *testing.T) {
	// setup
	names := DefaultTableNames()
	names.Borrowers = ""

	// act
	_, err := newBackend(nil, WithTableNames(names))

	// assert
	assert.ErrorIs(t, err, ErrEmptyTableName)
}

func Test_NullableValues(t *testing.T) {
	instant := time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)

	assert.Nil(t, nullableTimestamp(time.Time{}))
	assert.Equal(t, instant, nullableTimestamp(instant))
	assert.Nil(t, nullableDate(time.Time{}))
	assert.Equal(t, "2024-01-03", nullableDate(instant))
}
