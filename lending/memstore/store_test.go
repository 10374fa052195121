package memstore_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/memstore"
	. "github.com/kingjon3377/ntLmsSpring-sub000/testutil/helper" //nolint:revive
)

func Test_NewStore_WithInvalidLockTimeout_Fails(t *testing.T) {
	_, err := memstore.NewStore(memstore.WithLockTimeout(0))

	assert.ErrorIs(t, err, memstore.ErrInvalidLockTimeout)
}

func Test_Store_Catalog_LooksUpAddedEntities(t *testing.T) {
	// setup
	ctx := context.Background()
	catalog := GivenSeededStore(t).Catalog()

	// act
	book, bookFound, bookErr := catalog.LookupBook(ctx, BookDune.ID)
	borrower, borrowerFound, borrowerErr := catalog.LookupBorrower(ctx, BorrowerBob.ID)
	branch, branchFound, branchErr := catalog.LookupBranch(ctx, BranchHarbor.ID)
	_, unknownFound, unknownErr := catalog.LookupBook(ctx, 999)

	// assert
	require.NoError(t, bookErr)
	require.NoError(t, borrowerErr)
	require.NoError(t, branchErr)
	require.NoError(t, unknownErr)
	assert.True(t, bookFound)
	assert.True(t, borrowerFound)
	assert.True(t, branchFound)
	assert.False(t, unknownFound)
	assert.Equal(t, BookDune, book)
	assert.Equal(t, BorrowerBob, borrower)
	assert.Equal(t, BranchHarbor, branch)
}

func Test_Tx_Inventory_ReadsItsOwnWrites(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenSeededStore(t)
	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	// act
	require.NoError(t, tx.Inventory().SetCopies(ctx, BranchCentral, BookDune, 3))
	count, err := tx.Inventory().Copies(ctx, BranchCentral, BookDune)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func Test_Tx_Inventory_SetCopiesZero_DeletesRecordIdempotently(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenSeededStore(t)
	givenCopies(t, store, BranchCentral, BookDune, 2)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	// act
	require.NoError(t, tx.Inventory().SetCopies(ctx, BranchCentral, BookDune, 0))
	require.NoError(t, tx.Inventory().SetCopies(ctx, BranchCentral, BookDune, 0))
	require.NoError(t, tx.Commit(ctx))

	// assert
	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	all, err := tx.Inventory().AllCopies(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	count, err := tx.Inventory().Copies(ctx, BranchCentral, BookDune)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func Test_Tx_Inventory_SetCopiesNegative_Fails(t *testing.T) {
	// setup
	ctx := context.Background()
	tx, err := GivenSeededStore(t).Begin(ctx)
	require.NoError(t, err)

	// act
	err = tx.Inventory().SetCopies(ctx, BranchCentral, BookDune, -1)

	// assert
	assert.ErrorIs(t, err, lending.ErrInvalidArgument)
}

func Test_Tx_Inventory_BulkReads(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenSeededStore(t)
	givenCopies(t, store, BranchCentral, BookDune, 2)
	givenCopies(t, store, BranchCentral, BookEmma, 1)
	givenCopies(t, store, BranchHarbor, BookDune, 4)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	// act
	forBranch, branchErr := tx.Inventory().CopiesForBranch(ctx, BranchCentral)
	forBook, bookErr := tx.Inventory().CopiesForBook(ctx, BookDune)
	all, allErr := tx.Inventory().AllCopies(ctx)
	forNewBranch, newBranchErr := tx.Inventory().CopiesForBranch(ctx, lending.Branch{})

	// assert
	require.NoError(t, branchErr)
	require.NoError(t, bookErr)
	require.NoError(t, allErr)
	require.NoError(t, newBranchErr)
	assert.Equal(t, map[lending.Book]int{BookDune: 2, BookEmma: 1}, forBranch)
	assert.Equal(t, map[lending.Branch]int{BranchCentral: 2, BranchHarbor: 4}, forBook)
	assert.Equal(t, map[lending.Branch]map[lending.Book]int{
		BranchCentral: {BookDune: 2, BookEmma: 1},
		BranchHarbor:  {BookDune: 4},
	}, all)
	assert.Empty(t, forNewBranch)
}

func Test_Tx_Inventory_ReflectsCatalogEdits(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenSeededStore(t)
	givenCopies(t, store, BranchCentral, BookDune, 2)

	// arrange
	renamed := lending.Book{ID: BookDune.ID, Title: "Dune (Deluxe Edition)"}
	store.AddBook(renamed)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	// act
	forBranch, err := tx.Inventory().CopiesForBranch(ctx, BranchCentral)

	// assert
	require.NoError(t, err)
	assert.Equal(t, map[lending.Book]int{renamed: 2}, forBranch)
}

func Test_Tx_Rollback_DiscardsWrites(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenSeededStore(t)
	givenCopies(t, store, BranchCentral, BookDune, 2)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	// arrange
	require.NoError(t, tx.Inventory().SetCopies(ctx, BranchCentral, BookDune, 1))
	_, err = tx.Ledger().Create(ctx, BookDune, BorrowerAlice, BranchCentral, time.Now(), time.Time{})
	require.NoError(t, err)

	// act
	require.NoError(t, tx.Rollback(ctx))

	// assert
	assert.Equal(t, 2, committedCopies(t, store, BranchCentral, BookDune))
	assert.Empty(t, committedLoans(t, store))
}

func Test_Tx_AfterCommit_ReturnsErrTxDone(t *testing.T) {
	// setup
	ctx := context.Background()
	tx, err := GivenSeededStore(t).Begin(ctx)
	require.NoError(t, err)

	// arrange
	require.NoError(t, tx.Commit(ctx))

	// act
	_, copiesErr := tx.Inventory().Copies(ctx, BranchCentral, BookDune)
	_, allErr := tx.Ledger().All(ctx)
	commitErr := tx.Commit(ctx)
	rollbackErr := tx.Rollback(ctx)

	// assert
	assert.ErrorIs(t, copiesErr, lending.ErrTxDone)
	assert.ErrorIs(t, allErr, lending.ErrTxDone)
	assert.ErrorIs(t, commitErr, lending.ErrTxDone)
	assert.ErrorIs(t, rollbackErr, lending.ErrTxDone)
}

func Test_Tx_Commit_WithCanceledContext_DiscardsWritesAndReleasesLocks(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenSeededStore(t, memstore.WithLockTimeout(50*time.Millisecond))

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Inventory().SetCopies(ctx, BranchCentral, BookDune, 5))

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	// act
	err = tx.Commit(canceled)

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, committedCopies(t, store, BranchCentral, BookDune))
}

func Test_Tx_KeyLock_ExcludesOtherTransactionsUntilCommit(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	store := GivenSeededStore(t,
		memstore.WithLockTimeout(50*time.Millisecond),
		memstore.WithLogger(slog.New(logHandler)),
	)

	first, err := store.Begin(ctx)
	require.NoError(t, err)
	second, err := store.Begin(ctx)
	require.NoError(t, err)

	// arrange
	_, err = first.Inventory().Copies(ctx, BranchCentral, BookDune)
	require.NoError(t, err)

	// act
	_, blockedErr := second.Inventory().Copies(ctx, BranchCentral, BookDune)
	_, otherKeyErr := second.Inventory().Copies(ctx, BranchHarbor, BookDune)
	require.NoError(t, first.Inventory().SetCopies(ctx, BranchCentral, BookDune, 1))
	require.NoError(t, first.Commit(ctx))
	count, afterCommitErr := second.Inventory().Copies(ctx, BranchCentral, BookDune)

	// assert
	assert.ErrorIs(t, blockedErr, lending.ErrLockTimeout)
	assert.Equal(t, lending.KindDataAccess, lending.KindOf(blockedErr))
	assert.NoError(t, otherKeyErr)
	assert.NoError(t, afterCommitErr)
	assert.Equal(t, 1, count)
	assert.True(t,
		logHandler.HasLog(slog.LevelWarn, "lending.memstore: lock wait timed out").
			WithStringAttr("key", "copies/1/1").
			Assert(),
	)
}

func Test_Tx_KeyLock_WaiterProceedsWhenHolderFinishes(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenSeededStore(t)

	first, err := store.Begin(ctx)
	require.NoError(t, err)
	second, err := store.Begin(ctx)
	require.NoError(t, err)

	// arrange
	require.NoError(t, first.Inventory().SetCopies(ctx, BranchCentral, BookDune, 7))

	result := make(chan int, 1)
	go func() {
		count, copiesErr := second.Inventory().Copies(ctx, BranchCentral, BookDune)
		if copiesErr != nil {
			count = -1
		}
		result <- count
	}()

	// act
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, first.Commit(ctx))

	// assert
	select {
	case count := <-result:
		assert.Equal(t, 7, count)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting transaction was not released")
	}
}

func Test_Tx_KeyLock_WaitHonorsContext(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenSeededStore(t)

	first, err := store.Begin(ctx)
	require.NoError(t, err)
	second, err := store.Begin(ctx)
	require.NoError(t, err)

	// arrange
	_, err = first.Ledger().Get(ctx, lending.LoanKeyOf(BookDune, BorrowerAlice, BranchCentral))
	require.NoError(t, err)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	// act
	_, _, err = second.Ledger().Get(ctxWithTimeout, lending.LoanKeyOf(BookDune, BorrowerAlice, BranchCentral))

	// assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func givenCopies(t *testing.T, store *memstore.Store, branch lending.Branch, book lending.Book, count int) {
	t.Helper()

	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Inventory().SetCopies(ctx, branch, book, count))
	require.NoError(t, tx.Commit(ctx))
}

func committedCopies(t *testing.T, store *memstore.Store, branch lending.Branch, book lending.Book) int {
	t.Helper()

	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	count, err := tx.Inventory().Copies(ctx, branch, book)
	require.NoError(t, err)

	return count
}

func committedLoans(t *testing.T, store *memstore.Store) []lending.Loan {
	t.Helper()

	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	loans, err := tx.Ledger().All(ctx)
	require.NoError(t, err)

	return loans
}
