package postgresengine_test

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/circulation"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/postgresengine"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/session"
	. "github.com/kingjon3377/ntLmsSpring-sub000/testutil/helper" //nolint:revive
	"github.com/kingjon3377/ntLmsSpring-sub000/testutil/pgtest"
)

func Test_NewBackend_WithNilConnection_Fails(t *testing.T) {
	_, pgxErr := postgresengine.NewBackendFromPGXPool(nil)
	_, sqlErr := postgresengine.NewBackendFromSQLDB(nil)
	_, sqlxErr := postgresengine.NewBackendFromSQLX(nil)

	assert.ErrorIs(t, pgxErr, lending.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlErr, lending.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlxErr, lending.ErrNilDatabaseConnection)
}

func Test_Postgres_Catalog_LooksUpEntities(t *testing.T) {
	for _, driver := range pgtest.Drivers {
		t.Run(driver, func(t *testing.T) {
			// setup
			ctx := context.Background()
			catalog := pgtest.GivenBackend(t, driver).Catalog()

			// act
			book, bookFound, bookErr := catalog.LookupBook(ctx, BookEmma.ID)
			borrower, borrowerFound, borrowerErr := catalog.LookupBorrower(ctx, BorrowerAlice.ID)
			branch, branchFound, branchErr := catalog.LookupBranch(ctx, BranchHarbor.ID)
			_, unknownFound, unknownErr := catalog.LookupBranch(ctx, 999)

			// assert
			require.NoError(t, bookErr)
			require.NoError(t, borrowerErr)
			require.NoError(t, branchErr)
			require.NoError(t, unknownErr)
			assert.True(t, bookFound)
			assert.True(t, borrowerFound)
			assert.True(t, branchFound)
			assert.False(t, unknownFound)
			assert.Equal(t, BookEmma, book)
			assert.Equal(t, BorrowerAlice, borrower)
			assert.Equal(t, BranchHarbor, branch)
		})
	}
}

func Test_Postgres_Inventory_SetCopiesUpsertsAndDeletes(t *testing.T) {
	for _, driver := range pgtest.Drivers {
		t.Run(driver, func(t *testing.T) {
			// setup
			ctx := context.Background()
			backend := pgtest.GivenBackend(t, driver)
			tx, err := backend.Begin(ctx)
			require.NoError(t, err)
			defer func() { _ = tx.Rollback(ctx) }()

			inventory := tx.Inventory()

			// act
			require.NoError(t, inventory.SetCopies(ctx, BranchCentral, BookDune, 2))
			require.NoError(t, inventory.SetCopies(ctx, BranchCentral, BookDune, 5))
			require.NoError(t, inventory.SetCopies(ctx, BranchHarbor, BookDune, 1))
			require.NoError(t, inventory.SetCopies(ctx, BranchHarbor, BookEmma, 1))
			require.NoError(t, inventory.SetCopies(ctx, BranchHarbor, BookEmma, 0))
			require.NoError(t, inventory.SetCopies(ctx, BranchHarbor, BookEmma, 0))
			negativeErr := inventory.SetCopies(ctx, BranchHarbor, BookEmma, -2)

			// assert
			assert.ErrorIs(t, negativeErr, lending.ErrInvalidArgument)

			count, err := inventory.Copies(ctx, BranchCentral, BookDune)
			require.NoError(t, err)
			assert.Equal(t, 5, count)

			removed, err := inventory.Copies(ctx, BranchHarbor, BookEmma)
			require.NoError(t, err)
			assert.Zero(t, removed)

			forBook, err := inventory.CopiesForBook(ctx, BookDune)
			require.NoError(t, err)
			assert.Equal(t, map[lending.Branch]int{BranchCentral: 5, BranchHarbor: 1}, forBook)

			all, err := inventory.AllCopies(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[lending.Branch]map[lending.Book]int{
				BranchCentral: {BookDune: 5},
				BranchHarbor:  {BookDune: 1},
			}, all)
		})
	}
}

func Test_Postgres_Ledger_LoanLifecycle(t *testing.T) {
	for _, driver := range pgtest.Drivers {
		t.Run(driver, func(t *testing.T) {
			// setup
			ctx := context.Background()
			backend := pgtest.GivenBackend(t, driver)
			tx, err := backend.Begin(ctx)
			require.NoError(t, err)
			defer func() { _ = tx.Rollback(ctx) }()

			ledger := tx.Ledger()
			dateOut := time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)

			// act
			created, createErr := ledger.Create(ctx, BookDune, BorrowerAlice, BranchCentral, dateOut, Date(t, "2024-01-10"))
			require.NoError(t, createErr)

			created.DueDate = Date(t, "2024-01-20")
			require.NoError(t, ledger.Update(ctx, created))
			updated, found, getErr := ledger.Get(ctx, created.Key())

			// assert
			require.NoError(t, getErr)
			require.True(t, found)
			assert.Equal(t, BookDune, updated.Book)
			assert.Equal(t, BorrowerAlice, updated.Borrower)
			assert.Equal(t, BranchCentral, updated.Branch)
			assert.True(t, dateOut.Equal(updated.DateOut))
			assert.Equal(t, Date(t, "2024-01-20"), updated.DueDate)

			forAlice, err := ledger.ForBorrower(ctx, BorrowerAlice)
			require.NoError(t, err)
			assert.Len(t, forAlice, 1)

			require.NoError(t, ledger.Delete(ctx, created))
			require.NoError(t, ledger.Delete(ctx, created))
			_, found, err = ledger.Get(ctx, created.Key())
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func Test_Postgres_Ledger_CreateDuplicate_FailsWithAlreadyExists(t *testing.T) {
	for _, driver := range pgtest.Drivers {
		t.Run(driver, func(t *testing.T) {
			// setup
			ctx := context.Background()
			backend := pgtest.GivenBackend(t, driver)

			tx, err := backend.Begin(ctx)
			require.NoError(t, err)
			_, err = tx.Ledger().Create(ctx, BookDune, BorrowerAlice, BranchCentral, time.Time{}, time.Time{})
			require.NoError(t, err)
			require.NoError(t, tx.Commit(ctx))

			// act
			tx, err = backend.Begin(ctx)
			require.NoError(t, err)
			defer func() { _ = tx.Rollback(ctx) }()
			_, err = tx.Ledger().Create(ctx, BookDune, BorrowerAlice, BranchCentral, time.Time{}, time.Time{})

			// assert
			assert.ErrorIs(t, err, lending.ErrAlreadyExists)
			assert.Equal(t, lending.KindConflict, lending.KindOf(err))
		})
	}
}

func Test_Postgres_Tx_AfterCommit_ReturnsErrTxDone(t *testing.T) {
	// setup
	ctx := context.Background()
	backend := pgtest.GivenBackend(t, pgtest.Drivers[0])
	tx, err := backend.Begin(ctx)
	require.NoError(t, err)

	// arrange
	require.NoError(t, tx.Commit(ctx))

	// act
	_, copiesErr := tx.Inventory().Copies(ctx, BranchCentral, BookDune)
	rollbackErr := tx.Rollback(ctx)

	// assert
	assert.ErrorIs(t, copiesErr, lending.ErrTxDone)
	assert.ErrorIs(t, rollbackErr, lending.ErrTxDone)
}

func Test_Postgres_Engine_BorrowOverrideReturn(t *testing.T) {
	for _, driver := range pgtest.Drivers {
		t.Run(driver, func(t *testing.T) {
			// setup
			ctx := context.Background()
			backend := pgtest.GivenBackend(t, driver)
			engine, err := circulation.NewEngine(backend.Catalog())
			require.NoError(t, err)
			sess, err := session.NewCoordinator(backend)
			require.NoError(t, err)

			// arrange
			require.NoError(t, engine.SetCopies(ctx, sess, BranchCentral.ID, BookDune.ID, 3))
			loan, err := engine.Borrow(ctx, sess, BorrowerAlice.ID, BookDune.ID, BranchCentral.ID, Date(t, "2024-01-03"), Date(t, "2024-01-10"))
			require.NoError(t, err)
			require.NotNil(t, loan)
			again, err := engine.Borrow(ctx, sess, BorrowerAlice.ID, BookDune.ID, BranchCentral.ID, Date(t, "2024-01-03"), Date(t, "2024-01-10"))
			require.NoError(t, err)
			require.Nil(t, again)
			require.NoError(t, sess.Commit(ctx))

			// act
			rejected, rejectErr := engine.ReturnBook(ctx, sess, BorrowerAlice.ID, BookDune.ID, BranchCentral.ID, Date(t, "2024-01-15"))
			updated, overrideErr := engine.OverrideDueDate(ctx, sess, BookDune.ID, BorrowerAlice.ID, BranchCentral.ID, Date(t, "2024-01-20"))
			accepted, acceptErr := engine.ReturnBook(ctx, sess, BorrowerAlice.ID, BookDune.ID, BranchCentral.ID, Date(t, "2024-01-15"))
			commitErr := sess.Commit(ctx)

			// assert
			require.NoError(t, rejectErr)
			require.NoError(t, overrideErr)
			require.NoError(t, acceptErr)
			require.NoError(t, commitErr)
			assert.Equal(t, lending.ReturnRejectedOverdue, rejected)
			assert.True(t, updated)
			assert.Equal(t, lending.ReturnAccepted, accepted)

			count, err := engine.Copies(ctx, sess, BranchCentral.ID, BookDune.ID)
			require.NoError(t, err)
			assert.Equal(t, 3, count)

			loans, err := engine.LoansFor(ctx, sess, BorrowerAlice.ID)
			require.NoError(t, err)
			assert.Empty(t, loans)
		})
	}
}

func Test_Postgres_Engine_ConcurrentBorrowsOfLastCopy_OnlyOneSucceeds(t *testing.T) {
	for _, driver := range pgtest.Drivers {
		t.Run(driver, func(t *testing.T) {
			// setup
			ctx := context.Background()
			backend := pgtest.GivenBackend(t, driver)
			engine, err := circulation.NewEngine(backend.Catalog())
			require.NoError(t, err)

			admin, err := session.NewCoordinator(backend)
			require.NoError(t, err)

			// arrange
			require.NoError(t, engine.SetCopies(ctx, admin, BranchHarbor.ID, BookEmma.ID, 1))
			require.NoError(t, admin.Commit(ctx))

			var (
				wg        sync.WaitGroup
				succeeded atomic.Int32
				failed    atomic.Int32
			)

			// act
			for range 3 {
				for _, borrower := range FixtureBorrowers() {
					wg.Add(1)
					go func(borrowerID int64) {
						defer wg.Done()

						sess, err := session.NewCoordinator(backend)
						if err != nil {
							failed.Add(1)
							return
						}

						loan, err := engine.Borrow(ctx, sess, borrowerID, BookEmma.ID, BranchHarbor.ID, time.Now(), time.Time{})
						if err == nil {
							err = sess.Commit(ctx)
						}

						switch {
						case err != nil:
							failed.Add(1)
						case loan != nil:
							succeeded.Add(1)
						}
					}(borrower.ID)
				}
			}
			wg.Wait()

			// assert
			assert.Zero(t, failed.Load())
			assert.Equal(t, int32(1), succeeded.Load())

			count, err := engine.Copies(ctx, admin, BranchHarbor.ID, BookEmma.ID)
			require.NoError(t, err)
			assert.Zero(t, count)
			require.NoError(t, admin.Commit(ctx))
		})
	}
}

func Test_Postgres_Engine_ConcurrentReturnsAfterLastCopyLent_ConserveCopies(t *testing.T) {
	for _, driver := range pgtest.Drivers {
		t.Run(driver, func(t *testing.T) {
			// setup
			ctx := context.Background()
			backend := pgtest.GivenBackend(t, driver)
			engine, err := circulation.NewEngine(backend.Catalog())
			require.NoError(t, err)

			admin, err := session.NewCoordinator(backend)
			require.NoError(t, err)

			borrowers := FixtureBorrowers()
			require.NoError(t, engine.SetCopies(ctx, admin, BranchHarbor.ID, BookEmma.ID, len(borrowers)))
			require.NoError(t, admin.Commit(ctx))

			for round := range 5 {
				// arrange
				for _, borrower := range borrowers {
					loan, err := engine.Borrow(ctx, admin, borrower.ID, BookEmma.ID, BranchHarbor.ID, time.Now(), time.Time{})
					require.NoError(t, err)
					require.NotNil(t, loan)
				}
				require.NoError(t, admin.Commit(ctx))

				count, err := engine.Copies(ctx, admin, BranchHarbor.ID, BookEmma.ID)
				require.NoError(t, err)
				require.Zero(t, count, "round %d: all copies lent", round)
				require.NoError(t, admin.Commit(ctx))

				var (
					wg       sync.WaitGroup
					start    = make(chan struct{})
					accepted atomic.Int32
					failed   atomic.Int32
				)

				// act
				for _, borrower := range borrowers {
					wg.Add(1)
					go func(borrowerID int64) {
						defer wg.Done()

						sess, err := session.NewCoordinator(backend)
						if err != nil {
							failed.Add(1)
							return
						}

						<-start

						outcome, err := engine.ReturnBook(ctx, sess, borrowerID, BookEmma.ID, BranchHarbor.ID, time.Now())
						if err == nil {
							err = sess.Commit(ctx)
						}

						switch {
						case err != nil:
							failed.Add(1)
						case outcome.Accepted():
							accepted.Add(1)
						}
					}(borrower.ID)
				}
				close(start)
				wg.Wait()

				// assert
				assert.Zero(t, failed.Load(), "round %d", round)
				assert.Equal(t, int32(len(borrowers)), accepted.Load(), "round %d", round)

				count, err = engine.Copies(ctx, admin, BranchHarbor.ID, BookEmma.ID)
				require.NoError(t, err)
				assert.Equal(t, len(borrowers), count, "round %d: every returned copy is back", round)
				require.NoError(t, admin.Commit(ctx))
			}
		})
	}
}

func Test_Postgres_Observability_LogsStatements(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	metrics := NewMetricsCollectorSpy()
	backend := pgtest.GivenBackend(t, pgtest.Drivers[0],
		postgresengine.WithLogger(slog.New(logHandler)),
		postgresengine.WithMetrics(metrics),
	)

	// act
	tx, err := backend.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Inventory().Copies(ctx, BranchCentral, BookDune)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	// assert
	assert.True(t, metrics.HasDuration("lending_db_statement_duration_seconds", map[string]string{"action": "select_copies"}))
	assert.True(t,
		logHandler.HasLog(slog.LevelDebug, "lending.postgres: sql executed: select_copies").
			WithDurationMS().
			WithAttr("query").
			Assert(),
	)
}
