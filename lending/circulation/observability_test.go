package circulation_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending/circulation"
	. "github.com/kingjon3377/ntLmsSpring-sub000/testutil/helper" //nolint:revive
)

func Test_Observability_Borrow_LogsOutcome(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	engine, sess, _ := givenEngine(t, circulation.WithLogger(slog.New(logHandler)))

	// arrange
	require.NoError(t, engine.SetCopies(ctx, sess, BranchCentral.ID, BookDune.ID, 1))

	// act
	_, err := engine.Borrow(ctx, sess, BorrowerAlice.ID, BookDune.ID, BranchCentral.ID, time.Now(), time.Time{})
	require.NoError(t, err)
	_, err = engine.Borrow(ctx, sess, BorrowerBob.ID, BookDune.ID, BranchCentral.ID, time.Now(), time.Time{})
	require.NoError(t, err)

	// assert
	assert.True(t,
		logHandler.HasLog(slog.LevelInfo, "lending.circulation: borrow").
			WithStringAttr("outcome", "borrowed").
			WithStringAttr("session_id", sess.ID()).
			WithDurationMS().
			Assert(),
	)
	assert.True(t,
		logHandler.HasLog(slog.LevelInfo, "lending.circulation: borrow").
			WithStringAttr("outcome", "no_copies").
			Assert(),
	)
}

func Test_Observability_FailedOperation_LogsErrorKind(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	engine, sess, _ := givenEngine(t, circulation.WithContextualLogger(slog.New(logHandler)))

	// act
	err := engine.SetCopies(ctx, sess, 999, BookDune.ID, 1)

	// assert
	require.Error(t, err)
	assert.True(t,
		logHandler.HasLog(slog.LevelError, "lending.circulation: operation failed").
			WithStringAttr("operation", "set_copies").
			WithStringAttr("error_kind", "not_found").
			WithAttr("error").
			WithDurationMS().
			Assert(),
	)
}

func Test_Observability_Metrics_RecordOutcomesAndErrors(t *testing.T) {
	// setup
	ctx := context.Background()
	metrics := NewMetricsCollectorSpy()
	engine, sess, _ := givenEngine(t, circulation.WithMetrics(metrics))

	// arrange
	givenBorrowedDune(t, engine, sess, "2024-01-10")

	// act
	_, err := engine.ReturnBook(ctx, sess, BorrowerAlice.ID, BookDune.ID, BranchCentral.ID, Date(t, "2024-01-15"))
	require.NoError(t, err)
	_, err = engine.LoansFor(ctx, sess, 999)
	require.Error(t, err)

	// assert
	assert.True(t, metrics.HasCounter("lending_operation_outcomes_total",
		map[string]string{"operation": "borrow", "outcome": "borrowed"}))
	assert.True(t, metrics.HasCounter("lending_operation_outcomes_total",
		map[string]string{"operation": "return_book", "outcome": "rejected_overdue"}))
	assert.True(t, metrics.HasCounter("lending_operation_errors_total",
		map[string]string{"operation": "loans_for", "error_kind": "not_found"}))
	assert.True(t, metrics.HasDuration("lending_operation_duration_seconds",
		map[string]string{"operation": "set_copies", "status": "success"}))
	assert.True(t, metrics.HasDuration("lending_operation_duration_seconds",
		map[string]string{"operation": "loans_for", "status": "error"}))
}

func Test_Observability_Tracing_FinishesSpansWithStatus(t *testing.T) {
	// setup
	ctx := context.Background()
	tracing := NewTracingCollectorSpy()
	engine, sess, _ := givenEngine(t, circulation.WithTracing(tracing))

	// arrange
	givenBorrowedDune(t, engine, sess, "2024-01-10")

	// act
	updated, err := engine.OverrideDueDate(ctx, sess, BookDune.ID, BorrowerAlice.ID, BranchCentral.ID, Date(t, "2024-02-01"))
	require.NoError(t, err)
	require.True(t, updated)
	_, err = engine.Copies(ctx, sess, BranchCentral.ID, 999)
	require.Error(t, err)

	// assert
	overrides := tracing.Spans("lending.override_due_date")
	require.Len(t, overrides, 1)
	assert.True(t, overrides[0].Finished())
	assert.Equal(t, "success", overrides[0].Status())
	assert.Equal(t, "updated", overrides[0].Attributes()["outcome"])
	assert.Equal(t, "1", overrides[0].Attributes()["book_id"])
	assert.Equal(t, sess.ID(), overrides[0].Attributes()["session_id"])

	copies := tracing.Spans("lending.copies")
	require.Len(t, copies, 1)
	assert.Equal(t, "error", copies[0].Status())
	assert.Equal(t, "not_found", copies[0].Attributes()["error_kind"])
}
