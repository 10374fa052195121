package postgresengine

import (
	"context"
	"time"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

const (
	actionBegin               = "begin"
	actionCommit              = "commit"
	actionRollback            = "rollback"
	actionCreateSchema        = "create_schema"
	actionLockCopies          = "lock_copies"
	actionSelectCopies        = "select_copies"
	actionUpsertCopies        = "upsert_copies"
	actionDeleteCopies        = "delete_copies"
	actionSelectLoanForUpdate = "select_loan_for_update"
	actionSelectLoans         = "select_loans"
	actionInsertLoan          = "insert_loan"
	actionUpdateLoan          = "update_loan"
	actionDeleteLoan          = "delete_loan"
	actionLookup              = "lookup"

	logMsgSQLExecuted     = "lending.postgres: sql executed: "
	logMsgSQLFailed       = "lending.postgres: sql failed: "
	logMsgSchemaCreated   = "lending.postgres: schema created"
	logMsgCloseRowsFailed = "lending.postgres: failed to close database rows"

	logAttrDurationMS = "duration_ms"
	logAttrQuery      = "query"
	logAttrAction     = "action"
	logAttrError      = "error"
	logAttrTables     = "tables"

	metricStatementDuration = "lending_db_statement_duration_seconds"
	metricDatabaseErrors    = "lending_db_errors_total"

	labelAction = "action"
	labelStatus = "status"

	statusSuccess = "success"
	statusError   = "error"
)

// observeStatement logs and measures one executed statement.
func (b *Backend) observeStatement(ctx context.Context, action, sqlQuery string, duration time.Duration, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}

	if err != nil {
		b.logError(ctx, logMsgSQLFailed+action, err, logAttrDurationMS, lending.ToMilliseconds(duration), logAttrQuery, sqlQuery)
	} else {
		b.logQueryWithDuration(ctx, action, sqlQuery, duration)
	}

	if b.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelAction: action, labelStatus: status}

	// Use context-aware methods if available
	if contextual, ok := b.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricStatementDuration, duration, labels)
		if err != nil {
			contextual.IncrementCounterContext(ctx, metricDatabaseErrors, map[string]string{labelAction: action})
		}

		return
	}

	b.metricsCollector.RecordDuration(metricStatementDuration, duration, labels)
	if err != nil {
		b.metricsCollector.IncrementCounter(metricDatabaseErrors, map[string]string{labelAction: action})
	}
}

// logQueryWithDuration logs SQL statements with execution time at debug level if a logger is configured.
func (b *Backend) logQueryWithDuration(ctx context.Context, action, sqlQuery string, duration time.Duration) {
	args := []any{logAttrDurationMS, lending.ToMilliseconds(duration), logAttrQuery, sqlQuery}

	if b.logger != nil {
		b.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if b.contextualLogger != nil {
		b.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// logInfo logs operational information at info level if a logger is configured.
func (b *Backend) logInfo(ctx context.Context, msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}

	if b.contextualLogger != nil {
		b.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (b *Backend) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if b.logger != nil {
		b.logger.Error(msg, allArgs...)
	}

	if b.contextualLogger != nil {
		b.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}
