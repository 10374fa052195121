package circulation

import (
	"context"
	"strconv"
	"time"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

const (
	operationBorrow                      = "borrow"
	operationReturn                      = "return_book"
	operationOverrideDueDate             = "override_due_date"
	operationAllBranchCopies             = "all_branch_copies"
	operationLoansFor                    = "loans_for"
	operationBranchesWithOutstandingLoan = "branches_with_outstanding_loan"
	operationCopies                      = "copies"
	operationSetCopies                   = "set_copies"
	operationOverdueLoans                = "overdue_loans"

	outcomeBorrowed        = "borrowed"
	outcomeAlreadyBorrowed = "already_borrowed"
	outcomeNoCopies        = "no_copies"
	outcomeUnknownParty    = "unknown_party"
	outcomeUpdated         = "updated"
	outcomeNoSuchLoan      = "no_such_loan"
	outcomeListed          = "listed"

	statusSuccess = "success"
	statusError   = "error"

	spanNamePrefix       = "lending."
	spanAttrOperation    = "operation"
	spanAttrSessionID    = "session_id"
	spanAttrBookID       = "book_id"
	spanAttrBorrowerID   = "borrower_id"
	spanAttrBranchID     = "branch_id"
	spanAttrCount        = "count"
	spanAttrAsOf         = "as_of"
	spanAttrOutcome      = "outcome"
	spanAttrErrorKind    = "error_kind"
	spanAttrDurationMS   = "duration_ms"
	metricLabelStatus    = "status"
	metricLabelOutcome   = "outcome"
	metricLabelErrorKind = "error_kind"

	metricOperationDuration = "lending_operation_duration_seconds"
	metricOperationOutcomes = "lending_operation_outcomes_total"
	metricOperationErrors   = "lending_operation_errors_total"

	logMsgOperation       = "lending.circulation: "
	logMsgOperationFailed = "lending.circulation: operation failed"
	logAttrOperation      = "operation"
	logAttrSessionID      = "session_id"
	logAttrOutcome        = "outcome"
	logAttrDurationMS     = "duration_ms"
	logAttrError          = "error"
	logAttrErrorKind      = "error_kind"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func idAttrs(bookID, borrowerID, branchID int64) map[string]string {
	return map[string]string{
		spanAttrBookID:     formatID(bookID),
		spanAttrBorrowerID: formatID(borrowerID),
		spanAttrBranchID:   formatID(branchID),
	}
}

func copyAttrs(bookID, branchID int64) map[string]string {
	return map[string]string{
		spanAttrBookID:   formatID(bookID),
		spanAttrBranchID: formatID(branchID),
	}
}

// operationObserver encapsulates logging, metrics and tracing for one engine operation.
type operationObserver struct {
	e         *Engine
	ctx       context.Context
	span      lending.SpanContext
	operation string
	sessionID string
	start     time.Time
}

// startOperation starts the span for an operation if the tracing collector is configured.
func (e *Engine) startOperation(
	ctx context.Context,
	sess Session,
	operation string,
	attrs map[string]string,
) (context.Context, *operationObserver) {
	obs := &operationObserver{e: e, operation: operation, sessionID: sess.ID(), start: time.Now()}

	if e.tracingCollector != nil {
		attrs[spanAttrOperation] = operation
		attrs[spanAttrSessionID] = obs.sessionID
		ctx, obs.span = e.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, attrs)
	}

	obs.ctx = ctx

	return ctx, obs
}

func (o *operationObserver) finishSuccess(outcome string) {
	duration := time.Since(o.start)

	if o.span != nil {
		o.e.tracingCollector.FinishSpan(o.span, statusSuccess, map[string]string{
			spanAttrOutcome:    outcome,
			spanAttrDurationMS: strconv.FormatFloat(lending.ToMilliseconds(duration), 'f', 3, 64),
		})
	}

	o.e.recordDuration(o.ctx, o.operation, statusSuccess, duration)
	o.e.incrementCounter(o.ctx, metricOperationOutcomes, map[string]string{
		spanAttrOperation:  o.operation,
		metricLabelOutcome: outcome,
	})

	args := []any{
		logAttrSessionID, o.sessionID,
		logAttrOutcome, outcome,
		logAttrDurationMS, lending.ToMilliseconds(duration),
	}

	if o.e.logger != nil {
		o.e.logger.Info(logMsgOperation+o.operation, args...)
	}

	if o.e.contextualLogger != nil {
		o.e.contextualLogger.InfoContext(o.ctx, logMsgOperation+o.operation, args...)
	}
}

func (o *operationObserver) finishError(err error) {
	duration := time.Since(o.start)
	kind := lending.KindOf(err).String()

	if o.span != nil {
		o.e.tracingCollector.FinishSpan(o.span, statusError, map[string]string{
			spanAttrErrorKind:  kind,
			spanAttrDurationMS: strconv.FormatFloat(lending.ToMilliseconds(duration), 'f', 3, 64),
		})
	}

	o.e.recordDuration(o.ctx, o.operation, statusError, duration)
	o.e.incrementCounter(o.ctx, metricOperationErrors, map[string]string{
		spanAttrOperation:    o.operation,
		metricLabelErrorKind: kind,
	})

	args := []any{
		logAttrOperation, o.operation,
		logAttrSessionID, o.sessionID,
		logAttrErrorKind, kind,
		logAttrError, err.Error(),
		logAttrDurationMS, lending.ToMilliseconds(duration),
	}

	if o.e.logger != nil {
		o.e.logger.Error(logMsgOperationFailed, args...)
	}

	if o.e.contextualLogger != nil {
		o.e.contextualLogger.ErrorContext(o.ctx, logMsgOperationFailed, args...)
	}
}

// recordDuration records the operation duration, with context if the collector supports it.
func (e *Engine) recordDuration(ctx context.Context, operation, status string, duration time.Duration) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		metricLabelStatus: status,
	}

	if contextual, ok := e.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
	} else {
		e.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	}
}

// incrementCounter increments a counter, with context if the collector supports it.
func (e *Engine) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextual, ok := e.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
	} else {
		e.metricsCollector.IncrementCounter(metric, labels)
	}
}
