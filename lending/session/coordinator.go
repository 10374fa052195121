package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

const (
	logMsgBegin          = "lending.session: transaction opened"
	logMsgBeginFailed    = "lending.session: opening transaction failed"
	logMsgCommit         = "lending.session: transaction committed"
	logMsgCommitFailed   = "lending.session: commit failed"
	logMsgRollback       = "lending.session: transaction rolled back"
	logMsgRollbackFailed = "lending.session: rollback failed, attached as suppressed error"
	logMsgTransition     = "lending.session: state transition"

	logAttrSessionID  = "session_id"
	logAttrTxID       = "tx_id"
	logAttrFrom       = "from"
	logAttrTo         = "to"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
	logAttrCause      = "cause"

	metricTransactions        = "lending_transactions_total"
	metricTransactionDuration = "lending_transaction_duration_seconds"

	labelOutcome          = "outcome"
	outcomeCommitted      = "committed"
	outcomeCommitFailed   = "commit_failed"
	outcomeRolledBack     = "rolled_back"
	outcomeRollbackFailed = "rollback_failed"
	outcomeBeginFailed    = "begin_failed"
)

// Coordinator is the Transaction Coordinator of one caller session.
//
// All methods are safe for concurrent use. Operations from several goroutines sharing a
// Coordinator are serialized, since the underlying transaction handle is single-threaded.
type Coordinator struct {
	backend lending.Backend
	id      string

	// opMu serializes whole operations on the transaction handle.
	opMu sync.Mutex

	// stateMu guards state, tx and openedAt.
	stateMu  sync.Mutex
	state    State
	tx       lending.Tx
	openedAt time.Time

	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
	stateObserver    StateObserver
}

// NewCoordinator creates a Coordinator in state NoTransaction on top of backend.
func NewCoordinator(backend lending.Backend, options ...Option) (*Coordinator, error) {
	if backend == nil {
		return nil, lending.ErrNilBackend
	}

	c := &Coordinator{
		backend: backend,
		id:      uuid.NewString(),
		state:   NoTransaction,
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ID returns the session ID.
func (c *Coordinator) ID() string {
	return c.id
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	return c.state
}

// Begin opens a transaction. If one is already open, it is a no-op.
func (c *Coordinator) Begin(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	_, err := c.begin(ctx)

	return err
}

// Commit commits the open transaction. Without an open transaction it is a no-op.
//
// A failed commit is returned wrapped with lending.ErrCommitFailed. No rollback is attempted
// and the coordinator returns to NoTransaction either way.
func (c *Coordinator) Commit(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.state != Open {
		return nil
	}

	tx, openFor := c.tx, time.Since(c.openedAt)
	err := tx.Commit(ctx)

	c.transition(Committed)
	c.clear()

	if err != nil {
		c.logErrorContext(ctx, logMsgCommitFailed, err, logAttrTxID, tx.ID())
		c.recordOutcome(ctx, outcomeCommitFailed, openFor)

		return errors.Join(lending.ErrCommitFailed, err)
	}

	c.logInfoContext(ctx, logMsgCommit, logAttrTxID, tx.ID(), logAttrDurationMS, lending.ToMilliseconds(openFor))
	c.recordOutcome(ctx, outcomeCommitted, openFor)

	return nil
}

// Rollback rolls back the open transaction and returns pending, the error that triggered the
// rollback. If the rollback itself fails, its error is attached to pending as a suppressed error.
// Without an open transaction pending is returned unchanged. The coordinator ends in NoTransaction.
func (c *Coordinator) Rollback(ctx context.Context, pending error) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	return c.rollback(ctx, pending)
}

// Within runs fn against the open transaction, opening one first when needed.
//
// If fn fails, the transaction is rolled back and fn's error is returned, carrying any rollback
// failure as a suppressed error. On success the transaction stays open for further operations
// and a later Commit.
func (c *Coordinator) Within(ctx context.Context, fn func(ctx context.Context, tx lending.Tx) error) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	tx, err := c.begin(ctx)
	if err != nil {
		return err
	}

	if err = fn(ctx, tx); err != nil {
		// the rollback must run even when ctx is already done
		return c.rollback(context.WithoutCancel(ctx), err)
	}

	return nil
}

func (c *Coordinator) begin(ctx context.Context) (lending.Tx, error) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.state == Open {
		return c.tx, nil
	}

	tx, err := c.backend.Begin(ctx)
	if err != nil {
		c.logErrorContext(ctx, logMsgBeginFailed, err)
		c.recordOutcome(ctx, outcomeBeginFailed, 0)

		if !errors.Is(err, lending.ErrDataAccess) {
			err = errors.Join(lending.ErrDataAccess, err)
		}

		return nil, err
	}

	c.tx = tx
	c.openedAt = time.Now()
	c.transition(Open)
	c.logDebugContext(ctx, logMsgBegin, logAttrTxID, tx.ID())

	return tx, nil
}

func (c *Coordinator) rollback(ctx context.Context, pending error) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.state != Open {
		return pending
	}

	tx, openFor := c.tx, time.Since(c.openedAt)
	err := tx.Rollback(ctx)

	c.transition(RolledBack)
	c.clear()

	if err != nil {
		args := []any{logAttrTxID, tx.ID()}
		if pending != nil {
			args = append(args, logAttrCause, pending.Error())
		}

		c.logWarnContext(ctx, logMsgRollbackFailed, append([]any{logAttrError, err.Error()}, args...)...)
		c.recordOutcome(ctx, outcomeRollbackFailed, openFor)

		return lending.WithSuppressed(pending, err)
	}

	c.logInfoContext(ctx, logMsgRollback, logAttrTxID, tx.ID(), logAttrDurationMS, lending.ToMilliseconds(openFor))
	c.recordOutcome(ctx, outcomeRolledBack, openFor)

	return pending
}

// clear forces the coordinator back to NoTransaction. The caller holds stateMu.
func (c *Coordinator) clear() {
	c.tx = nil
	c.openedAt = time.Time{}
	c.transition(NoTransaction)
}

// transition moves to state to. The caller holds stateMu.
func (c *Coordinator) transition(to State) {
	from := c.state
	c.state = to

	if c.logger != nil {
		c.logger.Debug(logMsgTransition, logAttrSessionID, c.id, logAttrFrom, from.String(), logAttrTo, to.String())
	}

	if c.stateObserver != nil {
		c.stateObserver(c.id, from, to)
	}
}
