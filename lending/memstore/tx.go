package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// Tx is an in-memory transaction. Like a database transaction handle it is meant to be used
// by one goroutine at a time; the session coordinator serializes access to it.
type Tx struct {
	store *Store
	id    string

	// mu guards done, held and the write sets.
	mu   sync.Mutex
	done bool
	held map[string]struct{}

	// a copy row with count 0 deletes the record, a nil loan deletes the loan
	copyWrites map[lending.CopyKey]copyRow
	loanWrites map[lending.LoanKey]*lending.Loan
}

// ID returns the transaction ID.
func (tx *Tx) ID() string {
	return tx.id
}

// Inventory returns the inventory store bound to this transaction.
func (tx *Tx) Inventory() lending.InventoryStore {
	return inventory{tx: tx}
}

// Ledger returns the loan ledger bound to this transaction.
func (tx *Tx) Ledger() lending.LoanLedger {
	return ledger{tx: tx}
}

// Commit applies the buffered writes atomically and releases all key locks.
// If ctx is already done, the transaction is rolled back instead and ctx's error is returned.
func (tx *Tx) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return lending.ErrTxDone
	}

	tx.done = true
	defer tx.releaseAll()

	if err := ctx.Err(); err != nil {
		return err
	}

	s := tx.store
	s.mu.Lock()

	for key, row := range tx.copyWrites {
		if row.count == 0 {
			delete(s.copies, key)
			continue
		}

		s.copies[key] = row
	}

	for key, loan := range tx.loanWrites {
		if loan == nil {
			delete(s.loans, key)
			continue
		}

		s.loans[key] = *loan
	}

	s.mu.Unlock()

	s.logDebug(logMsgCommit, logAttrTxID, tx.id, logAttrWrites, len(tx.copyWrites)+len(tx.loanWrites))

	return nil
}

// Rollback discards the buffered writes and releases all key locks.
func (tx *Tx) Rollback(_ context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return lending.ErrTxDone
	}

	tx.done = true
	tx.releaseAll()

	tx.store.logDebug(logMsgRollback, logAttrTxID, tx.id, logAttrWrites, len(tx.copyWrites)+len(tx.loanWrites))

	return nil
}

// lock takes the key lock for the rest of the transaction. It is reentrant.
func (tx *Tx) lock(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.mu.Lock()
	if tx.done {
		tx.mu.Unlock()
		return lending.ErrTxDone
	}

	if _, ok := tx.held[key]; ok {
		tx.mu.Unlock()
		return nil
	}
	tx.mu.Unlock()

	if err := tx.store.locks.acquire(ctx, key, tx.store.lockTimeout); err != nil {
		if errors.Is(err, lending.ErrLockTimeout) {
			tx.store.logWarn(logMsgLockTimeout, logAttrTxID, tx.id, logAttrKey, key)
		}

		return err
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		tx.store.locks.release(key)
		return lending.ErrTxDone
	}

	tx.held[key] = struct{}{}

	return nil
}

// releaseAll releases every held key lock. The caller holds mu.
func (tx *Tx) releaseAll() {
	for key := range tx.held {
		tx.store.locks.release(key)
	}

	clear(tx.held)
}

// copyRow returns the row visible to this transaction. The caller holds mu.
func (tx *Tx) copyRow(key lending.CopyKey) (copyRow, bool) {
	if row, ok := tx.copyWrites[key]; ok {
		return row, row.count > 0
	}

	s := tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.copies[key]

	return row, ok
}

// loan returns the loan visible to this transaction. The caller holds mu.
func (tx *Tx) loan(key lending.LoanKey) (lending.Loan, bool) {
	s := tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if loan, ok := tx.loanWrites[key]; ok {
		if loan == nil {
			return lending.Loan{}, false
		}

		return s.refreshLoan(*loan), true
	}

	loan, ok := s.loans[key]
	if !ok {
		return lending.Loan{}, false
	}

	return s.refreshLoan(loan), true
}

// mergedCopies returns the committed copy rows overlaid with this transaction's writes.
// The caller holds mu.
func (tx *Tx) mergedCopies() map[lending.CopyKey]copyRow {
	s := tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	merged := make(map[lending.CopyKey]copyRow, len(s.copies))
	for key, row := range s.copies {
		merged[key] = row
	}

	for key, row := range tx.copyWrites {
		if row.count == 0 {
			delete(merged, key)
			continue
		}

		merged[key] = row
	}

	for key, row := range merged {
		row.book = s.refreshBook(row.book)
		row.branch = s.refreshBranch(row.branch)
		merged[key] = row
	}

	return merged
}

// mergedLoans returns the committed loans overlaid with this transaction's writes.
// The caller holds mu.
func (tx *Tx) mergedLoans() []lending.Loan {
	s := tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	loans := make([]lending.Loan, 0, len(s.loans)+len(tx.loanWrites))

	for key, loan := range s.loans {
		if _, overwritten := tx.loanWrites[key]; overwritten {
			continue
		}

		loans = append(loans, s.refreshLoan(loan))
	}

	for _, loan := range tx.loanWrites {
		if loan != nil {
			loans = append(loans, s.refreshLoan(*loan))
		}
	}

	return loans
}
