package lending

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a referenced book, borrower, branch or loan does not exist
	// and the operation has no absent-result convention.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a loan with the same key already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument is returned for arguments that can never be valid, e.g., a negative copy count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDataAccess wraps any unexpected storage-layer failure.
	ErrDataAccess = errors.New("data access failure")

	// ErrCommitFailed is returned when committing a transaction fails. No further recovery is attempted.
	ErrCommitFailed = errors.New("commit failed")

	// ErrTxDone is returned when a transaction is used after it was committed or rolled back.
	ErrTxDone = errors.New("transaction has already been committed or rolled back")

	// ErrLockTimeout is returned when a per-key lock could not be acquired in time.
	ErrLockTimeout = errors.New("timed out waiting for lock")

	// ErrInsertionFailed is returned when the mutating steps of a borrow fail.
	ErrInsertionFailed = errors.New("borrowing failed")

	// ErrReturnFailed is returned when the mutating steps of a return fail.
	ErrReturnFailed = errors.New("returning failed")

	// ErrUpdateFailed is returned when a due date override could not be persisted.
	ErrUpdateFailed = errors.New("updating loan failed")

	// ErrNilDatabaseConnection is returned when a nil database connection is supplied.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrNilBackend is returned when a nil storage backend is supplied.
	ErrNilBackend = errors.New("storage backend must not be nil")

	// ErrNilCatalog is returned when a nil catalog is supplied.
	ErrNilCatalog = errors.New("catalog must not be nil")
)

// SuppressedError carries a primary error together with a secondary failure that happened
// while handling it, typically a failed rollback. Both stay reachable with errors.Is and errors.As.
type SuppressedError struct {
	Err        error
	Suppressed error
}

// WithSuppressed attaches suppressed to err. A nil suppressed error returns err unchanged.
func WithSuppressed(err, suppressed error) error {
	if suppressed == nil {
		return err
	}

	if err == nil {
		return suppressed
	}

	return &SuppressedError{Err: err, Suppressed: suppressed}
}

func (e *SuppressedError) Error() string {
	return e.Err.Error() + " (suppressed: " + e.Suppressed.Error() + ")"
}

// Unwrap exposes both the primary and the suppressed error.
func (e *SuppressedError) Unwrap() []error {
	return []error{e.Err, e.Suppressed}
}

// Kind classifies errors for a presentation layer that maps them to transport status codes.
type Kind int

const (
	// KindUnknown is any error not covered by the taxonomy.
	KindUnknown Kind = iota
	// KindNotFound corresponds to ErrNotFound.
	KindNotFound
	// KindConflict corresponds to ErrAlreadyExists.
	KindConflict
	// KindInvalidArgument corresponds to ErrInvalidArgument.
	KindInvalidArgument
	// KindDataAccess corresponds to ErrDataAccess, ErrLockTimeout and ErrTxDone.
	KindDataAccess
	// KindCommitFailure corresponds to ErrCommitFailed.
	KindCommitFailure
	// KindCanceled corresponds to context cancellation or deadline expiry.
	KindCanceled
)

// KindOf returns the Kind of err. The most severe kind wins when err matches several.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrCommitFailed):
		return KindCommitFailure
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrDataAccess),
		errors.Is(err, ErrLockTimeout),
		errors.Is(err, ErrTxDone):
		return KindDataAccess
	default:
		return KindUnknown
	}
}

// String returns the kind's name for logging.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindDataAccess:
		return "data_access"
	case KindCommitFailure:
		return "commit_failure"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}
