package memstore

import (
	"errors"
	"time"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// DefaultLockTimeout is how long a transaction waits for a key lock held by another transaction.
const DefaultLockTimeout = 5 * time.Second

// ErrInvalidLockTimeout is returned when a non-positive lock timeout is supplied.
var ErrInvalidLockTimeout = errors.New("lock timeout must be positive")

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithLockTimeout sets how long a transaction waits for a key lock.
func WithLockTimeout(timeout time.Duration) Option {
	return func(s *Store) error {
		if timeout <= 0 {
			return ErrInvalidLockTimeout
		}

		s.lockTimeout = timeout

		return nil
	}
}

// WithLogger sets the logger for the Store.
//
// Debug level: transaction begin, commit and rollback with the number of buffered writes
// Warn level: lock wait timeouts.
func WithLogger(logger lending.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}
