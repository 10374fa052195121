package lending_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

func Test_WithSuppressed_KeepsBothErrorsReachable(t *testing.T) {
	// arrange
	pending := errors.Join(lending.ErrInsertionFailed, lending.ErrDataAccess)
	rollbackErr := errors.New("connection reset")

	// act
	err := lending.WithSuppressed(pending, rollbackErr)

	// assert
	assert.ErrorIs(t, err, lending.ErrInsertionFailed)
	assert.ErrorIs(t, err, lending.ErrDataAccess)
	assert.ErrorIs(t, err, rollbackErr)

	var suppressed *lending.SuppressedError
	assert.ErrorAs(t, err, &suppressed)
	assert.Equal(t, rollbackErr, suppressed.Suppressed)
	assert.Contains(t, err.Error(), "suppressed: connection reset")
}

func Test_WithSuppressed_WithoutSuppressedError_ReturnsPrimary(t *testing.T) {
	// arrange
	pending := errors.New("boom")

	// act + assert
	assert.Equal(t, pending, lending.WithSuppressed(pending, nil))
	assert.Equal(t, pending, lending.WithSuppressed(nil, pending))
}

func Test_KindOf(t *testing.T) {
	testCases := []struct {
		description string
		err         error
		expected    lending.Kind
	}{
		{"nil", nil, lending.KindUnknown},
		{"not found", fmt.Errorf("book 4: %w", lending.ErrNotFound), lending.KindNotFound},
		{"already exists", errors.Join(lending.ErrInsertionFailed, lending.ErrAlreadyExists), lending.KindConflict},
		{"invalid argument", lending.ErrInvalidArgument, lending.KindInvalidArgument},
		{"data access", errors.Join(lending.ErrDataAccess, errors.New("disk")), lending.KindDataAccess},
		{"lock timeout", lending.ErrLockTimeout, lending.KindDataAccess},
		{"commit failure wins", errors.Join(lending.ErrCommitFailed, lending.ErrDataAccess), lending.KindCommitFailure},
		{"canceled", errors.Join(lending.ErrDataAccess, context.Canceled), lending.KindCanceled},
		{"unrelated", errors.New("other"), lending.KindUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, lending.KindOf(tc.err))
		})
	}
}

func Test_Kind_String(t *testing.T) {
	assert.Equal(t, "not_found", lending.KindNotFound.String())
	assert.Equal(t, "conflict", lending.KindConflict.String())
	assert.Equal(t, "commit_failure", lending.KindCommitFailure.String())
	assert.Equal(t, "unknown", lending.KindUnknown.String())
}
