package lending_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

func Test_DateOf_TruncatesToCalendarDay(t *testing.T) {
	// arrange
	berlin := time.FixedZone("CET", 3600)
	instant := time.Date(2024, 3, 10, 0, 30, 0, 0, berlin)

	// act
	date := lending.DateOf(instant)

	// assert
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), date)
}

func Test_DateOf_KeepsZeroTime(t *testing.T) {
	assert.True(t, lending.DateOf(time.Time{}).IsZero())
}

func Test_Loan_IsOverdueOn(t *testing.T) {
	dueDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		description string
		dueDate     time.Time
		returnDate  time.Time
		expected    bool
	}{
		{"before due date", dueDate, dueDate.AddDate(0, 0, -1), false},
		{"on due date", dueDate, dueDate, false},
		{"later on the due date", dueDate, dueDate.Add(23 * time.Hour), false},
		{"after due date", dueDate, dueDate.AddDate(0, 0, 1), true},
		{"without due date", time.Time{}, dueDate.AddDate(10, 0, 0), false},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// arrange
			loan := lending.Loan{DueDate: tc.dueDate}

			// act
			overdue := loan.IsOverdueOn(tc.returnDate)

			// assert
			assert.Equal(t, tc.expected, overdue)
		})
	}
}

func Test_Keys_AreBuiltFromIdentifiersOnly(t *testing.T) {
	// arrange
	book := lending.Book{ID: 7, Title: "Dune"}
	renamedBook := lending.Book{ID: 7, Title: "Dune Messiah"}
	branch := lending.Branch{ID: 3, Name: "Central"}
	borrower := lending.Borrower{ID: 5, Name: "Alice"}

	// act
	copyKey := lending.CopyRecord{Book: book, Branch: branch, Count: 2}.Key()
	loanKey := lending.Loan{Book: book, Borrower: borrower, Branch: branch}.Key()

	// assert
	assert.Equal(t, lending.CopyKeyOf(branch, renamedBook), copyKey)
	assert.Equal(t, lending.LoanKey{BookID: 7, BorrowerID: 5, BranchID: 3}, loanKey)
	assert.Equal(t, "copies/7/3", copyKey.String())
	assert.Equal(t, "loans/7/5/3", loanKey.String())
}

func Test_ReturnOutcome_String(t *testing.T) {
	assert.Equal(t, "nothing_to_return", lending.NothingToReturn.String())
	assert.Equal(t, "rejected_overdue", lending.ReturnRejectedOverdue.String())
	assert.Equal(t, "accepted", lending.ReturnAccepted.String())
	assert.True(t, lending.ReturnAccepted.Accepted())
	assert.False(t, lending.ReturnRejectedOverdue.Accepted())
}

func Test_ToMilliseconds_RoundsToThreeDecimals(t *testing.T) {
	assert.InDelta(t, 1.235, lending.ToMilliseconds(1234567*time.Nanosecond), 1e-9)
}
