package lending

// ReturnOutcome is the three-valued result of returning a book.
type ReturnOutcome int

const (
	// NothingToReturn means no outstanding loan exists for the key.
	NothingToReturn ReturnOutcome = iota

	// ReturnRejectedOverdue means the return date is after the due date. Nothing was changed;
	// the due date has to be overridden before the return can be accepted.
	ReturnRejectedOverdue

	// ReturnAccepted means the loan was removed and the copy was put back into inventory.
	ReturnAccepted
)

// String returns the outcome's name for logging and span attributes.
func (o ReturnOutcome) String() string {
	switch o {
	case ReturnRejectedOverdue:
		return "rejected_overdue"
	case ReturnAccepted:
		return "accepted"
	default:
		return "nothing_to_return"
	}
}

// Accepted reports whether the return went through.
func (o ReturnOutcome) Accepted() bool {
	return o == ReturnAccepted
}
