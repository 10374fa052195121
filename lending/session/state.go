package session

// State is the transaction state of a Coordinator.
type State int

const (
	// NoTransaction means no transaction is open.
	NoTransaction State = iota

	// Open means a transaction is open and stores can be used.
	Open

	// Committed is passed through while a commit finishes.
	Committed

	// RolledBack is passed through while a rollback finishes.
	RolledBack
)

// String returns the state's name for logging.
func (s State) String() string {
	switch s {
	case NoTransaction:
		return "no_transaction"
	case Open:
		return "open"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// StateObserver is notified of every state transition while the coordinator's state lock is held.
// It must not call back into the coordinator.
type StateObserver func(sessionID string, from State, to State)
