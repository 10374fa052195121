package postgresengine

import (
	"errors"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// ErrEmptyTableName is returned when an empty table name is supplied.
var ErrEmptyTableName = errors.New("table name must not be empty")

// TableNames are the names of the tables the Backend works with.
type TableNames struct {
	Books     string `yaml:"books"`
	Branches  string `yaml:"branches"`
	Borrowers string `yaml:"borrowers"`
	Copies    string `yaml:"copies"`
	Loans     string `yaml:"loans"`
}

// DefaultTableNames returns the default table names.
func DefaultTableNames() TableNames {
	return TableNames{
		Books:     "books",
		Branches:  "branches",
		Borrowers: "borrowers",
		Copies:    "copies",
		Loans:     "loans",
	}
}

func (t TableNames) validate() error {
	for _, name := range []string{t.Books, t.Branches, t.Borrowers, t.Copies, t.Loans} {
		if name == "" {
			return ErrEmptyTableName
		}
	}

	return nil
}

// Option defines a functional option for configuring a Backend.
type Option func(*Backend) error

// WithTableNames sets the table names for the Backend.
func WithTableNames(names TableNames) Option {
	return func(b *Backend) error {
		if err := names.validate(); err != nil {
			return err
		}

		b.tables = names

		return nil
	}
}

// WithLogger sets the logger for the Backend.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: schema creation
// Error level: failed statements, commits and rollbacks.
func WithLogger(logger lending.Logger) Option {
	return func(b *Backend) error {
		b.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Backend, for trace correlation.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(b *Backend) error {
		b.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Backend.
// It receives statement durations and database error counters.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(b *Backend) error {
		b.metricsCollector = collector
		return nil
	}
}
