package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/config"
)

const (
	flagConfig   = "config"
	flagBook     = "book"
	flagBorrower = "borrower"
	flagBranch   = "branch"
	flagCount    = "count"
	flagDue      = "due"
	flagOut      = "out"
	flagDate     = "date"
	flagAsOf     = "as-of"
)

// errSnapshotUnsupported is returned by snapshot commands on a PostgreSQL store.
var errSnapshotUnsupported = errors.New("snapshots are only supported by the memory store")

func newRootCmd() *cobra.Command {
	var (
		configPath string
		a          *app
	)

	rootCmd := &cobra.Command{
		Use:           "lendingctl",
		Short:         "Operate the library lending engine",
		Long:          "lendingctl runs lending operations (borrow, return, due date overrides, inventory) against the configured store.\nEvery command runs in its own session and commits on success.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			a, err = newApp(cmd.Context(), cfg, cmd.ErrOrStderr())

			return err
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a != nil {
				a.close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, flagConfig, "", "path to the YAML config file (defaults: in-memory store)")

	current := func() *app { return a }

	rootCmd.AddCommand(
		newMigrateCmd(current),
		newCopiesCmd(current),
		newBorrowCmd(current),
		newReturnCmd(current),
		newOverrideDueCmd(current),
		newLoansCmd(current),
		newBranchesCmd(current),
		newOverdueCmd(current),
		newSnapshotCmd(current),
	)

	return rootCmd
}

func newMigrateCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			if a.postgres == nil {
				return writeJSON(cmd.OutOrStdout(), statusView{Status: "nothing to migrate for the memory store"})
			}

			if err := a.postgres.CreateSchema(cmd.Context()); err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), statusView{Status: "schema created"})
		},
	}
}

func newCopiesCmd(current func() *app) *cobra.Command {
	copiesCmd := &cobra.Command{
		Use:   "copies",
		Short: "Inspect and manage per-branch copy counts",
	}

	var branchID, bookID int64
	var count int

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the copies of one book at a branch, or of all books with --book 0",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx := current(), cmd.Context()

			if bookID == 0 {
				all, err := a.engine.AllBranchCopies(ctx, a.session, branchID)
				if err != nil {
					return err
				}

				return commitAndWrite(ctx, cmd, a, toBookCopiesViews(all))
			}

			n, err := a.engine.Copies(ctx, a.session, branchID, bookID)
			if err != nil {
				return err
			}

			return commitAndWrite(ctx, cmd, a, copiesView{BookID: bookID, BranchID: branchID, Copies: n})
		},
	}
	getCmd.Flags().Int64Var(&branchID, flagBranch, 0, "branch ID")
	getCmd.Flags().Int64Var(&bookID, flagBook, 0, "book ID")
	_ = getCmd.MarkFlagRequired(flagBranch)

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set the copies of a book at a branch; 0 removes the record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx := current(), cmd.Context()

			if err := a.engine.SetCopies(ctx, a.session, branchID, bookID, count); err != nil {
				return err
			}

			return commitAndWrite(ctx, cmd, a, copiesView{BookID: bookID, BranchID: branchID, Copies: count})
		},
	}
	setCmd.Flags().Int64Var(&branchID, flagBranch, 0, "branch ID")
	setCmd.Flags().Int64Var(&bookID, flagBook, 0, "book ID")
	setCmd.Flags().IntVar(&count, flagCount, 0, "number of copies")
	markRequired(setCmd, flagBranch, flagBook, flagCount)

	copiesCmd.AddCommand(getCmd, setCmd)

	return copiesCmd
}

func newBorrowCmd(current func() *app) *cobra.Command {
	var borrowerID, bookID, branchID int64
	var due, out string

	cmd := &cobra.Command{
		Use:   "borrow",
		Short: "Lend a copy of a book from a branch to a borrower",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx := current(), cmd.Context()

			dueDate, err := parseDate(flagDue, due)
			if err != nil {
				return err
			}

			dateOut := time.Now().UTC()
			if out != "" {
				if dateOut, err = time.Parse(time.RFC3339, out); err != nil {
					return fmt.Errorf("--%s: %w", flagOut, err)
				}
			}

			loan, err := a.engine.Borrow(ctx, a.session, borrowerID, bookID, branchID, dateOut, dueDate)
			if err != nil {
				return err
			}

			if loan == nil {
				return commitAndWrite(ctx, cmd, a, statusView{Status: "not borrowed: already on loan, no copies left, or unknown book, borrower or branch"})
			}

			return commitAndWrite(ctx, cmd, a, toLoanView(*loan))
		},
	}

	loanFlags(cmd, &borrowerID, &bookID, &branchID)
	cmd.Flags().StringVar(&due, flagDue, "", "due date (YYYY-MM-DD), empty for none")
	cmd.Flags().StringVar(&out, flagOut, "", "checkout timestamp (RFC 3339), defaults to now")

	return cmd
}

func newReturnCmd(current func() *app) *cobra.Command {
	var borrowerID, bookID, branchID int64
	var date string

	cmd := &cobra.Command{
		Use:   "return",
		Short: "Return a borrowed copy; overdue returns are rejected until the due date is overridden",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx := current(), cmd.Context()

			returnDate := time.Now().UTC()
			if date != "" {
				var err error
				if returnDate, err = parseDate(flagDate, date); err != nil {
					return err
				}
			}

			outcome, err := a.engine.ReturnBook(ctx, a.session, borrowerID, bookID, branchID, returnDate)
			if err != nil {
				return err
			}

			return commitAndWrite(ctx, cmd, a, statusView{Status: outcome.String()})
		},
	}

	loanFlags(cmd, &borrowerID, &bookID, &branchID)
	cmd.Flags().StringVar(&date, flagDate, "", "return date (YYYY-MM-DD), defaults to today")

	return cmd
}

func newOverrideDueCmd(current func() *app) *cobra.Command {
	var borrowerID, bookID, branchID int64
	var due string

	cmd := &cobra.Command{
		Use:   "override-due",
		Short: "Change the due date of an outstanding loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx := current(), cmd.Context()

			dueDate, err := parseDate(flagDue, due)
			if err != nil {
				return err
			}

			updated, err := a.engine.OverrideDueDate(ctx, a.session, bookID, borrowerID, branchID, dueDate)
			if err != nil {
				return err
			}

			status := "updated"
			if !updated {
				status = "no such loan"
			}

			return commitAndWrite(ctx, cmd, a, statusView{Status: status})
		},
	}

	loanFlags(cmd, &borrowerID, &bookID, &branchID)
	cmd.Flags().StringVar(&due, flagDue, "", "new due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired(flagDue)

	return cmd
}

func newLoansCmd(current func() *app) *cobra.Command {
	var borrowerID int64

	cmd := &cobra.Command{
		Use:   "loans",
		Short: "List the outstanding loans of a borrower",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx := current(), cmd.Context()

			loans, err := a.engine.LoansFor(ctx, a.session, borrowerID)
			if err != nil {
				return err
			}

			return commitAndWrite(ctx, cmd, a, toLoanViews(loans))
		},
	}

	cmd.Flags().Int64Var(&borrowerID, flagBorrower, 0, "borrower ID")
	_ = cmd.MarkFlagRequired(flagBorrower)

	return cmd
}

func newBranchesCmd(current func() *app) *cobra.Command {
	var borrowerID int64

	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List the branches a borrower has outstanding loans at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx := current(), cmd.Context()

			branches, err := a.engine.BranchesWithOutstandingLoan(ctx, a.session, borrowerID)
			if err != nil {
				return err
			}

			views := make([]branchView, 0, len(branches))
			for _, branch := range branches {
				views = append(views, branchView{ID: branch.ID, Name: branch.Name, Address: branch.Address})
			}

			return commitAndWrite(ctx, cmd, a, views)
		},
	}

	cmd.Flags().Int64Var(&borrowerID, flagBorrower, 0, "borrower ID")
	_ = cmd.MarkFlagRequired(flagBorrower)

	return cmd
}

func newOverdueCmd(current func() *app) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List loans whose due date has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx := current(), cmd.Context()

			date := time.Now().UTC()
			if asOf != "" {
				var err error
				if date, err = parseDate(flagAsOf, asOf); err != nil {
					return err
				}
			}

			loans, err := a.engine.OverdueLoans(ctx, a.session, date)
			if err != nil {
				return err
			}

			return commitAndWrite(ctx, cmd, a, toLoanViews(loans))
		},
	}

	cmd.Flags().StringVar(&asOf, flagAsOf, "", "reference date (YYYY-MM-DD), defaults to today")

	return cmd
}

func newSnapshotCmd(current func() *app) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the memory store state as JSON",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Print the committed state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			if a.memory == nil {
				return errSnapshotUnsupported
			}

			data, err := a.memory.ExportSnapshot()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))

			return err
		},
	}

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the state with the snapshot in FILE and persist it to the configured snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if a.memory == nil {
				return errSnapshotUnsupported
			}

			if err := loadSnapshotStrict(a.memory, args[0]); err != nil {
				return err
			}

			return commitAndWrite(cmd.Context(), cmd, a, statusView{Status: "imported"})
		},
	}

	snapshotCmd.AddCommand(exportCmd, importCmd)

	return snapshotCmd
}

// commitAndWrite commits the session and prints v as JSON.
func commitAndWrite(ctx context.Context, cmd *cobra.Command, a *app, v any) error {
	if err := a.commit(ctx); err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), v)
}

func loanFlags(cmd *cobra.Command, borrowerID, bookID, branchID *int64) {
	cmd.Flags().Int64Var(borrowerID, flagBorrower, 0, "borrower ID")
	cmd.Flags().Int64Var(bookID, flagBook, 0, "book ID")
	cmd.Flags().Int64Var(branchID, flagBranch, 0, "branch ID")
	markRequired(cmd, flagBorrower, flagBook, flagBranch)
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = cmd.MarkFlagRequired(name)
	}
}

// parseDate parses a YYYY-MM-DD flag value. An empty value is the zero time.
func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, errors.Join(lending.ErrInvalidArgument, fmt.Errorf("--%s: %w", flag, err))
	}

	return date, nil
}
