package main

import (
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/memstore"
)

var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

type statusView struct {
	Status string `json:"status"`
}

type copiesView struct {
	BookID   int64 `json:"book_id"`
	BranchID int64 `json:"branch_id"`
	Copies   int   `json:"copies"`
}

type bookCopiesView struct {
	BookID int64  `json:"book_id"`
	Title  string `json:"title"`
	Copies int    `json:"copies"`
}

type branchView struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type loanView struct {
	BookID       int64      `json:"book_id"`
	BookTitle    string     `json:"book_title"`
	BorrowerID   int64      `json:"borrower_id"`
	BorrowerName string     `json:"borrower_name"`
	BranchID     int64      `json:"branch_id"`
	BranchName   string     `json:"branch_name"`
	DateOut      *time.Time `json:"date_out,omitempty"`
	DueDate      string     `json:"due_date,omitempty"`
}

func toLoanView(loan lending.Loan) loanView {
	view := loanView{
		BookID:       loan.Book.ID,
		BookTitle:    loan.Book.Title,
		BorrowerID:   loan.Borrower.ID,
		BorrowerName: loan.Borrower.Name,
		BranchID:     loan.Branch.ID,
		BranchName:   loan.Branch.Name,
	}

	if !loan.DateOut.IsZero() {
		dateOut := loan.DateOut
		view.DateOut = &dateOut
	}

	if loan.HasDueDate() {
		view.DueDate = loan.DueDate.Format(time.DateOnly)
	}

	return view
}

func toLoanViews(loans []lending.Loan) []loanView {
	views := make([]loanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, toLoanView(loan))
	}

	return views
}

func toBookCopiesViews(copies []lending.BookCopies) []bookCopiesView {
	views := make([]bookCopiesView, 0, len(copies))
	for _, c := range copies {
		views = append(views, bookCopiesView{BookID: c.Book.ID, Title: c.Book.Title, Copies: c.Copies})
	}

	return views
}

func writeJSON(w io.Writer, v any) error {
	encoder := jsonAPI.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

// loadSnapshotStrict imports the snapshot at path; unlike loadSnapshot, a missing file is an error.
func loadSnapshotStrict(store *memstore.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return store.ImportSnapshot(data)
}
