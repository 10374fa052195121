package memstore

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// DueDateLayout is the calendar date layout used for due dates in snapshots.
const DueDateLayout = time.DateOnly

var (
	// ErrInvalidSnapshotJSON is returned when snapshot JSON data is malformed.
	ErrInvalidSnapshotJSON = errors.New("snapshot json is not valid")

	// ErrInvalidSnapshot is returned when a snapshot violates a storage invariant,
	// e.g., a non-positive copy count or a loan referencing an unknown borrower.
	ErrInvalidSnapshot = errors.New("snapshot is not valid")
)

type snapshotDoc struct {
	Books     []bookDoc     `json:"books"`
	Branches  []branchDoc   `json:"branches"`
	Borrowers []borrowerDoc `json:"borrowers"`
	Copies    []copyDoc     `json:"copies"`
	Loans     []loanDoc     `json:"loans"`
}

type bookDoc struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type branchDoc struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type borrowerDoc struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type copyDoc struct {
	BookID   int64 `json:"book_id"`
	BranchID int64 `json:"branch_id"`
	Count    int   `json:"count"`
}

type loanDoc struct {
	BookID     int64      `json:"book_id"`
	BorrowerID int64      `json:"borrower_id"`
	BranchID   int64      `json:"branch_id"`
	DateOut    *time.Time `json:"date_out,omitempty"`
	DueDate    string     `json:"due_date,omitempty"`
}

// ExportSnapshot serializes the committed state as indented JSON, ordered by IDs.
// Uncommitted writes of open transactions are not included.
func (s *Store) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	doc := snapshotDoc{
		Books:     make([]bookDoc, 0, len(s.books)),
		Branches:  make([]branchDoc, 0, len(s.branches)),
		Borrowers: make([]borrowerDoc, 0, len(s.borrowers)),
		Copies:    make([]copyDoc, 0, len(s.copies)),
		Loans:     make([]loanDoc, 0, len(s.loans)),
	}

	for _, b := range s.books {
		doc.Books = append(doc.Books, bookDoc{ID: b.ID, Title: b.Title})
	}

	for _, b := range s.branches {
		doc.Branches = append(doc.Branches, branchDoc{ID: b.ID, Name: b.Name, Address: b.Address})
	}

	for _, b := range s.borrowers {
		doc.Borrowers = append(doc.Borrowers, borrowerDoc{ID: b.ID, Name: b.Name, Address: b.Address, Phone: b.Phone})
	}

	for key, row := range s.copies {
		doc.Copies = append(doc.Copies, copyDoc{BookID: key.BookID, BranchID: key.BranchID, Count: row.count})
	}

	for key, loan := range s.loans {
		ld := loanDoc{BookID: key.BookID, BorrowerID: key.BorrowerID, BranchID: key.BranchID}
		if !loan.DateOut.IsZero() {
			dateOut := loan.DateOut
			ld.DateOut = &dateOut
		}

		if loan.HasDueDate() {
			ld.DueDate = loan.DueDate.Format(DueDateLayout)
		}

		doc.Loans = append(doc.Loans, ld)
	}
	s.mu.RUnlock()

	slices.SortFunc(doc.Books, func(a, b bookDoc) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(doc.Branches, func(a, b branchDoc) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(doc.Borrowers, func(a, b borrowerDoc) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(doc.Copies, func(a, b copyDoc) int {
		return cmp.Or(cmp.Compare(a.BranchID, b.BranchID), cmp.Compare(a.BookID, b.BookID))
	})
	slices.SortFunc(doc.Loans, func(a, b loanDoc) int {
		return cmp.Or(
			cmp.Compare(a.BorrowerID, b.BorrowerID),
			cmp.Compare(a.BranchID, b.BranchID),
			cmp.Compare(a.BookID, b.BookID),
		)
	})

	return jsoniter.ConfigFastest.MarshalIndent(doc, "", "  ")
}

// ImportSnapshot replaces the complete committed state with the snapshot in data.
// The snapshot is validated first; on any error the Store is left unchanged.
// Transactions still open during an import apply their writes on top of the imported state.
func (s *Store) ImportSnapshot(data []byte) error {
	if !jsoniter.ConfigFastest.Valid(data) {
		return ErrInvalidSnapshotJSON
	}

	var doc snapshotDoc
	if err := jsoniter.ConfigFastest.Unmarshal(data, &doc); err != nil {
		return errors.Join(ErrInvalidSnapshotJSON, err)
	}

	books := make(map[int64]lending.Book, len(doc.Books))
	for _, b := range doc.Books {
		books[b.ID] = lending.Book{ID: b.ID, Title: b.Title}
	}

	branches := make(map[int64]lending.Branch, len(doc.Branches))
	for _, b := range doc.Branches {
		branches[b.ID] = lending.Branch{ID: b.ID, Name: b.Name, Address: b.Address}
	}

	borrowers := make(map[int64]lending.Borrower, len(doc.Borrowers))
	for _, b := range doc.Borrowers {
		borrowers[b.ID] = lending.Borrower{ID: b.ID, Name: b.Name, Address: b.Address, Phone: b.Phone}
	}

	copies := make(map[lending.CopyKey]copyRow, len(doc.Copies))
	for _, c := range doc.Copies {
		book, bookOK := books[c.BookID]
		branch, branchOK := branches[c.BranchID]

		switch {
		case !bookOK || !branchOK:
			return errors.Join(ErrInvalidSnapshot, fmt.Errorf("copies of book %d at branch %d reference an unknown entity", c.BookID, c.BranchID))
		case c.Count <= 0:
			return errors.Join(ErrInvalidSnapshot, fmt.Errorf("copies of book %d at branch %d: count %d is not positive", c.BookID, c.BranchID, c.Count))
		}

		copies[lending.CopyKeyOf(branch, book)] = copyRow{book: book, branch: branch, count: c.Count}
	}

	loans := make(map[lending.LoanKey]lending.Loan, len(doc.Loans))
	for _, l := range doc.Loans {
		book, bookOK := books[l.BookID]
		borrower, borrowerOK := borrowers[l.BorrowerID]
		branch, branchOK := branches[l.BranchID]

		if !bookOK || !borrowerOK || !branchOK {
			return errors.Join(ErrInvalidSnapshot, fmt.Errorf("loan of book %d to borrower %d at branch %d references an unknown entity", l.BookID, l.BorrowerID, l.BranchID))
		}

		loan := lending.Loan{Book: book, Borrower: borrower, Branch: branch}
		if l.DateOut != nil {
			loan.DateOut = *l.DateOut
		}

		if l.DueDate != "" {
			due, err := time.Parse(DueDateLayout, l.DueDate)
			if err != nil {
				return errors.Join(ErrInvalidSnapshot, err)
			}

			loan.DueDate = due
		}

		key := loan.Key()
		if _, duplicate := loans[key]; duplicate {
			return errors.Join(ErrInvalidSnapshot, fmt.Errorf("duplicate loan %s", key))
		}

		loans[key] = loan
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.books, s.branches, s.borrowers = books, branches, borrowers
	s.copies, s.loans = copies, loans

	return nil
}
