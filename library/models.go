package library

import (
	"fmt"
	"time"
)

// Book represents catalog metadata and the number of copies on the shelf.
type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	Copies int    `json:"copies" validate:"min=0"`
}

// Member represents a registered library member.
type Member struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

// Loan is one row of the circulation ledger. It is created by a successful
// issue and closed exactly once by a return; it is never deleted.
type Loan struct {
	MemberID  string    `json:"member_id"`
	BookID    int64     `json:"book_id"`
	IssueDate time.Time `json:"issue_date"`
	DueDate   time.Time `json:"due_date"`

	// Returned is false while the loan is outstanding. ReturnDate and Fine
	// are only meaningful once it is true.
	Returned   bool      `json:"returned"`
	ReturnDate time.Time `json:"return_date"`
	Fine       int       `json:"fine"`
}

// Outstanding reports whether the book has been issued but not yet returned.
func (l Loan) Outstanding() bool { return !l.Returned }

// Status renders the ledger status column.
func (l Loan) Status() string {
	if !l.Returned {
		return statusOutstanding
	}
	return fmt.Sprintf("Returned on %s (Fine: $%d)", l.ReturnDate.Format(dateLayout), l.Fine)
}

// Receipt describes a completed return.
type Receipt struct {
	Loan Loan
	// DaysLate is zero when the book came back on or before the due date.
	DaysLate int
	// Restocked is false when the book had been removed from the catalog
	// while on loan, so no copy count was incremented.
	Restocked bool
}

// BorrowCount is one line of the most-borrowed report.
type BorrowCount struct {
	BookID int64  `json:"book_id"`
	Title  string `json:"title,omitempty"`
	Count  int    `json:"count"`
}
