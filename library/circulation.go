package library

import (
	"fmt"
	"slices"
	"strings"
)

// Issue lends one copy of a book to a member and returns the new loan.
//
// The book must exist and have a copy on the shelf. Unless the policy allows
// it, the member must not already hold an outstanding loan of the same book.
// The copy count and the new ledger row are persisted together; if that fails
// neither change is visible.
func (lm *LibraryManager) Issue(bookID int64, memberID string) (Loan, error) {
	if strings.TrimSpace(memberID) == "" {
		return Loan{}, fmt.Errorf("%w: member id is required", ErrValidation)
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.loadBooks()
	if err != nil {
		return Loan{}, err
	}
	loans, err := lm.loadLoans()
	if err != nil {
		return Loan{}, err
	}

	i := slices.IndexFunc(books, func(b Book) bool { return b.ID == bookID })
	if i < 0 {
		return Loan{}, fmt.Errorf("issue book %d: %w", bookID, ErrBookNotFound)
	}
	if books[i].Copies <= 0 {
		return Loan{}, fmt.Errorf("issue book %d: %w", bookID, ErrNoCopiesAvailable)
	}
	if lm.policy.OneLoanPerPair && findOutstanding(loans, bookID, memberID) >= 0 {
		return Loan{}, fmt.Errorf("issue book %d to member %s: %w", bookID, memberID, ErrDuplicateLoan)
	}

	if err := adjustCopies(books, bookID, -1); err != nil {
		return Loan{}, err
	}

	issued := lm.today()
	loan := Loan{
		MemberID:  memberID,
		BookID:    bookID,
		IssueDate: issued,
		DueDate:   issued.AddDate(0, 0, lm.policy.LoanDays),
	}
	loans = append(loans, loan)

	if err := lm.saveCirculation(books, loans); err != nil {
		return Loan{}, fmt.Errorf("issue book %d: %w", bookID, err)
	}

	lm.log.Info("book issued",
		"book_id", bookID,
		"member_id", memberID,
		"due", loan.DueDate.Format(dateLayout),
		"copies_left", books[i].Copies)
	return loan, nil
}

// Return closes the member's first outstanding loan of the book, computes the
// fine, and puts the copy back on the shelf. If the book has since been
// removed from the catalog the loan still closes and no copy is restocked.
func (lm *LibraryManager) Return(bookID int64, memberID string) (Receipt, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	loans, err := lm.loadLoans()
	if err != nil {
		return Receipt{}, err
	}
	books, err := lm.loadBooks()
	if err != nil {
		return Receipt{}, err
	}

	li := findOutstanding(loans, bookID, memberID)
	if li < 0 {
		return Receipt{}, fmt.Errorf("return book %d from member %s: %w", bookID, memberID, ErrNoMatchingLoan)
	}

	returned := lm.today()
	late := DaysLate(loans[li].DueDate, returned)
	loans[li].Returned = true
	loans[li].ReturnDate = returned
	loans[li].Fine = Fine(loans[li].DueDate, returned, lm.policy.FineRate)

	receipt := Receipt{DaysLate: late}
	if slices.ContainsFunc(books, func(b Book) bool { return b.ID == bookID }) {
		if err := adjustCopies(books, bookID, 1); err != nil {
			return Receipt{}, err
		}
		receipt.Restocked = true
	} else {
		lm.log.Warn("returned book is no longer in the catalog", "book_id", bookID)
	}

	if err := lm.saveCirculation(books, loans); err != nil {
		return Receipt{}, fmt.Errorf("return book %d: %w", bookID, err)
	}
	receipt.Loan = loans[li]

	lm.log.Info("book returned",
		"book_id", bookID,
		"member_id", memberID,
		"days_late", late,
		"fine", receipt.Loan.Fine)
	return receipt, nil
}

// GetAllLoans returns the whole ledger in issue order.
func (lm *LibraryManager) GetAllLoans() ([]Loan, error) { return lm.loadLoans() }

// OutstandingLoans returns the member's open loans in issue order.
func (lm *LibraryManager) OutstandingLoans(memberID string) ([]Loan, error) {
	loans, err := lm.loadLoans()
	if err != nil {
		return nil, err
	}
	open := []Loan{}
	for _, l := range loans {
		if l.MemberID == memberID && l.Outstanding() {
			open = append(open, l)
		}
	}
	return open, nil
}

func findOutstanding(loans []Loan, bookID int64, memberID string) int {
	return slices.IndexFunc(loans, func(l Loan) bool {
		return l.BookID == bookID && l.MemberID == memberID && l.Outstanding()
	})
}
